package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/medireservas/medireservas/internal/model"
)

// Memory is the default store: a single shared in-process collection with all
// writes serialized behind one mutex, so validate-then-write cycles observe a
// stable snapshot.
type Memory struct {
	mu           sync.RWMutex
	users        map[string]model.User // keyed by id
	doctors      map[string]model.Doctor
	appointments map[string]model.Appointment
	now          func() time.Time
	newID        func() string
}

func NewMemory() *Memory {
	return &Memory{
		users:        map[string]model.User{},
		doctors:      map[string]model.Doctor{},
		appointments: map[string]model.Appointment{},
		now:          time.Now,
		newID:        uuid.NewString,
	}
}

func (m *Memory) UserByEmail(_ context.Context, email string) (model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		// Exact match; emails are case-sensitive as stored.
		if u.Email == email {
			return u, nil
		}
	}
	return model.User{}, ErrNotFound
}

func (m *Memory) UserByID(_ context.Context, id string) (model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return model.User{}, ErrNotFound
	}
	return u, nil
}

// AddUser seeds a user record. Registration is simulated and never reaches
// this; it exists for provisioning and tests.
func (m *Memory) AddUser(u model.User) model.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u.ID == "" {
		u.ID = m.newID()
	}
	m.users[u.ID] = u
	return u
}

func (m *Memory) Doctors(_ context.Context) ([]model.Doctor, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.Doctor, 0, len(m.doctors))
	for _, d := range m.doctors {
		out = append(out, cloneDoctor(d))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *Memory) Doctor(_ context.Context, id string) (model.Doctor, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.doctors[id]
	if !ok {
		return model.Doctor{}, ErrNotFound
	}
	return cloneDoctor(d), nil
}

func (m *Memory) PutDoctor(_ context.Context, d model.Doctor) (model.Doctor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d.ID == "" {
		d.ID = m.newID()
	}
	m.doctors[d.ID] = cloneDoctor(d)
	return d, nil
}

func (m *Memory) DeleteDoctor(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.doctors[id]; !ok {
		return ErrNotFound
	}
	delete(m.doctors, id)
	return nil
}

func (m *Memory) CreateAppointment(_ context.Context, appt model.Appointment, guard Guard) (model.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if guard != nil {
		if err := guard(m.snapshotLocked()); err != nil {
			return model.Appointment{}, err
		}
	}

	appt.ID = m.newID()
	appt.CreatedAt = m.now().UTC()
	appt.Status = model.StatusPending
	appt.PendingReason = ""
	m.appointments[appt.ID] = appt
	return appt, nil
}

func (m *Memory) Appointment(_ context.Context, id string) (model.Appointment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.appointments[id]
	if !ok {
		return model.Appointment{}, ErrNotFound
	}
	return a, nil
}

func (m *Memory) Appointments(_ context.Context, f Filter) ([]model.Appointment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []model.Appointment
	for _, a := range m.appointments {
		if f.matches(a) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		if out[i].Time != out[j].Time {
			return out[i].Time < out[j].Time
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *Memory) UpdateAppointment(_ context.Context, id string, mutate Mutate) (model.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.appointments[id]
	if !ok {
		return model.Appointment{}, ErrNotFound
	}

	updated, err := mutate(current, m.snapshotLocked())
	if err != nil {
		return model.Appointment{}, err
	}
	if updated.ID != current.ID ||
		updated.DoctorID != current.DoctorID ||
		updated.PatientEmail != current.PatientEmail {
		return model.Appointment{}, ErrPartiesImmutable
	}
	updated.CreatedAt = current.CreatedAt
	m.appointments[id] = updated
	return updated, nil
}

func (m *Memory) DeleteAppointment(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.appointments[id]; !ok {
		return ErrNotFound
	}
	delete(m.appointments, id)
	return nil
}

func (m *Memory) snapshotLocked() []model.Appointment {
	out := make([]model.Appointment, 0, len(m.appointments))
	for _, a := range m.appointments {
		out = append(out, a)
	}
	return out
}

func cloneDoctor(d model.Doctor) model.Doctor {
	d.AvailableDays = append([]string(nil), d.AvailableDays...)
	d.TimeSlots = append([]string(nil), d.TimeSlots...)
	return d
}

var _ Store = (*Memory)(nil)
