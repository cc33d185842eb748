package storage

import (
	"context"

	"github.com/medireservas/medireservas/internal/model"
)

// Demo credentials: all three seed accounts use the password "123456".
// The hash is a fixed bcrypt digest so the seed is deterministic.
const demoPasswordHash = "$2b$10$qb3kQ1xX6ses/urqcLtWouUb3.KyT9WCMXgK3cHCbUu/tHXjzWaei"

// StandardGrid is the clinic-wide bookable slot grid: mornings 09:00-11:30
// and afternoons 14:00-17:30, in 30-minute steps.
var StandardGrid = []string{
	"09:00", "09:30", "10:00", "10:30", "11:00", "11:30",
	"14:00", "14:30", "15:00", "15:30", "16:00", "16:30", "17:00", "17:30",
}

// Seed provisions the static demo dataset: three users (one per role), the
// doctor catalog, and a week of sample appointments for the seed doctor.
func Seed(m *Memory) {
	doctorUser := m.AddUser(model.User{
		Email: "doctor@test.com", PasswordHash: demoPasswordHash,
		Name: "Dr. Juan Pérez", Role: model.RoleDoctor, Phone: "+56912345678",
	})
	m.AddUser(model.User{
		Email: "paciente@test.com", PasswordHash: demoPasswordHash,
		Name: "María González", Role: model.RolePatient, Phone: "+56987654321",
	})
	m.AddUser(model.User{
		Email: "admin@test.com", PasswordHash: demoPasswordHash,
		Name: "Admin Sistema", Role: model.RoleAdmin, Phone: "+56911111111",
	})

	catalog := []model.Doctor{
		{Name: "Dr. María González", Specialty: "Cardiología", Experience: "10 años de experiencia", Rating: 4.8},
		{Name: "Dr. Carlos Rodríguez", Specialty: "Neurología", Experience: "15 años de experiencia", Rating: 4.9},
		{Name: "Dra. Ana Martínez", Specialty: "Pediatría", Experience: "8 años de experiencia", Rating: 4.7},
		{Name: "Dr. Luis Fernández", Specialty: "Dermatología", Experience: "12 años de experiencia", Rating: 4.6},
		{Name: "Dra. Carmen Silva", Specialty: "Ginecología", Experience: "18 años de experiencia", Rating: 4.9},
		{Name: "Dr. Roberto Mendoza", Specialty: "Traumatología", Experience: "14 años de experiencia", Rating: 4.5},
		{Name: "Dra. Patricia López", Specialty: "Oftalmología", Experience: "9 años de experiencia", Rating: 4.7},
		{Name: "Dr. Miguel Torres", Specialty: "Psiquiatría", Experience: "20 años de experiencia", Rating: 4.8},
		{Name: "Dra. Elena Vargas", Specialty: "Endocrinología", Experience: "11 años de experiencia", Rating: 4.6},
		{Name: "Dr. Fernando Castro", Specialty: "Urología", Experience: "16 años de experiencia", Rating: 4.7},
		{Name: "Dra. Sofía Herrera", Specialty: "Cardiología", Experience: "13 años de experiencia", Rating: 4.8},
		{Name: "Dr. Andrés Morales", Specialty: "Gastroenterología", Experience: "7 años de experiencia", Rating: 4.4},
	}
	for _, d := range catalog {
		d.TimeSlots = append([]string(nil), StandardGrid...)
		d.Active = true
		_, _ = m.PutDoctor(context.Background(), d)
	}

	// The doctor account gets its own catalog profile sharing the user id,
	// so appointments booked against it show up in that account's schedule.
	seedDoctor, _ := m.PutDoctor(context.Background(), model.Doctor{
		ID:         doctorUser.ID,
		Name:       doctorUser.Name,
		Specialty:  "Medicina General",
		Experience: "10 años de experiencia",
		Rating:     4.8,
		TimeSlots:  append([]string(nil), StandardGrid...),
		Active:     true,
	})

	// A demo week for the seeded doctor account.
	samples := []model.Appointment{
		{PatientName: "Ana Martínez", PatientEmail: "ana.martinez@example.com", Date: "2025-07-07", Time: "09:00", DurationMinutes: 30, VisitType: "Consulta General", Status: model.StatusConfirmed},
		{PatientName: "Carlos Rodríguez", PatientEmail: "carlos.rodriguez@example.com", Date: "2025-07-07", Time: "10:30", DurationMinutes: 45, VisitType: "Control", Status: model.StatusConfirmed},
		{PatientName: "María González", PatientEmail: "paciente@test.com", Date: "2025-07-08", Time: "11:00", DurationMinutes: 30, VisitType: "Consulta Especializada", Status: model.StatusConfirmed},
		{PatientName: "Pedro Sánchez", PatientEmail: "pedro.sanchez@example.com", Date: "2025-07-09", Time: "14:30", DurationMinutes: 30, VisitType: "Consulta General", Status: model.StatusPending},
		{PatientName: "Laura Fernández", PatientEmail: "laura.fernandez@example.com", Date: "2025-07-10", Time: "09:30", DurationMinutes: 60, VisitType: "Examen Médico", Status: model.StatusConfirmed},
		{PatientName: "Roberto Silva", PatientEmail: "roberto.silva@example.com", Date: "2025-07-11", Time: "16:00", DurationMinutes: 30, VisitType: "Control", Status: model.StatusConfirmed},
	}
	for _, s := range samples {
		s.DoctorID = seedDoctor.ID
		s.DoctorName = seedDoctor.Name
		s.Specialty = seedDoctor.Specialty
		status := s.Status
		created, err := m.CreateAppointment(context.Background(), s, nil)
		if err != nil {
			continue
		}
		if status != model.StatusPending {
			_, _ = m.UpdateAppointment(context.Background(), created.ID, func(cur model.Appointment, _ []model.Appointment) (model.Appointment, error) {
				cur.Status = status
				return cur, nil
			})
		}
	}
}

// NewSeededMemory is the standard demo store.
func NewSeededMemory() *Memory {
	m := NewMemory()
	Seed(m)
	return m
}
