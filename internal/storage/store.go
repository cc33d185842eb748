// Package storage holds the server-authoritative appointment, user and
// doctor collections. Two implementations exist: a seeded in-memory store
// (the default, mirroring the demo deployment) and a Postgres store.
//
// The store is not authorization-aware; callers gate access. It does enforce
// two structural contracts: reads return snapshots, and every rule-validated
// write runs as an atomic read-validate-write (mutex critical section in
// memory, SELECT ... FOR UPDATE transaction in Postgres).
package storage

import (
	"context"
	"errors"

	"github.com/medireservas/medireservas/internal/model"
)

var (
	ErrNotFound = errors.New("not found")
	// ErrPartiesImmutable is returned when a mutation tries to change the
	// doctor or patient of an existing appointment.
	ErrPartiesImmutable = errors.New("appointment doctor and patient are immutable")
)

// Filter narrows appointment listings. Zero fields match everything.
type Filter struct {
	DoctorID     string
	PatientEmail string
	DateFrom     string // inclusive, YYYY-MM-DD
	DateTo       string // inclusive
}

func (f Filter) matches(a model.Appointment) bool {
	if f.DoctorID != "" && a.DoctorID != f.DoctorID {
		return false
	}
	if f.PatientEmail != "" && a.PatientEmail != f.PatientEmail {
		return false
	}
	if f.DateFrom != "" && a.Date < f.DateFrom {
		return false
	}
	if f.DateTo != "" && a.Date > f.DateTo {
		return false
	}
	return true
}

// Guard inspects the appointments visible at write time and returns an error
// to abort the write. The slice is guaranteed to include every non-cancelled
// appointment of the affected patient.
type Guard func(existing []model.Appointment) error

// Mutate rewrites one appointment under the store's write lock. existing has
// the same visibility guarantee as Guard.
type Mutate func(current model.Appointment, existing []model.Appointment) (model.Appointment, error)

type Store interface {
	UserByEmail(ctx context.Context, email string) (model.User, error)
	UserByID(ctx context.Context, id string) (model.User, error)

	Doctors(ctx context.Context) ([]model.Doctor, error)
	Doctor(ctx context.Context, id string) (model.Doctor, error)
	PutDoctor(ctx context.Context, d model.Doctor) (model.Doctor, error)
	DeleteDoctor(ctx context.Context, id string) error

	// CreateAppointment assigns a fresh id and createdAt, forces status
	// pending, and runs guard atomically with the insert.
	CreateAppointment(ctx context.Context, appt model.Appointment, guard Guard) (model.Appointment, error)
	Appointment(ctx context.Context, id string) (model.Appointment, error)
	Appointments(ctx context.Context, f Filter) ([]model.Appointment, error)
	// UpdateAppointment applies mutate atomically. It fails with
	// ErrPartiesImmutable if mutate changed the doctor or patient.
	UpdateAppointment(ctx context.Context, id string, mutate Mutate) (model.Appointment, error)
	// DeleteAppointment is unconditional; authorization is the caller's job.
	DeleteAppointment(ctx context.Context, id string) error
}
