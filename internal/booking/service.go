// Package booking orchestrates the rules engine against the store: every
// mutation is an atomic read-validate-write, and successful state changes
// hand a notification request to the dispatcher.
package booking

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/medireservas/medireservas/internal/model"
	"github.com/medireservas/medireservas/internal/notify"
	"github.com/medireservas/medireservas/internal/rules"
	"github.com/medireservas/medireservas/internal/storage"
)

// ErrForbidden is returned when an actor operates on an appointment that is
// not theirs. Admins are never scoped.
var ErrForbidden = errors.New("appointment does not belong to you")

type Service struct {
	store    storage.Store
	notifier notify.Dispatcher
	logger   *slog.Logger
}

func New(store storage.Store, notifier notify.Dispatcher, logger *slog.Logger) *Service {
	return &Service{store: store, notifier: notifier, logger: logger}
}

type BookRequest struct {
	DoctorID        string
	Date            string
	Time            string
	DurationMinutes int
	VisitType       string
	PatientName     string // defaults to the actor's name
	PatientEmail    string // admin only; others always book for themselves
}

// Book creates a pending appointment for the actor (or, for admins, for the
// named patient). The conflict check and the insert run atomically.
func (s *Service) Book(ctx context.Context, actor model.Identity, req BookRequest) (model.Appointment, error) {
	if strings.TrimSpace(req.DoctorID) == "" {
		return model.Appointment{}, &rules.ValidationError{Field: "doctorId", Detail: "required"}
	}
	if err := validateSlot(req.Date, req.Time); err != nil {
		return model.Appointment{}, err
	}

	doc, err := s.store.Doctor(ctx, req.DoctorID)
	if err != nil {
		return model.Appointment{}, err
	}
	if !doc.Active {
		return model.Appointment{}, &rules.ValidationError{Field: "doctorId", Detail: "doctor is not accepting appointments"}
	}

	patientName := strings.TrimSpace(req.PatientName)
	if patientName == "" {
		patientName = actor.Name
	}
	patientEmail := actor.Email
	if actor.Role == model.RoleAdmin && strings.TrimSpace(req.PatientEmail) != "" {
		patientEmail = strings.TrimSpace(req.PatientEmail)
	}
	duration := req.DurationMinutes
	if duration <= 0 {
		duration = rules.DefaultSlotMinutes
	}

	draft := model.Appointment{
		DoctorID:        doc.ID,
		DoctorName:      doc.Name,
		Specialty:       doc.Specialty,
		PatientName:     patientName,
		PatientEmail:    patientEmail,
		Date:            req.Date,
		Time:            req.Time,
		DurationMinutes: duration,
		VisitType:       strings.TrimSpace(req.VisitType),
	}

	created, err := s.store.CreateAppointment(ctx, draft, func(existing []model.Appointment) error {
		if conflict, ok := rules.CheckConflict(existing, draft.PatientEmail, draft.Date, draft.Time, ""); ok {
			return &rules.SlotConflictError{Date: conflict.Date, Time: conflict.Time}
		}
		return nil
	})
	if err != nil {
		if storage.IsUniqueViolation(err) {
			return model.Appointment{}, &rules.SlotConflictError{Date: req.Date, Time: req.Time}
		}
		return model.Appointment{}, err
	}

	s.dispatch(ctx, rules.NotifyBooked(created))
	return created, nil
}

// Transition moves an appointment to the target status under the rules
// engine's transition table.
func (s *Service) Transition(ctx context.Context, actor model.Identity, id string, target model.Status) (model.Appointment, error) {
	var pending *rules.Notification
	updated, err := s.store.UpdateAppointment(ctx, id, func(current model.Appointment, _ []model.Appointment) (model.Appointment, error) {
		if err := s.checkScope(actor, current); err != nil {
			return current, err
		}
		next, note, err := rules.RequestTransition(current, actor, target)
		if err != nil {
			return current, err
		}
		pending = note
		return next, nil
	})
	if err != nil {
		return model.Appointment{}, err
	}
	s.dispatch(ctx, pending)
	return updated, nil
}

// Reschedule moves an appointment to a new slot; the result is pending again.
func (s *Service) Reschedule(ctx context.Context, actor model.Identity, id, newDate, newTime string) (model.Appointment, error) {
	var pending *rules.Notification
	updated, err := s.store.UpdateAppointment(ctx, id, func(current model.Appointment, existing []model.Appointment) (model.Appointment, error) {
		if err := s.checkScope(actor, current); err != nil {
			return current, err
		}
		next, note, err := rules.RequestReschedule(current, actor, newDate, newTime, existing)
		if err != nil {
			return current, err
		}
		pending = note
		return next, nil
	})
	if err != nil {
		if storage.IsUniqueViolation(err) {
			return model.Appointment{}, &rules.SlotConflictError{Date: newDate, Time: newTime}
		}
		return model.Appointment{}, err
	}
	s.dispatch(ctx, pending)
	return updated, nil
}

// SetAdminNotes attaches free-form notes; admin-only at the handler boundary.
func (s *Service) SetAdminNotes(ctx context.Context, id, notes string) (model.Appointment, error) {
	return s.store.UpdateAppointment(ctx, id, func(current model.Appointment, _ []model.Appointment) (model.Appointment, error) {
		current.AdminNotes = strings.TrimSpace(notes)
		return current, nil
	})
}

// Delete removes an appointment unconditionally. Admin-only at the boundary.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.store.DeleteAppointment(ctx, id)
}

// ListFor returns the actor's effective appointment view: doctors see their
// own schedule, patients their own bookings, admins everything.
func (s *Service) ListFor(ctx context.Context, actor model.Identity, f storage.Filter) ([]model.Appointment, error) {
	switch actor.Role {
	case model.RoleDoctor:
		f.DoctorID = actor.UserID
		f.PatientEmail = ""
	case model.RolePatient:
		f.PatientEmail = actor.Email
		f.DoctorID = ""
	}
	return s.store.Appointments(ctx, f)
}

// Get returns one appointment if it is within the actor's scope.
func (s *Service) Get(ctx context.Context, actor model.Identity, id string) (model.Appointment, error) {
	appt, err := s.store.Appointment(ctx, id)
	if err != nil {
		return model.Appointment{}, err
	}
	if err := s.checkScope(actor, appt); err != nil {
		return model.Appointment{}, err
	}
	return appt, nil
}

// Slots computes the availability of a doctor's grid for one day.
func (s *Service) Slots(ctx context.Context, doctorID, date string) ([]rules.Slot, error) {
	if err := validateSlot(date, "00:00"); err != nil {
		return nil, &rules.ValidationError{Field: "date", Detail: "must be an ISO date (YYYY-MM-DD)"}
	}
	doc, err := s.store.Doctor(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	booked, err := s.store.Appointments(ctx, storage.Filter{DoctorID: doctorID, DateFrom: date, DateTo: date})
	if err != nil {
		return nil, err
	}
	return rules.SlotAvailability(doc, date, booked), nil
}

func (s *Service) checkScope(actor model.Identity, appt model.Appointment) error {
	switch actor.Role {
	case model.RoleAdmin:
		return nil
	case model.RoleDoctor:
		if appt.DoctorID != actor.UserID {
			return ErrForbidden
		}
	case model.RolePatient:
		if appt.PatientEmail != actor.Email {
			return ErrForbidden
		}
	default:
		return ErrForbidden
	}
	return nil
}

func (s *Service) dispatch(ctx context.Context, n *rules.Notification) {
	if n == nil || s.notifier == nil {
		return
	}
	s.notifier.Dispatch(ctx, *n)
}

func validateSlot(date, clock string) error {
	if _, err := rules.ParseDate(date); err != nil {
		return &rules.ValidationError{Field: "date", Detail: "must be an ISO date (YYYY-MM-DD)"}
	}
	if _, err := rules.ParseClock(clock); err != nil {
		return &rules.ValidationError{Field: "time", Detail: "must be a 24h time (HH:MM)"}
	}
	return nil
}
