package rules

import (
	"fmt"

	"github.com/medireservas/medireservas/internal/model"
)

// Notification event types emitted on successful state changes.
const (
	EventConfirmed   = "appointment.confirmed.v1"
	EventCancelled   = "appointment.cancelled.v1"
	EventRescheduled = "appointment.rescheduled.v1"
	EventBooked      = "appointment.booked.v1"
)

// Notification is a request to notify someone about a state change. The rules
// engine only emits the request; delivery (or its simulation) is the
// notifier collaborator's concern, and no delivery confirmation is implied.
type Notification struct {
	Event         string `json:"event"`
	AppointmentID string `json:"appointment_id"`
	Recipient     string `json:"recipient"`
	Message       string `json:"message"`
}

func notifyStatusChange(appt model.Appointment, actor model.Identity) *Notification {
	switch appt.Status {
	case model.StatusConfirmed:
		return &Notification{
			Event:         EventConfirmed,
			AppointmentID: appt.ID,
			Recipient:     appt.PatientEmail,
			Message: fmt.Sprintf("Your appointment with %s on %s at %s has been confirmed.",
				appt.DoctorName, appt.Date, appt.Time),
		}
	case model.StatusCancelled:
		return &Notification{
			Event:         EventCancelled,
			AppointmentID: appt.ID,
			Recipient:     appt.PatientEmail,
			Message: fmt.Sprintf("Your appointment with %s on %s at %s has been cancelled by %s.",
				appt.DoctorName, appt.Date, appt.Time, actorLabel(actor)),
		}
	}
	return nil
}

func notifyReschedule(appt model.Appointment, actor model.Identity) *Notification {
	msg := fmt.Sprintf("Your appointment with %s was moved to %s at %s.",
		appt.DoctorName, appt.Date, appt.Time)
	if appt.PendingReason == model.PendingReasonDoctorReschedule {
		msg += " Please confirm the new time."
	}
	return &Notification{
		Event:         EventRescheduled,
		AppointmentID: appt.ID,
		Recipient:     appt.PatientEmail,
		Message:       msg,
	}
}

// NotifyBooked is emitted by the booking path once a new appointment is stored.
func NotifyBooked(appt model.Appointment) *Notification {
	return &Notification{
		Event:         EventBooked,
		AppointmentID: appt.ID,
		Recipient:     appt.PatientEmail,
		Message: fmt.Sprintf("Your appointment request with %s for %s at %s was received and is awaiting confirmation.",
			appt.DoctorName, appt.Date, appt.Time),
	}
}

func actorLabel(actor model.Identity) string {
	switch actor.Role {
	case model.RoleDoctor:
		return "the doctor"
	case model.RoleAdmin:
		return "the medical center"
	default:
		return "you"
	}
}
