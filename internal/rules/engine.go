// Package rules is the single authority for appointment status transitions,
// double-booking conflicts and slot availability. Every presentation surface
// goes through it; none re-derives transition legality on its own.
//
// All functions are pure: they validate against the state handed to them and
// return the mutated appointment for the caller to persist. Atomicity of the
// read-validate-write cycle is the storage layer's job.
package rules

import (
	"fmt"

	"github.com/medireservas/medireservas/internal/model"
)

// RequestTransition validates and applies a status change. Target must be
// confirmed or cancelled; date/time changes go through RequestReschedule.
func RequestTransition(appt model.Appointment, actor model.Identity, target model.Status) (model.Appointment, *Notification, error) {
	if !target.Valid() {
		return appt, nil, &ValidationError{Field: "status", Detail: fmt.Sprintf("unknown status %q", target)}
	}
	if target == model.StatusPending {
		return appt, nil, &TransitionRejectedError{
			Reason: "an appointment can only return to pending through a reschedule with a new date and time",
		}
	}
	if appt.Status == target {
		return appt, nil, &TransitionRejectedError{
			Reason: fmt.Sprintf("the appointment is already %s", target),
		}
	}

	switch appt.Status {
	case model.StatusCancelled:
		return appt, nil, &TransitionRejectedError{
			Reason: "cancelled appointments cannot be reactivated; book a new appointment instead",
		}
	case model.StatusConfirmed:
		// confirmed -> cancelled is locked for every role, admins included:
		// confirmed visits are released only by contacting the center.
		return appt, nil, &TransitionRejectedError{
			Reason: "the appointment is already confirmed and cannot be cancelled online; contact the doctor or medical center directly",
		}
	}

	// From here appt.Status == pending.
	switch target {
	case model.StatusConfirmed:
		if actor.Role != model.RoleDoctor && actor.Role != model.RoleAdmin {
			return appt, nil, &TransitionRejectedError{
				Reason: "only the doctor or an administrator can confirm an appointment",
			}
		}
	case model.StatusCancelled:
		// pending -> cancelled is open to patient, doctor and admin.
	}

	appt.Status = target
	appt.PendingReason = ""
	return appt, notifyStatusChange(appt, actor), nil
}

// RequestReschedule validates and applies a date/time change. The result is
// always pending again and must be re-confirmed. existing is the current
// non-cancelled appointment set used for the conflict check; the appointment
// being moved is excluded by id.
func RequestReschedule(appt model.Appointment, actor model.Identity, newDate, newTime string, existing []model.Appointment) (model.Appointment, *Notification, error) {
	if err := validateSlotInput(newDate, newTime); err != nil {
		return appt, nil, err
	}

	switch appt.Status {
	case model.StatusCancelled:
		return appt, nil, &TransitionRejectedError{
			Reason: "cancelled appointments cannot be rescheduled; book a new appointment instead",
		}
	case model.StatusConfirmed:
		if actor.Role == model.RolePatient {
			return appt, nil, &TransitionRejectedError{
				Reason: "the appointment is already confirmed and cannot be rescheduled online; contact the doctor or medical center directly",
			}
		}
	}

	if conflict, ok := CheckConflict(existing, appt.PatientEmail, newDate, newTime, appt.ID); ok {
		return appt, nil, &SlotConflictError{Date: conflict.Date, Time: conflict.Time}
	}

	appt.Date = newDate
	appt.Time = newTime
	appt.Status = model.StatusPending
	if actor.Role == model.RoleDoctor || actor.Role == model.RoleAdmin {
		appt.PendingReason = model.PendingReasonDoctorReschedule
	} else {
		appt.PendingReason = ""
	}
	return appt, notifyReschedule(appt, actor), nil
}

// CheckConflict scans non-cancelled appointments for the same patient at the
// identical slot. Linear scan; fine at clinic scale.
func CheckConflict(appts []model.Appointment, patientEmail, date, clock, excludeID string) (*model.Appointment, bool) {
	for i := range appts {
		a := &appts[i]
		if a.ID == excludeID || a.Status == model.StatusCancelled {
			continue
		}
		if a.PatientEmail == patientEmail && a.Date == date && a.Time == clock {
			return a, true
		}
	}
	return nil, false
}

func validateSlotInput(date, clock string) error {
	if _, err := ParseDate(date); err != nil {
		return &ValidationError{Field: "date", Detail: "must be an ISO date (YYYY-MM-DD)"}
	}
	if _, err := ParseClock(clock); err != nil {
		return &ValidationError{Field: "time", Detail: "must be a 24h time (HH:MM)"}
	}
	return nil
}
