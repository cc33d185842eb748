package rules

import "fmt"

// TransitionRejectedError carries the user-facing reason a status change was
// refused. The reason strings are normative copy surfaced directly to clients.
type TransitionRejectedError struct {
	Reason string
}

func (e *TransitionRejectedError) Error() string { return e.Reason }

// SlotConflictError reports an existing non-cancelled booking for the same
// patient at the same date and time.
type SlotConflictError struct {
	Date string
	Time string
}

func (e *SlotConflictError) Error() string {
	return fmt.Sprintf("you already have an appointment booked for %s at %s; a patient cannot hold two appointments in the same slot", e.Date, e.Time)
}

// ValidationError reports a malformed input field.
type ValidationError struct {
	Field  string
	Detail string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Detail)
}
