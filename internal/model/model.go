package model

import "time"

// Role is the access level baked into a user record and its session tokens.
type Role string

const (
	RolePatient Role = "patient"
	RoleDoctor  Role = "doctor"
	RoleAdmin   Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RolePatient, RoleDoctor, RoleAdmin:
		return true
	}
	return false
}

// Status is the appointment lifecycle state. Confirmed and cancelled are
// terminal with respect to each other; only a reschedule moves an appointment
// back to pending.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled:
		return true
	}
	return false
}

// PendingReasonDoctorReschedule marks a pending appointment that became
// pending because the doctor (or an admin) moved it, so the patient UI can
// show "awaiting your confirmation" instead of a generic "pending".
const PendingReasonDoctorReschedule = "doctor_reschedule"

type User struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`
	Name         string `json:"name"`
	Role         Role   `json:"role"`
	Phone        string `json:"phone,omitempty"`
}

// Identity is a resolved caller, attached to requests by the access
// middleware. It never carries the password hash.
type Identity struct {
	UserID string `json:"id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	Role   Role   `json:"role"`
}

func (u User) Identity() Identity {
	return Identity{UserID: u.ID, Email: u.Email, Name: u.Name, Role: u.Role}
}

type Doctor struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Specialty     string   `json:"specialty"`
	Experience    string   `json:"experience"`
	Rating        float64  `json:"rating"`
	ImageRef      string   `json:"image,omitempty"`
	AvailableDays []string `json:"availableDays"` // ISO dates (YYYY-MM-DD)
	TimeSlots     []string `json:"timeSlots"`     // HH:MM, the bookable grid
	Active        bool     `json:"active"`
}

type Appointment struct {
	ID              string    `json:"id"`
	DoctorID        string    `json:"doctorId"`
	DoctorName      string    `json:"doctorName"`
	Specialty       string    `json:"specialty"` // snapshot at booking time
	PatientName     string    `json:"patientName"`
	PatientEmail    string    `json:"patientEmail"`
	Date            string    `json:"date"` // YYYY-MM-DD
	Time            string    `json:"time"` // HH:MM
	DurationMinutes int       `json:"duration"`
	VisitType       string    `json:"type"`
	Status          Status    `json:"status"`
	PendingReason   string    `json:"pendingReason,omitempty"`
	AdminNotes      string    `json:"adminNotes,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
}

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// StartsAt combines Date and Time into a wall-clock instant in UTC.
func (a Appointment) StartsAt() (time.Time, error) {
	return time.Parse(DateLayout+" "+TimeLayout, a.Date+" "+a.Time)
}
