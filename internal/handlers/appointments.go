package handlers

import (
	"log/slog"
	"net/http"

	"github.com/medireservas/medireservas/internal/booking"
	"github.com/medireservas/medireservas/internal/model"
	"github.com/medireservas/medireservas/internal/storage"
)

type AppointmentHandler struct {
	service *booking.Service
	logger  *slog.Logger
}

func NewAppointmentHandler(service *booking.Service, logger *slog.Logger) *AppointmentHandler {
	return &AppointmentHandler{service: service, logger: logger}
}

// List returns the caller's view: patients their own bookings, doctors their
// own schedule, admins everything. Admins can narrow with query filters.
func (h *AppointmentHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := IdentityFrom(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, kindTokenMissing, "no token provided")
		return
	}

	q := r.URL.Query()
	f := storage.Filter{
		DoctorID:     q.Get("doctorId"),
		PatientEmail: q.Get("patientEmail"),
		DateFrom:     q.Get("from"),
		DateTo:       q.Get("to"),
	}
	appts, err := h.service.ListFor(r.Context(), actor, f)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	if appts == nil {
		appts = []model.Appointment{}
	}
	respond(w, http.StatusOK, map[string]any{"data": appts})
}

func (h *AppointmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, _ := IdentityFrom(r.Context())
	appt, err := h.service.Get(r.Context(), actor, r.PathValue("id"))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respond(w, http.StatusOK, map[string]any{"data": appt})
}

type createAppointmentRequest struct {
	DoctorID     string `json:"doctorId"`
	Date         string `json:"date"`
	Time         string `json:"time"`
	Duration     int    `json:"duration"`
	VisitType    string `json:"type"`
	PatientName  string `json:"patientName"`
	PatientEmail string `json:"patientEmail"`
}

func (h *AppointmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, _ := IdentityFrom(r.Context())

	var req createAppointmentRequest
	if !decodeBody(w, r, &req) {
		return
	}
	created, err := h.service.Book(r.Context(), actor, booking.BookRequest{
		DoctorID:        req.DoctorID,
		Date:            req.Date,
		Time:            req.Time,
		DurationMinutes: req.Duration,
		VisitType:       req.VisitType,
		PatientName:     req.PatientName,
		PatientEmail:    req.PatientEmail,
	})
	if err != nil {
		respondDomainError(w, err)
		return
	}
	h.logger.Info("appointment booked",
		"appointment_id", created.ID, "doctor_id", created.DoctorID, "date", created.Date, "time", created.Time)
	respond(w, http.StatusCreated, map[string]any{
		"message": "Appointment requested; it is pending until the doctor confirms.",
		"data":    created,
	})
}

type statusRequest struct {
	Status model.Status `json:"status"`
}

func (h *AppointmentHandler) Status(w http.ResponseWriter, r *http.Request) {
	actor, _ := IdentityFrom(r.Context())

	var req statusRequest
	if !decodeBody(w, r, &req) {
		return
	}
	updated, err := h.service.Transition(r.Context(), actor, r.PathValue("id"), req.Status)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	h.logger.Info("appointment status changed",
		"appointment_id", updated.ID, "status", updated.Status, "actor_role", actor.Role)
	respond(w, http.StatusOK, map[string]any{"data": updated})
}

type rescheduleRequest struct {
	Date string `json:"date"`
	Time string `json:"time"`
}

func (h *AppointmentHandler) Reschedule(w http.ResponseWriter, r *http.Request) {
	actor, _ := IdentityFrom(r.Context())

	var req rescheduleRequest
	if !decodeBody(w, r, &req) {
		return
	}
	updated, err := h.service.Reschedule(r.Context(), actor, r.PathValue("id"), req.Date, req.Time)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	h.logger.Info("appointment rescheduled",
		"appointment_id", updated.ID, "date", updated.Date, "time", updated.Time, "actor_role", actor.Role)
	respond(w, http.StatusOK, map[string]any{
		"message": "Appointment moved; it is pending again until confirmed.",
		"data":    updated,
	})
}

type notesRequest struct {
	Notes string `json:"notes"`
}

func (h *AppointmentHandler) Notes(w http.ResponseWriter, r *http.Request) {
	var req notesRequest
	if !decodeBody(w, r, &req) {
		return
	}
	updated, err := h.service.SetAdminNotes(r.Context(), r.PathValue("id"), req.Notes)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respond(w, http.StatusOK, map[string]any{"data": updated})
}

func (h *AppointmentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.service.Delete(r.Context(), id); err != nil {
		respondDomainError(w, err)
		return
	}
	h.logger.Info("appointment deleted", "appointment_id", id)
	respond(w, http.StatusOK, map[string]any{"message": "Appointment removed"})
}
