package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/medireservas/medireservas/internal/booking"
	"github.com/medireservas/medireservas/internal/model"
	"github.com/medireservas/medireservas/internal/storage"
)

type DoctorHandler struct {
	store   storage.Store
	service *booking.Service
	logger  *slog.Logger
}

func NewDoctorHandler(store storage.Store, service *booking.Service, logger *slog.Logger) *DoctorHandler {
	return &DoctorHandler{store: store, service: service, logger: logger}
}

// List is public: it backs the catalog browsing page. Inactive doctors are
// only visible to admins.
func (h *DoctorHandler) List(w http.ResponseWriter, r *http.Request) {
	doctors, err := h.store.Doctors(r.Context())
	if err != nil {
		respondDomainError(w, err)
		return
	}

	actor, _ := IdentityFrom(r.Context())
	if actor.Role != model.RoleAdmin {
		visible := doctors[:0]
		for _, d := range doctors {
			if d.Active {
				visible = append(visible, d)
			}
		}
		doctors = visible
	}
	respond(w, http.StatusOK, map[string]any{"data": doctors})
}

func (h *DoctorHandler) Get(w http.ResponseWriter, r *http.Request) {
	doc, err := h.store.Doctor(r.Context(), r.PathValue("id"))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respond(w, http.StatusOK, map[string]any{"data": doc})
}

type doctorRequest struct {
	Name          string   `json:"name"`
	Specialty     string   `json:"specialty"`
	Experience    string   `json:"experience"`
	Rating        float64  `json:"rating"`
	ImageRef      string   `json:"image"`
	AvailableDays []string `json:"availableDays"`
	TimeSlots     []string `json:"timeSlots"`
	Active        *bool    `json:"active"`
}

func (h *DoctorHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req doctorRequest
	if !decodeBody(w, r, &req) {
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Specialty = strings.TrimSpace(req.Specialty)
	if req.Name == "" || req.Specialty == "" {
		respondError(w, http.StatusBadRequest, kindValidationFailed, "name and specialty are required")
		return
	}

	doc := model.Doctor{
		Name:          req.Name,
		Specialty:     req.Specialty,
		Experience:    req.Experience,
		Rating:        req.Rating,
		ImageRef:      req.ImageRef,
		AvailableDays: req.AvailableDays,
		TimeSlots:     req.TimeSlots,
		Active:        true,
	}
	if len(doc.TimeSlots) == 0 {
		doc.TimeSlots = append([]string(nil), storage.StandardGrid...)
	}
	if req.Active != nil {
		doc.Active = *req.Active
	}

	created, err := h.store.PutDoctor(r.Context(), doc)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	h.logger.Info("doctor created", "doctor_id", created.ID)
	respond(w, http.StatusCreated, map[string]any{"data": created})
}

func (h *DoctorHandler) Update(w http.ResponseWriter, r *http.Request) {
	current, err := h.store.Doctor(r.Context(), r.PathValue("id"))
	if err != nil {
		respondDomainError(w, err)
		return
	}

	var req doctorRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if v := strings.TrimSpace(req.Name); v != "" {
		current.Name = v
	}
	if v := strings.TrimSpace(req.Specialty); v != "" {
		current.Specialty = v
	}
	if req.Experience != "" {
		current.Experience = req.Experience
	}
	if req.Rating > 0 {
		current.Rating = req.Rating
	}
	if req.ImageRef != "" {
		current.ImageRef = req.ImageRef
	}
	if req.AvailableDays != nil {
		current.AvailableDays = req.AvailableDays
	}
	if req.TimeSlots != nil {
		current.TimeSlots = req.TimeSlots
	}
	if req.Active != nil {
		current.Active = *req.Active
	}

	updated, err := h.store.PutDoctor(r.Context(), current)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respond(w, http.StatusOK, map[string]any{"data": updated})
}

func (h *DoctorHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.store.DeleteDoctor(r.Context(), id); err != nil {
		respondDomainError(w, err)
		return
	}
	h.logger.Info("doctor deleted", "doctor_id", id)
	respond(w, http.StatusOK, map[string]any{"message": "Doctor removed"})
}

// Slots powers the booking calendar for signed-in users.
func (h *DoctorHandler) Slots(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		respondError(w, http.StatusBadRequest, kindValidationFailed, "date query parameter is required")
		return
	}
	slots, err := h.service.Slots(r.Context(), r.PathValue("id"), date)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respond(w, http.StatusOK, map[string]any{"data": slots})
}
