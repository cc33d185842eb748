package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/medireservas/medireservas/internal/booking"
	"github.com/medireservas/medireservas/internal/model"
	"github.com/medireservas/medireservas/internal/storage"
	"github.com/medireservas/medireservas/libs/auth"
	"github.com/medireservas/medireservas/libs/httpx"
)

type Deps struct {
	Signer  *auth.Signer
	Store   storage.Store
	Service *booking.Service
	Logger  *slog.Logger
}

// Register wires the REST surface onto mux. Route patterns carry the method,
// so the mux itself answers 405 for wrong verbs.
func Register(mux *http.ServeMux, d Deps) {
	authH := NewAuthHandler(d.Signer, d.Store, d.Logger)
	doctorH := NewDoctorHandler(d.Store, d.Service, d.Logger)
	apptH := NewAppointmentHandler(d.Service, d.Logger)

	authed := RequireAuth(d.Signer, d.Store)
	adminOnly := RequireRole(model.RoleAdmin)
	maybeAuthed := OptionalAuth(d.Signer, d.Store)

	handle := func(pattern string, h http.HandlerFunc, mw ...httpx.Middleware) {
		mux.Handle(pattern, httpx.Chain(h, mw...))
	}

	mux.HandleFunc("GET /api/health", health)

	handle("POST /api/auth/login", authH.Login)
	handle("POST /api/auth/register", authH.Register)
	handle("GET /api/auth/verify", authH.Verify, authed)
	handle("POST /api/auth/logout", authH.Logout)

	handle("GET /api/doctors", doctorH.List, maybeAuthed)
	handle("GET /api/doctors/{id}", doctorH.Get)
	handle("GET /api/doctors/{id}/slots", doctorH.Slots, authed)
	handle("POST /api/doctors", doctorH.Create, authed, adminOnly)
	handle("PUT /api/doctors/{id}", doctorH.Update, authed, adminOnly)
	handle("DELETE /api/doctors/{id}", doctorH.Delete, authed, adminOnly)

	handle("GET /api/appointments", apptH.List, authed)
	handle("POST /api/appointments", apptH.Create, authed, RequireRole(model.RolePatient, model.RoleAdmin))
	handle("GET /api/appointments/{id}", apptH.Get, authed)
	handle("POST /api/appointments/{id}/status", apptH.Status, authed)
	handle("POST /api/appointments/{id}/reschedule", apptH.Reschedule, authed)
	handle("PATCH /api/appointments/{id}/notes", apptH.Notes, authed, adminOnly)
	handle("DELETE /api/appointments/{id}", apptH.Delete, authed, adminOnly)
}

func health(w http.ResponseWriter, _ *http.Request) {
	respond(w, http.StatusOK, map[string]any{
		"status":    "OK",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
