package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/medireservas/medireservas/internal/model"
	"github.com/medireservas/medireservas/internal/storage"
	"github.com/medireservas/medireservas/libs/auth"
)

type AuthHandler struct {
	signer *auth.Signer
	store  storage.Store
	logger *slog.Logger
}

func NewAuthHandler(signer *auth.Signer, store storage.Store, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{signer: signer, store: store, logger: logger}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Role     string `json:"role"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeBody(w, r, &req) {
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, kindValidationFailed, "email and password are required")
		return
	}

	user, err := h.store.UserByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			// Same kind and message as a bad password; no account probing.
			respondError(w, http.StatusUnauthorized, kindInvalidCredentials, "invalid email or password")
			return
		}
		respondDomainError(w, err)
		return
	}
	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		respondError(w, http.StatusUnauthorized, kindInvalidCredentials, "invalid email or password")
		return
	}

	token, err := h.signer.Issue(user.ID, user.Email, string(user.Role))
	if err != nil {
		h.logger.Error("token issue failed", "err", err)
		respondError(w, http.StatusInternalServerError, kindInternal, "internal server error")
		return
	}

	h.logger.Info("login", "user_id", user.ID, "role", user.Role)
	respond(w, http.StatusOK, map[string]any{
		"message": "Login successful",
		"token":   token,
		"user":    user.Identity(),
	})
}

// Register is a demo simulation: input is validated but nothing is stored.
// Sign-ins go through the published test accounts.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeBody(w, r, &req) {
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	req.Name = strings.TrimSpace(req.Name)
	if req.Email == "" || req.Password == "" || req.Name == "" {
		respondError(w, http.StatusBadRequest, kindValidationFailed, "name, email and password are required")
		return
	}
	role := model.Role(req.Role)
	if req.Role != "" && !role.Valid() {
		respondError(w, http.StatusBadRequest, kindValidationFailed, "role must be patient, doctor or admin")
		return
	}

	respond(w, http.StatusCreated, map[string]any{
		"message": "Registration received. This demo does not create accounts; use the published test credentials to sign in.",
		"userId":  uuid.NewString(),
	})
}

// Verify runs behind RequireAuth, so reaching it means the token resolved to
// a live account.
func (h *AuthHandler) Verify(w http.ResponseWriter, r *http.Request) {
	actor, ok := IdentityFrom(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, kindTokenMissing, "no token provided")
		return
	}
	respond(w, http.StatusOK, map[string]any{"user": actor})
}

// Logout is stateless and idempotent: tokens are not tracked server side, the
// client simply discards its copy.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK, map[string]any{"message": "Session closed"})
}
