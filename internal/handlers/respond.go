// Package handlers exposes the REST surface. Every response uses the same
// envelope: {"success": bool, ...}; failures carry a stable machine-readable
// error kind next to the human-readable message.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/medireservas/medireservas/internal/booking"
	"github.com/medireservas/medireservas/internal/rules"
	"github.com/medireservas/medireservas/internal/storage"
)

// Error kinds. Clients branch on these, never on message text.
const (
	kindInvalidCredentials = "invalid_credentials"
	kindTokenMissing       = "token_missing"
	kindTokenMalformed     = "token_malformed"
	kindTokenExpired       = "token_expired"
	kindTokenInvalid       = "token_invalid"
	kindUserNotFound       = "user_not_found"
	kindForbidden          = "forbidden"
	kindNotFound           = "not_found"
	kindValidationFailed   = "validation_failed"
	kindTransitionRejected = "transition_rejected"
	kindSlotConflict       = "slot_conflict"
	kindBadRequest         = "bad_request"
	kindInternal           = "internal_error"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// respond merges extra fields into a success envelope.
func respond(w http.ResponseWriter, status int, extra map[string]any) {
	body := map[string]any{"success": true}
	for k, v := range extra {
		body[k] = v
	}
	writeJSON(w, status, body)
}

func respondError(w http.ResponseWriter, status int, kind, message string) {
	writeJSON(w, status, map[string]any{
		"success": false,
		"error":   kind,
		"message": message,
	})
}

// respondDomainError maps domain errors onto the wire taxonomy.
func respondDomainError(w http.ResponseWriter, err error) {
	var (
		validation *rules.ValidationError
		rejected   *rules.TransitionRejectedError
		conflict   *rules.SlotConflictError
	)
	switch {
	case errors.As(err, &validation):
		respondError(w, http.StatusBadRequest, kindValidationFailed, validation.Error())
	case errors.As(err, &rejected):
		respondError(w, http.StatusConflict, kindTransitionRejected, rejected.Error())
	case errors.As(err, &conflict):
		respondError(w, http.StatusConflict, kindSlotConflict, conflict.Error())
	case errors.Is(err, storage.ErrNotFound):
		respondError(w, http.StatusNotFound, kindNotFound, "resource not found")
	case errors.Is(err, booking.ErrForbidden):
		respondError(w, http.StatusForbidden, kindForbidden, err.Error())
	default:
		respondError(w, http.StatusInternalServerError, kindInternal, "internal server error")
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondError(w, http.StatusBadRequest, kindBadRequest, "invalid json body")
		return false
	}
	return true
}
