package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/medireservas/medireservas/internal/model"
	"github.com/medireservas/medireservas/internal/storage"
	"github.com/medireservas/medireservas/libs/auth"
	"github.com/medireservas/medireservas/libs/httpx"
)

type ctxKey int

const identityKey ctxKey = iota

// IdentityFrom returns the authenticated caller attached by RequireAuth.
func IdentityFrom(ctx context.Context) (model.Identity, bool) {
	id, ok := ctx.Value(identityKey).(model.Identity)
	return id, ok
}

// RequireAuth verifies the Bearer token and resolves the caller against the
// user store, so a deleted account is rejected even with a live token. Each
// failure mode gets its own error kind.
func RequireAuth(signer *auth.Signer, store storage.Store) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				respondError(w, http.StatusUnauthorized, kindTokenMissing, "no token provided")
				return
			}
			raw, ok := strings.CutPrefix(header, "Bearer ")
			raw = strings.TrimSpace(raw)
			if !ok || raw == "" {
				respondError(w, http.StatusUnauthorized, kindTokenMalformed, "authorization header must be 'Bearer <token>'")
				return
			}

			claims, err := signer.Verify(raw)
			if err != nil {
				if err == auth.ErrTokenExpired {
					respondError(w, http.StatusUnauthorized, kindTokenExpired, "session expired, please sign in again")
					return
				}
				respondError(w, http.StatusUnauthorized, kindTokenInvalid, "invalid token")
				return
			}

			user, err := store.UserByID(r.Context(), claims.Subject)
			if err != nil {
				if err == storage.ErrNotFound {
					respondError(w, http.StatusUnauthorized, kindUserNotFound, "account no longer exists")
					return
				}
				respondError(w, http.StatusInternalServerError, kindInternal, "internal server error")
				return
			}

			ctx := context.WithValue(r.Context(), identityKey, user.Identity())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuth attaches an identity when a valid token is presented but lets
// anonymous requests through. Public routes use it to widen what admins see.
func OptionalAuth(signer *auth.Signer, store storage.Store) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			raw = strings.TrimSpace(raw)
			if !ok || raw == "" {
				next.ServeHTTP(w, r)
				return
			}
			claims, err := signer.Verify(raw)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			user, err := store.UserByID(r.Context(), claims.Subject)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			ctx := context.WithValue(r.Context(), identityKey, user.Identity())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole gates a route to the given roles. Must run after RequireAuth.
func RequireRole(roles ...model.Role) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, ok := IdentityFrom(r.Context())
			if !ok {
				respondError(w, http.StatusUnauthorized, kindTokenMissing, "no token provided")
				return
			}
			for _, role := range roles {
				if actor.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			respondError(w, http.StatusForbidden, kindForbidden, "your role does not allow this operation")
		})
	}
}
