package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/khomenkoalx/api-yamdb/internal/domain"
)

// UserLoader loads the current user record for an authenticated request.
// The user is reloaded on every request so role changes and deletions
// take effect without waiting for token expiry.
type UserLoader interface {
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
}

// Middleware creates an authentication middleware. Requests without an
// Authorization header pass through as anonymous; a present but invalid
// bearer token is rejected with 401.
func Middleware(tokens TokenManager, users UserLoader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}

			tokenString, ok := strings.CutPrefix(header, "Bearer ")
			if !ok {
				writeAuthError(w, "Authorization header must use the Bearer scheme")
				return
			}

			claims, err := tokens.Validate(strings.TrimSpace(tokenString))
			if err != nil {
				log.Debug().Err(err).Str("path", r.URL.Path).Msg("token validation failed")
				writeAuthError(w, "Token is invalid or expired")
				return
			}

			user, err := users.GetByUsername(r.Context(), claims.Username)
			if err != nil {
				if errors.Is(err, domain.ErrUserNotFound) {
					writeAuthError(w, "Token is invalid or expired")
					return
				}
				log.Error().Err(err).Str("username", claims.Username).Msg("failed to load token user")
				http.Error(w, "internal server error", http.StatusInternalServerError)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// RequireUser rejects anonymous requests with 401. It must run after
// Middleware in the chain.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := UserFromContext(r.Context()); !ok {
			writeAuthError(w, "Authentication credentials were not provided")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// writeAuthError writes a 401 response in the API's error shape.
func writeAuthError(w http.ResponseWriter, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"detail": detail})
}
