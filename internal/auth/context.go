package auth

import (
	"context"

	"github.com/khomenkoalx/api-yamdb/internal/domain"
)

// contextKey is a private type for context keys to avoid collisions.
type contextKey string

// userContextKey stores the authenticated *domain.User.
const userContextKey contextKey = "auth_user"

// WithUser returns a context carrying the authenticated user.
func WithUser(ctx context.Context, user *domain.User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// UserFromContext extracts the authenticated user from the context.
// Returns nil, false for anonymous requests.
func UserFromContext(ctx context.Context) (*domain.User, bool) {
	user, ok := ctx.Value(userContextKey).(*domain.User)
	return user, ok
}
