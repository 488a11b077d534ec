package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	userapp "github.com/voiceops/teamsadmin/internal/user_service/app"
)

// ContextKey is a custom type for context keys to avoid collisions.
type ContextKey string

const (
	// AuthenticatedUserContextKey carries the validated operator identity.
	AuthenticatedUserContextKey = ContextKey("authenticatedUser")
)

// TokenValidator validates a bearer token into an operator identity.
type TokenValidator interface {
	ValidateToken(tokenString string) (*userapp.AuthenticatedUser, error)
}

// AuthMiddleware authenticates requests with a Bearer JWT and stores the
// operator identity in the request context.
func AuthMiddleware(validator TokenValidator, logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				logger.WarnContext(r.Context(), "authorization header missing")
				http.Error(w, "Authorization header required", http.StatusUnauthorized)
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				logger.WarnContext(r.Context(), "invalid authorization header format")
				http.Error(w, "Invalid Authorization header format", http.StatusUnauthorized)
				return
			}

			user, err := validator.ValidateToken(parts[1])
			if err != nil {
				logger.WarnContext(r.Context(), "token validation failed", "error", err)
				http.Error(w, "Invalid or expired token", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), AuthenticatedUserContextKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserFromContext returns the authenticated operator, if any.
func UserFromContext(ctx context.Context) (*userapp.AuthenticatedUser, bool) {
	user, ok := ctx.Value(AuthenticatedUserContextKey).(*userapp.AuthenticatedUser)
	return user, ok
}
