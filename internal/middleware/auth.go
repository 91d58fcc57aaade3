package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/Iyke200/doculuna/internal/util"
)

// Injected key type to avoid context collisions
type contextKey string

const (
	UserContextKey  = contextKey("user")
	AdminContextKey = contextKey("admin")
)

// EnsureUserFunc lazily creates the user's rows on first contact. A failure
// here is fatal for the request: downstream handlers assume the rows exist.
type EnsureUserFunc func(ctx context.Context, userID string) error

func AuthMiddleware(jwtSecret string, ensureUser EnsureUserFunc, logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				logger.Error().Msg("Authorization header missing")
				http.Error(w, "Authorization header missing", http.StatusUnauthorized)
				return
			}
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				logger.Error().Msg("Invalid authorization header")
				http.Error(w, "Invalid authorization header", http.StatusUnauthorized)
				return
			}
			claims, err := util.ValidateJWT(parts[1], jwtSecret)
			if err != nil {
				logger.Error().Err(err).Msg("Invalid token")
				http.Error(w, "Invalid token: "+err.Error(), http.StatusUnauthorized)
				return
			}
			if ensureUser != nil {
				if err := ensureUser(r.Context(), claims.Subject); err != nil {
					logger.Error().Err(err).Str("user_id", claims.Subject).Msg("Failed to ensure user rows")
					http.Error(w, "Failed to initialize user", http.StatusInternalServerError)
					return
				}
			}
			ctx := context.WithValue(r.Context(), UserContextKey, claims.Subject)
			ctx = context.WithValue(ctx, AdminContextKey, claims.Admin)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserID extracts the authenticated user from the request context.
func UserID(r *http.Request) (string, bool) {
	id, ok := r.Context().Value(UserContextKey).(string)
	return id, ok && id != ""
}
