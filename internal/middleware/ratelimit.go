package middleware

import (
	"net/http"
	"strconv"

	"github.com/Iyke200/doculuna/internal/ratelimit"
)

// RateLimitMiddleware throttles authenticated requests per user. It must run
// after AuthMiddleware so the subject is present in the context.
func RateLimitMiddleware(limiter *ratelimit.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := UserID(r)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}
			allowed, retryAfter := limiter.Allow(r.Context(), userID)
			if !allowed {
				secs := int(retryAfter.Seconds())
				if secs < 1 {
					secs = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(secs))
				http.Error(w, "Too many requests", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
