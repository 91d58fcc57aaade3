// Package ratelimit implements a fixed-window request limiter on the
// shared counter store. Like the quota ledger it fails open: a store
// outage disables limiting rather than blocking traffic.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/Iyke200/doculuna/internal/counter"
)

// Limiter allows at most limit requests per subject per window.
type Limiter struct {
	store  counter.Store
	limit  int64
	window time.Duration
	logger zerolog.Logger
	clock  func() time.Time
}

// NewLimiter creates a fixed-window Limiter.
func NewLimiter(store counter.Store, limit int, window time.Duration, logger zerolog.Logger) *Limiter {
	return &Limiter{
		store:  store,
		limit:  int64(limit),
		window: window,
		logger: logger.With().Str("service", "RateLimiter").Logger(),
		clock:  time.Now,
	}
}

// Allow counts one request for the subject and reports whether it fits in
// the current window. When denied, retryAfter is the time left until the
// window rolls over.
func (l *Limiter) Allow(ctx context.Context, subject string) (allowed bool, retryAfter time.Duration) {
	if l.limit <= 0 {
		return true, 0
	}
	now := l.clock().UTC()
	windowStart := now.Truncate(l.window)
	key := fmt.Sprintf("rl:%s:%d", subject, windowStart.Unix())

	n, err := l.store.Incr(ctx, key, 1, l.window)
	if err != nil {
		l.logger.Warn().Err(err).Str("subject", subject).Msg("Counter store unavailable; rate limiting disabled")
		return true, 0
	}
	if n > l.limit {
		return false, windowStart.Add(l.window).Sub(now)
	}
	return true, 0
}
