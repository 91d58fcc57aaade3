// Package counter provides the atomic key-value counter store backing quota
// accounting and rate limiting. Implementations must make Incr atomic so
// concurrent requests for the same key serialize at the store, never at the
// caller.
package counter

import (
	"context"
	"time"
)

// Store is an atomic counter service with TTL support. Missing keys read as
// zero (or the empty string), not as an error.
type Store interface {
	// Incr atomically adds by to the counter at key and returns the new
	// value. A positive ttl (re)arms expiry for the key.
	Incr(ctx context.Context, key string, by int64, ttl time.Duration) (int64, error)
	// Get returns the current counter value, or 0 when the key is absent.
	Get(ctx context.Context, key string) (int64, error)
	// Delete removes the key.
	Delete(ctx context.Context, key string) error
	// SetValue stores an arbitrary string value with an optional TTL.
	SetValue(ctx context.Context, key, value string, ttl time.Duration) error
	// GetValue returns the stored string, or "" when the key is absent.
	GetValue(ctx context.Context, key string) (string, error)
}
