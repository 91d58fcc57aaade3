package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/Iyke200/doculuna/internal/counter"
)

type failingStore struct{}

func (failingStore) Incr(context.Context, string, int64, time.Duration) (int64, error) {
	return 0, errors.New("store down")
}
func (failingStore) Get(context.Context, string) (int64, error)                 { return 0, errors.New("store down") }
func (failingStore) Delete(context.Context, string) error                       { return errors.New("store down") }
func (failingStore) SetValue(context.Context, string, string, time.Duration) error {
	return errors.New("store down")
}
func (failingStore) GetValue(context.Context, string) (string, error) {
	return "", errors.New("store down")
}

func newTestLimiter(limit int, window time.Duration) *Limiter {
	l := NewLimiter(counter.NewMemoryStore(), limit, window, zerolog.Nop())
	l.clock = func() time.Time { return time.Date(2025, 3, 10, 12, 0, 30, 0, time.UTC) }
	return l
}

func TestAllowWithinLimit(t *testing.T) {
	l := newTestLimiter(3, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ok, _ := l.Allow(ctx, "u1")
		require.True(t, ok, "request %d within the limit", i+1)
	}
	ok, retryAfter := l.Allow(ctx, "u1")
	require.False(t, ok)
	require.Equal(t, 30*time.Second, retryAfter, "half the window remains")
}

func TestAllowSubjectsAreIndependent(t *testing.T) {
	l := newTestLimiter(1, time.Minute)
	ctx := context.Background()

	ok, _ := l.Allow(ctx, "u1")
	require.True(t, ok)
	ok, _ = l.Allow(ctx, "u1")
	require.False(t, ok)
	ok, _ = l.Allow(ctx, "u2")
	require.True(t, ok, "another subject has its own window")
}

func TestAllowNewWindowResets(t *testing.T) {
	l := newTestLimiter(1, time.Minute)
	ctx := context.Background()

	ok, _ := l.Allow(ctx, "u1")
	require.True(t, ok)
	ok, _ = l.Allow(ctx, "u1")
	require.False(t, ok)

	l.clock = func() time.Time { return time.Date(2025, 3, 10, 12, 1, 5, 0, time.UTC) }
	ok, _ = l.Allow(ctx, "u1")
	require.True(t, ok, "next window starts fresh")
}

func TestAllowFailsOpenOnStoreError(t *testing.T) {
	l := NewLimiter(failingStore{}, 1, time.Minute, zerolog.Nop())
	ok, retryAfter := l.Allow(context.Background(), "u1")
	require.True(t, ok)
	require.Zero(t, retryAfter)
}

func TestAllowZeroLimitDisablesLimiting(t *testing.T) {
	l := newTestLimiter(0, time.Minute)
	ok, _ := l.Allow(context.Background(), "u1")
	require.True(t, ok)
}
