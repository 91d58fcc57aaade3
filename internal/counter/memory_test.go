package counter

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMemoryStoreIncrAndGet(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	v, err := s.Get(ctx, "k")
	require.NoError(t, err)
	require.EqualValues(t, 0, v, "missing key reads as zero")

	v, err = s.Incr(ctx, "k", 1, 0)
	require.NoError(t, err)
	require.EqualValues(t, 1, v)

	v, err = s.Incr(ctx, "k", 2, 0)
	require.NoError(t, err)
	require.EqualValues(t, 3, v)

	require.NoError(t, s.Delete(ctx, "k"))
	v, err = s.Get(ctx, "k")
	require.NoError(t, err)
	require.EqualValues(t, 0, v)
}

func TestMemoryStoreTTL(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	now := time.Date(2026, time.March, 18, 12, 0, 0, 0, time.UTC)
	s.SetClock(func() time.Time { return now })

	_, err := s.Incr(ctx, "k", 5, time.Hour)
	require.NoError(t, err)

	now = now.Add(30 * time.Minute)
	v, err := s.Get(ctx, "k")
	require.NoError(t, err)
	require.EqualValues(t, 5, v)

	now = now.Add(31 * time.Minute)
	v, err = s.Get(ctx, "k")
	require.NoError(t, err)
	require.EqualValues(t, 0, v, "expired key reads as zero")
}

func TestMemoryStoreValues(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	v, err := s.GetValue(ctx, "tip")
	require.NoError(t, err)
	require.Empty(t, v)

	require.NoError(t, s.SetValue(ctx, "tip", "compression", 0))
	v, err = s.GetValue(ctx, "tip")
	require.NoError(t, err)
	require.Equal(t, "compression", v)
}

func TestMemoryStoreConcurrentIncr(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.Incr(ctx, "k", 1, 0)
		}()
	}
	wg.Wait()

	v, err := s.Get(ctx, "k")
	require.NoError(t, err)
	require.EqualValues(t, 50, v)
}
