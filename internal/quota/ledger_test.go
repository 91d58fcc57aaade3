package quota

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/Iyke200/doculuna/internal/counter"
	"github.com/Iyke200/doculuna/internal/model"
	"github.com/Iyke200/doculuna/internal/period"
)

var testPolicies = []model.QuotaPolicy{
	{Feature: "document_processing", FreeLimit: 3, PremiumLimit: 300, Period: period.Daily, Multiplier: 1.0, Tracked: true},
	{Feature: "telemetry", FreeLimit: 0, PremiumLimit: 0, Period: period.Daily, Tracked: false},
}

func newLedger(t *testing.T) (*Ledger, *counter.MemoryStore) {
	t.Helper()
	store := counter.NewMemoryStore()
	return NewLedger(store, testPolicies, zerolog.Nop()), store
}

func TestIncrementAndGetUsage(t *testing.T) {
	l, _ := newLedger(t)
	ctx := context.Background()
	now := time.Date(2026, time.March, 18, 10, 0, 0, 0, time.UTC)

	require.Equal(t, 0, l.GetUsage(ctx, "u1", "document_processing", period.Daily, now))

	for i := 0; i < 3; i++ {
		l.IncrementUsage(ctx, "u1", "document_processing", period.Daily, 1, now)
	}
	require.Equal(t, 3, l.GetUsage(ctx, "u1", "document_processing", period.Daily, now))

	// Other users and features are independent.
	require.Equal(t, 0, l.GetUsage(ctx, "u2", "document_processing", period.Daily, now))
	require.Equal(t, 0, l.GetUsage(ctx, "u1", "telemetry", period.Daily, now))
}

func TestUsageResetsAcrossWindows(t *testing.T) {
	l, _ := newLedger(t)
	ctx := context.Background()
	now := time.Date(2026, time.March, 18, 23, 0, 0, 0, time.UTC)

	l.IncrementUsage(ctx, "u1", "document_processing", period.Daily, 3, now)
	require.Equal(t, 3, l.GetUsage(ctx, "u1", "document_processing", period.Daily, now))

	after := period.ResetTime(period.Daily, now).Add(time.Minute)
	require.Equal(t, 0, l.GetUsage(ctx, "u1", "document_processing", period.Daily, after),
		"a new window reads as zero; the old counter stays untouched")
	require.Equal(t, 3, l.GetUsage(ctx, "u1", "document_processing", period.Daily, now),
		"closed windows remain readable inside the retention horizon")
}

func TestEvaluateFreeVsPremium(t *testing.T) {
	l, _ := newLedger(t)
	ctx := context.Background()
	now := time.Date(2026, time.March, 18, 10, 0, 0, 0, time.UTC)

	l.IncrementUsage(ctx, "u1", "document_processing", period.Daily, 3, now)

	free := l.Evaluate(ctx, "u1", "document_processing", false, now)
	require.Equal(t, 3, free.Limit)
	require.Equal(t, 3, free.Used)
	require.True(t, free.IsOver)
	require.InDelta(t, 100.0, free.Percentage, 0.001)
	require.Equal(t, period.ResetTime(period.Daily, now), free.ResetsAt)

	// Upgrading mid-window re-evaluates the same accumulated usage against
	// the higher limit.
	premium := l.Evaluate(ctx, "u1", "document_processing", true, now)
	require.Equal(t, 300, premium.Limit)
	require.Equal(t, 3, premium.Used)
	require.False(t, premium.IsOver)
}

func TestEvaluatePremiumMultiplier(t *testing.T) {
	policies := []model.QuotaPolicy{
		{Feature: "ocr", FreeLimit: 2, PremiumLimit: 10, Period: period.Daily, Multiplier: 1.5, Tracked: true},
	}
	l := NewLedger(counter.NewMemoryStore(), policies, zerolog.Nop())
	info := l.Evaluate(context.Background(), "u1", "ocr", true, time.Now().UTC())
	require.Equal(t, 15, info.Limit)
}

func TestEvaluateUnlimitedCases(t *testing.T) {
	l, _ := newLedger(t)
	ctx := context.Background()
	now := time.Now().UTC()

	unconfigured := l.Evaluate(ctx, "u1", "never_configured", false, now)
	require.Equal(t, model.UnlimitedQuota, unconfigured.Limit)
	require.False(t, unconfigured.IsOver)
	require.Zero(t, unconfigured.Percentage)

	l.IncrementUsage(ctx, "u1", "telemetry", period.Daily, 1000, now)
	untracked := l.Evaluate(ctx, "u1", "telemetry", false, now)
	require.True(t, untracked.Unlimited())
	require.False(t, untracked.IsOver, "untracked policies never block")
}

// failingStore simulates an unavailable counter backend.
type failingStore struct{}

func (failingStore) Incr(context.Context, string, int64, time.Duration) (int64, error) {
	return 0, errors.New("connection refused")
}
func (failingStore) Get(context.Context, string) (int64, error) {
	return 0, errors.New("connection refused")
}
func (failingStore) Delete(context.Context, string) error { return errors.New("connection refused") }
func (failingStore) SetValue(context.Context, string, string, time.Duration) error {
	return errors.New("connection refused")
}
func (failingStore) GetValue(context.Context, string) (string, error) {
	return "", errors.New("connection refused")
}

func TestLedgerFailsOpen(t *testing.T) {
	l := NewLedger(failingStore{}, testPolicies, zerolog.Nop())
	ctx := context.Background()
	now := time.Now().UTC()

	require.Equal(t, 0, l.GetUsage(ctx, "u1", "document_processing", period.Daily, now))
	l.IncrementUsage(ctx, "u1", "document_processing", period.Daily, 1, now) // must not panic

	info := l.Evaluate(ctx, "u1", "document_processing", false, now)
	require.False(t, info.IsOver, "storage unavailability never blocks access")
}

func TestParsePolicies(t *testing.T) {
	raw := `[{"feature":"document_processing","free_limit":3,"premium_limit":300,"period":"daily","multiplier":1.0,"tracked":true}]`
	policies, err := ParsePolicies(raw)
	require.NoError(t, err)
	require.Len(t, policies, 1)
	require.Equal(t, period.Daily, policies[0].Period)

	_, err = ParsePolicies(`[{"feature":"x","free_limit":-1,"period":"daily"}]`)
	require.Error(t, err)

	_, err = ParsePolicies(`[{"feature":"x","free_limit":1,"period":"hourly"}]`)
	require.Error(t, err)

	_, err = ParsePolicies(`[{"feature":"","free_limit":1,"period":"daily"}]`)
	require.Error(t, err)
}
