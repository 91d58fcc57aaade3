// Package quota implements time-windowed usage accounting on an atomic
// counter store. The ledger fails OPEN: storage unavailability disables
// metering temporarily but never blocks a user from a feature.
package quota

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/Iyke200/doculuna/internal/counter"
	"github.com/Iyke200/doculuna/internal/model"
	"github.com/Iyke200/doculuna/internal/period"
)

// RetentionHorizon is how long counters stay readable after their window
// closes. Expiry is set to this, not the window length, so closed windows
// remain available for analytics until cleanup.
const RetentionHorizon = 90 * 24 * time.Hour

// Ledger tracks per-(user, feature, window) usage counters.
type Ledger struct {
	store    counter.Store
	policies map[string]model.QuotaPolicy
	logger   zerolog.Logger
}

// NewLedger creates a Ledger over the given store and startup-loaded
// policies.
func NewLedger(store counter.Store, policies []model.QuotaPolicy, logger zerolog.Logger) *Ledger {
	byFeature := make(map[string]model.QuotaPolicy, len(policies))
	for _, p := range policies {
		byFeature[p.Feature] = p
	}
	return &Ledger{
		store:    store,
		policies: byFeature,
		logger:   logger.With().Str("service", "QuotaLedger").Logger(),
	}
}

// Policy returns the configured policy for a feature. The second return is
// false when the feature is unconfigured, which callers must treat as
// unlimited.
func (l *Ledger) Policy(feature string) (model.QuotaPolicy, bool) {
	p, ok := l.policies[feature]
	return p, ok
}

func key(userID, feature string, kind period.Kind, now time.Time) string {
	return fmt.Sprintf("quota:%s:%s:%s:%s", userID, feature, kind, period.WindowID(kind, now))
}

// GetUsage returns the counter for the current window, or 0 when absent.
// Store failures also read as 0 after logging the degradation.
func (l *Ledger) GetUsage(ctx context.Context, userID, feature string, kind period.Kind, now time.Time) int {
	v, err := l.store.Get(ctx, key(userID, feature, kind, now))
	if err != nil {
		l.logger.Warn().Err(err).Str("user_id", userID).Str("feature", feature).
			Msg("Counter store unavailable; reading usage as zero")
		return 0
	}
	return int(v)
}

// IncrementUsage atomically adds by to the current window's counter. On
// store failure the increment degrades to a logged no-op.
func (l *Ledger) IncrementUsage(ctx context.Context, userID, feature string, kind period.Kind, by int, now time.Time) {
	if by <= 0 {
		by = 1
	}
	if _, err := l.store.Incr(ctx, key(userID, feature, kind, now), int64(by), RetentionHorizon); err != nil {
		l.logger.Warn().Err(err).Str("user_id", userID).Str("feature", feature).
			Msg("Counter store unavailable; usage increment skipped")
	}
}

// Evaluate computes the quota snapshot for a feature under the given plan.
// An unconfigured feature, an untracked policy, or a zero limit all resolve
// to unlimited: unconfigured features must never accidentally block users.
func (l *Ledger) Evaluate(ctx context.Context, userID, feature string, premium bool, now time.Time) model.QuotaInfo {
	policy, ok := l.policies[feature]
	if !ok {
		return model.QuotaInfo{Feature: feature, Limit: model.UnlimitedQuota}
	}

	limit := policy.FreeLimit
	if premium {
		limit = policy.PremiumLimit
		if policy.Multiplier > 1.0 {
			limit = int(float64(limit) * policy.Multiplier)
		}
	}

	info := model.QuotaInfo{
		Feature:  feature,
		Limit:    limit,
		Used:     l.GetUsage(ctx, userID, feature, policy.Period, now),
		ResetsAt: period.ResetTime(policy.Period, now),
	}
	if !policy.Tracked || limit <= 0 {
		info.Limit = model.UnlimitedQuota
		return info
	}
	info.Percentage = float64(info.Used) / float64(limit) * 100
	info.IsOver = info.Used >= limit
	return info
}
