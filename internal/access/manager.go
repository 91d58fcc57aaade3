// Package access implements the entitlement gate: admin overrides, active
// subscriptions with quota evaluation, and time-boxed temporary grants.
// The gate fails CLOSED: any internal failure resolves to denied access,
// never to granted.
package access

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/Iyke200/doculuna/internal/model"
	"github.com/Iyke200/doculuna/internal/quota"
	"github.com/Iyke200/doculuna/internal/repository"
)

// CheckOptions tune a single access check.
type CheckOptions struct {
	// Feature to evaluate quota against. Empty means no quota evaluation.
	Feature string
	// EnforceQuota controls whether an exceeded quota denies access.
	EnforceQuota bool
	// AdminOverride bypasses every check regardless of the override set.
	AdminOverride bool
}

// Manager is the access decision engine. The override set is loaded at
// startup and read-only afterwards.
type Manager struct {
	subscriptions repository.SubscriptionRepository
	grants        repository.GrantRepository
	ledger        *quota.Ledger
	overrides     map[string]struct{}
	logger        zerolog.Logger
	clock         func() time.Time
}

// NewManager creates an access Manager with a scoped logger.
func NewManager(
	subscriptions repository.SubscriptionRepository,
	grants repository.GrantRepository,
	ledger *quota.Ledger,
	adminUserIDs []string,
	logger zerolog.Logger,
) *Manager {
	overrides := make(map[string]struct{}, len(adminUserIDs))
	for _, id := range adminUserIDs {
		overrides[id] = struct{}{}
	}
	return &Manager{
		subscriptions: subscriptions,
		grants:        grants,
		ledger:        ledger,
		overrides:     overrides,
		logger:        logger.With().Str("service", "AccessManager").Logger(),
		clock:         time.Now,
	}
}

// IsAdmin reports membership in the override set.
func (m *Manager) IsAdmin(userID string) bool {
	_, ok := m.overrides[userID]
	return ok
}

// CheckAccess evaluates the decision chain for a user. First match wins:
// admin override, then active subscription (with quota), then temporary
// grant, then denial. "now" is read once so a request cannot straddle a
// window boundary inconsistently.
func (m *Manager) CheckAccess(ctx context.Context, userID string, opts CheckOptions) model.AccessResult {
	now := m.clock().UTC()

	if opts.AdminOverride || m.IsAdmin(userID) {
		return model.AccessResult{
			Granted: true,
			Reason:  model.ReasonAdminOverride,
			Status:  model.SubscriptionActive,
		}
	}

	sub, err := m.subscriptions.Get(ctx, userID)
	if err != nil {
		m.logger.Error().Err(err).Str("user_id", userID).Msg("Subscription lookup failed; denying access")
		return model.AccessResult{Granted: false, Reason: model.ReasonAccessCheckFailed, Status: model.SubscriptionNone}
	}

	status := model.SubscriptionNone
	if sub != nil {
		status = sub.Status
	}

	if sub != nil && sub.Status == model.SubscriptionActive {
		if sub.ExpiresAt == nil || !now.Before(*sub.ExpiresAt) {
			// Stale active row; flip it and fall through to the grant check.
			if err := m.subscriptions.MarkExpired(ctx, userID); err != nil {
				m.logger.Warn().Err(err).Str("user_id", userID).Msg("Failed to flip lapsed subscription")
			}
			status = model.SubscriptionExpired
		} else {
			days := int(sub.ExpiresAt.Sub(now).Hours() / 24)
			res := model.AccessResult{
				Granted:       true,
				Reason:        model.ReasonActiveSubscription,
				Status:        model.SubscriptionActive,
				PlanID:        sub.PlanID,
				DaysRemaining: days,
			}
			if opts.Feature != "" {
				info := m.ledger.Evaluate(ctx, userID, opts.Feature, sub.IsPremium(), now)
				res.Quota = &info
				if opts.EnforceQuota && !info.Unlimited() && info.IsOver {
					res.Granted = false
					res.Reason = model.ReasonQuotaExceeded
				}
			}
			return res
		}
	}

	grant, err := m.grants.GetActive(ctx, userID, now)
	if err != nil {
		m.logger.Error().Err(err).Str("user_id", userID).Msg("Grant lookup failed; denying access")
		return model.AccessResult{Granted: false, Reason: model.ReasonAccessCheckFailed, Status: status}
	}
	if grant != nil {
		// Grants are time-boxed, not quota-boxed.
		return model.AccessResult{
			Granted:    true,
			Reason:     model.ReasonTempAccess,
			Status:     status,
			PlanID:     grant.PlanID,
			TempAccess: grant,
		}
	}

	return model.AccessResult{Granted: false, Reason: model.ReasonNoActiveSubscription, Status: status}
}

// RecordUsage counts one use of a feature against the current window. The
// ledger fails open, so this never returns an error.
func (m *Manager) RecordUsage(ctx context.Context, userID, feature string) {
	policy, ok := m.ledger.Policy(feature)
	if !ok || !policy.Tracked {
		return
	}
	m.ledger.IncrementUsage(ctx, userID, feature, policy.Period, 1, m.clock().UTC())
}

// GrantTempAccess issues a time-boxed grant replacing any existing one.
func (m *Manager) GrantTempAccess(ctx context.Context, userID, planID string, duration time.Duration, reason model.GrantReason) (*model.TemporaryAccessGrant, error) {
	now := m.clock().UTC()
	g := &model.TemporaryAccessGrant{
		UserID:    userID,
		PlanID:    planID,
		Reason:    reason,
		GrantedAt: now,
		ExpiresAt: now.Add(duration),
	}
	if err := m.grants.Upsert(ctx, g); err != nil {
		return nil, err
	}
	m.logger.Info().Str("user_id", userID).Str("plan_id", planID).
		Time("expires_at", g.ExpiresAt).Msg("Temporary access granted")
	return g, nil
}

// RevokeTempAccess removes the user's grant, if any.
func (m *Manager) RevokeTempAccess(ctx context.Context, userID string) error {
	if err := m.grants.Delete(ctx, userID); err != nil {
		return err
	}
	m.logger.Info().Str("user_id", userID).Msg("Temporary access revoked")
	return nil
}
