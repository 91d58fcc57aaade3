package model

import "time"

// SubscriptionStatus is the lifecycle state of a user's subscription.
type SubscriptionStatus string

const (
	SubscriptionActive  SubscriptionStatus = "active"
	SubscriptionExpired SubscriptionStatus = "expired"
	SubscriptionNone    SubscriptionStatus = "none"
)

// PlanBasic is the implicit free tier. Any other plan counts as premium for
// quota-limit selection.
const PlanBasic = "basic"

// UserSubscription represents a user's subscription row. When Status is
// active, ExpiresAt is present; a lazy check on read flips active rows whose
// expiry has passed to expired.
type UserSubscription struct {
	UserID    string             `db:"user_id" json:"user_id"`
	PlanID    string             `db:"plan_id" json:"plan_id"`
	Status    SubscriptionStatus `db:"status" json:"status"`
	ExpiresAt *time.Time         `db:"expires_at" json:"expires_at,omitempty"`
	CreatedAt time.Time          `db:"created_at" json:"created_at"`
	UpdatedAt time.Time          `db:"updated_at" json:"updated_at"`
}

// IsPremium reports whether the plan is anything above the free tier.
func (s *UserSubscription) IsPremium() bool {
	return s != nil && s.PlanID != "" && s.PlanID != PlanBasic
}

// GrantReason records why a temporary access grant exists.
type GrantReason string

const (
	GrantGracePeriod GrantReason = "grace_period"
	GrantAdmin       GrantReason = "admin_grant"
)

// TemporaryAccessGrant is a time-boxed entitlement independent of billing
// state. At most one active grant exists per user; an expired grant is
// treated as absent.
type TemporaryAccessGrant struct {
	UserID    string      `db:"user_id" json:"user_id"`
	PlanID    string      `db:"plan_id" json:"plan_id"`
	Reason    GrantReason `db:"reason" json:"reason"`
	GrantedAt time.Time   `db:"granted_at" json:"granted_at"`
	ExpiresAt time.Time   `db:"expires_at" json:"expires_at"`
}

// Active reports whether the grant is still in force at the given instant.
func (g *TemporaryAccessGrant) Active(now time.Time) bool {
	return g != nil && now.Before(g.ExpiresAt)
}
