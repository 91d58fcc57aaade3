package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/Iyke200/doculuna/internal/model"
)

// SubscriptionRepository defines methods for accessing subscription data.
type SubscriptionRepository interface {
	// Get returns the user's subscription row, or nil when none exists.
	Get(ctx context.Context, userID string) (*model.UserSubscription, error)
	// Upsert writes the subscription state for a user.
	Upsert(ctx context.Context, userID, planID string, status model.SubscriptionStatus, expiresAt *time.Time) error
	// MarkExpired flips an active subscription to expired (lazy check on read).
	MarkExpired(ctx context.Context, userID string) error
	// ExpireLapsed bulk-flips every active subscription whose expiry has
	// passed; used by the cleanup sweep. Returns the number of rows flipped.
	ExpireLapsed(ctx context.Context, now time.Time) (int64, error)
}

type subscriptionRepo struct {
	pool PgxPool
}

// NewSubscriptionRepo creates a new SubscriptionRepository.
func NewSubscriptionRepo(pool PgxPool) SubscriptionRepository {
	return &subscriptionRepo{pool: pool}
}

// Get returns the user's subscription regardless of status.
func (r *subscriptionRepo) Get(ctx context.Context, userID string) (*model.UserSubscription, error) {
	const q = `
        SELECT user_id, plan_id, status, expires_at, created_at, updated_at
        FROM user_subscriptions
        WHERE user_id = $1
    `
	var s model.UserSubscription
	err := r.pool.QueryRow(ctx, q, userID).Scan(
		&s.UserID, &s.PlanID, &s.Status, &s.ExpiresAt, &s.CreatedAt, &s.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetch subscription for user %s: %w", userID, err)
	}
	return &s, nil
}

// Upsert writes the subscription state for a user.
func (r *subscriptionRepo) Upsert(ctx context.Context, userID, planID string, status model.SubscriptionStatus, expiresAt *time.Time) error {
	const q = `
        INSERT INTO user_subscriptions (user_id, plan_id, status, expires_at, created_at, updated_at)
        VALUES ($1, $2, $3, $4, NOW(), NOW())
        ON CONFLICT (user_id) DO UPDATE
        SET plan_id = EXCLUDED.plan_id,
            status = EXCLUDED.status,
            expires_at = EXCLUDED.expires_at,
            updated_at = NOW()
    `
	if _, err := r.pool.Exec(ctx, q, userID, planID, status, expiresAt); err != nil {
		return fmt.Errorf("upsert subscription for user %s: %w", userID, err)
	}
	return nil
}

// MarkExpired flips an active subscription to expired.
func (r *subscriptionRepo) MarkExpired(ctx context.Context, userID string) error {
	const q = `
        UPDATE user_subscriptions
        SET status = 'expired', updated_at = NOW()
        WHERE user_id = $1 AND status = 'active'
    `
	if _, err := r.pool.Exec(ctx, q, userID); err != nil {
		return fmt.Errorf("mark subscription expired for user %s: %w", userID, err)
	}
	return nil
}

// ExpireLapsed bulk-flips lapsed active subscriptions.
func (r *subscriptionRepo) ExpireLapsed(ctx context.Context, now time.Time) (int64, error) {
	const q = `
        UPDATE user_subscriptions
        SET status = 'expired', updated_at = NOW()
        WHERE status = 'active' AND expires_at IS NOT NULL AND expires_at <= $1
    `
	tag, err := r.pool.Exec(ctx, q, now)
	if err != nil {
		return 0, fmt.Errorf("expire lapsed subscriptions: %w", err)
	}
	return tag.RowsAffected(), nil
}
