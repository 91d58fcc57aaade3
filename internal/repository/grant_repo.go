package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/Iyke200/doculuna/internal/model"
)

// GrantRepository manages temporary access grants. At most one grant exists
// per user; expired grants are treated as absent and lazily deleted on read.
type GrantRepository interface {
	// GetActive returns the user's grant if it is still in force at now,
	// deleting a lapsed row it finds on the way. Returns nil when none.
	GetActive(ctx context.Context, userID string, now time.Time) (*model.TemporaryAccessGrant, error)
	Upsert(ctx context.Context, g *model.TemporaryAccessGrant) error
	Delete(ctx context.Context, userID string) error
	// DeleteExpired removes every lapsed grant; used by the cleanup sweep.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type grantRepo struct {
	pool PgxPool
}

// NewGrantRepo creates a new GrantRepository.
func NewGrantRepo(pool PgxPool) GrantRepository {
	return &grantRepo{pool: pool}
}

// GetActive returns the in-force grant for a user, or nil.
func (r *grantRepo) GetActive(ctx context.Context, userID string, now time.Time) (*model.TemporaryAccessGrant, error) {
	const q = `
        SELECT user_id, plan_id, reason, granted_at, expires_at
        FROM temp_access_grants
        WHERE user_id = $1
    `
	var g model.TemporaryAccessGrant
	err := r.pool.QueryRow(ctx, q, userID).Scan(
		&g.UserID, &g.PlanID, &g.Reason, &g.GrantedAt, &g.ExpiresAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetch grant for user %s: %w", userID, err)
	}
	if !g.Active(now) {
		// Lazy deletion; a failure here is harmless since the grant is
		// already inert.
		_, _ = r.pool.Exec(ctx, `DELETE FROM temp_access_grants WHERE user_id = $1 AND expires_at <= $2`, userID, now)
		return nil, nil
	}
	return &g, nil
}

// Upsert replaces the user's grant.
func (r *grantRepo) Upsert(ctx context.Context, g *model.TemporaryAccessGrant) error {
	const q = `
        INSERT INTO temp_access_grants (user_id, plan_id, reason, granted_at, expires_at)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (user_id) DO UPDATE
        SET plan_id = EXCLUDED.plan_id,
            reason = EXCLUDED.reason,
            granted_at = EXCLUDED.granted_at,
            expires_at = EXCLUDED.expires_at
    `
	if _, err := r.pool.Exec(ctx, q, g.UserID, g.PlanID, g.Reason, g.GrantedAt, g.ExpiresAt); err != nil {
		return fmt.Errorf("upsert grant for user %s: %w", g.UserID, err)
	}
	return nil
}

// Delete removes the user's grant.
func (r *grantRepo) Delete(ctx context.Context, userID string) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM temp_access_grants WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("delete grant for user %s: %w", userID, err)
	}
	return nil
}

// DeleteExpired removes lapsed grants in bulk.
func (r *grantRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM temp_access_grants WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("delete expired grants: %w", err)
	}
	return tag.RowsAffected(), nil
}
