package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/Iyke200/doculuna/internal/model"
)

// UserRepository manages user profile rows.
type UserRepository interface {
	// Ensure creates the user and its progression row if the subject has
	// never been seen. Safe to call on every request.
	Ensure(ctx context.Context, userID string) error
	GetByID(ctx context.Context, userID string) (*model.User, error)
	// SetReferrer records who referred the user; only the first write wins.
	SetReferrer(ctx context.Context, userID, referrerID string) error
}

type userRepo struct {
	pool PgxPool
}

// NewUserRepo creates a new UserRepository.
func NewUserRepo(pool PgxPool) UserRepository {
	return &userRepo{pool: pool}
}

// Ensure creates the user and progression rows on first contact.
func (r *userRepo) Ensure(ctx context.Context, userID string) error {
	const userQ = `
        INSERT INTO user_profiles (user_id, created_at, updated_at)
        VALUES ($1, NOW(), NOW())
        ON CONFLICT (user_id) DO NOTHING
    `
	if _, err := r.pool.Exec(ctx, userQ, userID); err != nil {
		return fmt.Errorf("ensure user %s: %w", userID, err)
	}
	const progQ = `
        INSERT INTO user_progression (user_id, xp, level, rank, streak, moons, created_at, updated_at)
        VALUES ($1, 0, 1, 'novice', 0, 0, NOW(), NOW())
        ON CONFLICT (user_id) DO NOTHING
    `
	if _, err := r.pool.Exec(ctx, progQ, userID); err != nil {
		return fmt.Errorf("ensure progression for user %s: %w", userID, err)
	}
	return nil
}

// GetByID returns the user profile.
func (r *userRepo) GetByID(ctx context.Context, userID string) (*model.User, error) {
	const q = `
        SELECT user_id, name, email, referred_by, created_at, updated_at
        FROM user_profiles
        WHERE user_id = $1
    `
	var u model.User
	err := r.pool.QueryRow(ctx, q, userID).Scan(
		&u.UserID, &u.Name, &u.Email, &u.ReferredBy, &u.CreatedAt, &u.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetch user %s: %w", userID, err)
	}
	return &u, nil
}

// SetReferrer records the referrer once; later writes are no-ops.
func (r *userRepo) SetReferrer(ctx context.Context, userID, referrerID string) error {
	const q = `
        UPDATE user_profiles
        SET referred_by = $2, updated_at = NOW()
        WHERE user_id = $1 AND referred_by IS NULL AND user_id <> $2
    `
	if _, err := r.pool.Exec(ctx, q, userID, referrerID); err != nil {
		return fmt.Errorf("set referrer for user %s: %w", userID, err)
	}
	return nil
}
