package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/Iyke200/doculuna/internal/model"
)

// ProgressionRepository manages gamification state rows.
type ProgressionRepository interface {
	Get(ctx context.Context, userID string) (*model.ProgressionRecord, error)
	// Apply runs fn against the user's row under a row lock and persists
	// the mutated record in the same transaction. Concurrent requests for
	// the same user serialize here.
	Apply(ctx context.Context, userID string, fn func(rec *model.ProgressionRecord) error) (*model.ProgressionRecord, error)
	// Top returns the highest-XP records for the leaderboard.
	Top(ctx context.Context, limit int) ([]model.ProgressionRecord, error)
	// CreditReferral credits moons to the referrer exactly once per
	// referred user. Returns false when the credit was already issued.
	CreditReferral(ctx context.Context, referrerID, referredID string, moons int64) (bool, error)
}

type progressionRepo struct {
	pool PgxPool
}

// NewProgressionRepo creates a new ProgressionRepository.
func NewProgressionRepo(pool PgxPool) ProgressionRepository {
	return &progressionRepo{pool: pool}
}

const progressionColumns = `user_id, xp, level, rank, streak, last_activity, moons, created_at, updated_at`

func scanProgression(row pgx.Row) (*model.ProgressionRecord, error) {
	var rec model.ProgressionRecord
	err := row.Scan(
		&rec.UserID, &rec.XP, &rec.Level, &rec.Rank, &rec.Streak,
		&rec.LastActivity, &rec.Moons, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Get returns the user's progression record.
func (r *progressionRepo) Get(ctx context.Context, userID string) (*model.ProgressionRecord, error) {
	const q = `SELECT ` + progressionColumns + ` FROM user_progression WHERE user_id = $1`
	rec, err := scanProgression(r.pool.QueryRow(ctx, q, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetch progression for user %s: %w", userID, err)
	}
	return rec, nil
}

// Apply mutates the user's row inside a locking transaction.
func (r *progressionRepo) Apply(ctx context.Context, userID string, fn func(rec *model.ProgressionRecord) error) (*model.ProgressionRecord, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("begin progression update for user %s: %w", userID, err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	const lockQ = `SELECT ` + progressionColumns + ` FROM user_progression WHERE user_id = $1 FOR UPDATE`
	rec, err := scanProgression(tx.QueryRow(ctx, lockQ, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lock progression for user %s: %w", userID, err)
	}

	if err := fn(rec); err != nil {
		return nil, err
	}

	const updateQ = `
        UPDATE user_progression
        SET xp = $2, level = $3, rank = $4, streak = $5, last_activity = $6, moons = $7, updated_at = NOW()
        WHERE user_id = $1
    `
	if _, err := tx.Exec(ctx, updateQ, rec.UserID, rec.XP, rec.Level, rec.Rank, rec.Streak, rec.LastActivity, rec.Moons); err != nil {
		return nil, fmt.Errorf("persist progression for user %s: %w", userID, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit progression for user %s: %w", userID, err)
	}
	return rec, nil
}

// Top returns leaderboard rows ordered by XP.
func (r *progressionRepo) Top(ctx context.Context, limit int) ([]model.ProgressionRecord, error) {
	const q = `SELECT ` + progressionColumns + ` FROM user_progression ORDER BY xp DESC, user_id LIMIT $1`
	rows, err := r.pool.Query(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("fetch leaderboard: %w", err)
	}
	defer rows.Close()

	var records []model.ProgressionRecord
	for rows.Next() {
		rec, err := scanProgression(rows)
		if err != nil {
			return nil, fmt.Errorf("scan leaderboard row: %w", err)
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("leaderboard rows: %w", err)
	}
	return records, nil
}

// CreditReferral issues the one-time referral credit.
func (r *progressionRepo) CreditReferral(ctx context.Context, referrerID, referredID string, moons int64) (bool, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return false, fmt.Errorf("begin referral credit: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	const insertQ = `
        INSERT INTO referral_credits (referrer_id, referred_id, created_at)
        VALUES ($1, $2, NOW())
        ON CONFLICT (referrer_id, referred_id) DO NOTHING
    `
	tag, err := tx.Exec(ctx, insertQ, referrerID, referredID)
	if err != nil {
		return false, fmt.Errorf("record referral credit: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}
	const moonsQ = `UPDATE user_progression SET moons = moons + $2, updated_at = NOW() WHERE user_id = $1`
	if _, err := tx.Exec(ctx, moonsQ, referrerID, moons); err != nil {
		return false, fmt.Errorf("credit referral moons to user %s: %w", referrerID, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("commit referral credit: %w", err)
	}
	return true, nil
}
