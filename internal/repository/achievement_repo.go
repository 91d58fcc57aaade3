package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Iyke200/doculuna/internal/model"
)

// AchievementRepository records achievement unlocks. Unlocking is idempotent
// at the storage layer, so concurrent double-submits cannot create two rows.
type AchievementRepository interface {
	// Unlock records the (user, achievement) pair. Returns true only when
	// the pair was newly unlocked.
	Unlock(ctx context.Context, userID, achievement string, at time.Time) (bool, error)
	List(ctx context.Context, userID string) ([]model.AchievementUnlock, error)
}

type achievementRepo struct {
	pool PgxPool
}

// NewAchievementRepo creates a new AchievementRepository.
func NewAchievementRepo(pool PgxPool) AchievementRepository {
	return &achievementRepo{pool: pool}
}

// Unlock inserts the pair; a conflict means it was already unlocked.
func (r *achievementRepo) Unlock(ctx context.Context, userID, achievement string, at time.Time) (bool, error) {
	const q = `
        INSERT INTO achievement_unlocks (user_id, achievement, unlocked_at)
        VALUES ($1, $2, $3)
        ON CONFLICT (user_id, achievement) DO NOTHING
    `
	tag, err := r.pool.Exec(ctx, q, userID, achievement, at)
	if err != nil {
		return false, fmt.Errorf("unlock achievement %q for user %s: %w", achievement, userID, err)
	}
	return tag.RowsAffected() > 0, nil
}

// List returns the user's unlocks, most recent first.
func (r *achievementRepo) List(ctx context.Context, userID string) ([]model.AchievementUnlock, error) {
	const q = `
        SELECT user_id, achievement, unlocked_at
        FROM achievement_unlocks
        WHERE user_id = $1
        ORDER BY unlocked_at DESC
    `
	rows, err := r.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("list achievements for user %s: %w", userID, err)
	}
	defer rows.Close()

	var unlocks []model.AchievementUnlock
	for rows.Next() {
		var u model.AchievementUnlock
		if err := rows.Scan(&u.UserID, &u.Achievement, &u.UnlockedAt); err != nil {
			return nil, fmt.Errorf("scan achievement row: %w", err)
		}
		unlocks = append(unlocks, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("achievement rows: %w", err)
	}
	return unlocks, nil
}
