package model

import "time"

// ProgressionRecord tracks a user's gamification state. Level and rank are
// always derived from XP at write time; they are never accepted as
// independent input.
type ProgressionRecord struct {
	UserID       string     `db:"user_id" json:"user_id"`
	XP           int64      `db:"xp" json:"xp"`
	Level        int        `db:"level" json:"level"`
	Rank         string     `db:"rank" json:"rank"`
	Streak       int        `db:"streak" json:"streak"`
	LastActivity *time.Time `db:"last_activity" json:"last_activity,omitempty"`
	Moons        int64      `db:"moons" json:"moons"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// AchievementUnlock records one (user, achievement) unlock. A pair unlocks
// at most once; re-unlocking is a no-op.
type AchievementUnlock struct {
	UserID      string    `db:"user_id" json:"user_id"`
	Achievement string    `db:"achievement" json:"achievement"`
	UnlockedAt  time.Time `db:"unlocked_at" json:"unlocked_at"`
}
