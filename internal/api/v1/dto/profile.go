package dto

import "time"

// ProfileResponseDTO is the progression view returned in API responses
type ProfileResponseDTO struct {
	UserID       string           `json:"user_id"`
	XP           int64            `json:"xp"`
	Level        int              `json:"level"`
	Rank         string           `json:"rank"`
	NextLevelXP  int64            `json:"next_level_xp"`
	Streak       int              `json:"streak"`
	Moons        int64            `json:"moons"`
	LastActivity *time.Time       `json:"last_activity,omitempty"`
	ReferredBy   *string          `json:"referred_by,omitempty"`
	Achievements []AchievementDTO `json:"achievements"`
}

type AchievementDTO struct {
	Name       string    `json:"name"`
	UnlockedAt time.Time `json:"unlocked_at"`
}

// LeaderboardEntryDTO is one leaderboard row
type LeaderboardEntryDTO struct {
	UserID string `json:"user_id"`
	XP     int64  `json:"xp"`
	Level  int    `json:"level"`
	Rank   string `json:"rank"`
}

// StreakResponseDTO reports the outcome of a streak update
type StreakResponseDTO struct {
	Streak      int    `json:"streak"`
	Increased   bool   `json:"increased"`
	BonusMoons  int64  `json:"bonus_moons,omitempty"`
	Achievement string `json:"achievement,omitempty"`
}

// ReferrerDTO records who referred the caller
type ReferrerDTO struct {
	ReferrerID string `json:"referrer_id" validate:"required"`
}
