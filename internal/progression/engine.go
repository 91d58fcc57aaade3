package progression

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/Iyke200/doculuna/internal/model"
	"github.com/Iyke200/doculuna/internal/repository"
)

const (
	// MoonsPerLevel scales the level-up reward: new level * MoonsPerLevel.
	MoonsPerLevel = 5
	// StreakBonusMoons is granted every 7th consecutive day.
	StreakBonusMoons = 20
	// ReferralBonusMoons is the one-time flat credit to a referrer.
	ReferralBonusMoons = 50
)

// Achievement names. The level-based ones unlock when the corresponding
// level threshold is crossed; several may unlock in one AddXP call.
const (
	AchFirstDocument   = "first_document"
	AchSustainedStreak = "sustained_engagement"
	AchFollowedAdvice  = "followed_advice"
)

var levelAchievements = []struct {
	level int
	name  string
}{
	{5, "rising_star"},
	{10, "document_adept"},
	{25, "power_user"},
	{50, "archive_master"},
	{100, "living_legend"},
}

var levelUpMessages = []string{
	"Level up! Your document game keeps getting stronger.",
	"New level reached. The archive bows to you.",
	"Another level conquered. Keep the pages turning!",
	"You leveled up! More moons, more power.",
}

// Notifier delivers a text to a user. Implementations are fire-and-forget.
type Notifier interface {
	Send(ctx context.Context, userID, text string)
}

// XPResult describes the outcome of an AddXP call.
type XPResult struct {
	UserID       string   `json:"user_id"`
	XP           int64    `json:"xp"`
	Level        int      `json:"level"`
	Rank         string   `json:"rank"`
	LeveledUp    bool     `json:"leveled_up"`
	MoonsAwarded int64    `json:"moons_awarded"`
	Moons        int64    `json:"moons"`
	Message      string   `json:"message,omitempty"`
	Achievements []string `json:"achievements,omitempty"`
}

// StreakResult describes the outcome of an UpdateStreak call.
type StreakResult struct {
	UserID      string `json:"user_id"`
	Streak      int    `json:"streak"`
	Increased   bool   `json:"increased"`
	BonusMoons  int64  `json:"bonus_moons"`
	Achievement string `json:"achievement,omitempty"`
}

// Profile is the full progression view returned to callers.
type Profile struct {
	model.ProgressionRecord
	NextLevelXP  int64                     `json:"next_level_xp"`
	Achievements []model.AchievementUnlock `json:"achievements"`
}

// Engine owns all progression state transitions. Gamification is
// non-critical: storage failures inside state transitions are logged and
// resolve to safe no-op results instead of propagating.
type Engine struct {
	repo         repository.ProgressionRepository
	achievements repository.AchievementRepository
	users        repository.UserRepository
	notifier     Notifier
	logger       zerolog.Logger
	clock        func() time.Time
}

// NewEngine creates a progression Engine with a scoped logger.
func NewEngine(
	repo repository.ProgressionRepository,
	achievements repository.AchievementRepository,
	users repository.UserRepository,
	notifier Notifier,
	logger zerolog.Logger,
) *Engine {
	return &Engine{
		repo:         repo,
		achievements: achievements,
		users:        users,
		notifier:     notifier,
		logger:       logger.With().Str("service", "ProgressionEngine").Logger(),
		clock:        time.Now,
	}
}

// AddXP applies an XP delta and derives level, rank and moons from the new
// total at write time. Negative deltas clamp at zero XP.
func (e *Engine) AddXP(ctx context.Context, userID string, amount int64) XPResult {
	now := e.clock().UTC()
	var res XPResult

	_, err := e.repo.Apply(ctx, userID, func(rec *model.ProgressionRecord) error {
		oldLevel := rec.Level

		newXP := rec.XP + amount
		if newXP < 0 {
			newXP = 0
		}
		rec.XP = newXP
		rec.Level = Level(newXP)
		rec.Rank = Rank(rec.Level)

		res = XPResult{
			UserID:    userID,
			XP:        rec.XP,
			Level:     rec.Level,
			Rank:      rec.Rank,
			LeveledUp: rec.Level > oldLevel,
		}
		if res.LeveledUp {
			res.MoonsAwarded = int64(rec.Level) * MoonsPerLevel
			rec.Moons += res.MoonsAwarded
			res.Message = levelUpMessages[rec.Level%len(levelUpMessages)]
			// Collected here, unlocked after the row commits.
			for _, la := range levelAchievements {
				if la.level > oldLevel && la.level <= rec.Level {
					res.Achievements = append(res.Achievements, la.name)
				}
			}
		}
		res.Moons = rec.Moons
		return nil
	})
	if err != nil {
		e.logger.Error().Err(err).Str("user_id", userID).Int64("amount", amount).
			Msg("Failed to apply XP; returning no-op result")
		return XPResult{UserID: userID}
	}

	var unlocked []string
	for _, name := range res.Achievements {
		fresh, err := e.achievements.Unlock(ctx, userID, name, now)
		if err != nil {
			e.logger.Error().Err(err).Str("user_id", userID).Str("achievement", name).
				Msg("Failed to unlock achievement")
			continue
		}
		if fresh {
			unlocked = append(unlocked, name)
		}
	}
	res.Achievements = unlocked

	if res.LeveledUp && e.notifier != nil {
		e.notifier.Send(ctx, userID, fmt.Sprintf("%s You are now level %d (%s), +%d moons.",
			res.Message, res.Level, res.Rank, res.MoonsAwarded))
	}
	return res
}

// UpdateStreak advances the daily streak. Same UTC day: no change. Exactly
// one day since the last activity: streak+1. Any larger gap or no prior
// activity: the streak restarts at 1. Every 7th consecutive day grants a
// fixed moons bonus and idempotently unlocks the streak achievement.
func (e *Engine) UpdateStreak(ctx context.Context, userID string) StreakResult {
	now := e.clock().UTC()
	today := now.Truncate(24 * time.Hour)
	var res StreakResult

	_, err := e.repo.Apply(ctx, userID, func(rec *model.ProgressionRecord) error {
		res = StreakResult{UserID: userID}

		if rec.LastActivity != nil {
			last := rec.LastActivity.UTC().Truncate(24 * time.Hour)
			switch int(today.Sub(last).Hours() / 24) {
			case 0:
				res.Streak = rec.Streak
				return nil // already counted today
			case 1:
				rec.Streak++
			default:
				rec.Streak = 1
			}
		} else {
			rec.Streak = 1
		}
		rec.LastActivity = &today
		res.Streak = rec.Streak
		res.Increased = true

		if rec.Streak%7 == 0 {
			res.BonusMoons = StreakBonusMoons
			rec.Moons += StreakBonusMoons
		}
		return nil
	})
	if err != nil {
		e.logger.Error().Err(err).Str("user_id", userID).
			Msg("Failed to update streak; returning no-op result")
		return StreakResult{UserID: userID}
	}

	if res.BonusMoons > 0 {
		fresh, err := e.achievements.Unlock(ctx, userID, AchSustainedStreak, now)
		if err != nil {
			e.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to unlock streak achievement")
		} else if fresh {
			res.Achievement = AchSustainedStreak
		}
		if e.notifier != nil {
			e.notifier.Send(ctx, userID, fmt.Sprintf("%d-day streak! +%d moons.", res.Streak, res.BonusMoons))
		}
	}
	return res
}

// UnlockAchievement idempotently unlocks a named achievement. Returns true
// only on a fresh unlock.
func (e *Engine) UnlockAchievement(ctx context.Context, userID, name string) (bool, error) {
	return e.achievements.Unlock(ctx, userID, name, e.clock().UTC())
}

// GetProfile returns the user's progression state with derived fields.
func (e *Engine) GetProfile(ctx context.Context, userID string) (*Profile, error) {
	rec, err := e.repo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	unlocks, err := e.achievements.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &Profile{
		ProgressionRecord: *rec,
		NextLevelXP:       NextLevelXP(rec.Level),
		Achievements:      unlocks,
	}, nil
}

// GetLeaderboard returns the top records by XP.
func (e *Engine) GetLeaderboard(ctx context.Context, limit int) ([]model.ProgressionRecord, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	return e.repo.Top(ctx, limit)
}

// CreditReferral issues the flat one-time referral bonus to whoever
// referred the given user, if anyone did. Returns true when a fresh credit
// was issued.
func (e *Engine) CreditReferral(ctx context.Context, referredUserID string) bool {
	user, err := e.users.GetByID(ctx, referredUserID)
	if err != nil {
		e.logger.Error().Err(err).Str("user_id", referredUserID).Msg("Failed to fetch user for referral credit")
		return false
	}
	if user.ReferredBy == nil || *user.ReferredBy == "" {
		return false
	}
	fresh, err := e.repo.CreditReferral(ctx, *user.ReferredBy, referredUserID, ReferralBonusMoons)
	if err != nil {
		e.logger.Error().Err(err).Str("user_id", referredUserID).Msg("Failed to credit referral")
		return false
	}
	if fresh && e.notifier != nil {
		e.notifier.Send(ctx, *user.ReferredBy,
			fmt.Sprintf("Your referral completed their first document: +%d moons!", ReferralBonusMoons))
	}
	return fresh
}
