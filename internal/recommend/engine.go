// Package recommend derives usage suggestions from a user's operation
// history and rewards the user for acting on them.
package recommend

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/Iyke200/doculuna/internal/counter"
	"github.com/Iyke200/doculuna/internal/model"
	"github.com/Iyke200/doculuna/internal/progression"
	"github.com/Iyke200/doculuna/internal/repository"
)

// Suggestion categories, in heuristic priority order.
const (
	CategoryWelcome     = "welcome"
	CategoryCompression = "compression"
	CategoryOCR         = "ocr"
	CategoryCleanup     = "cleanup"
	CategoryMerge       = "merge"
	CategorySplit       = "split"
	CategoryGeneral     = "general"
)

const (
	// historyWindow is how many recent entries the heuristics inspect.
	historyWindow = 30
	// FollowedRewardXP is granted when a user acts on a suggestion.
	FollowedRewardXP = 75

	slowOperation = 30 * time.Second
	largeFile     = 10 << 20

	lastTipKeyPrefix = "tip:last:"
	lastTipTTL       = 30 * 24 * time.Hour
)

// Suggestion is one tip surfaced to a user.
type Suggestion struct {
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
	Message    string  `json:"message"`
}

// FollowedReward reports the outcome of rewarding a followed suggestion.
type FollowedReward struct {
	XPAwarded   int64  `json:"xp_awarded"`
	LeveledUp   bool   `json:"leveled_up"`
	Level       int    `json:"level"`
	Achievement string `json:"achievement,omitempty"`
}

var generalTips = []Suggestion{
	{CategoryGeneral, 0.6, "Try converting documents to PDF for a consistent layout everywhere."},
	{CategoryGeneral, 0.55, "Batch similar files together to process them in one sitting."},
	{CategoryGeneral, 0.65, "Keep an eye on your daily quota from the profile view."},
	{CategoryGeneral, 0.5, "A daily visit keeps your streak alive and the moons coming."},
}

// ProgressionService is the slice of the progression engine the reward
// path needs. Satisfied by *progression.Engine.
type ProgressionService interface {
	AddXP(ctx context.Context, userID string, amount int64) progression.XPResult
	UnlockAchievement(ctx context.Context, userID, name string) (bool, error)
}

// Engine evaluates recommendation heuristics over recent history. It is
// advisory only: any storage failure degrades to the generic tip rather
// than surfacing an error to the caller.
type Engine struct {
	history     repository.HistoryRepository
	store       counter.Store
	progression ProgressionService
	logger      zerolog.Logger
}

// NewEngine creates a recommendation Engine with a scoped logger.
func NewEngine(history repository.HistoryRepository, store counter.Store, prog ProgressionService, logger zerolog.Logger) *Engine {
	return &Engine{
		history:     history,
		store:       store,
		progression: prog,
		logger:      logger.With().Str("service", "RecommendationEngine").Logger(),
	}
}

// AnalyzeAndSuggest inspects the user's recent history and returns the
// first matching suggestion. Heuristics are evaluated in a fixed priority
// order and never combined.
func (e *Engine) AnalyzeAndSuggest(ctx context.Context, userID string) Suggestion {
	entries, err := e.history.ListRecent(ctx, userID, historyWindow)
	if err != nil {
		e.logger.Warn().Err(err).Str("user_id", userID).Msg("History unavailable; falling back to generic tip")
		return e.generalTip(ctx, userID)
	}
	if len(entries) < 3 {
		return Suggestion{
			Category:   CategoryWelcome,
			Confidence: 0.5,
			Message:    "Welcome! Start by converting a document and explore from there.",
		}
	}

	var (
		slowOps    int
		hasImage   bool
		hasOCR     bool
		hasCleanup bool
		convertOps int
		hasLarge   bool
	)
	for _, entry := range entries {
		if entry.Duration > slowOperation {
			slowOps++
		}
		if isImageType(entry.FileType) {
			hasImage = true
		}
		switch entry.Operation {
		case model.OpOCR:
			hasOCR = true
		case model.OpCleanup:
			hasCleanup = true
		case model.OpConvert:
			convertOps++
		}
		if entry.FileSizeBytes > largeFile {
			hasLarge = true
		}
	}

	var s Suggestion
	switch {
	case slowOps >= 4:
		s = Suggestion{CategoryCompression, 0.9,
			"Several of your recent operations ran long. Compressing files first should speed things up."}
	case hasImage && !hasOCR:
		s = Suggestion{CategoryOCR, 0.85,
			"You have been working with images. OCR can turn them into searchable text."}
	case len(entries) > 15 && !hasCleanup:
		s = Suggestion{CategoryCleanup, 0.8,
			"Your history is getting long. A cleanup keeps things tidy and fast."}
	case convertOps > 5:
		s = Suggestion{CategoryMerge, 0.75,
			"Lots of conversions lately. Merging related documents could save you round trips."}
	case hasLarge:
		s = Suggestion{CategorySplit, 0.7,
			"One of your files is quite large. Splitting it makes each part quicker to handle."}
	default:
		return e.generalTip(ctx, userID)
	}
	e.rememberTip(ctx, userID, s.Category)
	return s
}

// generalTip picks a fallback tip, skipping whatever the user saw last.
func (e *Engine) generalTip(ctx context.Context, userID string) Suggestion {
	last, err := e.store.GetValue(ctx, lastTipKeyPrefix+userID)
	if err != nil {
		e.logger.Warn().Err(err).Str("user_id", userID).Msg("Failed to read last tip")
	}
	for _, tip := range generalTips {
		if tip.Message != last {
			e.rememberTip(ctx, userID, tip.Message)
			return tip
		}
	}
	return generalTips[0]
}

func (e *Engine) rememberTip(ctx context.Context, userID, value string) {
	if err := e.store.SetValue(ctx, lastTipKeyPrefix+userID, value, lastTipTTL); err != nil {
		e.logger.Warn().Err(err).Str("user_id", userID).Msg("Failed to remember last tip")
	}
}

// RewardFollowed grants the fixed XP bonus for acting on a suggestion and
// attempts the one-time advice achievement.
func (e *Engine) RewardFollowed(ctx context.Context, userID, category string) FollowedReward {
	res := e.progression.AddXP(ctx, userID, FollowedRewardXP)
	reward := FollowedReward{
		XPAwarded: FollowedRewardXP,
		LeveledUp: res.LeveledUp,
		Level:     res.Level,
	}
	fresh, err := e.progression.UnlockAchievement(ctx, userID, progression.AchFollowedAdvice)
	if err != nil {
		e.logger.Error().Err(err).Str("user_id", userID).Str("category", category).
			Msg("Failed to unlock advice achievement")
		return reward
	}
	if fresh {
		reward.Achievement = progression.AchFollowedAdvice
	}
	return reward
}

func isImageType(fileType string) bool {
	switch strings.ToLower(fileType) {
	case "jpg", "jpeg", "png", "webp", "tiff", "bmp", "image":
		return true
	}
	return false
}
