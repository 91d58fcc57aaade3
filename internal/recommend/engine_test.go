package recommend

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/Iyke200/doculuna/internal/counter"
	"github.com/Iyke200/doculuna/internal/model"
	"github.com/Iyke200/doculuna/internal/progression"
)

type fakeHistoryRepo struct {
	entries []model.OperationHistoryEntry
	err     error
}

func (f *fakeHistoryRepo) Create(context.Context, *model.OperationHistoryEntry) error { return nil }
func (f *fakeHistoryRepo) GetByID(context.Context, string) (*model.OperationHistoryEntry, error) {
	return nil, errors.New("not implemented")
}
func (f *fakeHistoryRepo) Claim(context.Context, string) (bool, error) { return true, nil }
func (f *fakeHistoryRepo) Finalize(context.Context, string, string, time.Duration, string) error {
	return nil
}
func (f *fakeHistoryRepo) ListRecent(_ context.Context, _ string, limit int) ([]model.OperationHistoryEntry, error) {
	if f.err != nil {
		return nil, f.err
	}
	if len(f.entries) > limit {
		return f.entries[:limit], nil
	}
	return f.entries, nil
}
func (f *fakeHistoryRepo) CountCompleted(context.Context, string) (int, error)       { return 0, nil }
func (f *fakeHistoryRepo) DeleteOlderThan(context.Context, time.Time) (int64, error) { return 0, nil }
func (f *fakeHistoryRepo) DeleteForUser(context.Context, string) (int64, error)      { return 0, nil }

type fakeProgression struct {
	addXPResult progression.XPResult
	unlocked    map[string]bool
}

func (f *fakeProgression) AddXP(_ context.Context, _ string, _ int64) progression.XPResult {
	return f.addXPResult
}

func (f *fakeProgression) UnlockAchievement(_ context.Context, userID, name string) (bool, error) {
	if f.unlocked == nil {
		f.unlocked = make(map[string]bool)
	}
	key := userID + "/" + name
	if f.unlocked[key] {
		return false, nil
	}
	f.unlocked[key] = true
	return true, nil
}

func newTestEngine(history *fakeHistoryRepo, prog ProgressionService) *Engine {
	if prog == nil {
		prog = &fakeProgression{}
	}
	return NewEngine(history, counter.NewMemoryStore(), prog, zerolog.Nop())
}

func entry(op, fileType string, duration time.Duration, size int64) model.OperationHistoryEntry {
	return model.OperationHistoryEntry{
		Operation:     op,
		FileType:      fileType,
		Duration:      duration,
		FileSizeBytes: size,
		Status:        model.OperationSuccess,
	}
}

func repeatEntries(e model.OperationHistoryEntry, n int) []model.OperationHistoryEntry {
	out := make([]model.OperationHistoryEntry, n)
	for i := range out {
		out[i] = e
	}
	return out
}

func TestSuggestWelcomeForShortHistory(t *testing.T) {
	e := newTestEngine(&fakeHistoryRepo{entries: repeatEntries(entry(model.OpConvert, "pdf", time.Second, 100), 2)}, nil)
	s := e.AnalyzeAndSuggest(context.Background(), "u1")
	require.Equal(t, CategoryWelcome, s.Category)
	require.InDelta(t, 0.5, s.Confidence, 1e-9)
}

func TestSuggestCompressionForSlowOperations(t *testing.T) {
	slow := entry(model.OpConvert, "pdf", 45*time.Second, 100)
	e := newTestEngine(&fakeHistoryRepo{entries: repeatEntries(slow, 4)}, nil)
	s := e.AnalyzeAndSuggest(context.Background(), "u1")
	require.Equal(t, CategoryCompression, s.Category)
	require.InDelta(t, 0.9, s.Confidence, 1e-9)
}

func TestSuggestOCRForImagesWithoutOCR(t *testing.T) {
	entries := []model.OperationHistoryEntry{
		entry(model.OpConvert, "png", time.Second, 100),
		entry(model.OpConvert, "pdf", time.Second, 100),
		entry(model.OpCompress, "jpg", time.Second, 100),
	}
	e := newTestEngine(&fakeHistoryRepo{entries: entries}, nil)
	s := e.AnalyzeAndSuggest(context.Background(), "u1")
	require.Equal(t, CategoryOCR, s.Category)
	require.InDelta(t, 0.85, s.Confidence, 1e-9)
}

func TestSuggestOCRSkippedWhenAlreadyUsed(t *testing.T) {
	entries := []model.OperationHistoryEntry{
		entry(model.OpOCR, "png", time.Second, 100),
		entry(model.OpConvert, "jpg", time.Second, 100),
		entry(model.OpConvert, "pdf", time.Second, 100),
	}
	e := newTestEngine(&fakeHistoryRepo{entries: entries}, nil)
	s := e.AnalyzeAndSuggest(context.Background(), "u1")
	require.NotEqual(t, CategoryOCR, s.Category)
}

func TestSuggestCleanupForLongHistory(t *testing.T) {
	entries := repeatEntries(entry(model.OpCompress, "pdf", time.Second, 100), 16)
	e := newTestEngine(&fakeHistoryRepo{entries: entries}, nil)
	s := e.AnalyzeAndSuggest(context.Background(), "u1")
	require.Equal(t, CategoryCleanup, s.Category)
	require.InDelta(t, 0.8, s.Confidence, 1e-9)
}

func TestSuggestMergeForManyConversions(t *testing.T) {
	entries := repeatEntries(entry(model.OpConvert, "pdf", time.Second, 100), 6)
	e := newTestEngine(&fakeHistoryRepo{entries: entries}, nil)
	s := e.AnalyzeAndSuggest(context.Background(), "u1")
	require.Equal(t, CategoryMerge, s.Category)
	require.InDelta(t, 0.75, s.Confidence, 1e-9)
}

func TestSuggestSplitForLargeFiles(t *testing.T) {
	entries := []model.OperationHistoryEntry{
		entry(model.OpCompress, "pdf", time.Second, 100),
		entry(model.OpCompress, "pdf", time.Second, 15<<20),
		entry(model.OpCompress, "pdf", time.Second, 100),
	}
	e := newTestEngine(&fakeHistoryRepo{entries: entries}, nil)
	s := e.AnalyzeAndSuggest(context.Background(), "u1")
	require.Equal(t, CategorySplit, s.Category)
	require.InDelta(t, 0.7, s.Confidence, 1e-9)
}

func TestSuggestPriorityOrderIsFixed(t *testing.T) {
	// History that matches compression, OCR and split at once; the highest
	// priority heuristic wins.
	entries := []model.OperationHistoryEntry{
		entry(model.OpConvert, "png", 45*time.Second, 15<<20),
		entry(model.OpConvert, "png", 45*time.Second, 15<<20),
		entry(model.OpConvert, "png", 45*time.Second, 15<<20),
		entry(model.OpConvert, "png", 45*time.Second, 15<<20),
	}
	e := newTestEngine(&fakeHistoryRepo{entries: entries}, nil)
	s := e.AnalyzeAndSuggest(context.Background(), "u1")
	require.Equal(t, CategoryCompression, s.Category)
}

func TestGeneralTipAvoidsImmediateRepeat(t *testing.T) {
	entries := repeatEntries(entry(model.OpCompress, "pdf", time.Second, 100), 5)
	e := newTestEngine(&fakeHistoryRepo{entries: entries}, nil)
	ctx := context.Background()

	first := e.AnalyzeAndSuggest(ctx, "u1")
	require.Equal(t, CategoryGeneral, first.Category)
	second := e.AnalyzeAndSuggest(ctx, "u1")
	require.Equal(t, CategoryGeneral, second.Category)
	require.NotEqual(t, first.Message, second.Message)
}

func TestSuggestDegradesToTipWhenHistoryUnavailable(t *testing.T) {
	e := newTestEngine(&fakeHistoryRepo{err: errors.New("db down")}, nil)
	s := e.AnalyzeAndSuggest(context.Background(), "u1")
	require.Equal(t, CategoryGeneral, s.Category)
}

func TestRewardFollowed(t *testing.T) {
	prog := &fakeProgression{addXPResult: progression.XPResult{XP: 75, Level: 2, LeveledUp: true}}
	e := newTestEngine(&fakeHistoryRepo{}, prog)
	ctx := context.Background()

	r := e.RewardFollowed(ctx, "u1", CategoryCompression)
	require.EqualValues(t, FollowedRewardXP, r.XPAwarded)
	require.True(t, r.LeveledUp)
	require.Equal(t, 2, r.Level)
	require.Equal(t, progression.AchFollowedAdvice, r.Achievement)

	// The achievement only unlocks once.
	r = e.RewardFollowed(ctx, "u1", CategoryMerge)
	require.Empty(t, r.Achievement)
}
