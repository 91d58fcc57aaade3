// Package progression implements the gamification engine: XP accrual,
// level and rank derivation, streak continuity and achievement unlocking.
package progression

import "math"

// Level derives the level from total XP. Square-root progression: level n
// requires XP >= (n-1)^2 * 100, so each successive level costs more.
func Level(xp int64) int {
	if xp < 0 {
		xp = 0
	}
	return int(math.Sqrt(float64(xp)/100)) + 1
}

// NextLevelXP returns the XP total at which the given level is left behind.
func NextLevelXP(level int) int64 {
	return int64(level) * int64(level) * 100
}

// rankStep is one rung of the rank ladder: the highest level (inclusive)
// that still maps to the label.
type rankStep struct {
	maxLevel int
	label    string
}

// rankLadder is evaluated in ascending order; the first step whose maxLevel
// covers the user's level wins. Levels above the table map to the top rank.
var rankLadder = []rankStep{
	{4, "novice"},
	{9, "apprentice"},
	{19, "adept"},
	{34, "specialist"},
	{49, "expert"},
	{69, "master"},
	{99, "grandmaster"},
}

// topRank is the overflow rank for levels beyond the ladder.
const topRank = "luminary"

// Rank derives the cosmetic rank label from a level.
func Rank(level int) string {
	for _, step := range rankLadder {
		if level <= step.maxLevel {
			return step.label
		}
	}
	return topRank
}
