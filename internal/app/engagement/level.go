package engagement

import (
	"math"

	"github.com/shawHuaZe/SingMaster/internal/domain"
)

// MaxLevel is the highest experience level.
const MaxLevel = 50

// XPForLevel returns the cumulative XP required to reach a given level.
// Uses an exponential curve: 100 * 1.2^(level-1) for level >= 2.
func XPForLevel(level int) int64 {
	if level <= 1 {
		return 0
	}
	if level > MaxLevel {
		level = MaxLevel
	}
	return int64(100 * math.Pow(1.2, float64(level-1)))
}

// LevelForXP returns the level for a given XP amount.
// Iterates upward until cumulative XP exceeds the target.
func LevelForXP(xp int64) int {
	level := 1
	for level < MaxLevel {
		if xp < XPForLevel(level+1) {
			return level
		}
		level++
	}
	return MaxLevel
}

// LevelInfo describes xp as a level with progress toward the next one.
func LevelInfo(xp int64) domain.UserLevel {
	if xp < 0 {
		xp = 0
	}
	ul := domain.UserLevel{
		Level:     LevelForXP(xp),
		CurrentXP: xp,
	}
	if ul.Level >= MaxLevel {
		ul.ProgressPct = 100
		return ul
	}

	thisLevel := XPForLevel(ul.Level)
	nextLevel := XPForLevel(ul.Level + 1)
	ul.XPToNext = nextLevel - xp
	if ul.XPToNext < 0 {
		ul.XPToNext = 0
	}

	span := nextLevel - thisLevel
	if span <= 0 {
		ul.ProgressPct = 100
		return ul
	}
	pct := float64(xp-thisLevel) / float64(span) * 100.0
	ul.ProgressPct = math.Max(0, math.Min(100, pct))
	return ul
}
