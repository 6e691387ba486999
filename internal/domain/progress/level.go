package progress

import "math"

// XPPerLevelStep is the cost increment between consecutive levels:
// level 1 costs 100 XP, level 2 costs 200, level L costs 100·L.
const XPPerLevelStep int64 = 100

// MinLevel is the level of a fresh profile.
const MinLevel = 1

// MaxLevel caps the schedule so 100·L·(L+1) stays inside int64.
const MaxLevel = 300_000_000

// ══════════════════════════════════════════════════════════════════════════════
// LEVEL THRESHOLDS
// ══════════════════════════════════════════════════════════════════════════════

// XPForLevel returns the total XP at which level L starts: 100·(L-1)·L/2.
func XPForLevel(level int) int64 {
	if level < MinLevel {
		return 0
	}
	if level > MaxLevel {
		level = MaxLevel
	}
	l := int64(level)
	return XPPerLevelStep * (l - 1) * l / 2
}

// Thresholds returns the XP window [current, next) of level L.
// For L < 1 both bounds are 0.
func Thresholds(level int) (current, next int64) {
	if level < MinLevel {
		return 0, 0
	}
	if level > MaxLevel {
		level = MaxLevel
	}
	current = XPForLevel(level)
	return current, current + XPPerLevelStep*int64(level)
}

// LevelFromXP returns the largest level L in [1, MaxLevel] with
// XPForLevel(L) ≤ xp.
func LevelFromXP(xp int64) int {
	if xp < XPPerLevelStep {
		return MinLevel
	}

	// 50·L·(L-1) ≤ xp  ⇔  L ≤ (1 + sqrt(1 + 8·xp/100)) / 2
	guess := int((1 + math.Sqrt(1+8*float64(xp)/float64(XPPerLevelStep))) / 2)
	switch {
	case guess < MinLevel:
		guess = MinLevel
	case guess > MaxLevel:
		guess = MaxLevel
	}

	// Float rounding can be off by one in either direction for large xp.
	for guess > MinLevel && XPForLevel(guess) > xp {
		guess--
	}
	for guess < MaxLevel && XPForLevel(guess+1) <= xp {
		guess++
	}
	return guess
}

// ProgressPercentage is how far xp has advanced through level L's window,
// clamped to [0, 100]. A zero-width window yields 0.
func ProgressPercentage(xp int64, level int) float64 {
	current, next := Thresholds(level)
	width := next - current
	if width <= 0 {
		return 0
	}

	pct := float64(xp-current) / float64(width) * 100
	switch {
	case pct < 0:
		return 0
	case pct > 100:
		return 100
	}
	return pct
}

// LevelProgress is the display view of a profile's position in its level.
type LevelProgress struct {
	XP                 int64   `json:"xp"`
	Level              int     `json:"level"`
	XPForCurrentLevel  int64   `json:"xp_for_current_level"`
	XPForNextLevel     int64   `json:"xp_for_next_level"`
	ProgressInLevel    int64   `json:"progress_in_level"`
	ProgressNeeded     int64   `json:"progress_needed"`
	ProgressPercentage float64 `json:"progress_percentage"`
}

// NewLevelProgress derives the level view from total XP alone.
func NewLevelProgress(xp int64) LevelProgress {
	if xp < 0 {
		xp = 0
	}
	level := LevelFromXP(xp)
	current, next := Thresholds(level)
	return LevelProgress{
		XP:                 xp,
		Level:              level,
		XPForCurrentLevel:  current,
		XPForNextLevel:     next,
		ProgressInLevel:    xp - current,
		ProgressNeeded:     next - xp,
		ProgressPercentage: math.Round(ProgressPercentage(xp, level)*100) / 100,
	}
}
