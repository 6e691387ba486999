package progress

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestThresholds(t *testing.T) {
	tests := []struct {
		level   int
		current int64
		next    int64
	}{
		{1, 0, 100},
		{2, 100, 300},
		{3, 300, 600},
		{4, 600, 1000},
		{10, 4500, 5500},
		{0, 0, 0},
		{-3, 0, 0},
	}

	for _, tt := range tests {
		current, next := Thresholds(tt.level)
		assert.Equal(t, tt.current, current, "level %d", tt.level)
		assert.Equal(t, tt.next, next, "level %d", tt.level)
	}
}

func TestLevelFromXP_InverseOfThresholds(t *testing.T) {
	for level := 1; level <= 2000; level++ {
		current, next := Thresholds(level)
		assert.Equal(t, level, LevelFromXP(current), "start of level %d", level)
		assert.Equal(t, level, LevelFromXP(next-1), "end of level %d", level)
	}
}

func TestLevelFromXP_Monotonic(t *testing.T) {
	assert.Equal(t, 1, LevelFromXP(0))
	assert.Equal(t, 1, LevelFromXP(-50))

	prev := LevelFromXP(0)
	for xp := int64(1); xp <= 20000; xp++ {
		level := LevelFromXP(xp)
		assert.GreaterOrEqual(t, level, prev)
		prev = level
	}
}

func TestLevelFromXP_LargeValues(t *testing.T) {
	current, _ := Thresholds(1_000_000)
	assert.Equal(t, 1_000_000, LevelFromXP(current))
	assert.Equal(t, 999_999, LevelFromXP(current-1))
}

func TestLevelFromXP_CappedAtMaxLevel(t *testing.T) {
	top := XPForLevel(MaxLevel)
	assert.Greater(t, top, int64(0))
	assert.Equal(t, MaxLevel, LevelFromXP(top))
	assert.Equal(t, MaxLevel-1, LevelFromXP(top-1))
	assert.Equal(t, MaxLevel, LevelFromXP(math.MaxInt64))

	assert.Equal(t, top, XPForLevel(MaxLevel+10))
	current, next := Thresholds(math.MaxInt32)
	assert.Equal(t, top, current)
	assert.Greater(t, next, current)
	assert.Equal(t, 100.0, ProgressPercentage(math.MaxInt64, MaxLevel))
}

func TestProgressPercentage(t *testing.T) {
	assert.Equal(t, 0.0, ProgressPercentage(0, 1))
	assert.Equal(t, 50.0, ProgressPercentage(50, 1))
	assert.Equal(t, 50.0, ProgressPercentage(200, 2))
	assert.Equal(t, 0.0, ProgressPercentage(500, 0), "zero-width range")
	assert.Equal(t, 100.0, ProgressPercentage(10_000, 1), "clamped")
}

func TestNewLevelProgress_NewUser(t *testing.T) {
	p := NewLevelProgress(0)

	assert.Equal(t, 1, p.Level)
	assert.Equal(t, int64(0), p.XPForCurrentLevel)
	assert.Equal(t, int64(100), p.XPForNextLevel)
	assert.Equal(t, int64(0), p.ProgressInLevel)
	assert.Equal(t, int64(100), p.ProgressNeeded)
	assert.Equal(t, 0.0, p.ProgressPercentage)
}

func TestNewLevelProgress_Rounded(t *testing.T) {
	p := NewLevelProgress(400) // level 3: 300..600

	assert.Equal(t, 3, p.Level)
	assert.Equal(t, int64(100), p.ProgressInLevel)
	assert.Equal(t, int64(200), p.ProgressNeeded)
	assert.Equal(t, 33.33, p.ProgressPercentage)
}
