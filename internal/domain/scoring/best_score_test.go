package scoring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApply_ReplaceBasedSequence(t *testing.T) {
	now := time.Date(2024, 4, 1, 12, 0, 0, 0, time.UTC)

	first := Apply(nil, "u1", "q1", 95, now)
	assert.Equal(t, int64(50), first.Delta)
	assert.True(t, first.IsImprovement)
	assert.True(t, first.FirstAttempt)
	assert.Equal(t, 1, first.AttemptNumber)
	assert.Equal(t, 95.0, first.Record.BestScorePercentage)
	assert.Equal(t, int64(50), first.Record.BestXPAwarded)

	second := Apply(&first.Record, "u1", "q1", 100, now.Add(time.Minute))
	assert.Equal(t, int64(10), second.Delta)
	assert.True(t, second.IsImprovement)
	assert.Equal(t, 2, second.AttemptNumber)
	assert.Equal(t, Breakdown{CurrentScore: 100, PreviousBest: 95, XPFromCurrent: 60, XPFromPrevious: 50}, second.Breakdown)

	third := Apply(&second.Record, "u1", "q1", 80, now.Add(2*time.Minute))
	assert.Equal(t, int64(0), third.Delta)
	assert.False(t, third.IsImprovement)
	assert.Equal(t, 3, third.AttemptNumber)
	assert.Equal(t, 100.0, third.Record.BestScorePercentage)
	assert.Equal(t, int64(60), third.Record.BestXPAwarded)
	assert.Equal(t, now.Add(2*time.Minute), third.Record.LastAttemptAt)
}

func TestApply_EqualScoreIsNotImprovement(t *testing.T) {
	prev := &BestScore{UserID: "u", QuizID: "q", BestScorePercentage: 72, BestXPAwarded: 35, TotalAttempts: 4}

	out := Apply(prev, "u", "q", 72, time.Now())

	assert.Zero(t, out.Delta)
	assert.False(t, out.IsImprovement)
	assert.Equal(t, 5, out.AttemptNumber)
	assert.Equal(t, 4, prev.TotalAttempts, "input untouched")
}

func TestApply_HigherScoreSameTier(t *testing.T) {
	prev := &BestScore{BestScorePercentage: 71, BestXPAwarded: 35, TotalAttempts: 1}

	out := Apply(prev, "u", "q", 85, time.Now())

	assert.True(t, out.IsImprovement)
	assert.Zero(t, out.Delta)
	assert.Equal(t, 85.0, out.Record.BestScorePercentage)
}

func TestApply_TotalNeverDecreases(t *testing.T) {
	scores := []float64{10, 55, 40, 72, 72, 91, 30, 100, 99, 100, 0}
	var record *BestScore
	var total int64

	for i, s := range scores {
		out := Apply(record, "u", "q", s, time.Now())
		require.GreaterOrEqual(t, out.Delta, int64(0))
		total += out.Delta
		assert.Equal(t, i+1, out.AttemptNumber)
		assert.Equal(t, Tier(out.Record.BestScorePercentage), out.Record.BestXPAwarded)
		assert.Equal(t, out.Record.BestXPAwarded, total, "total equals tier of best score")
		r := out.Record
		record = &r
	}
	assert.Equal(t, int64(60), total)
}

func TestApply_CorruptRecordNeverGoesNegative(t *testing.T) {
	prev := &BestScore{BestScorePercentage: 60, BestXPAwarded: 50, TotalAttempts: 1}

	out := Apply(prev, "u", "q", 65, time.Now())

	assert.Zero(t, out.Delta)
	assert.Equal(t, int64(20), out.Record.BestXPAwarded)
}
