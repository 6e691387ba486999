package scoring

import (
	"time"
)

// BestScore is the per-(user, quiz) record of the best attempt so far.
// BestXPAwarded always equals Tier(BestScorePercentage).
type BestScore struct {
	UserID              string
	QuizID              string
	BestScorePercentage float64
	BestXPAwarded       int64
	TotalAttempts       int
	LastAttemptAt       time.Time
}

// Breakdown explains how a delta was computed.
type Breakdown struct {
	CurrentScore   float64 `json:"current_score"`
	PreviousBest   float64 `json:"previous_best"`
	XPFromCurrent  int64   `json:"xp_from_current"`
	XPFromPrevious int64   `json:"xp_from_previous"`
}

// Outcome is the result of applying one submission to a best-score record.
type Outcome struct {
	Record        BestScore
	Delta         int64
	IsImprovement bool
	AttemptNumber int
	FirstAttempt  bool
	Breakdown     Breakdown
}

// Apply computes the effect of a new submission. prev is nil on the first
// attempt. Apply does not mutate prev.
func Apply(prev *BestScore, userID, quizID string, score float64, now time.Time) Outcome {
	awarded := Tier(score)

	if prev == nil {
		return Outcome{
			Record: BestScore{
				UserID:              userID,
				QuizID:              quizID,
				BestScorePercentage: score,
				BestXPAwarded:       awarded,
				TotalAttempts:       1,
				LastAttemptAt:       now,
			},
			Delta:         awarded,
			IsImprovement: true,
			AttemptNumber: 1,
			FirstAttempt:  true,
			Breakdown: Breakdown{
				CurrentScore:  score,
				XPFromCurrent: awarded,
			},
		}
	}

	record := *prev
	record.TotalAttempts++
	record.LastAttemptAt = now

	out := Outcome{
		AttemptNumber: record.TotalAttempts,
		Breakdown: Breakdown{
			CurrentScore:   score,
			PreviousBest:   prev.BestScorePercentage,
			XPFromCurrent:  awarded,
			XPFromPrevious: prev.BestXPAwarded,
		},
	}

	if score > prev.BestScorePercentage {
		record.BestScorePercentage = score
		record.BestXPAwarded = awarded
		out.Delta = awarded - prev.BestXPAwarded
		out.IsImprovement = true
	}

	// Only reachable when a stored BestXPAwarded disagrees with Tier.
	if out.Delta < 0 {
		out.Delta = 0
	}

	out.Record = record
	return out
}
