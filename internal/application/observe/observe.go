// Package observe is the instrumentation surface the application handlers
// report to. Infrastructure supplies the Prometheus implementation.
package observe

import (
	"time"
)

// Recorder receives business and latency measurements.
type Recorder interface {
	XPAwarded(delta int64)
	QuizAttempt(improvement bool)
	LevelUp()
	StreakUpdated(transition string)
	BadgeUnlocked(badgeID string)
	BadgeEvaluationFailed(badgeID string)
	TxConflict()
	LeaderboardCache(hit bool)
	ObserveOperation(op string, d time.Duration, err error)
}

// Nop discards every measurement.
type Nop struct{}

func (Nop) XPAwarded(int64)                              {}
func (Nop) QuizAttempt(bool)                             {}
func (Nop) LevelUp()                                     {}
func (Nop) StreakUpdated(string)                         {}
func (Nop) BadgeUnlocked(string)                         {}
func (Nop) BadgeEvaluationFailed(string)                 {}
func (Nop) TxConflict()                                  {}
func (Nop) LeaderboardCache(bool)                        {}
func (Nop) ObserveOperation(string, time.Duration, error) {}

var _ Recorder = Nop{}

// OrNop returns r, or Nop when r is nil.
func OrNop(r Recorder) Recorder {
	if r == nil {
		return Nop{}
	}
	return r
}
