package progress

import (
	"time"

	"github.com/learnquest/gamification-core/pkg/timeutil"
)

// StreakTransition describes what an activity did to the streak.
type StreakTransition int

const (
	// StreakStarted is the first activity ever recorded.
	StreakStarted StreakTransition = iota
	// StreakUnchanged is a repeat activity on the same calendar day.
	StreakUnchanged
	// StreakExtended is activity on the day after the last one.
	StreakExtended
	// StreakReset covers gaps of two or more days and dates before the last activity.
	StreakReset
)

func (t StreakTransition) String() string {
	switch t {
	case StreakStarted:
		return "started"
	case StreakUnchanged:
		return "unchanged"
	case StreakExtended:
		return "extended"
	case StreakReset:
		return "reset"
	default:
		return "unknown"
	}
}

// NextStreak computes the streak after an activity on today, given the
// previous streak and last activity date.
func NextStreak(streak int, lastActivity *time.Time, today time.Time) (int, StreakTransition) {
	if lastActivity == nil {
		return 1, StreakStarted
	}

	switch timeutil.DaysBetween(*lastActivity, today) {
	case 0:
		return streak, StreakUnchanged
	case 1:
		return streak + 1, StreakExtended
	default:
		return 1, StreakReset
	}
}
