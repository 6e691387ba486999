package leaderboard

import (
	"time"

	"github.com/learnquest/gamification-core/internal/domain/shared"
	"github.com/learnquest/gamification-core/pkg/timeutil"
)

// Period selects which XP a board ranks by.
type Period string

const (
	// PeriodAllTime ranks by total profile XP.
	PeriodAllTime Period = "all_time"
	// PeriodMonthly ranks by XP earned since the first of the month (UTC).
	PeriodMonthly Period = "monthly"
	// PeriodWeekly ranks by XP earned since Monday 00:00 UTC.
	PeriodWeekly Period = "weekly"
)

// Periods lists every supported period.
var Periods = []Period{PeriodAllTime, PeriodMonthly, PeriodWeekly}

// ParsePeriod validates a period string. Empty means all_time.
func ParsePeriod(s string) (Period, error) {
	switch p := Period(s); p {
	case "":
		return PeriodAllTime, nil
	case PeriodAllTime, PeriodMonthly, PeriodWeekly:
		return p, nil
	default:
		return "", shared.ErrInvalidPeriod
	}
}

// Since returns the start of the period containing now. It is the zero
// time for all_time.
func (p Period) Since(now time.Time) time.Time {
	switch p {
	case PeriodWeekly:
		return timeutil.StartOfWeek(now)
	case PeriodMonthly:
		return timeutil.StartOfMonth(now)
	default:
		return time.Time{}
	}
}

// IsAllTime reports whether the period ranks by total XP.
func (p Period) IsAllTime() bool {
	return p == PeriodAllTime || p == ""
}

func (p Period) String() string {
	return string(p)
}

// Limits for top-N requests.
const (
	MinLimit     = 10
	MaxLimit     = 100
	DefaultLimit = 100
)

// NormalizeLimit applies the default to 0 and rejects values outside
// [MinLimit, MaxLimit].
func NormalizeLimit(limit int) (int, error) {
	if limit == 0 {
		return DefaultLimit, nil
	}
	if limit < MinLimit || limit > MaxLimit {
		return 0, shared.ErrInvalidLimit
	}
	return limit, nil
}
