// Package scoring turns graded quiz scores into XP using a replace-based rule:
// a learner's reward for a quiz is capped at the XP implied by their best
// score on it, so retaking a quiz only pays out for genuine improvement.
package scoring

// Tier boundaries and their XP rewards.
const (
	PassScore      = 50.0
	GoodScore      = 70.0
	ExcellentScore = 90.0
	PerfectScore   = 100.0

	PassXP      int64 = 20
	GoodXP      int64 = 35
	ExcellentXP int64 = 50
	PerfectXP   int64 = 60
)

// Tier maps a score percentage to its XP reward. It is a nondecreasing step
// function of the score.
func Tier(score float64) int64 {
	switch {
	case score >= PerfectScore:
		return PerfectXP
	case score >= ExcellentScore:
		return ExcellentXP
	case score >= GoodScore:
		return GoodXP
	case score >= PassScore:
		return PassXP
	default:
		return 0
	}
}
