package shared

import (
	"math"
	"strings"
)

// ═══════════════════════════════════════════════════════════════════════════
// Input Value Objects
// ═══════════════════════════════════════════════════════════════════════════

// MaxIDLength bounds user and quiz identifiers.
const MaxIDLength = 128

// ValidateUserID checks that a user identifier is present and reasonably sized.
func ValidateUserID(id string) error {
	if strings.TrimSpace(id) == "" || len(id) > MaxIDLength {
		return ErrInvalidUserID
	}
	return nil
}

// ValidateQuizID checks that a quiz identifier is present and reasonably sized.
func ValidateQuizID(id string) error {
	if strings.TrimSpace(id) == "" || len(id) > MaxIDLength {
		return ErrInvalidQuizID
	}
	return nil
}

// ValidateScore checks that a graded score percentage lies in [0, 100].
func ValidateScore(score float64) error {
	if math.IsNaN(score) || score < 0 || score > 100 {
		return ErrInvalidScore
	}
	return nil
}

// Round2 rounds to two decimals for display values.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
