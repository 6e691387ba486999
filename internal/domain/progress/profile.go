package progress

import (
	"time"

	"github.com/learnquest/gamification-core/internal/domain/shared"
	"github.com/learnquest/gamification-core/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// PROFILE AGGREGATE
// ══════════════════════════════════════════════════════════════════════════════

// BadgeUnlock records that a badge was granted. Unlock records are
// append-only.
type BadgeUnlock struct {
	BadgeID    string
	UnlockedAt time.Time
}

// Profile is the gamification state of one user.
type Profile struct {
	UserID       string
	DisplayName  string
	XP           int64
	Level        int
	Streak       int
	BestStreak   int
	LastActivity *time.Time
	Badges       []BadgeUnlock
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewProfile creates the registration-time profile.
func NewProfile(userID, displayName string, now time.Time) (*Profile, error) {
	if err := shared.ValidateUserID(userID); err != nil {
		return nil, err
	}
	return &Profile{
		UserID:      userID,
		DisplayName: displayName,
		XP:          0,
		Level:       MinLevel,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// AddXP grows XP by a non-negative delta and re-derives the level.
// It returns the level before the change.
func (p *Profile) AddXP(delta int64) (oldLevel int, err error) {
	if delta < 0 {
		return p.Level, shared.ErrNegativeXP
	}
	oldLevel = p.Level
	p.XP += delta
	p.SyncLevel()
	return oldLevel, nil
}

// SyncLevel forces Level back to LevelFromXP(XP).
func (p *Profile) SyncLevel() {
	p.Level = LevelFromXP(p.XP)
}

// RecordActivity applies a streak transition for an activity on date.
// It reports false when the profile was already updated that day.
func (p *Profile) RecordActivity(date time.Time) (StreakTransition, bool) {
	today := timeutil.CalendarDate(date)
	streak, transition := NextStreak(p.Streak, p.LastActivity, today)
	if transition == StreakUnchanged {
		return transition, false
	}

	p.Streak = streak
	if p.Streak > p.BestStreak {
		p.BestStreak = p.Streak
	}
	p.LastActivity = &today
	return transition, true
}

// HasBadge reports whether badgeID is already unlocked.
func (p *Profile) HasBadge(badgeID string) bool {
	for _, b := range p.Badges {
		if b.BadgeID == badgeID {
			return true
		}
	}
	return false
}

// UnlockedSet returns the unlocked badge ids with their unlock time.
func (p *Profile) UnlockedSet() map[string]time.Time {
	out := make(map[string]time.Time, len(p.Badges))
	for _, b := range p.Badges {
		out[b.BadgeID] = b.UnlockedAt
	}
	return out
}

// AppendBadges adds unlocks that are not present yet and returns the ones
// actually added. Existing unlocks are never touched.
func (p *Profile) AppendBadges(unlocks ...BadgeUnlock) []BadgeUnlock {
	var added []BadgeUnlock
	for _, u := range unlocks {
		if p.HasBadge(u.BadgeID) {
			continue
		}
		p.Badges = append(p.Badges, u)
		added = append(added, u)
	}
	return added
}

// Clone returns a deep copy.
func (p *Profile) Clone() *Profile {
	c := *p
	if p.LastActivity != nil {
		la := *p.LastActivity
		c.LastActivity = &la
	}
	c.Badges = append([]BadgeUnlock(nil), p.Badges...)
	return &c
}

// XPEvent is an audit row for a single XP change.
type XPEvent struct {
	ID        string
	UserID    string
	QuizID    string
	Delta     int64
	OldXP     int64
	NewXP     int64
	Reason    string
	CreatedAt time.Time
}

// XP change reasons.
const (
	ReasonQuizFirstAttempt = "quiz_first_attempt"
	ReasonQuizImprovement  = "quiz_improvement"
)
