package progress

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/learnquest/gamification-core/internal/domain/shared"
)

func TestNewProfile(t *testing.T) {
	now := time.Now()
	p, err := NewProfile("u1", "Ana", now)
	require.NoError(t, err)

	assert.Equal(t, int64(0), p.XP)
	assert.Equal(t, 1, p.Level)
	assert.Equal(t, 0, p.Streak)
	assert.Nil(t, p.LastActivity)
	assert.Empty(t, p.Badges)

	_, err = NewProfile("  ", "x", now)
	assert.ErrorIs(t, err, shared.ErrInvalidUserID)
}

func TestProfileAddXP_RecomputesLevel(t *testing.T) {
	p, _ := NewProfile("u1", "Ana", time.Now())

	old, err := p.AddXP(350)
	require.NoError(t, err)
	assert.Equal(t, 1, old)
	assert.Equal(t, 3, p.Level)

	_, err = p.AddXP(-1)
	assert.ErrorIs(t, err, shared.ErrNegativeXP)
	assert.Equal(t, int64(350), p.XP)
}

func TestProfileAppendBadges_NeverDuplicates(t *testing.T) {
	p, _ := NewProfile("u1", "Ana", time.Now())
	first := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	added := p.AppendBadges(BadgeUnlock{BadgeID: "first_steps", UnlockedAt: first})
	assert.Len(t, added, 1)

	added = p.AppendBadges(
		BadgeUnlock{BadgeID: "first_steps", UnlockedAt: first.Add(time.Hour)},
		BadgeUnlock{BadgeID: "scholar", UnlockedAt: first.Add(time.Hour)},
	)
	require.Len(t, added, 1)
	assert.Equal(t, "scholar", added[0].BadgeID)
	assert.Equal(t, first, p.UnlockedSet()["first_steps"], "original unlock time kept")
}

func TestProfileClone_IsDeep(t *testing.T) {
	p, _ := NewProfile("u1", "Ana", time.Now())
	p.RecordActivity(time.Now())
	p.AppendBadges(BadgeUnlock{BadgeID: "x"})

	c := p.Clone()
	c.AppendBadges(BadgeUnlock{BadgeID: "y"})
	*c.LastActivity = c.LastActivity.AddDate(0, 0, 5)

	assert.Len(t, p.Badges, 1)
	assert.NotEqual(t, *p.LastActivity, *c.LastActivity)
}
