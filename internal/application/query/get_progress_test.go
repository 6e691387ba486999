package query_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/learnquest/gamification-core/internal/application/query"
	"github.com/learnquest/gamification-core/internal/domain/badge"
	"github.com/learnquest/gamification-core/internal/domain/progress"
	"github.com/learnquest/gamification-core/internal/domain/shared"
	"github.com/learnquest/gamification-core/internal/infrastructure/persistence/memory"
)

type stubRefresher struct {
	calls []string
	err   error
}

func (r *stubRefresher) Refresh(_ context.Context, userID string) error {
	r.calls = append(r.calls, userID)
	return r.err
}

func TestGetProgress_NewProfile(t *testing.T) {
	s := memory.NewStore()
	seed(t, s, "u-1", "Ada", 0)
	h := query.NewGetProgressHandler(s.Profiles(), badge.DefaultCatalog(), nil, nil, nil)

	res, err := h.Handle(context.Background(), query.GetProgressQuery{UserID: "u-1"})

	require.NoError(t, err)
	assert.Equal(t, 1, res.Level)
	assert.Equal(t, int64(0), res.XPForCurrentLevel)
	assert.Equal(t, int64(100), res.XPForNextLevel)
	assert.Equal(t, int64(100), res.ProgressNeeded)
	assert.Zero(t, res.ProgressPercentage)
	assert.Zero(t, res.Streak)
	assert.Nil(t, res.LastActivity)

	require.Len(t, res.Badges, 7)
	for _, b := range res.Badges {
		assert.Nil(t, b.UnlockedAt, b.ID)
	}
}

func TestGetProgress_MidLevelWithBadge(t *testing.T) {
	s := memory.NewStore()
	seed(t, s, "u-1", "Ada", 450)
	_, err := s.Profiles().AddBadges(context.Background(), "u-1", []progress.BadgeUnlock{
		{BadgeID: badge.QuizNovice, UnlockedAt: t0},
	})
	require.NoError(t, err)

	refresher := &stubRefresher{}
	h := query.NewGetProgressHandler(s.Profiles(), badge.DefaultCatalog(), refresher, nil, nil)

	res, err := h.Handle(context.Background(), query.GetProgressQuery{UserID: "u-1"})

	require.NoError(t, err)
	assert.Equal(t, []string{"u-1"}, refresher.calls)
	assert.Equal(t, 3, res.Level)
	assert.Equal(t, int64(300), res.XPForCurrentLevel)
	assert.Equal(t, int64(600), res.XPForNextLevel)
	assert.Equal(t, int64(150), res.ProgressInLevel)
	assert.Equal(t, 50.0, res.ProgressPercentage)

	unlocked := map[string]bool{}
	for _, b := range res.Badges {
		unlocked[b.ID] = b.UnlockedAt != nil
	}
	assert.True(t, unlocked[badge.QuizNovice])
	assert.False(t, unlocked[badge.QuizMaster])
}

func TestGetProgress_RefreshFailureIsNotFatal(t *testing.T) {
	s := memory.NewStore()
	seed(t, s, "u-1", "Ada", 10)
	h := query.NewGetProgressHandler(s.Profiles(), badge.DefaultCatalog(), &stubRefresher{err: errors.New("stats down")}, nil, nil)

	res, err := h.Handle(context.Background(), query.GetProgressQuery{UserID: "u-1"})

	require.NoError(t, err)
	assert.Equal(t, int64(10), res.XP)
}

func TestGetProgress_UnknownUser(t *testing.T) {
	h := query.NewGetProgressHandler(memory.NewStore().Profiles(), badge.DefaultCatalog(), nil, nil, nil)

	_, err := h.Handle(context.Background(), query.GetProgressQuery{UserID: "ghost"})

	assert.ErrorIs(t, err, shared.ErrProfileNotFound)
}
