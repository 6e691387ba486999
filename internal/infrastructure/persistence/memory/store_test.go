package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/learnquest/gamification-core/internal/domain/leaderboard"
	"github.com/learnquest/gamification-core/internal/domain/progress"
	"github.com/learnquest/gamification-core/internal/domain/scoring"
	"github.com/learnquest/gamification-core/internal/domain/shared"
)

func seed(t *testing.T, s *Store, id, name string, xp int64) {
	t.Helper()
	p, err := progress.NewProfile(id, name, time.Now())
	require.NoError(t, err)
	_, err = p.AddXP(xp)
	require.NoError(t, err)
	require.NoError(t, s.Profiles().Create(context.Background(), p))
}

func TestWithinTx_RollsBackOnError(t *testing.T) {
	s := NewStore()
	seed(t, s, "u1", "Ana", 0)
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.WithinTx(ctx, func(ctx context.Context) error {
		p, err := s.Profiles().GetForUpdate(ctx, "u1")
		require.NoError(t, err)
		_, _ = p.AddXP(500)
		require.NoError(t, s.Profiles().Save(ctx, p))
		require.NoError(t, s.Scores().Upsert(ctx, &scoring.BestScore{UserID: "u1", QuizID: "q", TotalAttempts: 1}, true))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	p, err := s.Profiles().Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), p.XP)
	_, err = s.Scores().GetForUpdate(ctx, "u1", "q")
	assert.ErrorIs(t, err, shared.ErrBestScoreNotFound)
}

func TestWithinTx_RollsBackOnPanic(t *testing.T) {
	s := NewStore()
	seed(t, s, "u1", "Ana", 0)

	assert.Panics(t, func() {
		_ = s.WithinTx(context.Background(), func(ctx context.Context) error {
			p, _ := s.Profiles().GetForUpdate(ctx, "u1")
			p.XP = 999
			_ = s.Profiles().Save(ctx, p)
			panic("mid-transaction")
		})
	})

	p, _ := s.Profiles().Get(context.Background(), "u1")
	assert.Equal(t, int64(0), p.XP)
}

func TestWithinTx_SimulatedConflict(t *testing.T) {
	s := NewStore()
	s.FailNextCommits(1)

	err := s.WithinTx(context.Background(), func(ctx context.Context) error { return nil })
	assert.ErrorIs(t, err, shared.ErrConcurrentUpdateConflict)

	err = s.WithinTx(context.Background(), func(ctx context.Context) error { return nil })
	assert.NoError(t, err)
	assert.Equal(t, 1, s.Commits())
}

func TestProfileRepository_Errors(t *testing.T) {
	s := NewStore()
	seed(t, s, "u1", "Ana", 0)
	ctx := context.Background()

	p, _ := progress.NewProfile("u1", "Dup", time.Now())
	assert.ErrorIs(t, s.Profiles().Create(ctx, p), shared.ErrProfileAlreadyExists)

	_, err := s.Profiles().Get(ctx, "ghost")
	assert.ErrorIs(t, err, shared.ErrProfileNotFound)
	_, err = s.Profiles().AddBadges(ctx, "ghost", nil)
	assert.ErrorIs(t, err, shared.ErrProfileNotFound)
}

func TestProfileRepository_SaveKeepsBadges(t *testing.T) {
	s := NewStore()
	seed(t, s, "u1", "Ana", 0)
	ctx := context.Background()

	added, err := s.Profiles().AddBadges(ctx, "u1", []progress.BadgeUnlock{{BadgeID: "first_steps"}})
	require.NoError(t, err)
	require.Len(t, added, 1)

	again, err := s.Profiles().AddBadges(ctx, "u1", []progress.BadgeUnlock{{BadgeID: "first_steps"}})
	require.NoError(t, err)
	assert.Empty(t, again)

	stale, _ := progress.NewProfile("u1", "Ana", time.Now())
	require.NoError(t, s.Profiles().Save(ctx, stale))

	p, _ := s.Profiles().Get(ctx, "u1")
	assert.True(t, p.HasBadge("first_steps"))
}

func TestLeaderboardRepository_AllTimeAndWeekly(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	seed(t, s, "a", "A", 500)
	seed(t, s, "b", "B", 500)
	seed(t, s, "c", "C", 50)

	now := time.Date(2024, 5, 15, 12, 0, 0, 0, time.UTC)
	require.NoError(t, s.Profiles().AppendXPEvent(ctx, progress.XPEvent{UserID: "c", Delta: 50, CreatedAt: now}))
	require.NoError(t, s.Profiles().AppendXPEvent(ctx, progress.XPEvent{UserID: "a", Delta: 20, CreatedAt: now.AddDate(0, 0, -10)}))

	all := leaderboard.NewScope(leaderboard.PeriodAllTime, now)
	top, err := s.Leaderboard().Top(ctx, all, 10)
	require.NoError(t, err)
	require.Len(t, top, 3)
	assert.Equal(t, "a", top[0].UserID)
	assert.Equal(t, 2, top[1].Rank)

	weekly := leaderboard.NewScope(leaderboard.PeriodWeekly, now)
	n, err := s.Leaderboard().Count(ctx, weekly)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = s.Leaderboard().Position(ctx, weekly, "a")
	assert.ErrorIs(t, err, shared.ErrNotRanked)

	pos, err := s.Leaderboard().Position(ctx, weekly, "c")
	require.NoError(t, err)
	assert.Equal(t, 1, pos.Rank)
	assert.Equal(t, int64(50), pos.XP)
}

func TestBoardCache_Expires(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewBoardCache(func() time.Time { return now })
	ctx := context.Background()

	require.NoError(t, c.SetBoard(ctx, &leaderboard.Board{Period: leaderboard.PeriodAllTime, Limit: 10}, time.Minute))

	_, ok, _ := c.GetBoard(ctx, leaderboard.PeriodAllTime, 10)
	assert.True(t, ok)
	_, ok, _ = c.GetBoard(ctx, leaderboard.PeriodAllTime, 20)
	assert.False(t, ok)

	now = now.Add(time.Minute)
	_, ok, _ = c.GetBoard(ctx, leaderboard.PeriodAllTime, 10)
	assert.False(t, ok)

	now = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, c.InvalidateBoards(ctx))
	_, ok, _ = c.GetBoard(ctx, leaderboard.PeriodAllTime, 10)
	assert.False(t, ok)
}
