package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/learnquest/gamification-core/internal/domain/leaderboard"
	"github.com/learnquest/gamification-core/internal/domain/progress"
	"github.com/learnquest/gamification-core/internal/infrastructure/persistence/memory"
)

func TestWarmLeaderboardJob_FillsCache(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	store := memory.NewStore()

	for i, id := range []string{"u-1", "u-2", "u-3"} {
		p, err := progress.NewProfile(id, "User "+id, now)
		require.NoError(t, err)
		_, err = p.AddXP(int64(100 * (i + 1)))
		require.NoError(t, err)
		require.NoError(t, store.Profiles().Create(ctx, p))
	}

	cache := memory.NewBoardCache(func() time.Time { return now })
	job := NewWarmLeaderboardJob(store.Leaderboard(), cache, nil, WarmLeaderboardConfig{
		Limits: []int{10, 50},
		Now:    func() time.Time { return now },
	})

	require.NoError(t, job.Run(ctx))

	for _, limit := range []int{10, 50} {
		board, ok, err := cache.GetBoard(ctx, leaderboard.PeriodAllTime, limit)
		require.NoError(t, err)
		require.True(t, ok, "limit %d", limit)
		assert.Equal(t, 3, board.TotalUsers)
		require.Len(t, board.Entries, 3)
		assert.Equal(t, "u-3", board.Entries[0].UserID)
		assert.Equal(t, 1, board.Entries[0].Rank)
	}
}

func TestWarmLeaderboardJob_RejectsBadLimit(t *testing.T) {
	store := memory.NewStore()
	job := NewWarmLeaderboardJob(store.Leaderboard(), memory.NewBoardCache(nil), nil, WarmLeaderboardConfig{
		Limits: []int{5},
	})

	assert.Error(t, job.Run(context.Background()))
	assert.Equal(t, "warm_leaderboard", job.Name())
}
