package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/learnquest/gamification-core/internal/domain/leaderboard"
	"github.com/learnquest/gamification-core/pkg/circuitbreaker"
)

type flakyCache struct {
	err   error
	calls int
	board *leaderboard.Board
}

func (c *flakyCache) GetBoard(context.Context, leaderboard.Period, int) (*leaderboard.Board, bool, error) {
	c.calls++
	if c.err != nil {
		return nil, false, c.err
	}
	return c.board, c.board != nil, nil
}

func (c *flakyCache) SetBoard(_ context.Context, b *leaderboard.Board, _ time.Duration) error {
	c.calls++
	if c.err == nil {
		c.board = b
	}
	return c.err
}

func (c *flakyCache) InvalidateBoards(context.Context) error {
	c.calls++
	if c.err == nil {
		c.board = nil
	}
	return c.err
}

func TestGuardedCache_OpensAndRecovers(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	breaker := circuitbreaker.New("board-cache",
		circuitbreaker.WithFailureThreshold(2),
		circuitbreaker.WithSuccessThreshold(1),
		circuitbreaker.WithTimeout(10*time.Second),
		circuitbreaker.WithClock(func() time.Time { return now }),
	)
	inner := &flakyCache{err: errors.New("dial tcp: connection refused")}
	cache := NewGuardedCache(inner, breaker)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, _, err := cache.GetBoard(ctx, leaderboard.PeriodAllTime, 100)
		require.Error(t, err)
	}
	assert.Equal(t, circuitbreaker.StateOpen, breaker.State())

	_, _, err := cache.GetBoard(ctx, leaderboard.PeriodAllTime, 100)
	assert.True(t, circuitbreaker.IsRejected(err))
	assert.Equal(t, 2, inner.calls)

	inner.err = nil
	now = now.Add(11 * time.Second)

	board := &leaderboard.Board{Period: leaderboard.PeriodAllTime, Limit: 100}
	require.NoError(t, cache.SetBoard(ctx, board, time.Minute))
	assert.Equal(t, circuitbreaker.StateClosed, breaker.State())

	got, ok, err := cache.GetBoard(ctx, leaderboard.PeriodAllTime, 100)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Same(t, board, got)

	require.NoError(t, cache.InvalidateBoards(ctx))
	_, ok, err = cache.GetBoard(ctx, leaderboard.PeriodAllTime, 100)
	require.NoError(t, err)
	assert.False(t, ok)
}
