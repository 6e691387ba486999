package redis

import (
	"context"
	"time"

	"github.com/learnquest/gamification-core/internal/domain/leaderboard"
	"github.com/learnquest/gamification-core/pkg/circuitbreaker"
)

// GuardedCache short-circuits a leaderboard cache that keeps failing, so a
// Redis outage costs one rejected call instead of a dial timeout per read.
// A skipped invalidation leaves boards that expire with their TTL.
type GuardedCache struct {
	inner   leaderboard.Cache
	breaker *circuitbreaker.CircuitBreaker
}

// NewGuardedCache wraps inner with breaker.
func NewGuardedCache(inner leaderboard.Cache, breaker *circuitbreaker.CircuitBreaker) *GuardedCache {
	return &GuardedCache{inner: inner, breaker: breaker}
}

var _ leaderboard.Cache = (*GuardedCache)(nil)

// GetBoard implements leaderboard.Cache.
func (g *GuardedCache) GetBoard(ctx context.Context, period leaderboard.Period, limit int) (board *leaderboard.Board, ok bool, err error) {
	err = g.breaker.Execute(ctx, func(ctx context.Context) error {
		var getErr error
		board, ok, getErr = g.inner.GetBoard(ctx, period, limit)
		return getErr
	})
	if err != nil {
		return nil, false, err
	}
	return board, ok, nil
}

// SetBoard implements leaderboard.Cache.
func (g *GuardedCache) SetBoard(ctx context.Context, board *leaderboard.Board, ttl time.Duration) error {
	return g.breaker.Execute(ctx, func(ctx context.Context) error {
		return g.inner.SetBoard(ctx, board, ttl)
	})
}

// InvalidateBoards implements leaderboard.Cache.
func (g *GuardedCache) InvalidateBoards(ctx context.Context) error {
	return g.breaker.Execute(ctx, g.inner.InvalidateBoards)
}
