package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/learnquest/gamification-core/internal/domain/leaderboard"
)

// Key patterns for leaderboard cache.
const (
	keyLeaderboardGlobal = "leaderboard:global:"

	// LeaderboardPattern matches every cached board.
	LeaderboardPattern = keyLeaderboardGlobal + "*"
)

// BoardKey returns the key of the cached top-N board of a period.
func BoardKey(period leaderboard.Period, limit int) string {
	return fmt.Sprintf("%s%s:%d", keyLeaderboardGlobal, period, limit)
}

// LeaderboardCache stores rendered boards as JSON strings.
type LeaderboardCache struct {
	cache *Cache
}

// NewLeaderboardCache creates a leaderboard cache on top of cache.
func NewLeaderboardCache(cache *Cache) *LeaderboardCache {
	return &LeaderboardCache{cache: cache}
}

var _ leaderboard.Cache = (*LeaderboardCache)(nil)

// GetBoard returns the cached board of period and limit.
func (lc *LeaderboardCache) GetBoard(ctx context.Context, period leaderboard.Period, limit int) (*leaderboard.Board, bool, error) {
	var board leaderboard.Board
	err := lc.cache.Get(ctx, BoardKey(period, limit), &board)
	switch {
	case errors.Is(err, ErrCacheMiss):
		return nil, false, nil
	case err != nil:
		return nil, false, fmt.Errorf("failed to read cached board: %w", err)
	}
	return &board, true, nil
}

// SetBoard caches board for ttl.
func (lc *LeaderboardCache) SetBoard(ctx context.Context, board *leaderboard.Board, ttl time.Duration) error {
	if err := lc.cache.Set(ctx, BoardKey(board.Period, board.Limit), board, ttl); err != nil {
		return fmt.Errorf("failed to cache board: %w", err)
	}
	return nil
}

// InvalidateBoards drops every cached board of every period and limit.
func (lc *LeaderboardCache) InvalidateBoards(ctx context.Context) error {
	if err := lc.cache.DeleteByPattern(ctx, LeaderboardPattern); err != nil {
		return fmt.Errorf("failed to invalidate boards: %w", err)
	}
	return nil
}
