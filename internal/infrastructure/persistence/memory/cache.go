package memory

import (
	"context"
	"sync"
	"time"

	"github.com/learnquest/gamification-core/internal/domain/leaderboard"
)

type boardKey struct {
	period leaderboard.Period
	limit  int
}

type cachedBoard struct {
	board     leaderboard.Board
	expiresAt time.Time
}

// BoardCache implements leaderboard.Cache in process memory.
type BoardCache struct {
	mu     sync.RWMutex
	boards map[boardKey]cachedBoard
	now    func() time.Time
}

var _ leaderboard.Cache = (*BoardCache)(nil)

// NewBoardCache creates an empty cache. A nil clock uses time.Now.
func NewBoardCache(now func() time.Time) *BoardCache {
	if now == nil {
		now = time.Now
	}
	return &BoardCache{boards: make(map[boardKey]cachedBoard), now: now}
}

// GetBoard returns a cached board that has not expired.
func (c *BoardCache) GetBoard(_ context.Context, period leaderboard.Period, limit int) (*leaderboard.Board, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	cb, ok := c.boards[boardKey{period, limit}]
	if !ok || !c.now().Before(cb.expiresAt) {
		return nil, false, nil
	}
	b := cb.board
	b.Entries = append([]leaderboard.Entry(nil), cb.board.Entries...)
	return &b, true, nil
}

// SetBoard caches board for ttl.
func (c *BoardCache) SetBoard(_ context.Context, board *leaderboard.Board, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	b := *board
	b.Entries = append([]leaderboard.Entry(nil), board.Entries...)
	c.boards[boardKey{board.Period, board.Limit}] = cachedBoard{board: b, expiresAt: c.now().Add(ttl)}
	return nil
}

// InvalidateBoards drops everything.
func (c *BoardCache) InvalidateBoards(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.boards = make(map[boardKey]cachedBoard)
	return nil
}
