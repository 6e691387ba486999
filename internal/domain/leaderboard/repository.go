package leaderboard

import (
	"context"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD REPOSITORY INTERFACE
// ══════════════════════════════════════════════════════════════════════════════

// Scope identifies which standings a query reads: the period and the
// instant it is evaluated at.
type Scope struct {
	Period Period
	Since  time.Time
}

// NewScope builds the scope of period as of now.
func NewScope(period Period, now time.Time) Scope {
	return Scope{Period: period, Since: period.Since(now)}
}

// Repository is a read-only view over persisted profiles in rank order.
// Implementations must use the same total order as Less.
type Repository interface {
	// Top returns the first limit entries.
	Top(ctx context.Context, scope Scope, limit int) ([]Entry, error)

	// Position returns the user's entry with its rank.
	// Returns shared.ErrNotRanked if the user has no standing in scope.
	Position(ctx context.Context, scope Scope, userID string) (Entry, error)

	// Range returns entries with from ≤ rank ≤ to.
	Range(ctx context.Context, scope Scope, from, to int) ([]Entry, error)

	// Count returns the number of ranked users.
	Count(ctx context.Context, scope Scope) (int, error)
}

// Cache stores rendered boards for a short time.
type Cache interface {
	// GetBoard returns the cached board, or ok=false on a miss.
	GetBoard(ctx context.Context, period Period, limit int) (board *Board, ok bool, err error)

	// SetBoard caches a board for ttl.
	SetBoard(ctx context.Context, board *Board, ttl time.Duration) error

	// InvalidateBoards drops every cached board.
	InvalidateBoards(ctx context.Context) error
}
