// Package eventhandler contains reactions to domain events.
package eventhandler

import (
	"context"
	"time"

	"github.com/learnquest/gamification-core/internal/domain/leaderboard"
	"github.com/learnquest/gamification-core/internal/domain/shared"
	"github.com/learnquest/gamification-core/pkg/logger"
)

// ═══════════════════════════════════════════════════════════════════════════
// LEADERBOARD INVALIDATION
// Any change to XP, membership or badge counts makes the cached boards stale.
// ═══════════════════════════════════════════════════════════════════════════

// LeaderboardInvalidator drops cached boards when standings change.
type LeaderboardInvalidator struct {
	cache   leaderboard.Cache
	log     *logger.Logger
	timeout time.Duration
}

// NewLeaderboardInvalidator creates the handler.
func NewLeaderboardInvalidator(cache leaderboard.Cache, log *logger.Logger, timeout time.Duration) *LeaderboardInvalidator {
	if log == nil {
		log = logger.Nop()
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &LeaderboardInvalidator{
		cache:   cache,
		log:     log.With(logger.Component("leaderboard_invalidator")),
		timeout: timeout,
	}
}

// EventTypes lists the events that change standings.
func (h *LeaderboardInvalidator) EventTypes() []shared.EventType {
	return []shared.EventType{
		shared.EventProfileRegistered,
		shared.EventXPAwarded,
		shared.EventBadgeUnlocked,
	}
}

// Handle implements shared.EventHandler.
func (h *LeaderboardInvalidator) Handle(event shared.Event) error {
	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	if err := h.cache.InvalidateBoards(ctx); err != nil {
		h.log.Warn("failed to invalidate leaderboard cache",
			logger.String("event_type", string(event.EventType())),
			logger.UserID(event.AggregateID()),
			logger.Err(err),
		)
		return err
	}
	return nil
}
