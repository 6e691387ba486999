package eventhandler

import (
	"context"
	"time"

	"github.com/learnquest/gamification-core/internal/domain/shared"
	"github.com/learnquest/gamification-core/pkg/logger"
)

// BadgeRefresher re-evaluates one user's badges.
type BadgeRefresher interface {
	Refresh(ctx context.Context, userID string) error
}

// BadgeRefreshHandler runs a badge pass after XP or streak changes, so the
// level and streak badges unlock without waiting for the caller.
type BadgeRefreshHandler struct {
	refresher BadgeRefresher
	log       *logger.Logger
	timeout   time.Duration
}

// NewBadgeRefreshHandler creates the handler.
func NewBadgeRefreshHandler(refresher BadgeRefresher, log *logger.Logger, timeout time.Duration) *BadgeRefreshHandler {
	if log == nil {
		log = logger.Nop()
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &BadgeRefreshHandler{
		refresher: refresher,
		log:       log.With(logger.Component("badge_refresh")),
		timeout:   timeout,
	}
}

// EventTypes lists the events that can make a badge predicate true.
func (h *BadgeRefreshHandler) EventTypes() []shared.EventType {
	return []shared.EventType{
		shared.EventXPAwarded,
		shared.EventStreakUpdated,
	}
}

// Handle implements shared.EventHandler.
func (h *BadgeRefreshHandler) Handle(event shared.Event) error {
	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	if err := h.refresher.Refresh(ctx, event.AggregateID()); err != nil {
		h.log.Warn("badge refresh failed",
			logger.String("event_type", string(event.EventType())),
			logger.UserID(event.AggregateID()),
			logger.Err(err),
		)
		return err
	}
	return nil
}

// Subscriber is a handler bound to a fixed set of event types.
type Subscriber interface {
	EventTypes() []shared.EventType
	Handle(event shared.Event) error
}

// Register subscribes every handler to its event types.
func Register(bus shared.EventSubscriber, handlers ...Subscriber) error {
	for _, h := range handlers {
		for _, t := range h.EventTypes() {
			if err := bus.Subscribe(t, h.Handle); err != nil {
				return err
			}
		}
	}
	return nil
}
