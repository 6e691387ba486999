package query

import (
	"context"
	"fmt"
	"time"

	"github.com/learnquest/gamification-core/internal/application/observe"
	"github.com/learnquest/gamification-core/internal/domain/badge"
	"github.com/learnquest/gamification-core/internal/domain/progress"
	"github.com/learnquest/gamification-core/internal/domain/shared"
	"github.com/learnquest/gamification-core/pkg/logger"
	"github.com/learnquest/gamification-core/pkg/tracing"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET PROGRESS QUERY
// Level progress, streak and the badge catalog with unlock state.
// ══════════════════════════════════════════════════════════════════════════════

// BadgeRefresher re-runs badge evaluation for a user before a progress read,
// so a predicate that failed earlier gets another chance.
type BadgeRefresher interface {
	Refresh(ctx context.Context, userID string) error
}

// GetProgressQuery contains the request parameters.
type GetProgressQuery struct {
	UserID string
}

// GetProgressResult is the user's progress view.
type GetProgressResult struct {
	UserID string `json:"user_id"`
	progress.LevelProgress

	Streak       int           `json:"streak"`
	BestStreak   int           `json:"best_streak"`
	LastActivity *time.Time    `json:"last_activity"`
	Badges       []badge.State `json:"badges"`
}

// GetProgressHandler handles GetProgressQuery.
type GetProgressHandler struct {
	profiles  progress.Repository
	catalog   badge.Catalog
	refresher BadgeRefresher
	recorder  observe.Recorder
	log       *logger.Logger
}

// NewGetProgressHandler creates a new GetProgressHandler. refresher may be nil.
func NewGetProgressHandler(
	profiles progress.Repository,
	catalog badge.Catalog,
	refresher BadgeRefresher,
	recorder observe.Recorder,
	log *logger.Logger,
) *GetProgressHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &GetProgressHandler{
		profiles:  profiles,
		catalog:   catalog,
		refresher: refresher,
		recorder:  observe.OrNop(recorder),
		log:       log.With(logger.Component("get_progress")),
	}
}

// Handle executes the query.
func (h *GetProgressHandler) Handle(ctx context.Context, q GetProgressQuery) (_ *GetProgressResult, err error) {
	ctx, span := tracing.Start(ctx, "query.GetProgress")
	start := time.Now()
	defer func() {
		h.recorder.ObserveOperation("get_progress", time.Since(start), err)
		tracing.End(span, err)
	}()

	if err := shared.ValidateUserID(q.UserID); err != nil {
		return nil, fmt.Errorf("get_progress: %w", err)
	}

	if h.refresher != nil {
		if err := h.refresher.Refresh(ctx, q.UserID); err != nil && !shared.IsNotFound(err) {
			h.log.Warn("badge refresh failed", logger.UserID(q.UserID), logger.Err(err))
		}
	}

	profile, err := h.profiles.Get(ctx, q.UserID)
	if err != nil {
		return nil, fmt.Errorf("get_progress: %w", err)
	}

	return &GetProgressResult{
		UserID:        profile.UserID,
		LevelProgress: progress.NewLevelProgress(profile.XP),
		Streak:        profile.Streak,
		BestStreak:    profile.BestStreak,
		LastActivity:  profile.LastActivity,
		Badges:        h.catalog.ListWithState(profile.UnlockedSet()),
	}, nil
}
