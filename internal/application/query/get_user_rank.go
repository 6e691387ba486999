package query

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/learnquest/gamification-core/internal/application/observe"
	"github.com/learnquest/gamification-core/internal/domain/leaderboard"
	"github.com/learnquest/gamification-core/internal/domain/progress"
	"github.com/learnquest/gamification-core/internal/domain/shared"
	"github.com/learnquest/gamification-core/pkg/tracing"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET USER RANK QUERY
// A user's position, percentile and the rows around them.
// ══════════════════════════════════════════════════════════════════════════════

// DefaultNearbyWindow is how many ranks on each side are returned.
const DefaultNearbyWindow = 5

// GetUserRankQuery contains the request parameters.
type GetUserRankQuery struct {
	UserID string

	// Period is all_time, monthly or weekly; empty means all_time.
	Period string
}

// GetUserRankResult is the user's standing. In weekly and monthly periods a
// user without XP in the window has Rank 0 and no nearby entries.
type GetUserRankResult struct {
	UserID        string              `json:"user_id"`
	Period        leaderboard.Period  `json:"period"`
	Rank          int                 `json:"rank"`
	Percentile    float64             `json:"percentile"`
	XP            int64               `json:"xp"`
	Level         int                 `json:"level"`
	TotalUsers    int                 `json:"total_users"`
	NearbyEntries []leaderboard.Entry `json:"nearby_entries"`
}

// GetUserRankHandler handles GetUserRankQuery.
type GetUserRankHandler struct {
	repo     leaderboard.Repository
	profiles progress.Repository
	recorder observe.Recorder
	window   int
	now      func() time.Time
}

// NewGetUserRankHandler creates a new GetUserRankHandler. A window below 0
// falls back to DefaultNearbyWindow.
func NewGetUserRankHandler(
	repo leaderboard.Repository,
	profiles progress.Repository,
	recorder observe.Recorder,
	window int,
) *GetUserRankHandler {
	if window < 0 {
		window = DefaultNearbyWindow
	}
	return &GetUserRankHandler{
		repo:     repo,
		profiles: profiles,
		recorder: observe.OrNop(recorder),
		window:   window,
		now:      time.Now,
	}
}

// WithClock replaces the wall clock used to place weekly and monthly windows.
func (h *GetUserRankHandler) WithClock(now func() time.Time) *GetUserRankHandler {
	if now != nil {
		h.now = now
	}
	return h
}

// Handle executes the query.
func (h *GetUserRankHandler) Handle(ctx context.Context, q GetUserRankQuery) (_ *GetUserRankResult, err error) {
	ctx, span := tracing.Start(ctx, "query.GetUserRank")
	start := time.Now()
	defer func() {
		h.recorder.ObserveOperation("get_user_rank", time.Since(start), err)
		tracing.End(span, err)
	}()

	if err := shared.ValidateUserID(q.UserID); err != nil {
		return nil, fmt.Errorf("get_user_rank: %w", err)
	}
	period, err := leaderboard.ParsePeriod(q.Period)
	if err != nil {
		return nil, fmt.Errorf("get_user_rank: %w", err)
	}

	scope := leaderboard.NewScope(period, h.now().UTC())

	total, err := h.repo.Count(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("get_user_rank: failed to count users: %w", err)
	}

	result := &GetUserRankResult{
		UserID:        q.UserID,
		Period:        period,
		TotalUsers:    total,
		NearbyEntries: []leaderboard.Entry{},
	}

	entry, err := h.repo.Position(ctx, scope, q.UserID)
	switch {
	case err == nil:
	case errors.Is(err, shared.ErrNotRanked):
		if period.IsAllTime() {
			return nil, fmt.Errorf("get_user_rank: %w", shared.ErrProfileNotFound)
		}
		profile, err := h.profiles.Get(ctx, q.UserID)
		if err != nil {
			return nil, fmt.Errorf("get_user_rank: %w", err)
		}
		result.Level = profile.Level
		return result, nil
	default:
		return nil, fmt.Errorf("get_user_rank: failed to get position: %w", err)
	}

	from, to := leaderboard.WindowBounds(entry.Rank, h.window)
	nearby, err := h.repo.Range(ctx, scope, from, to)
	if err != nil {
		return nil, fmt.Errorf("get_user_rank: failed to get nearby entries: %w", err)
	}
	for i := range nearby {
		nearby[i].IsCurrentUser = nearby[i].UserID == q.UserID
	}

	result.Rank = entry.Rank
	result.Percentile = leaderboard.Percentile(entry.Rank, total)
	result.XP = entry.XP
	result.Level = entry.Level
	result.NearbyEntries = nearby
	return result, nil
}
