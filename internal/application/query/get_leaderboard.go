// Package query contains read operations following CQRS pattern.
// Queries never modify state - they only read and return data.
// Each query is a self-contained use case with its own request/response types.
package query

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/learnquest/gamification-core/internal/application/observe"
	"github.com/learnquest/gamification-core/internal/domain/leaderboard"
	"github.com/learnquest/gamification-core/internal/domain/shared"
	"github.com/learnquest/gamification-core/pkg/logger"
	"github.com/learnquest/gamification-core/pkg/tracing"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET LEADERBOARD QUERY
// Returns the top-N board of a period. The board itself is cached for a short
// time; the viewer's own rank is always read fresh.
// ══════════════════════════════════════════════════════════════════════════════

// GetLeaderboardQuery contains the request parameters.
type GetLeaderboardQuery struct {
	// Limit is 10..100; 0 means 100.
	Limit int

	// Period is all_time, monthly or weekly; empty means all_time.
	Period string

	// CurrentUserID marks the viewer's row and resolves their rank. Optional.
	CurrentUserID string
}

// GetLeaderboardResult is the board as seen by one viewer.
type GetLeaderboardResult struct {
	Entries    []leaderboard.Entry `json:"entries"`
	TotalUsers int                 `json:"total_users"`

	// CurrentUserRank is nil when there is no viewer or the viewer is unranked.
	CurrentUserRank *int `json:"current_user_rank"`

	Period      leaderboard.Period `json:"period"`
	LastUpdated time.Time          `json:"last_updated"`
}

// GetLeaderboardHandler handles GetLeaderboardQuery.
type GetLeaderboardHandler struct {
	repo     leaderboard.Repository
	cache    leaderboard.Cache
	cacheTTL time.Duration
	recorder observe.Recorder
	log      *logger.Logger
	now      func() time.Time
}

// GetLeaderboardHandlerConfig contains configuration for the handler.
type GetLeaderboardHandlerConfig struct {
	CacheTTL time.Duration
	Now      func() time.Time
}

// DefaultGetLeaderboardHandlerConfig returns default configuration.
func DefaultGetLeaderboardHandlerConfig() GetLeaderboardHandlerConfig {
	return GetLeaderboardHandlerConfig{CacheTTL: 60 * time.Second}
}

// NewGetLeaderboardHandler creates a new GetLeaderboardHandler. cache may be
// nil to always read the repository.
func NewGetLeaderboardHandler(
	repo leaderboard.Repository,
	cache leaderboard.Cache,
	recorder observe.Recorder,
	log *logger.Logger,
	config GetLeaderboardHandlerConfig,
) *GetLeaderboardHandler {
	if config.CacheTTL <= 0 {
		config.CacheTTL = DefaultGetLeaderboardHandlerConfig().CacheTTL
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	if log == nil {
		log = logger.Nop()
	}

	return &GetLeaderboardHandler{
		repo:     repo,
		cache:    cache,
		cacheTTL: config.CacheTTL,
		recorder: observe.OrNop(recorder),
		log:      log.With(logger.Component("get_leaderboard")),
		now:      config.Now,
	}
}

// Handle executes the query.
func (h *GetLeaderboardHandler) Handle(ctx context.Context, q GetLeaderboardQuery) (_ *GetLeaderboardResult, err error) {
	ctx, span := tracing.Start(ctx, "query.GetLeaderboard",
		attribute.String("period", q.Period),
		attribute.Int("limit", q.Limit),
	)
	start := time.Now()
	defer func() {
		h.recorder.ObserveOperation("get_leaderboard", time.Since(start), err)
		tracing.End(span, err)
	}()

	period, err := leaderboard.ParsePeriod(q.Period)
	if err != nil {
		return nil, fmt.Errorf("get_leaderboard: %w", err)
	}
	limit, err := leaderboard.NormalizeLimit(q.Limit)
	if err != nil {
		return nil, fmt.Errorf("get_leaderboard: %w", err)
	}

	now := h.now().UTC()
	scope := leaderboard.NewScope(period, now)

	board, err := h.board(ctx, scope, limit, now)
	if err != nil {
		return nil, err
	}

	result := &GetLeaderboardResult{
		Entries:     board.ForViewer(q.CurrentUserID),
		TotalUsers:  board.TotalUsers,
		Period:      board.Period,
		LastUpdated: board.LastUpdated,
	}

	if q.CurrentUserID != "" {
		entry, err := h.repo.Position(ctx, scope, q.CurrentUserID)
		switch {
		case err == nil:
			rank := entry.Rank
			result.CurrentUserRank = &rank
		case errors.Is(err, shared.ErrNotRanked):
		default:
			return nil, fmt.Errorf("get_leaderboard: failed to get user position: %w", err)
		}
	}

	return result, nil
}

// board returns the cached board or builds and caches a fresh one. Cache
// failures only cost a database read.
func (h *GetLeaderboardHandler) board(ctx context.Context, scope leaderboard.Scope, limit int, now time.Time) (*leaderboard.Board, error) {
	if h.cache != nil {
		board, ok, err := h.cache.GetBoard(ctx, scope.Period, limit)
		switch {
		case err != nil:
			h.log.Warn("leaderboard cache read failed", logger.String("period", scope.Period.String()), logger.Err(err))
		case ok:
			h.recorder.LeaderboardCache(true)
			return board, nil
		default:
			h.recorder.LeaderboardCache(false)
		}
	}

	board, err := BuildBoard(ctx, h.repo, scope, limit, now)
	if err != nil {
		return nil, err
	}

	if h.cache != nil {
		if err := h.cache.SetBoard(ctx, board, h.cacheTTL); err != nil {
			h.log.Warn("leaderboard cache write failed", logger.String("period", scope.Period.String()), logger.Err(err))
		}
	}

	return board, nil
}

// BuildBoard reads a fresh top-N board from the repository.
func BuildBoard(ctx context.Context, repo leaderboard.Repository, scope leaderboard.Scope, limit int, now time.Time) (*leaderboard.Board, error) {
	entries, err := repo.Top(ctx, scope, limit)
	if err != nil {
		return nil, fmt.Errorf("get_leaderboard: failed to get top entries: %w", err)
	}

	total, err := repo.Count(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("get_leaderboard: failed to count users: %w", err)
	}

	return &leaderboard.Board{
		Period:      scope.Period,
		Limit:       limit,
		Entries:     entries,
		TotalUsers:  total,
		LastUpdated: now,
	}, nil
}
