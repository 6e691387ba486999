// Package jobs contains the scheduled jobs of the gamification worker.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/learnquest/gamification-core/internal/application/query"
	"github.com/learnquest/gamification-core/internal/domain/leaderboard"
	"github.com/learnquest/gamification-core/pkg/logger"
)

// WarmLeaderboardConfig configures WarmLeaderboardJob.
type WarmLeaderboardConfig struct {
	// Periods to warm. Default: all_time only.
	Periods []leaderboard.Period

	// Limits to warm for each period. Default: the default limit.
	Limits []int

	// CacheTTL is the TTL of each warmed board.
	CacheTTL time.Duration

	Now func() time.Time
}

// DefaultWarmLeaderboardConfig returns the defaults.
func DefaultWarmLeaderboardConfig() WarmLeaderboardConfig {
	return WarmLeaderboardConfig{
		Periods:  []leaderboard.Period{leaderboard.PeriodAllTime},
		Limits:   []int{leaderboard.DefaultLimit},
		CacheTTL: query.DefaultGetLeaderboardHandlerConfig().CacheTTL,
		Now:      time.Now,
	}
}

// WarmLeaderboardJob rebuilds the most requested boards and stores them in
// the cache so that reads after an invalidation rarely hit the database.
type WarmLeaderboardJob struct {
	repo   leaderboard.Repository
	cache  leaderboard.Cache
	log    *logger.Logger
	config WarmLeaderboardConfig
}

// NewWarmLeaderboardJob creates the job.
func NewWarmLeaderboardJob(repo leaderboard.Repository, cache leaderboard.Cache, log *logger.Logger, config WarmLeaderboardConfig) *WarmLeaderboardJob {
	def := DefaultWarmLeaderboardConfig()
	if len(config.Periods) == 0 {
		config.Periods = def.Periods
	}
	if len(config.Limits) == 0 {
		config.Limits = def.Limits
	}
	if config.CacheTTL <= 0 {
		config.CacheTTL = def.CacheTTL
	}
	if config.Now == nil {
		config.Now = def.Now
	}
	if log == nil {
		log = logger.Nop()
	}

	return &WarmLeaderboardJob{
		repo:   repo,
		cache:  cache,
		log:    log.With(logger.Component("warm_leaderboard")),
		config: config,
	}
}

// Name implements scheduler.Job.
func (j *WarmLeaderboardJob) Name() string { return "warm_leaderboard" }

// Description implements scheduler.Job.
func (j *WarmLeaderboardJob) Description() string {
	return "Rebuilds top-N leaderboard boards into the cache"
}

// Run implements scheduler.Job. It stops at the first failure.
func (j *WarmLeaderboardJob) Run(ctx context.Context) error {
	now := j.config.Now().UTC()
	warmed := 0

	for _, period := range j.config.Periods {
		scope := leaderboard.NewScope(period, now)
		for _, limit := range j.config.Limits {
			limit, err := leaderboard.NormalizeLimit(limit)
			if err != nil {
				return fmt.Errorf("warm_leaderboard: %w", err)
			}

			board, err := query.BuildBoard(ctx, j.repo, scope, limit, now)
			if err != nil {
				return fmt.Errorf("warm_leaderboard: %s/%d: %w", period, limit, err)
			}
			if err := j.cache.SetBoard(ctx, board, j.config.CacheTTL); err != nil {
				return fmt.Errorf("warm_leaderboard: cache %s/%d: %w", period, limit, err)
			}
			warmed++
		}
	}

	j.log.Debug("leaderboard boards warmed", logger.Int("boards", warmed))
	return nil
}
