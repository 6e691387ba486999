// Package app assembles the gamification core from its storage backends.
// Both the worker binary and the integration tests build the same Core; only
// the Backends differ.
package app

import (
	"errors"
	"time"

	"github.com/learnquest/gamification-core/config"
	"github.com/learnquest/gamification-core/internal/application/command"
	"github.com/learnquest/gamification-core/internal/application/eventhandler"
	"github.com/learnquest/gamification-core/internal/application/observe"
	"github.com/learnquest/gamification-core/internal/application/query"
	"github.com/learnquest/gamification-core/internal/domain/badge"
	"github.com/learnquest/gamification-core/internal/domain/leaderboard"
	"github.com/learnquest/gamification-core/internal/domain/progress"
	"github.com/learnquest/gamification-core/internal/domain/scoring"
	"github.com/learnquest/gamification-core/internal/domain/shared"
	"github.com/learnquest/gamification-core/pkg/logger"
)

// Backends are the storage and messaging implementations the core runs on.
type Backends struct {
	Tx          shared.Transactor
	Profiles    progress.Repository
	Scores      scoring.Repository
	Leaderboard leaderboard.Repository

	// Cache is optional. Without it every board is read from Leaderboard.
	Cache leaderboard.Cache

	Bus shared.EventBus
}

func (b Backends) validate() error {
	switch {
	case b.Tx == nil:
		return errors.New("app: transactor is required")
	case b.Profiles == nil:
		return errors.New("app: profile repository is required")
	case b.Scores == nil:
		return errors.New("app: score repository is required")
	case b.Leaderboard == nil:
		return errors.New("app: leaderboard repository is required")
	case b.Bus == nil:
		return errors.New("app: event bus is required")
	}
	return nil
}

// Options tune the core. Zero values fall back to package defaults.
type Options struct {
	Gamification config.GamificationConfig
	Location     *time.Location
	Catalog      badge.Catalog
	Recorder     observe.Recorder
	Logger       *logger.Logger

	// Now replaces the wall clock for every handler.
	Now func() time.Time

	// HandlerTimeout bounds one event reaction.
	HandlerTimeout time.Duration
}

// Core exposes every operation of the gamification core.
type Core struct {
	RegisterProfile  *command.RegisterProfileHandler
	RecordActivity   *command.RecordActivityHandler
	RecordQuizResult *command.RecordQuizResultHandler
	EvaluateBadges   *command.EvaluateBadgesHandler

	GetProgress    *query.GetProgressHandler
	GetLeaderboard *query.GetLeaderboardHandler
	GetUserRank    *query.GetUserRankHandler

	Catalog badge.Catalog
}

// New builds the handlers and subscribes the event reactions to the bus.
func New(b Backends, opts Options) (*Core, error) {
	if err := b.validate(); err != nil {
		return nil, err
	}

	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	log = log.With(logger.Component("core"))

	rec := observe.OrNop(opts.Recorder)
	catalog := opts.Catalog
	if len(catalog) == 0 {
		catalog = badge.DefaultCatalog()
	}
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}

	txCfg := txConfig(opts.Gamification)

	activityCfg := command.DefaultRecordActivityHandlerConfig()
	activityCfg.Tx = txCfg
	activityCfg.Location = loc
	activityCfg.Now = opts.Now

	quizCfg := command.DefaultRecordQuizResultHandlerConfig()
	quizCfg.Tx = txCfg
	if set := opts.Gamification.QuizCountsAsActivity; set != nil {
		quizCfg.CountsAsActivity = *set
	}
	quizCfg.Location = loc
	quizCfg.Now = opts.Now

	boardCfg := query.DefaultGetLeaderboardHandlerConfig()
	if opts.Gamification.LeaderboardCacheTTL > 0 {
		boardCfg.CacheTTL = opts.Gamification.LeaderboardCacheTTL
	}
	boardCfg.Now = opts.Now

	window := opts.Gamification.NearbyWindow
	if window <= 0 {
		window = query.DefaultNearbyWindow
	}

	evaluator := badge.NewEvaluator(catalog, opts.Now)
	evaluate := command.NewEvaluateBadgesHandler(
		b.Tx, b.Profiles, evaluator, command.NewScoreStatsProvider(b.Scores), b.Bus, rec, log, txCfg,
	)

	core := &Core{
		RegisterProfile:  command.NewRegisterProfileHandler(b.Profiles, b.Bus, rec, log),
		RecordActivity:   command.NewRecordActivityHandler(b.Tx, b.Profiles, b.Bus, rec, log, activityCfg),
		RecordQuizResult: command.NewRecordQuizResultHandler(b.Tx, b.Profiles, b.Scores, b.Bus, rec, log, quizCfg),
		EvaluateBadges:   evaluate,
		GetProgress:      query.NewGetProgressHandler(b.Profiles, catalog, evaluate, rec, log),
		GetLeaderboard:   query.NewGetLeaderboardHandler(b.Leaderboard, b.Cache, rec, log, boardCfg),
		GetUserRank:      query.NewGetUserRankHandler(b.Leaderboard, b.Profiles, rec, window).WithClock(opts.Now),
		Catalog:          catalog,
	}

	subscribers := []eventhandler.Subscriber{
		eventhandler.NewBadgeRefreshHandler(evaluate, log, opts.HandlerTimeout),
	}
	if b.Cache != nil {
		subscribers = append(subscribers, eventhandler.NewLeaderboardInvalidator(b.Cache, log, opts.HandlerTimeout))
	}
	if err := eventhandler.Register(b.Bus, subscribers...); err != nil {
		return nil, err
	}

	log.Info("gamification core ready",
		logger.Int("badges", len(catalog)),
		logger.Bool("cache", b.Cache != nil),
		logger.Bool("quiz_counts_as_activity", quizCfg.CountsAsActivity),
	)
	return core, nil
}

func txConfig(g config.GamificationConfig) command.TxConfig {
	tx := command.DefaultTxConfig()
	if g.ConflictRetries > 0 {
		tx.MaxAttempts = g.ConflictRetries
	}
	if g.RetryInitialDelay > 0 {
		tx.InitialDelay = g.RetryInitialDelay
	}
	if g.RetryMaxDelay > 0 {
		tx.MaxDelay = g.RetryMaxDelay
	}
	return tx
}
