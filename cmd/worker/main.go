// Package main is the gamification core worker.
//
// The worker owns the background side of the core:
//   - applies schema migrations on startup
//   - reacts to progress events (badge refresh, leaderboard invalidation)
//   - keeps the all-time leaderboard cache warm
//   - serves /healthz, /readyz and /metrics for operators
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/learnquest/gamification-core/config"
	"github.com/learnquest/gamification-core/internal/app"
	"github.com/learnquest/gamification-core/internal/domain/leaderboard"
	"github.com/learnquest/gamification-core/internal/domain/shared"
	"github.com/learnquest/gamification-core/internal/infrastructure/messaging"
	"github.com/learnquest/gamification-core/internal/infrastructure/metrics"
	"github.com/learnquest/gamification-core/internal/infrastructure/persistence/postgres"
	"github.com/learnquest/gamification-core/internal/infrastructure/persistence/redis"
	"github.com/learnquest/gamification-core/internal/infrastructure/scheduler"
	"github.com/learnquest/gamification-core/internal/infrastructure/scheduler/jobs"
	httpserver "github.com/learnquest/gamification-core/internal/interface/http"
	"github.com/learnquest/gamification-core/pkg/circuitbreaker"
	"github.com/learnquest/gamification-core/pkg/logger"
	"github.com/learnquest/gamification-core/pkg/retry"
	"github.com/learnquest/gamification-core/pkg/tracing"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log := setupLogger(cfg)
	defer func() { _ = log.Sync() }()

	log.Info("starting gamification worker",
		logger.String("env", string(cfg.App.Environment)),
		logger.String("version", cfg.App.Version),
		logger.String("timezone", cfg.App.Timezone),
	)

	// ══════════════════════════════════════════════════════════════════════
	// OBSERVABILITY
	// ══════════════════════════════════════════════════════════════════════

	if cfg.Observability.TracingEnabled {
		shutdownTracer, err := tracing.InitTracer(cfg.App.Name, cfg.App.Version, cfg.Observability.TracingEndpoint)
		if err != nil {
			log.Warn("tracing disabled", logger.Err(err))
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdownTracer(ctx); err != nil {
					log.Warn("failed to flush traces", logger.Err(err))
				}
			}()
		}
	}

	recorder := metrics.New()

	// ══════════════════════════════════════════════════════════════════════
	// DATABASE
	// ══════════════════════════════════════════════════════════════════════

	log.Info("connecting to database...")
	dbCfg := postgres.DefaultConfig()
	dbCfg.URL = cfg.Database.URL
	if cfg.Database.MaxOpenConns > 0 {
		dbCfg.MaxConns = int32(cfg.Database.MaxOpenConns)
	}
	if cfg.Database.MaxIdleConns > 0 {
		dbCfg.MinConns = int32(cfg.Database.MaxIdleConns)
	}
	if cfg.Database.ConnMaxLifetime > 0 {
		dbCfg.MaxConnLifetime = cfg.Database.ConnMaxLifetime
	}
	if cfg.Database.ConnMaxIdleTime > 0 {
		dbCfg.MaxConnIdleTime = cfg.Database.ConnMaxIdleTime
	}

	db, err := postgres.Connect(ctx, dbCfg,
		retry.WithMaxAttempts(5),
		retry.WithInitialDelay(time.Second),
		retry.WithMaxDelay(10*time.Second),
		retry.WithOnRetry(func(attempt int, err error, delay time.Duration) {
			log.Warn("database not ready, retrying",
				logger.Int("attempt", attempt),
				logger.Duration("delay", delay),
				logger.Err(err),
			)
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		log.Info("closing database connection...")
		db.Close()
	}()

	if cfg.Database.AutoMigrate {
		log.Info("applying database migrations...")
		if err := postgres.NewMigrator(db).Migrate(ctx); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		log.Info("database schema is up to date")
	}

	profiles := postgres.NewProfileRepository(db)
	scores := postgres.NewScoreRepository(db)
	boards := postgres.NewLeaderboardRepository(db)

	// ══════════════════════════════════════════════════════════════════════
	// CACHE AND EVENT BUS
	// ══════════════════════════════════════════════════════════════════════

	checks := map[string]httpserver.CheckFunc{"postgres": db.Ping}

	var (
		boardCache leaderboard.Cache
		bus        shared.EventBus
		closeBus   func() error
	)

	localBus := messaging.InMemoryEventBusConfig{AsyncMode: true, WorkerPoolSize: 10, Logger: log}

	if !cfg.Redis.Disabled {
		cache, err := redis.NewCache(redisConfig(cfg.Redis))
		if err != nil {
			log.Warn("redis unavailable, running without cache", logger.Err(err))
		} else {
			defer func() { _ = cache.Close() }()
			checks["redis"] = cache.Ping

			breaker := circuitbreaker.CacheBreaker("leaderboard-cache", func(name string, from, to circuitbreaker.State) {
				log.Warn("circuit breaker state changed",
					logger.String("breaker", name),
					logger.String("from", from.String()),
					logger.String("to", to.String()),
				)
			})
			boardCache = redis.NewGuardedCache(redis.NewLeaderboardCache(cache), breaker)

			redisBus, err := messaging.NewRedisEventBus(messaging.RedisEventBusConfig{
				Client: cache.Client(),
				Local:  localBus,
				Logger: log,
			})
			if err != nil {
				return fmt.Errorf("failed to start event bus: %w", err)
			}
			bus, closeBus = redisBus, redisBus.Close
		}
	}
	if bus == nil {
		memBus := messaging.NewInMemoryEventBus(localBus)
		bus, closeBus = memBus, memBus.Close
	}
	defer func() {
		log.Info("closing event bus...")
		_ = closeBus()
	}()

	// ══════════════════════════════════════════════════════════════════════
	// CORE
	// ══════════════════════════════════════════════════════════════════════

	if _, err := app.New(app.Backends{
		Tx:          db,
		Profiles:    profiles,
		Scores:      scores,
		Leaderboard: boards,
		Cache:       boardCache,
		Bus:         bus,
	}, app.Options{
		Gamification: cfg.Gamification,
		Location:     cfg.App.Location,
		Recorder:     recorder,
		Logger:       log,
	}); err != nil {
		return fmt.Errorf("failed to build core: %w", err)
	}

	// ══════════════════════════════════════════════════════════════════════
	// SCHEDULER
	// ══════════════════════════════════════════════════════════════════════

	schedCfg := scheduler.DefaultConfig()
	schedCfg.Logger = log
	schedCfg.RunOnStart = true
	if cfg.Scheduler.JobTimeout > 0 {
		schedCfg.JobTimeout = cfg.Scheduler.JobTimeout
	}
	sched := scheduler.New(schedCfg)

	if cfg.Scheduler.Enabled && boardCache != nil {
		warmCfg := jobs.DefaultWarmLeaderboardConfig()
		warmCfg.CacheTTL = cfg.Gamification.LeaderboardCacheTTL
		job := jobs.NewWarmLeaderboardJob(boards, boardCache, log, warmCfg)
		if err := sched.Register(job, scheduler.Every(cfg.Scheduler.WarmLeaderboardInterval)); err != nil {
			return fmt.Errorf("failed to register %s: %w", job.Name(), err)
		}
		if err := sched.Start(ctx); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
		defer func() { _ = sched.Stop() }()
	}

	// ══════════════════════════════════════════════════════════════════════
	// OPS SERVER
	// ══════════════════════════════════════════════════════════════════════

	srvCfg := httpserver.DefaultConfig()
	if cfg.App.HTTPAddr != "" {
		srvCfg.Addr = cfg.App.HTTPAddr
	}
	deps := httpserver.Dependencies{Checks: checks, Jobs: sched, Logger: log}
	if cfg.Observability.MetricsEnabled {
		deps.Metrics = recorder.Handler()
	}
	srv := httpserver.NewServer(srvCfg, deps)
	srvErr := srv.StartAsync()

	log.Info("gamification worker is running", logger.String("addr", srvCfg.Addr))

	select {
	case <-ctx.Done():
		log.Info("received shutdown signal")
	case err := <-srvErr:
		if err != nil {
			log.Error("ops server failed", logger.Err(err))
		}
	}

	shutdownTimeout := cfg.App.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 30 * time.Second
	}
	log.Info("starting graceful shutdown...", logger.Duration("timeout", shutdownTimeout))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		log.Warn("ops server shutdown failed", logger.Err(err))
	}

	log.Info("shutdown completed successfully")
	return nil
}

func setupLogger(cfg *config.Config) *logger.Logger {
	opts := logger.DefaultOptions()
	opts.Level = logger.ParseLevel(cfg.Observability.LogLevel)
	if cfg.App.Debug {
		opts.Level = logger.LevelDebug
	}
	if cfg.Observability.LogFormat != "" {
		opts.Format = cfg.Observability.LogFormat
	}
	if cfg.Observability.LogFile != "" {
		opts.File = &logger.FileOptions{
			Path:       cfg.Observability.LogFile,
			MaxSizeMB:  100,
			MaxBackups: 5,
			MaxAgeDays: 14,
			Compress:   true,
		}
	}
	return logger.New(opts).With(logger.String("service", cfg.App.Name))
}

func redisConfig(c config.RedisConfig) redis.Config {
	rc := redis.DefaultConfig()
	if c.Host != "" {
		rc.Host = c.Host
	}
	if c.Port > 0 {
		rc.Port = c.Port
	}
	rc.Password = c.Password
	rc.DB = c.DB
	if c.PoolSize > 0 {
		rc.PoolSize = c.PoolSize
	}
	if c.MinIdleConns > 0 {
		rc.MinIdleConns = c.MinIdleConns
	}
	if c.DialTimeout > 0 {
		rc.DialTimeout = c.DialTimeout
	}
	if c.ReadTimeout > 0 {
		rc.ReadTimeout = c.ReadTimeout
	}
	if c.WriteTimeout > 0 {
		rc.WriteTimeout = c.WriteTimeout
	}
	return rc
}
