package command

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
// EVALUATE BADGES COMMAND
// Grants every catalog badge whose condition the user now meets. Unlocks are
// permanent; a predicate that fails is skipped and retried on the next run.
// ══════════════════════════════════════════════════════════════════════════════

// EvaluateBadgesCommand asks for a badge pass over one user.
type EvaluateBadgesCommand struct {
	UserID string

	// Stats is the caller's statistics snapshot. When nil the handler's
	// StatsProvider is asked instead. Level and Streak left at zero are taken
	// from the stored profile.
	Stats *badge.Snapshot
}

// Validate validates the command.
func (c EvaluateBadgesCommand) Validate() error {
	return shared.ValidateUserID(c.UserID)
}

// EvaluateBadgesResult lists what this pass changed.
type EvaluateBadgesResult struct {
	UserID string

	// Unlocked holds only badges granted by this pass.
	Unlocked []badge.State

	// Failed holds ids of badges whose predicate could not be evaluated.
	Failed []string
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// EvaluateBadgesHandler handles the EvaluateBadgesCommand.
type EvaluateBadgesHandler struct {
	profiles  progress.Repository
	evaluator *badge.Evaluator
	stats     badge.StatsProvider
	publisher shared.EventPublisher
	recorder  observe.Recorder
	log       *logger.Logger
	tx        txRunner
}

// NewEvaluateBadgesHandler creates a new EvaluateBadgesHandler. stats may be
// nil, in which case commands without a snapshot only see level and streak.
func NewEvaluateBadgesHandler(
	transactor shared.Transactor,
	profiles progress.Repository,
	evaluator *badge.Evaluator,
	stats badge.StatsProvider,
	publisher shared.EventPublisher,
	recorder observe.Recorder,
	log *logger.Logger,
	txConfig TxConfig,
) *EvaluateBadgesHandler {
	recorder = observe.OrNop(recorder)
	log = orNopLogger(log).With(logger.Component("evaluate_badges"))

	return &EvaluateBadgesHandler{
		profiles:  profiles,
		evaluator: evaluator,
		stats:     stats,
		publisher: orNopPublisher(publisher),
		recorder:  recorder,
		log:       log,
		tx:        newTxRunner(transactor, txConfig, "evaluate_badges", recorder, log),
	}
}

// Handle executes the evaluate badges command.
func (h *EvaluateBadgesHandler) Handle(ctx context.Context, cmd EvaluateBadgesCommand) (_ *EvaluateBadgesResult, err error) {
	ctx, span := tracing.Start(ctx, "command.EvaluateBadges")
	start := time.Now()
	defer func() {
		h.recorder.ObserveOperation("evaluate_badges", time.Since(start), err)
		tracing.End(span, err)
	}()

	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("evaluate_badges: validation failed: %w", err)
	}

	snapshot, err := h.snapshot(ctx, cmd)
	if err != nil {
		return nil, err
	}

	var (
		evaluation badge.Result
		added      []progress.BadgeUnlock
	)

	err = h.tx.run(ctx, func(ctx context.Context) error {
		added = nil

		profile, err := h.profiles.GetForUpdate(ctx, cmd.UserID)
		if err != nil {
			return err
		}

		stats := snapshot.WithProfileDefaults(profile.Level, profile.Streak)
		evaluation = h.evaluator.Evaluate(ctx, profile.UnlockedSet(), stats.Source())
		if !evaluation.HasNew() {
			return nil
		}

		added, err = h.profiles.AddBadges(ctx, cmd.UserID, evaluation.Unlocked)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("evaluate_badges: %w", err)
	}

	result := &EvaluateBadgesResult{UserID: cmd.UserID}
	for _, f := range evaluation.Failures {
		h.recorder.BadgeEvaluationFailed(f.BadgeID)
		h.log.Warn("badge predicate failed",
			logger.UserID(cmd.UserID),
			logger.BadgeID(f.BadgeID),
			logger.Err(f.Err),
		)
		result.Failed = append(result.Failed, f.BadgeID)
	}

	unlocked := make(map[string]time.Time, len(added))
	events := make([]shared.Event, 0, len(added))
	for _, u := range added {
		unlocked[u.BadgeID] = u.UnlockedAt
		h.recorder.BadgeUnlocked(u.BadgeID)
		h.log.Info("badge unlocked", logger.UserID(cmd.UserID), logger.BadgeID(u.BadgeID))
		events = append(events, shared.NewBadgeUnlockedEvent(cmd.UserID, u.BadgeID, u.UnlockedAt))
	}
	for _, s := range h.evaluator.Catalog().ListWithState(unlocked) {
		if s.UnlockedAt != nil {
			result.Unlocked = append(result.Unlocked, s)
		}
	}

	publishAll(h.publisher, h.log, events)
	return result, nil
}

// Refresh runs a pass with statistics from the provider only.
func (h *EvaluateBadgesHandler) Refresh(ctx context.Context, userID string) error {
	_, err := h.Handle(ctx, EvaluateBadgesCommand{UserID: userID})
	return err
}

func (h *EvaluateBadgesHandler) snapshot(ctx context.Context, cmd EvaluateBadgesCommand) (badge.Snapshot, error) {
	if cmd.Stats != nil {
		return *cmd.Stats, nil
	}
	if h.stats == nil {
		return badge.Snapshot{}, nil
	}

	snap, err := h.stats.Snapshot(ctx, cmd.UserID)
	if err != nil {
		return badge.Snapshot{}, fmt.Errorf("evaluate_badges: failed to load stats: %w", err)
	}
	return snap, nil
}
