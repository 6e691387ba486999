package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/learnquest/gamification-core/internal/application/observe"
	"github.com/learnquest/gamification-core/internal/domain/progress"
	"github.com/learnquest/gamification-core/internal/domain/scoring"
	"github.com/learnquest/gamification-core/internal/domain/shared"
	"github.com/learnquest/gamification-core/pkg/logger"
	"github.com/learnquest/gamification-core/pkg/timeutil"
	"github.com/learnquest/gamification-core/pkg/tracing"
)

// ══════════════════════════════════════════════════════════════════════════════
// RECORD QUIZ RESULT COMMAND
// Awards tiered XP for a quiz submission. Only the best score per quiz
// counts: a retake pays the difference between the new tier and the tier
// already paid, and nothing when the score did not improve.
// ══════════════════════════════════════════════════════════════════════════════

// RecordQuizResultCommand contains one quiz submission.
type RecordQuizResultCommand struct {
	UserID string
	QuizID string

	// ScorePercentage must be within [0, 100].
	ScorePercentage float64

	// SubmittedAt defaults to now if zero.
	SubmittedAt time.Time
}

// Validate validates the command.
func (c RecordQuizResultCommand) Validate() error {
	if err := shared.ValidateUserID(c.UserID); err != nil {
		return err
	}
	if err := shared.ValidateQuizID(c.QuizID); err != nil {
		return err
	}
	return shared.ValidateScore(c.ScorePercentage)
}

// RecordQuizResultResult describes the effect of a submission.
type RecordQuizResultResult struct {
	UserID string
	QuizID string

	// XPAwarded is the non-negative delta added to the profile.
	XPAwarded  int64
	NewTotalXP int64

	IsImprovement       bool
	BestScorePercentage float64
	AttemptNumber       int
	Breakdown           scoring.Breakdown

	Level     int
	OldLevel  int
	LeveledUp bool

	// Streak is the streak after the submission; it is only advanced when
	// submissions count as activity.
	Streak        int
	BestStreak    int
	StreakChanged bool
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// RecordQuizResultHandler handles the RecordQuizResultCommand.
type RecordQuizResultHandler struct {
	profiles  progress.Repository
	scores    scoring.Repository
	publisher shared.EventPublisher
	recorder  observe.Recorder
	log       *logger.Logger
	tx        txRunner

	countsAsActivity bool
	location         *time.Location
	now              func() time.Time
	newID            func() string
}

// RecordQuizResultHandlerConfig contains configuration for the handler.
type RecordQuizResultHandlerConfig struct {
	Tx TxConfig

	// CountsAsActivity advances the daily streak on every submission.
	CountsAsActivity bool

	Location *time.Location
	Now      func() time.Time
}

// DefaultRecordQuizResultHandlerConfig returns default configuration.
func DefaultRecordQuizResultHandlerConfig() RecordQuizResultHandlerConfig {
	return RecordQuizResultHandlerConfig{
		Tx:               DefaultTxConfig(),
		CountsAsActivity: true,
		Location:         time.UTC,
	}
}

// NewRecordQuizResultHandler creates a new RecordQuizResultHandler.
func NewRecordQuizResultHandler(
	transactor shared.Transactor,
	profiles progress.Repository,
	scores scoring.Repository,
	publisher shared.EventPublisher,
	recorder observe.Recorder,
	log *logger.Logger,
	config RecordQuizResultHandlerConfig,
) *RecordQuizResultHandler {
	if config.Location == nil {
		config.Location = time.UTC
	}
	if config.Now == nil {
		config.Now = time.Now
	}

	recorder = observe.OrNop(recorder)
	log = orNopLogger(log).With(logger.Component("record_quiz_result"))

	return &RecordQuizResultHandler{
		profiles:         profiles,
		scores:           scores,
		publisher:        orNopPublisher(publisher),
		recorder:         recorder,
		log:              log,
		tx:               newTxRunner(transactor, config.Tx, "record_quiz_result", recorder, log),
		countsAsActivity: config.CountsAsActivity,
		location:         config.Location,
		now:              config.Now,
		newID:            uuid.NewString,
	}
}

// Handle executes the record quiz result command. The best-score update,
// the XP change and its audit row commit together or not at all; a lost
// race for the row locks replays the whole unit with fresh reads.
func (h *RecordQuizResultHandler) Handle(ctx context.Context, cmd RecordQuizResultCommand) (_ *RecordQuizResultResult, err error) {
	ctx, span := tracing.Start(ctx, "command.RecordQuizResult",
		attribute.String("user_id", cmd.UserID),
		attribute.String("quiz_id", cmd.QuizID),
	)
	start := time.Now()
	defer func() {
		h.recorder.ObserveOperation("record_quiz_result", time.Since(start), err)
		tracing.End(span, err)
	}()

	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("record_quiz_result: validation failed: %w", err)
	}

	submittedAt := cmd.SubmittedAt
	if submittedAt.IsZero() {
		submittedAt = h.now()
	}
	submittedAt = submittedAt.UTC()

	var (
		result     *RecordQuizResultResult
		transition progress.StreakTransition
	)

	err = h.tx.run(ctx, func(ctx context.Context) error {
		profile, err := h.profiles.GetForUpdate(ctx, cmd.UserID)
		if err != nil {
			return err
		}

		prev, err := h.scores.GetForUpdate(ctx, cmd.UserID, cmd.QuizID)
		switch {
		case errors.Is(err, shared.ErrBestScoreNotFound):
			prev = nil
		case err != nil:
			return err
		}

		outcome := scoring.Apply(prev, cmd.UserID, cmd.QuizID, cmd.ScorePercentage, submittedAt)
		if err := h.scores.Upsert(ctx, &outcome.Record, outcome.FirstAttempt); err != nil {
			return err
		}

		oldXP := profile.XP
		oldLevel, err := profile.AddXP(outcome.Delta)
		if err != nil {
			return err
		}

		streakChanged := false
		if h.countsAsActivity {
			transition, streakChanged = profile.RecordActivity(timeutil.CalendarDate(submittedAt.In(h.location)))
		}

		if outcome.Delta > 0 || streakChanged {
			profile.UpdatedAt = submittedAt
			if err := h.profiles.Save(ctx, profile); err != nil {
				return err
			}
		}

		if outcome.Delta > 0 {
			reason := progress.ReasonQuizImprovement
			if outcome.FirstAttempt {
				reason = progress.ReasonQuizFirstAttempt
			}
			if err := h.profiles.AppendXPEvent(ctx, progress.XPEvent{
				ID:        h.newID(),
				UserID:    cmd.UserID,
				QuizID:    cmd.QuizID,
				Delta:     outcome.Delta,
				OldXP:     oldXP,
				NewXP:     profile.XP,
				Reason:    reason,
				CreatedAt: submittedAt,
			}); err != nil {
				return err
			}
		}

		result = &RecordQuizResultResult{
			UserID:              cmd.UserID,
			QuizID:              cmd.QuizID,
			XPAwarded:           outcome.Delta,
			NewTotalXP:          profile.XP,
			IsImprovement:       outcome.IsImprovement,
			BestScorePercentage: outcome.Record.BestScorePercentage,
			AttemptNumber:       outcome.AttemptNumber,
			Breakdown:           outcome.Breakdown,
			Level:               profile.Level,
			OldLevel:            oldLevel,
			LeveledUp:           profile.Level > oldLevel,
			Streak:              profile.Streak,
			BestStreak:          profile.BestStreak,
			StreakChanged:       streakChanged,
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("record_quiz_result: %w", err)
	}

	h.afterCommit(result, transition, submittedAt)
	return result, nil
}

func (h *RecordQuizResultHandler) afterCommit(result *RecordQuizResultResult, transition progress.StreakTransition, at time.Time) {
	h.recorder.QuizAttempt(result.IsImprovement)

	var events []shared.Event
	if result.XPAwarded > 0 {
		h.recorder.XPAwarded(result.XPAwarded)
		events = append(events, shared.NewXPAwardedEvent(
			result.UserID, result.QuizID, result.XPAwarded, result.NewTotalXP, result.AttemptNumber,
		))
	}
	if result.LeveledUp {
		h.recorder.LevelUp()
		events = append(events, shared.NewLevelUpEvent(
			result.UserID, result.OldLevel, result.Level, result.NewTotalXP,
		))
	}
	if result.StreakChanged {
		h.recorder.StreakUpdated(transition.String())
		events = append(events, shared.NewStreakUpdatedEvent(
			result.UserID, result.Streak, result.BestStreak, timeutil.CalendarDate(at.In(h.location)), transition == progress.StreakReset,
		))
	}

	h.log.Info("quiz result recorded",
		logger.UserID(result.UserID),
		logger.QuizID(result.QuizID),
		logger.XPAmount(result.XPAwarded),
		logger.Int("attempt", result.AttemptNumber),
		logger.Bool("improvement", result.IsImprovement),
		logger.Int("level", result.Level),
	)

	publishAll(h.publisher, h.log, events)
}
