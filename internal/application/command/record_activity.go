package command

import (
	"context"
	"fmt"
	"time"

	"github.com/learnquest/gamification-core/internal/application/observe"
	"github.com/learnquest/gamification-core/internal/domain/progress"
	"github.com/learnquest/gamification-core/internal/domain/shared"
	"github.com/learnquest/gamification-core/pkg/logger"
	"github.com/learnquest/gamification-core/pkg/timeutil"
	"github.com/learnquest/gamification-core/pkg/tracing"
)

// ══════════════════════════════════════════════════════════════════════════════
// RECORD ACTIVITY COMMAND
// Advances the daily streak for any qualifying learning activity. Repeated
// activity on the same calendar day is a no-op.
// ══════════════════════════════════════════════════════════════════════════════

// RecordActivityCommand contains the data to record an activity.
type RecordActivityCommand struct {
	UserID string

	// Date is the moment of the activity. Only its calendar date counts.
	// Defaults to now if zero.
	Date time.Time
}

// Validate validates the command.
func (c RecordActivityCommand) Validate() error {
	return shared.ValidateUserID(c.UserID)
}

// RecordActivityResult contains the streak after the activity.
type RecordActivityResult struct {
	UserID       string
	Streak       int
	BestStreak   int
	LastActivity time.Time

	// Changed is false when the user was already active that day.
	Changed    bool
	Transition progress.StreakTransition
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// RecordActivityHandler handles the RecordActivityCommand.
type RecordActivityHandler struct {
	profiles  progress.Repository
	publisher shared.EventPublisher
	recorder  observe.Recorder
	log       *logger.Logger
	tx        txRunner

	location *time.Location
	now      func() time.Time
}

// RecordActivityHandlerConfig contains configuration for the handler.
type RecordActivityHandlerConfig struct {
	Tx TxConfig

	// Location decides where a calendar day starts. Defaults to UTC.
	Location *time.Location

	// Now replaces the wall clock when set.
	Now func() time.Time
}

// DefaultRecordActivityHandlerConfig returns default configuration.
func DefaultRecordActivityHandlerConfig() RecordActivityHandlerConfig {
	return RecordActivityHandlerConfig{
		Tx:       DefaultTxConfig(),
		Location: time.UTC,
	}
}

// NewRecordActivityHandler creates a new RecordActivityHandler.
func NewRecordActivityHandler(
	transactor shared.Transactor,
	profiles progress.Repository,
	publisher shared.EventPublisher,
	recorder observe.Recorder,
	log *logger.Logger,
	config RecordActivityHandlerConfig,
) *RecordActivityHandler {
	if config.Location == nil {
		config.Location = time.UTC
	}
	if config.Now == nil {
		config.Now = time.Now
	}

	recorder = observe.OrNop(recorder)
	log = orNopLogger(log).With(logger.Component("record_activity"))

	return &RecordActivityHandler{
		profiles:  profiles,
		publisher: orNopPublisher(publisher),
		recorder:  recorder,
		log:       log,
		tx:        newTxRunner(transactor, config.Tx, "record_activity", recorder, log),
		location:  config.Location,
		now:       config.Now,
	}
}

// Handle executes the record activity command.
func (h *RecordActivityHandler) Handle(ctx context.Context, cmd RecordActivityCommand) (_ *RecordActivityResult, err error) {
	ctx, span := tracing.Start(ctx, "command.RecordActivity")
	start := time.Now()
	defer func() {
		h.recorder.ObserveOperation("record_activity", time.Since(start), err)
		tracing.End(span, err)
	}()

	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("record_activity: validation failed: %w", err)
	}

	at := cmd.Date
	if at.IsZero() {
		at = h.now()
	}
	today := timeutil.CalendarDate(at.In(h.location))

	var result *RecordActivityResult
	err = h.tx.run(ctx, func(ctx context.Context) error {
		profile, err := h.profiles.GetForUpdate(ctx, cmd.UserID)
		if err != nil {
			return err
		}

		transition, changed := profile.RecordActivity(today)
		if changed {
			profile.UpdatedAt = h.now().UTC()
			if err := h.profiles.Save(ctx, profile); err != nil {
				return err
			}
		}

		result = &RecordActivityResult{
			UserID:     profile.UserID,
			Streak:     profile.Streak,
			BestStreak: profile.BestStreak,
			Changed:    changed,
			Transition: transition,
		}
		if profile.LastActivity != nil {
			result.LastActivity = *profile.LastActivity
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("record_activity: %w", err)
	}

	if result.Changed {
		h.recorder.StreakUpdated(result.Transition.String())
		h.log.Debug("streak updated",
			logger.UserID(cmd.UserID),
			logger.Int("streak", result.Streak),
			logger.String("transition", result.Transition.String()),
		)
		publishAll(h.publisher, h.log, []shared.Event{
			shared.NewStreakUpdatedEvent(
				result.UserID,
				result.Streak,
				result.BestStreak,
				result.LastActivity,
				result.Transition == progress.StreakReset,
			),
		})
	}

	return result, nil
}
