package command

import (
	"context"
	"time"

	"github.com/learnquest/gamification-core/internal/application/observe"
	"github.com/learnquest/gamification-core/internal/domain/shared"
	"github.com/learnquest/gamification-core/pkg/logger"
	"github.com/learnquest/gamification-core/pkg/retry"
)

// TxConfig controls how write commands retry a transaction that lost a race
// for a row lock.
type TxConfig struct {
	// MaxAttempts counts the first attempt.
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
}

// DefaultTxConfig returns the retry policy used when none is configured.
func DefaultTxConfig() TxConfig {
	return TxConfig{
		MaxAttempts:  3,
		InitialDelay: 20 * time.Millisecond,
		MaxDelay:     time.Second,
	}
}

// txRunner runs a unit of work in a transaction and replays it from scratch
// on ErrConcurrentUpdateConflict. Any other error ends the loop.
type txRunner struct {
	tx      shared.Transactor
	retrier *retry.Retrier
}

func newTxRunner(tx shared.Transactor, cfg TxConfig, op string, rec observe.Recorder, log *logger.Logger) txRunner {
	if cfg.MaxAttempts <= 0 {
		cfg = DefaultTxConfig()
	}

	return txRunner{
		tx: tx,
		retrier: retry.New(
			retry.WithMaxAttempts(cfg.MaxAttempts),
			retry.WithInitialDelay(cfg.InitialDelay),
			retry.WithMaxDelay(cfg.MaxDelay),
			retry.WithRetryIf(shared.IsConflict),
			retry.WithOnRetry(func(attempt int, err error, delay time.Duration) {
				rec.TxConflict()
				log.Warn("transaction conflict, retrying",
					logger.Operation(op),
					logger.Int("attempt", attempt),
					logger.Duration("delay", delay),
					logger.Err(err),
				)
			}),
		),
	}
}

func (r txRunner) run(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.retrier.Do(ctx, func(ctx context.Context) error {
		return r.tx.WithinTx(ctx, fn)
	})
}

// publishAll hands events to the publisher. Delivery failures are logged;
// the state change they describe is already committed.
func publishAll(pub shared.EventPublisher, log *logger.Logger, events []shared.Event) {
	for _, event := range events {
		if err := pub.Publish(event); err != nil {
			log.Warn("failed to publish event",
				logger.String("event_type", string(event.EventType())),
				logger.UserID(event.AggregateID()),
				logger.Err(err),
			)
		}
	}
}

func orNopLogger(log *logger.Logger) *logger.Logger {
	if log == nil {
		return logger.Nop()
	}
	return log
}

func orNopPublisher(pub shared.EventPublisher) shared.EventPublisher {
	if pub == nil {
		return shared.NopPublisher{}
	}
	return pub
}
