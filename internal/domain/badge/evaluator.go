package badge

import (
	"context"
	"fmt"
	"time"

	"github.com/learnquest/gamification-core/internal/domain/progress"
)

// Failure is a predicate that could not be evaluated.
type Failure struct {
	BadgeID string
	Err     error
}

// Result lists the badges granted by one evaluation and the predicates that
// failed. Failed predicates are retried naturally on the next evaluation.
type Result struct {
	Unlocked []progress.BadgeUnlock
	Failures []Failure
}

// HasNew reports whether anything was unlocked.
func (r Result) HasNew() bool {
	return len(r.Unlocked) > 0
}

// Evaluator checks catalog predicates against statistics.
type Evaluator struct {
	catalog Catalog
	now     func() time.Time
}

// NewEvaluator creates an evaluator over catalog. A nil clock uses time.Now.
func NewEvaluator(catalog Catalog, now func() time.Time) *Evaluator {
	if now == nil {
		now = time.Now
	}
	return &Evaluator{catalog: catalog, now: now}
}

// Catalog returns the evaluator's catalog.
func (e *Evaluator) Catalog() Catalog {
	return e.catalog
}

// Evaluate grants every badge that is not in unlocked and whose predicate
// holds. It never revokes anything. One failing predicate does not stop the
// others.
func (e *Evaluator) Evaluate(ctx context.Context, unlocked map[string]time.Time, stats StatsSource) Result {
	var res Result
	at := e.now().UTC()

	for _, b := range e.catalog {
		if _, ok := unlocked[b.ID]; ok {
			continue
		}
		if b.Predicate == nil {
			continue
		}

		ok, err := safeCheck(ctx, b.Predicate, stats)
		if err != nil {
			res.Failures = append(res.Failures, Failure{BadgeID: b.ID, Err: err})
			continue
		}
		if ok {
			res.Unlocked = append(res.Unlocked, progress.BadgeUnlock{BadgeID: b.ID, UnlockedAt: at})
		}
	}

	return res
}

func safeCheck(ctx context.Context, p Predicate, stats StatsSource) (ok bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			ok, err = false, fmt.Errorf("badge predicate panicked: %v", r)
		}
	}()
	return p(ctx, stats)
}
