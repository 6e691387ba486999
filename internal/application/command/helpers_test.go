package command_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/learnquest/gamification-core/internal/application/command"
	"github.com/learnquest/gamification-core/internal/application/observe"
	"github.com/learnquest/gamification-core/internal/domain/shared"
	"github.com/learnquest/gamification-core/internal/infrastructure/persistence/memory"
)

var day0 = time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC)

type capturePublisher struct {
	mu     sync.Mutex
	events []shared.Event
}

func (p *capturePublisher) Publish(e shared.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *capturePublisher) ofType(t shared.EventType) []shared.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []shared.Event
	for _, e := range p.events {
		if e.EventType() == t {
			out = append(out, e)
		}
	}
	return out
}

type countingRecorder struct {
	observe.Nop
	mu        sync.Mutex
	conflicts int
	xp        int64
	unlocked  []string
	failed    []string
}

func (r *countingRecorder) TxConflict() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conflicts++
}

func (r *countingRecorder) XPAwarded(xp int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.xp += xp
}

func (r *countingRecorder) BadgeUnlocked(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.unlocked = append(r.unlocked, id)
}

func (r *countingRecorder) BadgeEvaluationFailed(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failed = append(r.failed, id)
}

func fastTx() command.TxConfig {
	return command.TxConfig{MaxAttempts: 3, InitialDelay: 0, MaxDelay: time.Millisecond}
}

type fixture struct {
	store    *memory.Store
	pub      *capturePublisher
	rec      *countingRecorder
	register *command.RegisterProfileHandler
	quiz     *command.RecordQuizResultHandler
	activity *command.RecordActivityHandler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		store: memory.NewStore(),
		pub:   &capturePublisher{},
		rec:   &countingRecorder{},
	}
	clock := func() time.Time { return day0 }

	f.register = command.NewRegisterProfileHandler(f.store.Profiles(), f.pub, f.rec, nil)

	quizCfg := command.DefaultRecordQuizResultHandlerConfig()
	quizCfg.Tx = fastTx()
	quizCfg.Now = clock
	f.quiz = command.NewRecordQuizResultHandler(f.store, f.store.Profiles(), f.store.Scores(), f.pub, f.rec, nil, quizCfg)

	actCfg := command.DefaultRecordActivityHandlerConfig()
	actCfg.Tx = fastTx()
	actCfg.Now = clock
	f.activity = command.NewRecordActivityHandler(f.store, f.store.Profiles(), f.pub, f.rec, nil, actCfg)

	return f
}

func (f *fixture) registerUser(t *testing.T, userID, name string) {
	t.Helper()
	_, err := f.register.Handle(context.Background(), command.RegisterProfileCommand{UserID: userID, DisplayName: name})
	require.NoError(t, err)
}

func (f *fixture) submit(t *testing.T, userID, quizID string, score float64) *command.RecordQuizResultResult {
	t.Helper()
	res, err := f.quiz.Handle(context.Background(), command.RecordQuizResultCommand{
		UserID:          userID,
		QuizID:          quizID,
		ScorePercentage: score,
	})
	require.NoError(t, err)
	return res
}
