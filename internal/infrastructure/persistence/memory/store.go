// Package memory is an in-process implementation of the gamification
// repositories. It serves tests and local runs without Postgres.
//
// Transactions take a store-wide lock and snapshot the state; an error or a
// panic inside WithinTx restores the snapshot.
package memory

import (
	"context"
	"sync"

	"github.com/learnquest/gamification-core/internal/domain/progress"
	"github.com/learnquest/gamification-core/internal/domain/scoring"
	"github.com/learnquest/gamification-core/internal/domain/shared"
)

type scoreKey struct {
	userID string
	quizID string
}

type state struct {
	profiles map[string]*progress.Profile
	scores   map[scoreKey]*scoring.BestScore
	events   []progress.XPEvent
}

func (st state) clone() state {
	c := state{
		profiles: make(map[string]*progress.Profile, len(st.profiles)),
		scores:   make(map[scoreKey]*scoring.BestScore, len(st.scores)),
		events:   append([]progress.XPEvent(nil), st.events...),
	}
	for k, p := range st.profiles {
		c.profiles[k] = p.Clone()
	}
	for k, s := range st.scores {
		cp := *s
		c.scores[k] = &cp
	}
	return c
}

// Store holds all data behind one mutex.
type Store struct {
	mu    sync.Mutex
	state state

	// failCommits makes the next n transactions fail with a conflict after
	// fn returns, as a serialization failure would.
	failCommits int
	commits     int
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		state: state{
			profiles: make(map[string]*progress.Profile),
			scores:   make(map[scoreKey]*scoring.BestScore),
		},
	}
}

type txKey struct{}

func (s *Store) inTx(ctx context.Context) bool {
	owner, _ := ctx.Value(txKey{}).(*Store)
	return owner == s
}

// lock takes the store mutex unless ctx already holds it through WithinTx.
func (s *Store) lock(ctx context.Context) func() {
	if s.inTx(ctx) {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

// WithinTx implements shared.Transactor. Nested calls join the outer
// transaction.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if s.inTx(ctx) {
		return fn(ctx)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.state.clone()
	txCtx := context.WithValue(ctx, txKey{}, s)

	defer func() {
		if p := recover(); p != nil {
			s.state = snapshot
			panic(p)
		}
	}()

	err = fn(txCtx)
	if err == nil {
		err = ctx.Err()
	}
	if err == nil && s.failCommits > 0 {
		s.failCommits--
		err = shared.WrapError("storage", "Commit", shared.ErrConcurrentUpdateConflict, "simulated serialization failure", nil)
	}
	if err != nil {
		s.state = snapshot
		return err
	}

	s.commits++
	return nil
}

// FailNextCommits makes the next n transactions roll back with
// shared.ErrConcurrentUpdateConflict.
func (s *Store) FailNextCommits(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failCommits = n
}

// Commits returns the number of committed transactions.
func (s *Store) Commits() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commits
}

// Profiles returns the profile repository.
func (s *Store) Profiles() *ProfileRepository {
	return &ProfileRepository{store: s}
}

// Scores returns the best-score repository.
func (s *Store) Scores() *ScoreRepository {
	return &ScoreRepository{store: s}
}

// Leaderboard returns the leaderboard read model.
func (s *Store) Leaderboard() *LeaderboardRepository {
	return &LeaderboardRepository{store: s}
}

// XPEvents returns a copy of the XP audit trail.
func (s *Store) XPEvents(ctx context.Context) []progress.XPEvent {
	defer s.lock(ctx)()
	return append([]progress.XPEvent(nil), s.state.events...)
}

var _ shared.Transactor = (*Store)(nil)
