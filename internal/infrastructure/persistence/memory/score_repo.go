package memory

import (
	"context"
	"sort"

	"github.com/learnquest/gamification-core/internal/domain/scoring"
	"github.com/learnquest/gamification-core/internal/domain/shared"
)

// ScoreRepository implements scoring.Repository.
type ScoreRepository struct {
	store *Store
}

var _ scoring.Repository = (*ScoreRepository)(nil)

// GetForUpdate loads the best score for (userID, quizID).
func (r *ScoreRepository) GetForUpdate(ctx context.Context, userID, quizID string) (*scoring.BestScore, error) {
	defer r.store.lock(ctx)()

	s, ok := r.store.state.scores[scoreKey{userID, quizID}]
	if !ok {
		return nil, shared.ErrBestScoreNotFound
	}
	cp := *s
	return &cp, nil
}

// Upsert writes the record.
func (r *ScoreRepository) Upsert(ctx context.Context, s *scoring.BestScore, created bool) error {
	defer r.store.lock(ctx)()

	key := scoreKey{s.UserID, s.QuizID}
	if _, exists := r.store.state.scores[key]; exists && created {
		return shared.WrapError("scoring", "Upsert", shared.ErrConcurrentUpdateConflict, "best score created concurrently", nil)
	}
	cp := *s
	r.store.state.scores[key] = &cp
	return nil
}

// ListByUser returns the user's records ordered by quiz id.
func (r *ScoreRepository) ListByUser(ctx context.Context, userID string) ([]scoring.BestScore, error) {
	defer r.store.lock(ctx)()

	var out []scoring.BestScore
	for k, s := range r.store.state.scores {
		if k.userID == userID {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].QuizID < out[j].QuizID })
	return out, nil
}
