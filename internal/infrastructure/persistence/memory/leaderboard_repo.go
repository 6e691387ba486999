package memory

import (
	"context"

	"github.com/learnquest/gamification-core/internal/domain/leaderboard"
	"github.com/learnquest/gamification-core/internal/domain/shared"
)

// LeaderboardRepository implements leaderboard.Repository by ranking the
// stored profiles on every call.
type LeaderboardRepository struct {
	store *Store
}

var _ leaderboard.Repository = (*LeaderboardRepository)(nil)

func (r *LeaderboardRepository) ranking(ctx context.Context, scope leaderboard.Scope) (*leaderboard.Ranking, error) {
	defer r.store.lock(ctx)()

	st := r.store.state
	var entries []leaderboard.Entry

	if scope.Period.IsAllTime() {
		entries = make([]leaderboard.Entry, 0, len(st.profiles))
		for _, p := range st.profiles {
			entries = append(entries, leaderboard.Entry{
				UserID:     p.UserID,
				Name:       p.DisplayName,
				XP:         p.XP,
				Level:      p.Level,
				Streak:     p.Streak,
				BadgeCount: len(p.Badges),
			})
		}
		return leaderboard.NewRanking(entries)
	}

	earned := make(map[string]int64)
	for _, e := range st.events {
		if !e.CreatedAt.Before(scope.Since) {
			earned[e.UserID] += e.Delta
		}
	}
	for userID, xp := range earned {
		p, ok := st.profiles[userID]
		if !ok {
			continue
		}
		entries = append(entries, leaderboard.Entry{
			UserID:     p.UserID,
			Name:       p.DisplayName,
			XP:         xp,
			Level:      p.Level,
			Streak:     p.Streak,
			BadgeCount: len(p.Badges),
		})
	}
	return leaderboard.NewRanking(entries)
}

// Top returns the first limit entries.
func (r *LeaderboardRepository) Top(ctx context.Context, scope leaderboard.Scope, limit int) ([]leaderboard.Entry, error) {
	rk, err := r.ranking(ctx, scope)
	if err != nil {
		return nil, err
	}
	return rk.Top(limit), nil
}

// Position returns the user's ranked entry.
func (r *LeaderboardRepository) Position(ctx context.Context, scope leaderboard.Scope, userID string) (leaderboard.Entry, error) {
	rk, err := r.ranking(ctx, scope)
	if err != nil {
		return leaderboard.Entry{}, err
	}
	e, ok := rk.Get(userID)
	if !ok {
		return leaderboard.Entry{}, shared.ErrNotRanked
	}
	return e, nil
}

// Range returns entries with from ≤ rank ≤ to.
func (r *LeaderboardRepository) Range(ctx context.Context, scope leaderboard.Scope, from, to int) ([]leaderboard.Entry, error) {
	rk, err := r.ranking(ctx, scope)
	if err != nil {
		return nil, err
	}
	return rk.Range(from, to), nil
}

// Count returns the number of ranked users.
func (r *LeaderboardRepository) Count(ctx context.Context, scope leaderboard.Scope) (int, error) {
	rk, err := r.ranking(ctx, scope)
	if err != nil {
		return 0, err
	}
	return rk.Total(), nil
}
