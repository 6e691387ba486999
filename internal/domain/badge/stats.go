package badge

import "context"

// StatsSource supplies the aggregate statistics badge predicates read. Each
// stat is fetched on its own so a failing source only affects the badges
// that depend on it.
type StatsSource interface {
	TotalDocuments(ctx context.Context) (int, error)
	TotalMessages(ctx context.Context) (int, error)
	TotalQuizCompletions(ctx context.Context) (int, error)
	HasPerfectScore(ctx context.Context) (bool, error)
	Streak(ctx context.Context) (int, error)
	Level(ctx context.Context) (int, error)
}

// Snapshot is a precomputed set of statistics.
type Snapshot struct {
	TotalDocuments       int  `json:"total_documents"`
	TotalMessages        int  `json:"total_messages"`
	TotalQuizCompletions int  `json:"total_quiz_completions"`
	HasPerfectScore      bool `json:"has_perfect_score"`
	Streak               int  `json:"streak"`
	Level                int  `json:"level"`
}

// WithProfileDefaults fills Level and Streak from the profile when the
// caller left them at zero.
func (s Snapshot) WithProfileDefaults(level, streak int) Snapshot {
	if s.Level == 0 {
		s.Level = level
	}
	if s.Streak == 0 {
		s.Streak = streak
	}
	return s
}

// StatsProvider loads a user's statistics from the systems that own them.
type StatsProvider interface {
	Snapshot(ctx context.Context, userID string) (Snapshot, error)
}

// Source adapts the snapshot to StatsSource.
func (s Snapshot) Source() StatsSource { return snapshotSource{s} }

type snapshotSource struct{ s Snapshot }

func (src snapshotSource) TotalDocuments(context.Context) (int, error) { return src.s.TotalDocuments, nil }
func (src snapshotSource) TotalMessages(context.Context) (int, error)  { return src.s.TotalMessages, nil }
func (src snapshotSource) TotalQuizCompletions(context.Context) (int, error) {
	return src.s.TotalQuizCompletions, nil
}
func (src snapshotSource) HasPerfectScore(context.Context) (bool, error) {
	return src.s.HasPerfectScore, nil
}
func (src snapshotSource) Streak(context.Context) (int, error) { return src.s.Streak, nil }
func (src snapshotSource) Level(context.Context) (int, error)  { return src.s.Level, nil }
