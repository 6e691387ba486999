package command

import (
	"context"

	"github.com/learnquest/gamification-core/internal/domain/badge"
	"github.com/learnquest/gamification-core/internal/domain/scoring"
)

// ScoreStatsProvider derives the quiz statistics from best-score records.
// Document and message counts are owned by other services and stay zero.
type ScoreStatsProvider struct {
	scores scoring.Repository
}

// NewScoreStatsProvider creates a provider over the best-score records.
func NewScoreStatsProvider(scores scoring.Repository) *ScoreStatsProvider {
	return &ScoreStatsProvider{scores: scores}
}

var _ badge.StatsProvider = (*ScoreStatsProvider)(nil)

// Snapshot counts every submission as a completion, retakes included.
func (p *ScoreStatsProvider) Snapshot(ctx context.Context, userID string) (badge.Snapshot, error) {
	records, err := p.scores.ListByUser(ctx, userID)
	if err != nil {
		return badge.Snapshot{}, err
	}

	var snap badge.Snapshot
	for _, r := range records {
		snap.TotalQuizCompletions += r.TotalAttempts
		if r.BestScorePercentage >= scoring.PerfectScore {
			snap.HasPerfectScore = true
		}
	}
	return snap, nil
}
