package postgres

import (
	"context"
	"fmt"

	"github.com/learnquest/gamification-core/internal/domain/scoring"
	"github.com/learnquest/gamification-core/internal/domain/shared"
)

// ScoreRepository implements scoring.Repository for PostgreSQL.
type ScoreRepository struct {
	conn *Connection
}

var _ scoring.Repository = (*ScoreRepository)(nil)

// NewScoreRepository creates a new ScoreRepository.
func NewScoreRepository(conn *Connection) *ScoreRepository {
	return &ScoreRepository{conn: conn}
}

// GetForUpdate loads and locks the best-score row of (userID, quizID).
func (r *ScoreRepository) GetForUpdate(ctx context.Context, userID, quizID string) (*scoring.BestScore, error) {
	query := `
		SELECT user_id, quiz_id, best_score_percentage, best_xp_awarded, total_attempts, last_attempt_at
		FROM quiz_best_scores
		WHERE user_id = $1 AND quiz_id = $2
		FOR UPDATE
	`

	var s scoring.BestScore
	err := r.conn.querier(ctx).QueryRow(ctx, query, userID, quizID).Scan(
		&s.UserID,
		&s.QuizID,
		&s.BestScorePercentage,
		&s.BestXPAwarded,
		&s.TotalAttempts,
		&s.LastAttemptAt,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrBestScoreNotFound
		}
		return nil, fmt.Errorf("failed to get best score: %w", mapError(err))
	}

	return &s, nil
}

// Upsert writes a best-score row. A first attempt inserts, and losing the
// insert race to another transaction is reported as a conflict so the caller
// retries against the committed row.
func (r *ScoreRepository) Upsert(ctx context.Context, s *scoring.BestScore, created bool) error {
	q := r.conn.querier(ctx)

	if created {
		_, err := q.Exec(ctx, `
			INSERT INTO quiz_best_scores (
				user_id, quiz_id, best_score_percentage, best_xp_awarded, total_attempts, last_attempt_at
			) VALUES ($1, $2, $3, $4, $5, $6)
		`, s.UserID, s.QuizID, s.BestScorePercentage, s.BestXPAwarded, s.TotalAttempts, s.LastAttemptAt)
		if err != nil {
			if IsUniqueViolation(err) {
				return fmt.Errorf("%w: best score %s/%s", shared.ErrConcurrentUpdateConflict, s.UserID, s.QuizID)
			}
			return fmt.Errorf("failed to insert best score: %w", mapError(err))
		}
		return nil
	}

	tag, err := q.Exec(ctx, `
		UPDATE quiz_best_scores SET
			best_score_percentage = $1,
			best_xp_awarded = $2,
			total_attempts = $3,
			last_attempt_at = $4
		WHERE user_id = $5 AND quiz_id = $6
	`, s.BestScorePercentage, s.BestXPAwarded, s.TotalAttempts, s.LastAttemptAt, s.UserID, s.QuizID)
	if err != nil {
		return fmt.Errorf("failed to update best score: %w", mapError(err))
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrBestScoreNotFound
	}

	return nil
}

// ListByUser returns every best-score row of a user.
func (r *ScoreRepository) ListByUser(ctx context.Context, userID string) ([]scoring.BestScore, error) {
	rows, err := r.conn.querier(ctx).Query(ctx, `
		SELECT user_id, quiz_id, best_score_percentage, best_xp_awarded, total_attempts, last_attempt_at
		FROM quiz_best_scores
		WHERE user_id = $1
		ORDER BY quiz_id
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list best scores: %w", mapError(err))
	}
	defer rows.Close()

	var out []scoring.BestScore
	for rows.Next() {
		var s scoring.BestScore
		if err := rows.Scan(
			&s.UserID,
			&s.QuizID,
			&s.BestScorePercentage,
			&s.BestXPAwarded,
			&s.TotalAttempts,
			&s.LastAttemptAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan best score: %w", err)
		}
		out = append(out, s)
	}

	return out, rows.Err()
}
