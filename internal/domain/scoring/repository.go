package scoring

import "context"

// Repository persists best-score records.
type Repository interface {
	// GetForUpdate loads and row-locks the record for (userID, quizID).
	// Returns shared.ErrBestScoreNotFound if there is none yet.
	GetForUpdate(ctx context.Context, userID, quizID string) (*BestScore, error)

	// Upsert writes the record. Inserting a record that a concurrent
	// transaction already created yields shared.ErrConcurrentUpdateConflict.
	Upsert(ctx context.Context, s *BestScore, created bool) error

	// ListByUser returns all records for a user.
	ListByUser(ctx context.Context, userID string) ([]BestScore, error)
}
