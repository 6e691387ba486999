package progress

import (
	"context"
)

// Repository persists profiles. Methods called with a context produced by
// shared.Transactor.WithinTx take part in that transaction.
type Repository interface {
	// Create stores a new profile.
	// Returns shared.ErrProfileAlreadyExists if one exists.
	Create(ctx context.Context, p *Profile) error

	// Get loads a profile with its badges.
	// Returns shared.ErrProfileNotFound if absent.
	Get(ctx context.Context, userID string) (*Profile, error)

	// GetForUpdate is Get plus a row lock held until the transaction ends.
	GetForUpdate(ctx context.Context, userID string) (*Profile, error)

	// Save writes xp, level, streak, best streak and last activity.
	Save(ctx context.Context, p *Profile) error

	// AddBadges inserts unlock records, ignoring ones already present, and
	// returns the records that were actually inserted.
	AddBadges(ctx context.Context, userID string, unlocks []BadgeUnlock) ([]BadgeUnlock, error)

	// AppendXPEvent records an XP change.
	AppendXPEvent(ctx context.Context, e XPEvent) error
}
