package memory

import (
	"context"

	"github.com/learnquest/gamification-core/internal/domain/progress"
	"github.com/learnquest/gamification-core/internal/domain/shared"
)

// ProfileRepository implements progress.Repository.
type ProfileRepository struct {
	store *Store
}

var _ progress.Repository = (*ProfileRepository)(nil)

// Create stores a new profile.
func (r *ProfileRepository) Create(ctx context.Context, p *progress.Profile) error {
	defer r.store.lock(ctx)()

	if _, ok := r.store.state.profiles[p.UserID]; ok {
		return shared.ErrProfileAlreadyExists
	}
	r.store.state.profiles[p.UserID] = p.Clone()
	return nil
}

// Get loads a profile.
func (r *ProfileRepository) Get(ctx context.Context, userID string) (*progress.Profile, error) {
	defer r.store.lock(ctx)()

	p, ok := r.store.state.profiles[userID]
	if !ok {
		return nil, shared.ErrProfileNotFound
	}
	return p.Clone(), nil
}

// GetForUpdate loads a profile. The store lock held by the surrounding
// transaction already serializes writers.
func (r *ProfileRepository) GetForUpdate(ctx context.Context, userID string) (*progress.Profile, error) {
	return r.Get(ctx, userID)
}

// Save writes the mutable profile fields. Badges are written by AddBadges.
func (r *ProfileRepository) Save(ctx context.Context, p *progress.Profile) error {
	defer r.store.lock(ctx)()

	cur, ok := r.store.state.profiles[p.UserID]
	if !ok {
		return shared.ErrProfileNotFound
	}

	next := p.Clone()
	next.Badges = cur.Badges
	r.store.state.profiles[p.UserID] = next
	return nil
}

// AddBadges inserts unlock records that are not present yet.
func (r *ProfileRepository) AddBadges(ctx context.Context, userID string, unlocks []progress.BadgeUnlock) ([]progress.BadgeUnlock, error) {
	defer r.store.lock(ctx)()

	cur, ok := r.store.state.profiles[userID]
	if !ok {
		return nil, shared.ErrProfileNotFound
	}
	return cur.AppendBadges(unlocks...), nil
}

// AppendXPEvent records an XP change.
func (r *ProfileRepository) AppendXPEvent(ctx context.Context, e progress.XPEvent) error {
	defer r.store.lock(ctx)()

	if _, ok := r.store.state.profiles[e.UserID]; !ok {
		return shared.ErrProfileNotFound
	}
	r.store.state.events = append(r.store.state.events, e)
	return nil
}
