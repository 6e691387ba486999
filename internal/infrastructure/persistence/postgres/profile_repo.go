package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/learnquest/gamification-core/internal/domain/progress"
	"github.com/learnquest/gamification-core/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// PROFILE REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// ProfileRepository implements progress.Repository for PostgreSQL.
type ProfileRepository struct {
	conn *Connection
}

var _ progress.Repository = (*ProfileRepository)(nil)

// NewProfileRepository creates a new ProfileRepository.
func NewProfileRepository(conn *Connection) *ProfileRepository {
	return &ProfileRepository{conn: conn}
}

const profileColumns = `user_id, display_name, xp, level, streak, best_streak,
	last_activity, created_at, updated_at`

// Create creates a new profile.
func (r *ProfileRepository) Create(ctx context.Context, p *progress.Profile) error {
	query := `
		INSERT INTO gamification_profiles (` + profileColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.conn.querier(ctx).Exec(ctx, query,
		p.UserID,
		p.DisplayName,
		p.XP,
		p.Level,
		p.Streak,
		p.BestStreak,
		p.LastActivity,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.ErrProfileAlreadyExists
		}
		return fmt.Errorf("failed to create profile: %w", mapError(err))
	}

	return nil
}

// Get returns a profile with its badges.
func (r *ProfileRepository) Get(ctx context.Context, userID string) (*progress.Profile, error) {
	return r.get(ctx, userID, false)
}

// GetForUpdate returns a profile and locks its row until the surrounding
// transaction ends.
func (r *ProfileRepository) GetForUpdate(ctx context.Context, userID string) (*progress.Profile, error) {
	return r.get(ctx, userID, true)
}

func (r *ProfileRepository) get(ctx context.Context, userID string, forUpdate bool) (*progress.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM gamification_profiles WHERE user_id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	q := r.conn.querier(ctx)
	p, err := scanProfile(q.QueryRow(ctx, query, userID))
	if err != nil {
		return nil, err
	}

	badges, err := r.badges(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	p.Badges = badges

	return p, nil
}

func (r *ProfileRepository) badges(ctx context.Context, q Querier, userID string) ([]progress.BadgeUnlock, error) {
	rows, err := q.Query(ctx, `
		SELECT badge_id, unlocked_at
		FROM badge_unlocks
		WHERE user_id = $1
		ORDER BY unlocked_at, badge_id
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query badges: %w", mapError(err))
	}
	defer rows.Close()

	var out []progress.BadgeUnlock
	for rows.Next() {
		var b progress.BadgeUnlock
		if err := rows.Scan(&b.BadgeID, &b.UnlockedAt); err != nil {
			return nil, fmt.Errorf("failed to scan badge: %w", err)
		}
		out = append(out, b)
	}

	return out, rows.Err()
}

// Save writes the mutable progress fields of a profile.
func (r *ProfileRepository) Save(ctx context.Context, p *progress.Profile) error {
	query := `
		UPDATE gamification_profiles SET
			xp = $1,
			level = $2,
			streak = $3,
			best_streak = $4,
			last_activity = $5,
			updated_at = $6
		WHERE user_id = $7
	`

	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = time.Now().UTC()
	}
	tag, err := r.conn.querier(ctx).Exec(ctx, query,
		p.XP,
		p.Level,
		p.Streak,
		p.BestStreak,
		p.LastActivity,
		p.UpdatedAt,
		p.UserID,
	)
	if err != nil {
		return fmt.Errorf("failed to save profile: %w", mapError(err))
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrProfileNotFound
	}

	return nil
}

// AddBadges inserts unlock records and returns the ones that did not exist.
func (r *ProfileRepository) AddBadges(ctx context.Context, userID string, unlocks []progress.BadgeUnlock) ([]progress.BadgeUnlock, error) {
	if len(unlocks) == 0 {
		return nil, nil
	}

	query := `
		INSERT INTO badge_unlocks (user_id, badge_id, unlocked_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, badge_id) DO NOTHING
		RETURNING badge_id, unlocked_at
	`

	q := r.conn.querier(ctx)
	var added []progress.BadgeUnlock
	for _, u := range unlocks {
		var b progress.BadgeUnlock
		err := q.QueryRow(ctx, query, userID, u.BadgeID, u.UnlockedAt).Scan(&b.BadgeID, &b.UnlockedAt)
		if IsNoRows(err) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to add badge %s: %w", u.BadgeID, mapError(err))
		}
		added = append(added, b)
	}

	return added, nil
}

// AppendXPEvent records an XP change.
func (r *ProfileRepository) AppendXPEvent(ctx context.Context, e progress.XPEvent) error {
	query := `
		INSERT INTO xp_events (id, user_id, quiz_id, delta, old_xp, new_xp, reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.conn.querier(ctx).Exec(ctx, query,
		e.ID,
		e.UserID,
		e.QuizID,
		e.Delta,
		e.OldXP,
		e.NewXP,
		e.Reason,
		e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to append xp event: %w", mapError(err))
	}

	return nil
}

func scanProfile(row pgx.Row) (*progress.Profile, error) {
	var p progress.Profile
	err := row.Scan(
		&p.UserID,
		&p.DisplayName,
		&p.XP,
		&p.Level,
		&p.Streak,
		&p.BestStreak,
		&p.LastActivity,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to scan profile: %w", mapError(err))
	}
	return &p, nil
}
