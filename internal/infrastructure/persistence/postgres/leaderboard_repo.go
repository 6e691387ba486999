package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/learnquest/gamification-core/internal/domain/leaderboard"
	"github.com/learnquest/gamification-core/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// LeaderboardRepository implements leaderboard.Repository with window
// functions over the profile table. Ranks are computed by the database on
// every call and never stored.
type LeaderboardRepository struct {
	conn *Connection
}

var _ leaderboard.Repository = (*LeaderboardRepository)(nil)

// NewLeaderboardRepository creates a new LeaderboardRepository.
func NewLeaderboardRepository(conn *Connection) *LeaderboardRepository {
	return &LeaderboardRepository{conn: conn}
}

// rankOrder mirrors leaderboard.Less. COLLATE "C" gives byte-order name
// comparison regardless of the database locale.
const rankOrder = `score DESC, level DESC, display_name COLLATE "C" ASC, user_id COLLATE "C" ASC`

const badgeCountExpr = `(SELECT COUNT(*) FROM badge_unlocks b WHERE b.user_id = p.user_id)`

// standings returns the ranked CTE for scope together with its arguments.
// Periodic scopes rank by XP earned since scope.Since and only include users
// who earned some.
func standings(scope leaderboard.Scope) (string, []any) {
	if scope.Period.IsAllTime() {
		return `
			WITH ranked AS (
				SELECT p.user_id, p.display_name, p.xp AS score, p.level, p.streak,
					` + badgeCountExpr + ` AS badge_count,
					ROW_NUMBER() OVER (ORDER BY p.xp DESC, p.level DESC, p.display_name COLLATE "C" ASC, p.user_id COLLATE "C" ASC) AS rank
				FROM gamification_profiles p
			)`, nil
	}

	return `
		WITH earned AS (
			SELECT user_id, SUM(delta)::BIGINT AS xp
			FROM xp_events
			WHERE created_at >= $1
			GROUP BY user_id
		), scored AS (
			SELECT p.user_id, p.display_name, e.xp AS score, p.level, p.streak,
				` + badgeCountExpr + ` AS badge_count
			FROM gamification_profiles p
			JOIN earned e ON e.user_id = p.user_id
		), ranked AS (
			SELECT scored.*, ROW_NUMBER() OVER (ORDER BY ` + rankOrder + `) AS rank
			FROM scored
		)`, []any{scope.Since}
}

func placeholder(args []any) string {
	return fmt.Sprintf("$%d", len(args)+1)
}

const rankedColumns = `rank, user_id, display_name, score, level, streak, badge_count`

// Top returns the first limit entries.
func (r *LeaderboardRepository) Top(ctx context.Context, scope leaderboard.Scope, limit int) ([]leaderboard.Entry, error) {
	cte, args := standings(scope)
	query := cte + `
		SELECT ` + rankedColumns + `
		FROM ranked
		WHERE rank <= ` + placeholder(args) + `
		ORDER BY rank
	`
	args = append(args, limit)

	return r.queryEntries(ctx, query, args...)
}

// Position returns the user's entry with its rank.
func (r *LeaderboardRepository) Position(ctx context.Context, scope leaderboard.Scope, userID string) (leaderboard.Entry, error) {
	cte, args := standings(scope)
	query := cte + `
		SELECT ` + rankedColumns + `
		FROM ranked
		WHERE user_id = ` + placeholder(args)
	args = append(args, userID)

	e, err := scanEntry(r.conn.querier(ctx).QueryRow(ctx, query, args...))
	if err != nil {
		if IsNoRows(err) {
			return leaderboard.Entry{}, shared.ErrNotRanked
		}
		return leaderboard.Entry{}, fmt.Errorf("failed to get position: %w", mapError(err))
	}

	return e, nil
}

// Range returns entries with from ≤ rank ≤ to.
func (r *LeaderboardRepository) Range(ctx context.Context, scope leaderboard.Scope, from, to int) ([]leaderboard.Entry, error) {
	if from < 1 {
		from = 1
	}
	if to < from {
		return nil, nil
	}

	cte, args := standings(scope)
	query := cte + `
		SELECT ` + rankedColumns + `
		FROM ranked
		WHERE rank BETWEEN ` + fmt.Sprintf("$%d AND $%d", len(args)+1, len(args)+2) + `
		ORDER BY rank
	`
	args = append(args, from, to)

	return r.queryEntries(ctx, query, args...)
}

// Count returns the number of ranked users.
func (r *LeaderboardRepository) Count(ctx context.Context, scope leaderboard.Scope) (int, error) {
	var (
		query string
		args  []any
	)
	if scope.Period.IsAllTime() {
		query = `SELECT COUNT(*) FROM gamification_profiles`
	} else {
		query = `
			SELECT COUNT(DISTINCT e.user_id)
			FROM xp_events e
			JOIN gamification_profiles p ON p.user_id = e.user_id
			WHERE e.created_at >= $1
		`
		args = []any{scope.Since}
	}

	var count int
	if err := r.conn.querier(ctx).QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count ranked users: %w", mapError(err))
	}

	return count, nil
}

func (r *LeaderboardRepository) queryEntries(ctx context.Context, query string, args ...any) ([]leaderboard.Entry, error) {
	rows, err := r.conn.querier(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query leaderboard: %w", mapError(err))
	}
	defer rows.Close()

	var entries []leaderboard.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan leaderboard entry: %w", err)
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

func scanEntry(row pgx.Row) (leaderboard.Entry, error) {
	var e leaderboard.Entry
	err := row.Scan(
		&e.Rank,
		&e.UserID,
		&e.Name,
		&e.XP,
		&e.Level,
		&e.Streak,
		&e.BadgeCount,
	)
	return e, err
}
