package postgres

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/learnquest/gamification-core/internal/domain/leaderboard"
)

func TestStandings_AllTimeHasNoArgs(t *testing.T) {
	cte, args := standings(leaderboard.NewScope(leaderboard.PeriodAllTime, time.Now()))

	assert.Empty(t, args)
	assert.Contains(t, cte, "ROW_NUMBER() OVER")
	assert.NotContains(t, cte, "xp_events")
	assert.Equal(t, "$1", placeholder(args))
}

func TestStandings_PeriodicFiltersEvents(t *testing.T) {
	now := time.Date(2025, 3, 13, 15, 0, 0, 0, time.UTC)
	scope := leaderboard.NewScope(leaderboard.PeriodWeekly, now)

	cte, args := standings(scope)

	require.Len(t, args, 1)
	assert.Equal(t, scope.Since, args[0])
	assert.Contains(t, cte, "FROM xp_events")
	assert.Contains(t, cte, "created_at >= $1")
	assert.Equal(t, "$2", placeholder(args))
}

func TestRankOrderMatchesDomainOrder(t *testing.T) {
	parts := strings.Split(rankOrder, ",")
	require.Len(t, parts, 4)
	assert.Contains(t, parts[0], "score DESC")
	assert.Contains(t, parts[1], "level DESC")
	assert.Contains(t, parts[2], "display_name")
	assert.Contains(t, parts[3], "user_id")
}

func TestGetMigrations_Ordered(t *testing.T) {
	migs := GetMigrations()
	require.NotEmpty(t, migs)

	for i, m := range migs {
		assert.Equal(t, i+1, m.Version)
		assert.NotEmpty(t, m.Name)
		assert.NotEmpty(t, m.UpSQL)
		assert.NotEmpty(t, m.DownSQL)
	}
	assert.Contains(t, migs[0].UpSQL, "gamification_profiles")
}
