package command_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/learnquest/gamification-core/internal/application/command"
	"github.com/learnquest/gamification-core/internal/domain/badge"
	"github.com/learnquest/gamification-core/internal/domain/shared"
)

func badgeIDs(states []badge.State) []string {
	ids := make([]string, 0, len(states))
	for _, s := range states {
		ids = append(ids, s.ID)
	}
	return ids
}

func (f *fixture) badgeHandler(evaluator *badge.Evaluator, stats badge.StatsProvider) *command.EvaluateBadgesHandler {
	return command.NewEvaluateBadgesHandler(f.store, f.store.Profiles(), evaluator, stats, f.pub, f.rec, nil, fastTx())
}

func TestEvaluateBadges_UnlocksAreMonotonic(t *testing.T) {
	f := newFixture(t)
	f.registerUser(t, "u-1", "Ada")
	h := f.badgeHandler(badge.NewEvaluator(badge.DefaultCatalog(), func() time.Time { return day0 }), nil)
	ctx := context.Background()

	res, err := h.Handle(ctx, command.EvaluateBadgesCommand{
		UserID: "u-1",
		Stats:  &badge.Snapshot{TotalDocuments: 1, TotalQuizCompletions: 1},
	})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{badge.FirstSteps, badge.QuizNovice}, badgeIDs(res.Unlocked))

	res, err = h.Handle(ctx, command.EvaluateBadgesCommand{UserID: "u-1", Stats: &badge.Snapshot{}})
	require.NoError(t, err)
	assert.Empty(t, res.Unlocked)

	p, err := f.store.Profiles().Get(ctx, "u-1")
	require.NoError(t, err)
	assert.True(t, p.HasBadge(badge.FirstSteps))
	assert.True(t, p.HasBadge(badge.QuizNovice))
	assert.Len(t, p.Badges, 2)

	assert.Len(t, f.pub.ofType(shared.EventBadgeUnlocked), 2)
	assert.ElementsMatch(t, []string{badge.FirstSteps, badge.QuizNovice}, f.rec.unlocked)
}

func TestEvaluateBadges_UsesProfileLevelAndStreak(t *testing.T) {
	f := newFixture(t)
	f.registerUser(t, "u-1", "Ada")
	ctx := context.Background()

	for i := 0; i < 7; i++ {
		_, err := f.activity.Handle(ctx, command.RecordActivityCommand{UserID: "u-1", Date: day0.AddDate(0, 0, i)})
		require.NoError(t, err)
	}

	h := f.badgeHandler(badge.NewEvaluator(badge.DefaultCatalog(), nil), nil)
	res, err := h.Handle(ctx, command.EvaluateBadgesCommand{UserID: "u-1"})

	require.NoError(t, err)
	assert.Equal(t, []string{badge.WeekWarrior}, badgeIDs(res.Unlocked))
}

func TestEvaluateBadges_IsolatesPredicateFailures(t *testing.T) {
	f := newFixture(t)
	f.registerUser(t, "u-1", "Ada")

	catalog := badge.Catalog{
		{ID: "broken", Predicate: func(context.Context, badge.StatsSource) (bool, error) {
			return false, errors.New("stats backend down")
		}},
		{ID: "always", Predicate: func(context.Context, badge.StatsSource) (bool, error) {
			return true, nil
		}},
	}
	h := f.badgeHandler(badge.NewEvaluator(catalog, nil), nil)

	res, err := h.Handle(context.Background(), command.EvaluateBadgesCommand{UserID: "u-1", Stats: &badge.Snapshot{}})

	require.NoError(t, err)
	assert.Equal(t, []string{"always"}, badgeIDs(res.Unlocked))
	assert.Equal(t, []string{"broken"}, res.Failed)
	assert.Equal(t, []string{"broken"}, f.rec.failed)
}

func TestEvaluateBadges_RefreshFromScoreStats(t *testing.T) {
	f := newFixture(t)
	f.registerUser(t, "u-1", "Ada")
	f.submit(t, "u-1", "q-1", 100)

	h := f.badgeHandler(badge.NewEvaluator(badge.DefaultCatalog(), nil), command.NewScoreStatsProvider(f.store.Scores()))
	require.NoError(t, h.Refresh(context.Background(), "u-1"))

	p, err := f.store.Profiles().Get(context.Background(), "u-1")
	require.NoError(t, err)
	assert.True(t, p.HasBadge(badge.QuizNovice))
	assert.True(t, p.HasBadge(badge.PerfectScore))
	assert.False(t, p.HasBadge(badge.QuizMaster))
}

func TestEvaluateBadges_RetakesCountAsCompletions(t *testing.T) {
	f := newFixture(t)
	f.registerUser(t, "u-1", "Ada")
	stats := command.NewScoreStatsProvider(f.store.Scores())
	h := f.badgeHandler(badge.NewEvaluator(badge.DefaultCatalog(), nil), stats)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		f.submit(t, "u-1", "q-1", 60)
	}
	require.NoError(t, h.Refresh(ctx, "u-1"))
	p, err := f.store.Profiles().Get(ctx, "u-1")
	require.NoError(t, err)
	assert.False(t, p.HasBadge(badge.QuizMaster))

	f.submit(t, "u-1", "q-1", 60)
	snap, err := stats.Snapshot(ctx, "u-1")
	require.NoError(t, err)
	assert.Equal(t, 5, snap.TotalQuizCompletions)

	require.NoError(t, h.Refresh(ctx, "u-1"))
	p, err = f.store.Profiles().Get(ctx, "u-1")
	require.NoError(t, err)
	assert.True(t, p.HasBadge(badge.QuizMaster))
	assert.False(t, p.HasBadge(badge.PerfectScore))
}

func TestEvaluateBadges_UnknownProfile(t *testing.T) {
	f := newFixture(t)
	h := f.badgeHandler(badge.NewEvaluator(badge.DefaultCatalog(), nil), nil)

	err := h.Refresh(context.Background(), "ghost")

	assert.ErrorIs(t, err, shared.ErrProfileNotFound)
}
