package command_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/learnquest/gamification-core/internal/application/command"
	"github.com/learnquest/gamification-core/internal/domain/scoring"
	"github.com/learnquest/gamification-core/internal/domain/shared"
)

func TestRecordQuizResult_ConcurrentSubmissionsSameQuiz(t *testing.T) {
	f := newFixture(t)
	f.registerUser(t, "u-1", "Ada")
	ctx := context.Background()

	scores := []float64{55, 65, 75, 85, 95, 100, 60, 70, 90, 50}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		attempts = map[int]bool{}
		awarded  int64
		errs     []error
	)
	for _, score := range scores {
		wg.Add(1)
		go func(score float64) {
			defer wg.Done()
			res, err := f.quiz.Handle(ctx, command.RecordQuizResultCommand{UserID: "u-1", QuizID: "q-1", ScorePercentage: score})
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			attempts[res.AttemptNumber] = true
			awarded += res.XPAwarded
		}(score)
	}
	wg.Wait()

	require.Empty(t, errs)
	assert.Len(t, attempts, len(scores), "attempt numbers must not repeat")
	for n := 1; n <= len(scores); n++ {
		assert.True(t, attempts[n], "attempt %d", n)
	}
	assert.Equal(t, scoring.Tier(100), awarded)

	p, err := f.store.Profiles().Get(ctx, "u-1")
	require.NoError(t, err)
	assert.Equal(t, scoring.Tier(100), p.XP)
	assert.Equal(t, 1, p.Streak)

	records, err := f.store.Scores().ListByUser(ctx, "u-1")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, len(scores), records[0].TotalAttempts)
	assert.Equal(t, 100.0, records[0].BestScorePercentage)
	assert.Equal(t, scoring.Tier(100), records[0].BestXPAwarded)
}

func TestRecordActivity_ConcurrentSameDay(t *testing.T) {
	f := newFixture(t)
	f.registerUser(t, "u-1", "Ada")
	ctx := context.Background()

	const calls = 12
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		changed int
		errs    []error
	)
	for i := 0; i < calls; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			at := day0.Add(time.Duration(i) * time.Minute)
			res, err := f.activity.Handle(ctx, command.RecordActivityCommand{UserID: "u-1", Date: at})
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			if res.Changed {
				changed++
			}
		}(i)
	}
	wg.Wait()

	require.Empty(t, errs)
	assert.Equal(t, 1, changed)
	assert.Len(t, f.pub.ofType(shared.EventStreakUpdated), 1)

	p, err := f.store.Profiles().Get(ctx, "u-1")
	require.NoError(t, err)
	assert.Equal(t, 1, p.Streak)
	assert.Equal(t, 1, p.BestStreak)
}
