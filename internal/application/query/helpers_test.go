package query_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/learnquest/gamification-core/internal/domain/progress"
	"github.com/learnquest/gamification-core/internal/infrastructure/persistence/memory"
)

var t0 = time.Date(2025, 3, 12, 15, 0, 0, 0, time.UTC)

func seed(t *testing.T, s *memory.Store, id, name string, xp int64) {
	t.Helper()
	p, err := progress.NewProfile(id, name, t0)
	require.NoError(t, err)
	_, err = p.AddXP(xp)
	require.NoError(t, err)
	require.NoError(t, s.Profiles().Create(context.Background(), p))
}

func earn(t *testing.T, s *memory.Store, id string, xp int64, at time.Time) {
	t.Helper()
	require.NoError(t, s.Profiles().AppendXPEvent(context.Background(), progress.XPEvent{
		ID:        id + at.String(),
		UserID:    id,
		Delta:     xp,
		Reason:    progress.ReasonQuizFirstAttempt,
		CreatedAt: at,
	}))
}
