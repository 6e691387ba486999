package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/learnquest/gamification-core/internal/infrastructure/persistence/postgres"
	"github.com/learnquest/gamification-core/pkg/retry"
)

func TestConnect_MalformedURLIsNotRetried(t *testing.T) {
	cfg := postgres.DefaultConfig()
	cfg.URL = "postgres://app@localhost:notaport/gamification"

	retries := 0
	db, err := postgres.Connect(context.Background(), cfg,
		retry.WithMaxAttempts(5),
		retry.WithInitialDelay(time.Second),
		retry.WithOnRetry(func(int, error, time.Duration) { retries++ }),
	)

	require.Error(t, err)
	assert.Nil(t, db)
	assert.Zero(t, retries)
}
