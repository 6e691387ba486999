package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type funcJob struct {
	name string
	fn   func(ctx context.Context) error
}

func (j *funcJob) Name() string                  { return j.name }
func (j *funcJob) Description() string           { return "test job " + j.name }
func (j *funcJob) Run(ctx context.Context) error { return j.fn(ctx) }

func TestRegister_Validation(t *testing.T) {
	s := New(DefaultConfig())
	job := &funcJob{name: "a", fn: func(context.Context) error { return nil }}

	assert.ErrorIs(t, s.Register(nil, Every(time.Second)), ErrNilJob)
	assert.ErrorIs(t, s.Register(job, nil), ErrNilSchedule)
	require.NoError(t, s.Register(job, Every(time.Second)))
	assert.ErrorIs(t, s.Register(job, Every(time.Second)), ErrJobAlreadyExists)
}

func TestRunNow_RecordsResult(t *testing.T) {
	s := New(DefaultConfig())
	boom := errors.New("boom")
	require.NoError(t, s.Register(&funcJob{name: "ok", fn: func(context.Context) error { return nil }}, Every(time.Hour)))
	require.NoError(t, s.Register(&funcJob{name: "bad", fn: func(context.Context) error { return boom }}, Every(time.Hour)))

	res, err := s.RunNow(context.Background(), "ok")
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.True(t, res.Manual)

	_, err = s.RunNow(context.Background(), "bad")
	assert.ErrorIs(t, err, boom)

	_, err = s.RunNow(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrJobNotFound)

	jobs := s.ListJobs()
	require.Len(t, jobs, 2)
	assert.Equal(t, "bad", jobs[0].Name)
	assert.EqualValues(t, 1, jobs[0].FailCount)
	assert.EqualValues(t, 1, jobs[1].RunCount)
	assert.Len(t, s.History(0), 2)
}

func TestRunNow_RecoversPanic(t *testing.T) {
	s := New(DefaultConfig())
	require.NoError(t, s.Register(&funcJob{name: "panic", fn: func(context.Context) error { panic("oops") }}, Every(time.Hour)))

	_, err := s.RunNow(context.Background(), "panic")
	assert.ErrorIs(t, err, ErrJobPanicked)
}

func TestRunNow_AppliesJobTimeout(t *testing.T) {
	cfg := DefaultConfig()
	cfg.JobTimeout = 10 * time.Millisecond
	s := New(cfg)
	require.NoError(t, s.Register(&funcJob{name: "slow", fn: func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}}, Every(time.Hour)))

	_, err := s.RunNow(context.Background(), "slow")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestStartStop_RunsDueJobs(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TickInterval = 5 * time.Millisecond
	cfg.RunOnStart = true
	s := New(cfg)

	var runs atomic.Int32
	require.NoError(t, s.Register(&funcJob{name: "tick", fn: func(context.Context) error {
		runs.Add(1)
		return nil
	}}, Every(10*time.Millisecond)))

	require.NoError(t, s.Start(context.Background()))
	assert.ErrorIs(t, s.Start(context.Background()), ErrSchedulerAlreadyRunning)

	require.Eventually(t, func() bool { return runs.Load() >= 2 }, time.Second, 5*time.Millisecond)

	require.NoError(t, s.Stop())
	assert.False(t, s.IsRunning())
	assert.ErrorIs(t, s.Stop(), ErrSchedulerNotRunning)
}

func TestSetEnabled(t *testing.T) {
	s := New(DefaultConfig())
	require.NoError(t, s.Register(&funcJob{name: "a", fn: func(context.Context) error { return nil }}, Every(time.Hour)))

	require.NoError(t, s.SetEnabled("a", false))
	assert.False(t, s.ListJobs()[0].Enabled)
	assert.ErrorIs(t, s.SetEnabled("b", true), ErrJobNotFound)
}

func TestEvery_DefaultsAndString(t *testing.T) {
	assert.Equal(t, time.Minute, Every(0).Interval)
	assert.Equal(t, "@every 30s", Every(30*time.Second).String())

	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, now.Add(time.Hour), Every(time.Hour).Next(now))
}
