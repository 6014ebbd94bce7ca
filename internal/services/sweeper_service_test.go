package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jonathon-AR/resollectAssignment/internal/config"
)

// stubExpirer returns canned results and counts calls
type stubExpirer struct {
	mu      sync.Mutex
	calls   int
	expired int64
	err     error
	block   chan struct{}
	started chan struct{}
}

func (e *stubExpirer) ExpireOverdue(ctx context.Context, now time.Time) (int64, error) {
	e.mu.Lock()
	e.calls++
	e.mu.Unlock()

	if e.started != nil {
		close(e.started)
	}
	if e.block != nil {
		<-e.block
	}
	return e.expired, e.err
}

func (e *stubExpirer) Calls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

// recordingRecorder keeps every result it receives
type recordingRecorder struct {
	mu      sync.Mutex
	results []SweepResult
	err     error
}

func (r *recordingRecorder) RecordSweep(ctx context.Context, result SweepResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, result)
	return r.err
}

func (r *recordingRecorder) Results() []SweepResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]SweepResult(nil), r.results...)
}

func testSweeperConfig() config.SweeperConfig {
	return config.SweeperConfig{
		Enabled:  true,
		Schedule: "@every 1m",
		Timeout:  time.Second,
	}
}

func TestSweeperService_RunOnce(t *testing.T) {
	expirer := &stubExpirer{expired: 3}
	recorder := &recordingRecorder{}
	sweeper, err := NewSweeperService(expirer, testSweeperConfig(), recorder)
	require.NoError(t, err)

	result, err := sweeper.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), result.Expired)
	assert.False(t, result.StartedAt.IsZero())

	results := recorder.Results()
	require.Len(t, results, 1)
	assert.Equal(t, int64(3), results[0].Expired)
	assert.NoError(t, results[0].Err)
}

func TestSweeperService_RunOnceStoreError(t *testing.T) {
	storeErr := errors.New("connection refused")
	expirer := &stubExpirer{err: storeErr}
	recorder := &recordingRecorder{}
	sweeper, err := NewSweeperService(expirer, testSweeperConfig(), recorder)
	require.NoError(t, err)

	_, err = sweeper.RunOnce(context.Background())
	assert.ErrorIs(t, err, storeErr)

	// The sweeper keeps working after a failed run
	expirer.err = nil
	expirer.expired = 1
	result, err := sweeper.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.Expired)

	results := recorder.Results()
	require.Len(t, results, 2)
	assert.ErrorIs(t, results[0].Err, storeErr)
	assert.NoError(t, results[1].Err)
}

func TestSweeperService_RecorderErrorIgnored(t *testing.T) {
	recorder := &recordingRecorder{err: errors.New("influx down")}
	sweeper, err := NewSweeperService(&stubExpirer{expired: 2}, testSweeperConfig(), recorder)
	require.NoError(t, err)

	result, err := sweeper.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), result.Expired)
}

func TestSweeperService_SkipsOverlappingRun(t *testing.T) {
	expirer := &stubExpirer{
		block:   make(chan struct{}),
		started: make(chan struct{}),
	}
	sweeper, err := NewSweeperService(expirer, testSweeperConfig(), nil)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := sweeper.RunOnce(context.Background())
		done <- err
	}()
	<-expirer.started

	_, err = sweeper.RunOnce(context.Background())
	assert.ErrorIs(t, err, ErrSweepInProgress)

	close(expirer.block)
	require.NoError(t, <-done)
	assert.Equal(t, 1, expirer.Calls())
}

func TestSweeperService_RunOnceAppliesTimeout(t *testing.T) {
	var deadline time.Time
	var hasDeadline bool
	expirer := expirerFunc(func(ctx context.Context, now time.Time) (int64, error) {
		deadline, hasDeadline = ctx.Deadline()
		return 0, nil
	})
	sweeper, err := NewSweeperService(expirer, testSweeperConfig(), nil)
	require.NoError(t, err)

	before := time.Now()
	_, err = sweeper.RunOnce(context.Background())
	require.NoError(t, err)
	require.True(t, hasDeadline)
	assert.WithinDuration(t, before.Add(time.Second), deadline, 500*time.Millisecond)
}

func TestSweeperService_InvalidSchedule(t *testing.T) {
	cfg := testSweeperConfig()
	cfg.Schedule = "every minute please"

	_, err := NewSweeperService(&stubExpirer{}, cfg, nil)
	assert.Error(t, err)
}

func TestSweeperService_BlankScheduleUsesDefault(t *testing.T) {
	for _, schedule := range []string{"", "   "} {
		cfg := testSweeperConfig()
		cfg.Enabled = false
		cfg.Schedule = schedule

		sweeper, err := NewSweeperService(&stubExpirer{expired: 1}, cfg, nil)
		require.NoError(t, err, "schedule %q", schedule)
		assert.Equal(t, config.DefaultSweepSchedule, sweeper.schedule)

		result, err := sweeper.RunOnce(context.Background())
		require.NoError(t, err)
		assert.Equal(t, int64(1), result.Expired)
	}
}

func TestSweeperService_ScheduledRun(t *testing.T) {
	expirer := &stubExpirer{expired: 1}
	recorder := &recordingRecorder{}
	cfg := testSweeperConfig()
	cfg.Schedule = "@every 1s"

	sweeper, err := NewSweeperService(expirer, cfg, recorder)
	require.NoError(t, err)
	sweeper.Start()
	defer sweeper.Stop()

	assert.Eventually(t, func() bool {
		return expirer.Calls() >= 1
	}, 3*time.Second, 50*time.Millisecond)
}

func TestSweeperService_WithTaskService(t *testing.T) {
	s, clock := newTestService(t)
	task := createTask(t, s, "overdue", clock.now.Add(-time.Hour))

	sweeper, err := NewSweeperService(s, testSweeperConfig(), nil)
	require.NoError(t, err)

	// RunOnce uses the wall clock, which is well past the test clock
	result, err := sweeper.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.Expired)

	got, err := s.GetTask(context.Background(), task.ID)
	require.NoError(t, err)
	assert.Equal(t, "failure", string(got.Status))
}

// expirerFunc adapts a function to OverdueExpirer
type expirerFunc func(ctx context.Context, now time.Time) (int64, error)

func (f expirerFunc) ExpireOverdue(ctx context.Context, now time.Time) (int64, error) {
	return f(ctx, now)
}
