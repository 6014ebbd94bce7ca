package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/Jonathon-AR/resollectAssignment/internal/config"
)

const recordTimeout = 5 * time.Second

// OverdueExpirer is the lifecycle operation the sweeper drives
type OverdueExpirer interface {
	ExpireOverdue(ctx context.Context, now time.Time) (int64, error)
}

// SweepResult describes a single sweep run
type SweepResult struct {
	StartedAt time.Time
	Duration  time.Duration
	Expired   int64
	Err       error
}

// SweepRecorder receives the outcome of every sweep run
type SweepRecorder interface {
	RecordSweep(ctx context.Context, result SweepResult) error
}

// SweeperService periodically expires overdue tasks
type SweeperService struct {
	expirer  OverdueExpirer
	recorder SweepRecorder
	timeout  time.Duration
	schedule string
	cron     *cron.Cron
	running  atomic.Bool
}

// NewSweeperService creates a sweeper and registers its cron job.
// recorder may be nil
func NewSweeperService(expirer OverdueExpirer, cfg config.SweeperConfig, recorder SweepRecorder) (*SweeperService, error) {
	logger := cron.PrintfLogger(log.Default())
	parser := cron.NewParser(
		cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
	)

	schedule := strings.TrimSpace(cfg.Schedule)
	if schedule == "" {
		schedule = config.DefaultSweepSchedule
	}

	s := &SweeperService{
		expirer:  expirer,
		recorder: recorder,
		timeout:  cfg.Timeout,
		schedule: schedule,
		cron: cron.New(
			cron.WithParser(parser),
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
	}

	if _, err := s.cron.AddFunc(schedule, s.runScheduled); err != nil {
		return nil, fmt.Errorf("failed to schedule sweeper %q: %w", schedule, err)
	}

	return s, nil
}

// Start starts the cron scheduler
func (s *SweeperService) Start() {
	s.cron.Start()
	log.Printf("Sweeper cron scheduler started (schedule: %s)", s.schedule)
}

// Stop stops the scheduler and waits for a running sweep to finish
func (s *SweeperService) Stop() {
	<-s.cron.Stop().Done()
	log.Println("Sweeper cron scheduler stopped")
}

func (s *SweeperService) runScheduled() {
	_, _ = s.RunOnce(context.Background())
}

// RunOnce performs a single sweep. It returns ErrSweepInProgress without
// doing anything when another sweep is already running
func (s *SweeperService) RunOnce(ctx context.Context) (SweepResult, error) {
	if !s.running.CompareAndSwap(false, true) {
		log.Printf("WARNING: [SWEEPER] Skipping sweep, previous run still in progress")
		return SweepResult{}, ErrSweepInProgress
	}
	defer s.running.Store(false)

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	startedAt := time.Now()
	expired, err := s.expirer.ExpireOverdue(ctx, startedAt)
	result := SweepResult{
		StartedAt: startedAt.UTC(),
		Duration:  time.Since(startedAt),
		Expired:   expired,
		Err:       err,
	}

	if err != nil {
		log.Printf("ERROR: [SWEEPER] Failed to expire overdue tasks: %v", err)
	} else if expired > 0 {
		log.Printf("[SWEEPER] Marked %d overdue task(s) as failed in %v", expired, result.Duration)
	}

	s.record(result)
	return result, err
}

func (s *SweeperService) record(result SweepResult) {
	if s.recorder == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
	defer cancel()
	if err := s.recorder.RecordSweep(ctx, result); err != nil {
		log.Printf("WARNING: [SWEEPER] Failed to record sweep metrics: %v", err)
	}
}
