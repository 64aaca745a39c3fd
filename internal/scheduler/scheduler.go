package scheduler

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sessionpass/backend/internal/jobs"
	"go.uber.org/zap"
)

// Scheduler manages cron job scheduling
type Scheduler struct {
	cron   *cron.Cron
	jobs   *jobs.JobRunner
	logger *zap.Logger
}

// NewScheduler builds a UTC, seconds-precision cron and registers the jobs
// enabled in the runner's config. An invalid schedule is an error.
func NewScheduler(jobRunner *jobs.JobRunner, logger *zap.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	c := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithSeconds(),
	)

	s := &Scheduler{
		cron:   c,
		jobs:   jobRunner,
		logger: logger.Named("scheduler"),
	}

	if err := s.registerJobs(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Scheduler) registerJobs() error {
	cfg := s.jobs.Config()

	if !cfg.SweepEnabled {
		s.logger.Info("balance sweep disabled")
		return nil
	}

	// Nightly reconciliation
	if _, err := s.cron.AddFunc(cfg.SweepSchedule, s.jobs.SweepBalances); err != nil {
		return fmt.Errorf("register SweepBalances job with schedule %q: %w", cfg.SweepSchedule, err)
	}

	s.logger.Info("cron jobs registered", zap.Int("jobs", len(s.cron.Entries())), zap.String("sweep_schedule", cfg.SweepSchedule))
	return nil
}

func (s *Scheduler) Start() {
	s.logger.Info("starting cron scheduler")
	s.cron.Start()
}

// Stop waits for running jobs to finish.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping cron scheduler")
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("cron scheduler stopped")
}

// JobCount reports how many jobs are registered.
func (s *Scheduler) JobCount() int {
	return len(s.cron.Entries())
}
