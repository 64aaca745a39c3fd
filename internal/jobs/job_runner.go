package jobs

import (
	"context"

	"github.com/sessionpass/backend/internal/config"
	"github.com/sessionpass/backend/internal/services"
	"go.uber.org/zap"
)

// Sweeper is the part of the reconciliation service the jobs need.
type Sweeper interface {
	Sweep(ctx context.Context, batchSize int) (*services.SweepReport, error)
}

// JobRunner coordinates scheduled jobs
type JobRunner struct {
	sweeper Sweeper
	config  *config.LedgerConfig
	logger  *zap.Logger
}

func NewJobRunner(sweeper Sweeper, cfg *config.LedgerConfig, logger *zap.Logger) *JobRunner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &JobRunner{
		sweeper: sweeper,
		config:  cfg,
		logger:  logger.Named("jobs"),
	}
}

func (jr *JobRunner) Config() *config.LedgerConfig {
	return jr.config
}

// runWithRecovery wraps job execution with panic recovery
func (jr *JobRunner) runWithRecovery(jobName string, jobFunc func()) {
	defer func() {
		if r := recover(); r != nil {
			jr.logger.Error("job panicked", zap.String("job", jobName), zap.Any("panic", r))
		}
	}()

	jr.logger.Info("starting job", zap.String("job", jobName))
	jobFunc()
	jr.logger.Info("job completed", zap.String("job", jobName))
}

// SweepBalances replays every account's history and repairs drifted
// balances. It is bounded by the configured sweep timeout.
func (jr *JobRunner) SweepBalances() {
	jr.runWithRecovery("SweepBalances", func() {
		ctx, cancel := context.WithTimeout(context.Background(), jr.config.SweepTimeout)
		defer cancel()

		report, err := jr.sweeper.Sweep(ctx, jr.config.SweepBatchSize)
		if err != nil {
			fields := []zap.Field{zap.Error(err)}
			if report != nil {
				fields = append(fields, zap.Int("checked", report.Checked), zap.Int("repaired", report.Repaired))
			}
			jr.logger.Error("balance sweep failed", fields...)
			return
		}
		if report.Failed > 0 {
			jr.logger.Warn("balance sweep finished with failures",
				zap.Int("checked", report.Checked),
				zap.Int("repaired", report.Repaired),
				zap.Int("failed", report.Failed),
			)
		}
	})
}
