// Command reconcile replays transaction history and repairs stored balances,
// either for one account or for every account.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sessionpass/backend/internal/audit"
	"github.com/sessionpass/backend/internal/config"
	"github.com/sessionpass/backend/internal/database"
	"github.com/sessionpass/backend/internal/services"
	"github.com/sessionpass/backend/internal/store"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

func main() {
	configErr := config.Load()

	logger, err := config.NewLogger(viper.GetString("log.level"), viper.GetString("log.format"))
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	if configErr != nil {
		logger.Debug("no .env file, using environment", zap.Error(configErr))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	connectCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	db, err := database.Open(connectCtx, database.GetConfig(), logger)
	cancel()
	if err != nil {
		logger.Error("failed to initialize database", zap.Error(err))
		stop()
		logger.Sync()
		os.Exit(exitFailure)
	}

	ledgerCfg := config.LoadLedgerConfig()

	// Repairs must refresh the balances the server caches for display.
	var cache services.BalanceCache
	redisClient := database.InitRedis(ctx, logger)
	if redisClient != nil {
		cache = services.NewRedisBalanceCache(redisClient, ledgerCfg.BalanceCacheTTL, ledgerCfg.AliasCacheTTL)
	}

	code := run(ctx, os.Args[1:], store.NewPostgresStore(db), cache, ledgerCfg, logger, os.Stdout)

	if redisClient != nil {
		redisClient.Close()
	}
	db.Close()
	stop()
	logger.Sync()
	os.Exit(code)
}

// run executes one reconcile invocation and returns the process exit code.
func run(ctx context.Context, args []string, st store.Store, cache services.BalanceCache, cfg *config.LedgerConfig, logger *zap.Logger, out io.Writer) int {
	if logger == nil {
		logger = zap.NewNop()
	}

	fs := flag.NewFlagSet("reconcile", flag.ContinueOnError)
	fs.SetOutput(out)
	accountRef := fs.String("account", "", "Repair a single account (canonical id, short id or contact number)")
	all := fs.Bool("all", false, "Repair every account")
	batchSize := fs.Int("batch", cfg.SweepBatchSize, "Accounts per page when sweeping")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if (*accountRef == "") == !*all {
		fmt.Fprintln(out, "exactly one of -account or -all is required")
		fs.Usage()
		return exitUsage
	}

	resolver := services.NewIdentifierResolver(st, cache, cfg, logger)
	reconciler := services.NewReconciliationService(st, resolver, cache, nil, audit.NewAuditLogger(logger), nil, cfg, logger)

	if *all {
		sweepCtx, cancel := context.WithTimeout(ctx, cfg.SweepTimeout)
		defer cancel()

		report, err := reconciler.Sweep(sweepCtx, *batchSize)
		if report != nil {
			fmt.Fprintf(out, "checked=%d repaired=%d failed=%d\n", report.Checked, report.Repaired, report.Failed)
		}
		if err != nil {
			logger.Error("sweep failed", zap.Error(err))
			return exitFailure
		}
		if report.Failed > 0 {
			return exitFailure
		}
		return exitOK
	}

	result, err := reconciler.Repair(ctx, *accountRef)
	if err != nil {
		if errors.Is(err, services.ErrAccountNotFound) {
			fmt.Fprintf(out, "account %q not found\n", *accountRef)
		}
		logger.Error("repair failed", zap.String("account_ref", *accountRef), zap.Error(err))
		return exitFailure
	}
	fmt.Fprintf(out, "account=%s previous=%d new=%d changed=%t\n",
		result.AccountID, result.PreviousBalance, result.NewBalance, result.DidChange)
	return exitOK
}
