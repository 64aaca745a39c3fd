package services

import (
	"context"
	"fmt"
	"time"

	"github.com/sessionpass/backend/internal/audit"
	"github.com/sessionpass/backend/internal/config"
	"github.com/sessionpass/backend/internal/models"
	"github.com/sessionpass/backend/internal/store"
	"go.uber.org/zap"
)

type RepairResult struct {
	AccountID       string `json:"accountId"`
	PreviousBalance int64  `json:"previousBalance"`
	NewBalance      int64  `json:"newBalance"`
	DidChange       bool   `json:"didChange"`

	version int64 // account version after the repair
}

type SweepReport struct {
	Checked  int `json:"checked"`
	Repaired int `json:"repaired"`
	Failed   int `json:"failed"`
}

// ReconciliationService recomputes balances from transaction history, which
// is treated as ground truth.
type ReconciliationService struct {
	store    store.Store
	resolver *IdentifierResolver
	cache    BalanceCache
	events   EventPublisher
	audit    *audit.AuditLogger
	metrics  *Metrics
	config   *config.LedgerConfig
	logger   *zap.Logger
}

func NewReconciliationService(st store.Store, resolver *IdentifierResolver, cache BalanceCache, events EventPublisher, auditLogger *audit.AuditLogger, metrics *Metrics, cfg *config.LedgerConfig, logger *zap.Logger) *ReconciliationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if auditLogger == nil {
		auditLogger = audit.NewAuditLogger(zap.NewNop())
	}
	return &ReconciliationService{
		store:    st,
		resolver: resolver,
		cache:    cache,
		events:   events,
		audit:    auditLogger,
		metrics:  metrics,
		config:   cfg,
		logger:   logger,
	}
}

// ReplayBalance folds history in order: deposits and refunds add, debits
// subtract.
func ReplayBalance(history []models.Transaction) int64 {
	var balance int64
	for _, t := range history {
		balance += t.Kind.Signed(t.Amount)
	}
	return balance
}

// Repair holds the same per-account lock as the ledger writer, so it cannot
// interleave with a deposit or debit on the account.
func (s *ReconciliationService) Repair(ctx context.Context, accountRef string) (*RepairResult, error) {
	accountID, err := s.resolver.Resolve(ctx, accountRef)
	if err != nil {
		s.metrics.ObserveRepair("failed", 0)
		return nil, err
	}
	return s.repairAccount(ctx, accountID)
}

func (s *ReconciliationService) repairAccount(ctx context.Context, accountID string) (*RepairResult, error) {
	storeCtx, cancel := withStoreTimeout(ctx, s.config.StoreTimeout)
	defer cancel()

	result := &RepairResult{AccountID: accountID}
	err := s.store.WithAccountLock(storeCtx, accountID, func(tx store.Tx, account *models.Account) error {
		history, err := tx.ReplayTransactions(storeCtx, account.ID)
		if err != nil {
			return err
		}

		replayed := ReplayBalance(history)
		result.PreviousBalance = account.Balance
		result.NewBalance = replayed
		if replayed == account.Balance {
			return nil
		}

		result.DidChange = true
		result.version = account.Version + 1
		return tx.UpdateAccountBalance(storeCtx, account.ID, replayed)
	})
	if err != nil {
		err = mapStoreError(err, ErrAccountNotFound)
		s.metrics.ObserveRepair("failed", 0)
		s.logger.Error("balance repair failed", zap.String("account_id", accountID), zap.Error(err))
		return nil, err
	}

	if !result.DidChange {
		s.metrics.ObserveRepair("unchanged", 0)
		return result, nil
	}

	drift := result.PreviousBalance - result.NewBalance
	s.metrics.ObserveRepair("repaired", drift)
	s.logger.Warn("balance drift corrected",
		zap.String("account_id", accountID),
		zap.Int64("previous_balance", result.PreviousBalance),
		zap.Int64("new_balance", result.NewBalance),
		zap.Error(ErrPartialWriteInconsistency),
	)
	if result.NewBalance < 0 {
		s.logger.Error("replayed history yields a negative balance",
			zap.String("account_id", accountID),
			zap.Int64("new_balance", result.NewBalance),
		)
	}
	s.audit.LogRepair(accountID, result.PreviousBalance, result.NewBalance)
	s.afterRepair(ctx, result)
	return result, nil
}

func (s *ReconciliationService) afterRepair(ctx context.Context, result *RepairResult) {
	ctx, cancel := withStoreTimeout(context.WithoutCancel(ctx), s.config.StoreTimeout)
	defer cancel()

	cacheCommittedBalance(ctx, s.cache, s.logger, result.AccountID, result.NewBalance, result.version)
	if s.events != nil {
		event := LedgerEvent{
			Type:       EventBalanceRepaired,
			AccountID:  result.AccountID,
			Amount:     result.NewBalance - result.PreviousBalance,
			Balance:    result.NewBalance,
			OccurredAt: time.Now().UTC(),
		}
		if err := s.events.Publish(ctx, event); err != nil {
			s.logger.Warn("ledger event publish failed", zap.String("account_id", result.AccountID), zap.Error(err))
		}
	}
}

// Sweep repairs every account, batchSize ids at a time. A failure on one
// account is counted and the sweep moves on; only listing failures or
// cancellation stop it.
func (s *ReconciliationService) Sweep(ctx context.Context, batchSize int) (*SweepReport, error) {
	if batchSize <= 0 {
		batchSize = s.config.SweepBatchSize
	}

	report := &SweepReport{}
	after := ""
	for {
		if err := ctx.Err(); err != nil {
			return report, fmt.Errorf("%w: sweep interrupted: %v", ErrStoreUnavailable, err)
		}

		listCtx, cancel := withStoreTimeout(ctx, s.config.StoreTimeout)
		ids, err := s.store.ListAccountIDs(listCtx, after, batchSize)
		cancel()
		if err != nil {
			return report, mapStoreError(err, ErrAccountNotFound)
		}
		if len(ids) == 0 {
			break
		}

		for _, id := range ids {
			report.Checked++
			result, err := s.repairAccount(ctx, id)
			if err != nil {
				report.Failed++
				continue
			}
			if result.DidChange {
				report.Repaired++
			}
		}

		after = ids[len(ids)-1]
		if len(ids) < batchSize {
			break
		}
	}

	s.metrics.SweepCompleted(time.Now())
	s.logger.Info("reconciliation sweep finished",
		zap.Int("checked", report.Checked),
		zap.Int("repaired", report.Repaired),
		zap.Int("failed", report.Failed),
	)
	return report, nil
}
