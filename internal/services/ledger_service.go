package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sessionpass/backend/internal/audit"
	"github.com/sessionpass/backend/internal/config"
	"github.com/sessionpass/backend/internal/models"
	"github.com/sessionpass/backend/internal/store"
	"go.uber.org/zap"
)

type LedgerRequest struct {
	AccountRef  string
	Amount      int64
	Description string
	Reference   string
}

type LedgerResult struct {
	Balance       int64  `json:"balance"`
	TransactionID string `json:"transactionId"`
	Duplicate     bool   `json:"duplicate"`
}

// LedgerService is the only writer of account balances. Each operation
// updates the balance and appends the transaction in one store transaction
// under the account's lock.
type LedgerService struct {
	store    store.Store
	resolver *IdentifierResolver
	cache    BalanceCache
	events   EventPublisher
	audit    *audit.AuditLogger
	metrics  *Metrics
	config   *config.LedgerConfig
	logger   *zap.Logger
	now      func() time.Time
}

func NewLedgerService(st store.Store, resolver *IdentifierResolver, cache BalanceCache, events EventPublisher, auditLogger *audit.AuditLogger, metrics *Metrics, cfg *config.LedgerConfig, logger *zap.Logger) *LedgerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if auditLogger == nil {
		auditLogger = audit.NewAuditLogger(zap.NewNop())
	}
	return &LedgerService{
		store:    st,
		resolver: resolver,
		cache:    cache,
		events:   events,
		audit:    auditLogger,
		metrics:  metrics,
		config:   cfg,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *LedgerService) Deposit(ctx context.Context, req LedgerRequest) (*LedgerResult, error) {
	return s.post(ctx, models.KindDeposit, req)
}

// Debit fails with *InsufficientBalanceError when the balance is below the
// amount; nothing is written in that case.
func (s *LedgerService) Debit(ctx context.Context, req LedgerRequest) (*LedgerResult, error) {
	return s.post(ctx, models.KindDebit, req)
}

// Refund has no sufficiency check.
func (s *LedgerService) Refund(ctx context.Context, req LedgerRequest) (*LedgerResult, error) {
	return s.post(ctx, models.KindRefund, req)
}

func (s *LedgerService) post(ctx context.Context, kind models.TransactionKind, req LedgerRequest) (result *LedgerResult, err error) {
	defer func() {
		s.metrics.ObserveOperation(string(kind), operationResult(err))
	}()

	if req.Amount <= 0 {
		return nil, ErrInvalidAmount
	}

	accountID, err := s.resolver.Resolve(ctx, req.AccountRef)
	if err != nil {
		return nil, err
	}

	storeCtx, cancel := withStoreTimeout(ctx, s.config.StoreTimeout)
	defer cancel()

	result = &LedgerResult{}
	var recorded *models.Transaction
	var version int64

	err = s.store.WithAccountLock(storeCtx, accountID, func(tx store.Tx, account *models.Account) error {
		if req.Reference != "" {
			existing, err := tx.FindTransactionByReference(storeCtx, account.ID, req.Reference, kind)
			if err == nil {
				result.Balance = account.Balance
				result.TransactionID = existing.ID
				result.Duplicate = true
				return nil
			}
			if !errors.Is(err, store.ErrNotFound) {
				return err
			}
		}

		if kind == models.KindDebit && account.Balance < req.Amount {
			return &InsufficientBalanceError{Current: account.Balance, Requested: req.Amount}
		}
		newBalance := account.Balance + kind.Signed(req.Amount)

		txn := &models.Transaction{
			ID:          uuid.NewString(),
			AccountID:   account.ID,
			Amount:      req.Amount,
			Kind:        kind,
			Description: req.Description,
			Reference:   req.Reference,
			CreatedAt:   s.now().UTC(),
		}
		if err := tx.UpdateAccountBalance(storeCtx, account.ID, newBalance); err != nil {
			return err
		}
		if err := tx.InsertTransaction(storeCtx, txn); err != nil {
			return err
		}

		result.Balance = newBalance
		result.TransactionID = txn.ID
		recorded = txn
		version = account.Version + 1
		return nil
	})

	if err != nil {
		var insufficient *InsufficientBalanceError
		if errors.As(err, &insufficient) {
			s.logger.Info("debit declined",
				zap.String("account_id", accountID),
				zap.Int64("amount", req.Amount),
				zap.Int64("balance", insufficient.Current),
			)
			return nil, err
		}
		// A reference clash here means a concurrent writer recorded the same
		// event first; the caller's retry will see it as a duplicate.
		err = mapStoreError(err, ErrAccountNotFound)
		s.logger.Error("ledger write failed",
			zap.String("account_id", accountID),
			zap.String("kind", string(kind)),
			zap.Int64("amount", req.Amount),
			zap.Error(err),
		)
		s.audit.LogError("", accountID, err)
		return nil, err
	}

	if result.Duplicate {
		s.logger.Info("duplicate ledger request",
			zap.String("account_id", accountID),
			zap.String("kind", string(kind)),
			zap.String("reference", req.Reference),
			zap.String("transaction_id", result.TransactionID),
		)
		return result, nil
	}

	s.afterCommit(ctx, recorded, result.Balance, version)
	return result, nil
}

// afterCommit runs side effects of a committed write. Their failures are
// logged only; the ledger write already stands.
func (s *LedgerService) afterCommit(ctx context.Context, txn *models.Transaction, balance, version int64) {
	s.logger.Info("ledger transaction recorded",
		zap.String("transaction_id", txn.ID),
		zap.String("account_id", txn.AccountID),
		zap.String("kind", string(txn.Kind)),
		zap.Int64("amount", txn.Amount),
		zap.Int64("balance", balance),
	)
	s.audit.LogLedgerOperation(txn.ID, txn.AccountID, string(txn.Kind), txn.Amount, balance, txn.Reference)

	ctx, cancel := withStoreTimeout(context.WithoutCancel(ctx), s.config.StoreTimeout)
	defer cancel()

	cacheCommittedBalance(ctx, s.cache, s.logger, txn.AccountID, balance, version)

	if s.events != nil {
		event := LedgerEvent{
			Type:          EventTransactionRecorded,
			AccountID:     txn.AccountID,
			TransactionID: txn.ID,
			Kind:          txn.Kind,
			Amount:        txn.Amount,
			Balance:       balance,
			Reference:     txn.Reference,
			OccurredAt:    txn.CreatedAt,
		}
		if err := s.events.Publish(ctx, event); err != nil {
			s.logger.Warn("ledger event publish failed", zap.String("transaction_id", txn.ID), zap.Error(err))
		}
	}
}
