package services

import (
	"context"

	"github.com/sessionpass/backend/internal/config"
	"github.com/sessionpass/backend/internal/models"
	"github.com/sessionpass/backend/internal/store"
	"go.uber.org/zap"
)

// BalanceView is a balance for display. Available is false when the balance
// could not be read and Balance is a placeholder zero.
type BalanceView struct {
	Balance   int64 `json:"balance"`
	Available bool  `json:"available"`
}

type BalanceReader struct {
	store    store.Store
	resolver *IdentifierResolver
	cache    BalanceCache
	metrics  *Metrics
	config   *config.LedgerConfig
	logger   *zap.Logger
}

func NewBalanceReader(st store.Store, resolver *IdentifierResolver, cache BalanceCache, metrics *Metrics, cfg *config.LedgerConfig, logger *zap.Logger) *BalanceReader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BalanceReader{
		store:    st,
		resolver: resolver,
		cache:    cache,
		metrics:  metrics,
		config:   cfg,
		logger:   logger,
	}
}

// GetBalanceForDisplay never fails. Any resolution or store error yields
// {0, false}; callers must not use the result for a payment decision.
func (r *BalanceReader) GetBalanceForDisplay(ctx context.Context, accountRef string) BalanceView {
	if balance, ok := r.cachedBalance(ctx, accountRef); ok {
		return BalanceView{Balance: balance, Available: true}
	}

	account, err := r.resolver.ResolveAccount(ctx, accountRef)
	if err != nil {
		r.logger.Warn("display balance unavailable",
			zap.String("account_ref", accountRef),
			zap.Error(err),
		)
		r.metrics.DisplayFallback()
		return BalanceView{Balance: 0, Available: false}
	}

	// The snapshot may already be stale; the version guard keeps it from
	// replacing a balance a concurrent write has cached.
	if r.cache != nil {
		if err := r.cache.SetBalance(ctx, account.ID, account.Balance, account.Version); err != nil {
			r.logger.Debug("balance cache write failed", zap.String("account_id", account.ID), zap.Error(err))
		}
	}
	return BalanceView{Balance: account.Balance, Available: true}
}

func (r *BalanceReader) cachedBalance(ctx context.Context, accountRef string) (int64, bool) {
	if r.cache == nil {
		return 0, false
	}
	accountID := accountRef
	if id, ok, err := r.cache.GetAlias(ctx, accountRef); err == nil && ok {
		accountID = id
	}
	balance, ok, err := r.cache.GetBalance(ctx, accountID)
	if err != nil || !ok {
		return 0, false
	}
	return balance, true
}

// GetBalanceForTransaction reads the stored balance straight from the store.
// It returns ErrAccountNotFound or ErrStoreUnavailable rather than a default.
func (r *BalanceReader) GetBalanceForTransaction(ctx context.Context, accountRef string) (int64, error) {
	accountID, err := r.resolver.Resolve(ctx, accountRef)
	if err != nil {
		return 0, err
	}

	ctx, cancel := withStoreTimeout(ctx, r.config.StoreTimeout)
	defer cancel()

	account, err := r.store.GetAccountByField(ctx, models.AccountFieldID, accountID)
	if err != nil {
		return 0, mapStoreError(err, ErrAccountNotFound)
	}
	return account.Balance, nil
}
