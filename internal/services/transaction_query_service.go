package services

import (
	"context"

	"github.com/sessionpass/backend/internal/config"
	"github.com/sessionpass/backend/internal/models"
	"github.com/sessionpass/backend/internal/store"
	"go.uber.org/zap"
)

type TransactionFilter struct {
	Kind   string // any case; empty for all kinds
	Limit  int
	Cursor string
}

type TransactionPage struct {
	Transactions []models.Transaction `json:"transactions"`
	NextCursor   string               `json:"nextCursor,omitempty"`
}

type TransactionQueryService struct {
	store    store.Store
	resolver *IdentifierResolver
	config   *config.LedgerConfig
	logger   *zap.Logger
}

func NewTransactionQueryService(st store.Store, resolver *IdentifierResolver, cfg *config.LedgerConfig, logger *zap.Logger) *TransactionQueryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TransactionQueryService{
		store:    st,
		resolver: resolver,
		config:   cfg,
		logger:   logger,
	}
}

// List returns one page of history, most recent first.
func (s *TransactionQueryService) List(ctx context.Context, accountRef string, filter TransactionFilter) (*TransactionPage, error) {
	query := models.TransactionQuery{Limit: s.clampLimit(filter.Limit)}

	if filter.Kind != "" {
		kind, err := models.ParseTransactionKind(filter.Kind)
		if err != nil {
			return nil, ErrInvalidKind
		}
		query.Kind = kind
	}
	if filter.Cursor != "" {
		cursor, err := models.DecodeCursor(filter.Cursor)
		if err != nil {
			return nil, ErrInvalidCursor
		}
		query.Before = cursor
	}

	accountID, err := s.resolver.Resolve(ctx, accountRef)
	if err != nil {
		return nil, err
	}

	ctx, cancel := withStoreTimeout(ctx, s.config.StoreTimeout)
	defer cancel()

	// One extra row tells us whether another page exists.
	wanted := query.Limit
	query.Limit = wanted + 1
	transactions, err := s.store.ListTransactions(ctx, accountID, query)
	if err != nil {
		return nil, mapStoreError(err, ErrAccountNotFound)
	}

	page := &TransactionPage{Transactions: transactions}
	if len(transactions) > wanted {
		page.Transactions = transactions[:wanted]
		page.NextCursor = models.CursorAfter(page.Transactions[wanted-1]).Encode()
	}
	if page.Transactions == nil {
		page.Transactions = []models.Transaction{}
	}
	return page, nil
}

func (s *TransactionQueryService) Get(ctx context.Context, accountRef, transactionID string) (*models.Transaction, error) {
	accountID, err := s.resolver.Resolve(ctx, accountRef)
	if err != nil {
		return nil, err
	}

	ctx, cancel := withStoreTimeout(ctx, s.config.StoreTimeout)
	defer cancel()

	txn, err := s.store.GetTransaction(ctx, accountID, transactionID)
	if err != nil {
		return nil, mapStoreError(err, ErrTransactionNotFound)
	}
	return txn, nil
}

func (s *TransactionQueryService) clampLimit(limit int) int {
	switch {
	case limit <= 0:
		limit = s.config.DefaultPageSize
	case limit > s.config.MaxPageSize:
		limit = s.config.MaxPageSize
	}
	if limit < 1 {
		limit = 1
	}
	return limit
}
