// Package store is the data-access capability the wallet ledger is written
// against. Backends must run WithAccountLock callbacks atomically: either every
// write made through the Tx is kept or none is.
package store

import (
	"context"
	"errors"

	"github.com/sessionpass/backend/internal/models"
)

var (
	ErrNotFound    = errors.New("store: not found")
	ErrDuplicate   = errors.New("store: duplicate key")
	ErrUnavailable = errors.New("store: unavailable")
	ErrConflict    = errors.New("store: concurrent modification")
)

type Store interface {
	GetAccountByField(ctx context.Context, field models.AccountField, value string) (*models.Account, error)
	CreateAccount(ctx context.Context, account *models.Account) error
	GetTransaction(ctx context.Context, accountID, transactionID string) (*models.Transaction, error)
	// ListTransactions returns history most recent first.
	ListTransactions(ctx context.Context, accountID string, q models.TransactionQuery) ([]models.Transaction, error)
	ListAccountIDs(ctx context.Context, afterID string, limit int) ([]string, error)
	// WithAccountLock holds an exclusive lock on the account for the duration
	// of fn. The account passed to fn was read under that lock.
	WithAccountLock(ctx context.Context, accountID string, fn func(tx Tx, account *models.Account) error) error
}

// Tx is only valid inside a WithAccountLock callback.
type Tx interface {
	UpdateAccountBalance(ctx context.Context, accountID string, newBalance int64) error
	InsertTransaction(ctx context.Context, t *models.Transaction) error
	FindTransactionByReference(ctx context.Context, accountID, reference string, kind models.TransactionKind) (*models.Transaction, error)
	// ReplayTransactions returns history oldest first, ties in insertion order.
	ReplayTransactions(ctx context.Context, accountID string) ([]models.Transaction, error)
}
