package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sessionpass/backend/internal/store"
)

var (
	ErrInvalidAmount             = errors.New("amount must be greater than zero")
	ErrInsufficientBalance       = errors.New("insufficient balance")
	ErrAccountNotFound           = errors.New("account not found")
	ErrStoreUnavailable          = errors.New("wallet store unavailable")
	ErrPartialWriteInconsistency = errors.New("stored balance does not match transaction history")
	ErrTransactionNotFound       = errors.New("transaction not found")
	ErrInvalidCursor             = errors.New("invalid pagination cursor")
	ErrInvalidKind               = errors.New("invalid transaction kind")
	ErrInvalidContactNumber      = errors.New("invalid contact number")
	ErrInvalidReceipt            = errors.New("invalid receipt")
)

// InsufficientBalanceError carries the balance the debit was checked against
// so callers can offer a top-up.
type InsufficientBalanceError struct {
	Current   int64
	Requested int64
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance: have %d, need %d", e.Current, e.Requested)
}

func (e *InsufficientBalanceError) Unwrap() error {
	return ErrInsufficientBalance
}

// mapStoreError translates a store failure into the ledger error taxonomy.
// notFound is returned for store.ErrNotFound.
func mapStoreError(err, notFound error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return notFound
	default:
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
}

// withStoreTimeout bounds a store interaction. A zero timeout leaves ctx as is.
func withStoreTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}
