package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/sessionpass/backend/internal/models"
	"github.com/sessionpass/backend/internal/services"
	"go.uber.org/zap"
)

type LedgerWriter interface {
	Deposit(ctx context.Context, req services.LedgerRequest) (*services.LedgerResult, error)
	Debit(ctx context.Context, req services.LedgerRequest) (*services.LedgerResult, error)
	Refund(ctx context.Context, req services.LedgerRequest) (*services.LedgerResult, error)
}

type BalanceReader interface {
	GetBalanceForDisplay(ctx context.Context, accountRef string) services.BalanceView
	GetBalanceForTransaction(ctx context.Context, accountRef string) (int64, error)
}

type TransactionLister interface {
	List(ctx context.Context, accountRef string, filter services.TransactionFilter) (*services.TransactionPage, error)
}

type ReceiptIssuer interface {
	Generate(ctx context.Context, accountRef, transactionID string) (*services.Receipt, error)
	Verify(ctx context.Context, payload string) (*services.ReceiptPayload, error)
}

type Reconciler interface {
	Repair(ctx context.Context, accountRef string) (*services.RepairResult, error)
}

type AccountCreator interface {
	CreateAccount(ctx context.Context, contactNumber string) (*models.Account, error)
}

// ledgerRequestBody is the JSON body of deposit, debit and refund calls.
type ledgerRequestBody struct {
	Amount      int64  `json:"amount" validate:"required,gt=0"`
	Description string `json:"description" validate:"max=200"`
	Reference   string `json:"reference,omitempty" validate:"max=64"`
}

// decodeJSON reads exactly one JSON object into dst. It writes the error
// response itself and reports whether the handler should continue.
func decodeJSON(w http.ResponseWriter, r *http.Request, validator *services.ValidationHelper, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1_048_576)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		services.SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return false
	}

	if err := dec.Decode(&struct{}{}); err != io.EOF {
		services.SendErrorResponse(w, "Request body must only contain a single JSON object", http.StatusBadRequest, nil)
		return false
	}

	if err := validator.ValidateStruct(dst); err != nil {
		services.SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return false
	}
	return true
}

// writeLedgerError maps ledger errors to HTTP responses. Anything the user
// cannot act on becomes a generic "try again".
func writeLedgerError(w http.ResponseWriter, logger *zap.Logger, err error) {
	var insufficient *services.InsufficientBalanceError
	switch {
	case errors.As(err, &insufficient):
		current := insufficient.Current
		services.SendJSON(w, http.StatusPaymentRequired, services.ErrorResponse{
			Error:          "Insufficient balance",
			CurrentBalance: &current,
			TopUpRequired:  true,
		})
	case errors.Is(err, services.ErrInvalidAmount),
		errors.Is(err, services.ErrInvalidKind),
		errors.Is(err, services.ErrInvalidCursor),
		errors.Is(err, services.ErrInvalidContactNumber),
		errors.Is(err, services.ErrInvalidReceipt):
		services.SendErrorResponse(w, err.Error(), http.StatusBadRequest, nil)
	case errors.Is(err, services.ErrAccountNotFound):
		services.SendErrorResponse(w, "Account not found", http.StatusNotFound, nil)
	case errors.Is(err, services.ErrTransactionNotFound):
		services.SendErrorResponse(w, "Transaction not found", http.StatusNotFound, nil)
	case errors.Is(err, services.ErrStoreUnavailable):
		w.Header().Set("Retry-After", "1")
		services.SendErrorResponse(w, "Wallet temporarily unavailable, please try again", http.StatusServiceUnavailable, nil)
	default:
		logger.Error("unhandled wallet error", zap.Error(err))
		services.SendErrorResponse(w, "Something went wrong, please try again", http.StatusInternalServerError, nil)
	}
}
