package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	mW "github.com/sessionpass/backend/internal/middleware"
	"github.com/sessionpass/backend/internal/services"
	"go.uber.org/zap"
)

// WalletHandler serves the signed-in member's own wallet.
type WalletHandler struct {
	ledger       LedgerWriter
	balances     BalanceReader
	transactions TransactionLister
	receipts     ReceiptIssuer
	validator    *services.ValidationHelper
	logger       *zap.Logger
}

func NewWalletHandler(ledger LedgerWriter, balances BalanceReader, transactions TransactionLister, receipts ReceiptIssuer, logger *zap.Logger) *WalletHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WalletHandler{
		ledger:       ledger,
		balances:     balances,
		transactions: transactions,
		receipts:     receipts,
		validator:    services.NewValidationHelper(),
		logger:       logger,
	}
}

func (h *WalletHandler) Routes(r chi.Router) {
	r.Get("/balance", h.GetBalance)
	r.Post("/debits", h.Debit)
	r.Get("/transactions", h.ListTransactions)
	r.Get("/transactions/{txId}/receipt", h.GetReceipt)
}

// GetBalance returns the wallet balance for display
// @Summary Get wallet balance
// @Description Display balance of the signed-in account. available is false when the balance could not be read.
// @Tags Wallet
// @Produce json
// @Security BearerAuth
// @Success 200 {object} services.BalanceView
// @Failure 401 {object} services.ErrorResponse
// @Router /wallet/balance [get]
func (h *WalletHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	accountID, ok := mW.AccountIDFromContext(r.Context())
	if !ok {
		services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	services.SendJSON(w, http.StatusOK, h.balances.GetBalanceForDisplay(r.Context(), accountID))
}

// Debit pays for a session from the wallet
// @Summary Debit
// @Description Charge the signed-in account, e.g. for a booking
// @Tags Wallet
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{amount=int64,description=string,reference=string} true "Debit request"
// @Success 201 {object} services.LedgerResult
// @Success 200 {object} services.LedgerResult "Duplicate reference, original transaction returned"
// @Failure 400 {object} services.ErrorResponse
// @Failure 402 {object} services.ErrorResponse "Insufficient balance, includes currentBalance"
// @Failure 503 {object} services.ErrorResponse
// @Router /wallet/debits [post]
func (h *WalletHandler) Debit(w http.ResponseWriter, r *http.Request) {
	h.post(w, r, h.ledger.Debit)
}

func (h *WalletHandler) post(w http.ResponseWriter, r *http.Request, op ledgerOperation) {
	accountID, ok := mW.AccountIDFromContext(r.Context())
	if !ok {
		services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}
	postLedger(w, r, h.validator, h.logger, accountID, op)
}

// ListTransactions pages through wallet history
// @Summary List transactions
// @Description Most recent first. Pass nextCursor back as cursor for the next page.
// @Tags Wallet
// @Produce json
// @Security BearerAuth
// @Param kind query string false "DEPOSIT, DEBIT or REFUND"
// @Param limit query int false "Page size"
// @Param cursor query string false "Opaque cursor from a previous page"
// @Success 200 {object} services.TransactionPage
// @Failure 400 {object} services.ErrorResponse
// @Router /wallet/transactions [get]
func (h *WalletHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	accountID, ok := mW.AccountIDFromContext(r.Context())
	if !ok {
		services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}
	listTransactions(w, r, h.transactions, h.logger, accountID)
}

// GetReceipt renders a check-in QR code for a transaction
// @Summary Transaction receipt
// @Description QR code for front-desk check-in
// @Tags Wallet
// @Produce json
// @Security BearerAuth
// @Param txId path string true "Transaction ID"
// @Success 200 {object} services.Receipt
// @Failure 404 {object} services.ErrorResponse
// @Router /wallet/transactions/{txId}/receipt [get]
func (h *WalletHandler) GetReceipt(w http.ResponseWriter, r *http.Request) {
	accountID, ok := mW.AccountIDFromContext(r.Context())
	if !ok {
		services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	receipt, err := h.receipts.Generate(r.Context(), accountID, chi.URLParam(r, "txId"))
	if err != nil {
		writeLedgerError(w, h.logger, err)
		return
	}
	services.SendJSON(w, http.StatusOK, receipt)
}

type ledgerOperation func(ctx context.Context, req services.LedgerRequest) (*services.LedgerResult, error)

func postLedger(w http.ResponseWriter, r *http.Request, validator *services.ValidationHelper, logger *zap.Logger, accountRef string, op ledgerOperation) {
	var body ledgerRequestBody
	if !decodeJSON(w, r, validator, &body) {
		return
	}

	result, err := op(r.Context(), services.LedgerRequest{
		AccountRef:  accountRef,
		Amount:      body.Amount,
		Description: body.Description,
		Reference:   body.Reference,
	})
	if err != nil {
		writeLedgerError(w, logger, err)
		return
	}

	status := http.StatusCreated
	if result.Duplicate {
		status = http.StatusOK
	}
	services.SendJSON(w, status, result)
}

func listTransactions(w http.ResponseWriter, r *http.Request, transactions TransactionLister, logger *zap.Logger, accountRef string) {
	q := r.URL.Query()
	filter := services.TransactionFilter{
		Kind:   q.Get("kind"),
		Cursor: q.Get("cursor"),
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			services.SendErrorResponse(w, "limit must be an integer", http.StatusBadRequest, nil)
			return
		}
		filter.Limit = limit
	}

	page, err := transactions.List(r.Context(), accountRef, filter)
	if err != nil {
		writeLedgerError(w, logger, err)
		return
	}
	services.SendJSON(w, http.StatusOK, page)
}
