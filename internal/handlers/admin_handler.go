package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sessionpass/backend/internal/services"
	"go.uber.org/zap"
)

// AdminHandler serves operator endpoints. {accountRef} accepts a canonical
// id, a short id or a contact number.
type AdminHandler struct {
	accounts     AccountCreator
	ledger       LedgerWriter
	balances     BalanceReader
	transactions TransactionLister
	reconciler   Reconciler
	receipts     ReceiptIssuer
	validator    *services.ValidationHelper
	logger       *zap.Logger
}

func NewAdminHandler(accounts AccountCreator, ledger LedgerWriter, balances BalanceReader, transactions TransactionLister, reconciler Reconciler, receipts ReceiptIssuer, logger *zap.Logger) *AdminHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdminHandler{
		accounts:     accounts,
		ledger:       ledger,
		balances:     balances,
		transactions: transactions,
		reconciler:   reconciler,
		receipts:     receipts,
		validator:    services.NewValidationHelper(),
		logger:       logger,
	}
}

func (h *AdminHandler) Routes(r chi.Router) {
	r.Post("/accounts", h.CreateAccount)
	r.Route("/accounts/{accountRef}", func(r chi.Router) {
		r.Get("/balance", h.GetBalance)
		r.Post("/deposits", h.Deposit)
		r.Post("/refunds", h.Refund)
		r.Post("/repair", h.Repair)
		r.Get("/transactions", h.ListTransactions)
	})
	r.Post("/receipts/verify", h.VerifyReceipt)
}

// PaymentsRoutes mounts the deposit endpoint for the payment processor.
// Members never credit their own wallet.
func (h *AdminHandler) PaymentsRoutes(r chi.Router) {
	r.Post("/accounts/{accountRef}/deposits", h.Deposit)
}

// CreateAccount opens a wallet
// @Summary Create wallet account
// @Description Called by the identity service once a phone number is verified
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{contactNumber=string} true "New account"
// @Success 201 {object} models.Account
// @Failure 400 {object} services.ErrorResponse
// @Failure 403 {object} services.ErrorResponse
// @Router /admin/accounts [post]
func (h *AdminHandler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ContactNumber string `json:"contactNumber" validate:"required,contact_number"`
	}
	if !decodeJSON(w, r, h.validator, &req) {
		return
	}

	account, err := h.accounts.CreateAccount(r.Context(), req.ContactNumber)
	if err != nil {
		writeLedgerError(w, h.logger, err)
		return
	}
	services.SendJSON(w, http.StatusCreated, account)
}

// GetBalance reads the stored balance
// @Summary Get account balance
// @Description Transactional read; unknown accounts and store failures are errors, never zero
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param accountRef path string true "Canonical id, short id or contact number"
// @Success 200 {object} object{accountRef=string,balance=int64}
// @Failure 404 {object} services.ErrorResponse
// @Failure 503 {object} services.ErrorResponse
// @Router /admin/accounts/{accountRef}/balance [get]
func (h *AdminHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	accountRef := chi.URLParam(r, "accountRef")

	balance, err := h.balances.GetBalanceForTransaction(r.Context(), accountRef)
	if err != nil {
		writeLedgerError(w, h.logger, err)
		return
	}
	services.SendJSON(w, http.StatusOK, map[string]any{
		"accountRef": accountRef,
		"balance":    balance,
	})
}

// Deposit credits a settled top-up
// @Summary Deposit
// @Description Credit a top-up the payment processor has already settled. Use the processor's payment id as reference.
// @Tags Payments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param accountRef path string true "Canonical id, short id or contact number"
// @Param request body object{amount=int64,description=string,reference=string} true "Deposit request"
// @Success 201 {object} services.LedgerResult
// @Success 200 {object} services.LedgerResult "Duplicate reference, original transaction returned"
// @Failure 400 {object} services.ErrorResponse
// @Failure 403 {object} services.ErrorResponse
// @Failure 404 {object} services.ErrorResponse
// @Failure 503 {object} services.ErrorResponse
// @Router /payments/accounts/{accountRef}/deposits [post]
func (h *AdminHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	postLedger(w, r, h.validator, h.logger, chi.URLParam(r, "accountRef"), h.ledger.Deposit)
}

// Refund credits an account
// @Summary Issue refund
// @Description Refund a booking or charge. Reuse the booking id as reference to make retries safe.
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param accountRef path string true "Canonical id, short id or contact number"
// @Param request body object{amount=int64,description=string,reference=string} true "Refund request"
// @Success 201 {object} services.LedgerResult
// @Success 200 {object} services.LedgerResult "Duplicate reference, original transaction returned"
// @Failure 400 {object} services.ErrorResponse
// @Failure 404 {object} services.ErrorResponse
// @Router /admin/accounts/{accountRef}/refunds [post]
func (h *AdminHandler) Refund(w http.ResponseWriter, r *http.Request) {
	postLedger(w, r, h.validator, h.logger, chi.URLParam(r, "accountRef"), h.ledger.Refund)
}

// Repair recomputes a balance from history
// @Summary Repair balance
// @Description Replay transaction history and overwrite the stored balance when it has drifted
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param accountRef path string true "Canonical id, short id or contact number"
// @Success 200 {object} services.RepairResult
// @Failure 404 {object} services.ErrorResponse
// @Failure 503 {object} services.ErrorResponse
// @Router /admin/accounts/{accountRef}/repair [post]
func (h *AdminHandler) Repair(w http.ResponseWriter, r *http.Request) {
	result, err := h.reconciler.Repair(r.Context(), chi.URLParam(r, "accountRef"))
	if err != nil {
		writeLedgerError(w, h.logger, err)
		return
	}
	services.SendJSON(w, http.StatusOK, result)
}

// ListTransactions pages through an account's history
// @Summary List account transactions
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param accountRef path string true "Canonical id, short id or contact number"
// @Param kind query string false "DEPOSIT, DEBIT or REFUND"
// @Param limit query int false "Page size"
// @Param cursor query string false "Opaque cursor from a previous page"
// @Success 200 {object} services.TransactionPage
// @Failure 400 {object} services.ErrorResponse
// @Failure 404 {object} services.ErrorResponse
// @Router /admin/accounts/{accountRef}/transactions [get]
func (h *AdminHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	listTransactions(w, r, h.transactions, h.logger, chi.URLParam(r, "accountRef"))
}

// VerifyReceipt checks a scanned receipt
// @Summary Verify receipt
// @Description Front-desk check that a scanned QR payload matches a recorded transaction
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{payload=string} true "Scanned payload"
// @Success 200 {object} services.ReceiptPayload
// @Failure 400 {object} services.ErrorResponse
// @Failure 404 {object} services.ErrorResponse
// @Router /admin/receipts/verify [post]
func (h *AdminHandler) VerifyReceipt(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Payload string `json:"payload" validate:"required"`
	}
	if !decodeJSON(w, r, h.validator, &req) {
		return
	}

	payload, err := h.receipts.Verify(r.Context(), req.Payload)
	if err != nil {
		writeLedgerError(w, h.logger, err)
		return
	}
	services.SendJSON(w, http.StatusOK, payload)
}
