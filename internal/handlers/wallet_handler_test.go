package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	mW "github.com/sessionpass/backend/internal/middleware"
	"github.com/sessionpass/backend/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type walletMocks struct {
	ledger       *MockLedger
	balances     *MockBalances
	transactions *MockTransactions
	receipts     *MockReceipts
}

func newWalletRouter(t *testing.T, accountID string) (http.Handler, *walletMocks) {
	t.Helper()
	m := &walletMocks{
		ledger:       new(MockLedger),
		balances:     new(MockBalances),
		transactions: new(MockTransactions),
		receipts:     new(MockReceipts),
	}
	h := NewWalletHandler(m.ledger, m.balances, m.transactions, m.receipts, nil)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if accountID != "" {
				req = req.WithContext(mW.WithAccount(req.Context(), accountID, ""))
			}
			next.ServeHTTP(w, req)
		})
	})
	r.Route("/api/v1/wallet", h.Routes)
	return r, m
}

func serve(h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestWalletHandler_GetBalance(t *testing.T) {
	router, m := newWalletRouter(t, "acc-1")
	m.balances.On("GetBalanceForDisplay", mock.Anything, "acc-1").Return(services.BalanceView{Balance: 0, Available: false})

	rec := serve(router, http.MethodGet, "/api/v1/wallet/balance", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"balance":0,"available":false}`, rec.Body.String())
}

func TestWalletHandler_RequiresAccount(t *testing.T) {
	router, _ := newWalletRouter(t, "")

	rec := serve(router, http.MethodGet, "/api/v1/wallet/balance", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestWalletHandler_Debit(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		setup      func(m *walletMocks)
		wantStatus int
		check      func(t *testing.T, rec *httptest.ResponseRecorder)
	}{
		{
			name: "success",
			body: `{"amount":150,"description":"Booking payment","reference":"BOOK-1"}`,
			setup: func(m *walletMocks) {
				m.ledger.On("Debit", mock.Anything, services.LedgerRequest{
					AccountRef: "acc-1", Amount: 150, Description: "Booking payment", Reference: "BOOK-1",
				}).Return(&services.LedgerResult{Balance: 50, TransactionID: "tx-1"}, nil)
			},
			wantStatus: http.StatusCreated,
			check: func(t *testing.T, rec *httptest.ResponseRecorder) {
				assert.JSONEq(t, `{"balance":50,"transactionId":"tx-1","duplicate":false}`, rec.Body.String())
			},
		},
		{
			name: "duplicate reference",
			body: `{"amount":150,"reference":"BOOK-1"}`,
			setup: func(m *walletMocks) {
				m.ledger.On("Debit", mock.Anything, mock.Anything).
					Return(&services.LedgerResult{Balance: 50, TransactionID: "tx-1", Duplicate: true}, nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name: "insufficient balance",
			body: `{"amount":100}`,
			setup: func(m *walletMocks) {
				m.ledger.On("Debit", mock.Anything, mock.Anything).
					Return(nil, &services.InsufficientBalanceError{Current: 50, Requested: 100})
			},
			wantStatus: http.StatusPaymentRequired,
			check: func(t *testing.T, rec *httptest.ResponseRecorder) {
				var resp services.ErrorResponse
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
				require.NotNil(t, resp.CurrentBalance)
				assert.Equal(t, int64(50), *resp.CurrentBalance)
				assert.True(t, resp.TopUpRequired)
			},
		},
		{
			name: "store unavailable",
			body: `{"amount":100}`,
			setup: func(m *walletMocks) {
				m.ledger.On("Debit", mock.Anything, mock.Anything).
					Return(nil, fmt.Errorf("%w: context deadline exceeded", services.ErrStoreUnavailable))
			},
			wantStatus: http.StatusServiceUnavailable,
			check: func(t *testing.T, rec *httptest.ResponseRecorder) {
				assert.Equal(t, "1", rec.Header().Get("Retry-After"))
			},
		},
		{
			name: "account not found",
			body: `{"amount":100}`,
			setup: func(m *walletMocks) {
				m.ledger.On("Debit", mock.Anything, mock.Anything).Return(nil, services.ErrAccountNotFound)
			},
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "non-positive amount fails validation",
			body:       `{"amount":0}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unknown field",
			body:       `{"amount":10,"currency":"USD"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "two objects",
			body:       `{"amount":10}{"amount":10}`,
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, m := newWalletRouter(t, "acc-1")
			if tt.setup != nil {
				tt.setup(m)
			}

			rec := serve(router, http.MethodPost, "/api/v1/wallet/debits", tt.body)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.check != nil {
				tt.check(t, rec)
			}
			if tt.setup == nil {
				m.ledger.AssertNotCalled(t, "Debit", mock.Anything, mock.Anything)
			}
		})
	}
}

func TestWalletHandler_MembersCannotDeposit(t *testing.T) {
	router, m := newWalletRouter(t, "acc-1")

	rec := serve(router, http.MethodPost, "/api/v1/wallet/deposits", `{"amount":200,"description":"Top-up"}`)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	m.ledger.AssertNotCalled(t, "Deposit", mock.Anything, mock.Anything)
}

func TestWalletHandler_ListTransactions(t *testing.T) {
	router, m := newWalletRouter(t, "acc-1")
	m.transactions.On("List", mock.Anything, "acc-1", services.TransactionFilter{Kind: "debit", Limit: 2, Cursor: "abc"}).
		Return(&services.TransactionPage{NextCursor: "def"}, nil)
	m.transactions.On("List", mock.Anything, "acc-1", services.TransactionFilter{Cursor: "bad"}).
		Return(nil, services.ErrInvalidCursor)

	rec := serve(router, http.MethodGet, "/api/v1/wallet/transactions?kind=debit&limit=2&cursor=abc", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"nextCursor":"def"`)

	rec = serve(router, http.MethodGet, "/api/v1/wallet/transactions?cursor=bad", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(router, http.MethodGet, "/api/v1/wallet/transactions?limit=ten", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWalletHandler_GetReceipt(t *testing.T) {
	router, m := newWalletRouter(t, "acc-1")
	m.receipts.On("Generate", mock.Anything, "acc-1", "tx-1").Return(&services.Receipt{Payload: "p", ImagePNGBase64: "i"}, nil)
	m.receipts.On("Generate", mock.Anything, "acc-1", "tx-2").Return(nil, services.ErrTransactionNotFound)

	rec := serve(router, http.MethodGet, "/api/v1/wallet/transactions/tx-1/receipt", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"payload":"p","image":"i"}`, rec.Body.String())

	rec = serve(router, http.MethodGet, "/api/v1/wallet/transactions/tx-2/receipt", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
