package handlers

import (
	"context"

	"github.com/sessionpass/backend/internal/models"
	"github.com/sessionpass/backend/internal/services"
	"github.com/stretchr/testify/mock"
)

type MockLedger struct {
	mock.Mock
}

func (m *MockLedger) result(args mock.Arguments) (*services.LedgerResult, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.LedgerResult), args.Error(1)
}

func (m *MockLedger) Deposit(ctx context.Context, req services.LedgerRequest) (*services.LedgerResult, error) {
	return m.result(m.Called(ctx, req))
}

func (m *MockLedger) Debit(ctx context.Context, req services.LedgerRequest) (*services.LedgerResult, error) {
	return m.result(m.Called(ctx, req))
}

func (m *MockLedger) Refund(ctx context.Context, req services.LedgerRequest) (*services.LedgerResult, error) {
	return m.result(m.Called(ctx, req))
}

type MockBalances struct {
	mock.Mock
}

func (m *MockBalances) GetBalanceForDisplay(ctx context.Context, accountRef string) services.BalanceView {
	args := m.Called(ctx, accountRef)
	return args.Get(0).(services.BalanceView)
}

func (m *MockBalances) GetBalanceForTransaction(ctx context.Context, accountRef string) (int64, error) {
	args := m.Called(ctx, accountRef)
	return args.Get(0).(int64), args.Error(1)
}

type MockTransactions struct {
	mock.Mock
}

func (m *MockTransactions) List(ctx context.Context, accountRef string, filter services.TransactionFilter) (*services.TransactionPage, error) {
	args := m.Called(ctx, accountRef, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.TransactionPage), args.Error(1)
}

type MockReceipts struct {
	mock.Mock
}

func (m *MockReceipts) Generate(ctx context.Context, accountRef, transactionID string) (*services.Receipt, error) {
	args := m.Called(ctx, accountRef, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.Receipt), args.Error(1)
}

func (m *MockReceipts) Verify(ctx context.Context, payload string) (*services.ReceiptPayload, error) {
	args := m.Called(ctx, payload)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.ReceiptPayload), args.Error(1)
}

type MockReconciler struct {
	mock.Mock
}

func (m *MockReconciler) Repair(ctx context.Context, accountRef string) (*services.RepairResult, error) {
	args := m.Called(ctx, accountRef)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.RepairResult), args.Error(1)
}

type MockAccounts struct {
	mock.Mock
}

func (m *MockAccounts) CreateAccount(ctx context.Context, contactNumber string) (*models.Account, error) {
	args := m.Called(ctx, contactNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}
