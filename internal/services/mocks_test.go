package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sessionpass/backend/internal/config"
	"github.com/sessionpass/backend/internal/models"
	"github.com/sessionpass/backend/internal/store"
	"github.com/stretchr/testify/mock"
)

type MockStore struct {
	mock.Mock
}

func (m *MockStore) GetAccountByField(ctx context.Context, field models.AccountField, value string) (*models.Account, error) {
	args := m.Called(ctx, field, value)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

func (m *MockStore) CreateAccount(ctx context.Context, account *models.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *MockStore) GetTransaction(ctx context.Context, accountID, transactionID string) (*models.Transaction, error) {
	args := m.Called(ctx, accountID, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Transaction), args.Error(1)
}

func (m *MockStore) ListTransactions(ctx context.Context, accountID string, q models.TransactionQuery) ([]models.Transaction, error) {
	args := m.Called(ctx, accountID, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Transaction), args.Error(1)
}

func (m *MockStore) ListAccountIDs(ctx context.Context, afterID string, limit int) ([]string, error) {
	args := m.Called(ctx, afterID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockStore) WithAccountLock(ctx context.Context, accountID string, fn func(tx store.Tx, account *models.Account) error) error {
	args := m.Called(ctx, accountID)
	return args.Error(0)
}

type MockBalanceCache struct {
	mock.Mock
}

func (m *MockBalanceCache) GetBalance(ctx context.Context, accountID string) (int64, bool, error) {
	args := m.Called(ctx, accountID)
	return args.Get(0).(int64), args.Bool(1), args.Error(2)
}

func (m *MockBalanceCache) SetBalance(ctx context.Context, accountID string, balance, version int64) error {
	args := m.Called(ctx, accountID, balance, version)
	return args.Error(0)
}

func (m *MockBalanceCache) DeleteBalance(ctx context.Context, accountID string) error {
	args := m.Called(ctx, accountID)
	return args.Error(0)
}

func (m *MockBalanceCache) GetAlias(ctx context.Context, alias string) (string, bool, error) {
	args := m.Called(ctx, alias)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *MockBalanceCache) SetAlias(ctx context.Context, alias, accountID string) error {
	args := m.Called(ctx, alias, accountID)
	return args.Error(0)
}

type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, event LedgerEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// memoryBalanceCache keeps balances in a map and applies the same
// newer-version-wins rule as the redis cache.
type memoryBalanceCache struct {
	mu       sync.Mutex
	balances map[string][2]int64 // version, balance
	aliases  map[string]string
}

func newMemoryBalanceCache() *memoryBalanceCache {
	return &memoryBalanceCache{balances: map[string][2]int64{}, aliases: map[string]string{}}
}

func (c *memoryBalanceCache) GetBalance(ctx context.Context, accountID string) (int64, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.balances[accountID]
	return entry[1], ok, nil
}

func (c *memoryBalanceCache) SetBalance(ctx context.Context, accountID string, balance, version int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if entry, ok := c.balances[accountID]; ok && entry[0] >= version {
		return nil
	}
	c.balances[accountID] = [2]int64{version, balance}
	return nil
}

func (c *memoryBalanceCache) DeleteBalance(ctx context.Context, accountID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.balances, accountID)
	return nil
}

func (c *memoryBalanceCache) GetAlias(ctx context.Context, alias string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id, ok := c.aliases[alias]
	return id, ok, nil
}

func (c *memoryBalanceCache) SetAlias(ctx context.Context, alias, accountID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.aliases[alias] = accountID
	return nil
}

// failingInsertStore lets the balance update through and then fails the
// transaction insert, the partial write the ledger must never leave behind.
type failingInsertStore struct {
	*store.MemoryStore
}

func (s failingInsertStore) WithAccountLock(ctx context.Context, accountID string, fn func(tx store.Tx, account *models.Account) error) error {
	return s.MemoryStore.WithAccountLock(ctx, accountID, func(tx store.Tx, account *models.Account) error {
		return fn(failingInsertTx{tx}, account)
	})
}

type failingInsertTx struct {
	store.Tx
}

func (failingInsertTx) InsertTransaction(ctx context.Context, t *models.Transaction) error {
	return errors.New("connection reset by peer")
}

func testLedgerConfig() *config.LedgerConfig {
	return &config.LedgerConfig{
		StoreTimeout:     time.Second,
		ShortIDPrefix:    "GYM",
		ShortIDAttempts:  3,
		DefaultPageSize:  20,
		MaxPageSize:      100,
		SweepBatchSize:   2,
		EventQueue:       "ledger_events",
		ReceiptImageSize: 128,
	}
}

var testCreatedAt = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

// walletFixture wires every service against one store, the way the server
// does, without cache or event queue.
type walletFixture struct {
	store    *store.MemoryStore
	config   *config.LedgerConfig
	metrics  *Metrics
	resolver *IdentifierResolver
	reader   *BalanceReader
	ledger   *LedgerService
	recon    *ReconciliationService
	queries  *TransactionQueryService
}

func newWalletFixture(t *testing.T) *walletFixture {
	t.Helper()
	return newWalletFixtureWith(t, store.NewMemoryStore(), nil, nil)
}

func newWalletFixtureWith(t *testing.T, st *store.MemoryStore, cache BalanceCache, events EventPublisher) *walletFixture {
	t.Helper()
	cfg := testLedgerConfig()
	metrics := NewMetrics(prometheus.NewRegistry())
	resolver := NewIdentifierResolver(st, cache, cfg, nil)
	return &walletFixture{
		store:    st,
		config:   cfg,
		metrics:  metrics,
		resolver: resolver,
		reader:   NewBalanceReader(st, resolver, cache, metrics, cfg, nil),
		ledger:   NewLedgerService(st, resolver, cache, events, nil, metrics, cfg, nil),
		recon:    NewReconciliationService(st, resolver, cache, events, nil, metrics, cfg, nil),
		queries:  NewTransactionQueryService(st, resolver, cfg, nil),
	}
}

func (f *walletFixture) seedAccount(id, shortID, contact string, balance int64) {
	f.store.SeedAccount(models.Account{
		ID:            id,
		ShortID:       shortID,
		ContactNumber: contact,
		Balance:       balance,
		CreatedAt:     testCreatedAt,
		UpdatedAt:     testCreatedAt,
	})
}

func (f *walletFixture) seedHistory(accountID string, entries ...models.Transaction) {
	for i, e := range entries {
		e.AccountID = accountID
		if e.ID == "" {
			e.ID = fmt.Sprintf("%s-seed-%d", accountID, i)
		}
		if e.CreatedAt.IsZero() {
			e.CreatedAt = testCreatedAt.Add(time.Duration(i) * time.Minute)
		}
		f.store.SeedTransaction(e)
	}
}
