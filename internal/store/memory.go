package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/sessionpass/backend/internal/models"
)

// MemoryStore keeps accounts and history in process. Writers to the same
// account are serialised by a per-account lock; writes made inside
// WithAccountLock are staged and applied only when the callback succeeds.
type MemoryStore struct {
	mu       sync.RWMutex
	accounts map[string]models.Account
	history  map[string][]models.Transaction
	seq      int64

	locksMu sync.Mutex
	locks   map[string]chan struct{}
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		accounts: make(map[string]models.Account),
		history:  make(map[string][]models.Transaction),
		locks:    make(map[string]chan struct{}),
	}
}

// SeedAccount stores an account as-is, bypassing ledger rules.
func (s *MemoryStore) SeedAccount(account models.Account) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[account.ID] = account
}

// SeedTransaction appends a transaction without touching the balance.
func (s *MemoryStore) SeedTransaction(t models.Transaction) models.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	t.Seq = s.seq
	s.history[t.AccountID] = append(s.history[t.AccountID], t)
	return t
}

func (s *MemoryStore) GetAccountByField(ctx context.Context, field models.AccountField, value string) (*models.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if field == models.AccountFieldID {
		if a, ok := s.accounts[value]; ok {
			return &a, nil
		}
		return nil, ErrNotFound
	}

	var found *models.Account
	for _, a := range s.accounts {
		var candidate string
		switch field {
		case models.AccountFieldShortID:
			candidate = a.ShortID
		case models.AccountFieldContactNumber:
			candidate = a.ContactNumber
		default:
			return nil, fmt.Errorf("unsupported account field %q", field)
		}
		if candidate != value {
			continue
		}
		if found == nil || a.CreatedAt.Before(found.CreatedAt) {
			a := a
			found = &a
		}
	}
	if found == nil {
		return nil, ErrNotFound
	}
	return found, nil
}

func (s *MemoryStore) CreateAccount(ctx context.Context, account *models.Account) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[account.ID]; ok {
		return fmt.Errorf("%w: wallet_accounts_pkey", ErrDuplicate)
	}
	for _, a := range s.accounts {
		if a.ShortID == account.ShortID {
			return fmt.Errorf("%w: wallet_accounts_short_id_key", ErrDuplicate)
		}
	}
	s.accounts[account.ID] = *account
	return nil
}

func (s *MemoryStore) GetTransaction(ctx context.Context, accountID, transactionID string) (*models.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, t := range s.history[accountID] {
		if t.ID == transactionID {
			t := t
			return &t, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) ListTransactions(ctx context.Context, accountID string, q models.TransactionQuery) ([]models.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	s.mu.RLock()
	all := append([]models.Transaction(nil), s.history[accountID]...)
	s.mu.RUnlock()

	sort.SliceStable(all, func(i, j int) bool { return newerFirst(all[i], all[j]) })

	var page []models.Transaction
	for _, t := range all {
		if q.Kind != "" && t.Kind != q.Kind {
			continue
		}
		if q.Before != nil && !q.Before.Admits(t) {
			continue
		}
		page = append(page, t)
		if q.Limit > 0 && len(page) == q.Limit {
			break
		}
	}
	return page, nil
}

func (s *MemoryStore) ListAccountIDs(ctx context.Context, afterID string, limit int) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	s.mu.RLock()
	ids := make([]string, 0, len(s.accounts))
	for id := range s.accounts {
		if id > afterID {
			ids = append(ids, id)
		}
	}
	s.mu.RUnlock()

	sort.Strings(ids)
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

func (s *MemoryStore) WithAccountLock(ctx context.Context, accountID string, fn func(tx Tx, account *models.Account) error) error {
	lock := s.lockFor(accountID)
	select {
	case lock <- struct{}{}:
	case <-ctx.Done():
		return fmt.Errorf("%w: waiting for account lock: %v", ErrUnavailable, ctx.Err())
	}
	defer func() { <-lock }()

	s.mu.RLock()
	account, ok := s.accounts[accountID]
	s.mu.RUnlock()
	if !ok {
		return ErrNotFound
	}

	mtx := &memoryTx{store: s, balances: make(map[string]int64)}
	if err := fn(mtx, &account); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	mtx.apply()
	return nil
}

func (s *MemoryStore) lockFor(accountID string) chan struct{} {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()

	lock, ok := s.locks[accountID]
	if !ok {
		lock = make(chan struct{}, 1)
		s.locks[accountID] = lock
	}
	return lock
}

type memoryTx struct {
	store    *MemoryStore
	balances map[string]int64
	inserted []models.Transaction
}

func (t *memoryTx) UpdateAccountBalance(ctx context.Context, accountID string, newBalance int64) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	t.store.mu.RLock()
	_, ok := t.store.accounts[accountID]
	t.store.mu.RUnlock()
	if !ok {
		return ErrNotFound
	}
	t.balances[accountID] = newBalance
	return nil
}

func (t *memoryTx) InsertTransaction(ctx context.Context, txn *models.Transaction) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	for _, existing := range t.visible(txn.AccountID) {
		if existing.ID == txn.ID {
			return fmt.Errorf("%w: wallet_transactions_id_key", ErrDuplicate)
		}
		if txn.Reference != "" && existing.Reference == txn.Reference && existing.Kind == txn.Kind {
			return fmt.Errorf("%w: wallet_transactions_reference_key", ErrDuplicate)
		}
	}

	t.store.mu.Lock()
	t.store.seq++
	txn.Seq = t.store.seq
	t.store.mu.Unlock()

	t.inserted = append(t.inserted, *txn)
	return nil
}

func (t *memoryTx) FindTransactionByReference(ctx context.Context, accountID, reference string, kind models.TransactionKind) (*models.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	for _, existing := range t.visible(accountID) {
		if existing.Reference == reference && existing.Kind == kind {
			existing := existing
			return &existing, nil
		}
	}
	return nil, ErrNotFound
}

func (t *memoryTx) ReplayTransactions(ctx context.Context, accountID string) ([]models.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	all := t.visible(accountID)
	sort.SliceStable(all, func(i, j int) bool { return newerFirst(all[j], all[i]) })
	return all, nil
}

// visible returns committed history plus this transaction's staged inserts.
func (t *memoryTx) visible(accountID string) []models.Transaction {
	t.store.mu.RLock()
	all := append([]models.Transaction(nil), t.store.history[accountID]...)
	t.store.mu.RUnlock()

	for _, staged := range t.inserted {
		if staged.AccountID == accountID {
			all = append(all, staged)
		}
	}
	return all
}

func (t *memoryTx) apply() {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()

	now := time.Now().UTC()
	for id, balance := range t.balances {
		a := t.store.accounts[id]
		a.Balance = balance
		a.Version++
		a.UpdatedAt = now
		t.store.accounts[id] = a
	}
	for _, txn := range t.inserted {
		t.store.history[txn.AccountID] = append(t.store.history[txn.AccountID], txn)
	}
}

func newerFirst(a, b models.Transaction) bool {
	if a.CreatedAt.Equal(b.CreatedAt) {
		return a.Seq > b.Seq
	}
	return a.CreatedAt.After(b.CreatedAt)
}
