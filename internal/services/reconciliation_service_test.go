package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sessionpass/backend/internal/models"
	"github.com/sessionpass/backend/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestReplayBalance(t *testing.T) {
	history := []models.Transaction{
		{Amount: 200, Kind: models.KindDeposit},
		{Amount: 150, Kind: models.KindDebit},
		{Amount: 150, Kind: models.KindRefund},
	}
	assert.Equal(t, int64(200), ReplayBalance(history))
	assert.Equal(t, int64(0), ReplayBalance(nil))
}

func TestReconciliationService_InvariantHoldsAfterRandomOperations(t *testing.T) {
	for seed := int64(1); seed <= 5; seed++ {
		t.Run(fmt.Sprintf("seed %d", seed), func(t *testing.T) {
			f := newWalletFixture(t)
			f.seedAccount("acc-1", "GYM4567-AB12", "+15550104567", 0)
			ctx := context.Background()
			rng := rand.New(rand.NewSource(seed))

			var running int64
			for i := 0; i < 200; i++ {
				amount := rng.Int63n(500) + 1
				req := LedgerRequest{AccountRef: "acc-1", Amount: amount, Description: "generated"}

				switch rng.Intn(3) {
				case 0:
					_, err := f.ledger.Deposit(ctx, req)
					require.NoError(t, err)
					running += amount
				case 1:
					if amount > running {
						continue
					}
					_, err := f.ledger.Debit(ctx, req)
					require.NoError(t, err)
					running -= amount
				case 2:
					_, err := f.ledger.Refund(ctx, req)
					require.NoError(t, err)
					running += amount
				}
			}

			result, err := f.recon.Repair(ctx, "acc-1")
			require.NoError(t, err)
			assert.False(t, result.DidChange)
			assert.Equal(t, running, result.NewBalance)
		})
	}
}

func TestReconciliationService_RepairIsIdempotent(t *testing.T) {
	f := newWalletFixture(t)
	f.seedAccount("acc-1", "GYM4567-AB12", "+15550104567", 999)
	f.seedHistory("acc-1",
		models.Transaction{Amount: 80, Kind: models.KindDeposit},
		models.Transaction{Amount: 30, Kind: models.KindDebit},
	)
	ctx := context.Background()

	first, err := f.recon.Repair(ctx, "acc-1")
	require.NoError(t, err)
	assert.True(t, first.DidChange)

	second, err := f.recon.Repair(ctx, "acc-1")
	require.NoError(t, err)
	assert.False(t, second.DidChange)
	assert.Equal(t, first.NewBalance, second.PreviousBalance)
	assert.Equal(t, int64(50), second.NewBalance)
}

func TestReconciliationService_CorrectsDrift(t *testing.T) {
	f := newWalletFixture(t)
	f.seedAccount("acc-1", "GYM4567-AB12", "+15550104567", 500)
	f.seedHistory("acc-1",
		models.Transaction{Amount: 400, Kind: models.KindDeposit},
		models.Transaction{Amount: 100, Kind: models.KindDebit},
		models.Transaction{Amount: 50, Kind: models.KindRefund},
	)
	ctx := context.Background()

	result, err := f.recon.Repair(ctx, "GYM4567-AB12")
	require.NoError(t, err)
	assert.Equal(t, &RepairResult{AccountID: "acc-1", PreviousBalance: 500, NewBalance: 350, DidChange: true}, result)

	balance, err := f.reader.GetBalanceForTransaction(ctx, "acc-1")
	require.NoError(t, err)
	assert.Equal(t, int64(350), balance)
	assert.Equal(t, BalanceView{Balance: 350, Available: true}, f.reader.GetBalanceForDisplay(ctx, "acc-1"))

	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.repairsTotal.WithLabelValues("repaired")))
}

func TestReconciliationService_NegativeReplayIsApplied(t *testing.T) {
	f := newWalletFixture(t)
	f.seedAccount("acc-1", "GYM4567-AB12", "+15550104567", 0)
	f.seedHistory("acc-1", models.Transaction{Amount: 100, Kind: models.KindDebit})

	result, err := f.recon.Repair(context.Background(), "acc-1")
	require.NoError(t, err)
	assert.True(t, result.DidChange)
	assert.Equal(t, int64(-100), result.NewBalance)
}

func TestReconciliationService_RepairRefreshesCache(t *testing.T) {
	cache := new(MockBalanceCache)
	events := new(MockEventPublisher)
	f := newWalletFixtureWith(t, store.NewMemoryStore(), cache, events)
	f.seedAccount("acc-1", "GYM4567-AB12", "+15550104567", 500)
	f.seedHistory("acc-1", models.Transaction{Amount: 350, Kind: models.KindDeposit})

	cache.On("GetAlias", mock.Anything, "acc-1").Return("", false, nil)
	cache.On("SetBalance", mock.Anything, "acc-1", int64(350), int64(1)).Return(nil)
	events.On("Publish", mock.Anything, mock.MatchedBy(func(e LedgerEvent) bool {
		return e.Type == EventBalanceRepaired && e.Amount == -150 && e.Balance == 350
	})).Return(nil)

	_, err := f.recon.Repair(context.Background(), "acc-1")
	require.NoError(t, err)

	cache.AssertExpectations(t)
	events.AssertExpectations(t)
}

func TestReconciliationService_RepairDuringLedgerWrites(t *testing.T) {
	f := newWalletFixture(t)
	f.seedAccount("acc-1", "GYM4567-AB12", "+15550104567", 5000)
	f.seedHistory("acc-1", models.Transaction{Amount: 5000, Kind: models.KindDeposit})
	ctx := context.Background()

	const writers = 50
	var wg sync.WaitGroup
	changed := make(chan *RepairResult, writers)
	errs := make(chan error, 3*writers)

	for i := 0; i < writers; i++ {
		wg.Add(3)
		go func(i int) {
			defer wg.Done()
			_, err := f.ledger.Deposit(ctx, LedgerRequest{AccountRef: "acc-1", Amount: 25, Reference: fmt.Sprintf("TOPUP-%d", i)})
			errs <- err
		}(i)
		go func() {
			defer wg.Done()
			_, err := f.ledger.Debit(ctx, LedgerRequest{AccountRef: "acc-1", Amount: 10})
			errs <- err
		}()
		go func() {
			defer wg.Done()
			result, err := f.recon.Repair(ctx, "acc-1")
			errs <- err
			if err == nil && result.DidChange {
				changed <- result
			}
		}()
	}
	wg.Wait()
	close(errs)
	close(changed)

	for err := range errs {
		require.NoError(t, err)
	}
	for result := range changed {
		t.Errorf("repair changed a consistent balance: %+v", result)
	}

	result, err := f.recon.Repair(ctx, "acc-1")
	require.NoError(t, err)
	assert.False(t, result.DidChange)
	assert.Equal(t, int64(5000+writers*25-writers*10), result.NewBalance)
}

func TestReconciliationService_RepairUnknownAccount(t *testing.T) {
	f := newWalletFixture(t)

	_, err := f.recon.Repair(context.Background(), "GYM0000-NONE")
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestReconciliationService_Sweep(t *testing.T) {
	f := newWalletFixture(t)
	f.seedAccount("acc-1", "GYM0001-AAAA", "+15550100001", 100)
	f.seedAccount("acc-2", "GYM0002-BBBB", "+15550100002", 70)
	f.seedAccount("acc-3", "GYM0003-CCCC", "+15550100003", 0)
	f.seedHistory("acc-1", models.Transaction{Amount: 100, Kind: models.KindDeposit})
	f.seedHistory("acc-2", models.Transaction{Amount: 20, Kind: models.KindDeposit})

	report, err := f.recon.Sweep(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, &SweepReport{Checked: 3, Repaired: 1, Failed: 0}, report)

	balance, err := f.reader.GetBalanceForTransaction(context.Background(), "acc-2")
	require.NoError(t, err)
	assert.Equal(t, int64(20), balance)
}

func TestReconciliationService_SweepCountsFailures(t *testing.T) {
	st := new(MockStore)
	cfg := testLedgerConfig()
	recon := NewReconciliationService(st, NewIdentifierResolver(st, nil, cfg, nil), nil, nil, nil, nil, cfg, nil)

	st.On("ListAccountIDs", mock.Anything, "", 2).Return([]string{"acc-1", "acc-2"}, nil)
	st.On("ListAccountIDs", mock.Anything, "acc-2", 2).Return([]string{}, nil)
	st.On("WithAccountLock", mock.Anything, "acc-1").Return(nil)
	st.On("WithAccountLock", mock.Anything, "acc-2").Return(store.ErrUnavailable)

	report, err := recon.Sweep(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, &SweepReport{Checked: 2, Repaired: 0, Failed: 1}, report)
	st.AssertExpectations(t)
}

func TestReconciliationService_SweepStopsWhenListingFails(t *testing.T) {
	st := new(MockStore)
	cfg := testLedgerConfig()
	recon := NewReconciliationService(st, NewIdentifierResolver(st, nil, cfg, nil), nil, nil, nil, nil, cfg, nil)

	st.On("ListAccountIDs", mock.Anything, "", 200).Return(nil, errors.New("dial tcp: i/o timeout"))

	cfg.SweepBatchSize = 200
	_, err := recon.Sweep(context.Background(), 0)
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}
