package services

import (
	"context"
	"regexp"
	"testing"

	"github.com/sessionpass/backend/internal/models"
	"github.com/sessionpass/backend/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var shortIDPattern = regexp.MustCompile(`^GYM\d{4}-[A-Z0-9]{4}$`)

func TestGenerateShortID(t *testing.T) {
	id, err := GenerateShortID("gym", "+1 555 010 4567")
	require.NoError(t, err)
	assert.Regexp(t, shortIDPattern, id)
	assert.Equal(t, "GYM4567-", id[:8])

	id, err = GenerateShortID("GYM", "12")
	require.NoError(t, err)
	assert.Equal(t, "GYM0012-", id[:8])
}

func TestAccountService_CreateAccount(t *testing.T) {
	mem := store.NewMemoryStore()
	svc := NewAccountService(mem, testLedgerConfig(), nil)
	ctx := context.Background()

	account, err := svc.CreateAccount(ctx, "+1 (555) 010-4567")
	require.NoError(t, err)
	assert.NotEmpty(t, account.ID)
	assert.Regexp(t, shortIDPattern, account.ShortID)
	assert.Equal(t, "+15550104567", account.ContactNumber)
	assert.Equal(t, int64(0), account.Balance)

	stored, err := mem.GetAccountByField(ctx, models.AccountFieldShortID, account.ShortID)
	require.NoError(t, err)
	assert.Equal(t, account.ID, stored.ID)
}

func TestAccountService_RetriesShortIDCollision(t *testing.T) {
	st := new(MockStore)
	svc := NewAccountService(st, testLedgerConfig(), nil)

	st.On("CreateAccount", mock.Anything, mock.Anything).Return(store.ErrDuplicate).Once()
	st.On("CreateAccount", mock.Anything, mock.Anything).Return(nil).Once()

	account, err := svc.CreateAccount(context.Background(), "5550104567")
	require.NoError(t, err)
	assert.Regexp(t, shortIDPattern, account.ShortID)
	st.AssertNumberOfCalls(t, "CreateAccount", 2)
}

func TestAccountService_GivesUpAfterAttempts(t *testing.T) {
	st := new(MockStore)
	svc := NewAccountService(st, testLedgerConfig(), nil)

	st.On("CreateAccount", mock.Anything, mock.Anything).Return(store.ErrDuplicate)

	_, err := svc.CreateAccount(context.Background(), "5550104567")
	assert.ErrorIs(t, err, ErrStoreUnavailable)
	st.AssertNumberOfCalls(t, "CreateAccount", 3)
}

func TestAccountService_RejectsInvalidContact(t *testing.T) {
	svc := NewAccountService(new(MockStore), testLedgerConfig(), nil)

	_, err := svc.CreateAccount(context.Background(), "not a phone")
	assert.ErrorIs(t, err, ErrInvalidContactNumber)
}
