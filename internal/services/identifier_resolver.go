package services

import (
	"context"
	"errors"
	"strings"

	"github.com/sessionpass/backend/internal/config"
	"github.com/sessionpass/backend/internal/models"
	"github.com/sessionpass/backend/internal/store"
	"go.uber.org/zap"
)

// IdentifierResolver maps any identifier form in circulation (canonical id,
// short id, contact number) to the account it names. It never writes to the
// store.
type IdentifierResolver struct {
	store  store.Store
	cache  BalanceCache
	config *config.LedgerConfig
	logger *zap.Logger
}

func NewIdentifierResolver(st store.Store, cache BalanceCache, cfg *config.LedgerConfig, logger *zap.Logger) *IdentifierResolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IdentifierResolver{
		store:  st,
		cache:  cache,
		config: cfg,
		logger: logger,
	}
}

// Resolve returns the canonical id for input.
func (r *IdentifierResolver) Resolve(ctx context.Context, input string) (string, error) {
	account, err := r.ResolveAccount(ctx, input)
	if err != nil {
		return "", err
	}
	return account.ID, nil
}

// ResolveAccount tries input as a canonical id, then as a short id, then as a
// contact number. ErrAccountNotFound means every strategy came back empty;
// a store failure on any strategy is returned as ErrStoreUnavailable.
func (r *IdentifierResolver) ResolveAccount(ctx context.Context, input string) (*models.Account, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, ErrAccountNotFound
	}

	ctx, cancel := withStoreTimeout(ctx, r.config.StoreTimeout)
	defer cancel()

	if account := r.fromAlias(ctx, input); account != nil {
		return account, nil
	}

	account, err := r.lookup(ctx, models.AccountFieldID, input)
	if account != nil || err != nil {
		return account, err
	}

	account, err = r.lookup(ctx, models.AccountFieldShortID, strings.ToUpper(input))
	if err != nil {
		return nil, err
	}
	if account != nil {
		r.rememberAlias(ctx, input, account.ID)
		return account, nil
	}

	if contact := NormalizeContactNumber(input); contact != "" {
		account, err = r.lookup(ctx, models.AccountFieldContactNumber, contact)
		if err != nil {
			return nil, err
		}
		if account != nil {
			r.rememberAlias(ctx, input, account.ID)
			return account, nil
		}
	}

	r.logger.Debug("identifier did not match any account", zap.String("identifier", input))
	return nil, ErrAccountNotFound
}

// lookup returns (nil, nil) when nothing matches.
func (r *IdentifierResolver) lookup(ctx context.Context, field models.AccountField, value string) (*models.Account, error) {
	account, err := r.store.GetAccountByField(ctx, field, value)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		r.logger.Warn("account lookup failed",
			zap.String("field", string(field)),
			zap.Error(err),
		)
		return nil, mapStoreError(err, ErrAccountNotFound)
	}
	return account, nil
}

func (r *IdentifierResolver) fromAlias(ctx context.Context, input string) *models.Account {
	if r.cache == nil {
		return nil
	}
	accountID, ok, err := r.cache.GetAlias(ctx, input)
	if err != nil {
		r.logger.Debug("alias cache read failed", zap.Error(err))
		return nil
	}
	if !ok {
		return nil
	}
	account, err := r.store.GetAccountByField(ctx, models.AccountFieldID, accountID)
	if err != nil {
		return nil
	}
	return account
}

func (r *IdentifierResolver) rememberAlias(ctx context.Context, alias, accountID string) {
	if r.cache == nil {
		return
	}
	if err := r.cache.SetAlias(ctx, alias, accountID); err != nil {
		r.logger.Debug("alias cache write failed", zap.Error(err))
	}
}

// NormalizeContactNumber keeps the digits of a phone number and a leading
// plus sign. It returns "" when s does not look like a phone number.
func NormalizeContactNumber(s string) string {
	s = strings.TrimSpace(s)
	var b strings.Builder
	digits := 0
	for i, c := range s {
		switch {
		case c >= '0' && c <= '9':
			b.WriteRune(c)
			digits++
		case c == '+' && i == 0:
			b.WriteRune(c)
		case c == ' ' || c == '-' || c == '(' || c == ')' || c == '.':
		default:
			return ""
		}
	}
	if digits < 7 {
		return ""
	}
	return b.String()
}
