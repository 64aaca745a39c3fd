package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sessionpass/backend/internal/config"
	"github.com/sessionpass/backend/internal/models"
	"github.com/sessionpass/backend/internal/store"
	"go.uber.org/zap"
)

const shortIDAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// AccountService opens wallets for newly verified users.
type AccountService struct {
	store  store.Store
	config *config.LedgerConfig
	logger *zap.Logger
}

func NewAccountService(st store.Store, cfg *config.LedgerConfig, logger *zap.Logger) *AccountService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AccountService{store: st, config: cfg, logger: logger}
}

// CreateAccount opens a zero-balance account. A short id collision draws a
// fresh suffix, up to the configured number of attempts.
func (s *AccountService) CreateAccount(ctx context.Context, contactNumber string) (*models.Account, error) {
	contact := NormalizeContactNumber(contactNumber)
	if contact == "" {
		return nil, ErrInvalidContactNumber
	}

	ctx, cancel := withStoreTimeout(ctx, s.config.StoreTimeout)
	defer cancel()

	attempts := s.config.ShortIDAttempts
	if attempts < 1 {
		attempts = 1
	}

	now := time.Now().UTC()
	account := &models.Account{
		ID:            uuid.NewString(),
		ContactNumber: contact,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	for i := 0; i < attempts; i++ {
		shortID, err := GenerateShortID(s.config.ShortIDPrefix, contact)
		if err != nil {
			return nil, err
		}
		account.ShortID = shortID

		err = s.store.CreateAccount(ctx, account)
		if err == nil {
			s.logger.Info("wallet account created",
				zap.String("account_id", account.ID),
				zap.String("short_id", account.ShortID),
			)
			return account, nil
		}
		if !errors.Is(err, store.ErrDuplicate) {
			return nil, mapStoreError(err, ErrAccountNotFound)
		}
		s.logger.Warn("short id collision, retrying", zap.String("short_id", shortID), zap.Int("attempt", i+1))
	}

	return nil, fmt.Errorf("%w: no free short id after %d attempts", ErrStoreUnavailable, attempts)
}

// GenerateShortID builds PREFIX + last four contact digits + "-" + four
// random characters, e.g. GYM4567-Q7ZK.
func GenerateShortID(prefix, contactNumber string) (string, error) {
	var digits strings.Builder
	for _, c := range contactNumber {
		if c >= '0' && c <= '9' {
			digits.WriteRune(c)
		}
	}
	fragment := digits.String()
	if len(fragment) > 4 {
		fragment = fragment[len(fragment)-4:]
	}
	fragment = strings.Repeat("0", 4-len(fragment)) + fragment

	suffix := make([]byte, 4)
	max := big.NewInt(int64(len(shortIDAlphabet)))
	for i := range suffix {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		suffix[i] = shortIDAlphabet[n.Int64()]
	}

	return strings.ToUpper(prefix) + fragment + "-" + string(suffix), nil
}
