package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image/png"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sessionpass/backend/internal/models"
	"github.com/skip2/go-qrcode"
	"go.uber.org/zap"
)

const receiptCacheTTL = 24 * time.Hour

// ReceiptPayload is what the front-desk scanner reads from a receipt QR code.
type ReceiptPayload struct {
	TransactionID string                 `json:"transactionId"`
	ShortID       string                 `json:"shortId"`
	Kind          models.TransactionKind `json:"kind"`
	Amount        int64                  `json:"amount"`
	Reference     string                 `json:"reference,omitempty"`
	CreatedAt     time.Time              `json:"createdAt"`
}

type Receipt struct {
	Payload        string `json:"payload"`
	ImagePNGBase64 string `json:"image"`
}

// ReceiptService renders check-in QR codes for wallet transactions. Rendered
// receipts are cached in Redis when a client is configured.
type ReceiptService struct {
	resolver  *IdentifierResolver
	queries   *TransactionQueryService
	redis     *redis.Client
	imageSize int
	logger    *zap.Logger
}

func NewReceiptService(resolver *IdentifierResolver, queries *TransactionQueryService, redisClient *redis.Client, imageSize int, logger *zap.Logger) *ReceiptService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if imageSize <= 0 {
		imageSize = 256
	}
	return &ReceiptService{
		resolver:  resolver,
		queries:   queries,
		redis:     redisClient,
		imageSize: imageSize,
		logger:    logger,
	}
}

func (s *ReceiptService) Generate(ctx context.Context, accountRef, transactionID string) (*Receipt, error) {
	account, err := s.resolver.ResolveAccount(ctx, accountRef)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("receipt:%s:%s", account.ID, transactionID)
	if cached := s.cached(ctx, key); cached != nil {
		return cached, nil
	}

	txn, err := s.queries.Get(ctx, account.ID, transactionID)
	if err != nil {
		return nil, err
	}

	payload := ReceiptPayload{
		TransactionID: txn.ID,
		ShortID:       account.ShortID,
		Kind:          txn.Kind,
		Amount:        txn.Amount,
		Reference:     txn.Reference,
		CreatedAt:     txn.CreatedAt,
	}
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	encoded := base64.RawURLEncoding.EncodeToString(jsonData)

	qr, err := qrcode.New(encoded, qrcode.Medium)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, qr.Image(s.imageSize)); err != nil {
		return nil, err
	}

	receipt := &Receipt{
		Payload:        encoded,
		ImagePNGBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
	}
	s.remember(ctx, key, receipt)
	return receipt, nil
}

// Verify decodes a scanned payload and checks it against the ledger.
func (s *ReceiptService) Verify(ctx context.Context, encoded string) (*ReceiptPayload, error) {
	jsonData, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return nil, ErrInvalidReceipt
	}
	var payload ReceiptPayload
	if err := json.Unmarshal(jsonData, &payload); err != nil {
		return nil, ErrInvalidReceipt
	}

	txn, err := s.queries.Get(ctx, payload.ShortID, payload.TransactionID)
	if err != nil {
		return nil, err
	}
	if txn.Amount != payload.Amount || txn.Kind != payload.Kind {
		return nil, ErrInvalidReceipt
	}
	return &payload, nil
}

func (s *ReceiptService) cached(ctx context.Context, key string) *Receipt {
	if s.redis == nil {
		return nil
	}
	data, err := s.redis.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		s.logger.Debug("receipt cache read failed", zap.Error(err))
		return nil
	}

	var receipt Receipt
	if err := json.Unmarshal(data, &receipt); err != nil {
		return nil
	}
	return &receipt
}

func (s *ReceiptService) remember(ctx context.Context, key string, receipt *Receipt) {
	if s.redis == nil {
		return
	}
	data, err := json.Marshal(receipt)
	if err != nil {
		return
	}
	if err := s.redis.Set(ctx, key, string(data), receiptCacheTTL).Err(); err != nil {
		s.logger.Debug("receipt cache write failed", zap.Error(err))
	}
}
