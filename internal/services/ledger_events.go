package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sessionpass/backend/internal/models"
)

const (
	EventTransactionRecorded = "transaction.recorded"
	EventBalanceRepaired     = "balance.repaired"
)

// LedgerEvent is pushed to the event queue after a ledger change commits.
// Notification and booking services consume it.
type LedgerEvent struct {
	Type          string                 `json:"type"`
	AccountID     string                 `json:"accountId"`
	TransactionID string                 `json:"transactionId,omitempty"`
	Kind          models.TransactionKind `json:"kind,omitempty"`
	Amount        int64                  `json:"amount"`
	Balance       int64                  `json:"balance"`
	Reference     string                 `json:"reference,omitempty"`
	OccurredAt    time.Time              `json:"occurredAt"`
}

type EventPublisher interface {
	Publish(ctx context.Context, event LedgerEvent) error
}

type RedisEventPublisher struct {
	redis *redis.Client
	queue string
}

func NewRedisEventPublisher(client *redis.Client, queue string) *RedisEventPublisher {
	return &RedisEventPublisher{redis: client, queue: queue}
}

func (p *RedisEventPublisher) Publish(ctx context.Context, event LedgerEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return p.redis.RPush(ctx, p.queue, string(data)).Err()
}
