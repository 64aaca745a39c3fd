package audit

import (
	"time"

	"go.uber.org/zap"
)

type AuditEvent struct {
	Timestamp     time.Time `json:"timestamp"`
	EventType     string    `json:"event_type"`
	TransactionID string    `json:"transaction_id,omitempty"`
	AccountID     string    `json:"account_id"`
	Amount        int64     `json:"amount"`
	Status        string    `json:"status"`
	Details       any       `json:"details,omitempty"`
}

// AuditLogger writes one structured record per ledger mutation or repair.
type AuditLogger struct {
	logger *zap.Logger
}

func NewAuditLogger(logger *zap.Logger) *AuditLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditLogger{logger: logger.Named("audit")}
}

func (a *AuditLogger) LogLedgerOperation(transactionID, accountID, kind string, amount, balanceAfter int64, reference string) {
	a.log(AuditEvent{
		Timestamp:     time.Now().UTC(),
		EventType:     kind,
		TransactionID: transactionID,
		AccountID:     accountID,
		Amount:        amount,
		Status:        "SUCCESS",
		Details: map[string]any{
			"balance_after": balanceAfter,
			"reference":     reference,
		},
	})
}

func (a *AuditLogger) LogRepair(accountID string, previousBalance, newBalance int64) {
	a.log(AuditEvent{
		Timestamp: time.Now().UTC(),
		EventType: "REPAIR",
		AccountID: accountID,
		Amount:    newBalance - previousBalance,
		Status:    "CORRECTED",
		Details: map[string]int64{
			"previous_balance": previousBalance,
			"new_balance":      newBalance,
		},
	})
}

func (a *AuditLogger) LogError(transactionID, accountID string, err error) {
	a.log(AuditEvent{
		Timestamp:     time.Now().UTC(),
		EventType:     "ERROR",
		TransactionID: transactionID,
		AccountID:     accountID,
		Status:        "FAILED",
		Details:       map[string]string{"error": err.Error()},
	})
}

func (a *AuditLogger) log(event AuditEvent) {
	a.logger.Info("audit",
		zap.Time("event_time", event.Timestamp),
		zap.String("event_type", event.EventType),
		zap.String("transaction_id", event.TransactionID),
		zap.String("account_id", event.AccountID),
		zap.Int64("amount", event.Amount),
		zap.String("status", event.Status),
		zap.Any("details", event.Details),
	)
}
