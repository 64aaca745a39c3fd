package models

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TransactionKind determines the effect of a transaction on the balance.
type TransactionKind string

const (
	KindDeposit TransactionKind = "DEPOSIT"
	KindDebit   TransactionKind = "DEBIT"
	KindRefund  TransactionKind = "REFUND"
)

// Valid reports whether k is one of the known kinds.
func (k TransactionKind) Valid() bool {
	switch k {
	case KindDeposit, KindDebit, KindRefund:
		return true
	}
	return false
}

// Signed returns the balance effect of amount for this kind.
func (k TransactionKind) Signed(amount int64) int64 {
	if k == KindDebit {
		return -amount
	}
	return amount
}

// ParseTransactionKind accepts the kind in any letter case.
func ParseTransactionKind(s string) (TransactionKind, error) {
	k := TransactionKind(strings.ToUpper(strings.TrimSpace(s)))
	if !k.Valid() {
		return "", fmt.Errorf("unknown transaction kind %q", s)
	}
	return k, nil
}

// Transaction is an immutable ledger record. AccountID always carries the
// canonical account id.
type Transaction struct {
	ID          string          `json:"id" db:"id"`
	AccountID   string          `json:"accountId" db:"account_id"`
	Amount      int64           `json:"amount" db:"amount"`
	Kind        TransactionKind `json:"kind" db:"kind"`
	Description string          `json:"description" db:"description"`
	Reference   string          `json:"reference,omitempty" db:"reference"`
	Seq         int64           `json:"-" db:"seq"` // store-assigned insertion order
	CreatedAt   time.Time       `json:"createdAt" db:"created_at"`
}

// Cursor marks a position in most-recent-first transaction order.
type Cursor struct {
	CreatedAt time.Time
	Seq       int64
}

var ErrMalformedCursor = errors.New("malformed cursor")

// CursorAfter returns the cursor positioned just past tx.
func CursorAfter(tx Transaction) Cursor {
	return Cursor{CreatedAt: tx.CreatedAt, Seq: tx.Seq}
}

// Encode renders the cursor as an opaque URL-safe token.
func (c Cursor) Encode() string {
	raw := strconv.FormatInt(c.CreatedAt.UnixNano(), 10) + ":" + strconv.FormatInt(c.Seq, 10)
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// DecodeCursor parses a token produced by Cursor.Encode.
func DecodeCursor(token string) (*Cursor, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, ErrMalformedCursor
	}
	parts := strings.SplitN(string(raw), ":", 2)
	if len(parts) != 2 {
		return nil, ErrMalformedCursor
	}
	nanos, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return nil, ErrMalformedCursor
	}
	seq, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || seq < 0 {
		return nil, ErrMalformedCursor
	}
	return &Cursor{CreatedAt: time.Unix(0, nanos).UTC(), Seq: seq}, nil
}

// TransactionQuery selects a page of an account's history.
type TransactionQuery struct {
	Kind   TransactionKind // empty means all kinds
	Limit  int
	Before *Cursor // nil starts from the most recent
}

// Admits reports whether tx sorts strictly after c in most-recent-first order.
func (c Cursor) Admits(tx Transaction) bool {
	if tx.CreatedAt.Equal(c.CreatedAt) {
		return tx.Seq < c.Seq
	}
	return tx.CreatedAt.Before(c.CreatedAt)
}
