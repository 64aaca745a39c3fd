package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/sessionpass/backend/internal/models"
)

//go:embed schema.sql
var schemaSQL string

const (
	accountColumns     = `id, short_id, contact_number, balance, version, created_at, updated_at`
	transactionColumns = `seq, id, account_id, amount, kind, description, reference, created_at`

	uniqueViolation = "23505"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates the wallet tables and indexes if they do not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, schemaSQL)
	return classify(err)
}

func (s *PostgresStore) GetAccountByField(ctx context.Context, field models.AccountField, value string) (*models.Account, error) {
	column, err := accountColumn(field)
	if err != nil {
		return nil, err
	}

	// contact numbers are not unique; the oldest account wins
	query := `SELECT ` + accountColumns + ` FROM wallet_accounts WHERE ` + column + ` = $1 ORDER BY created_at ASC LIMIT 1`
	return scanAccount(s.db.QueryRowContext(ctx, query, value))
}

func (s *PostgresStore) CreateAccount(ctx context.Context, account *models.Account) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO wallet_accounts (id, short_id, contact_number, balance, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		account.ID, account.ShortID, account.ContactNumber, account.Balance, account.Version,
		account.CreatedAt, account.UpdatedAt)
	return classify(err)
}

func (s *PostgresStore) GetTransaction(ctx context.Context, accountID, transactionID string) (*models.Transaction, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+transactionColumns+`
		FROM wallet_transactions
		WHERE account_id = $1 AND id = $2`, accountID, transactionID)
	return scanTransaction(row)
}

func (s *PostgresStore) ListTransactions(ctx context.Context, accountID string, q models.TransactionQuery) ([]models.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM wallet_transactions WHERE account_id = $1`
	args := []any{accountID}

	if q.Kind != "" {
		args = append(args, string(q.Kind))
		query += fmt.Sprintf(" AND kind = $%d", len(args))
	}
	if q.Before != nil {
		args = append(args, q.Before.CreatedAt, q.Before.Seq)
		query += fmt.Sprintf(" AND (created_at, seq) < ($%d, $%d)", len(args)-1, len(args))
	}
	args = append(args, q.Limit)
	query += fmt.Sprintf(" ORDER BY created_at DESC, seq DESC LIMIT $%d", len(args))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify(err)
	}
	return collectTransactions(rows)
}

func (s *PostgresStore) ListAccountIDs(ctx context.Context, afterID string, limit int) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id FROM wallet_accounts
		WHERE id > $1
		ORDER BY id
		LIMIT $2`, afterID, limit)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, classify(err)
		}
		ids = append(ids, id)
	}
	return ids, classify(rows.Err())
}

func (s *PostgresStore) WithAccountLock(ctx context.Context, accountID string, fn func(tx Tx, account *models.Account) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return classify(err)
	}
	defer tx.Rollback()

	account, err := scanAccount(tx.QueryRowContext(ctx, `
		SELECT `+accountColumns+`
		FROM wallet_accounts
		WHERE id = $1
		FOR UPDATE`, accountID))
	if err != nil {
		return err
	}

	ptx := &postgresTx{tx: tx, versions: map[string]int64{account.ID: account.Version}}
	if err := fn(ptx, account); err != nil {
		return err
	}

	return classify(tx.Commit())
}

type postgresTx struct {
	tx       *sql.Tx
	versions map[string]int64
}

func (t *postgresTx) UpdateAccountBalance(ctx context.Context, accountID string, newBalance int64) error {
	version := t.versions[accountID]
	result, err := t.tx.ExecContext(ctx, `
		UPDATE wallet_accounts
		SET balance = $1, version = version + 1, updated_at = $2
		WHERE id = $3 AND version = $4`,
		newBalance, time.Now().UTC(), accountID, version)
	if err != nil {
		return classify(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return classify(err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%w: account %s at version %d", ErrConflict, accountID, version)
	}

	t.versions[accountID] = version + 1
	return nil
}

func (t *postgresTx) InsertTransaction(ctx context.Context, txn *models.Transaction) error {
	err := t.tx.QueryRowContext(ctx, `
		INSERT INTO wallet_transactions (id, account_id, amount, kind, description, reference, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING seq`,
		txn.ID, txn.AccountID, txn.Amount, string(txn.Kind), txn.Description, txn.Reference, txn.CreatedAt,
	).Scan(&txn.Seq)
	return classify(err)
}

func (t *postgresTx) FindTransactionByReference(ctx context.Context, accountID, reference string, kind models.TransactionKind) (*models.Transaction, error) {
	row := t.tx.QueryRowContext(ctx, `
		SELECT `+transactionColumns+`
		FROM wallet_transactions
		WHERE account_id = $1 AND reference = $2 AND kind = $3
		LIMIT 1`, accountID, reference, string(kind))
	return scanTransaction(row)
}

func (t *postgresTx) ReplayTransactions(ctx context.Context, accountID string) ([]models.Transaction, error) {
	rows, err := t.tx.QueryContext(ctx, `
		SELECT `+transactionColumns+`
		FROM wallet_transactions
		WHERE account_id = $1
		ORDER BY created_at ASC, seq ASC`, accountID)
	if err != nil {
		return nil, classify(err)
	}
	return collectTransactions(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*models.Account, error) {
	var a models.Account
	err := row.Scan(&a.ID, &a.ShortID, &a.ContactNumber, &a.Balance, &a.Version, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, classify(err)
	}
	return &a, nil
}

func scanTransaction(row rowScanner) (*models.Transaction, error) {
	var t models.Transaction
	var kind string
	err := row.Scan(&t.Seq, &t.ID, &t.AccountID, &t.Amount, &kind, &t.Description, &t.Reference, &t.CreatedAt)
	if err != nil {
		return nil, classify(err)
	}
	t.Kind = models.TransactionKind(kind)
	return &t, nil
}

func collectTransactions(rows *sql.Rows) ([]models.Transaction, error) {
	defer rows.Close()

	var txs []models.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, *t)
	}
	return txs, classify(rows.Err())
}

func accountColumn(field models.AccountField) (string, error) {
	switch field {
	case models.AccountFieldID, models.AccountFieldShortID, models.AccountFieldContactNumber:
		return string(field), nil
	}
	return "", fmt.Errorf("unsupported account field %q", field)
}

// classify maps driver errors onto the store sentinels. Anything that is not a
// missing row or a unique violation is treated as a transient failure.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s", ErrDuplicate, pqErr.Constraint)
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}
