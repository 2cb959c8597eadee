package transaction

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgStore is a PostgreSQL-backed transaction store.
type PgStore struct {
	pool *pgxpool.Pool
}

// NewPgStore creates a PgStore.
func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

// EnsureTable creates the transactions table if it doesn't exist.
func (s *PgStore) EnsureTable(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS transactions (
			transaction_id       TEXT PRIMARY KEY,
			user_id              TEXT NOT NULL,
			transaction_type     TEXT NOT NULL DEFAULT 'DEBIT',
			amount               DOUBLE PRECISION NOT NULL DEFAULT 0,
			currency             TEXT NOT NULL DEFAULT 'INR',
			narration            TEXT NOT NULL DEFAULT '',
			date                 TIMESTAMPTZ,
			transaction_category TEXT NOT NULL DEFAULT '',
			is_deductible        BOOLEAN NOT NULL DEFAULT FALSE,
			deduction_status     TEXT NOT NULL DEFAULT '',
			deduction_confidence INTEGER NOT NULL DEFAULT 0,
			created_at           TIMESTAMPTZ DEFAULT NOW(),
			updated_at           TIMESTAMPTZ DEFAULT NOW()
		)`)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `CREATE INDEX IF NOT EXISTS idx_transactions_user ON transactions(user_id)`)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `CREATE INDEX IF NOT EXISTS idx_transactions_review ON transactions(user_id, deduction_status)`)
	return err
}

const txnColumns = `transaction_id, user_id, transaction_type, amount, currency, narration, date, transaction_category, is_deductible, deduction_status, deduction_confidence, created_at, updated_at`

// Create inserts a new transaction, generating an ID when absent.
func (s *PgStore) Create(ctx context.Context, t *Transaction) (*Transaction, error) {
	if t.TransactionID == "" {
		t.TransactionID = uuid.Must(uuid.NewV7()).String()
	}
	now := time.Now().Truncate(time.Microsecond)
	t.CreatedAt = now
	t.UpdatedAt = now
	if t.Type == "" {
		t.Type = TypeDebit
	}
	if t.Currency == "" {
		t.Currency = "INR"
	}
	if t.Date.IsZero() {
		t.Date = now
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO transactions (`+txnColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		t.TransactionID, t.UserID, t.Type, t.Amount, t.Currency, t.Narration,
		t.Date, t.Category, t.IsDeductible, t.DeductionStatus,
		t.DeductionConfidence, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("create transaction: %w", err)
	}
	return t, nil
}

// Get retrieves a single transaction by business key.
func (s *PgStore) Get(ctx context.Context, transactionID string) (*Transaction, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+txnColumns+` FROM transactions WHERE transaction_id = $1`, transactionID)
	t, err := scanTransaction(row)
	if err != nil {
		return nil, fmt.Errorf("get transaction %s: %w", transactionID, err)
	}
	return t, nil
}

// ByUser returns a user's transactions, newest first.
func (s *PgStore) ByUser(ctx context.Context, userID string, limit int) ([]Transaction, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+txnColumns+` FROM transactions
		WHERE user_id = $1 ORDER BY date DESC LIMIT $2`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("transactions by user: %w", err)
	}
	defer rows.Close()
	return scanTransactionRows(rows)
}

// Unclassified returns transactions no classification pass has touched yet,
// oldest first so a batch sweep drains the backlog in order.
func (s *PgStore) Unclassified(ctx context.Context, limit int) ([]Transaction, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+txnColumns+` FROM transactions
		WHERE transaction_category = '' ORDER BY created_at ASC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("unclassified transactions: %w", err)
	}
	defer rows.Close()
	return scanTransactionRows(rows)
}

// NeedsReview returns the user's transactions awaiting manual review.
func (s *PgStore) NeedsReview(ctx context.Context, userID string) ([]Transaction, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+txnColumns+` FROM transactions
		WHERE user_id = $1 AND deduction_status = $2 ORDER BY date DESC`,
		userID, DeductionNeedsReview)
	if err != nil {
		return nil, fmt.Errorf("needs-review transactions: %w", err)
	}
	defer rows.Close()
	return scanTransactionRows(rows)
}

// SaveClassification writes all annotation fields from one classification
// pass in a single update.
func (s *PgStore) SaveClassification(ctx context.Context, transactionID string, c Classification) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE transactions
		SET transaction_category = $1, is_deductible = $2, deduction_status = $3,
		    deduction_confidence = $4, updated_at = $5
		WHERE transaction_id = $6`,
		c.Category, c.Deductible, c.Status, c.Confidence,
		time.Now().Truncate(time.Microsecond), transactionID)
	if err != nil {
		return fmt.Errorf("save classification %s: %w", transactionID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("transaction %s not found", transactionID)
	}
	return nil
}

// DistinctUsers lists every user with at least one transaction.
func (s *PgStore) DistinctUsers(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT DISTINCT user_id FROM transactions ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("distinct users: %w", err)
	}
	defer rows.Close()

	var users []string
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func scanTransaction(row interface{ Scan(dest ...any) error }) (*Transaction, error) {
	var t Transaction
	err := row.Scan(&t.TransactionID, &t.UserID, &t.Type, &t.Amount, &t.Currency,
		&t.Narration, &t.Date, &t.Category, &t.IsDeductible, &t.DeductionStatus,
		&t.DeductionConfidence, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func scanTransactionRows(rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}) ([]Transaction, error) {
	var txns []Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txns = append(txns, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration: %w", err)
	}
	return txns, nil
}
