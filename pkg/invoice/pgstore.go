package invoice

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PgStore is a PostgreSQL-backed invoice store.
type PgStore struct {
	pool *pgxpool.Pool
}

// NewPgStore creates a PgStore.
func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

// EnsureTable creates the invoices table if it doesn't exist.
func (s *PgStore) EnsureTable(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS invoices (
			invoice_id            TEXT PRIMARY KEY,
			company_id            TEXT NOT NULL DEFAULT '',
			client_id             TEXT NOT NULL DEFAULT '',
			amount_due            DOUBLE PRECISION NOT NULL DEFAULT 0,
			currency              TEXT NOT NULL DEFAULT 'INR',
			due_date              TIMESTAMPTZ,
			last_communication_at TIMESTAMPTZ,
			status                TEXT NOT NULL DEFAULT 'DRAFT',
			days_overdue          INTEGER NOT NULL DEFAULT 0,
			risk_score            INTEGER NOT NULL DEFAULT 0,
			draft_nudge           JSONB,
			created_at            TIMESTAMPTZ DEFAULT NOW(),
			updated_at            TIMESTAMPTZ DEFAULT NOW()
		)`)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `CREATE INDEX IF NOT EXISTS idx_invoices_status ON invoices(status)`)
	return err
}

const invoiceColumns = `invoice_id, company_id, client_id, amount_due, currency, due_date, last_communication_at, status, days_overdue, risk_score, draft_nudge, created_at, updated_at`

// Create inserts a new invoice.
func (s *PgStore) Create(ctx context.Context, inv *Invoice) (*Invoice, error) {
	now := time.Now().Truncate(time.Microsecond)
	inv.CreatedAt = now
	inv.UpdatedAt = now
	if inv.Status == "" {
		inv.Status = StatusDraft
	}
	if inv.Currency == "" {
		inv.Currency = "INR"
	}

	var nudgeJSON any
	if inv.DraftNudge != nil {
		b, err := json.Marshal(inv.DraftNudge)
		if err != nil {
			return nil, fmt.Errorf("marshal draft nudge: %w", err)
		}
		nudgeJSON = string(b)
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO invoices (`+invoiceColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11::jsonb, $12, $13)`,
		inv.InvoiceID, inv.CompanyID, inv.ClientID, inv.AmountDue, inv.Currency,
		inv.DueDate, inv.LastCommunicationAt, inv.Status, inv.DaysOverdue,
		inv.RiskScore, nudgeJSON, inv.CreatedAt, inv.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("create invoice: %w", err)
	}
	return inv, nil
}

// Get retrieves a single invoice by business key.
func (s *PgStore) Get(ctx context.Context, invoiceID string) (*Invoice, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE invoice_id = $1`, invoiceID)
	inv, err := scanInvoice(row)
	if err != nil {
		return nil, fmt.Errorf("get invoice %s: %w", invoiceID, err)
	}
	return inv, nil
}

// List returns invoices filtered by status (empty = all), newest first.
func (s *PgStore) List(ctx context.Context, status Status, limit int) ([]Invoice, error) {
	var query string
	var args []any
	if status != "" {
		query = `SELECT ` + invoiceColumns + ` FROM invoices WHERE status = $1 ORDER BY created_at DESC LIMIT $2`
		args = []any{status, limit}
	} else {
		query = `SELECT ` + invoiceColumns + ` FROM invoices ORDER BY created_at DESC LIMIT $1`
		args = []any{limit}
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	defer rows.Close()

	var invoices []Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		invoices = append(invoices, *inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration: %w", err)
	}
	return invoices, nil
}

// SaveDraftNudge writes the draft, refusing to replace one a human has
// already approved or sent.
func (s *PgStore) SaveDraftNudge(ctx context.Context, invoiceID string, n *DraftNudge) error {
	b, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal draft nudge: %w", err)
	}
	tag, err := s.pool.Exec(ctx, `
		UPDATE invoices SET draft_nudge = $1::jsonb, updated_at = $2
		WHERE invoice_id = $3
		  AND COALESCE(draft_nudge->>'status', '') NOT IN ($4, $5)`,
		string(b), time.Now().Truncate(time.Microsecond), invoiceID, NudgeApproved, NudgeSent)
	if err != nil {
		return fmt.Errorf("save draft nudge %s: %w", invoiceID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("invoice %s: draft nudge not writable", invoiceID)
	}
	return nil
}

// SetNudgeStatus advances the draft's approval state. Fails when the invoice
// has no draft to advance.
func (s *PgStore) SetNudgeStatus(ctx context.Context, invoiceID, status string) (*Invoice, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE invoices
		SET draft_nudge = jsonb_set(draft_nudge, '{status}', to_jsonb($1::text)), updated_at = $2
		WHERE invoice_id = $3 AND draft_nudge IS NOT NULL
		RETURNING `+invoiceColumns,
		status, time.Now().Truncate(time.Microsecond), invoiceID)
	inv, err := scanInvoice(row)
	if err != nil {
		return nil, fmt.Errorf("set nudge status %s: %w", invoiceID, err)
	}
	return inv, nil
}

func scanInvoice(row interface{ Scan(dest ...any) error }) (*Invoice, error) {
	var inv Invoice
	var nudgeJSON []byte
	err := row.Scan(&inv.InvoiceID, &inv.CompanyID, &inv.ClientID, &inv.AmountDue,
		&inv.Currency, &inv.DueDate, &inv.LastCommunicationAt, &inv.Status,
		&inv.DaysOverdue, &inv.RiskScore, &nudgeJSON, &inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if len(nudgeJSON) > 0 {
		var n DraftNudge
		if err := json.Unmarshal(nudgeJSON, &n); err == nil {
			inv.DraftNudge = &n
		}
	}
	return &inv, nil
}
