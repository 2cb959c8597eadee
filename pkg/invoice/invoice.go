// Package invoice holds the receivables record the collections agent acts
// on, including the agent-drafted nudge awaiting human approval.
package invoice

import (
	"context"
	"time"
)

// Status is the invoice lifecycle state.
type Status string

const (
	StatusDraft   Status = "DRAFT"
	StatusPending Status = "PENDING"
	StatusPartial Status = "PARTIAL"
	StatusOverdue Status = "OVERDUE"
	StatusPaid    Status = "PAID" // terminal: no agent acts on a paid invoice
)

// Draft nudge approval states. Only the collections agent writes a draft;
// a human approver moves it forward.
const (
	NudgeWaitingApproval = "waiting_approval"
	NudgeApproved        = "approved"
	NudgeSent            = "sent"
	NudgeRejected        = "rejected"
)

// DraftNudge is the agent-generated reminder stored on the invoice until a
// human approves, sends or rejects it.
type DraftNudge struct {
	Subject     string    `json:"subject"`
	Body        string    `json:"body"`
	Status      string    `json:"status"`
	GeneratedAt time.Time `json:"generated_at"`
}

// Invoice is a receivable owed by a client.
type Invoice struct {
	InvoiceID           string      `json:"invoice_id"`
	CompanyID           string      `json:"company_id,omitempty"`
	ClientID            string      `json:"client_id"`
	AmountDue           float64     `json:"amount_due"`
	Currency            string      `json:"currency"`
	DueDate             *time.Time  `json:"due_date,omitempty"`
	LastCommunicationAt *time.Time  `json:"last_communication_at,omitempty"`
	Status              Status      `json:"status"`
	DaysOverdue         int         `json:"days_overdue"`
	RiskScore           int         `json:"risk_score"` // 0-100, optional client risk
	DraftNudge          *DraftNudge `json:"draft_nudge,omitempty"`
	CreatedAt           time.Time   `json:"created_at"`
	UpdatedAt           time.Time   `json:"updated_at"`
}

// Store is the contract for invoice persistence.
type Store interface {
	Create(ctx context.Context, inv *Invoice) (*Invoice, error)
	Get(ctx context.Context, invoiceID string) (*Invoice, error)

	// List returns invoices filtered by status (empty = all), newest first.
	List(ctx context.Context, status Status, limit int) ([]Invoice, error)

	// SaveDraftNudge writes the agent-generated draft onto the invoice.
	// The write is conditional: a draft in "approved" or "sent" state is
	// never overwritten, so overlapping agent passes cannot clobber a
	// human decision.
	SaveDraftNudge(ctx context.Context, invoiceID string, n *DraftNudge) error

	// SetNudgeStatus advances an existing draft's approval state.
	SetNudgeStatus(ctx context.Context, invoiceID, status string) (*Invoice, error)

	EnsureTable(ctx context.Context) error
}
