// Package transaction holds the expense/income record the tax agent
// classifies for deductibility.
package transaction

import (
	"context"
	"time"
)

// Type distinguishes money in from money out.
type Type string

const (
	TypeDebit  Type = "DEBIT"
	TypeCredit Type = "CREDIT"
)

// Deduction review states. The tax agent writes auto_verified or
// needs_review; a human reviewer may later set approved or rejected.
const (
	DeductionAutoVerified = "auto_verified"
	DeductionNeedsReview  = "needs_review"
	DeductionRejected     = "rejected"
	DeductionApproved     = "approved"
)

// Transaction is a single ledger entry for a user.
type Transaction struct {
	TransactionID       string    `json:"transaction_id"`
	UserID              string    `json:"user_id"`
	Type                Type      `json:"transaction_type"`
	Amount              float64   `json:"amount"`
	Currency            string    `json:"currency"`
	Narration           string    `json:"narration"`
	Date                time.Time `json:"date"`
	Category            string    `json:"transaction_category,omitempty"`
	IsDeductible        bool      `json:"isDeductible"`
	DeductionStatus     string    `json:"deduction_status,omitempty"`
	DeductionConfidence int       `json:"deduction_confidence"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// Classification is the full result of one classification pass, written onto
// the transaction in a single update.
type Classification struct {
	Category   string
	Deductible bool
	Confidence int // 0-100
	Status     string
}

// Store is the contract for transaction persistence.
type Store interface {
	Create(ctx context.Context, t *Transaction) (*Transaction, error)
	Get(ctx context.Context, transactionID string) (*Transaction, error)

	// ByUser returns a user's transactions, newest first.
	ByUser(ctx context.Context, userID string, limit int) ([]Transaction, error)

	// Unclassified returns transactions no classification pass has touched.
	Unclassified(ctx context.Context, limit int) ([]Transaction, error)

	// NeedsReview returns the user's transactions awaiting manual
	// deduction review.
	NeedsReview(ctx context.Context, userID string) ([]Transaction, error)

	// SaveClassification persists the tax agent's annotation fields.
	SaveClassification(ctx context.Context, transactionID string, c Classification) error

	// DistinctUsers lists every user with at least one transaction.
	DistinctUsers(ctx context.Context) ([]string, error)

	EnsureTable(ctx context.Context) error
}
