// Package event holds calendar blocks. The productivity agent reads them to
// detect conflicts and creates them when a deep-work proposal is executed.
package event

import (
	"context"
	"time"
)

// Event is one calendar block.
type Event struct {
	EventID     string    `json:"event_id"`
	UserID      string    `json:"user_id"`
	Title       string    `json:"title"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	EventType   string    `json:"event_type"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Store is the contract for event persistence.
type Store interface {
	// Create inserts a new event, generating its identifier.
	Create(ctx context.Context, e *Event) (*Event, error)

	// InWindow returns the user's events starting within [from, to].
	InWindow(ctx context.Context, userID string, from, to time.Time) ([]Event, error)

	// List returns the user's events, soonest first.
	List(ctx context.Context, userID string, limit int) ([]Event, error)

	EnsureTable(ctx context.Context) error
}
