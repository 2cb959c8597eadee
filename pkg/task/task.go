// Package task holds the work items the productivity agent reads to compute
// schedule utilization.
package task

import (
	"context"
	"time"
)

// Priority levels, overwritable by an accepted reprioritization suggestion.
const (
	PriorityHigh   = "High"
	PriorityMedium = "Medium"
	PriorityLow    = "Low"
)

// Task is a unit of work with an effort estimate.
type Task struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	DueDate   time.Time `json:"dueDate"`
	EstHours  float64   `json:"est_hours"`
	Priority  string    `json:"priority"`
	Done      bool      `json:"done"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Store is the contract for task persistence.
type Store interface {
	Create(ctx context.Context, t *Task) (*Task, error)
	Get(ctx context.Context, id string) (*Task, error)

	// Upcoming returns the user's undone tasks due within [from, to],
	// earliest due date first.
	Upcoming(ctx context.Context, userID string, from, to time.Time) ([]Task, error)

	// List returns the user's tasks, earliest due date first.
	List(ctx context.Context, userID string, limit int) ([]Task, error)

	// SetPriority overwrites the task's priority.
	SetPriority(ctx context.Context, id, priority string) (*Task, error)

	// Complete marks a task done. Done is terminal for the agents.
	Complete(ctx context.Context, id string) (*Task, error)

	EnsureTable(ctx context.Context) error
}
