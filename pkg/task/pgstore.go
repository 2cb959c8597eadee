package task

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgStore is a PostgreSQL-backed task store.
type PgStore struct {
	pool *pgxpool.Pool
}

// NewPgStore creates a PgStore.
func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

// EnsureTable creates the tasks table if it doesn't exist.
func (s *PgStore) EnsureTable(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS tasks (
			id         TEXT PRIMARY KEY,
			user_id    TEXT NOT NULL,
			title      TEXT NOT NULL,
			due_date   TIMESTAMPTZ,
			est_hours  DOUBLE PRECISION NOT NULL DEFAULT 1,
			priority   TEXT NOT NULL DEFAULT 'Medium',
			done       BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ DEFAULT NOW(),
			updated_at TIMESTAMPTZ DEFAULT NOW()
		)`)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `CREATE INDEX IF NOT EXISTS idx_tasks_user_due ON tasks(user_id, due_date) WHERE NOT done`)
	return err
}

const taskColumns = `id, user_id, title, due_date, est_hours, priority, done, created_at, updated_at`

// Create inserts a new task.
func (s *PgStore) Create(ctx context.Context, t *Task) (*Task, error) {
	t.ID = uuid.Must(uuid.NewV7()).String()
	now := time.Now().Truncate(time.Microsecond)
	t.CreatedAt = now
	t.UpdatedAt = now
	if t.Priority == "" {
		t.Priority = PriorityMedium
	}
	if t.EstHours <= 0 {
		t.EstHours = 1
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO tasks (`+taskColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		t.ID, t.UserID, t.Title, t.DueDate, t.EstHours, t.Priority, t.Done, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}
	return t, nil
}

// Get retrieves a single task by ID.
func (s *PgStore) Get(ctx context.Context, id string) (*Task, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id)
	t, err := scanTask(row)
	if err != nil {
		return nil, fmt.Errorf("get task %s: %w", id, err)
	}
	return t, nil
}

// Upcoming returns the user's undone tasks due within [from, to].
func (s *PgStore) Upcoming(ctx context.Context, userID string, from, to time.Time) ([]Task, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+taskColumns+` FROM tasks
		WHERE user_id = $1 AND NOT done AND due_date >= $2 AND due_date <= $3
		ORDER BY due_date ASC`, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("upcoming tasks: %w", err)
	}
	defer rows.Close()
	return scanTaskRows(rows)
}

// List returns the user's tasks, earliest due date first.
func (s *PgStore) List(ctx context.Context, userID string, limit int) ([]Task, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+taskColumns+` FROM tasks
		WHERE user_id = $1 ORDER BY due_date ASC LIMIT $2`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()
	return scanTaskRows(rows)
}

// SetPriority overwrites the task's priority.
func (s *PgStore) SetPriority(ctx context.Context, id, priority string) (*Task, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE tasks SET priority = $1, updated_at = $2
		WHERE id = $3
		RETURNING `+taskColumns,
		priority, time.Now().Truncate(time.Microsecond), id)
	t, err := scanTask(row)
	if err != nil {
		return nil, fmt.Errorf("set priority %s: %w", id, err)
	}
	return t, nil
}

// Complete marks a task done.
func (s *PgStore) Complete(ctx context.Context, id string) (*Task, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE tasks SET done = TRUE, updated_at = $1
		WHERE id = $2
		RETURNING `+taskColumns,
		time.Now().Truncate(time.Microsecond), id)
	t, err := scanTask(row)
	if err != nil {
		return nil, fmt.Errorf("complete task %s: %w", id, err)
	}
	return t, nil
}

func scanTask(row interface{ Scan(dest ...any) error }) (*Task, error) {
	var t Task
	err := row.Scan(&t.ID, &t.UserID, &t.Title, &t.DueDate, &t.EstHours, &t.Priority, &t.Done, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func scanTaskRows(rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}) ([]Task, error) {
	var tasks []Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration: %w", err)
	}
	return tasks, nil
}
