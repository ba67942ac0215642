package tasks

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ziadkadry99/esp-finder/internal/db"
)

// Store manages persistence of processing tasks.
type Store struct {
	db *db.DB
}

// NewStore creates a new task store.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// Create adds a pending task at 0% progress.
func (s *Store) Create(ctx context.Context, filePath, emailColumn string) (*Task, error) {
	now := time.Now().UTC()
	t := Task{
		ID:          uuid.New().String(),
		FilePath:    filePath,
		EmailColumn: emailColumn,
		Status:      StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tasks (id, file_path, email_column, progress, status, created_at, updated_at)
		 VALUES (?, ?, ?, 0, ?, ?, ?)`,
		t.ID, t.FilePath, t.EmailColumn, t.Status, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting task: %w", err)
	}
	return &t, nil
}

// Get retrieves a task by ID. It returns nil, nil when no task matches.
func (s *Store) Get(ctx context.Context, id string) (*Task, error) {
	var t Task
	err := s.db.QueryRowContext(ctx,
		`SELECT id, file_path, email_column, progress, status, error, output_name, total_rows, created_at, updated_at
		 FROM tasks WHERE id = ?`, id,
	).Scan(&t.ID, &t.FilePath, &t.EmailColumn, &t.Progress, &t.Status, &t.Error, &t.OutputName, &t.TotalRows, &t.CreatedAt, &t.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting task: %w", err)
	}
	return &t, nil
}

// Start marks a task as running over totalRows rows.
func (s *Store) Start(ctx context.Context, id string, totalRows int) error {
	return s.update(ctx, id,
		`UPDATE tasks SET status = ?, total_rows = ?, updated_at = ? WHERE id = ?`,
		StatusRunning, totalRows, time.Now().UTC(), id)
}

// SetProgress records the completion percentage of a running task.
func (s *Store) SetProgress(ctx context.Context, id string, progress float64) error {
	return s.update(ctx, id,
		`UPDATE tasks SET progress = ?, updated_at = ? WHERE id = ?`,
		progress, time.Now().UTC(), id)
}

// Complete marks a task done at 100% with its result file name.
func (s *Store) Complete(ctx context.Context, id, outputName string) error {
	return s.update(ctx, id,
		`UPDATE tasks SET status = ?, progress = 100, output_name = ?, updated_at = ? WHERE id = ?`,
		StatusDone, outputName, time.Now().UTC(), id)
}

// Fail marks a task failed; its progress becomes FailedProgress.
func (s *Store) Fail(ctx context.Context, id, reason string) error {
	return s.update(ctx, id,
		`UPDATE tasks SET status = ?, progress = ?, error = ?, updated_at = ? WHERE id = ?`,
		StatusFailed, FailedProgress, reason, time.Now().UTC(), id)
}

func (s *Store) update(ctx context.Context, id, query string, args ...interface{}) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("updating task %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating task %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("task %s not found", id)
	}
	return nil
}
