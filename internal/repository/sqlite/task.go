package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/notifydo/internal/apperror"
	"github.com/sakif/notifydo/internal/model"
	"github.com/sakif/notifydo/internal/repository"
)

// compile-time check that *TaskDB implements repository.TaskRepository
var _ repository.TaskRepository = (*TaskDB)(nil)

// TaskDB is the task store.
type TaskDB struct {
	conn *sql.DB
}

const taskColumns = `id, user_id, title, description, completed, due_date, priority, tags, created_at, updated_at`

// Create inserts a new task, assigning its ID and both timestamps.
func (db *TaskDB) Create(ctx context.Context, task *model.Task) error {
	now := time.Now().UTC()
	task.ID = xid.New().String()
	task.CreatedAt = now
	task.UpdatedAt = now
	if task.Tags == nil {
		task.Tags = []string{}
	}

	tags, err := json.Marshal(task.Tags)
	if err != nil {
		return fmt.Errorf("sqlite: encoding tags: %w", err)
	}

	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO tasks (`+taskColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		task.ID,
		task.UserID,
		task.Title,
		task.Description,
		task.Completed,
		nullTime(task.DueDate),
		string(task.Priority),
		string(tags),
		task.CreatedAt,
		task.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting task: %w", err)
	}

	return nil
}

// GetByID retrieves a task regardless of owner.
// Returns apperror.ErrNotFound if no task exists with that ID.
func (db *TaskDB) GetByID(ctx context.Context, id string) (*model.Task, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id,
	)

	t, err := scanTask(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("task", id)
		}
		return nil, fmt.Errorf("sqlite: getting task %s: %w", id, err)
	}

	return t, nil
}

// ListByUser returns every task owned by userID in insertion order.
// An empty result is an empty slice, never nil, so it encodes as [].
func (db *TaskDB) ListByUser(ctx context.Context, userID string) ([]model.Task, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE user_id = ? ORDER BY rowid`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing tasks for user %s: %w", userID, err)
	}
	defer rows.Close()

	tasks := []model.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning task row: %w", err)
		}
		tasks = append(tasks, *t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating task rows: %w", err)
	}

	return tasks, nil
}

// Update overwrites every mutable field of an existing task and refreshes
// UpdatedAt. The owner and CreatedAt never change.
func (db *TaskDB) Update(ctx context.Context, task *model.Task) error {
	task.UpdatedAt = time.Now().UTC()
	if task.Tags == nil {
		task.Tags = []string{}
	}

	tags, err := json.Marshal(task.Tags)
	if err != nil {
		return fmt.Errorf("sqlite: encoding tags: %w", err)
	}

	result, err := db.conn.ExecContext(ctx,
		`UPDATE tasks
		 SET title = ?, description = ?, completed = ?, due_date = ?, priority = ?, tags = ?, updated_at = ?
		 WHERE id = ?`,
		task.Title,
		task.Description,
		task.Completed,
		nullTime(task.DueDate),
		string(task.Priority),
		string(tags),
		task.UpdatedAt,
		task.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating task %s: %w", task.ID, err)
	}

	return expectOneRow(result, "task", task.ID)
}

// Delete removes a task by ID.
// Returns apperror.ErrNotFound if the task doesn't exist.
func (db *TaskDB) Delete(ctx context.Context, id string) error {
	result, err := db.conn.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting task %s: %w", id, err)
	}

	return expectOneRow(result, "task", id)
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(s rowScanner) (*model.Task, error) {
	var (
		t        model.Task
		due      sql.NullTime
		priority string
		tags     string
	)

	err := s.Scan(
		&t.ID,
		&t.UserID,
		&t.Title,
		&t.Description,
		&t.Completed,
		&due,
		&priority,
		&tags,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if due.Valid {
		d := due.Time
		t.DueDate = &d
	}
	t.Priority = model.Priority(priority)

	if err := json.Unmarshal([]byte(tags), &t.Tags); err != nil {
		return nil, fmt.Errorf("decoding tags of task %s: %w", t.ID, err)
	}
	if t.Tags == nil {
		t.Tags = []string{}
	}

	return &t, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func expectOneRow(result sql.Result, resource, id string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if n == 0 {
		return apperror.NotFound(resource, id)
	}
	return nil
}
