package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/xid"

	"github.com/sakif/notifydo/internal/apperror"
	"github.com/sakif/notifydo/internal/model"
	"github.com/sakif/notifydo/internal/repository"
)

var _ repository.TaskRepository = (*TaskRepo)(nil)

// TaskRepo is the task store on PostgreSQL. Tags map to a TEXT[] column.
type TaskRepo struct {
	pool *pgxpool.Pool
}

const taskColumns = `id, user_id, title, description, completed, due_date, priority, tags, created_at, updated_at`

// Create inserts a task, assigning its ID and timestamps.
func (r *TaskRepo) Create(ctx context.Context, task *model.Task) error {
	now := time.Now().UTC()
	task.ID = xid.New().String()
	task.CreatedAt = now
	task.UpdatedAt = now
	if task.Tags == nil {
		task.Tags = []string{}
	}

	const query = `INSERT INTO tasks (` + taskColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.pool.Exec(ctx, query,
		task.ID, task.UserID, task.Title, task.Description, task.Completed,
		task.DueDate, string(task.Priority), task.Tags, task.CreatedAt, task.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: inserting task: %w", err)
	}
	return nil
}

// GetByID fetches a task regardless of owner.
func (r *TaskRepo) GetByID(ctx context.Context, id string) (*model.Task, error) {
	const query = `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`
	t, err := scanTask(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NotFound("task", id)
		}
		return nil, fmt.Errorf("postgres: getting task %s: %w", id, err)
	}
	return t, nil
}

// ListByUser returns the user's tasks in insertion order.
func (r *TaskRepo) ListByUser(ctx context.Context, userID string) ([]model.Task, error) {
	const query = `SELECT ` + taskColumns + ` FROM tasks WHERE user_id = $1 ORDER BY seq`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("postgres: listing tasks: %w", err)
	}
	defer rows.Close()

	tasks := []model.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scanning task: %w", err)
		}
		tasks = append(tasks, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterating tasks: %w", err)
	}
	return tasks, nil
}

// Update overwrites the mutable fields of a task.
func (r *TaskRepo) Update(ctx context.Context, task *model.Task) error {
	task.UpdatedAt = time.Now().UTC()
	if task.Tags == nil {
		task.Tags = []string{}
	}

	const query = `UPDATE tasks
		SET title = $2, description = $3, completed = $4, due_date = $5, priority = $6, tags = $7, updated_at = $8
		WHERE id = $1`
	tag, err := r.pool.Exec(ctx, query,
		task.ID, task.Title, task.Description, task.Completed,
		task.DueDate, string(task.Priority), task.Tags, task.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: updating task %s: %w", task.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NotFound("task", task.ID)
	}
	return nil
}

// Delete removes a task.
func (r *TaskRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("postgres: deleting task %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NotFound("task", id)
	}
	return nil
}

func scanTask(row pgx.Row) (*model.Task, error) {
	var (
		t        model.Task
		priority string
	)
	err := row.Scan(
		&t.ID, &t.UserID, &t.Title, &t.Description, &t.Completed,
		&t.DueDate, &priority, &t.Tags, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	t.Priority = model.Priority(priority)
	if t.Tags == nil {
		t.Tags = []string{}
	}
	return &t, nil
}
