package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/benvon/project-assistant/internal/models"
)

// TaskRepository handles task database operations. Callers establish project ownership first.
type TaskRepository struct {
	db querier
}

// NewTaskRepository creates a new task repository
func NewTaskRepository(db *DB) *TaskRepository {
	return &TaskRepository{db: db}
}

const taskColumns = `id, title, description, status, created_at, project_id, importance, due_date, is_recurring, ai_context`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*models.Task, error) {
	task := &models.Task{}
	var (
		importance  sql.NullInt64
		dueDate     sql.NullTime
		isRecurring sql.NullBool
		aiContext   sql.NullString
	)
	if err := row.Scan(
		&task.ID,
		&task.Title,
		&task.Description,
		&task.Status,
		&task.CreatedAt,
		&task.ProjectID,
		&importance,
		&dueDate,
		&isRecurring,
		&aiContext,
	); err != nil {
		return nil, err
	}
	if importance.Valid {
		v := int(importance.Int64)
		task.Importance = &v
	}
	if dueDate.Valid {
		task.DueDate = &dueDate.Time
	}
	if isRecurring.Valid {
		task.IsRecurring = &isRecurring.Bool
	}
	if aiContext.Valid {
		task.AIContext = &aiContext.String
	}
	return task, nil
}

// optionalArgs converts the task's nullable fields into query arguments
func optionalArgs(task *models.Task) []any {
	var (
		importance  sql.NullInt64
		dueDate     sql.NullTime
		isRecurring sql.NullBool
		aiContext   sql.NullString
	)
	if task.Importance != nil {
		importance = sql.NullInt64{Int64: int64(*task.Importance), Valid: true}
	}
	if task.DueDate != nil {
		dueDate = sql.NullTime{Time: *task.DueDate, Valid: true}
	}
	if task.IsRecurring != nil {
		isRecurring = sql.NullBool{Bool: *task.IsRecurring, Valid: true}
	}
	if task.AIContext != nil {
		aiContext = sql.NullString{String: *task.AIContext, Valid: true}
	}
	return []any{importance, dueDate, isRecurring, aiContext}
}

// Create inserts a task and fills in its ID and CreatedAt. An empty status is stored as TODO.
func (r *TaskRepository) Create(ctx context.Context, task *models.Task) error {
	if task.Status == "" {
		task.Status = models.TaskStatusTodo
	}
	query := `
		INSERT INTO tasks (project_id, title, description, status, importance, due_date, is_recurring, ai_context)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`
	args := append([]any{task.ProjectID, task.Title, task.Description, string(task.Status)}, optionalArgs(task)...)
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&task.ID, &task.CreatedAt); err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}
	return nil
}

// GetByID retrieves a task inside a project
func (r *TaskRepository) GetByID(ctx context.Context, projectID, id int64) (*models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1 AND project_id = $2`
	task, err := scanTask(r.db.QueryRowContext(ctx, query, id, projectID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("task %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return task, nil
}

// ListByProject returns a project's tasks in creation order
func (r *TaskRepository) ListByProject(ctx context.Context, projectID int64) ([]*models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE project_id = $1 ORDER BY created_at, id`

	rows, err := r.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer rows.Close()

	tasks := []*models.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tasks: %w", err)
	}
	return tasks, nil
}

// Update overwrites the editable fields of a task
func (r *TaskRepository) Update(ctx context.Context, task *models.Task) error {
	query := `
		UPDATE tasks
		SET title = $3, description = $4, status = $5, importance = $6, due_date = $7,
		    is_recurring = $8, ai_context = $9, updated_at = NOW()
		WHERE id = $1 AND project_id = $2
	`
	args := append([]any{task.ID, task.ProjectID, task.Title, task.Description, string(task.Status)}, optionalArgs(task)...)
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}
	return affectedOne(result, fmt.Sprintf("task %d", task.ID))
}

// Delete removes a task from a project
func (r *TaskRepository) Delete(ctx context.Context, projectID, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1 AND project_id = $2`, id, projectID)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	return affectedOne(result, fmt.Sprintf("task %d", id))
}
