package models

import "time"

// TaskStatus represents the workflow state of a task
type TaskStatus string

const (
	TaskStatusTodo       TaskStatus = "TODO"
	TaskStatusInProgress TaskStatus = "IN_PROGRESS"
	TaskStatusDone       TaskStatus = "DONE"
)

// Valid reports whether s is one of the known task statuses
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusTodo, TaskStatusInProgress, TaskStatusDone:
		return true
	default:
		return false
	}
}

// Task represents a unit of work inside a project
type Task struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      TaskStatus `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	ProjectID   int64      `json:"project_id"`
	Importance  *int       `json:"importance,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	IsRecurring *bool      `json:"is_recurring,omitempty"`
	AIContext   *string    `json:"ai_context,omitempty"`
}
