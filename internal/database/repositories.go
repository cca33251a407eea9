package database

import (
	"context"

	"github.com/benvon/project-assistant/internal/models"
)

// ProjectRepositoryInterface defines the project persistence operations the store depends on
type ProjectRepositoryInterface interface {
	Create(ctx context.Context, project *models.Project) error
	GetByID(ctx context.Context, owner string, id int64) (*models.Project, error)
	ListByOwner(ctx context.Context, owner string) ([]*models.Project, error)
	Update(ctx context.Context, project *models.Project) error
	Delete(ctx context.Context, owner string, id int64) error
}

// TaskRepositoryInterface defines the task persistence operations the store depends on
type TaskRepositoryInterface interface {
	Create(ctx context.Context, task *models.Task) error
	GetByID(ctx context.Context, projectID, id int64) (*models.Task, error)
	ListByProject(ctx context.Context, projectID int64) ([]*models.Task, error)
	Update(ctx context.Context, task *models.Task) error
	Delete(ctx context.Context, projectID, id int64) error
}

// Ensure concrete types implement the interfaces
var (
	_ ProjectRepositoryInterface = (*ProjectRepository)(nil)
	_ TaskRepositoryInterface    = (*TaskRepository)(nil)
)
