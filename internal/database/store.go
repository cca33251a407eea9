package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/benvon/project-assistant/internal/models"
)

// TaskUpdate carries the fields of a partial task update. Nil fields are left unchanged.
type TaskUpdate struct {
	Title       *string
	Description *string
	Status      *models.TaskStatus
}

// Store is the owner-scoped project and task service used by the chat resolver, the
// fallback service and the REST handlers. Task operations check project ownership first.
type Store struct {
	projects ProjectRepositoryInterface
	tasks    TaskRepositoryInterface
}

// NewStore creates a store over the PostgreSQL repositories
func NewStore(db *DB) *Store {
	return NewStoreWithRepositories(NewProjectRepository(db), NewTaskRepository(db))
}

// NewStoreWithRepositories creates a store over arbitrary repositories
func NewStoreWithRepositories(projects ProjectRepositoryInterface, tasks TaskRepositoryInterface) *Store {
	return &Store{projects: projects, tasks: tasks}
}

// CreateProject creates a project for owner
func (s *Store) CreateProject(ctx context.Context, owner, title, description string) (*models.Project, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("project title is required")
	}
	project := &models.Project{
		Title:       title,
		Description: description,
		OwnerEmail:  owner,
	}
	if err := s.projects.Create(ctx, project); err != nil {
		return nil, err
	}
	return project, nil
}

// GetProject returns an owned project
func (s *Store) GetProject(ctx context.Context, owner string, projectID int64) (*models.Project, error) {
	return s.projects.GetByID(ctx, owner, projectID)
}

// ListProjects returns the owner's projects, newest first
func (s *Store) ListProjects(ctx context.Context, owner string) ([]*models.Project, error) {
	return s.projects.ListByOwner(ctx, owner)
}

// UpdateProject changes an owned project's title and description
func (s *Store) UpdateProject(ctx context.Context, owner string, projectID int64, title, description string) (*models.Project, error) {
	project, err := s.projects.GetByID(ctx, owner, projectID)
	if err != nil {
		return nil, err
	}
	if t := strings.TrimSpace(title); t != "" {
		project.Title = t
	}
	project.Description = description
	if err := s.projects.Update(ctx, project); err != nil {
		return nil, err
	}
	return project, nil
}

// DeleteProject removes an owned project and its tasks
func (s *Store) DeleteProject(ctx context.Context, owner string, projectID int64) error {
	return s.projects.Delete(ctx, owner, projectID)
}

// CreateTask adds a TODO task to an owned project
func (s *Store) CreateTask(ctx context.Context, owner string, projectID int64, title, description string) (*models.Task, error) {
	if _, err := s.projects.GetByID(ctx, owner, projectID); err != nil {
		return nil, err
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("task title is required")
	}
	task := &models.Task{
		Title:       title,
		Description: description,
		Status:      models.TaskStatusTodo,
		ProjectID:   projectID,
	}
	if err := s.tasks.Create(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

// ListTasks returns the tasks of an owned project
func (s *Store) ListTasks(ctx context.Context, owner string, projectID int64) ([]*models.Task, error) {
	if _, err := s.projects.GetByID(ctx, owner, projectID); err != nil {
		return nil, err
	}
	return s.tasks.ListByProject(ctx, projectID)
}

// UpdateTask applies a partial update to a task of an owned project
func (s *Store) UpdateTask(ctx context.Context, owner string, projectID, taskID int64, update TaskUpdate) (*models.Task, error) {
	if _, err := s.projects.GetByID(ctx, owner, projectID); err != nil {
		return nil, err
	}
	task, err := s.tasks.GetByID(ctx, projectID, taskID)
	if err != nil {
		return nil, err
	}
	if update.Title != nil {
		if t := strings.TrimSpace(*update.Title); t != "" {
			task.Title = t
		}
	}
	if update.Description != nil {
		task.Description = *update.Description
	}
	if update.Status != nil {
		if !update.Status.Valid() {
			return nil, fmt.Errorf("invalid task status %q", *update.Status)
		}
		task.Status = *update.Status
	}
	if err := s.tasks.Update(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

// UpdateTaskStatus sets the status of a task of an owned project
func (s *Store) UpdateTaskStatus(ctx context.Context, owner string, projectID, taskID int64, status models.TaskStatus) (*models.Task, error) {
	return s.UpdateTask(ctx, owner, projectID, taskID, TaskUpdate{Status: &status})
}

// DeleteTask removes a task from an owned project
func (s *Store) DeleteTask(ctx context.Context, owner string, projectID, taskID int64) error {
	if _, err := s.projects.GetByID(ctx, owner, projectID); err != nil {
		return err
	}
	return s.tasks.Delete(ctx, projectID, taskID)
}
