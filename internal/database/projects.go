package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/benvon/project-assistant/internal/models"
)

// ProjectRepository handles project database operations. Every query is scoped to the owner email.
type ProjectRepository struct {
	db querier
}

// NewProjectRepository creates a new project repository
func NewProjectRepository(db *DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

const projectColumns = `id, title, description, created_at, owner_email`

// Create inserts a project and fills in its ID and CreatedAt
func (r *ProjectRepository) Create(ctx context.Context, project *models.Project) error {
	query := `
		INSERT INTO projects (title, description, owner_email)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query, project.Title, project.Description, project.OwnerEmail).
		Scan(&project.ID, &project.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create project: %w", err)
	}
	return nil
}

// GetByID retrieves a project owned by owner
func (r *ProjectRepository) GetByID(ctx context.Context, owner string, id int64) (*models.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE id = $1 AND owner_email = $2`

	project := &models.Project{}
	err := r.db.QueryRowContext(ctx, query, id, owner).Scan(
		&project.ID,
		&project.Title,
		&project.Description,
		&project.CreatedAt,
		&project.OwnerEmail,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("project %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	return project, nil
}

// ListByOwner returns the owner's projects, newest first
func (r *ProjectRepository) ListByOwner(ctx context.Context, owner string) ([]*models.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE owner_email = $1 ORDER BY created_at DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to query projects: %w", err)
	}
	defer rows.Close()

	projects := []*models.Project{}
	for rows.Next() {
		project := &models.Project{}
		if err := rows.Scan(
			&project.ID,
			&project.Title,
			&project.Description,
			&project.CreatedAt,
			&project.OwnerEmail,
		); err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, project)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating projects: %w", err)
	}
	return projects, nil
}

// Update changes title and description of an owned project
func (r *ProjectRepository) Update(ctx context.Context, project *models.Project) error {
	query := `
		UPDATE projects
		SET title = $3, description = $4, updated_at = NOW()
		WHERE id = $1 AND owner_email = $2
	`
	result, err := r.db.ExecContext(ctx, query, project.ID, project.OwnerEmail, project.Title, project.Description)
	if err != nil {
		return fmt.Errorf("failed to update project: %w", err)
	}
	return affectedOne(result, fmt.Sprintf("project %d", project.ID))
}

// Delete removes an owned project. Its tasks go with it (ON DELETE CASCADE).
func (r *ProjectRepository) Delete(ctx context.Context, owner string, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM projects WHERE id = $1 AND owner_email = $2`, id, owner)
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	return affectedOne(result, fmt.Sprintf("project %d", id))
}
