package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/benvon/project-assistant/internal/models"
)

type memoryProjects struct {
	rows      map[int64]*models.Project
	nextID    int64
	createErr error
}

var _ ProjectRepositoryInterface = (*memoryProjects)(nil)

func newMemoryProjects() *memoryProjects {
	return &memoryProjects{rows: make(map[int64]*models.Project)}
}

func (m *memoryProjects) Create(_ context.Context, project *models.Project) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.nextID++
	project.ID = m.nextID
	stored := *project
	m.rows[project.ID] = &stored
	return nil
}

func (m *memoryProjects) GetByID(_ context.Context, owner string, id int64) (*models.Project, error) {
	p, ok := m.rows[id]
	if !ok || p.OwnerEmail != owner {
		return nil, fmt.Errorf("project %d: %w", id, ErrNotFound)
	}
	copied := *p
	return &copied, nil
}

func (m *memoryProjects) ListByOwner(_ context.Context, owner string) ([]*models.Project, error) {
	out := []*models.Project{}
	for id := m.nextID; id > 0; id-- {
		if p, ok := m.rows[id]; ok && p.OwnerEmail == owner {
			copied := *p
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (m *memoryProjects) Update(_ context.Context, project *models.Project) error {
	if _, ok := m.rows[project.ID]; !ok {
		return ErrNotFound
	}
	stored := *project
	m.rows[project.ID] = &stored
	return nil
}

func (m *memoryProjects) Delete(ctx context.Context, owner string, id int64) error {
	if _, err := m.GetByID(ctx, owner, id); err != nil {
		return err
	}
	delete(m.rows, id)
	return nil
}

type memoryTasks struct {
	rows   map[int64]*models.Task
	nextID int64
}

var _ TaskRepositoryInterface = (*memoryTasks)(nil)

func newMemoryTasks() *memoryTasks {
	return &memoryTasks{rows: make(map[int64]*models.Task)}
}

func (m *memoryTasks) Create(_ context.Context, task *models.Task) error {
	m.nextID++
	task.ID = m.nextID
	stored := *task
	m.rows[task.ID] = &stored
	return nil
}

func (m *memoryTasks) GetByID(_ context.Context, projectID, id int64) (*models.Task, error) {
	task, ok := m.rows[id]
	if !ok || task.ProjectID != projectID {
		return nil, fmt.Errorf("task %d: %w", id, ErrNotFound)
	}
	copied := *task
	return &copied, nil
}

func (m *memoryTasks) ListByProject(_ context.Context, projectID int64) ([]*models.Task, error) {
	out := []*models.Task{}
	for id := int64(1); id <= m.nextID; id++ {
		if task, ok := m.rows[id]; ok && task.ProjectID == projectID {
			copied := *task
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (m *memoryTasks) Update(_ context.Context, task *models.Task) error {
	stored := *task
	m.rows[task.ID] = &stored
	return nil
}

func (m *memoryTasks) Delete(ctx context.Context, projectID, id int64) error {
	if _, err := m.GetByID(ctx, projectID, id); err != nil {
		return err
	}
	delete(m.rows, id)
	return nil
}

func newTestStore() (*Store, *memoryProjects, *memoryTasks) {
	projects := newMemoryProjects()
	tasks := newMemoryTasks()
	return NewStoreWithRepositories(projects, tasks), projects, tasks
}

func TestStore_ProjectLifecycle(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store, _, _ := newTestStore()

	project, err := store.CreateProject(ctx, "alice@example.com", "  Paris Trip ", "desc")
	if err != nil {
		t.Fatalf("CreateProject() error: %v", err)
	}
	if project.ID == 0 || project.Title != "Paris Trip" || project.OwnerEmail != "alice@example.com" {
		t.Fatalf("Unexpected project: %+v", project)
	}

	if _, err := store.GetProject(ctx, "bob@example.com", project.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound for another owner, got %v", err)
	}

	updated, err := store.UpdateProject(ctx, "alice@example.com", project.ID, "", "new desc")
	if err != nil {
		t.Fatalf("UpdateProject() error: %v", err)
	}
	if updated.Title != "Paris Trip" || updated.Description != "new desc" {
		t.Errorf("Expected blank title to keep the old one, got %+v", updated)
	}

	if err := store.DeleteProject(ctx, "bob@example.com", project.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound deleting another owner's project, got %v", err)
	}
	if err := store.DeleteProject(ctx, "alice@example.com", project.ID); err != nil {
		t.Fatalf("DeleteProject() error: %v", err)
	}
	list, err := store.ListProjects(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("ListProjects() error: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("Expected no projects after delete, got %d", len(list))
	}
}

func TestStore_CreateProjectValidation(t *testing.T) {
	t.Parallel()
	store, projects, _ := newTestStore()

	if _, err := store.CreateProject(context.Background(), "alice@example.com", "   ", ""); err == nil {
		t.Error("Expected error for blank title")
	}

	projects.createErr = errors.New("connection refused")
	if _, err := store.CreateProject(context.Background(), "alice@example.com", "Home", ""); err == nil || !strings.Contains(err.Error(), "connection refused") {
		t.Errorf("Expected repository error to propagate, got %v", err)
	}
}

func TestStore_Tasks(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store, _, _ := newTestStore()

	project, err := store.CreateProject(ctx, "alice@example.com", "Home", "")
	if err != nil {
		t.Fatalf("CreateProject() error: %v", err)
	}

	first, err := store.CreateTask(ctx, "alice@example.com", project.ID, "Choose a color scheme", "")
	if err != nil {
		t.Fatalf("CreateTask() error: %v", err)
	}
	if first.Status != models.TaskStatusTodo || first.ProjectID != project.ID {
		t.Errorf("Unexpected task: %+v", first)
	}
	if _, err := store.CreateTask(ctx, "alice@example.com", project.ID, "Buy furniture", ""); err != nil {
		t.Fatalf("CreateTask() error: %v", err)
	}

	if _, err := store.CreateTask(ctx, "bob@example.com", project.ID, "Sneaky", ""); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound adding to another owner's project, got %v", err)
	}

	done, err := store.UpdateTaskStatus(ctx, "alice@example.com", project.ID, first.ID, models.TaskStatusDone)
	if err != nil {
		t.Fatalf("UpdateTaskStatus() error: %v", err)
	}
	if done.Status != models.TaskStatusDone {
		t.Errorf("Expected DONE, got %s", done.Status)
	}

	if _, err := store.UpdateTaskStatus(ctx, "alice@example.com", project.ID, first.ID, "BLOCKED"); err == nil {
		t.Error("Expected error for invalid status")
	}

	title := "Pick paint"
	renamed, err := store.UpdateTask(ctx, "alice@example.com", project.ID, first.ID, TaskUpdate{Title: &title})
	if err != nil {
		t.Fatalf("UpdateTask() error: %v", err)
	}
	if renamed.Title != "Pick paint" || renamed.Status != models.TaskStatusDone {
		t.Errorf("Expected title change only, got %+v", renamed)
	}

	if err := store.DeleteTask(ctx, "alice@example.com", project.ID, first.ID); err != nil {
		t.Fatalf("DeleteTask() error: %v", err)
	}
	tasks, err := store.ListTasks(ctx, "alice@example.com", project.ID)
	if err != nil {
		t.Fatalf("ListTasks() error: %v", err)
	}
	if len(tasks) != 1 || tasks[0].Title != "Buy furniture" {
		t.Errorf("Expected only the second task to remain, got %+v", tasks)
	}
}

func TestSchemaDefinesTables(t *testing.T) {
	t.Parallel()
	for _, table := range []string{"projects", "tasks"} {
		if !strings.Contains(Schema(), "CREATE TABLE IF NOT EXISTS "+table) {
			t.Errorf("Expected schema to create %s", table)
		}
	}
}
