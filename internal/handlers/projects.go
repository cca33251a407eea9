package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/benvon/project-assistant/internal/assistant"
	"github.com/benvon/project-assistant/internal/database"
	"github.com/benvon/project-assistant/internal/logger"
	"github.com/benvon/project-assistant/internal/models"
	"github.com/benvon/project-assistant/internal/validation"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// ProjectStore is the project and task storage the REST surface works on
type ProjectStore interface {
	CreateProject(ctx context.Context, owner, title, description string) (*models.Project, error)
	GetProject(ctx context.Context, owner string, projectID int64) (*models.Project, error)
	ListProjects(ctx context.Context, owner string) ([]*models.Project, error)
	UpdateProject(ctx context.Context, owner string, projectID int64, title, description string) (*models.Project, error)
	DeleteProject(ctx context.Context, owner string, projectID int64) error
	CreateTask(ctx context.Context, owner string, projectID int64, title, description string) (*models.Task, error)
	ListTasks(ctx context.Context, owner string, projectID int64) ([]*models.Task, error)
	UpdateTask(ctx context.Context, owner string, projectID, taskID int64, update database.TaskUpdate) (*models.Task, error)
	DeleteTask(ctx context.Context, owner string, projectID, taskID int64) error
}

// ProjectHandler handles project and task CRUD requests
type ProjectHandler struct {
	store    ProjectStore
	notifier assistant.RefreshNotifier
	logger   *zap.Logger
}

// NewProjectHandler creates a new project handler. notifier may be nil.
func NewProjectHandler(store ProjectStore, notifier assistant.RefreshNotifier, log *zap.Logger) *ProjectHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &ProjectHandler{store: store, notifier: notifier, logger: log}
}

// RegisterRoutes registers project routes
// The router should already have the /api/v1 prefix
func (h *ProjectHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/projects", h.ListProjects).Methods("GET")
	r.HandleFunc("/projects", h.CreateProject).Methods("POST")
	r.HandleFunc("/projects/{id}", h.GetProject).Methods("GET")
	r.HandleFunc("/projects/{id}", h.UpdateProject).Methods("PUT")
	r.HandleFunc("/projects/{id}", h.DeleteProject).Methods("DELETE")
	r.HandleFunc("/projects/{id}/tasks", h.ListTasks).Methods("GET")
	r.HandleFunc("/projects/{id}/tasks", h.CreateTask).Methods("POST")
	r.HandleFunc("/projects/{id}/tasks/{taskId}", h.UpdateTask).Methods("PUT")
	r.HandleFunc("/projects/{id}/tasks/{taskId}", h.DeleteTask).Methods("DELETE")
}

// ProjectRequest creates or replaces a project's title and description
type ProjectRequest struct {
	Title       string `json:"title" validate:"notblank,max=200"`
	Description string `json:"description" validate:"max=2000"`
}

// CreateTaskRequest adds a task to a project
type CreateTaskRequest struct {
	Title       string `json:"title" validate:"notblank,max=200"`
	Description string `json:"description" validate:"max=2000"`
}

// UpdateTaskRequest changes the fields that are present
type UpdateTaskRequest struct {
	Title       *string            `json:"title,omitempty" validate:"omitnil,notblank,max=200"`
	Description *string            `json:"description,omitempty" validate:"omitnil,max=2000"`
	Status      *models.TaskStatus `json:"status,omitempty" validate:"omitnil,task_status"`
}

// ProjectWithTasks is a project plus its tasks
type ProjectWithTasks struct {
	*models.Project
	Tasks []*models.Task `json:"tasks"`
}

// ListProjects lists the caller's projects, newest first
func (h *ProjectHandler) ListProjects(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	projects, err := h.store.ListProjects(r.Context(), user.Email)
	if err != nil {
		h.internalError(w, "list_projects_failed", err, "Failed to retrieve projects")
		return
	}
	if projects == nil {
		projects = []*models.Project{}
	}
	respondJSON(w, http.StatusOK, projects)
}

// CreateProject creates a project for the caller
func (h *ProjectHandler) CreateProject(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req ProjectRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	project, err := h.store.CreateProject(r.Context(), user.Email,
		validation.SanitizeText(req.Title), validation.SanitizeText(req.Description))
	if err != nil {
		h.internalError(w, "create_project_failed", err, "Failed to create project")
		return
	}

	h.notify(r.Context(), user.Email, project.ID)
	respondJSON(w, http.StatusCreated, project)
}

// GetProject returns a project with its tasks
func (h *ProjectHandler) GetProject(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	projectID, ok := routeID(w, r, "id")
	if !ok {
		return
	}

	project, err := h.store.GetProject(r.Context(), user.Email, projectID)
	if err != nil {
		h.storeError(w, "get_project_failed", err, "Project not found", "Failed to retrieve project")
		return
	}
	tasks, err := h.store.ListTasks(r.Context(), user.Email, projectID)
	if err != nil {
		h.storeError(w, "list_tasks_failed", err, "Project not found", "Failed to retrieve tasks")
		return
	}
	if tasks == nil {
		tasks = []*models.Task{}
	}

	respondJSON(w, http.StatusOK, ProjectWithTasks{Project: project, Tasks: tasks})
}

// UpdateProject replaces a project's title and description
func (h *ProjectHandler) UpdateProject(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	projectID, ok := routeID(w, r, "id")
	if !ok {
		return
	}

	var req ProjectRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	project, err := h.store.UpdateProject(r.Context(), user.Email, projectID,
		validation.SanitizeText(req.Title), validation.SanitizeText(req.Description))
	if err != nil {
		h.storeError(w, "update_project_failed", err, "Project not found", "Failed to update project")
		return
	}

	h.notify(r.Context(), user.Email, project.ID)
	respondJSON(w, http.StatusOK, project)
}

// DeleteProject deletes a project and its tasks
func (h *ProjectHandler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	projectID, ok := routeID(w, r, "id")
	if !ok {
		return
	}

	if err := h.store.DeleteProject(r.Context(), user.Email, projectID); err != nil {
		h.storeError(w, "delete_project_failed", err, "Project not found", "Failed to delete project")
		return
	}

	h.notify(r.Context(), user.Email, 0)
	w.WriteHeader(http.StatusNoContent)
}

// ListTasks lists a project's tasks, oldest first
func (h *ProjectHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	projectID, ok := routeID(w, r, "id")
	if !ok {
		return
	}

	tasks, err := h.store.ListTasks(r.Context(), user.Email, projectID)
	if err != nil {
		h.storeError(w, "list_tasks_failed", err, "Project not found", "Failed to retrieve tasks")
		return
	}
	if tasks == nil {
		tasks = []*models.Task{}
	}
	respondJSON(w, http.StatusOK, tasks)
}

// CreateTask adds a task to one of the caller's projects
func (h *ProjectHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	projectID, ok := routeID(w, r, "id")
	if !ok {
		return
	}

	var req CreateTaskRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	task, err := h.store.CreateTask(r.Context(), user.Email, projectID,
		validation.SanitizeText(req.Title), validation.SanitizeText(req.Description))
	if err != nil {
		h.storeError(w, "create_task_failed", err, "Project not found", "Failed to create task")
		return
	}

	h.notify(r.Context(), user.Email, projectID)
	respondJSON(w, http.StatusCreated, task)
}

// UpdateTask changes a task's title, description or status
func (h *ProjectHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	projectID, ok := routeID(w, r, "id")
	if !ok {
		return
	}
	taskID, ok := routeID(w, r, "taskId")
	if !ok {
		return
	}

	var req UpdateTaskRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	update := database.TaskUpdate{Status: req.Status}
	if req.Title != nil {
		title := validation.SanitizeText(*req.Title)
		update.Title = &title
	}
	if req.Description != nil {
		description := validation.SanitizeText(*req.Description)
		update.Description = &description
	}

	task, err := h.store.UpdateTask(r.Context(), user.Email, projectID, taskID, update)
	if err != nil {
		h.storeError(w, "update_task_failed", err, "Task not found", "Failed to update task")
		return
	}

	h.notify(r.Context(), user.Email, projectID)
	respondJSON(w, http.StatusOK, task)
}

// DeleteTask removes a task
func (h *ProjectHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	projectID, ok := routeID(w, r, "id")
	if !ok {
		return
	}
	taskID, ok := routeID(w, r, "taskId")
	if !ok {
		return
	}

	if err := h.store.DeleteTask(r.Context(), user.Email, projectID, taskID); err != nil {
		h.storeError(w, "delete_task_failed", err, "Task not found", "Failed to delete task")
		return
	}

	h.notify(r.Context(), user.Email, projectID)
	w.WriteHeader(http.StatusNoContent)
}

// routeID parses a route ID or writes a 400
func routeID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := pathID(r, name)
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid "+name)
		return 0, false
	}
	return id, true
}

// notify tells the owner's views to reload. Failures only cost a refresh.
func (h *ProjectHandler) notify(ctx context.Context, owner string, projectID int64) {
	if h.notifier == nil {
		return
	}
	if err := h.notifier.NotifyRefresh(ctx, owner, projectID); err != nil {
		h.logger.Warn("refresh_notify_failed",
			zap.Int64("project_id", projectID),
			zap.String("error", logger.SanitizeError(err)),
		)
	}
}

func (h *ProjectHandler) storeError(w http.ResponseWriter, event string, err error, notFound, failed string) {
	if errors.Is(err, models.ErrNotFound) {
		respondJSONError(w, http.StatusNotFound, "Not Found", notFound)
		return
	}
	h.internalError(w, event, err, failed)
}

func (h *ProjectHandler) internalError(w http.ResponseWriter, event string, err error, message string) {
	h.logger.Error(event, zap.String("error", logger.SanitizeError(err)))
	respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", message)
}
