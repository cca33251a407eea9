package assistant

import (
	"context"

	"github.com/benvon/project-assistant/internal/models"
)

// ProjectService creates and deletes the projects and tasks the conversation acts on
type ProjectService interface {
	CreateProject(ctx context.Context, owner, title, description string) (*models.Project, error)
	CreateTask(ctx context.Context, owner string, projectID int64, title, description string) (*models.Task, error)
	DeleteProject(ctx context.Context, owner string, projectID int64) error
}

// FallbackReply is the chat service's answer to a message no rule handled
type FallbackReply struct {
	Response       string `json:"response"`
	ProjectCreated bool   `json:"project_created"`
	TasksChanged   bool   `json:"tasks_changed"`
	ProjectID      *int64 `json:"project_id,omitempty"`
}

// ChatFallback answers free-form messages. projectID is 0 when nothing is selected.
type ChatFallback interface {
	SendMessage(ctx context.Context, owner, text string, projectID int64) (*FallbackReply, error)
}

// RefreshNotifier tells project views that the owner's data changed
type RefreshNotifier interface {
	NotifyRefresh(ctx context.Context, owner string, projectID int64) error
}

// ProjectSelector is told when a turn changes which project the user is looking at.
// 0 means the selection was cleared.
type ProjectSelector interface {
	SelectProject(ctx context.Context, projectID int64)
}

// IdentityProvider resolves the user a turn runs for
type IdentityProvider interface {
	CurrentUser(ctx context.Context) (*models.User, bool)
}

// IdentityFunc adapts a function to IdentityProvider
type IdentityFunc func(ctx context.Context) (*models.User, bool)

// CurrentUser calls f(ctx)
func (f IdentityFunc) CurrentUser(ctx context.Context) (*models.User, bool) {
	return f(ctx)
}
