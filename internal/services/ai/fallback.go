package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/benvon/project-assistant/internal/assistant"
	"github.com/benvon/project-assistant/internal/models"
	"go.uber.org/zap"
)

// ProjectStore is the project data the chat service reads and changes
type ProjectStore interface {
	CreateProject(ctx context.Context, owner, title, description string) (*models.Project, error)
	CreateTask(ctx context.Context, owner string, projectID int64, title, description string) (*models.Task, error)
	GetProject(ctx context.Context, owner string, projectID int64) (*models.Project, error)
	ListProjects(ctx context.Context, owner string) ([]*models.Project, error)
	ListTasks(ctx context.Context, owner string, projectID int64) ([]*models.Task, error)
	UpdateTaskStatus(ctx context.Context, owner string, projectID, taskID int64, status models.TaskStatus) (*models.Task, error)
}

var (
	createPhrases     = []string{"create a new project", "create project"}
	addTaskPhrases    = []string{"add a task", "create a task"}
	completionPhrases = []string{"done", "completed", "finished"}
)

// FallbackService answers chat messages that no conversation rule handled. It
// understands a few direct commands and otherwise asks the AI provider, passing
// along the project the message is about.
type FallbackService struct {
	store    ProjectStore
	provider AIProvider
	memory   *ConversationMemory
	logger   *zap.Logger
}

// NewFallbackService creates the chat service. provider may be nil, in which case
// plain questions get an empty reply.
func NewFallbackService(store ProjectStore, provider AIProvider, memory *ConversationMemory, logger *zap.Logger) *FallbackService {
	if memory == nil {
		memory = NewConversationMemory(DefaultMemoryTurns)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FallbackService{
		store:    store,
		provider: provider,
		memory:   memory,
		logger:   logger,
	}
}

// SendMessage handles one free-form message for owner. projectID is the selected project or 0.
func (s *FallbackService) SendMessage(ctx context.Context, owner, text string, projectID int64) (*assistant.FallbackReply, error) {
	message := strings.ToLower(text)

	if reply, err := s.createNamedProject(ctx, owner, text, message); err != nil || reply != nil {
		return reply, err
	}

	project, err := s.findProject(ctx, owner, message, projectID)
	if err != nil {
		return nil, err
	}

	var projectContext string
	if project != nil {
		tasks, err := s.store.ListTasks(ctx, owner, project.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load tasks for project %d: %w", project.ID, err)
		}
		projectContext = DescribeProject(project, tasks)

		if reply, err := s.completeTasks(ctx, owner, message, project, tasks); err != nil || reply != nil {
			return reply, err
		}
		if reply, err := s.addTask(ctx, owner, text, message, project); err != nil || reply != nil {
			return reply, err
		}
	}

	if s.provider == nil {
		return &assistant.FallbackReply{}, nil
	}

	var threadID int64
	if project != nil {
		threadID = project.ID
	}
	history := s.memory.History(owner, threadID)
	history = append(history, ChatMessage{Role: "user", Content: text})

	resp, err := s.provider.Chat(ctx, history, projectContext)
	if err != nil {
		s.logger.Warn("chat_provider_failed",
			zap.String("owner_hash", HashOwner(owner)),
			zap.Bool("rate_limited", IsRateLimitError(err)),
			zap.Error(err),
		)
		if projectContext != "" {
			return &assistant.FallbackReply{Response: strings.TrimSpace(projectContext)}, nil
		}
		return nil, fmt.Errorf("chat provider: %w", err)
	}

	s.memory.Record(owner, threadID, text, resp.Message)
	return &assistant.FallbackReply{Response: resp.Message}, nil
}

// createNamedProject handles "create project named X [with T as first task]"
func (s *FallbackService) createNamedProject(ctx context.Context, owner, text, message string) (*assistant.FallbackReply, error) {
	if !containsAny(message, createPhrases) {
		return nil, nil
	}
	idx := strings.Index(message, "named")
	if idx == -1 {
		return nil, nil
	}

	rest := message[idx+len("named"):]
	if next := strings.Index(rest, "named"); next != -1 {
		rest = rest[:next]
	}
	withIdx := strings.Index(rest, "with")
	nameSpan := rest
	if withIdx != -1 {
		nameSpan = rest[:withIdx]
	}

	name := strings.Trim(strings.TrimSpace(originalCase(text, message, idx+len("named"), nameSpan)), `"'`)
	if name == "" {
		return nil, nil
	}

	project, err := s.store.CreateProject(ctx, owner, name, "")
	if err != nil {
		return nil, fmt.Errorf("failed to create project %q: %w", name, err)
	}
	projectID := project.ID

	response := fmt.Sprintf("I've created a new project '%s'", name)
	if withIdx != -1 {
		afterWith := rest[withIdx+len("with"):]
		if end := strings.Index(afterWith, "as first task"); end != -1 {
			start := idx + len("named") + withIdx + len("with")
			taskName := strings.TrimSpace(originalCase(text, message, start, afterWith[:end]))
			if taskName != "" {
				if _, err := s.store.CreateTask(ctx, owner, project.ID, taskName, ""); err != nil {
					return nil, fmt.Errorf("failed to create first task: %w", err)
				}
				response += fmt.Sprintf(" with the first task '%s'", taskName)
			}
		}
	}

	return &assistant.FallbackReply{
		Response:       response + ".",
		ProjectCreated: true,
		ProjectID:      &projectID,
	}, nil
}

// findProject returns the selected project, or else the first owned project whose
// title appears in the message
func (s *FallbackService) findProject(ctx context.Context, owner, message string, projectID int64) (*models.Project, error) {
	if projectID != 0 {
		project, err := s.store.GetProject(ctx, owner, projectID)
		if err == nil {
			return project, nil
		}
		if !errors.Is(err, models.ErrNotFound) {
			return nil, fmt.Errorf("failed to load project %d: %w", projectID, err)
		}
	}

	projects, err := s.store.ListProjects(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	for _, p := range projects {
		if title := strings.ToLower(p.Title); title != "" && strings.Contains(message, title) {
			return p, nil
		}
	}
	return nil, nil
}

// completeTasks marks the project's open tasks named in a "done" message as DONE
func (s *FallbackService) completeTasks(ctx context.Context, owner, message string, project *models.Project, tasks []*models.Task) (*assistant.FallbackReply, error) {
	if !containsAny(message, completionPhrases) {
		return nil, nil
	}

	var done []string
	for _, task := range tasks {
		if task.Status == models.TaskStatusDone || !strings.Contains(message, strings.ToLower(task.Title)) {
			continue
		}
		if _, err := s.store.UpdateTaskStatus(ctx, owner, project.ID, task.ID, models.TaskStatusDone); err != nil {
			return nil, fmt.Errorf("failed to complete task %d: %w", task.ID, err)
		}
		done = append(done, task.Title)
	}
	if len(done) == 0 {
		return nil, nil
	}

	projectID := project.ID
	return &assistant.FallbackReply{
		Response:     "Great! I've marked the following tasks as done: " + strings.Join(done, ", "),
		TasksChanged: true,
		ProjectID:    &projectID,
	}, nil
}

// addTask handles "add a task <title> [to ...]" for the project the message is about
func (s *FallbackService) addTask(ctx context.Context, owner, text, message string, project *models.Project) (*assistant.FallbackReply, error) {
	start := -1
	for _, phrase := range addTaskPhrases {
		if i := strings.Index(message, phrase); i != -1 {
			start = i + len(phrase)
			break
		}
	}
	if start == -1 {
		return nil, nil
	}

	rest := message[start:]
	if end := strings.Index(rest, " to "); end != -1 {
		rest = rest[:end]
	}
	title := strings.Trim(strings.TrimSpace(originalCase(text, message, start, rest)), `:"'.!?`)
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, nil
	}

	if _, err := s.store.CreateTask(ctx, owner, project.ID, title, ""); err != nil {
		return nil, fmt.Errorf("failed to add task: %w", err)
	}

	projectID := project.ID
	return &assistant.FallbackReply{
		Response:     fmt.Sprintf("I've added a new task '%s' to the %s project.", title, project.Title),
		TasksChanged: true,
		ProjectID:    &projectID,
	}, nil
}

// DescribeProject renders the project context handed to the model
func DescribeProject(project *models.Project, tasks []*models.Task) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Project: %s\n", project.Title)
	fmt.Fprintf(&b, "Description: %s\n", project.Description)
	fmt.Fprintf(&b, "Created: %s\n", project.CreatedAt.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "Tasks (%d):", len(tasks))
	for _, task := range tasks {
		fmt.Fprintf(&b, "\n- %s (%s)", task.Title, task.Status)
	}
	return b.String()
}

// originalCase returns the span of text matching span, which starts at offset in the
// lower-cased message. It falls back to span when lower-casing changed the length.
func originalCase(text, message string, offset int, span string) string {
	if len(text) != len(message) || offset+len(span) > len(text) {
		return span
	}
	return text[offset : offset+len(span)]
}

func containsAny(s string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}
