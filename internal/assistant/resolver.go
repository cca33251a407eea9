package assistant

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/benvon/project-assistant/internal/intent"
	"github.com/benvon/project-assistant/internal/models"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// DefaultTurnTimeout bounds the external calls made during one turn
const DefaultTurnTimeout = 25 * time.Second

// Rule names, in evaluation order
const (
	RuleLoginRequired      = "login_required"
	RuleVagueInput         = "vague_input"
	RuleDeleteCommand      = "delete_command"
	RuleDeleteConfirmation = "delete_confirmation"
	RuleCreateCommand      = "create_command"
	RulePendingNaming      = "pending_naming"
	RuleSuggestionResponse = "suggestion_response"
	RuleFallback           = "fallback"
)

var tracer = otel.Tracer("github.com/benvon/project-assistant/internal/assistant")

// TurnInput is one user message plus the UI state it was sent in.
// ProjectID, when set, is the selection the client sent along; it is stored on the
// session once the turn owns it. Nil keeps the session's current selection.
type TurnInput struct {
	Text      string
	ProjectID *int64
	Selector  ProjectSelector
}

// TurnResult describes what a turn did
type TurnResult struct {
	Rule              string    `json:"rule"`
	Messages          []Message `json:"messages"`
	SelectionChanged  bool      `json:"selection_changed"`
	SelectedProjectID int64     `json:"selected_project_id"`
	LoginRequired     bool      `json:"login_required"`
}

// Dependencies are the collaborators a Resolver calls into
type Dependencies struct {
	Projects    ProjectService
	Fallback    ChatFallback
	Notifier    RefreshNotifier
	Identity    IdentityProvider
	Library     *intent.TemplateLibrary
	Composer    *Composer
	TurnTimeout time.Duration
}

// Resolver picks exactly one rule per user turn and carries it out
type Resolver struct {
	projects    ProjectService
	fallback    ChatFallback
	notifier    RefreshNotifier
	identity    IdentityProvider
	library     *intent.TemplateLibrary
	composer    *Composer
	turnTimeout time.Duration
	logger      *zap.Logger
	rules       []rule
}

type rule struct {
	name   string
	match  func(t *turn) bool
	handle func(ctx context.Context, t *turn) error
}

// turn is the per-turn working state
type turn struct {
	session    *Session
	input      TurnInput
	selected   int64
	text       string
	normalized string
	user       *models.User
	pending    pendingState
	result     *TurnResult
}

func (t *turn) reply(content string, metadata *MessageMetadata) {
	msg := t.session.Append(RoleAssistant, content, metadata)
	t.result.Messages = append(t.result.Messages, msg)
}

func (t *turn) owner() string {
	return t.user.Email
}

// NewResolver creates a resolver. Library and Composer default to the built-in ones.
func NewResolver(deps Dependencies, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	if deps.Library == nil {
		deps.Library = intent.DefaultLibrary()
	}
	if deps.Composer == nil {
		deps.Composer = NewComposer(nil)
	}
	if deps.TurnTimeout <= 0 {
		deps.TurnTimeout = DefaultTurnTimeout
	}

	r := &Resolver{
		projects:    deps.Projects,
		fallback:    deps.Fallback,
		notifier:    deps.Notifier,
		identity:    deps.Identity,
		library:     deps.Library,
		composer:    deps.Composer,
		turnTimeout: deps.TurnTimeout,
		logger:      logger,
	}

	r.rules = []rule{
		{name: RuleVagueInput, match: r.matchVague, handle: r.handleVague},
		{name: RuleDeleteCommand, match: r.matchDeleteCommand, handle: r.handleDeleteCommand},
		{name: RuleDeleteConfirmation, match: r.matchDeleteConfirmation, handle: r.handleDeleteConfirmation},
		{name: RuleCreateCommand, match: r.matchCreateCommand, handle: r.handleCreateCommand},
		{name: RulePendingNaming, match: r.matchPendingNaming, handle: r.handlePendingNaming},
		{name: RuleSuggestionResponse, match: r.matchSuggestionResponse, handle: r.handleSuggestionResponse},
		{name: RuleFallback, match: func(*turn) bool { return true }, handle: r.handleFallback},
	}

	return r
}

// HandleTurn appends the user's message to the session, runs the first matching rule
// and returns the assistant messages it produced. Only one turn runs per session at a time.
func (r *Resolver) HandleTurn(ctx context.Context, session *Session, in TurnInput) (*TurnResult, error) {
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, ErrEmptyInput
	}
	if !session.acquire() {
		return nil, ErrTurnInProgress
	}
	defer session.release()

	start := time.Now()
	ctx, span := tracer.Start(ctx, "assistant.turn", trace.WithAttributes(
		attribute.String("chat.session_id", session.ID),
	))
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, r.turnTimeout)
	defer cancel()

	if in.ProjectID != nil {
		session.SetSelectedProject(*in.ProjectID)
	}
	selected := session.SelectedProjectID()

	t := &turn{
		session:    session,
		input:      in,
		selected:   selected,
		text:       text,
		normalized: intent.Normalize(text),
		pending:    session.snapshotPending(),
		result:     &TurnResult{SelectedProjectID: selected},
	}
	session.Append(RoleUser, in.Text, nil)

	user, ok := r.currentUser(ctx)
	if !ok {
		t.result.Rule = RuleLoginRequired
		t.result.LoginRequired = true
		t.reply(LoginRequiredMessage, nil)
	} else {
		t.user = user
		t.result.Rule = r.dispatch(ctx, t, span)
	}

	span.SetAttributes(attribute.String("chat.rule", t.result.Rule))
	r.logger.Info("chat_turn_handled",
		zap.String("session_id", session.ID),
		zap.String("rule", t.result.Rule),
		zap.Int("replies", len(t.result.Messages)),
		zap.Duration("duration", time.Since(start)),
	)

	return t.result, nil
}

func (r *Resolver) currentUser(ctx context.Context) (*models.User, bool) {
	if r.identity == nil {
		return nil, false
	}
	user, ok := r.identity.CurrentUser(ctx)
	if !ok || user == nil || user.Email == "" {
		return nil, false
	}
	return user, true
}

// dispatch runs the first matching rule. Handler errors and panics become the generic apology.
func (r *Resolver) dispatch(ctx context.Context, t *turn, span trace.Span) (name string) {
	defer func() {
		if rec := recover(); rec != nil {
			err := fmt.Errorf("panic in rule %s: %v", name, rec)
			r.logger.Error("chat_turn_panic", zap.String("session_id", t.session.ID), zap.String("rule", name), zap.Error(err))
			span.RecordError(err)
			span.SetStatus(codes.Error, "panic")
			t.reply(GenericErrorMessage, nil)
		}
	}()

	for _, rl := range r.rules {
		if !rl.match(t) {
			continue
		}
		name = rl.name
		if err := rl.handle(ctx, t); err != nil {
			r.logger.Error("chat_turn_failed", zap.String("session_id", t.session.ID), zap.String("rule", name), zap.Error(err))
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			t.reply(GenericErrorMessage, nil)
		}
		return name
	}
	return name
}

func (r *Resolver) notify(ctx context.Context, t *turn, projectID int64) {
	if r.notifier == nil {
		return
	}
	if err := r.notifier.NotifyRefresh(ctx, t.owner(), projectID); err != nil {
		r.logger.Warn("refresh_notify_failed", zap.Int64("project_id", projectID), zap.Error(err))
	}
}

func (r *Resolver) selectProject(ctx context.Context, t *turn, projectID int64) {
	t.session.SetSelectedProject(projectID)
	if t.input.Selector != nil {
		t.input.Selector.SelectProject(ctx, projectID)
	}
	t.result.SelectionChanged = true
	t.result.SelectedProjectID = projectID
}

func (r *Resolver) matchVague(t *turn) bool {
	return intent.DetectVague(t.normalized) != intent.VagueNone
}

func (r *Resolver) handleVague(_ context.Context, t *turn) error {
	t.reply(r.composer.Vague(intent.DetectVague(t.normalized), t.user.DisplayName()), nil)
	return nil
}

func (r *Resolver) matchDeleteCommand(t *turn) bool {
	return t.selected != 0 && intent.IsDeleteCommand(t.normalized)
}

func (r *Resolver) handleDeleteCommand(_ context.Context, t *turn) error {
	projectID := t.selected
	t.reply(DeleteConfirmPrompt, &MessageMetadata{
		DeleteConfirmationRequired: true,
		ProjectIDToDelete:          &projectID,
	})
	return nil
}

func (r *Resolver) matchDeleteConfirmation(t *turn) bool {
	return t.pending.deletion != nil && intent.IsDeleteConfirmation(t.normalized)
}

func (r *Resolver) handleDeleteConfirmation(ctx context.Context, t *turn) error {
	projectID := *t.pending.deletion
	if err := r.projects.DeleteProject(ctx, t.owner(), projectID); err != nil {
		r.logger.Error("project_delete_failed", zap.Int64("project_id", projectID), zap.Error(err))
		t.reply(DeleteFailedMessage, nil)
		return nil
	}

	t.reply(ProjectDeletedMessage, nil)
	r.notify(ctx, t, projectID)
	r.selectProject(ctx, t, 0)
	return nil
}

func (r *Resolver) matchCreateCommand(t *turn) bool {
	return intent.IsCreateCommand(t.normalized)
}

func (r *Resolver) handleCreateCommand(_ context.Context, t *turn) error {
	info := intent.ExtractProjectInfo(t.text)
	t.session.SetPendingNaming(&info)
	t.reply(NamingPrompt, nil)
	return nil
}

func (r *Resolver) matchPendingNaming(t *turn) bool {
	return t.session.PendingNaming() != nil
}

func (r *Resolver) handlePendingNaming(ctx context.Context, t *turn) error {
	info := t.session.PendingNaming()
	t.session.SetPendingNaming(nil)

	title := t.text
	tmpl := r.library.Lookup(info.ProjectType)
	suggested := intent.Reconcile(tmpl.SuggestedTasks, info.UserTasks)

	project, err := r.projects.CreateProject(ctx, t.owner(), title, tmpl.Description)
	if err != nil {
		r.logger.Error("project_create_failed", zap.String("project_type", info.ProjectType), zap.Error(err))
		t.reply(CreateFailedMessage, nil)
		return nil
	}

	var created []string
	for _, task := range info.UserTasks {
		if _, err := r.projects.CreateTask(ctx, t.owner(), project.ID, task, ""); err != nil {
			r.logger.Error("task_create_failed", zap.Int64("project_id", project.ID), zap.Error(err))
			t.reply(r.composer.ProjectCreatedTaskFailed(title, created, task), nil)
			r.notify(ctx, t, project.ID)
			return nil
		}
		created = append(created, task)
	}

	projectID := project.ID
	t.reply(r.composer.ProjectCreated(title, info.UserTasks, suggested), &MessageMetadata{
		ProjectID:      &projectID,
		SuggestedTasks: suggested,
	})
	r.notify(ctx, t, projectID)
	return nil
}

func (r *Resolver) matchSuggestionResponse(t *turn) bool {
	return t.pending.suggestions != nil
}

func (r *Resolver) handleSuggestionResponse(ctx context.Context, t *turn) error {
	suggestions := t.pending.suggestions

	switch {
	case intent.IsAddAll(t.normalized):
		return r.addSuggested(ctx, t, suggestions.ProjectID, suggestions.Tasks, AllTasksAddedMessage)
	case intent.IsAddOrYes(t.normalized):
		selected := intent.SelectTasks(t.normalized, suggestions.Tasks)
		if len(selected) == 0 {
			if suggestions.ProjectID == nil {
				t.reply(NoProjectMessage, nil)
				return nil
			}
			t.reply(UnclearSelectionMessage, nil)
			return nil
		}
		return r.addSuggested(ctx, t, suggestions.ProjectID, selected, r.composer.TasksAdded(selected))
	case intent.IsDecline(t.normalized):
		t.reply(DeclinedMessage, nil)
		return nil
	default:
		return r.handleFallback(ctx, t)
	}
}

// addSuggested creates tasks one at a time in order. Tasks created before a failure are kept.
func (r *Resolver) addSuggested(ctx context.Context, t *turn, projectID *int64, tasks []intent.ProjectTask, success string) error {
	if projectID == nil {
		t.reply(NoProjectMessage, nil)
		return nil
	}

	var added []string
	for _, task := range tasks {
		if _, err := r.projects.CreateTask(ctx, t.owner(), *projectID, task.Title, task.Description); err != nil {
			r.logger.Error("task_create_failed", zap.Int64("project_id", *projectID), zap.Error(err))
			t.reply(r.composer.TaskFailed(added, task.Title), nil)
			if len(added) > 0 {
				r.notify(ctx, t, *projectID)
			}
			return nil
		}
		added = append(added, task.Title)
	}

	t.reply(success, nil)
	r.notify(ctx, t, *projectID)
	return nil
}

func (r *Resolver) handleFallback(ctx context.Context, t *turn) error {
	var reply *FallbackReply
	if r.fallback != nil {
		var err error
		reply, err = r.fallback.SendMessage(ctx, t.owner(), t.text, t.selected)
		if err != nil {
			r.logger.Error("chat_fallback_failed", zap.Error(err))
			t.reply(FallbackFailedMessage, nil)
			return nil
		}
	}
	if reply == nil {
		reply = &FallbackReply{}
	}

	content := reply.Response
	if content == "" {
		content = r.composer.Filler(t.user.DisplayName())
	}
	t.reply(content, nil)

	if reply.ProjectCreated || reply.TasksChanged {
		var projectID int64
		if reply.ProjectID != nil {
			projectID = *reply.ProjectID
		}
		r.notify(ctx, t, projectID)
	}
	return nil
}
