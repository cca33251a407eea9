package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/benvon/project-assistant/internal/assistant"
	"github.com/benvon/project-assistant/internal/logger"
	"github.com/benvon/project-assistant/internal/models"
	"github.com/benvon/project-assistant/internal/request"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// TurnResolver runs one chat turn against a session
type TurnResolver interface {
	HandleTurn(ctx context.Context, session *assistant.Session, in assistant.TurnInput) (*assistant.TurnResult, error)
}

// ProjectLookup resolves a project the caller owns
type ProjectLookup interface {
	GetProject(ctx context.Context, owner string, projectID int64) (*models.Project, error)
}

// ChatHandler serves chat sessions and turns
type ChatHandler struct {
	sessions *assistant.SessionStore
	resolver TurnResolver
	projects ProjectLookup
	logger   *zap.Logger
}

// NewChatHandler creates a new chat handler
func NewChatHandler(sessions *assistant.SessionStore, resolver TurnResolver, projects ProjectLookup, log *zap.Logger) *ChatHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &ChatHandler{
		sessions: sessions,
		resolver: resolver,
		projects: projects,
		logger:   log,
	}
}

// RegisterRoutes registers chat routes
// The router should already have the /api/v1 prefix
func (h *ChatHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/chat/sessions", h.ListSessions).Methods("GET")
	r.HandleFunc("/chat/sessions", h.CreateSession).Methods("POST")
	r.HandleFunc("/chat/sessions/{id}", h.GetSession).Methods("GET")
	r.HandleFunc("/chat/sessions/{id}", h.DeleteSession).Methods("DELETE")
	r.HandleFunc("/chat/sessions/{id}/messages", h.SendMessage).Methods("POST")
	r.HandleFunc("/chat/sessions/{id}/select", h.SelectProject).Methods("POST")
}

// SendMessageRequest is one user message. ProjectID, when present, is the project the
// UI had selected; 0 clears the selection.
type SendMessageRequest struct {
	Message   string `json:"message" validate:"max=4000"`
	ProjectID *int64 `json:"project_id,omitempty" validate:"omitnil,gte=0"`
}

// SelectProjectRequest switches the session's project
type SelectProjectRequest struct {
	ProjectID int64 `json:"project_id" validate:"gte=0"`
}

// SessionResponse is the client view of a session
type SessionResponse struct {
	ID                string              `json:"id"`
	CreatedAt         time.Time           `json:"created_at"`
	SelectedProjectID int64               `json:"selected_project_id"`
	Busy              bool                `json:"busy"`
	Messages          []assistant.Message `json:"messages"`
}

func newSessionResponse(s *assistant.Session) SessionResponse {
	return SessionResponse{
		ID:                s.ID,
		CreatedAt:         s.CreatedAt,
		SelectedProjectID: s.SelectedProjectID(),
		Busy:              s.Busy(),
		Messages:          s.Messages(),
	}
}

// owner is the session scope for the request. Anonymous callers share the empty scope
// until they log in; their turns end in a login prompt and their sessions cannot be
// read back or discarded by id.
func owner(r *http.Request) string {
	if user := request.UserFromContext(r); user != nil {
		return user.Email
	}
	return ""
}

// lookupSession loads a session of a logged in caller or writes a 404
func (h *ChatHandler) lookupSession(w http.ResponseWriter, r *http.Request) (*assistant.Session, bool) {
	if owner(r) == "" {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Chat session not found")
		return nil, false
	}
	return h.findSession(w, r)
}

// findSession loads the session in the caller's scope, anonymous included, or writes a 404
func (h *ChatHandler) findSession(w http.ResponseWriter, r *http.Request) (*assistant.Session, bool) {
	session, err := h.sessions.Get(mux.Vars(r)["id"], owner(r))
	if err != nil {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Chat session not found")
		return nil, false
	}
	return session, true
}

// ListSessions lists the caller's sessions, newest first
func (h *ChatHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	var sessions []*assistant.Session
	if scope := owner(r); scope != "" {
		sessions = h.sessions.List(scope)
	}
	response := make([]SessionResponse, 0, len(sessions))
	for _, s := range sessions {
		response = append(response, newSessionResponse(s))
	}
	respondJSON(w, http.StatusOK, response)
}

// CreateSession starts a session that opens with the welcome message
func (h *ChatHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	session := h.sessions.Create(owner(r))

	h.logger.Info("chat_session_created",
		zap.String("session_id", session.ID),
		zap.String("owner", logger.SanitizeOwner(session.Owner)),
	)

	respondJSON(w, http.StatusCreated, newSessionResponse(session))
}

// GetSession returns the session log
func (h *ChatHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	session, ok := h.lookupSession(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, newSessionResponse(session))
}

// DeleteSession discards a session
func (h *ChatHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	scope := owner(r)
	if scope == "" {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Chat session not found")
		return
	}
	if err := h.sessions.Delete(mux.Vars(r)["id"], scope); err != nil {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Chat session not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SendMessage runs one turn and returns the assistant's replies
func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	session, ok := h.findSession(w, r)
	if !ok {
		return
	}

	var req SendMessageRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.resolver.HandleTurn(r.Context(), session, assistant.TurnInput{
		Text:      req.Message,
		ProjectID: req.ProjectID,
	})
	switch {
	case errors.Is(err, assistant.ErrEmptyInput):
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Message is required")
		return
	case errors.Is(err, assistant.ErrTurnInProgress):
		respondTurnInProgress(w)
		return
	case err != nil:
		h.logger.Error("chat_turn_failed",
			zap.String("session_id", session.ID),
			zap.String("error", logger.SanitizeError(err)),
		)
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to handle message")
		return
	}

	if result.LoginRequired {
		respondLoginRequired(w, result)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// SelectProject switches the session to a project and announces it in the log
func (h *ChatHandler) SelectProject(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	session, ok := h.lookupSession(w, r)
	if !ok {
		return
	}

	var req SelectProjectRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if req.ProjectID == 0 {
		if err := session.ClearSelection(); err != nil {
			respondTurnInProgress(w)
			return
		}
		respondJSON(w, http.StatusOK, map[string]any{"selected_project_id": int64(0)})
		return
	}

	project, err := h.projects.GetProject(r.Context(), user.Email, req.ProjectID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			respondJSONError(w, http.StatusNotFound, "Not Found", "Project not found")
			return
		}
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to load project")
		return
	}

	msg, err := session.SwitchProject(project.ID, project.Title)
	if err != nil {
		respondTurnInProgress(w)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"selected_project_id": project.ID,
		"message":             msg,
	})
}

func respondTurnInProgress(w http.ResponseWriter) {
	respondJSONError(w, http.StatusConflict, "Conflict", "A message is already being handled for this session")
}

// respondLoginRequired sends the turn result with a 401 so the client redirects to login
func respondLoginRequired(w http.ResponseWriter, result *assistant.TurnResult) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)

	response := map[string]any{
		"success":   false,
		"error":     assistant.RuleLoginRequired,
		"message":   assistant.LoginRequiredMessage,
		"data":      result,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}
