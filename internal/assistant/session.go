// Package assistant runs the chat turn loop that turns user messages into project and task changes.
package assistant

import (
	"sync"
	"time"

	"github.com/benvon/project-assistant/internal/intent"
)

// Role identifies the author of a message
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry of a session's log
type Message struct {
	ID        int64            `json:"id"`
	Role      Role             `json:"role"`
	Content   string           `json:"content"`
	CreatedAt time.Time        `json:"created_at"`
	Metadata  *MessageMetadata `json:"metadata,omitempty"`
}

// MessageMetadata is attached to assistant messages that leave an action pending
type MessageMetadata struct {
	ProjectID                  *int64               `json:"project_id,omitempty"`
	SuggestedTasks             []intent.ProjectTask `json:"suggested_tasks,omitempty"`
	DeleteConfirmationRequired bool                 `json:"delete_confirmation_required,omitempty"`
	ProjectIDToDelete          *int64               `json:"project_id_to_delete,omitempty"`
}

// Suggestions are template tasks offered for a project and not yet accepted
type Suggestions struct {
	ProjectID *int64
	Tasks     []intent.ProjectTask
}

// pendingState is what the most recent message left open for the next turn
type pendingState struct {
	deletion    *int64
	suggestions *Suggestions
}

// Session is one conversation. The log is append-only and IDs increase from 1.
//
// Pending deletion and pending suggestions belong to the most recent message and are
// dropped as soon as another message is appended. Pending naming survives until the
// naming turn consumes it or a new creation command replaces it.
type Session struct {
	ID        string    `json:"id"`
	Owner     string    `json:"owner"`
	CreatedAt time.Time `json:"created_at"`

	mu         sync.RWMutex
	messages   []Message
	nextID     int64
	pending    pendingState
	naming     *intent.ProjectInfo
	selectedID int64
	busy       bool
	lastActive time.Time
}

// NewSession creates a session that opens with the welcome message
func NewSession(id, owner string) *Session {
	now := time.Now()
	s := &Session{
		ID:         id,
		Owner:      owner,
		CreatedAt:  now,
		nextID:     1,
		lastActive: now,
	}
	s.Append(RoleAssistant, WelcomeMessage, nil)
	return s
}

// Append adds a message to the log and returns it
func (s *Session) Append(role Role, content string, metadata *MessageMetadata) Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.appendLocked(role, content, metadata)
}

func (s *Session) appendLocked(role Role, content string, metadata *MessageMetadata) Message {
	msg := Message{
		ID:        s.nextID,
		Role:      role,
		Content:   content,
		CreatedAt: time.Now(),
		Metadata:  metadata,
	}
	s.nextID++
	s.messages = append(s.messages, msg)
	s.lastActive = msg.CreatedAt

	s.pending = pendingState{}
	if metadata != nil && role == RoleAssistant {
		if metadata.DeleteConfirmationRequired && metadata.ProjectIDToDelete != nil {
			id := *metadata.ProjectIDToDelete
			s.pending.deletion = &id
		}
		if metadata.SuggestedTasks != nil {
			s.pending.suggestions = &Suggestions{
				ProjectID: metadata.ProjectID,
				Tasks:     append([]intent.ProjectTask(nil), metadata.SuggestedTasks...),
			}
		}
	}

	return msg
}

// Messages returns a copy of the log
func (s *Session) Messages() []Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Message(nil), s.messages...)
}

// LastMessage returns the most recent message
func (s *Session) LastMessage() (Message, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.messages) == 0 {
		return Message{}, false
	}
	return s.messages[len(s.messages)-1], true
}

// PendingDeletion returns the project awaiting a delete confirmation
func (s *Session) PendingDeletion() *int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pending.deletion
}

// PendingSuggestions returns the suggestions offered by the most recent message
func (s *Session) PendingSuggestions() *Suggestions {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pending.suggestions
}

// PendingNaming returns the creation request waiting for a title
func (s *Session) PendingNaming() *intent.ProjectInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.naming
}

// SetPendingNaming records or clears the creation request waiting for a title
func (s *Session) SetPendingNaming(info *intent.ProjectInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.naming = info
}

// SelectedProjectID returns the project the session is focused on, or 0
func (s *Session) SelectedProjectID() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selectedID
}

// SetSelectedProject changes the selection without writing to the log. Callers outside a
// turn use ClearSelection or SwitchProject instead.
func (s *Session) SetSelectedProject(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selectedID = id
}

// ClearSelection drops the selection. It fails with ErrTurnInProgress while a turn runs.
func (s *Session) ClearSelection() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy {
		return ErrTurnInProgress
	}
	s.selectedID = 0
	return nil
}

// SwitchProject selects a project on the user's behalf and announces it in the log.
// It fails with ErrTurnInProgress while a turn runs so the turn stays the only writer.
func (s *Session) SwitchProject(id int64, title string) (Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy {
		return Message{}, ErrTurnInProgress
	}
	s.selectedID = id
	return s.appendLocked(RoleAssistant, "Switched to project: "+title, nil), nil
}

// LastActive is the time of the most recent append or turn
func (s *Session) LastActive() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastActive
}

// Busy reports whether a turn is running
func (s *Session) Busy() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.busy
}

func (s *Session) acquire() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy {
		return false
	}
	s.busy = true
	s.lastActive = time.Now()
	return true
}

func (s *Session) release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.busy = false
}

func (s *Session) snapshotPending() pendingState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pending
}
