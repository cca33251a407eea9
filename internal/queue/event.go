package queue

import (
	"time"

	"github.com/google/uuid"
)

// EventType represents the type of event on the bus
type EventType string

const (
	// EventTypeProjectsRefresh tells an owner's clients to reload projects and tasks
	EventTypeProjectsRefresh EventType = "projects_refresh"
)

// DefaultEventTTL bounds how long an undelivered refresh event stays useful
const DefaultEventTTL = 30 * time.Second

// Event is a message fanned out to every server instance
type Event struct {
	ID        uuid.UUID `json:"id"`
	Type      EventType `json:"type"`
	Owner     string    `json:"owner"`
	ProjectID int64     `json:"project_id,omitempty"`
	Origin    string    `json:"origin,omitempty"` // publishing instance
	CreatedAt time.Time `json:"created_at"`
	NotAfter  time.Time `json:"not_after"`
}

// NewRefreshEvent creates a refresh notification for owner. projectID 0 means "all projects".
func NewRefreshEvent(owner string, projectID int64) *Event {
	now := time.Now()
	return &Event{
		ID:        uuid.New(),
		Type:      EventTypeProjectsRefresh,
		Owner:     owner,
		ProjectID: projectID,
		CreatedAt: now,
		NotAfter:  now.Add(DefaultEventTTL),
	}
}

// IsExpired reports whether the event is past NotAfter at now. A zero NotAfter never expires.
func (e *Event) IsExpired(now time.Time) bool {
	return !e.NotAfter.IsZero() && now.After(e.NotAfter)
}
