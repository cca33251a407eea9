package ai

import (
	"context"
	"strconv"
	"sync"
	"time"
)

// DefaultMemoryTurns is how many exchanges are replayed to the model per conversation
const DefaultMemoryTurns = 10

// ConversationMemory keeps recent exchanges per owner and project so follow-up
// questions reach the model with their history
type ConversationMemory struct {
	mu       sync.RWMutex
	maxTurns int
	threads  map[string]*thread
}

type thread struct {
	messages     []ChatMessage
	lastActivity time.Time
}

// NewConversationMemory creates a memory that keeps up to maxTurns exchanges per thread
func NewConversationMemory(maxTurns int) *ConversationMemory {
	if maxTurns <= 0 {
		maxTurns = DefaultMemoryTurns
	}
	return &ConversationMemory{
		maxTurns: maxTurns,
		threads:  make(map[string]*thread),
	}
}

// threadKey scopes history to an owner and a project. projectID 0 is the general thread.
func threadKey(owner string, projectID int64) string {
	if projectID == 0 {
		return owner + "|general"
	}
	return owner + "|" + strconv.FormatInt(projectID, 10)
}

// History returns a copy of the thread's messages, oldest first
func (m *ConversationMemory) History(owner string, projectID int64) []ChatMessage {
	m.mu.RLock()
	defer m.mu.RUnlock()

	t, ok := m.threads[threadKey(owner, projectID)]
	if !ok {
		return nil
	}
	return append([]ChatMessage(nil), t.messages...)
}

// Record appends one exchange and drops the oldest beyond the limit
func (m *ConversationMemory) Record(owner string, projectID int64, userMessage, assistantMessage string) {
	key := threadKey(owner, projectID)

	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.threads[key]
	if !ok {
		t = &thread{}
		m.threads[key] = t
	}
	t.messages = append(t.messages,
		ChatMessage{Role: "user", Content: userMessage},
		ChatMessage{Role: "assistant", Content: assistantMessage},
	)
	if limit := m.maxTurns * 2; len(t.messages) > limit {
		t.messages = append([]ChatMessage(nil), t.messages[len(t.messages)-limit:]...)
	}
	t.lastActivity = time.Now()
}

// Forget drops every thread idle since before cutoff
func (m *ConversationMemory) Forget(cutoff time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for key, t := range m.threads {
		if t.lastActivity.Before(cutoff) {
			delete(m.threads, key)
			removed++
		}
	}
	return removed
}

// Start forgets threads idle for longer than ttl, checking every interval until ctx is cancelled
func (m *ConversationMemory) Start(ctx context.Context, interval, ttl time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			m.Forget(now.Add(-ttl))
		}
	}
}
