package assistant

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultSessionTTL is how long an idle session is kept
const DefaultSessionTTL = 2 * time.Hour

// SessionStore keeps chat sessions in memory, keyed by ID and scoped to their owner
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	ttl      time.Duration
	logger   *zap.Logger
}

// NewSessionStore creates a store whose sessions expire after ttl of inactivity
func NewSessionStore(ttl time.Duration, logger *zap.Logger) *SessionStore {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionStore{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		logger:   logger,
	}
}

// Create starts a new session for owner
func (s *SessionStore) Create(owner string) *Session {
	session := NewSession(uuid.New().String(), owner)

	s.mu.Lock()
	s.sessions[session.ID] = session
	s.mu.Unlock()

	return session
}

// Get returns the owner's session with the given ID
func (s *SessionStore) Get(id, owner string) (*Session, error) {
	s.mu.RLock()
	session, ok := s.sessions[id]
	s.mu.RUnlock()

	if !ok || session.Owner != owner {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// List returns the owner's sessions, newest first
func (s *SessionStore) List(owner string) []*Session {
	s.mu.RLock()
	var out []*Session
	for _, session := range s.sessions {
		if session.Owner == owner {
			out = append(out, session)
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// Delete removes the owner's session with the given ID
func (s *SessionStore) Delete(id, owner string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[id]
	if !ok || session.Owner != owner {
		return ErrSessionNotFound
	}
	delete(s.sessions, id)
	return nil
}

// Len returns the number of live sessions
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Sweep removes sessions idle since before now minus the TTL. Busy sessions are kept.
func (s *SessionStore) Sweep(now time.Time) int {
	cutoff := now.Add(-s.ttl)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, session := range s.sessions {
		if session.Busy() || session.LastActive().After(cutoff) {
			continue
		}
		delete(s.sessions, id)
		removed++
	}
	return removed
}

// Start sweeps expired sessions every interval until ctx is cancelled
func (s *SessionStore) Start(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			if n := s.Sweep(now); n > 0 {
				s.logger.Info("chat_sessions_expired", zap.Int("count", n), zap.Duration("ttl", s.ttl))
			}
		}
	}
}
