// Package notify delivers project refresh notifications to connected clients.
package notify

import (
	"sync"

	"github.com/benvon/project-assistant/internal/queue"
)

// DefaultClientBuffer is how many undelivered events a client may hold before it misses one
const DefaultClientBuffer = 8

// Hub fans events out to the owner's connected clients in this process
type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[chan *queue.Event]struct{}
	buffer  int
}

// NewHub creates an empty hub
func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = DefaultClientBuffer
	}
	return &Hub{
		clients: make(map[string]map[chan *queue.Event]struct{}),
		buffer:  buffer,
	}
}

// Subscribe registers a client for owner. The returned cancel func must be called when
// the client goes away; it closes the channel.
func (h *Hub) Subscribe(owner string) (<-chan *queue.Event, func()) {
	ch := make(chan *queue.Event, h.buffer)

	h.mu.Lock()
	if h.clients[owner] == nil {
		h.clients[owner] = make(map[chan *queue.Event]struct{})
	}
	h.clients[owner][ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.clients[owner], ch)
			if len(h.clients[owner]) == 0 {
				delete(h.clients, owner)
			}
			close(ch)
		})
	}
}

// Broadcast delivers event to the owner's clients without blocking and returns how many received it
func (h *Hub) Broadcast(event *queue.Event) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for ch := range h.clients[event.Owner] {
		select {
		case ch <- event:
			delivered++
		default:
		}
	}
	return delivered
}

// Clients returns the number of connected clients for owner
func (h *Hub) Clients(owner string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[owner])
}
