package queue

import (
	"context"
	"errors"
	"sync"
)

// ErrBusClosed is returned by operations on a closed bus
var ErrBusClosed = errors.New("event bus closed")

// MemoryBus is an in-process EventBus for single-instance deployments and tests
type MemoryBus struct {
	mu          sync.Mutex
	subscribers map[chan MessageInterface]struct{}
	buffer      int
	closed      bool
}

// NewMemoryBus creates an in-process bus. Each subscriber buffers up to buffer messages;
// a full subscriber misses the event.
func NewMemoryBus(buffer int) *MemoryBus {
	if buffer <= 0 {
		buffer = 16
	}
	return &MemoryBus{
		subscribers: make(map[chan MessageInterface]struct{}),
		buffer:      buffer,
	}
}

// Publish delivers the event to every current subscriber without blocking
func (b *MemoryBus) Publish(_ context.Context, event *Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrBusClosed
	}
	for ch := range b.subscribers {
		select {
		case ch <- &memoryMessage{event: event}:
		default:
		}
	}
	return nil
}

// Subscribe registers a subscriber until ctx is cancelled or the bus is closed
func (b *MemoryBus) Subscribe(ctx context.Context) (<-chan MessageInterface, <-chan error, error) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil, nil, ErrBusClosed
	}
	ch := make(chan MessageInterface, b.buffer)
	b.subscribers[ch] = struct{}{}
	b.mu.Unlock()

	errCh := make(chan error)
	go func() {
		<-ctx.Done()
		b.remove(ch)
		close(errCh)
	}()
	return ch, errCh, nil
}

func (b *MemoryBus) remove(ch chan MessageInterface) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subscribers[ch]; ok {
		delete(b.subscribers, ch)
		close(ch)
	}
}

// Close closes every subscription
func (b *MemoryBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	for ch := range b.subscribers {
		delete(b.subscribers, ch)
		close(ch)
	}
	return nil
}

// HealthCheck fails once the bus is closed
func (b *MemoryBus) HealthCheck(_ context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrBusClosed
	}
	return nil
}

type memoryMessage struct {
	event *Event
}

func (m *memoryMessage) Ack() error       { return nil }
func (m *memoryMessage) Nack(bool) error  { return nil }
func (m *memoryMessage) GetEvent() *Event { return m.event }

var (
	_ EventBus         = (*MemoryBus)(nil)
	_ MessageInterface = (*memoryMessage)(nil)
)
