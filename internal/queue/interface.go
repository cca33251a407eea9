package queue

import (
	"context"
)

// MessageInterface defines the interface for delivered bus messages
type MessageInterface interface {
	Ack() error
	Nack(requeue bool) error
	GetEvent() *Event
}

// EventBus fans events out to every subscriber across server instances
type EventBus interface {
	// Publish sends an event to all subscribers
	Publish(ctx context.Context, event *Event) error

	// Subscribe returns a channel of messages delivered to this instance.
	// The caller acknowledges each message. Both channels close when ctx is cancelled
	// or the subscription is lost.
	Subscribe(ctx context.Context) (<-chan MessageInterface, <-chan error, error)

	// Close closes the bus connection
	Close() error

	// HealthCheck verifies the bus connection is healthy
	HealthCheck(ctx context.Context) error
}
