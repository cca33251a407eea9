package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/benvon/project-assistant/internal/logger"
	"github.com/benvon/project-assistant/internal/queue"
	"go.uber.org/zap"
)

// Notifier publishes refresh events to the bus and relays bus events into the local hub
type Notifier struct {
	bus    queue.EventBus
	hub    *Hub
	logger *zap.Logger
	retry  time.Duration
}

// NewNotifier creates a notifier over bus and hub
func NewNotifier(bus queue.EventBus, hub *Hub, log *zap.Logger) *Notifier {
	if log == nil {
		log = zap.NewNop()
	}
	return &Notifier{bus: bus, hub: hub, logger: log, retry: 5 * time.Second}
}

// NotifyRefresh tells every instance to refresh owner's clients
func (n *Notifier) NotifyRefresh(ctx context.Context, owner string, projectID int64) error {
	event := queue.NewRefreshEvent(owner, projectID)
	if err := n.bus.Publish(ctx, event); err != nil {
		return fmt.Errorf("failed to publish refresh event: %w", err)
	}
	return nil
}

// Run relays bus events into the hub until ctx is cancelled, resubscribing after failures
func (n *Notifier) Run(ctx context.Context) error {
	for {
		err := n.relay(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		n.logger.Warn("refresh_relay_interrupted", zap.String("error", logger.SanitizeError(err)))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(n.retry):
		}
	}
}

func (n *Notifier) relay(ctx context.Context) error {
	msgs, errs, err := n.bus.Subscribe(ctx)
	if err != nil {
		return err
	}
	n.logger.Info("refresh_relay_started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			return err
		case msg, ok := <-msgs:
			if !ok {
				return errors.New("subscription closed")
			}
			n.deliver(msg)
		}
	}
}

func (n *Notifier) deliver(msg queue.MessageInterface) {
	event := msg.GetEvent()
	if event == nil || event.IsExpired(time.Now()) {
		_ = msg.Ack()
		return
	}
	delivered := n.hub.Broadcast(event)
	if err := msg.Ack(); err != nil {
		n.logger.Warn("refresh_ack_failed", zap.Error(err))
	}
	n.logger.Debug("refresh_delivered",
		zap.String("owner", logger.SanitizeOwner(event.Owner)),
		zap.Int64("project_id", event.ProjectID),
		zap.Int("clients", delivered),
	)
}
