package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/benvon/project-assistant/internal/assistant"
	"github.com/benvon/project-assistant/internal/queue"
	"go.uber.org/zap"
)

var _ assistant.RefreshNotifier = (*Notifier)(nil)

type failingBus struct {
	queue.EventBus
	publishErr error
}

func (f *failingBus) Publish(context.Context, *queue.Event) error { return f.publishErr }

func TestHub_BroadcastScopedToOwner(t *testing.T) {
	t.Parallel()

	hub := NewHub(2)
	alice, cancelAlice := hub.Subscribe("alice@example.com")
	defer cancelAlice()
	bob, cancelBob := hub.Subscribe("bob@example.com")
	defer cancelBob()

	if n := hub.Broadcast(queue.NewRefreshEvent("alice@example.com", 1)); n != 1 {
		t.Errorf("Expected 1 delivery, got %d", n)
	}

	select {
	case event := <-alice:
		if event.ProjectID != 1 {
			t.Errorf("Expected project 1, got %d", event.ProjectID)
		}
	default:
		t.Error("Expected alice to receive the event")
	}
	select {
	case event := <-bob:
		t.Errorf("bob received alice's event: %+v", event)
	default:
	}
}

func TestHub_CancelClosesChannel(t *testing.T) {
	t.Parallel()

	hub := NewHub(1)
	ch, cancel := hub.Subscribe("alice@example.com")
	if hub.Clients("alice@example.com") != 1 {
		t.Fatalf("Expected one client")
	}
	cancel()
	cancel()
	if _, ok := <-ch; ok {
		t.Error("Expected channel to be closed")
	}
	if hub.Clients("alice@example.com") != 0 {
		t.Errorf("Expected no clients after cancel")
	}
}

func TestHub_SlowClientMissesEvents(t *testing.T) {
	t.Parallel()

	hub := NewHub(1)
	_, cancel := hub.Subscribe("alice@example.com")
	defer cancel()

	hub.Broadcast(queue.NewRefreshEvent("alice@example.com", 1))
	if n := hub.Broadcast(queue.NewRefreshEvent("alice@example.com", 2)); n != 0 {
		t.Errorf("Expected full client to be skipped, got %d deliveries", n)
	}
}

func TestNotifier_RelaysBusEventsToHub(t *testing.T) {
	t.Parallel()

	bus := queue.NewMemoryBus(4)
	hub := NewHub(4)
	notifier := NewNotifier(bus, hub, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- notifier.Run(ctx) }()

	client, unsubscribe := hub.Subscribe("alice@example.com")
	defer unsubscribe()

	deadline := time.After(2 * time.Second)
	for {
		if err := notifier.NotifyRefresh(ctx, "alice@example.com", 9); err != nil {
			t.Fatalf("NotifyRefresh() error: %v", err)
		}
		select {
		case event := <-client:
			if event.ProjectID != 9 {
				t.Errorf("Expected project 9, got %d", event.ProjectID)
			}
			cancel()
			if err := <-done; !errors.Is(err, context.Canceled) {
				t.Errorf("Expected Run to stop with context.Canceled, got %v", err)
			}
			return
		case <-time.After(20 * time.Millisecond):
		case <-deadline:
			t.Fatal("event was not relayed to the hub")
		}
	}
}

func TestNotifier_PublishError(t *testing.T) {
	t.Parallel()

	notifier := NewNotifier(&failingBus{publishErr: errors.New("broker down")}, NewHub(1), nil)
	if err := notifier.NotifyRefresh(context.Background(), "alice@example.com", 1); err == nil {
		t.Error("Expected publish error to be returned")
	}
}
