package ai

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestConversationMemory(t *testing.T) {
	t.Parallel()

	m := NewConversationMemory(2)
	m.Record("sam@example.com", 1, "q1", "a1")
	m.Record("sam@example.com", 1, "q2", "a2")
	m.Record("sam@example.com", 1, "q3", "a3")
	m.Record("sam@example.com", 0, "general", "answer")

	history := m.History("sam@example.com", 1)
	if len(history) != 4 {
		t.Fatalf("History() has %d messages, want 4", len(history))
	}
	if history[0].Content != "q2" || history[3].Content != "a3" {
		t.Errorf("History() = %+v, want the two most recent exchanges", history)
	}
	if got := m.History("sam@example.com", 0); len(got) != 2 {
		t.Errorf("general thread has %d messages, want 2", len(got))
	}
	if got := m.History("eve@example.com", 1); got != nil {
		t.Errorf("other owner sees history %+v", got)
	}

	if n := m.Forget(time.Now().Add(time.Minute)); n != 2 {
		t.Errorf("Forget() removed %d threads, want 2", n)
	}
}

func TestConversationMemory_Start(t *testing.T) {
	t.Parallel()

	m := NewConversationMemory(2)
	m.Record("sam@example.com", 1, "q1", "a1")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Start(ctx, 5*time.Millisecond, time.Nanosecond) }()

	deadline := time.Now().Add(2 * time.Second)
	for m.History("sam@example.com", 1) != nil {
		if time.Now().After(deadline) {
			t.Fatal("Expected idle thread to be forgotten")
		}
		time.Sleep(5 * time.Millisecond)
	}

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Start() error = %v, want context.Canceled", err)
	}
}
