package assistant

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestSessionStore_OwnerScoping(t *testing.T) {
	t.Parallel()

	store := NewSessionStore(time.Hour, nil)
	s := store.Create("sam@example.com")

	if got, err := store.Get(s.ID, "sam@example.com"); err != nil || got != s {
		t.Errorf("Get() = %v, %v; want the created session", got, err)
	}
	if _, err := store.Get(s.ID, "eve@example.com"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Get() by another owner error = %v, want ErrSessionNotFound", err)
	}
	if err := store.Delete(s.ID, "eve@example.com"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Delete() by another owner error = %v, want ErrSessionNotFound", err)
	}
	if n := len(store.List("sam@example.com")); n != 1 {
		t.Errorf("List() returned %d sessions, want 1", n)
	}
	if err := store.Delete(s.ID, "sam@example.com"); err != nil {
		t.Errorf("Delete() unexpected error: %v", err)
	}
	if store.Len() != 0 {
		t.Errorf("Len() = %d after delete, want 0", store.Len())
	}
}

func TestSessionStore_Sweep(t *testing.T) {
	t.Parallel()

	store := NewSessionStore(time.Minute, nil)
	idle := store.Create("sam@example.com")
	busy := store.Create("sam@example.com")
	if !busy.acquire() {
		t.Fatal("failed to mark session busy")
	}
	defer busy.release()

	if n := store.Sweep(time.Now()); n != 0 {
		t.Errorf("Sweep() removed %d fresh sessions", n)
	}
	if n := store.Sweep(time.Now().Add(2 * time.Minute)); n != 1 {
		t.Errorf("Sweep() removed %d sessions, want 1", n)
	}
	if _, err := store.Get(idle.ID, "sam@example.com"); !errors.Is(err, ErrSessionNotFound) {
		t.Error("idle session was not swept")
	}
	if _, err := store.Get(busy.ID, "sam@example.com"); err != nil {
		t.Error("busy session was swept")
	}
}

func TestSessionStore_StartStopsOnCancel(t *testing.T) {
	t.Parallel()

	store := NewSessionStore(time.Minute, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- store.Start(ctx, 10*time.Millisecond) }()

	time.Sleep(25 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Start() error = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Start() did not return after cancel")
	}
}
