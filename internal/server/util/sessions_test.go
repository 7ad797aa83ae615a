package util

import (
	"testing"
	"time"
)

func TestSessionRegistryCreateAndGet(t *testing.T) {
	r := NewSessionRegistry(0)

	id := r.Create()
	if id == "" {
		t.Fatal("expected non-empty session id")
	}
	if r.Get(id) == nil {
		t.Fatal("expected store for created session")
	}
	if r.Get("unknown") != nil {
		t.Fatal("expected nil for unknown session")
	}

	a := r.Get(id)
	b := r.Get(id)
	if a != b {
		t.Fatal("expected the same store instance across lookups")
	}
}

func TestSessionRegistryDelete(t *testing.T) {
	r := NewSessionRegistry(0)

	id := r.Create()
	r.Delete(id)
	if r.Get(id) != nil {
		t.Fatal("expected nil after delete")
	}
	// deleting again is a no-op
	r.Delete(id)
}

func TestSessionRegistryExpiry(t *testing.T) {
	r := NewSessionRegistry(10 * time.Millisecond)

	id := r.Create()
	time.Sleep(25 * time.Millisecond)

	if r.Get(id) != nil {
		t.Fatal("expected idle session to expire")
	}
	if r.Len() != 0 {
		t.Fatalf("expected 0 live sessions, got %d", r.Len())
	}
}

func TestSessionRegistryKeepAlive(t *testing.T) {
	r := NewSessionRegistry(40 * time.Millisecond)

	id := r.Create()
	for i := 0; i < 3; i++ {
		time.Sleep(15 * time.Millisecond)
		if r.Get(id) == nil {
			t.Fatal("active session should not expire")
		}
	}
}
