package util

import "testing"

func TestNewID(t *testing.T) {
	a := NewID()
	b := NewID()
	if a == "" || b == "" {
		t.Fatal("expected non-empty ids")
	}
	if a == b {
		t.Fatalf("expected distinct ids, got %q twice", a)
	}
	if len(a) != 36 {
		t.Fatalf("expected uuid-shaped id, got %q", a)
	}
}
