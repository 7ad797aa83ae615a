package model

import "testing"

func TestEndpointID(t *testing.T) {
	node := &Node{ID: "n1", Name: "Alice", Type: TypePerson}

	tests := []struct {
		name  string
		value any
		want  string
	}{
		{
			name:  "id string",
			value: "n1",
			want:  "n1",
		},
		{
			name:  "resolved pointer",
			value: node,
			want:  "n1",
		},
		{
			name:  "node value",
			value: Node{ID: "n2"},
			want:  "n2",
		},
		{
			name:  "nil pointer",
			value: (*Node)(nil),
			want:  "",
		},
		{
			name:  "unsupported type",
			value: 42,
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EndpointID(tt.value); got != tt.want {
				t.Errorf("EndpointID(%v) = %q, want %q", tt.value, got, tt.want)
			}
		})
	}
}

func TestLinkKeyIsDirectional(t *testing.T) {
	ab := &Link{Source: "a", Target: "b"}
	ba := &Link{Source: "b", Target: "a"}

	if ab.Key() != "a-b" {
		t.Errorf("Key() = %q, want %q", ab.Key(), "a-b")
	}
	if ab.Key() == ba.Key() {
		t.Error("reversed links must have distinct keys")
	}
}

func TestLinkKeyMixedRepresentations(t *testing.T) {
	// A renderer may rewrite one endpoint to a resolved node while the
	// other stays an id string.
	l := &Link{Source: &Node{ID: "a"}, Target: "b"}
	if l.Key() != "a-b" {
		t.Errorf("Key() = %q, want %q", l.Key(), "a-b")
	}
}

func TestEntityTypeColor(t *testing.T) {
	if TypePerson.Color() == DefaultColor {
		t.Error("known type should have its own color")
	}
	if got := EntityType("organization").Color(); got != DefaultColor {
		t.Errorf("unknown type color = %q, want default %q", got, DefaultColor)
	}
	if EntityType("organization").Valid() {
		t.Error("organization should not be a valid type")
	}
	for _, typ := range []EntityType{TypePerson, TypeEvent, TypeLocation} {
		if !typ.Valid() {
			t.Errorf("%s should be valid", typ)
		}
	}
}
