package graphdb

import (
	"testing"

	"github.com/graphaura/backend/pkg/model"
)

func TestBuildSnapshotDeduplicatesBothOrders(t *testing.T) {
	entities := []*Entity{
		{ID: "a", Name: "Alice", Type: model.TypePerson, Confidence: 1},
		{ID: "b", Name: "Fair", Type: model.TypeEvent, Confidence: 0.5},
	}
	rels := []snapshotRel{
		{SourceID: "a", TargetID: "b", Type: "attended", Weight: 0.9},
		{SourceID: "a", TargetID: "b", Type: "attended", Weight: 0.9},
		{SourceID: "b", TargetID: "a", Type: "hosted", Weight: 0.2},
	}

	snap := buildSnapshot(entities, rels)

	if len(snap.Nodes) != 2 {
		t.Fatalf("node count = %d, want 2", len(snap.Nodes))
	}
	if len(snap.Links) != 1 {
		t.Fatalf("link count = %d, want 1 after both-order dedupe", len(snap.Links))
	}
	if snap.Links[0].Key() != "a-b" {
		t.Errorf("kept link = %s, want a-b (first seen wins)", snap.Links[0].Key())
	}
}

func TestBuildSnapshotNodeShape(t *testing.T) {
	entities := []*Entity{
		{
			ID:         "a",
			Name:       "Alice",
			Type:       model.TypePerson,
			Confidence: 1,
			Properties: map[string]any{"occupation": "engineer"},
		},
	}

	snap := buildSnapshot(entities, nil)

	n := snap.Nodes[0]
	if n.Color != model.TypePerson.Color() {
		t.Errorf("color = %q, want type color", n.Color)
	}
	if n.Val != 5 {
		t.Errorf("val = %v, want 5 for full confidence", n.Val)
	}
	if n.Metadata["occupation"] != "engineer" {
		t.Error("properties should carry over as metadata")
	}
}

func TestNodeWeight(t *testing.T) {
	tests := []struct {
		name       string
		confidence float64
		want       float64
	}{
		{name: "zero confidence", confidence: 0, want: 1},
		{name: "negative confidence", confidence: -1, want: 1},
		{name: "half confidence", confidence: 0.5, want: 3},
		{name: "full confidence", confidence: 1, want: 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := nodeWeight(tt.confidence); got != tt.want {
				t.Errorf("nodeWeight(%v) = %v, want %v", tt.confidence, got, tt.want)
			}
		})
	}
}

func TestTypeLabel(t *testing.T) {
	if got := typeLabel(model.TypePerson); got != "Person" {
		t.Errorf("typeLabel(person) = %q, want Person", got)
	}
	if got := typeLabel(""); got != "" {
		t.Errorf("typeLabel(\"\") = %q, want empty", got)
	}
}
