package viewstate

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/graphaura/backend/pkg/model"
)

func node(id, name string, typ model.EntityType) *model.Node {
	return &model.Node{ID: id, Name: name, Type: typ, Val: 1}
}

func link(source, target any, rel string) *model.Link {
	return &model.Link{Source: source, Target: target, Relationship: rel}
}

func testSnapshot() *model.Snapshot {
	return &model.Snapshot{
		Nodes: []*model.Node{
			node("A", "Alice", model.TypePerson),
			node("B", "Berlin Conference", model.TypeEvent),
			node("C", "Cologne", model.TypeLocation),
		},
		Links: []*model.Link{
			link("A", "B", "attended"),
			link("B", "C", "located_in"),
		},
	}
}

func TestSetGraphDataRoundTrip(t *testing.T) {
	s := New()
	snap := testSnapshot()
	s.SetGraphData(snap)

	got := s.FilteredView()
	if !reflect.DeepEqual(got.Nodes, snap.Nodes) {
		t.Errorf("nodes changed through round trip: got %v", got.Nodes)
	}
	if !reflect.DeepEqual(got.Links, snap.Links) {
		t.Errorf("links changed through round trip: got %v", got.Links)
	}
}

func TestRemoveNodeDropsIncidentLinks(t *testing.T) {
	s := New()
	s.SetGraphData(testSnapshot())

	s.RemoveNode("B")

	got := s.GraphData()
	if len(got.Nodes) != 2 {
		t.Fatalf("node count = %d, want 2", len(got.Nodes))
	}
	if len(got.Links) != 0 {
		t.Errorf("links incident to B should be gone, got %v", got.Links)
	}
}

func TestRemoveNodeNormalizesResolvedEndpoints(t *testing.T) {
	s := New()
	b := node("B", "Berlin Conference", model.TypeEvent)
	s.SetGraphData(&model.Snapshot{
		Nodes: []*model.Node{node("A", "Alice", model.TypePerson), b},
		// Renderer already rewrote the target to a node reference.
		Links: []*model.Link{link("A", b, "attended")},
	})

	s.RemoveNode("B")

	if got := s.GraphData(); len(got.Links) != 0 {
		t.Errorf("link with resolved endpoint should be removed, got %v", got.Links)
	}
}

func TestRemoveNodeIdempotent(t *testing.T) {
	s := New()
	s.SetGraphData(testSnapshot())

	s.RemoveNode("A")
	once := s.GraphData()
	s.RemoveNode("A")
	twice := s.GraphData()

	if !reflect.DeepEqual(once, twice) {
		t.Error("second RemoveNode changed state")
	}
}

func TestRemoveLinkOrderedPairOnly(t *testing.T) {
	s := New()
	s.SetGraphData(&model.Snapshot{
		Nodes: []*model.Node{node("A", "Alice", model.TypePerson), node("B", "Bob", model.TypePerson)},
		Links: []*model.Link{link("A", "B", "knows"), link("B", "A", "knows")},
	})

	s.RemoveLink("A", "B")

	got := s.GraphData()
	if len(got.Links) != 1 {
		t.Fatalf("link count = %d, want 1", len(got.Links))
	}
	if got.Links[0].Key() != "B-A" {
		t.Errorf("surviving link = %s, want B-A", got.Links[0].Key())
	}
}

func TestUpdateNodeMergesFields(t *testing.T) {
	s := New()
	s.SetGraphData(testSnapshot())

	name := "Alice Smith"
	val := 4.0
	s.UpdateNode("A", NodePatch{
		Name:     &name,
		Val:      &val,
		Metadata: map[string]any{"source": "import"},
	})

	n := s.Node("A")
	if n.Name != "Alice Smith" || n.Val != 4.0 {
		t.Errorf("patch not applied: %+v", n)
	}
	if n.Type != model.TypePerson {
		t.Error("untouched field changed")
	}
	if n.Metadata["source"] != "import" {
		t.Error("metadata not merged")
	}

	// Missing id is a silent no-op.
	s.UpdateNode("Z", NodePatch{Name: &name})
}

func TestNeighborsBasic(t *testing.T) {
	s := New()
	s.SetGraphData(testSnapshot())

	got := s.Neighbors("B")
	wantNodes := map[string]struct{}{"A": {}, "C": {}}
	wantLinks := map[string]struct{}{"A-B": {}, "B-C": {}}
	if !reflect.DeepEqual(got.Nodes, wantNodes) {
		t.Errorf("neighbor nodes = %v, want %v", got.Nodes, wantNodes)
	}
	if !reflect.DeepEqual(got.Links, wantLinks) {
		t.Errorf("neighbor links = %v, want %v", got.Links, wantLinks)
	}
}

func TestNeighborsSymmetric(t *testing.T) {
	s := New()
	s.SetGraphData(testSnapshot())

	for _, pair := range [][2]string{{"A", "B"}, {"B", "C"}} {
		a, b := pair[0], pair[1]
		if _, ok := s.Neighbors(a).Nodes[b]; !ok {
			t.Errorf("%s should be a neighbor of %s", b, a)
		}
		if _, ok := s.Neighbors(b).Nodes[a]; !ok {
			t.Errorf("%s should be a neighbor of %s", a, b)
		}
	}
}

func TestNeighborsIsolatedNode(t *testing.T) {
	s := New()
	s.SetGraphData(&model.Snapshot{
		Nodes: []*model.Node{node("A", "Alice", model.TypePerson)},
	})

	got := s.Neighbors("A")
	if len(got.Nodes) != 0 || len(got.Links) != 0 {
		t.Errorf("isolated node should have empty neighbor set, got %v", got)
	}
}

func TestNeighborsSelfLoop(t *testing.T) {
	s := New()
	s.SetGraphData(&model.Snapshot{
		Nodes: []*model.Node{node("A", "Alice", model.TypePerson)},
		Links: []*model.Link{link("A", "A", "references")},
	})

	got := s.Neighbors("A")
	if _, ok := got.Nodes["A"]; !ok {
		t.Error("a self-loop adds the node to its own neighbor set")
	}
	if _, ok := got.Links["A-A"]; !ok {
		t.Errorf("self-loop link key missing, got %v", got.Links)
	}
}

func TestNeighborsKeyKeepsStoredOrder(t *testing.T) {
	s := New()
	s.SetGraphData(testSnapshot())

	// Querying from B, the A-B link matched on its target side but the
	// key stays in the link's own source-target order.
	got := s.Neighbors("B")
	if _, ok := got.Links["B-A"]; ok {
		t.Error("link key must not be reordered to the query's perspective")
	}
	if _, ok := got.Links["A-B"]; !ok {
		t.Error("expected key A-B")
	}
}

func TestClearGraphKeepsHoverAndFilters(t *testing.T) {
	s := New()
	s.SetGraphData(testSnapshot())

	hovered := s.Node("B")
	s.SetSelectedNode(s.Node("A"))
	s.SetHoveredNode(hovered)
	s.SetHighlightedNodes([]string{"A", "C"})
	s.SetHighlightedLinks([]string{"A-B"})
	s.SetFilterByType(model.TypePerson)
	s.SetSearchQuery("ali")

	s.ClearGraph()

	if got := s.GraphData(); len(got.Nodes) != 0 || len(got.Links) != 0 {
		t.Error("graph not cleared")
	}
	if s.SelectedNode() != nil {
		t.Error("selection should be cleared")
	}
	// Documented asymmetry: hover, highlights, and filters survive.
	if s.HoveredNode() != hovered {
		t.Error("hover state must survive ClearGraph")
	}
	if len(s.HighlightedNodes()) != 2 || len(s.HighlightedLinks()) != 1 {
		t.Error("highlight sets must survive ClearGraph")
	}
}

func TestSetHighlightedNodesDeduplicates(t *testing.T) {
	s := New()
	s.SetHighlightedNodes([]string{"A", "A", "B"})
	if got := s.HighlightedNodes(); len(got) != 2 {
		t.Errorf("highlight set = %v, want deduplicated {A B}", got)
	}
}

func TestHandleNodeHover(t *testing.T) {
	s := New()
	s.SetGraphData(testSnapshot())

	b := s.Node("B")
	s.HandleNodeHover(b)

	if s.HoveredNode() != b {
		t.Error("hover not recorded")
	}
	nodes := s.HighlightedNodes()
	for _, id := range []string{"A", "B", "C"} {
		if _, ok := nodes[id]; !ok {
			t.Errorf("highlight missing %s: %v", id, nodes)
		}
	}
	links := s.HighlightedLinks()
	if _, ok := links["A-B"]; !ok {
		t.Errorf("highlight missing link A-B: %v", links)
	}

	s.HandleNodeHover(nil)
	if s.HoveredNode() != nil {
		t.Error("un-hover not recorded")
	}
	if len(s.HighlightedNodes()) != 0 || len(s.HighlightedLinks()) != 0 {
		t.Error("un-hover must clear highlight sets")
	}
}

func TestHandleClickEvents(t *testing.T) {
	s := New()
	s.SetGraphData(testSnapshot())

	a := s.Node("A")
	s.HandleNodeClick(a)
	if s.SelectedNode() != a {
		t.Error("node click should select the node")
	}
	s.HandleBackgroundClick()
	if s.SelectedNode() != nil {
		t.Error("background click should clear the selection")
	}
}

type stubGateway struct {
	snap *model.Snapshot
	err  error
}

func (g *stubGateway) Load(ctx context.Context) (*model.Snapshot, error) {
	return g.snap, g.err
}

func TestLoadSuccess(t *testing.T) {
	s := New()
	s.Load(context.Background(), &stubGateway{snap: testSnapshot()})

	if s.IsLoading() {
		t.Error("loading flag must be cleared after Load returns")
	}
	if s.LoadError() != "" {
		t.Errorf("unexpected load error %q", s.LoadError())
	}
	if got := s.GraphData(); len(got.Nodes) != 3 {
		t.Errorf("node count = %d, want 3", len(got.Nodes))
	}
}

func TestLoadFailureKeepsGraph(t *testing.T) {
	s := New()
	s.SetGraphData(testSnapshot())

	s.Load(context.Background(), &stubGateway{err: errors.New("bolt handshake failed")})

	if s.IsLoading() {
		t.Error("loading flag must be cleared on the error path")
	}
	if s.LoadError() != "bolt handshake failed" {
		t.Errorf("load error = %q", s.LoadError())
	}
	if got := s.GraphData(); len(got.Nodes) != 3 {
		t.Error("a failed load must leave the prior graph in place")
	}

	// A later successful load clears the recorded error.
	s.Load(context.Background(), &stubGateway{snap: testSnapshot()})
	if s.LoadError() != "" {
		t.Error("successful load should reset the error")
	}
}
