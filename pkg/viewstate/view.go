package viewstate

import (
	"strings"

	"github.com/graphaura/backend/pkg/model"
)

// FilteredView computes the subset of the snapshot visible under the
// active filters. It is derived on every call, never stored.
//
// The two filters compose sequentially: the type filter narrows the node
// set and prunes links first, then the search filter narrows the surviving
// set and prunes links again. Each prune step checks both link endpoints
// against the node set that remains at that point.
func (s *Store) FilteredView() *model.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	nodes := append([]*model.Node{}, s.nodes...)
	links := append([]*model.Link{}, s.links...)

	if s.typeFilter != "" {
		kept := nodes[:0]
		for _, n := range nodes {
			if n.Type == s.typeFilter {
				kept = append(kept, n)
			}
		}
		nodes = kept
		links = pruneLinks(links, nodeIDs(nodes))
	}

	if s.searchQuery != "" {
		q := strings.ToLower(s.searchQuery)
		kept := nodes[:0]
		for _, n := range nodes {
			if strings.Contains(strings.ToLower(n.Name), q) {
				kept = append(kept, n)
			}
		}
		nodes = kept
		links = pruneLinks(links, nodeIDs(nodes))
	}

	return &model.Snapshot{Nodes: nodes, Links: links}
}

func nodeIDs(nodes []*model.Node) map[string]struct{} {
	ids := make(map[string]struct{}, len(nodes))
	for _, n := range nodes {
		ids[n.ID] = struct{}{}
	}
	return ids
}

func pruneLinks(links []*model.Link, ids map[string]struct{}) []*model.Link {
	kept := links[:0]
	for _, l := range links {
		if _, ok := ids[l.SourceID()]; !ok {
			continue
		}
		if _, ok := ids[l.TargetID()]; !ok {
			continue
		}
		kept = append(kept, l)
	}
	return kept
}

// GraphData returns the unfiltered snapshot.
func (s *Store) GraphData() *model.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return &model.Snapshot{
		Nodes: append([]*model.Node{}, s.nodes...),
		Links: append([]*model.Link{}, s.links...),
	}
}

// Node returns the node with the given id, or nil.
func (s *Store) Node(id string) *model.Node {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range s.nodes {
		if n.ID == id {
			return n
		}
	}
	return nil
}

// SelectedNode returns the current selection, or nil.
func (s *Store) SelectedNode() *model.Node {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected
}

// HoveredNode returns the current hover target, or nil.
func (s *Store) HoveredNode() *model.Node {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hovered
}

// HighlightedNodes returns the node highlight set.
func (s *Store) HighlightedNodes() map[string]struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copySet(s.highlightNodes)
}

// HighlightedLinks returns the link highlight set.
func (s *Store) HighlightedLinks() map[string]struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copySet(s.highlightLinks)
}

// IsLoading reports whether a load is in flight.
func (s *Store) IsLoading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// LoadError returns the message of the last failed load, or the empty
// string.
func (s *Store) LoadError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadErr
}

// HandleNodeClick is the renderer's node-click event sink. Camera movement
// stays on the renderer side.
func (s *Store) HandleNodeClick(n *model.Node) {
	s.SetSelectedNode(n)
}

// HandleNodeHover is the renderer's node-hover event sink. Hovering a node
// recomputes the highlight sets from its neighbors (the node itself
// included); hovering nothing clears them.
func (s *Store) HandleNodeHover(n *model.Node) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hovered = n
	if n == nil {
		s.highlightNodes = map[string]struct{}{}
		s.highlightLinks = map[string]struct{}{}
		return
	}
	nb := s.neighborsLocked(n.ID)
	nb.Nodes[n.ID] = struct{}{}
	s.highlightNodes = nb.Nodes
	s.highlightLinks = nb.Links
}

// HandleBackgroundClick is the renderer's background-click event sink.
func (s *Store) HandleBackgroundClick() {
	s.SetSelectedNode(nil)
}

func copySet(set map[string]struct{}) map[string]struct{} {
	out := make(map[string]struct{}, len(set))
	for k := range set {
		out[k] = struct{}{}
	}
	return out
}
