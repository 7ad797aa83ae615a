// Package viewstate holds the in-memory graph and interaction state that
// backs the 3D visualization: the current snapshot, selection and hover
// state, hover-driven highlight sets, and the active type/search filters.
//
// The store is the single writer for all of this state. Mutations never
// return errors: operations on missing ids are silent no-ops, which lets
// UI callers retry idempotently without special-casing. A mutex keeps the
// contract explicit even though the expected caller is a single
// event-driven session.
package viewstate

import (
	"context"
	"sync"

	"github.com/graphaura/backend/pkg/model"
)

// Gateway loads a graph snapshot from an external source. The result is
// passed verbatim to SetGraphData.
type Gateway interface {
	Load(ctx context.Context) (*model.Snapshot, error)
}

// NeighborSet is the result of a neighbor computation: the adjacent node
// ids and the identity keys of the incident links.
type NeighborSet struct {
	Nodes map[string]struct{}
	Links map[string]struct{}
}

// Store is the single source of truth for one visualization session.
type Store struct {
	mu sync.Mutex

	nodes []*model.Node
	links []*model.Link

	selected *model.Node
	hovered  *model.Node

	highlightNodes map[string]struct{}
	highlightLinks map[string]struct{}

	typeFilter  model.EntityType // empty means no filter
	searchQuery string           // empty means no filter

	loading bool
	loadErr string
}

// New creates an empty store.
func New() *Store {
	return &Store{
		nodes:          []*model.Node{},
		links:          []*model.Link{},
		highlightNodes: map[string]struct{}{},
		highlightLinks: map[string]struct{}{},
	}
}

// SetGraphData replaces the whole graph. Link endpoints are not validated
// against the node set. A previously selected or hovered node whose id is
// gone is NOT cleared here; callers own that cleanup.
func (s *Store) SetGraphData(snap *model.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if snap == nil {
		s.nodes = []*model.Node{}
		s.links = []*model.Link{}
		return
	}
	s.nodes = append([]*model.Node{}, snap.Nodes...)
	s.links = append([]*model.Link{}, snap.Links...)
}

// AddNode appends a node. Duplicate ids are not checked.
func (s *Store) AddNode(n *model.Node) {
	if n == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nodes = append(s.nodes, n)
}

// RemoveNode removes the node with the given id and every link incident to
// it, regardless of whether the link endpoints are stored as ids or as
// resolved node references. No-op if the node is absent.
func (s *Store) RemoveNode(nodeID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	nodes := s.nodes[:0]
	for _, n := range s.nodes {
		if n.ID != nodeID {
			nodes = append(nodes, n)
		}
	}
	s.nodes = nodes

	links := s.links[:0]
	for _, l := range s.links {
		if l.SourceID() == nodeID || l.TargetID() == nodeID {
			continue
		}
		links = append(links, l)
	}
	s.links = links
}

// UpdateNode merges the non-nil fields of patch into the node with the
// given id. Silent no-op if the node is not found.
func (s *Store) UpdateNode(nodeID string, patch NodePatch) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range s.nodes {
		if n.ID != nodeID {
			continue
		}
		patch.apply(n)
		return
	}
}

// NodePatch carries partial node fields for UpdateNode. Nil fields are
// left untouched; Metadata keys are merged over the existing map.
type NodePatch struct {
	Name     *string
	Type     *model.EntityType
	Val      *float64
	Color    *string
	Metadata map[string]any
}

func (p NodePatch) apply(n *model.Node) {
	if p.Name != nil {
		n.Name = *p.Name
	}
	if p.Type != nil {
		n.Type = *p.Type
	}
	if p.Val != nil {
		n.Val = *p.Val
	}
	if p.Color != nil {
		n.Color = *p.Color
	}
	if len(p.Metadata) > 0 {
		if n.Metadata == nil {
			n.Metadata = make(map[string]any, len(p.Metadata))
		}
		for k, v := range p.Metadata {
			n.Metadata[k] = v
		}
	}
}

// AddLink appends a link. Neither uniqueness nor endpoint existence is
// checked.
func (s *Store) AddLink(l *model.Link) {
	if l == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.links = append(s.links, l)
}

// RemoveLink removes links whose normalized (source, target) pair equals
// the given ordered pair. The reverse-direction link is left alone.
func (s *Store) RemoveLink(sourceID, targetID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	links := s.links[:0]
	for _, l := range s.links {
		if l.SourceID() == sourceID && l.TargetID() == targetID {
			continue
		}
		links = append(links, l)
	}
	s.links = links
}

// SetSelectedNode records the current selection; nil clears it.
func (s *Store) SetSelectedNode(n *model.Node) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = n
}

// SetHoveredNode records the current hover target; nil clears it.
func (s *Store) SetHoveredNode(n *model.Node) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hovered = n
}

// SetHighlightedNodes replaces the node highlight set with the
// deduplicated ids.
func (s *Store) SetHighlightedNodes(ids []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.highlightNodes = toSet(ids)
}

// SetHighlightedLinks replaces the link highlight set with the
// deduplicated link identity keys.
func (s *Store) SetHighlightedLinks(keys []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.highlightLinks = toSet(keys)
}

// SetFilterByType sets the type filter; the empty type clears it.
func (s *Store) SetFilterByType(t model.EntityType) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.typeFilter = t
}

// SetSearchQuery sets the name search filter; the empty string clears it.
func (s *Store) SetSearchQuery(q string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.searchQuery = q
}

// ClearGraph resets the graph to empty and drops the selection. Hover
// state, highlight sets, and filters survive the call.
func (s *Store) ClearGraph() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nodes = []*model.Node{}
	s.links = []*model.Link{}
	s.selected = nil
}

// Neighbors scans the link list once and returns the nodes adjacent to
// nodeID plus the identity keys of the incident links. Keys keep the
// link's own stored order, whichever side matched. A self-loop puts nodeID
// into its own neighbor set.
func (s *Store) Neighbors(nodeID string) NeighborSet {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.neighborsLocked(nodeID)
}

func (s *Store) neighborsLocked(nodeID string) NeighborSet {
	out := NeighborSet{
		Nodes: map[string]struct{}{},
		Links: map[string]struct{}{},
	}
	for _, l := range s.links {
		src := l.SourceID()
		tgt := l.TargetID()
		if src == nodeID {
			out.Nodes[tgt] = struct{}{}
			out.Links[l.Key()] = struct{}{}
		}
		if tgt == nodeID {
			out.Nodes[src] = struct{}{}
			out.Links[l.Key()] = struct{}{}
		}
	}
	return out
}

// Load populates the store through the gateway. The loading flag is set
// for the duration of the call and cleared on every path. On failure the
// error message is recorded and the current graph is left untouched.
// Concurrent loads are not guarded: the last writer wins.
func (s *Store) Load(ctx context.Context, gw Gateway) {
	s.mu.Lock()
	s.loading = true
	s.loadErr = ""
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.loading = false
		s.mu.Unlock()
	}()

	snap, err := gw.Load(ctx)
	if err != nil {
		s.mu.Lock()
		s.loadErr = err.Error()
		s.mu.Unlock()
		return
	}
	s.SetGraphData(snap)
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}
