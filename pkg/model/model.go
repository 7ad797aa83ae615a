// Package model defines the graph data shapes shared by the view-state
// store, the Neo4j gateway, and the REST layer.
package model

// EntityType is the closed set of node kinds known to the system.
type EntityType string

const (
	TypePerson   EntityType = "person"
	TypeEvent    EntityType = "event"
	TypeLocation EntityType = "location"
)

var typeColors = map[EntityType]string{
	TypePerson:   "#4f8fea",
	TypeEvent:    "#e3a63b",
	TypeLocation: "#56b881",
}

// DefaultColor is used for nodes whose type has no entry in the lookup table.
const DefaultColor = "#9aa0a6"

// Valid reports whether t is one of the known entity types.
func (t EntityType) Valid() bool {
	_, ok := typeColors[t]
	return ok
}

// Color returns the display color for the type.
func (t EntityType) Color() string {
	if c, ok := typeColors[t]; ok {
		return c
	}
	return DefaultColor
}

// Node is a graph vertex. The layout fields (X, Y, Z and the pinned
// FX, FY, FZ) are owned by the rendering layer and are never touched by
// store logic.
type Node struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	Type     EntityType     `json:"type"`
	Val      float64        `json:"val"`
	Color    string         `json:"color,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`

	X  float64  `json:"x,omitempty"`
	Y  float64  `json:"y,omitempty"`
	Z  float64  `json:"z,omitempty"`
	FX *float64 `json:"fx,omitempty"`
	FY *float64 `json:"fy,omitempty"`
	FZ *float64 `json:"fz,omitempty"`
}

// Link is a directed edge between two nodes. Source and Target hold either
// a node id string or, once a renderer has resolved them in place, a *Node.
// Code comparing endpoints must go through EndpointID so both
// representations stay equivalent.
type Link struct {
	Source       any     `json:"source"`
	Target       any     `json:"target"`
	Relationship string  `json:"relationship"`
	Strength     float64 `json:"strength,omitempty"`
	Color        string  `json:"color,omitempty"`
}

// EndpointID normalizes a link endpoint to its node id.
func EndpointID(v any) string {
	switch e := v.(type) {
	case string:
		return e
	case *Node:
		if e != nil {
			return e.ID
		}
	case Node:
		return e.ID
	}
	return ""
}

// SourceID returns the normalized source node id.
func (l *Link) SourceID() string { return EndpointID(l.Source) }

// TargetID returns the normalized target node id.
func (l *Link) TargetID() string { return EndpointID(l.Target) }

// Key returns the directional link identity string "sourceID-targetID".
// Links with swapped endpoints have distinct keys.
func (l *Link) Key() string { return l.SourceID() + "-" + l.TargetID() }

// Snapshot is the full graph at a point in time. Link endpoints are not
// validated against the node set; dangling references are tolerated and
// simply render without an endpoint.
type Snapshot struct {
	Nodes []*Node `json:"nodes"`
	Links []*Link `json:"links"`
}
