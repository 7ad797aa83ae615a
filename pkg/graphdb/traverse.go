package graphdb

import (
	"context"
	"fmt"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// TraversalRequest describes a graph walk from a starting entity.
type TraversalRequest struct {
	StartEntityID     string   `json:"start_entity_id" validate:"required"`
	RelationshipTypes []string `json:"relationship_types,omitempty"`
	MaxDepth          int      `json:"max_depth"`
	MinConfidence     float64  `json:"min_confidence"`
	Limit             int      `json:"limit"`
	Bidirectional     bool     `json:"bidirectional"`
	TargetEntityID    string   `json:"target_entity_id,omitempty"`
	FindShortestPath  bool     `json:"find_shortest_path"`
}

// TraversalEdge is one edge found during traversal, endpoints as entity ids.
type TraversalEdge struct {
	Source string  `json:"source"`
	Target string  `json:"target"`
	Type   string  `json:"type"`
	Weight float64 `json:"weight"`
}

// TraversalResult is the set of reached nodes and traversed edges.
type TraversalResult struct {
	Nodes []*Entity        `json:"nodes"`
	Edges []*TraversalEdge `json:"edges"`
}

// Traverse walks the graph from a starting entity, optionally finding the
// shortest path to a target. Variable-length bounds and relationship types
// are embedded into the query text, so both are validated first.
func (s *Service) Traverse(ctx context.Context, req *TraversalRequest) (*TraversalResult, error) {
	depth := req.MaxDepth
	if depth == 0 {
		depth = 3
	}
	if depth < 1 {
		depth = 1
	}
	if depth > 5 {
		depth = 5
	}
	limit := req.Limit
	if limit < 1 {
		limit = 100
	}

	relFilter := ""
	if len(req.RelationshipTypes) > 0 {
		types := make([]string, 0, len(req.RelationshipTypes))
		for _, t := range req.RelationshipTypes {
			if !relTypePattern.MatchString(t) {
				return nil, fmt.Errorf("invalid relationship type %q", t)
			}
			types = append(types, strings.ToUpper(t))
		}
		relFilter = ":" + strings.Join(types, "|")
	}

	var query string
	params := map[string]any{
		"start_id":       req.StartEntityID,
		"min_confidence": req.MinConfidence,
	}

	if req.FindShortestPath && req.TargetEntityID != "" {
		query = fmt.Sprintf(`
			MATCH path = shortestPath(
				(start:Entity {id: $start_id})-[r%s*..%d]-(end:Entity {id: $target_id})
			)
			WHERE all(rel IN relationships(path) WHERE rel.confidence_score >= $min_confidence)
			RETURN nodes(path) AS nodes, relationships(path) AS rels
			LIMIT 1
		`, relFilter, depth)
		params["target_id"] = req.TargetEntityID
	} else {
		arrow := "-"
		if !req.Bidirectional {
			arrow = "->"
		}
		query = fmt.Sprintf(`
			MATCH path = (start:Entity {id: $start_id})-[r%s*1..%d]%s(connected:Entity)
			WHERE all(rel IN relationships(path) WHERE rel.confidence_score >= $min_confidence)
			RETURN nodes(path) AS nodes, relationships(path) AS rels
			LIMIT $limit
		`, relFilter, depth, arrow)
		params["limit"] = limit
	}

	session := s.session(ctx)
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, query, params)
		if err != nil {
			return nil, err
		}

		out := &TraversalResult{Nodes: []*Entity{}, Edges: []*TraversalEdge{}}
		seenNodes := map[string]struct{}{}
		seenEdges := map[string]struct{}{}
		// element id -> entity id, to resolve relationship endpoints
		elementIDs := map[string]string{}

		for res.Next(ctx) {
			record := res.Record()

			nodesValue, _ := record.Get("nodes")
			for _, nv := range nodesValue.([]any) {
				n := nv.(neo4j.Node)
				entity := entityFromProps(n.Props)
				elementIDs[n.GetElementId()] = entity.ID
				if _, ok := seenNodes[entity.ID]; ok {
					continue
				}
				seenNodes[entity.ID] = struct{}{}
				out.Nodes = append(out.Nodes, entity)
			}

			relsValue, _ := record.Get("rels")
			for _, rv := range relsValue.([]any) {
				r := rv.(neo4j.Relationship)
				edge := &TraversalEdge{
					Source: elementIDs[r.StartElementId],
					Target: elementIDs[r.EndElementId],
					Type:   strings.ToLower(r.Type),
				}
				if w, ok := r.Props["weight"].(float64); ok {
					edge.Weight = w
				}
				key := edge.Source + "-" + edge.Target + "-" + edge.Type
				if _, ok := seenEdges[key]; ok {
					continue
				}
				seenEdges[key] = struct{}{}
				out.Edges = append(out.Edges, edge)
			}
		}
		return out, res.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("traversing graph: %w", err)
	}

	return result.(*TraversalResult), nil
}
