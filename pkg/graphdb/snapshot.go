package graphdb

import (
	"context"
	"fmt"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/graphaura/backend/pkg/model"
)

type snapshotRel struct {
	SourceID string
	TargetID string
	Type     string
	Weight   float64
}

// Load fetches the whole graph as a visualization snapshot. It satisfies
// the view-state store's Gateway interface.
func (s *Service) Load(ctx context.Context) (*model.Snapshot, error) {
	session := s.session(ctx)
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `MATCH (e:Entity) RETURN e`, nil)
		if err != nil {
			return nil, err
		}
		var entities []*Entity
		for res.Next(ctx) {
			value, _ := res.Record().Get("e")
			entities = append(entities, entityFromProps(value.(neo4j.Node).Props))
		}
		if err := res.Err(); err != nil {
			return nil, err
		}

		res, err = tx.Run(ctx, `
			MATCH (a:Entity)-[r]->(b:Entity)
			RETURN a.id AS source, b.id AS target, type(r) AS type, r.weight AS weight
		`, nil)
		if err != nil {
			return nil, err
		}
		var rels []snapshotRel
		for res.Next(ctx) {
			record := res.Record()
			rel := snapshotRel{}
			if v, ok := record.AsMap()["source"].(string); ok {
				rel.SourceID = v
			}
			if v, ok := record.AsMap()["target"].(string); ok {
				rel.TargetID = v
			}
			if v, ok := record.AsMap()["type"].(string); ok {
				rel.Type = strings.ToLower(v)
			}
			if v, ok := record.AsMap()["weight"].(float64); ok {
				rel.Weight = v
			}
			rels = append(rels, rel)
		}
		if err := res.Err(); err != nil {
			return nil, err
		}

		return buildSnapshot(entities, rels), nil
	})
	if err != nil {
		return nil, fmt.Errorf("loading graph snapshot: %w", err)
	}

	return result.(*model.Snapshot), nil
}

// buildSnapshot converts stored entities and relationships into the
// renderer's node/link shape. Links are de-duplicated in both directions:
// once A-B is emitted, B-A is dropped too, since the 3D view draws a
// single edge per pair.
func buildSnapshot(entities []*Entity, rels []snapshotRel) *model.Snapshot {
	snap := &model.Snapshot{
		Nodes: make([]*model.Node, 0, len(entities)),
		Links: make([]*model.Link, 0, len(rels)),
	}

	for _, e := range entities {
		node := &model.Node{
			ID:    e.ID,
			Name:  e.Name,
			Type:  e.Type,
			Val:   nodeWeight(e.Confidence),
			Color: e.Type.Color(),
		}
		if len(e.Properties) > 0 {
			node.Metadata = e.Properties
		}
		snap.Nodes = append(snap.Nodes, node)
	}

	seen := map[string]struct{}{}
	for _, r := range rels {
		forward := r.SourceID + "-" + r.TargetID
		reverse := r.TargetID + "-" + r.SourceID
		if _, ok := seen[forward]; ok {
			continue
		}
		if _, ok := seen[reverse]; ok {
			continue
		}
		seen[forward] = struct{}{}
		snap.Links = append(snap.Links, &model.Link{
			Source:       r.SourceID,
			Target:       r.TargetID,
			Relationship: r.Type,
			Strength:     r.Weight,
		})
	}

	return snap
}

// nodeWeight scales a confidence score into a visual size.
func nodeWeight(confidence float64) float64 {
	if confidence <= 0 {
		return 1
	}
	return 1 + confidence*4
}
