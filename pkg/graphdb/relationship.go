package graphdb

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// Relationship is a directed edge between two entities.
type Relationship struct {
	ID         string         `json:"id"`
	SourceID   string         `json:"source_id" validate:"required"`
	TargetID   string         `json:"target_id" validate:"required"`
	Type       string         `json:"type" validate:"required"`
	Weight     float64        `json:"weight"`
	Confidence float64        `json:"confidence_score"`
	Properties map[string]any `json:"properties,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

// EntityRelationship is one relationship seen from a given entity,
// together with the entity on the other end.
type EntityRelationship struct {
	Relationship
	Direction string  `json:"direction,omitempty"`
	Other     *Entity `json:"other,omitempty"`
}

// Relationship types become part of the Cypher text, so they are
// restricted to a safe shape.
var relTypePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)

// CreateRelationship creates a typed edge between two existing entities.
// Returns an error if either endpoint is missing.
func (s *Service) CreateRelationship(ctx context.Context, r *Relationship) (string, error) {
	if !relTypePattern.MatchString(r.Type) {
		return "", fmt.Errorf("invalid relationship type %q", r.Type)
	}

	session := s.session(ctx)
	defer session.Close(ctx)

	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}

	propsJSON, err := json.Marshal(r.Properties)
	if err != nil {
		return "", fmt.Errorf("marshaling properties: %w", err)
	}

	query := fmt.Sprintf(`
		MATCH (source:Entity {id: $source_id})
		MATCH (target:Entity {id: $target_id})
		CREATE (source)-[r:%s {
			id: $id,
			type: $type,
			weight: $weight,
			confidence_score: $confidence,
			properties: $properties,
			created_at: $created_at
		}]->(target)
		RETURN r.id AS id
	`, strings.ToUpper(r.Type))

	params := map[string]any{
		"source_id":  r.SourceID,
		"target_id":  r.TargetID,
		"id":         r.ID,
		"type":       strings.ToLower(r.Type),
		"weight":     r.Weight,
		"confidence": r.Confidence,
		"properties": string(propsJSON),
		"created_at": r.CreatedAt.Format(time.RFC3339),
	}

	result, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, query, params)
		if err != nil {
			return nil, err
		}
		record, err := res.Single(ctx)
		if err != nil {
			return nil, fmt.Errorf("source or target entity not found")
		}
		id, _ := record.Get("id")
		return id, nil
	})
	if err != nil {
		return "", fmt.Errorf("creating relationship: %w", err)
	}

	return result.(string), nil
}

// EntityRelationships lists the relationships of an entity. Direction is
// "in", "out", or "both".
func (s *Service) EntityRelationships(ctx context.Context, entityID, direction string) ([]*EntityRelationship, error) {
	var query string
	switch direction {
	case "out":
		query = `
			MATCH (e:Entity {id: $id})-[r]->(other:Entity)
			RETURN r, other, 'out' AS direction
		`
	case "in":
		query = `
			MATCH (other:Entity)-[r]->(e:Entity {id: $id})
			RETURN r, other, 'in' AS direction
		`
	case "both":
		query = `
			MATCH (e:Entity {id: $id})-[r]-(other:Entity)
			RETURN r, other,
			       CASE WHEN startNode(r) = e THEN 'out' ELSE 'in' END AS direction
		`
	default:
		return nil, fmt.Errorf("direction must be 'in', 'out', or 'both', got %q", direction)
	}

	session := s.session(ctx)
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, query, map[string]any{"id": entityID})
		if err != nil {
			return nil, err
		}

		var rels []*EntityRelationship
		for res.Next(ctx) {
			record := res.Record()
			relValue, _ := record.Get("r")
			otherValue, _ := record.Get("other")
			dirValue, _ := record.Get("direction")

			rel := relationshipFromNeo4j(relValue.(neo4j.Relationship))
			er := &EntityRelationship{Relationship: *rel}
			if dir, ok := dirValue.(string); ok {
				er.Direction = dir
			}
			if other, ok := otherValue.(neo4j.Node); ok {
				er.Other = entityFromProps(other.Props)
			}
			rels = append(rels, er)
		}
		return rels, res.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("listing entity relationships: %w", err)
	}

	return result.([]*EntityRelationship), nil
}

func relationshipFromNeo4j(r neo4j.Relationship) *Relationship {
	rel := &Relationship{}
	if v, ok := r.Props["id"].(string); ok {
		rel.ID = v
	}
	if v, ok := r.Props["type"].(string); ok {
		rel.Type = v
	} else {
		rel.Type = strings.ToLower(r.Type)
	}
	if v, ok := r.Props["weight"].(float64); ok {
		rel.Weight = v
	}
	if v, ok := r.Props["confidence_score"].(float64); ok {
		rel.Confidence = v
	}
	if v, ok := r.Props["properties"].(string); ok && v != "" && v != "null" {
		_ = json.Unmarshal([]byte(v), &rel.Properties)
	}
	if v, ok := r.Props["created_at"].(string); ok {
		rel.CreatedAt, _ = time.Parse(time.RFC3339, v)
	}
	return rel
}
