package graphdb

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/graphaura/backend/pkg/model"
)

// Entity is a graph node as stored in Neo4j.
type Entity struct {
	ID          string           `json:"id"`
	Name        string           `json:"name" validate:"required"`
	Description string           `json:"description,omitempty"`
	Type        model.EntityType `json:"type" validate:"required"`
	Tags        []string         `json:"tags,omitempty"`
	Confidence  float64          `json:"confidence_score"`
	Properties  map[string]any   `json:"properties,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// EntityFilter narrows entity searches.
type EntityFilter struct {
	Types         []model.EntityType `json:"types,omitempty"`
	Tags          []string           `json:"tags,omitempty"`
	MinConfidence *float64           `json:"min_confidence,omitempty"`
	NameContains  string             `json:"name_contains,omitempty"`
}

// typeLabel maps an entity type onto its extra node label.
func typeLabel(t model.EntityType) string {
	s := string(t)
	if s == "" {
		return ""
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// CreateEntity stores an entity node labeled Entity plus its type label.
// The type must be one of the known entity types since it becomes part of
// the query text.
func (s *Service) CreateEntity(ctx context.Context, e *Entity) (string, error) {
	if !e.Type.Valid() {
		return "", fmt.Errorf("unknown entity type %q", e.Type)
	}

	session := s.session(ctx)
	defer session.Close(ctx)

	now := time.Now().UTC()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	e.UpdatedAt = now

	// Nested maps are not valid Neo4j property values.
	propsJSON, err := json.Marshal(e.Properties)
	if err != nil {
		return "", fmt.Errorf("marshaling properties: %w", err)
	}

	query := `
		CREATE (e:Entity {
			id: $id,
			name: $name,
			description: $description,
			type: $type,
			tags: $tags,
			confidence_score: $confidence,
			properties: $properties,
			created_at: $created_at,
			updated_at: $updated_at
		})
		SET e:` + typeLabel(e.Type) + `
		RETURN e.id AS id
	`

	params := map[string]any{
		"id":          e.ID,
		"name":        e.Name,
		"description": e.Description,
		"type":        string(e.Type),
		"tags":        e.Tags,
		"confidence":  e.Confidence,
		"properties":  string(propsJSON),
		"created_at":  e.CreatedAt.Format(time.RFC3339),
		"updated_at":  e.UpdatedAt.Format(time.RFC3339),
	}

	result, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, query, params)
		if err != nil {
			return nil, err
		}
		record, err := res.Single(ctx)
		if err != nil {
			return nil, err
		}
		id, _ := record.Get("id")
		return id, nil
	})
	if err != nil {
		return "", fmt.Errorf("creating entity: %w", err)
	}

	return result.(string), nil
}

// GetEntity fetches an entity by id. Returns nil without error when the
// entity does not exist.
func (s *Service) GetEntity(ctx context.Context, id string) (*Entity, error) {
	session := s.session(ctx)
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `MATCH (e:Entity {id: $id}) RETURN e`, map[string]any{"id": id})
		if err != nil {
			return nil, err
		}
		if !res.Next(ctx) {
			return nil, res.Err()
		}
		value, _ := res.Record().Get("e")
		return entityFromProps(value.(neo4j.Node).Props), nil
	})
	if err != nil {
		return nil, fmt.Errorf("getting entity: %w", err)
	}
	if result == nil {
		return nil, nil
	}
	return result.(*Entity), nil
}

// UpdateEntity merges the given properties into an existing entity.
// Returns false when no entity with that id exists.
func (s *Service) UpdateEntity(ctx context.Context, id string, updates map[string]any) (bool, error) {
	session := s.session(ctx)
	defer session.Close(ctx)

	query := `
		MATCH (e:Entity {id: $id})
		SET e += $updates
		SET e.updated_at = $updated_at
		RETURN e.id AS id
	`
	params := map[string]any{
		"id":         id,
		"updates":    updates,
		"updated_at": time.Now().UTC().Format(time.RFC3339),
	}

	result, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, query, params)
		if err != nil {
			return nil, err
		}
		if !res.Next(ctx) {
			return false, res.Err()
		}
		return true, nil
	})
	if err != nil {
		return false, fmt.Errorf("updating entity: %w", err)
	}

	return result.(bool), nil
}

// DeleteEntity removes an entity and all its relationships. Returns false
// when nothing was deleted.
func (s *Service) DeleteEntity(ctx context.Context, id string) (bool, error) {
	session := s.session(ctx)
	defer session.Close(ctx)

	query := `
		MATCH (e:Entity {id: $id})
		DETACH DELETE e
		RETURN count(e) AS deleted
	`

	result, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, query, map[string]any{"id": id})
		if err != nil {
			return nil, err
		}
		record, err := res.Single(ctx)
		if err != nil {
			return nil, err
		}
		deleted, _ := record.Get("deleted")
		return deleted.(int64) > 0, nil
	})
	if err != nil {
		return false, fmt.Errorf("deleting entity: %w", err)
	}

	return result.(bool), nil
}

// FindEntities returns entities matching the filter, newest first.
func (s *Service) FindEntities(ctx context.Context, filter *EntityFilter, limit, offset int) ([]*Entity, error) {
	session := s.session(ctx)
	defer session.Close(ctx)

	where := []string{}
	params := map[string]any{"limit": limit, "offset": offset}

	if filter != nil {
		if len(filter.Types) > 0 {
			types := make([]string, 0, len(filter.Types))
			for _, t := range filter.Types {
				types = append(types, string(t))
			}
			where = append(where, "e.type IN $types")
			params["types"] = types
		}
		if len(filter.Tags) > 0 {
			where = append(where, "any(tag IN $tags WHERE tag IN e.tags)")
			params["tags"] = filter.Tags
		}
		if filter.MinConfidence != nil {
			where = append(where, "e.confidence_score >= $min_confidence")
			params["min_confidence"] = *filter.MinConfidence
		}
		if filter.NameContains != "" {
			where = append(where, "toLower(e.name) CONTAINS toLower($name_contains)")
			params["name_contains"] = filter.NameContains
		}
	}

	whereClause := "1=1"
	if len(where) > 0 {
		whereClause = strings.Join(where, " AND ")
	}

	query := fmt.Sprintf(`
		MATCH (e:Entity)
		WHERE %s
		RETURN e
		ORDER BY e.created_at DESC
		SKIP $offset
		LIMIT $limit
	`, whereClause)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, query, params)
		if err != nil {
			return nil, err
		}
		var entities []*Entity
		for res.Next(ctx) {
			value, _ := res.Record().Get("e")
			entities = append(entities, entityFromProps(value.(neo4j.Node).Props))
		}
		return entities, res.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("finding entities: %w", err)
	}

	return result.([]*Entity), nil
}

// FindEntityByName fetches an entity by exact name and type, used to keep
// repeated document ingestions from duplicating nodes. Returns nil without
// error when no such entity exists.
func (s *Service) FindEntityByName(ctx context.Context, name string, entityType model.EntityType) (*Entity, error) {
	session := s.session(ctx)
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
			MATCH (e:Entity {type: $type})
			WHERE toLower(e.name) = toLower($name)
			RETURN e
			LIMIT 1
		`, map[string]any{"name": name, "type": string(entityType)})
		if err != nil {
			return nil, err
		}
		if !res.Next(ctx) {
			return nil, res.Err()
		}
		value, _ := res.Record().Get("e")
		return entityFromProps(value.(neo4j.Node).Props), nil
	})
	if err != nil {
		return nil, fmt.Errorf("finding entity by name: %w", err)
	}
	if result == nil {
		return nil, nil
	}
	return result.(*Entity), nil
}

// entityFromProps maps stored node properties back onto an Entity.
func entityFromProps(props map[string]any) *Entity {
	e := &Entity{}
	if v, ok := props["id"].(string); ok {
		e.ID = v
	}
	if v, ok := props["name"].(string); ok {
		e.Name = v
	}
	if v, ok := props["description"].(string); ok {
		e.Description = v
	}
	if v, ok := props["type"].(string); ok {
		e.Type = model.EntityType(v)
	}
	if v, ok := props["confidence_score"].(float64); ok {
		e.Confidence = v
	}
	if tags, ok := props["tags"].([]any); ok {
		for _, tag := range tags {
			if t, ok := tag.(string); ok {
				e.Tags = append(e.Tags, t)
			}
		}
	}
	if v, ok := props["properties"].(string); ok && v != "" && v != "null" {
		_ = json.Unmarshal([]byte(v), &e.Properties)
	}
	if v, ok := props["created_at"].(string); ok {
		e.CreatedAt, _ = time.Parse(time.RFC3339, v)
	}
	if v, ok := props["updated_at"].(string); ok {
		e.UpdatedAt, _ = time.Parse(time.RFC3339, v)
	}
	return e
}
