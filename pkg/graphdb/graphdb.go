// Package graphdb is the Neo4j gateway: entity and relationship CRUD,
// traversal, raw Cypher, and conversion of the stored graph into the
// snapshot shape the view-state store consumes.
package graphdb

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// Config holds Neo4j connection configuration.
type Config struct {
	URI      string
	Username string
	Password string
	Database string
}

// Service wraps a Neo4j driver for graph operations.
type Service struct {
	driver   neo4j.DriverWithContext
	database string
}

// New connects to Neo4j and verifies connectivity.
func New(ctx context.Context, cfg Config) (*Service, error) {
	driver, err := neo4j.NewDriverWithContext(
		cfg.URI,
		neo4j.BasicAuth(cfg.Username, cfg.Password, ""),
	)
	if err != nil {
		return nil, fmt.Errorf("creating neo4j driver: %w", err)
	}

	if err := driver.VerifyConnectivity(ctx); err != nil {
		return nil, fmt.Errorf("connecting to neo4j: %w", err)
	}

	database := cfg.Database
	if database == "" {
		database = "neo4j"
	}

	return &Service{driver: driver, database: database}, nil
}

// Close closes the underlying driver.
func (s *Service) Close(ctx context.Context) error {
	return s.driver.Close(ctx)
}

// Verify checks connectivity, for health reporting.
func (s *Service) Verify(ctx context.Context) error {
	return s.driver.VerifyConnectivity(ctx)
}

func (s *Service) session(ctx context.Context) neo4j.SessionWithContext {
	return s.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: s.database})
}

// EnsureSchema creates the uniqueness constraint and lookup indices. Safe
// to call on every start.
func (s *Service) EnsureSchema(ctx context.Context) error {
	session := s.session(ctx)
	defer session.Close(ctx)

	statements := []string{
		`CREATE CONSTRAINT entity_id_unique IF NOT EXISTS
		 FOR (e:Entity) REQUIRE e.id IS UNIQUE`,
		"CREATE INDEX entity_name IF NOT EXISTS FOR (e:Entity) ON (e.name)",
		"CREATE INDEX entity_type IF NOT EXISTS FOR (e:Entity) ON (e.type)",
		"CREATE INDEX entity_created IF NOT EXISTS FOR (e:Entity) ON (e.created_at)",
		"CREATE INDEX person_id IF NOT EXISTS FOR (p:Person) ON (p.id)",
		"CREATE INDEX event_id IF NOT EXISTS FOR (e:Event) ON (e.id)",
		"CREATE INDEX location_id IF NOT EXISTS FOR (l:Location) ON (l.id)",
	}

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		for _, stmt := range statements {
			if _, err := tx.Run(ctx, stmt, nil); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("ensuring neo4j schema: %w", err)
	}
	return nil
}

// ExecuteCypher runs a raw Cypher query and returns the records as maps.
// Runs in a write transaction so write clauses work where the caller
// permits them.
func (s *Service) ExecuteCypher(ctx context.Context, query string, params map[string]any) ([]map[string]any, error) {
	session := s.session(ctx)
	defer session.Close(ctx)

	result, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, query, params)
		if err != nil {
			return nil, err
		}

		var records []map[string]any
		for res.Next(ctx) {
			records = append(records, res.Record().AsMap())
		}
		return records, res.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("running cypher: %w", err)
	}

	return result.([]map[string]any), nil
}

// CountEntities returns the number of Entity nodes, for metrics.
func (s *Service) CountEntities(ctx context.Context) (int64, error) {
	return s.count(ctx, "MATCH (e:Entity) RETURN count(e) AS count")
}

// CountRelationships returns the number of relationships, for metrics.
func (s *Service) CountRelationships(ctx context.Context) (int64, error) {
	return s.count(ctx, "MATCH ()-[r]->() RETURN count(r) AS count")
}

func (s *Service) count(ctx context.Context, query string) (int64, error) {
	records, err := s.ExecuteCypher(ctx, query, nil)
	if err != nil {
		return 0, err
	}
	if len(records) == 0 {
		return 0, nil
	}
	n, _ := records[0]["count"].(int64)
	return n, nil
}
