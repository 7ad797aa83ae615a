package graphdb

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// LinkDocumentEntities records which entities a document mentions. The
// document node is merged so repeated ingestion runs stay idempotent.
// Document nodes carry no Entity label, so they never show up in
// visualization snapshots or entity queries.
func (s *Service) LinkDocumentEntities(ctx context.Context, documentID, title string, entityIDs []string) error {
	session := s.session(ctx)
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		_, err := tx.Run(ctx, `
			MERGE (d:Document {id: $id})
			SET d.title = $title, d.updated_at = $now
		`, map[string]any{
			"id":    documentID,
			"title": title,
			"now":   time.Now().UTC().Format(time.RFC3339),
		})
		if err != nil {
			return nil, err
		}

		_, err = tx.Run(ctx, `
			MATCH (d:Document {id: $doc_id})
			MATCH (e:Entity)
			WHERE e.id IN $entity_ids
			MERGE (e)-[:MENTIONED_IN]->(d)
		`, map[string]any{
			"doc_id":     documentID,
			"entity_ids": entityIDs,
		})
		return nil, err
	})
	if err != nil {
		return fmt.Errorf("linking document entities: %w", err)
	}
	return nil
}

// DocumentEntityIDs lists the ids of entities mentioned in a document.
func (s *Service) DocumentEntityIDs(ctx context.Context, documentID string) ([]string, error) {
	session := s.session(ctx)
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
			MATCH (e:Entity)-[:MENTIONED_IN]->(d:Document {id: $doc_id})
			RETURN e.id AS id
		`, map[string]any{"doc_id": documentID})
		if err != nil {
			return nil, err
		}
		ids := []string{}
		for res.Next(ctx) {
			if id, ok := res.Record().AsMap()["id"].(string); ok {
				ids = append(ids, id)
			}
		}
		return ids, res.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("listing document entities: %w", err)
	}
	return result.([]string), nil
}

// RemoveDocument deletes a document node and every entity mentioned only
// in that document. Entities shared with other documents survive. Returns
// the ids of the entities that were deleted, so their embeddings can be
// cleaned up too.
func (s *Service) RemoveDocument(ctx context.Context, documentID string) ([]string, error) {
	session := s.session(ctx)
	defer session.Close(ctx)

	result, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
			MATCH (e:Entity)-[:MENTIONED_IN]->(d:Document {id: $doc_id})
			WHERE NOT EXISTS {
				MATCH (e)-[:MENTIONED_IN]->(other:Document)
				WHERE other.id <> $doc_id
			}
			WITH collect(e) AS orphans
			UNWIND orphans AS orphan
			WITH orphan, orphan.id AS id
			DETACH DELETE orphan
			RETURN collect(id) AS ids
		`, map[string]any{"doc_id": documentID})
		if err != nil {
			return nil, err
		}

		ids := []string{}
		if res.Next(ctx) {
			if raw, ok := res.Record().AsMap()["ids"].([]any); ok {
				for _, v := range raw {
					if id, ok := v.(string); ok {
						ids = append(ids, id)
					}
				}
			}
		}
		if err := res.Err(); err != nil {
			return nil, err
		}

		_, err = tx.Run(ctx, `
			MATCH (d:Document {id: $doc_id})
			DETACH DELETE d
		`, map[string]any{"doc_id": documentID})
		return ids, err
	})
	if err != nil {
		return nil, fmt.Errorf("removing document: %w", err)
	}
	return result.([]string), nil
}
