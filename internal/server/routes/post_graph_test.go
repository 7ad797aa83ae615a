package routes

import (
	"net/http"
	"testing"
)

func TestCypherHandlerBlocksWritesInProduction(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	app := newTestApp()

	queries := []string{
		`{"query": "MATCH (n) DETACH DELETE n"}`,
		`{"query": "CREATE (n:Entity {id: 'x'})"}`,
		`{"query": "MATCH (n) SET n.name = 'y' RETURN n"}`,
		`{"query": "MERGE (n:Entity {id: 'x'})"}`,
	}
	for _, body := range queries {
		rec := invoke(t, app, CypherHandler, http.MethodPost, "/", body, nil)
		if rec.Code != http.StatusForbidden {
			t.Errorf("expected 403 for %s, got %d", body, rec.Code)
		}
	}
}

func TestCypherHandlerRequiresQuery(t *testing.T) {
	app := newTestApp()

	rec := invoke(t, app, CypherHandler, http.MethodPost, "/", `{"params": {}}`, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing query, got %d", rec.Code)
	}
}

func TestCreateEntityRejectsUnknownType(t *testing.T) {
	app := newTestApp()

	rec := invoke(t, app, CreateEntityHandler, http.MethodPost, "/",
		`{"name": "ACME", "type": "organization"}`, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown type, got %d", rec.Code)
	}
}

func TestStoreEmbeddingRejectsUnknownType(t *testing.T) {
	app := newTestApp()

	rec := invoke(t, app, StoreEmbeddingHandler, http.MethodPost, "/",
		`{"entity_id": "x", "entity_type": "organization", "embedding": [0.1]}`, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown type, got %d", rec.Code)
	}
}
