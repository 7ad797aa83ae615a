// Package vector stores entity embeddings in PostgreSQL with pgvector and
// answers cosine-similarity queries over them.
package vector

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// Store persists entity embeddings. The entity_embeddings table is owned
// by the migrations under migrations/.
type Store struct {
	pool      *pgxpool.Pool
	dimension int
	threshold float64
}

// NewStoreParams contains configuration for creating a Store.
type NewStoreParams struct {
	Dimension int
	Threshold float64
}

// NewStore creates a store over an existing connection pool.
func NewStore(pool *pgxpool.Pool, params NewStoreParams) *Store {
	dimension := params.Dimension
	if dimension <= 0 {
		dimension = 512
	}
	threshold := params.Threshold
	if threshold <= 0 {
		threshold = 0.7
	}
	return &Store{pool: pool, dimension: dimension, threshold: threshold}
}

// Match is one similarity-search hit.
type Match struct {
	EntityID   string         `json:"entity_id"`
	EntityType string         `json:"entity_type"`
	Metadata   map[string]any `json:"metadata"`
	Similarity float64        `json:"similarity"`
}

// Stats summarizes the stored embeddings.
type Stats struct {
	TotalEmbeddings  int64            `json:"total_embeddings"`
	UniqueTypes      int64            `json:"unique_types"`
	TypeDistribution map[string]int64 `json:"type_distribution"`
}

func (s *Store) checkDimension(embedding []float32) error {
	if len(embedding) != s.dimension {
		return fmt.Errorf("embedding dimension mismatch: expected %d, got %d", s.dimension, len(embedding))
	}
	return nil
}

// StoreEmbedding upserts an embedding keyed by entity id.
func (s *Store) StoreEmbedding(ctx context.Context, entityID, entityType string, embedding []float32, metadata map[string]any) (string, error) {
	if err := s.checkDimension(embedding); err != nil {
		return "", err
	}

	var id string
	err := s.pool.QueryRow(ctx, `
		INSERT INTO entity_embeddings (entity_id, entity_type, embedding, metadata)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (entity_id)
		DO UPDATE SET
			embedding = EXCLUDED.embedding,
			metadata = EXCLUDED.metadata,
			updated_at = CURRENT_TIMESTAMP
		RETURNING id
	`, entityID, entityType, pgvector.NewVector(embedding), metadata).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("storing embedding: %w", err)
	}

	return id, nil
}

// GetEmbedding returns the stored embedding for an entity, or nil when
// none exists.
func (s *Store) GetEmbedding(ctx context.Context, entityID string) ([]float32, error) {
	var vec pgvector.Vector
	err := s.pool.QueryRow(ctx, `
		SELECT embedding FROM entity_embeddings WHERE entity_id = $1
	`, entityID).Scan(&vec)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting embedding: %w", err)
	}
	return vec.Slice(), nil
}

// SimilaritySearch finds the entities closest to the query embedding by
// cosine similarity, above the threshold (the store default when <= 0),
// optionally restricted to entity types.
func (s *Store) SimilaritySearch(ctx context.Context, query []float32, limit int, entityTypes []string, threshold float64) ([]Match, error) {
	if err := s.checkDimension(query); err != nil {
		return nil, err
	}
	if threshold <= 0 {
		threshold = s.threshold
	}
	if limit <= 0 {
		limit = 10
	}

	sql := `
		SELECT entity_id, entity_type, metadata,
		       1 - (embedding <=> $1) AS similarity
		FROM entity_embeddings
		WHERE 1 - (embedding <=> $1) >= $2
	`
	args := []any{pgvector.NewVector(query), threshold}
	if len(entityTypes) > 0 {
		sql += " AND entity_type = ANY($4)"
		args = append(args, limit, entityTypes)
	} else {
		args = append(args, limit)
	}
	sql += `
		ORDER BY embedding <=> $1
		LIMIT $3
	`

	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("similarity search: %w", err)
	}
	defer rows.Close()

	matches := make([]Match, 0)
	for rows.Next() {
		var m Match
		if err := rows.Scan(&m.EntityID, &m.EntityType, &m.Metadata, &m.Similarity); err != nil {
			return nil, fmt.Errorf("scanning match: %w", err)
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading matches: %w", err)
	}

	return matches, nil
}

// UpdateEmbedding replaces the embedding for an entity. Returns false
// when the entity has no stored embedding.
func (s *Store) UpdateEmbedding(ctx context.Context, entityID string, embedding []float32) (bool, error) {
	if err := s.checkDimension(embedding); err != nil {
		return false, err
	}

	tag, err := s.pool.Exec(ctx, `
		UPDATE entity_embeddings
		SET embedding = $2, updated_at = CURRENT_TIMESTAMP
		WHERE entity_id = $1
	`, entityID, pgvector.NewVector(embedding))
	if err != nil {
		return false, fmt.Errorf("updating embedding: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// DeleteEmbedding removes the embedding for an entity. Returns false when
// nothing was deleted.
func (s *Store) DeleteEmbedding(ctx context.Context, entityID string) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM entity_embeddings WHERE entity_id = $1
	`, entityID)
	if err != nil {
		return false, fmt.Errorf("deleting embedding: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// Statistics reports embedding counts and the per-type distribution.
func (s *Store) Statistics(ctx context.Context) (*Stats, error) {
	stats := &Stats{TypeDistribution: map[string]int64{}}

	err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*), COUNT(DISTINCT entity_type)
		FROM entity_embeddings
	`).Scan(&stats.TotalEmbeddings, &stats.UniqueTypes)
	if err != nil {
		return nil, fmt.Errorf("counting embeddings: %w", err)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT entity_type, COUNT(*)
		FROM entity_embeddings
		GROUP BY entity_type
		ORDER BY COUNT(*) DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("counting embedding types: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var entityType string
		var count int64
		if err := rows.Scan(&entityType, &count); err != nil {
			return nil, fmt.Errorf("scanning type count: %w", err)
		}
		stats.TypeDistribution[entityType] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading type counts: %w", err)
	}

	return stats, nil
}

// Clusters groups stored entities whose pairwise cosine similarity is at
// least minSimilarity, dropping groups smaller than minClusterSize.
func (s *Store) Clusters(ctx context.Context, minSimilarity float64, minClusterSize int) ([][]string, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT entity_id, embedding FROM entity_embeddings
	`)
	if err != nil {
		return nil, fmt.Errorf("fetching embeddings: %w", err)
	}
	defer rows.Close()

	var ids []string
	var embeddings [][]float32
	for rows.Next() {
		var id string
		var vec pgvector.Vector
		if err := rows.Scan(&id, &vec); err != nil {
			return nil, fmt.Errorf("scanning embedding: %w", err)
		}
		ids = append(ids, id)
		embeddings = append(embeddings, vec.Slice())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading embeddings: %w", err)
	}

	return clusterBySimilarity(ids, embeddings, minSimilarity, minClusterSize), nil
}
