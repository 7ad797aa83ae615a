package queue

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"golang.org/x/sync/errgroup"

	"github.com/graphaura/backend/internal/storage"
	"github.com/graphaura/backend/internal/util"
	"github.com/graphaura/backend/pkg/graphdb"
	"github.com/graphaura/backend/pkg/leaselock"
	"github.com/graphaura/backend/pkg/logger"
	"github.com/graphaura/backend/pkg/model"
	"github.com/graphaura/backend/pkg/rag"
)

const (
	ingestMaxTries      = 5
	ingestBaseDelay     = 2 * time.Second
	ingestPollInterval  = 3 * time.Second
	ingestPollDeadline  = 10 * time.Minute
	entityCreationLimit = 4

	// confidence assigned to entities the extraction pipeline produced,
	// as opposed to entities curated by hand
	extractedConfidence = 0.75
)

// ProcessIngestMessage runs one document through the full ingestion
// pipeline: fetch from object storage, hand to the retrieval service,
// wait for extraction, then graph the mentioned entities. A lease on the
// document key keeps redelivered or duplicate messages from running the
// pipeline twice at once.
func ProcessIngestMessage(
	ctx context.Context,
	s3Client *awss3.Client,
	ragClient *rag.Client,
	graphSvc *graphdb.Service,
	locks *leaselock.Client,
	msg string,
) error {
	data := new(IngestMsg)
	if err := json.Unmarshal([]byte(msg), data); err != nil {
		return err
	}

	return locks.WithLease(ctx, "document:"+data.DocumentKey, leaselock.Options{
		TTL:  15 * time.Minute,
		Wait: true,
	}, func(ctx context.Context) error {
		return ingestDocument(ctx, s3Client, ragClient, graphSvc, data)
	})
}

func ingestDocument(
	ctx context.Context,
	s3Client *awss3.Client,
	ragClient *rag.Client,
	graphSvc *graphdb.Service,
	data *IngestMsg,
) error {
	content, err := storage.GetFile(ctx, s3Client, data.DocumentKey)
	if err != nil {
		return err
	}

	documentID, err := util.RetryWithBackoff(ctx, ingestMaxTries, ingestBaseDelay, func(ctx context.Context) (string, error) {
		return ragClient.IngestDocument(ctx, data.Filename, bytes.NewReader(content), data.Metadata)
	})
	if err != nil {
		return fmt.Errorf("ingesting document %s: %w", data.DocumentKey, err)
	}
	logger.Info("[Queue] Document handed to retrieval service", "document_id", documentID, "key", data.DocumentKey)

	if err := waitForIngestion(ctx, ragClient, documentID); err != nil {
		return err
	}

	if !data.ExtractEntities {
		return nil
	}

	_, err = GraphDocument(ctx, ragClient, graphSvc, documentID, data.Filename)
	return err
}

// GraphDocument pulls the entities the retrieval service extracted from a
// document, stores them as graph nodes, and links them to a Document node.
// Returns the number of entities graphed.
func GraphDocument(ctx context.Context, ragClient *rag.Client, graphSvc *graphdb.Service, documentID, title string) (int, error) {
	grouped, err := ragClient.DocumentEntities(ctx, documentID)
	if err != nil {
		return 0, fmt.Errorf("fetching entities for document %s: %w", documentID, err)
	}

	entityIDs, err := graphExtractedEntities(ctx, graphSvc, documentID, grouped)
	if err != nil {
		return 0, err
	}
	if len(entityIDs) == 0 {
		logger.Info("[Queue] No graphable entities in document", "document_id", documentID)
		return 0, nil
	}

	if err := graphSvc.LinkDocumentEntities(ctx, documentID, title, entityIDs); err != nil {
		return 0, err
	}

	logger.Info("[Queue] Document graphed", "document_id", documentID, "entities", len(entityIDs))
	return len(entityIDs), nil
}

// waitForIngestion polls the retrieval service until the document is fully
// ingested, or fails, or the deadline passes.
func waitForIngestion(ctx context.Context, ragClient *rag.Client, documentID string) error {
	deadline := time.Now().Add(ingestPollDeadline)
	ticker := time.NewTicker(ingestPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			doc, err := ragClient.GetDocument(ctx, documentID)
			if err != nil {
				return fmt.Errorf("polling document %s: %w", documentID, err)
			}
			switch doc.IngestionStatus {
			case "success":
				return nil
			case "failed":
				return fmt.Errorf("ingestion failed for document %s", documentID)
			}
			if time.Now().After(deadline) {
				return fmt.Errorf("ingestion timed out for document %s (status %s)", documentID, doc.IngestionStatus)
			}
		}
	}
}

// graphExtractedEntities stores the extracted entities as graph nodes,
// reusing nodes that already exist for the same name and type. Creation is
// fanned out with a bounded worker group since each entity needs at least
// one lookup round-trip.
func graphExtractedEntities(ctx context.Context, graphSvc *graphdb.Service, documentID string, grouped *rag.GroupedEntities) ([]string, error) {
	type typedEntity struct {
		entity rag.DocumentEntity
		kind   model.EntityType
	}

	var candidates []typedEntity
	for _, e := range grouped.Persons {
		candidates = append(candidates, typedEntity{entity: e, kind: model.TypePerson})
	}
	for _, e := range grouped.Events {
		candidates = append(candidates, typedEntity{entity: e, kind: model.TypeEvent})
	}
	for _, e := range grouped.Locations {
		candidates = append(candidates, typedEntity{entity: e, kind: model.TypeLocation})
	}

	var mu sync.Mutex
	ids := make([]string, 0, len(candidates))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(entityCreationLimit)

	for _, c := range candidates {
		g.Go(func() error {
			existing, err := graphSvc.FindEntityByName(gctx, c.entity.Name, c.kind)
			if err != nil {
				return err
			}

			var id string
			if existing != nil {
				id = existing.ID
			} else {
				id, err = graphSvc.CreateEntity(gctx, &graphdb.Entity{
					ID:          util.NewID(),
					Name:        c.entity.Name,
					Description: c.entity.Description,
					Type:        c.kind,
					Confidence:  extractedConfidence,
					Properties:  map[string]any{"source_document": documentID},
				})
				if err != nil {
					return err
				}
			}

			mu.Lock()
			ids = append(ids, id)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("graphing entities for document %s: %w", documentID, err)
	}
	return ids, nil
}
