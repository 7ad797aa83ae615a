package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/graphaura/backend/internal/storage"
	"github.com/graphaura/backend/pkg/graphdb"
	"github.com/graphaura/backend/pkg/leaselock"
	"github.com/graphaura/backend/pkg/logger"
	"github.com/graphaura/backend/pkg/rag"
	"github.com/graphaura/backend/pkg/vector"
)

// ProcessDeleteMessage removes a document from every backing store: the
// retrieval service, the graph (including entities mentioned nowhere
// else), the embeddings of those entities, and object storage. The lease
// serializes cleanup with any in-flight ingestion of the same document.
func ProcessDeleteMessage(
	ctx context.Context,
	s3Client *awss3.Client,
	ragClient *rag.Client,
	graphSvc *graphdb.Service,
	vectorStore *vector.Store,
	locks *leaselock.Client,
	msg string,
) error {
	data := new(DeleteMsg)
	if err := json.Unmarshal([]byte(msg), data); err != nil {
		return err
	}

	key := data.DocumentKey
	if key == "" {
		key = data.DocumentID
	}

	return locks.WithLease(ctx, "document:"+key, leaselock.Options{
		TTL:  15 * time.Minute,
		Wait: true,
	}, func(ctx context.Context) error {
		return deleteDocument(ctx, s3Client, ragClient, graphSvc, vectorStore, data)
	})
}

func deleteDocument(
	ctx context.Context,
	s3Client *awss3.Client,
	ragClient *rag.Client,
	graphSvc *graphdb.Service,
	vectorStore *vector.Store,
	data *DeleteMsg,
) error {
	if err := ragClient.DeleteDocument(ctx, data.DocumentID); err != nil {
		// Already gone from the retrieval service is fine, the rest of
		// the cleanup still has to run.
		if !errors.Is(err, rag.ErrDocumentNotFound) {
			return fmt.Errorf("deleting document %s from retrieval service: %w", data.DocumentID, err)
		}
		logger.Warn("[Queue] Document already absent from retrieval service", "document_id", data.DocumentID)
	}

	orphanIDs, err := graphSvc.RemoveDocument(ctx, data.DocumentID)
	if err != nil {
		return err
	}

	for _, entityID := range orphanIDs {
		if _, err := vectorStore.DeleteEmbedding(ctx, entityID); err != nil {
			return fmt.Errorf("deleting embedding for entity %s: %w", entityID, err)
		}
	}

	if data.DocumentKey != "" {
		if err := storage.DeleteFile(ctx, s3Client, data.DocumentKey); err != nil {
			return err
		}
	}

	logger.Info("[Queue] Document removed", "document_id", data.DocumentID, "orphaned_entities", len(orphanIDs))
	return nil
}
