package routes

import (
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/graphaura/backend/internal/audit"
	"github.com/graphaura/backend/internal/queue"
	"github.com/graphaura/backend/internal/server/middleware"
	"github.com/graphaura/backend/internal/storage"
	"github.com/graphaura/backend/pkg/logger"
)

// DeleteDocumentHandler queues a document for deletion across the
// retrieval service, the graph, embeddings, and object storage.
func DeleteDocumentHandler(c echo.Context) error {
	type deleteDocumentParams struct {
		DocumentID string `param:"id" validate:"required"`
		Key        string `query:"key"`
	}

	type deleteDocumentResponse struct {
		Message string `json:"message"`
	}

	params := new(deleteDocumentParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, deleteDocumentResponse{
			Message: "Invalid request",
		})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, deleteDocumentResponse{
			Message: "Invalid request",
		})
	}

	app := c.(*middleware.AppContext).App

	queueData := queue.DeleteMsg{
		Message:     "Document deletion requested",
		DocumentID:  params.DocumentID,
		DocumentKey: params.Key,
	}
	msgBytes, err := json.Marshal(queueData)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, deleteDocumentResponse{
			Message: "Internal server error",
		})
	}
	if err := queue.PublishFIFO(app.Queue, queue.DeleteQueue, msgBytes); err != nil {
		logger.Error("[Documents] Failed to publish to delete_queue", "document_id", params.DocumentID, "err", err)
		return c.JSON(http.StatusInternalServerError, deleteDocumentResponse{
			Message: "Internal server error",
		})
	}

	if err := audit.Record(c.Request().Context(), app.DBConn, "document.delete", "document", params.DocumentID, nil); err != nil {
		logger.Warn("[Documents] Failed to record audit entry", "err", err)
	}

	return c.JSON(http.StatusAccepted, deleteDocumentResponse{
		Message: "Document queued for deletion",
	})
}

// PurgeDocumentFilesHandler removes every stored document file from
// object storage. Graph and retrieval-service state is untouched; this is
// a storage-level reset.
func PurgeDocumentFilesHandler(c echo.Context) error {
	type purgeResponse struct {
		Message string `json:"message"`
	}

	app := c.(*middleware.AppContext).App
	ctx := c.Request().Context()

	if err := storage.DeleteFolder(ctx, app.S3, storage.DocumentPrefix+"/"); err != nil {
		logger.Error("[Documents] Failed to purge stored files", "err", err)
		return c.JSON(http.StatusInternalServerError, purgeResponse{
			Message: "Internal server error",
		})
	}

	if err := audit.Record(ctx, app.DBConn, "document.purge_files", "storage", storage.DocumentPrefix, nil); err != nil {
		logger.Warn("[Documents] Failed to record audit entry", "err", err)
	}

	return c.JSON(http.StatusOK, purgeResponse{
		Message: "Stored document files removed",
	})
}
