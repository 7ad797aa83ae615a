package routes

import (
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/graphaura/backend/internal/audit"
	"github.com/graphaura/backend/internal/queue"
	"github.com/graphaura/backend/internal/server/middleware"
	"github.com/graphaura/backend/internal/storage"
	"github.com/graphaura/backend/internal/util"
	"github.com/graphaura/backend/pkg/logger"
	"github.com/graphaura/backend/pkg/rag"
)

type uploadedDocument struct {
	Filename string `json:"filename"`
	Key      string `json:"key"`
}

// UploadDocumentHandler stores one document in object storage and queues
// it for ingestion (multipart/form-data, field "file").
func UploadDocumentHandler(c echo.Context) error {
	type uploadDocumentBody struct {
		Metadata        string `form:"metadata"`
		ExtractEntities bool   `form:"extract_entities"`
	}

	type uploadDocumentResponse struct {
		Message  string            `json:"message"`
		Document *uploadedDocument `json:"document,omitempty"`
	}

	data := new(uploadDocumentBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, uploadDocumentResponse{
			Message: "Invalid request body",
		})
	}

	file, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, uploadDocumentResponse{
			Message: "No file provided",
		})
	}

	metadata, err := parseMetadataField(data.Metadata)
	if err != nil {
		return c.JSON(http.StatusBadRequest, uploadDocumentResponse{
			Message: "Invalid metadata, expected a JSON object",
		})
	}

	doc, status, msg := storeAndQueueDocument(c, file, metadata, data.ExtractEntities)
	if doc == nil {
		return c.JSON(status, uploadDocumentResponse{Message: msg})
	}

	return c.JSON(http.StatusAccepted, uploadDocumentResponse{
		Message:  "Document queued for ingestion",
		Document: doc,
	})
}

// UploadDocumentBatchHandler stores multiple documents (field "files") and
// queues each for ingestion. Files with unsupported formats are reported
// and skipped; the rest still go through.
func UploadDocumentBatchHandler(c echo.Context) error {
	type uploadBatchBody struct {
		Metadata        string `form:"metadata"`
		ExtractEntities bool   `form:"extract_entities"`
	}

	type uploadBatchResponse struct {
		Message   string             `json:"message"`
		Documents []uploadedDocument `json:"documents"`
		Skipped   []string           `json:"skipped,omitempty"`
	}

	data := new(uploadBatchBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, uploadBatchResponse{
			Message: "Invalid request body",
		})
	}

	form, err := c.MultipartForm()
	if err != nil {
		return c.JSON(http.StatusBadRequest, uploadBatchResponse{
			Message: "Invalid request body",
		})
	}
	uploads := form.File["files"]
	if len(uploads) == 0 {
		return c.JSON(http.StatusBadRequest, uploadBatchResponse{
			Message: "No files provided",
		})
	}

	metadata, err := parseMetadataField(data.Metadata)
	if err != nil {
		return c.JSON(http.StatusBadRequest, uploadBatchResponse{
			Message: "Invalid metadata, expected a JSON object",
		})
	}

	documents := make([]uploadedDocument, 0, len(uploads))
	skipped := make([]string, 0)
	for _, file := range uploads {
		ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(file.Filename), "."))
		if !rag.SupportedFormat(ext) {
			skipped = append(skipped, file.Filename)
			continue
		}
		doc, status, msg := storeAndQueueDocument(c, file, metadata, data.ExtractEntities)
		if doc == nil {
			return c.JSON(status, uploadBatchResponse{Message: msg, Documents: documents})
		}
		documents = append(documents, *doc)
	}

	return c.JSON(http.StatusAccepted, uploadBatchResponse{
		Message:   "Documents queued for ingestion",
		Documents: documents,
		Skipped:   skipped,
	})
}

// CreateDocumentGraphHandler graphs an already-ingested document's
// extracted entities on demand, for documents uploaded without entity
// extraction.
func CreateDocumentGraphHandler(c echo.Context) error {
	type createGraphResponse struct {
		Message  string `json:"message"`
		Entities int    `json:"entities"`
	}

	app := c.(*middleware.AppContext).App
	ctx := c.Request().Context()
	id := c.Param("id")

	doc, err := app.RAG.GetDocument(ctx, id)
	if err != nil {
		if errors.Is(err, rag.ErrDocumentNotFound) {
			return c.JSON(http.StatusNotFound, createGraphResponse{
				Message: "Document not found",
			})
		}
		logger.Error("[Documents] Failed to get document", "id", id, "err", err)
		return c.JSON(http.StatusBadGateway, createGraphResponse{
			Message: "Retrieval service unavailable",
		})
	}
	if doc.IngestionStatus != "success" {
		return c.JSON(http.StatusConflict, createGraphResponse{
			Message: "Document ingestion not finished (status " + doc.IngestionStatus + ")",
		})
	}

	count, err := queue.GraphDocument(ctx, app.RAG, app.Graph, id, doc.Title)
	if err != nil {
		logger.Error("[Documents] Failed to graph document", "id", id, "err", err)
		return c.JSON(http.StatusInternalServerError, createGraphResponse{
			Message: "Internal server error",
		})
	}

	if err := audit.Record(ctx, app.DBConn, "document.graph", "document", id, map[string]any{
		"entities": count,
	}); err != nil {
		logger.Warn("[Documents] Failed to record audit entry", "err", err)
	}

	return c.JSON(http.StatusOK, createGraphResponse{
		Message:  "Document graphed",
		Entities: count,
	})
}

func parseMetadataField(raw string) (map[string]any, error) {
	if raw == "" {
		return nil, nil
	}
	var metadata map[string]any
	if err := json.Unmarshal([]byte(raw), &metadata); err != nil {
		return nil, err
	}
	return metadata, nil
}

// storeAndQueueDocument uploads one file to object storage and publishes
// the ingest message. Returns nil plus an HTTP status and message on
// failure.
func storeAndQueueDocument(c echo.Context, file *multipart.FileHeader, metadata map[string]any, extractEntities bool) (*uploadedDocument, int, string) {
	app := c.(*middleware.AppContext).App
	ctx := c.Request().Context()

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(file.Filename), "."))
	if !rag.SupportedFormat(ext) {
		return nil, http.StatusBadRequest, "Unsupported document format: " + ext
	}

	src, err := file.Open()
	if err != nil {
		return nil, http.StatusBadRequest, "Could not open file"
	}
	defer src.Close()

	key, err := storage.PutFile(ctx, app.S3, storage.DocumentPrefix, file.Filename, util.NewID(), src)
	if err != nil {
		logger.Error("[Documents] Failed to upload file", "filename", file.Filename, "err", err)
		return nil, http.StatusInternalServerError, "Internal server error"
	}

	queueData := queue.IngestMsg{
		Message:         "Document uploaded",
		DocumentKey:     key,
		Filename:        file.Filename,
		Metadata:        metadata,
		ExtractEntities: extractEntities,
	}
	msgBytes, err := json.Marshal(queueData)
	if err != nil {
		return nil, http.StatusInternalServerError, "Internal server error"
	}
	if err := queue.PublishFIFO(app.Queue, queue.IngestQueue, msgBytes); err != nil {
		logger.Error("[Documents] Failed to publish to ingest_queue", "key", key, "err", err)
		return nil, http.StatusInternalServerError, "Internal server error"
	}

	if err := audit.Record(ctx, app.DBConn, "document.upload", "document", key, map[string]any{
		"filename": file.Filename,
	}); err != nil {
		logger.Warn("[Documents] Failed to record audit entry", "err", err)
	}

	return &uploadedDocument{Filename: file.Filename, Key: key}, 0, ""
}
