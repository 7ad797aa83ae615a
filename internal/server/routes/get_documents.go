package routes

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/graphaura/backend/internal/server/middleware"
	"github.com/graphaura/backend/internal/storage"
	"github.com/graphaura/backend/pkg/logger"
	"github.com/graphaura/backend/pkg/rag"
)

// ListDocumentsHandler pages through the documents known to the retrieval
// service.
func ListDocumentsHandler(c echo.Context) error {
	type listDocumentsParams struct {
		Offset int `query:"offset"`
		Limit  int `query:"limit"`
	}

	type listDocumentsResponse struct {
		Message   string         `json:"message,omitempty"`
		Documents []rag.Document `json:"documents"`
	}

	params := new(listDocumentsParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, listDocumentsResponse{
			Message: "Invalid query parameters",
		})
	}

	app := c.(*middleware.AppContext).App
	documents, err := app.RAG.ListDocuments(c.Request().Context(), params.Offset, params.Limit)
	if err != nil {
		logger.Error("[Documents] Failed to list documents", "err", err)
		return c.JSON(http.StatusBadGateway, listDocumentsResponse{
			Message: "Retrieval service unavailable",
		})
	}

	return c.JSON(http.StatusOK, listDocumentsResponse{Documents: documents})
}

// GetDocumentHandler fetches one document's ingestion status and metadata.
func GetDocumentHandler(c echo.Context) error {
	type getDocumentResponse struct {
		Message  string        `json:"message,omitempty"`
		Document *rag.Document `json:"document,omitempty"`
	}

	app := c.(*middleware.AppContext).App
	doc, err := app.RAG.GetDocument(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, rag.ErrDocumentNotFound) {
			return c.JSON(http.StatusNotFound, getDocumentResponse{
				Message: "Document not found",
			})
		}
		logger.Error("[Documents] Failed to get document", "id", c.Param("id"), "err", err)
		return c.JSON(http.StatusBadGateway, getDocumentResponse{
			Message: "Retrieval service unavailable",
		})
	}

	return c.JSON(http.StatusOK, getDocumentResponse{Document: doc})
}

// GetDocumentEntitiesHandler returns a document's extracted entities
// grouped into the categories the graph renders.
func GetDocumentEntitiesHandler(c echo.Context) error {
	type getEntitiesResponse struct {
		Message  string               `json:"message,omitempty"`
		Entities *rag.GroupedEntities `json:"entities,omitempty"`
	}

	app := c.(*middleware.AppContext).App
	entities, err := app.RAG.DocumentEntities(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, rag.ErrDocumentNotFound) {
			return c.JSON(http.StatusNotFound, getEntitiesResponse{
				Message: "Document not found",
			})
		}
		logger.Error("[Documents] Failed to get document entities", "id", c.Param("id"), "err", err)
		return c.JSON(http.StatusBadGateway, getEntitiesResponse{
			Message: "Retrieval service unavailable",
		})
	}

	return c.JSON(http.StatusOK, getEntitiesResponse{Entities: entities})
}

// ListDocumentFilesHandler lists the raw files held in object storage.
func ListDocumentFilesHandler(c echo.Context) error {
	type listFilesResponse struct {
		Message string   `json:"message,omitempty"`
		Keys    []string `json:"keys"`
	}

	app := c.(*middleware.AppContext).App
	keys, err := storage.ListFilesWithPrefix(c.Request().Context(), app.S3, storage.DocumentPrefix+"/")
	if err != nil {
		logger.Error("[Documents] Failed to list stored files", "err", err)
		return c.JSON(http.StatusInternalServerError, listFilesResponse{
			Message: "Internal server error",
		})
	}
	if keys == nil {
		keys = []string{}
	}

	return c.JSON(http.StatusOK, listFilesResponse{Keys: keys})
}

// GetDocumentDownloadHandler presigns a time-limited download link for a
// stored file.
func GetDocumentDownloadHandler(c echo.Context) error {
	type downloadParams struct {
		Key string `query:"key" validate:"required"`
	}

	type downloadResponse struct {
		Message string `json:"message,omitempty"`
		URL     string `json:"url,omitempty"`
	}

	params := new(downloadParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, downloadResponse{
			Message: "Invalid query parameters",
		})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, downloadResponse{
			Message: "Missing file key",
		})
	}

	app := c.(*middleware.AppContext).App
	url, err := storage.GenerateDownloadLink(c.Request().Context(), app.S3, params.Key)
	if err != nil {
		logger.Error("[Documents] Failed to presign download", "key", params.Key, "err", err)
		return c.JSON(http.StatusInternalServerError, downloadResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusOK, downloadResponse{URL: url})
}
