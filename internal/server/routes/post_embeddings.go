package routes

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/graphaura/backend/internal/server/middleware"
	"github.com/graphaura/backend/pkg/logger"
	"github.com/graphaura/backend/pkg/model"
)

// StoreEmbeddingHandler upserts an entity's embedding vector.
func StoreEmbeddingHandler(c echo.Context) error {
	type storeEmbeddingBody struct {
		EntityID   string         `json:"entity_id" validate:"required"`
		EntityType string         `json:"entity_type" validate:"required"`
		Embedding  []float32      `json:"embedding" validate:"required"`
		Metadata   map[string]any `json:"metadata"`
	}

	type storeEmbeddingResponse struct {
		Message string `json:"message"`
		ID      string `json:"id,omitempty"`
	}

	data := new(storeEmbeddingBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, storeEmbeddingResponse{
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, storeEmbeddingResponse{
			Message: "Invalid request body",
		})
	}
	if !model.EntityType(data.EntityType).Valid() {
		return c.JSON(http.StatusBadRequest, storeEmbeddingResponse{
			Message: "Entity type must be person, event, or location",
		})
	}

	app := c.(*middleware.AppContext).App
	id, err := app.Vector.StoreEmbedding(c.Request().Context(), data.EntityID, data.EntityType, data.Embedding, data.Metadata)
	if err != nil {
		if strings.Contains(err.Error(), "dimension mismatch") {
			return c.JSON(http.StatusBadRequest, storeEmbeddingResponse{
				Message: err.Error(),
			})
		}
		logger.Error("[Vector] Failed to store embedding", "entity_id", data.EntityID, "err", err)
		return c.JSON(http.StatusInternalServerError, storeEmbeddingResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusCreated, storeEmbeddingResponse{
		Message: "Embedding stored",
		ID:      id,
	})
}

// UpdateEmbeddingHandler replaces an entity's embedding vector.
func UpdateEmbeddingHandler(c echo.Context) error {
	type updateEmbeddingBody struct {
		Embedding []float32 `json:"embedding" validate:"required"`
	}

	type updateEmbeddingResponse struct {
		Message string `json:"message"`
	}

	data := new(updateEmbeddingBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, updateEmbeddingResponse{
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, updateEmbeddingResponse{
			Message: "Invalid request body",
		})
	}

	app := c.(*middleware.AppContext).App
	entityID := c.Param("entity_id")

	found, err := app.Vector.UpdateEmbedding(c.Request().Context(), entityID, data.Embedding)
	if err != nil {
		if strings.Contains(err.Error(), "dimension mismatch") {
			return c.JSON(http.StatusBadRequest, updateEmbeddingResponse{
				Message: err.Error(),
			})
		}
		logger.Error("[Vector] Failed to update embedding", "entity_id", entityID, "err", err)
		return c.JSON(http.StatusInternalServerError, updateEmbeddingResponse{
			Message: "Internal server error",
		})
	}
	if !found {
		return c.JSON(http.StatusNotFound, updateEmbeddingResponse{
			Message: "No embedding for entity",
		})
	}

	return c.JSON(http.StatusOK, updateEmbeddingResponse{
		Message: "Embedding updated",
	})
}

// GetEmbeddingHandler returns an entity's stored embedding.
func GetEmbeddingHandler(c echo.Context) error {
	type getEmbeddingResponse struct {
		Message   string    `json:"message,omitempty"`
		EntityID  string    `json:"entity_id,omitempty"`
		Embedding []float32 `json:"embedding,omitempty"`
	}

	app := c.(*middleware.AppContext).App
	entityID := c.Param("entity_id")

	embedding, err := app.Vector.GetEmbedding(c.Request().Context(), entityID)
	if err != nil {
		logger.Error("[Vector] Failed to get embedding", "entity_id", entityID, "err", err)
		return c.JSON(http.StatusInternalServerError, getEmbeddingResponse{
			Message: "Internal server error",
		})
	}
	if embedding == nil {
		return c.JSON(http.StatusNotFound, getEmbeddingResponse{
			Message: "No embedding for entity",
		})
	}

	return c.JSON(http.StatusOK, getEmbeddingResponse{
		EntityID:  entityID,
		Embedding: embedding,
	})
}

// DeleteEmbeddingHandler removes an entity's embedding.
func DeleteEmbeddingHandler(c echo.Context) error {
	type deleteEmbeddingResponse struct {
		Message string `json:"message"`
	}

	app := c.(*middleware.AppContext).App
	entityID := c.Param("entity_id")

	deleted, err := app.Vector.DeleteEmbedding(c.Request().Context(), entityID)
	if err != nil {
		logger.Error("[Vector] Failed to delete embedding", "entity_id", entityID, "err", err)
		return c.JSON(http.StatusInternalServerError, deleteEmbeddingResponse{
			Message: "Internal server error",
		})
	}
	if !deleted {
		return c.JSON(http.StatusNotFound, deleteEmbeddingResponse{
			Message: "No embedding for entity",
		})
	}

	return c.JSON(http.StatusOK, deleteEmbeddingResponse{
		Message: "Embedding deleted",
	})
}

// GetClustersHandler groups stored embeddings by pairwise similarity.
func GetClustersHandler(c echo.Context) error {
	type clustersParams struct {
		MinSimilarity float64 `query:"min_similarity"`
		MinSize       int     `query:"min_size"`
	}

	type clustersResponse struct {
		Message  string     `json:"message,omitempty"`
		Clusters [][]string `json:"clusters"`
	}

	params := new(clustersParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, clustersResponse{
			Message: "Invalid query parameters",
		})
	}
	if params.MinSimilarity <= 0 {
		params.MinSimilarity = 0.85
	}
	if params.MinSize < 2 {
		params.MinSize = 2
	}

	app := c.(*middleware.AppContext).App
	clusters, err := app.Vector.Clusters(c.Request().Context(), params.MinSimilarity, params.MinSize)
	if err != nil {
		logger.Error("[Vector] Failed to compute clusters", "err", err)
		return c.JSON(http.StatusInternalServerError, clustersResponse{
			Message: "Internal server error",
		})
	}
	if clusters == nil {
		clusters = [][]string{}
	}

	return c.JSON(http.StatusOK, clustersResponse{Clusters: clusters})
}
