package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/graphaura/backend/internal/audit"
	"github.com/graphaura/backend/internal/server/middleware"
	"github.com/graphaura/backend/pkg/logger"
)

// DeleteEntityHandler removes an entity and all its relationships, along
// with its stored embedding.
func DeleteEntityHandler(c echo.Context) error {
	type deleteEntityResponse struct {
		Message string `json:"message"`
	}

	app := c.(*middleware.AppContext).App
	ctx := c.Request().Context()
	id := c.Param("id")

	deleted, err := app.Graph.DeleteEntity(ctx, id)
	if err != nil {
		logger.Error("[Graph] Failed to delete entity", "id", id, "err", err)
		return c.JSON(http.StatusInternalServerError, deleteEntityResponse{
			Message: "Internal server error",
		})
	}
	if !deleted {
		return c.JSON(http.StatusNotFound, deleteEntityResponse{
			Message: "Entity not found",
		})
	}

	if _, err := app.Vector.DeleteEmbedding(ctx, id); err != nil {
		logger.Warn("[Graph] Failed to delete entity embedding", "id", id, "err", err)
	}

	if err := audit.Record(ctx, app.DBConn, "entity.delete", "entity", id, nil); err != nil {
		logger.Warn("[Graph] Failed to record audit entry", "err", err)
	}

	return c.JSON(http.StatusOK, deleteEntityResponse{
		Message: "Entity deleted",
	})
}
