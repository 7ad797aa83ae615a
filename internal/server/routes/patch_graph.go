package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/graphaura/backend/internal/audit"
	"github.com/graphaura/backend/internal/server/middleware"
	"github.com/graphaura/backend/pkg/logger"
	"github.com/graphaura/backend/pkg/model"
)

// UpdateEntityHandler merges the given fields into an existing entity.
func UpdateEntityHandler(c echo.Context) error {
	type updateEntityBody struct {
		Name        *string  `json:"name"`
		Description *string  `json:"description"`
		Type        *string  `json:"type"`
		Tags        []string `json:"tags"`
		Confidence  *float64 `json:"confidence_score"`
	}

	type updateEntityResponse struct {
		Message string `json:"message"`
	}

	data := new(updateEntityBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, updateEntityResponse{
			Message: "Invalid request body",
		})
	}

	updates := map[string]any{}
	if data.Name != nil {
		updates["name"] = *data.Name
	}
	if data.Description != nil {
		updates["description"] = *data.Description
	}
	if data.Type != nil {
		if !model.EntityType(*data.Type).Valid() {
			return c.JSON(http.StatusBadRequest, updateEntityResponse{
				Message: "Type must be person, event, or location",
			})
		}
		updates["type"] = *data.Type
	}
	if data.Tags != nil {
		updates["tags"] = data.Tags
	}
	if data.Confidence != nil {
		updates["confidence_score"] = *data.Confidence
	}
	if len(updates) == 0 {
		return c.JSON(http.StatusBadRequest, updateEntityResponse{
			Message: "No fields to update",
		})
	}

	app := c.(*middleware.AppContext).App
	ctx := c.Request().Context()
	id := c.Param("id")

	found, err := app.Graph.UpdateEntity(ctx, id, updates)
	if err != nil {
		logger.Error("[Graph] Failed to update entity", "id", id, "err", err)
		return c.JSON(http.StatusInternalServerError, updateEntityResponse{
			Message: "Internal server error",
		})
	}
	if !found {
		return c.JSON(http.StatusNotFound, updateEntityResponse{
			Message: "Entity not found",
		})
	}

	if err := audit.Record(ctx, app.DBConn, "entity.update", "entity", id, updates); err != nil {
		logger.Warn("[Graph] Failed to record audit entry", "err", err)
	}

	return c.JSON(http.StatusOK, updateEntityResponse{
		Message: "Entity updated",
	})
}
