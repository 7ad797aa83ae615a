package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/graphaura/backend/pkg/model"
	"github.com/graphaura/backend/pkg/viewstate"
)

// SetSessionFiltersHandler updates the session's type and search filters.
// Omitted fields are left as they were; explicit empty strings clear them.
func SetSessionFiltersHandler(c echo.Context) error {
	type setFiltersBody struct {
		Type   *string `json:"type"`
		Search *string `json:"search"`
	}

	type setFiltersResponse struct {
		Message string `json:"message"`
	}

	store := sessionStore(c)
	if store == nil {
		return nil
	}

	data := new(setFiltersBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, setFiltersResponse{
			Message: "Invalid request body",
		})
	}

	if data.Type != nil {
		entityType := model.EntityType(*data.Type)
		if *data.Type != "" && !entityType.Valid() {
			return c.JSON(http.StatusBadRequest, setFiltersResponse{
				Message: "Type must be person, event, or location",
			})
		}
		store.SetFilterByType(entityType)
	}
	if data.Search != nil {
		store.SetSearchQuery(*data.Search)
	}

	return c.JSON(http.StatusOK, setFiltersResponse{
		Message: "Filters updated",
	})
}

// UpdateSessionNodeHandler merges partial fields into a session node.
func UpdateSessionNodeHandler(c echo.Context) error {
	type updateNodeBody struct {
		Name     *string        `json:"name"`
		Type     *string        `json:"type"`
		Val      *float64       `json:"val"`
		Color    *string        `json:"color"`
		Metadata map[string]any `json:"metadata"`
	}

	type updateNodeResponse struct {
		Message string `json:"message"`
	}

	store := sessionStore(c)
	if store == nil {
		return nil
	}

	data := new(updateNodeBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, updateNodeResponse{
			Message: "Invalid request body",
		})
	}

	patch := viewstate.NodePatch{
		Name:     data.Name,
		Val:      data.Val,
		Color:    data.Color,
		Metadata: data.Metadata,
	}
	if data.Type != nil {
		entityType := model.EntityType(*data.Type)
		if !entityType.Valid() {
			return c.JSON(http.StatusBadRequest, updateNodeResponse{
				Message: "Type must be person, event, or location",
			})
		}
		patch.Type = &entityType
	}

	nodeID := c.Param("node_id")
	if store.Node(nodeID) == nil {
		return c.JSON(http.StatusNotFound, updateNodeResponse{
			Message: "Node not found",
		})
	}

	store.UpdateNode(nodeID, patch)
	return c.JSON(http.StatusOK, updateNodeResponse{
		Message: "Node updated",
	})
}
