package routes

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/graphaura/backend/internal/server/middleware"
	"github.com/graphaura/backend/pkg/graphdb"
	"github.com/graphaura/backend/pkg/logger"
	"github.com/graphaura/backend/pkg/model"
)

// GetEntityHandler fetches one entity by id, optionally with its
// relationships (?include_relationships=true).
func GetEntityHandler(c echo.Context) error {
	type getEntityResponse struct {
		Message       string                        `json:"message,omitempty"`
		Entity        *graphdb.Entity               `json:"entity,omitempty"`
		Relationships []*graphdb.EntityRelationship `json:"relationships,omitempty"`
	}

	app := c.(*middleware.AppContext).App
	ctx := c.Request().Context()
	id := c.Param("id")

	entity, err := app.Graph.GetEntity(ctx, id)
	if err != nil {
		logger.Error("[Graph] Failed to get entity", "id", id, "err", err)
		return c.JSON(http.StatusInternalServerError, getEntityResponse{
			Message: "Internal server error",
		})
	}
	if entity == nil {
		return c.JSON(http.StatusNotFound, getEntityResponse{
			Message: "Entity not found",
		})
	}

	resp := getEntityResponse{Entity: entity}
	if c.QueryParam("include_relationships") == "true" {
		relationships, err := app.Graph.EntityRelationships(ctx, id, "both")
		if err != nil {
			logger.Error("[Graph] Failed to list relationships", "id", id, "err", err)
			return c.JSON(http.StatusInternalServerError, getEntityResponse{
				Message: "Internal server error",
			})
		}
		resp.Relationships = relationships
	}

	return c.JSON(http.StatusOK, resp)
}

// ListEntitiesHandler returns entities matching the query filters,
// newest first.
func ListEntitiesHandler(c echo.Context) error {
	type listEntitiesParams struct {
		Types         string   `query:"types"`
		Tags          []string `query:"tags"`
		MinConfidence *float64 `query:"min_confidence"`
		Limit         int      `query:"limit"`
		Offset        int      `query:"offset"`
	}

	type listEntitiesResponse struct {
		Message  string            `json:"message,omitempty"`
		Entities []*graphdb.Entity `json:"entities"`
	}

	params := new(listEntitiesParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, listEntitiesResponse{
			Message: "Invalid query parameters",
		})
	}
	if params.Limit <= 0 || params.Limit > 500 {
		params.Limit = 100
	}

	filter := &graphdb.EntityFilter{
		Tags:          params.Tags,
		MinConfidence: params.MinConfidence,
	}
	for _, t := range strings.Split(params.Types, ",") {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		entityType := model.EntityType(t)
		if !entityType.Valid() {
			return c.JSON(http.StatusBadRequest, listEntitiesResponse{
				Message: "Unknown entity type: " + t,
			})
		}
		filter.Types = append(filter.Types, entityType)
	}

	app := c.(*middleware.AppContext).App
	entities, err := app.Graph.FindEntities(c.Request().Context(), filter, params.Limit, params.Offset)
	if err != nil {
		logger.Error("[Graph] Failed to list entities", "err", err)
		return c.JSON(http.StatusInternalServerError, listEntitiesResponse{
			Message: "Internal server error",
		})
	}
	if entities == nil {
		entities = []*graphdb.Entity{}
	}

	return c.JSON(http.StatusOK, listEntitiesResponse{Entities: entities})
}

// GetEntityRelationshipsHandler lists an entity's relationships, with the
// entity on the other end of each.
func GetEntityRelationshipsHandler(c echo.Context) error {
	type relationshipsResponse struct {
		Message       string                        `json:"message,omitempty"`
		Relationships []*graphdb.EntityRelationship `json:"relationships"`
	}

	direction := c.QueryParam("direction")
	if direction == "" {
		direction = "both"
	}

	app := c.(*middleware.AppContext).App
	relationships, err := app.Graph.EntityRelationships(c.Request().Context(), c.Param("id"), direction)
	if err != nil {
		if strings.Contains(err.Error(), "direction must be") {
			return c.JSON(http.StatusBadRequest, relationshipsResponse{
				Message: "Direction must be in, out, or both",
			})
		}
		logger.Error("[Graph] Failed to list relationships", "id", c.Param("id"), "err", err)
		return c.JSON(http.StatusInternalServerError, relationshipsResponse{
			Message: "Internal server error",
		})
	}
	if relationships == nil {
		relationships = []*graphdb.EntityRelationship{}
	}

	return c.JSON(http.StatusOK, relationshipsResponse{Relationships: relationships})
}

// GetDocumentGraphEntitiesHandler lists the ids of graph entities linked
// to a document, the graph-side counterpart of the extraction results.
func GetDocumentGraphEntitiesHandler(c echo.Context) error {
	type documentEntitiesResponse struct {
		Message   string   `json:"message,omitempty"`
		EntityIDs []string `json:"entity_ids"`
	}

	app := c.(*middleware.AppContext).App
	ids, err := app.Graph.DocumentEntityIDs(c.Request().Context(), c.Param("id"))
	if err != nil {
		logger.Error("[Graph] Failed to list document entities", "id", c.Param("id"), "err", err)
		return c.JSON(http.StatusInternalServerError, documentEntitiesResponse{
			Message: "Internal server error",
		})
	}
	if ids == nil {
		ids = []string{}
	}

	return c.JSON(http.StatusOK, documentEntitiesResponse{EntityIDs: ids})
}

// VisualizeHandler returns the whole graph in the renderer's node/link
// shape.
func VisualizeHandler(c echo.Context) error {
	type visualizeResponse struct {
		Message string          `json:"message,omitempty"`
		Graph   *model.Snapshot `json:"graph,omitempty"`
	}

	app := c.(*middleware.AppContext).App
	snapshot, err := app.Graph.Load(c.Request().Context())
	if err != nil {
		logger.Error("[Graph] Failed to load snapshot", "err", err)
		return c.JSON(http.StatusInternalServerError, visualizeResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusOK, visualizeResponse{Graph: snapshot})
}
