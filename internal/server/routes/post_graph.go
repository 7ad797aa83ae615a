package routes

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/graphaura/backend/internal/audit"
	"github.com/graphaura/backend/internal/server/middleware"
	"github.com/graphaura/backend/internal/util"
	"github.com/graphaura/backend/pkg/graphdb"
	"github.com/graphaura/backend/pkg/logger"
	"github.com/graphaura/backend/pkg/model"
)

// CreateEntityHandler stores a new graph entity.
func CreateEntityHandler(c echo.Context) error {
	type createEntityBody struct {
		Name        string         `json:"name" validate:"required"`
		Description string         `json:"description"`
		Type        string         `json:"type" validate:"required"`
		Tags        []string       `json:"tags"`
		Confidence  float64        `json:"confidence_score"`
		Properties  map[string]any `json:"properties"`
	}

	type createEntityResponse struct {
		Message string `json:"message"`
		ID      string `json:"id,omitempty"`
	}

	data := new(createEntityBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, createEntityResponse{
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, createEntityResponse{
			Message: "Invalid request body",
		})
	}

	entityType := model.EntityType(data.Type)
	if !entityType.Valid() {
		return c.JSON(http.StatusBadRequest, createEntityResponse{
			Message: "Type must be person, event, or location",
		})
	}

	app := c.(*middleware.AppContext).App
	ctx := c.Request().Context()

	id, err := app.Graph.CreateEntity(ctx, &graphdb.Entity{
		ID:          util.NewID(),
		Name:        data.Name,
		Description: data.Description,
		Type:        entityType,
		Tags:        data.Tags,
		Confidence:  data.Confidence,
		Properties:  data.Properties,
	})
	if err != nil {
		logger.Error("[Graph] Failed to create entity", "err", err)
		return c.JSON(http.StatusInternalServerError, createEntityResponse{
			Message: "Internal server error",
		})
	}

	if err := audit.Record(ctx, app.DBConn, "entity.create", "entity", id, map[string]any{
		"name": data.Name,
		"type": data.Type,
	}); err != nil {
		logger.Warn("[Graph] Failed to record audit entry", "err", err)
	}

	return c.JSON(http.StatusCreated, createEntityResponse{
		Message: "Entity created",
		ID:      id,
	})
}

// CreateRelationshipHandler stores a directed relationship between two
// existing entities.
func CreateRelationshipHandler(c echo.Context) error {
	type createRelationshipBody struct {
		SourceID   string         `json:"source_id" validate:"required"`
		TargetID   string         `json:"target_id" validate:"required"`
		Type       string         `json:"type" validate:"required"`
		Weight     float64        `json:"weight"`
		Confidence float64        `json:"confidence_score"`
		Properties map[string]any `json:"properties"`
	}

	type createRelationshipResponse struct {
		Message string `json:"message"`
		ID      string `json:"id,omitempty"`
	}

	data := new(createRelationshipBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, createRelationshipResponse{
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, createRelationshipResponse{
			Message: "Invalid request body",
		})
	}

	app := c.(*middleware.AppContext).App
	ctx := c.Request().Context()

	id, err := app.Graph.CreateRelationship(ctx, &graphdb.Relationship{
		ID:         util.NewID(),
		SourceID:   data.SourceID,
		TargetID:   data.TargetID,
		Type:       data.Type,
		Weight:     data.Weight,
		Confidence: data.Confidence,
		Properties: data.Properties,
	})
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			return c.JSON(http.StatusNotFound, createRelationshipResponse{
				Message: "Source or target entity not found",
			})
		}
		if strings.Contains(err.Error(), "invalid relationship type") {
			return c.JSON(http.StatusBadRequest, createRelationshipResponse{
				Message: "Invalid relationship type",
			})
		}
		logger.Error("[Graph] Failed to create relationship", "err", err)
		return c.JSON(http.StatusInternalServerError, createRelationshipResponse{
			Message: "Internal server error",
		})
	}

	if err := audit.Record(ctx, app.DBConn, "relationship.create", "relationship", id, map[string]any{
		"source_id": data.SourceID,
		"target_id": data.TargetID,
		"type":      data.Type,
	}); err != nil {
		logger.Warn("[Graph] Failed to record audit entry", "err", err)
	}

	return c.JSON(http.StatusCreated, createRelationshipResponse{
		Message: "Relationship created",
		ID:      id,
	})
}

// TraverseHandler walks the graph from a starting entity.
func TraverseHandler(c echo.Context) error {
	type traverseResponse struct {
		Message string                   `json:"message,omitempty"`
		Result  *graphdb.TraversalResult `json:"result,omitempty"`
	}

	req := new(graphdb.TraversalRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, traverseResponse{
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, traverseResponse{
			Message: "Invalid request body",
		})
	}

	app := c.(*middleware.AppContext).App
	result, err := app.Graph.Traverse(c.Request().Context(), req)
	if err != nil {
		if strings.Contains(err.Error(), "invalid relationship type") {
			return c.JSON(http.StatusBadRequest, traverseResponse{
				Message: "Invalid relationship type",
			})
		}
		logger.Error("[Graph] Traversal failed", "start", req.StartEntityID, "err", err)
		return c.JSON(http.StatusInternalServerError, traverseResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusOK, traverseResponse{Result: result})
}

// destructiveCypher matches clauses that modify or remove data.
var destructiveCypher = []string{"delete", "detach", "remove", "drop", "create", "merge", "set"}

// CypherHandler runs a raw read query. In production, queries containing
// write clauses are rejected outright.
func CypherHandler(c echo.Context) error {
	type cypherBody struct {
		Query  string         `json:"query" validate:"required"`
		Params map[string]any `json:"params"`
	}

	type cypherResponse struct {
		Message string           `json:"message,omitempty"`
		Records []map[string]any `json:"records"`
	}

	data := new(cypherBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, cypherResponse{
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, cypherResponse{
			Message: "Invalid request body",
		})
	}

	if util.GetEnvString("ENVIRONMENT", "development") == "production" {
		lowered := strings.ToLower(data.Query)
		for _, keyword := range destructiveCypher {
			if strings.Contains(lowered, keyword) {
				return c.JSON(http.StatusForbidden, cypherResponse{
					Message: "Write clauses are not allowed in production",
				})
			}
		}
	}

	app := c.(*middleware.AppContext).App
	records, err := app.Graph.ExecuteCypher(c.Request().Context(), data.Query, data.Params)
	if err != nil {
		logger.Error("[Graph] Cypher query failed", "err", err)
		return c.JSON(http.StatusBadRequest, cypherResponse{
			Message: "Query failed",
		})
	}
	if records == nil {
		records = []map[string]any{}
	}

	return c.JSON(http.StatusOK, cypherResponse{Records: records})
}
