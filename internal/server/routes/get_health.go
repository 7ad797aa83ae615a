package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/graphaura/backend/internal/server/middleware"
	"github.com/graphaura/backend/pkg/logger"
)

// HealthHandler reports per-dependency health. The endpoint answers 200
// with status "degraded" when a dependency is down, so load balancers keep
// routing while operators see what broke.
func HealthHandler(c echo.Context) error {
	type healthResponse struct {
		Status   string            `json:"status"`
		Services map[string]string `json:"services"`
	}

	app := c.(*middleware.AppContext).App
	ctx := c.Request().Context()

	services := map[string]string{
		"postgres": "healthy",
		"neo4j":    "healthy",
		"r2r":      "healthy",
	}
	status := "healthy"

	if err := app.DBConn.Ping(ctx); err != nil {
		logger.Warn("[Health] Postgres unreachable", "err", err)
		services["postgres"] = "unhealthy"
		status = "degraded"
	}
	if err := app.Graph.Verify(ctx); err != nil {
		logger.Warn("[Health] Neo4j unreachable", "err", err)
		services["neo4j"] = "unhealthy"
		status = "degraded"
	}
	if err := app.RAG.Health(ctx); err != nil {
		logger.Warn("[Health] R2R unreachable", "err", err)
		services["r2r"] = "unhealthy"
		status = "degraded"
	}

	return c.JSON(http.StatusOK, healthResponse{
		Status:   status,
		Services: services,
	})
}

// MetricsHandler reports graph and embedding counts.
func MetricsHandler(c echo.Context) error {
	type metricsResponse struct {
		Message       string           `json:"message,omitempty"`
		Entities      int64            `json:"entities"`
		Relationships int64            `json:"relationships"`
		Embeddings    int64            `json:"embeddings"`
		EmbeddingsBy  map[string]int64 `json:"embeddings_by_type,omitempty"`
		ViewSessions  int              `json:"view_sessions"`
	}

	app := c.(*middleware.AppContext).App
	ctx := c.Request().Context()

	entities, err := app.Graph.CountEntities(ctx)
	if err != nil {
		logger.Error("[Metrics] Failed to count entities", "err", err)
		return c.JSON(http.StatusInternalServerError, metricsResponse{
			Message: "Internal server error",
		})
	}
	relationships, err := app.Graph.CountRelationships(ctx)
	if err != nil {
		logger.Error("[Metrics] Failed to count relationships", "err", err)
		return c.JSON(http.StatusInternalServerError, metricsResponse{
			Message: "Internal server error",
		})
	}
	stats, err := app.Vector.Statistics(ctx)
	if err != nil {
		logger.Error("[Metrics] Failed to read embedding statistics", "err", err)
		return c.JSON(http.StatusInternalServerError, metricsResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusOK, metricsResponse{
		Entities:      entities,
		Relationships: relationships,
		Embeddings:    stats.TotalEmbeddings,
		EmbeddingsBy:  stats.TypeDistribution,
		ViewSessions:  app.Sessions.Len(),
	})
}
