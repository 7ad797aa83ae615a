package server

import (
	"github.com/labstack/echo/v4"

	"github.com/graphaura/backend/internal/server/routes"
)

func RegisterRoutes(e *echo.Echo) {
	e.GET("/health", routes.HealthHandler)
	e.GET("/metrics", routes.MetricsHandler)

	api := e.Group("/api/v1")

	// Document routes
	api.POST("/documents", routes.UploadDocumentHandler)
	api.POST("/documents/batch", routes.UploadDocumentBatchHandler)
	api.GET("/documents", routes.ListDocumentsHandler)
	api.GET("/documents/files", routes.ListDocumentFilesHandler)
	api.GET("/documents/download", routes.GetDocumentDownloadHandler)
	api.DELETE("/documents/files", routes.PurgeDocumentFilesHandler)
	api.GET("/documents/:id", routes.GetDocumentHandler)
	api.GET("/documents/:id/entities", routes.GetDocumentEntitiesHandler)
	api.POST("/documents/:id/graph", routes.CreateDocumentGraphHandler)
	api.DELETE("/documents/:id", routes.DeleteDocumentHandler)

	// Graph entity routes
	api.POST("/graph/entities", routes.CreateEntityHandler)
	api.GET("/graph/entities", routes.ListEntitiesHandler)
	api.GET("/graph/entities/:id", routes.GetEntityHandler)
	api.PATCH("/graph/entities/:id", routes.UpdateEntityHandler)
	api.DELETE("/graph/entities/:id", routes.DeleteEntityHandler)
	api.GET("/graph/entities/:id/relationships", routes.GetEntityRelationshipsHandler)

	// Graph relationship and query routes
	api.POST("/graph/relationships", routes.CreateRelationshipHandler)
	api.GET("/graph/documents/:id/entities", routes.GetDocumentGraphEntitiesHandler)
	api.POST("/graph/traverse", routes.TraverseHandler)
	api.POST("/graph/cypher", routes.CypherHandler)
	api.GET("/graph/visualize", routes.VisualizeHandler)

	// Embedding routes
	api.POST("/graph/embeddings", routes.StoreEmbeddingHandler)
	api.GET("/graph/embeddings/clusters", routes.GetClustersHandler)
	api.GET("/graph/embeddings/:entity_id", routes.GetEmbeddingHandler)
	api.PATCH("/graph/embeddings/:entity_id", routes.UpdateEmbeddingHandler)
	api.DELETE("/graph/embeddings/:entity_id", routes.DeleteEmbeddingHandler)

	// Search routes
	api.POST("/search/documents", routes.SearchDocumentsHandler)
	api.POST("/search/semantic", routes.SemanticSearchHandler)
	api.POST("/search/hybrid", routes.HybridSearchHandler)
	api.POST("/search/rag", routes.RAGHandler)
	api.POST("/search/rag/stream", routes.RAGStreamHandler)
	api.POST("/search/similar", routes.SimilarEntitiesHandler)
	api.POST("/search/entities", routes.SearchEntitiesHandler)

	// View-state session routes
	api.POST("/view/sessions", routes.CreateSessionHandler)
	api.DELETE("/view/sessions/:session_id", routes.DeleteSessionHandler)
	api.POST("/view/sessions/:session_id/load", routes.LoadSessionGraphHandler)
	api.GET("/view/sessions/:session_id/graph", routes.GetSessionGraphHandler)
	api.PUT("/view/sessions/:session_id/graph", routes.SetSessionGraphHandler)
	api.DELETE("/view/sessions/:session_id/graph", routes.ClearSessionGraphHandler)
	api.GET("/view/sessions/:session_id/selection", routes.GetSessionSelectionHandler)
	api.PATCH("/view/sessions/:session_id/filters", routes.SetSessionFiltersHandler)
	api.POST("/view/sessions/:session_id/nodes", routes.AddSessionNodeHandler)
	api.PATCH("/view/sessions/:session_id/nodes/:node_id", routes.UpdateSessionNodeHandler)
	api.DELETE("/view/sessions/:session_id/nodes/:node_id", routes.RemoveSessionNodeHandler)
	api.GET("/view/sessions/:session_id/nodes/:node_id/neighbors", routes.GetSessionNeighborsHandler)
	api.POST("/view/sessions/:session_id/links", routes.AddSessionLinkHandler)
	api.DELETE("/view/sessions/:session_id/links", routes.RemoveSessionLinkHandler)
	api.POST("/view/sessions/:session_id/events/node-click", routes.NodeClickHandler)
	api.POST("/view/sessions/:session_id/events/node-hover", routes.NodeHoverHandler)
	api.POST("/view/sessions/:session_id/events/background-click", routes.BackgroundClickHandler)

	// Audit routes
	api.GET("/audit", routes.ListAuditHandler)
}
