package routes

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/graphaura/backend/internal/server/middleware"
	"github.com/graphaura/backend/pkg/graphdb"
	"github.com/graphaura/backend/pkg/logger"
	"github.com/graphaura/backend/pkg/model"
	"github.com/graphaura/backend/pkg/rag"
	"github.com/graphaura/backend/pkg/vector"
)

// SearchDocumentsHandler runs a retrieval query against ingested documents.
func SearchDocumentsHandler(c echo.Context) error {
	type searchResponse struct {
		Message string             `json:"message,omitempty"`
		Results []rag.SearchResult `json:"results"`
	}

	req := new(rag.SearchRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, searchResponse{
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, searchResponse{
			Message: "Invalid request body",
		})
	}

	app := c.(*middleware.AppContext).App
	results, err := app.RAG.Search(c.Request().Context(), req)
	if err != nil {
		if errors.Is(err, rag.ErrServiceUnavailable) {
			return c.JSON(http.StatusBadGateway, searchResponse{
				Message: "Retrieval service unavailable",
			})
		}
		logger.Error("[Search] Document search failed", "err", err)
		return c.JSON(http.StatusInternalServerError, searchResponse{
			Message: "Internal server error",
		})
	}
	if results == nil {
		results = []rag.SearchResult{}
	}

	return c.JSON(http.StatusOK, searchResponse{Results: results})
}

// RAGHandler answers a question over the ingested documents with the full
// generated answer in one response.
func RAGHandler(c echo.Context) error {
	type ragHandlerResponse struct {
		Message string             `json:"message,omitempty"`
		Answer  string             `json:"answer,omitempty"`
		Results []rag.SearchResult `json:"results,omitempty"`
	}

	req := new(rag.SearchRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, ragHandlerResponse{
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, ragHandlerResponse{
			Message: "Invalid request body",
		})
	}

	app := c.(*middleware.AppContext).App
	answer, err := app.RAG.RAGQuery(c.Request().Context(), req)
	if err != nil {
		if errors.Is(err, rag.ErrServiceUnavailable) {
			return c.JSON(http.StatusBadGateway, ragHandlerResponse{
				Message: "Retrieval service unavailable",
			})
		}
		logger.Error("[Search] RAG query failed", "err", err)
		return c.JSON(http.StatusInternalServerError, ragHandlerResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusOK, ragHandlerResponse{
		Answer:  answer.Answer,
		Results: answer.Results,
	})
}

// RAGStreamHandler answers a question with a server-sent event stream,
// forwarding answer fragments as they arrive from the retrieval service.
func RAGStreamHandler(c echo.Context) error {
	type ragStreamResponse struct {
		Message string `json:"message"`
	}

	req := new(rag.SearchRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, ragStreamResponse{
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, ragStreamResponse{
			Message: "Invalid request body",
		})
	}

	c.Response().Header().Set(echo.HeaderContentType, "text/event-stream")
	c.Response().Header().Set("Cache-Control", "no-cache")
	c.Response().Header().Set("Connection", "keep-alive")
	c.Response().WriteHeader(http.StatusOK)

	app := c.(*middleware.AppContext).App
	err := app.RAG.RAGQueryStream(c.Request().Context(), req, func(chunk string) error {
		if _, err := fmt.Fprintf(c.Response(), "data: %s\n\n", chunk); err != nil {
			return err
		}
		c.Response().Flush()
		return nil
	})
	if err != nil {
		logger.Error("[Search] RAG stream failed", "err", err)
		fmt.Fprintf(c.Response(), "data: {\"error\": \"stream interrupted\"}\n\n")
		c.Response().Flush()
		return nil
	}

	fmt.Fprint(c.Response(), "data: [DONE]\n\n")
	c.Response().Flush()
	return nil
}

// SemanticSearchHandler runs a purely semantic retrieval query.
func SemanticSearchHandler(c echo.Context) error {
	type semanticResponse struct {
		Message string             `json:"message,omitempty"`
		Results []rag.SearchResult `json:"results"`
	}

	req := new(rag.SearchRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, semanticResponse{
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, semanticResponse{
			Message: "Invalid request body",
		})
	}
	req.UseHybrid = false
	req.UseSemantic = true

	app := c.(*middleware.AppContext).App
	results, err := app.RAG.Search(c.Request().Context(), req)
	if err != nil {
		if errors.Is(err, rag.ErrServiceUnavailable) {
			return c.JSON(http.StatusBadGateway, semanticResponse{
				Message: "Retrieval service unavailable",
			})
		}
		logger.Error("[Search] Semantic search failed", "err", err)
		return c.JSON(http.StatusInternalServerError, semanticResponse{
			Message: "Internal server error",
		})
	}
	if results == nil {
		results = []rag.SearchResult{}
	}

	return c.JSON(http.StatusOK, semanticResponse{Results: results})
}

// HybridSearchHandler searches documents and graph entities at once: the
// retrieval service with hybrid search on, plus a name substring match
// over the graph.
func HybridSearchHandler(c echo.Context) error {
	type hybridResponse struct {
		Message  string             `json:"message,omitempty"`
		Results  []rag.SearchResult `json:"results"`
		Entities []*graphdb.Entity  `json:"entities"`
	}

	req := new(rag.SearchRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, hybridResponse{
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, hybridResponse{
			Message: "Invalid request body",
		})
	}
	req.UseHybrid = true

	app := c.(*middleware.AppContext).App
	ctx := c.Request().Context()

	results, err := app.RAG.Search(ctx, req)
	if err != nil {
		if errors.Is(err, rag.ErrServiceUnavailable) {
			return c.JSON(http.StatusBadGateway, hybridResponse{
				Message: "Retrieval service unavailable",
			})
		}
		logger.Error("[Search] Hybrid search failed", "err", err)
		return c.JSON(http.StatusInternalServerError, hybridResponse{
			Message: "Internal server error",
		})
	}

	limit := req.Limit
	if limit <= 0 {
		limit = 10
	}
	entities, err := app.Graph.FindEntities(ctx, &graphdb.EntityFilter{NameContains: req.Query}, limit, 0)
	if err != nil {
		logger.Error("[Search] Hybrid entity lookup failed", "err", err)
		return c.JSON(http.StatusInternalServerError, hybridResponse{
			Message: "Internal server error",
		})
	}

	if results == nil {
		results = []rag.SearchResult{}
	}
	if entities == nil {
		entities = []*graphdb.Entity{}
	}

	return c.JSON(http.StatusOK, hybridResponse{
		Results:  results,
		Entities: entities,
	})
}

// SimilarEntitiesHandler finds stored entities whose embeddings are close
// to the query embedding.
func SimilarEntitiesHandler(c echo.Context) error {
	type similarBody struct {
		Embedding   []float32 `json:"embedding" validate:"required"`
		Limit       int       `json:"limit"`
		EntityTypes []string  `json:"entity_types"`
		Threshold   float64   `json:"threshold"`
	}

	type similarResponse struct {
		Message string         `json:"message,omitempty"`
		Matches []vector.Match `json:"matches"`
	}

	data := new(similarBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, similarResponse{
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, similarResponse{
			Message: "Invalid request body",
		})
	}
	for _, t := range data.EntityTypes {
		if !model.EntityType(t).Valid() {
			return c.JSON(http.StatusBadRequest, similarResponse{
				Message: "Unknown entity type: " + t,
			})
		}
	}

	app := c.(*middleware.AppContext).App
	matches, err := app.Vector.SimilaritySearch(c.Request().Context(), data.Embedding, data.Limit, data.EntityTypes, data.Threshold)
	if err != nil {
		if strings.Contains(err.Error(), "dimension mismatch") {
			return c.JSON(http.StatusBadRequest, similarResponse{
				Message: err.Error(),
			})
		}
		logger.Error("[Search] Similarity search failed", "err", err)
		return c.JSON(http.StatusInternalServerError, similarResponse{
			Message: "Internal server error",
		})
	}
	if matches == nil {
		matches = []vector.Match{}
	}

	return c.JSON(http.StatusOK, similarResponse{Matches: matches})
}

// SearchEntitiesHandler finds graph entities by name substring.
func SearchEntitiesHandler(c echo.Context) error {
	type searchEntitiesBody struct {
		Query string   `json:"query" validate:"required"`
		Types []string `json:"types"`
		Limit int      `json:"limit"`
	}

	type searchEntitiesResponse struct {
		Message  string            `json:"message,omitempty"`
		Entities []*graphdb.Entity `json:"entities"`
	}

	data := new(searchEntitiesBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, searchEntitiesResponse{
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, searchEntitiesResponse{
			Message: "Invalid request body",
		})
	}
	if data.Limit <= 0 || data.Limit > 500 {
		data.Limit = 50
	}

	filter := &graphdb.EntityFilter{NameContains: data.Query}
	for _, t := range data.Types {
		entityType := model.EntityType(t)
		if !entityType.Valid() {
			return c.JSON(http.StatusBadRequest, searchEntitiesResponse{
				Message: "Unknown entity type: " + t,
			})
		}
		filter.Types = append(filter.Types, entityType)
	}

	app := c.(*middleware.AppContext).App
	entities, err := app.Graph.FindEntities(c.Request().Context(), filter, data.Limit, 0)
	if err != nil {
		logger.Error("[Search] Entity search failed", "err", err)
		return c.JSON(http.StatusInternalServerError, searchEntitiesResponse{
			Message: "Internal server error",
		})
	}
	if entities == nil {
		entities = []*graphdb.Entity{}
	}

	return c.JSON(http.StatusOK, searchEntitiesResponse{Entities: entities})
}
