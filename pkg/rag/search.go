package rag

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// SearchRequest describes a retrieval query.
type SearchRequest struct {
	Query       string         `json:"query" validate:"required"`
	Limit       int            `json:"limit,omitempty"`
	Filters     map[string]any `json:"filters,omitempty"`
	UseHybrid   bool           `json:"use_hybrid_search,omitempty"`
	UseSemantic bool           `json:"use_semantic_search,omitempty"`
}

// SearchResult is one retrieved chunk.
type SearchResult struct {
	ChunkID    string         `json:"chunk_id"`
	DocumentID string         `json:"document_id"`
	Text       string         `json:"text"`
	Score      float64        `json:"score"`
	Metadata   map[string]any `json:"metadata"`
}

// RAGResponse is a generated answer with its supporting chunks.
type RAGResponse struct {
	Answer  string         `json:"answer"`
	Results []SearchResult `json:"results"`
}

func searchSettings(req *SearchRequest) map[string]any {
	limit := req.Limit
	if limit <= 0 {
		limit = 10
	}
	settings := map[string]any{
		"limit":               limit,
		"use_hybrid_search":   req.UseHybrid,
		"use_semantic_search": req.UseSemantic || !req.UseHybrid,
	}
	if len(req.Filters) > 0 {
		settings["filters"] = req.Filters
	}
	return settings
}

// Search runs a retrieval query and returns the matching chunks.
func (c *Client) Search(ctx context.Context, req *SearchRequest) ([]SearchResult, error) {
	payload := map[string]any{
		"query":           req.Query,
		"search_settings": searchSettings(req),
	}

	var result struct {
		Results struct {
			ChunkSearchResults []SearchResult `json:"chunk_search_results"`
		} `json:"results"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/v3/retrieval/search", payload, &result); err != nil {
		return nil, err
	}
	return result.Results.ChunkSearchResults, nil
}

// RAGQuery runs retrieval-augmented generation and returns the full answer.
func (c *Client) RAGQuery(ctx context.Context, req *SearchRequest) (*RAGResponse, error) {
	payload := map[string]any{
		"query":           req.Query,
		"search_settings": searchSettings(req),
	}

	var result struct {
		Results struct {
			GeneratedAnswer string `json:"generated_answer"`
			SearchResults   struct {
				ChunkSearchResults []SearchResult `json:"chunk_search_results"`
			} `json:"search_results"`
		} `json:"results"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/v3/retrieval/rag", payload, &result); err != nil {
		return nil, err
	}
	return &RAGResponse{
		Answer:  result.Results.GeneratedAnswer,
		Results: result.Results.SearchResults.ChunkSearchResults,
	}, nil
}

// RAGQueryStream runs retrieval-augmented generation with a streamed
// answer, invoking onChunk for each answer fragment as it arrives. The
// stream is server-sent events; lines other than data payloads are
// ignored, and a [DONE] sentinel ends the stream.
func (c *Client) RAGQueryStream(ctx context.Context, req *SearchRequest, onChunk func(string) error) error {
	payload := map[string]any{
		"query":              req.Query,
		"search_settings":    searchSettings(req),
		"include_web_search": false,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}

	httpReq, err := c.newRequest(ctx, http.MethodPost, "/v3/retrieval/rag?stream=true", strings.NewReader(string(data)))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	if err := checkResponse(resp); err != nil {
		return err
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		chunk := strings.TrimPrefix(line, "data: ")
		if chunk == "[DONE]" {
			return nil
		}
		if err := onChunk(chunk); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading stream: %w", err)
	}
	return nil
}
