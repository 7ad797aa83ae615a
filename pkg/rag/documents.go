package rag

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"time"
)

// Document describes an ingested document.
type Document struct {
	ID               string         `json:"id"`
	Title            string         `json:"title"`
	IngestionStatus  string         `json:"ingestion_status"`
	ExtractionStatus string         `json:"extraction_status"`
	SizeInBytes      int64          `json:"size_in_bytes"`
	Metadata         map[string]any `json:"metadata"`
	CreatedAt        time.Time      `json:"created_at"`
}

// DocumentEntity is one entity extracted from a document.
type DocumentEntity struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Category    string         `json:"category"`
	Description string         `json:"description"`
	Metadata    map[string]any `json:"metadata"`
}

// GroupedEntities holds a document's extracted entities bucketed into the
// categories the graph view knows how to render.
type GroupedEntities struct {
	Persons   []DocumentEntity `json:"persons"`
	Events    []DocumentEntity `json:"events"`
	Locations []DocumentEntity `json:"locations"`
	Other     []DocumentEntity `json:"other"`
}

// IngestDocument uploads a document for ingestion. The filename's
// extension decides the format and must be one of the supported set.
func (c *Client) IngestDocument(ctx context.Context, filename string, content io.Reader, metadata map[string]any) (string, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	if !SupportedFormat(ext) {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("creating form file: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return "", fmt.Errorf("writing document body: %w", err)
	}

	if metadata != nil {
		metaJSON, err := json.Marshal(metadata)
		if err != nil {
			return "", fmt.Errorf("marshaling metadata: %w", err)
		}
		if err := writer.WriteField("metadata", string(metaJSON)); err != nil {
			return "", fmt.Errorf("writing metadata field: %w", err)
		}
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("closing multipart body: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/v3/documents", &buf)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	if err := checkResponse(resp); err != nil {
		return "", err
	}

	var result struct {
		Results struct {
			DocumentID string `json:"document_id"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decoding ingest response: %w", err)
	}
	return result.Results.DocumentID, nil
}

// GetDocument fetches a document's status and metadata.
func (c *Client) GetDocument(ctx context.Context, documentID string) (*Document, error) {
	var result struct {
		Results Document `json:"results"`
	}
	err := c.doJSON(ctx, http.MethodGet, "/v3/documents/"+url.PathEscape(documentID), nil, &result)
	if err != nil {
		return nil, err
	}
	return &result.Results, nil
}

// ListDocuments pages through the ingested documents.
func (c *Client) ListDocuments(ctx context.Context, offset, limit int) ([]Document, error) {
	if limit <= 0 {
		limit = 100
	}
	var result struct {
		Results []Document `json:"results"`
	}
	path := fmt.Sprintf("/v3/documents?offset=%d&limit=%d", offset, limit)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &result); err != nil {
		return nil, err
	}
	return result.Results, nil
}

// DeleteDocument removes a document and its chunks from the service.
func (c *Client) DeleteDocument(ctx context.Context, documentID string) error {
	return c.doJSON(ctx, http.MethodDelete, "/v3/documents/"+url.PathEscape(documentID), nil, nil)
}

// DocumentEntities fetches a document's extracted entities grouped by
// category. Categories outside person/event/location land in Other.
func (c *Client) DocumentEntities(ctx context.Context, documentID string) (*GroupedEntities, error) {
	var result struct {
		Results []DocumentEntity `json:"results"`
	}
	path := "/v3/documents/" + url.PathEscape(documentID) + "/entities"
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &result); err != nil {
		return nil, err
	}

	grouped := &GroupedEntities{
		Persons:   []DocumentEntity{},
		Events:    []DocumentEntity{},
		Locations: []DocumentEntity{},
		Other:     []DocumentEntity{},
	}
	for _, e := range result.Results {
		switch strings.ToLower(e.Category) {
		case "person":
			grouped.Persons = append(grouped.Persons, e)
		case "event":
			grouped.Events = append(grouped.Events, e)
		case "location":
			grouped.Locations = append(grouped.Locations, e)
		default:
			grouped.Other = append(grouped.Other, e)
		}
	}
	return grouped, nil
}
