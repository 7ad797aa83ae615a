// Package rag is a client for the R2R retrieval service: document
// ingestion, search, and retrieval-augmented generation.
package rag

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

var (
	// ErrUnsupportedFormat is returned when a document's format is not
	// accepted for ingestion.
	ErrUnsupportedFormat = errors.New("unsupported document format")

	// ErrDocumentNotFound is returned when the service has no document
	// with the given id.
	ErrDocumentNotFound = errors.New("document not found")

	// ErrServiceUnavailable is returned when the service cannot be
	// reached or reports itself unhealthy.
	ErrServiceUnavailable = errors.New("rag service unavailable")
)

// supportedFormats are the file extensions accepted for ingestion.
var supportedFormats = map[string]struct{}{
	"pdf":  {},
	"docx": {},
	"txt":  {},
	"html": {},
	"md":   {},
	"csv":  {},
	"json": {},
}

// SupportedFormat reports whether the file extension (without dot) is
// accepted for ingestion.
func SupportedFormat(ext string) bool {
	_, ok := supportedFormats[ext]
	return ok
}

// Config contains connection settings for the R2R service.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Client talks to an R2R instance over HTTP.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a client. The base URL defaults to a local R2R
// instance when empty.
func NewClient(cfg Config) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "http://localhost:7272"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		baseURL:    baseURL,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	return req, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, payload any, out any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	if err := checkResponse(resp); err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

func checkResponse(resp *http.Response) error {
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusNotFound:
		return ErrDocumentNotFound
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: status %d", ErrServiceUnavailable, resp.StatusCode)
	default:
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("rag service returned %d: %s", resp.StatusCode, data)
	}
}

// Health checks that the service is reachable and healthy.
func (c *Client) Health(ctx context.Context) error {
	req, err := c.newRequest(ctx, http.MethodGet, "/v3/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrServiceUnavailable, resp.StatusCode)
	}
	return nil
}
