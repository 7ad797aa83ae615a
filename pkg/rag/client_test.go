package rag

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(Config{BaseURL: server.URL})
}

func TestSupportedFormat(t *testing.T) {
	for _, ext := range []string{"pdf", "docx", "txt", "html", "md", "csv", "json"} {
		if !SupportedFormat(ext) {
			t.Errorf("SupportedFormat(%q) = false, want true", ext)
		}
	}
	for _, ext := range []string{"exe", "png", ""} {
		if SupportedFormat(ext) {
			t.Errorf("SupportedFormat(%q) = true, want false", ext)
		}
	}
}

func TestIngestDocument(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v3/documents" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parsing multipart form: %v", err)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("missing file part: %v", err)
		}
		defer file.Close()
		if header.Filename != "report.pdf" {
			t.Errorf("filename = %q, want report.pdf", header.Filename)
		}
		if meta := r.FormValue("metadata"); !strings.Contains(meta, "quarterly") {
			t.Errorf("metadata field = %q, want it to carry the tag", meta)
		}
		fmt.Fprint(w, `{"results": {"document_id": "doc-1"}}`)
	})

	id, err := client.IngestDocument(context.Background(), "report.pdf",
		strings.NewReader("%PDF-1.4"), map[string]any{"tag": "quarterly"})
	if err != nil {
		t.Fatalf("IngestDocument() error = %v", err)
	}
	if id != "doc-1" {
		t.Errorf("document id = %q, want doc-1", id)
	}
}

func TestIngestDocumentRejectsUnsupportedFormat(t *testing.T) {
	client := NewClient(Config{BaseURL: "http://unused"})

	_, err := client.IngestDocument(context.Background(), "malware.exe",
		strings.NewReader("MZ"), nil)
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("error = %v, want ErrUnsupportedFormat", err)
	}
}

func TestGetDocumentNotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := client.GetDocument(context.Background(), "missing")
	if !errors.Is(err, ErrDocumentNotFound) {
		t.Errorf("error = %v, want ErrDocumentNotFound", err)
	}
}

func TestDocumentEntitiesGrouping(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v3/documents/doc-1/entities" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		fmt.Fprint(w, `{"results": [
			{"id": "e1", "name": "Alice", "category": "PERSON"},
			{"id": "e2", "name": "Berlin", "category": "location"},
			{"id": "e3", "name": "Summit", "category": "Event"},
			{"id": "e4", "name": "Acme", "category": "organization"}
		]}`)
	})

	grouped, err := client.DocumentEntities(context.Background(), "doc-1")
	if err != nil {
		t.Fatalf("DocumentEntities() error = %v", err)
	}
	if len(grouped.Persons) != 1 || grouped.Persons[0].Name != "Alice" {
		t.Errorf("persons = %+v, want [Alice]", grouped.Persons)
	}
	if len(grouped.Locations) != 1 || grouped.Locations[0].Name != "Berlin" {
		t.Errorf("locations = %+v, want [Berlin]", grouped.Locations)
	}
	if len(grouped.Events) != 1 || grouped.Events[0].Name != "Summit" {
		t.Errorf("events = %+v, want [Summit]", grouped.Events)
	}
	if len(grouped.Other) != 1 || grouped.Other[0].Name != "Acme" {
		t.Errorf("other = %+v, want [Acme]", grouped.Other)
	}
}

func TestSearch(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v3/retrieval/search" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		fmt.Fprint(w, `{"results": {"chunk_search_results": [
			{"chunk_id": "c1", "document_id": "doc-1", "text": "hello", "score": 0.92}
		]}}`)
	})

	results, err := client.Search(context.Background(), &SearchRequest{Query: "hello"})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) != 1 || results[0].ChunkID != "c1" {
		t.Errorf("results = %+v, want one chunk c1", results)
	}
}

func TestRAGQuery(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"results": {
			"generated_answer": "Alice attended the summit.",
			"search_results": {"chunk_search_results": [
				{"chunk_id": "c1", "document_id": "doc-1", "text": "...", "score": 0.8}
			]}
		}}`)
	})

	resp, err := client.RAGQuery(context.Background(), &SearchRequest{Query: "who attended?"})
	if err != nil {
		t.Fatalf("RAGQuery() error = %v", err)
	}
	if resp.Answer != "Alice attended the summit." {
		t.Errorf("answer = %q", resp.Answer)
	}
	if len(resp.Results) != 1 {
		t.Errorf("supporting chunks = %d, want 1", len(resp.Results))
	}
}

func TestRAGQueryStream(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: Alice\n\n")
		fmt.Fprint(w, ": keepalive comment\n\n")
		fmt.Fprint(w, "data: attended.\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
		fmt.Fprint(w, "data: ignored after done\n\n")
	})

	var chunks []string
	err := client.RAGQueryStream(context.Background(), &SearchRequest{Query: "q"}, func(chunk string) error {
		chunks = append(chunks, chunk)
		return nil
	})
	if err != nil {
		t.Fatalf("RAGQueryStream() error = %v", err)
	}
	if len(chunks) != 2 || chunks[0] != "Alice" || chunks[1] != "attended." {
		t.Errorf("chunks = %v, want [Alice attended.]", chunks)
	}
}

func TestRAGQueryStreamCallbackError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "data: first\n\ndata: second\n\n")
	})

	wantErr := errors.New("stop")
	var calls int
	err := client.RAGQueryStream(context.Background(), &SearchRequest{Query: "q"}, func(string) error {
		calls++
		return wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Errorf("error = %v, want callback error", err)
	}
	if calls != 1 {
		t.Errorf("callback calls = %d, want 1", calls)
	}
}

func TestHealthUnavailable(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	if err := client.Health(context.Background()); !errors.Is(err, ErrServiceUnavailable) {
		t.Errorf("error = %v, want ErrServiceUnavailable", err)
	}
}
