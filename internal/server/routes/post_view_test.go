package routes

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator"
	"github.com/labstack/echo/v4"

	"github.com/graphaura/backend/internal/server/middleware"
	serverutil "github.com/graphaura/backend/internal/server/util"
)

type testValidator struct {
	validator *validator.Validate
}

func (v *testValidator) Validate(i any) error {
	return v.validator.Struct(i)
}

func newTestApp() *middleware.App {
	return &middleware.App{
		Sessions: serverutil.NewSessionRegistry(time.Hour),
	}
}

func invoke(t *testing.T, app *middleware.App, handler echo.HandlerFunc, method, path, body string, params map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	e := echo.New()
	e.Validator = &testValidator{validator: validator.New()}

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	names := make([]string, 0, len(params))
	values := make([]string, 0, len(params))
	for name, value := range params {
		names = append(names, name)
		values = append(values, value)
	}
	c.SetParamNames(names...)
	c.SetParamValues(values...)

	cc := &middleware.AppContext{Context: c, App: app}
	if err := handler(cc); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	out := map[string]any{}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decoding response body: %v", err)
	}
	return out
}

func TestCreateAndDeleteSession(t *testing.T) {
	app := newTestApp()

	rec := invoke(t, app, CreateSessionHandler, http.MethodPost, "/api/v1/view/sessions", "", nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	body := decodeBody(t, rec)
	sessionID, _ := body["session_id"].(string)
	if sessionID == "" {
		t.Fatal("expected a session id")
	}
	if app.Sessions.Get(sessionID) == nil {
		t.Fatal("session not registered")
	}

	rec = invoke(t, app, DeleteSessionHandler, http.MethodDelete, "/", "", map[string]string{
		"session_id": sessionID,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if app.Sessions.Get(sessionID) != nil {
		t.Fatal("session still registered after delete")
	}
}

func TestSessionNotFound(t *testing.T) {
	app := newTestApp()

	rec := invoke(t, app, GetSessionGraphHandler, http.MethodGet, "/", "", map[string]string{
		"session_id": "missing",
	})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown session, got %d", rec.Code)
	}
}

func TestSessionNodeAndLinkFlow(t *testing.T) {
	app := newTestApp()
	sessionID := app.Sessions.Create()
	params := map[string]string{"session_id": sessionID}

	rec := invoke(t, app, AddSessionNodeHandler, http.MethodPost, "/",
		`{"id": "alice", "name": "Alice", "type": "person"}`, params)
	if rec.Code != http.StatusCreated {
		t.Fatalf("adding node: expected 201, got %d", rec.Code)
	}

	rec = invoke(t, app, AddSessionNodeHandler, http.MethodPost, "/",
		`{"id": "berlin", "name": "Berlin", "type": "location"}`, params)
	if rec.Code != http.StatusCreated {
		t.Fatalf("adding node: expected 201, got %d", rec.Code)
	}

	rec = invoke(t, app, AddSessionLinkHandler, http.MethodPost, "/",
		`{"source": "alice", "target": "berlin", "relationship": "VISITED"}`, params)
	if rec.Code != http.StatusCreated {
		t.Fatalf("adding link: expected 201, got %d", rec.Code)
	}

	rec = invoke(t, app, NodeClickHandler, http.MethodPost, "/",
		`{"node_id": "alice"}`, params)
	if rec.Code != http.StatusOK {
		t.Fatalf("node click: expected 200, got %d", rec.Code)
	}

	rec = invoke(t, app, NodeHoverHandler, http.MethodPost, "/",
		`{"node_id": "alice"}`, params)
	if rec.Code != http.StatusOK {
		t.Fatalf("node hover: expected 200, got %d", rec.Code)
	}

	rec = invoke(t, app, GetSessionSelectionHandler, http.MethodGet, "/", "", params)
	selection := decodeBody(t, rec)
	selected, _ := selection["selected"].(map[string]any)
	if selected == nil || selected["id"] != "alice" {
		t.Fatalf("expected alice selected, got %v", selection["selected"])
	}
	highlighted, _ := selection["highlighted_nodes"].([]any)
	if len(highlighted) != 2 {
		t.Fatalf("expected hovered node plus neighbor highlighted, got %v", highlighted)
	}

	rec = invoke(t, app, BackgroundClickHandler, http.MethodPost, "/", "", params)
	if rec.Code != http.StatusOK {
		t.Fatalf("background click: expected 200, got %d", rec.Code)
	}

	rec = invoke(t, app, GetSessionSelectionHandler, http.MethodGet, "/", "", params)
	selection = decodeBody(t, rec)
	if selection["selected"] != nil {
		t.Fatalf("expected selection cleared, got %v", selection["selected"])
	}
}

func TestSessionFilteredGraph(t *testing.T) {
	app := newTestApp()
	sessionID := app.Sessions.Create()
	params := map[string]string{"session_id": sessionID}

	invoke(t, app, AddSessionNodeHandler, http.MethodPost, "/",
		`{"id": "alice", "name": "Alice", "type": "person"}`, params)
	invoke(t, app, AddSessionNodeHandler, http.MethodPost, "/",
		`{"id": "berlin", "name": "Berlin", "type": "location"}`, params)
	invoke(t, app, AddSessionLinkHandler, http.MethodPost, "/",
		`{"source": "alice", "target": "berlin", "relationship": "VISITED"}`, params)

	rec := invoke(t, app, SetSessionFiltersHandler, http.MethodPatch, "/",
		`{"type": "person"}`, params)
	if rec.Code != http.StatusOK {
		t.Fatalf("setting filters: expected 200, got %d", rec.Code)
	}

	rec = invoke(t, app, GetSessionGraphHandler, http.MethodGet, "/", "", params)
	body := decodeBody(t, rec)
	graph, _ := body["graph"].(map[string]any)
	nodes, _ := graph["nodes"].([]any)
	links, _ := graph["links"].([]any)
	if len(nodes) != 1 {
		t.Fatalf("expected 1 node after type filter, got %d", len(nodes))
	}
	if len(links) != 0 {
		t.Fatalf("expected links pruned with filtered endpoint, got %d", len(links))
	}

	rec = invoke(t, app, GetSessionGraphHandler, http.MethodGet, "/?filtered=false", "", params)
	body = decodeBody(t, rec)
	graph, _ = body["graph"].(map[string]any)
	nodes, _ = graph["nodes"].([]any)
	if len(nodes) != 2 {
		t.Fatalf("expected raw graph with 2 nodes, got %d", len(nodes))
	}
}

func TestSetSessionFiltersRejectsUnknownType(t *testing.T) {
	app := newTestApp()
	sessionID := app.Sessions.Create()

	rec := invoke(t, app, SetSessionFiltersHandler, http.MethodPatch, "/",
		`{"type": "organization"}`, map[string]string{"session_id": sessionID})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown type, got %d", rec.Code)
	}
}

func TestRemoveSessionNode(t *testing.T) {
	app := newTestApp()
	sessionID := app.Sessions.Create()
	params := map[string]string{"session_id": sessionID}

	invoke(t, app, AddSessionNodeHandler, http.MethodPost, "/",
		`{"id": "alice", "name": "Alice", "type": "person"}`, params)
	invoke(t, app, AddSessionNodeHandler, http.MethodPost, "/",
		`{"id": "berlin", "name": "Berlin", "type": "location"}`, params)
	invoke(t, app, AddSessionLinkHandler, http.MethodPost, "/",
		`{"source": "alice", "target": "berlin", "relationship": "VISITED"}`, params)

	rec := invoke(t, app, RemoveSessionNodeHandler, http.MethodDelete, "/", "", map[string]string{
		"session_id": sessionID,
		"node_id":    "alice",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("removing node: expected 200, got %d", rec.Code)
	}

	rec = invoke(t, app, GetSessionGraphHandler, http.MethodGet, "/?filtered=false", "", params)
	body := decodeBody(t, rec)
	graph, _ := body["graph"].(map[string]any)
	nodes, _ := graph["nodes"].([]any)
	links, _ := graph["links"].([]any)
	if len(nodes) != 1 {
		t.Fatalf("expected 1 node after removal, got %d", len(nodes))
	}
	if len(links) != 0 {
		t.Fatalf("expected incident links removed, got %d", len(links))
	}
}

func TestGetSessionNeighbors(t *testing.T) {
	app := newTestApp()
	sessionID := app.Sessions.Create()
	params := map[string]string{"session_id": sessionID}

	invoke(t, app, AddSessionNodeHandler, http.MethodPost, "/",
		`{"id": "alice", "name": "Alice", "type": "person"}`, params)
	invoke(t, app, AddSessionNodeHandler, http.MethodPost, "/",
		`{"id": "berlin", "name": "Berlin", "type": "location"}`, params)
	invoke(t, app, AddSessionLinkHandler, http.MethodPost, "/",
		`{"source": "alice", "target": "berlin", "relationship": "VISITED"}`, params)

	rec := invoke(t, app, GetSessionNeighborsHandler, http.MethodGet, "/", "", map[string]string{
		"session_id": sessionID,
		"node_id":    "alice",
	})
	body := decodeBody(t, rec)
	nodes, _ := body["nodes"].([]any)
	if len(nodes) != 1 || nodes[0] != "berlin" {
		t.Fatalf("expected berlin as neighbor, got %v", nodes)
	}
	links, _ := body["links"].([]any)
	if len(links) != 1 || links[0] != "alice-berlin" {
		t.Fatalf("expected link key alice-berlin, got %v", links)
	}
}
