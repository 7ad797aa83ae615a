package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/graphaura/backend/internal/server/middleware"
	"github.com/graphaura/backend/pkg/logger"
	"github.com/graphaura/backend/pkg/model"
	"github.com/graphaura/backend/pkg/viewstate"
)

// sessionStore resolves the view-state store for the session id in the
// route path. Returns nil after writing the 404 response.
func sessionStore(c echo.Context) *viewstate.Store {
	app := c.(*middleware.AppContext).App
	store := app.Sessions.Get(c.Param("session_id"))
	if store == nil {
		_ = c.JSON(http.StatusNotFound, map[string]string{
			"message": "Session not found",
		})
	}
	return store
}

// CreateSessionHandler opens a new visualization session.
func CreateSessionHandler(c echo.Context) error {
	type createSessionResponse struct {
		Message   string `json:"message"`
		SessionID string `json:"session_id"`
	}

	app := c.(*middleware.AppContext).App
	id := app.Sessions.Create()

	return c.JSON(http.StatusCreated, createSessionResponse{
		Message:   "Session created",
		SessionID: id,
	})
}

// DeleteSessionHandler discards a visualization session.
func DeleteSessionHandler(c echo.Context) error {
	type deleteSessionResponse struct {
		Message string `json:"message"`
	}

	app := c.(*middleware.AppContext).App
	app.Sessions.Delete(c.Param("session_id"))

	return c.JSON(http.StatusOK, deleteSessionResponse{
		Message: "Session deleted",
	})
}

// LoadSessionGraphHandler populates a session's graph from the database.
func LoadSessionGraphHandler(c echo.Context) error {
	type loadResponse struct {
		Message string `json:"message"`
		Nodes   int    `json:"nodes"`
		Links   int    `json:"links"`
	}

	store := sessionStore(c)
	if store == nil {
		return nil
	}

	app := c.(*middleware.AppContext).App
	store.Load(c.Request().Context(), app.Graph)
	if msg := store.LoadError(); msg != "" {
		logger.Error("[View] Failed to load session graph", "session_id", c.Param("session_id"), "err", msg)
		return c.JSON(http.StatusBadGateway, loadResponse{
			Message: "Failed to load graph",
		})
	}

	snap := store.GraphData()
	return c.JSON(http.StatusOK, loadResponse{
		Message: "Graph loaded",
		Nodes:   len(snap.Nodes),
		Links:   len(snap.Links),
	})
}

// SetSessionGraphHandler replaces a session's graph with the given snapshot.
func SetSessionGraphHandler(c echo.Context) error {
	type setGraphResponse struct {
		Message string `json:"message"`
	}

	store := sessionStore(c)
	if store == nil {
		return nil
	}

	snap := new(model.Snapshot)
	if err := c.Bind(snap); err != nil {
		return c.JSON(http.StatusBadRequest, setGraphResponse{
			Message: "Invalid request body",
		})
	}

	store.SetGraphData(snap)
	return c.JSON(http.StatusOK, setGraphResponse{
		Message: "Graph replaced",
	})
}

// ClearSessionGraphHandler empties a session's graph and drops its selection.
func ClearSessionGraphHandler(c echo.Context) error {
	type clearResponse struct {
		Message string `json:"message"`
	}

	store := sessionStore(c)
	if store == nil {
		return nil
	}

	store.ClearGraph()
	return c.JSON(http.StatusOK, clearResponse{
		Message: "Graph cleared",
	})
}

// AddSessionNodeHandler appends a node to a session's graph.
func AddSessionNodeHandler(c echo.Context) error {
	type addNodeResponse struct {
		Message string `json:"message"`
	}

	store := sessionStore(c)
	if store == nil {
		return nil
	}

	node := new(model.Node)
	if err := c.Bind(node); err != nil {
		return c.JSON(http.StatusBadRequest, addNodeResponse{
			Message: "Invalid request body",
		})
	}
	if node.ID == "" {
		return c.JSON(http.StatusBadRequest, addNodeResponse{
			Message: "Node id is required",
		})
	}
	if node.Color == "" {
		node.Color = node.Type.Color()
	}

	store.AddNode(node)
	return c.JSON(http.StatusCreated, addNodeResponse{
		Message: "Node added",
	})
}

// AddSessionLinkHandler appends a link to a session's graph.
func AddSessionLinkHandler(c echo.Context) error {
	type addLinkBody struct {
		Source       string  `json:"source" validate:"required"`
		Target       string  `json:"target" validate:"required"`
		Relationship string  `json:"relationship"`
		Strength     float64 `json:"strength"`
		Color        string  `json:"color"`
	}

	type addLinkResponse struct {
		Message string `json:"message"`
	}

	store := sessionStore(c)
	if store == nil {
		return nil
	}

	data := new(addLinkBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, addLinkResponse{
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, addLinkResponse{
			Message: "Invalid request body",
		})
	}

	store.AddLink(&model.Link{
		Source:       data.Source,
		Target:       data.Target,
		Relationship: data.Relationship,
		Strength:     data.Strength,
		Color:        data.Color,
	})
	return c.JSON(http.StatusCreated, addLinkResponse{
		Message: "Link added",
	})
}

// NodeClickHandler records a node selection, mirroring the renderer's
// click event.
func NodeClickHandler(c echo.Context) error {
	type nodeClickBody struct {
		NodeID string `json:"node_id" validate:"required"`
	}

	type nodeClickResponse struct {
		Message string `json:"message"`
	}

	store := sessionStore(c)
	if store == nil {
		return nil
	}

	data := new(nodeClickBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, nodeClickResponse{
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, nodeClickResponse{
			Message: "Invalid request body",
		})
	}

	node := store.Node(data.NodeID)
	if node == nil {
		return c.JSON(http.StatusNotFound, nodeClickResponse{
			Message: "Node not found",
		})
	}

	store.HandleNodeClick(node)
	return c.JSON(http.StatusOK, nodeClickResponse{
		Message: "Node selected",
	})
}

// NodeHoverHandler records a hover target and recomputes the highlight
// sets from its neighbors. An empty node id clears the hover state.
func NodeHoverHandler(c echo.Context) error {
	type nodeHoverBody struct {
		NodeID string `json:"node_id"`
	}

	type nodeHoverResponse struct {
		Message string `json:"message"`
	}

	store := sessionStore(c)
	if store == nil {
		return nil
	}

	data := new(nodeHoverBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, nodeHoverResponse{
			Message: "Invalid request body",
		})
	}

	if data.NodeID == "" {
		store.HandleNodeHover(nil)
		return c.JSON(http.StatusOK, nodeHoverResponse{
			Message: "Hover cleared",
		})
	}

	node := store.Node(data.NodeID)
	if node == nil {
		return c.JSON(http.StatusNotFound, nodeHoverResponse{
			Message: "Node not found",
		})
	}

	store.HandleNodeHover(node)
	return c.JSON(http.StatusOK, nodeHoverResponse{
		Message: "Node hovered",
	})
}

// BackgroundClickHandler clears the selection, mirroring the renderer's
// background-click event.
func BackgroundClickHandler(c echo.Context) error {
	type backgroundClickResponse struct {
		Message string `json:"message"`
	}

	store := sessionStore(c)
	if store == nil {
		return nil
	}

	store.HandleBackgroundClick()
	return c.JSON(http.StatusOK, backgroundClickResponse{
		Message: "Selection cleared",
	})
}
