package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/graphaura/backend/pkg/model"
)

// GetSessionGraphHandler returns a session's graph with the active filters
// applied. Pass filtered=false to get the raw graph.
func GetSessionGraphHandler(c echo.Context) error {
	type getGraphResponse struct {
		Graph   *model.Snapshot `json:"graph"`
		Loading bool            `json:"loading"`
	}

	store := sessionStore(c)
	if store == nil {
		return nil
	}

	snap := store.FilteredView()
	if c.QueryParam("filtered") == "false" {
		snap = store.GraphData()
	}

	return c.JSON(http.StatusOK, getGraphResponse{
		Graph:   snap,
		Loading: store.IsLoading(),
	})
}

// GetSessionSelectionHandler returns the session's selection, hover, and
// highlight state.
func GetSessionSelectionHandler(c echo.Context) error {
	type selectionResponse struct {
		Selected         *model.Node `json:"selected"`
		Hovered          *model.Node `json:"hovered"`
		HighlightedNodes []string    `json:"highlighted_nodes"`
		HighlightedLinks []string    `json:"highlighted_links"`
	}

	store := sessionStore(c)
	if store == nil {
		return nil
	}

	resp := selectionResponse{
		Selected:         store.SelectedNode(),
		Hovered:          store.HoveredNode(),
		HighlightedNodes: []string{},
		HighlightedLinks: []string{},
	}
	for id := range store.HighlightedNodes() {
		resp.HighlightedNodes = append(resp.HighlightedNodes, id)
	}
	for key := range store.HighlightedLinks() {
		resp.HighlightedLinks = append(resp.HighlightedLinks, key)
	}

	return c.JSON(http.StatusOK, resp)
}

// GetSessionNeighborsHandler returns the nodes adjacent to a node and the
// identity keys of the incident links.
func GetSessionNeighborsHandler(c echo.Context) error {
	type neighborsResponse struct {
		Nodes []string `json:"nodes"`
		Links []string `json:"links"`
	}

	store := sessionStore(c)
	if store == nil {
		return nil
	}

	neighbors := store.Neighbors(c.Param("node_id"))
	resp := neighborsResponse{
		Nodes: []string{},
		Links: []string{},
	}
	for id := range neighbors.Nodes {
		resp.Nodes = append(resp.Nodes, id)
	}
	for key := range neighbors.Links {
		resp.Links = append(resp.Links, key)
	}

	return c.JSON(http.StatusOK, resp)
}
