package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// RemoveSessionNodeHandler removes a node and its incident links from a
// session's graph.
func RemoveSessionNodeHandler(c echo.Context) error {
	type removeNodeResponse struct {
		Message string `json:"message"`
	}

	store := sessionStore(c)
	if store == nil {
		return nil
	}

	store.RemoveNode(c.Param("node_id"))
	return c.JSON(http.StatusOK, removeNodeResponse{
		Message: "Node removed",
	})
}

// RemoveSessionLinkHandler removes the links matching the ordered
// (source, target) pair from a session's graph.
func RemoveSessionLinkHandler(c echo.Context) error {
	type removeLinkBody struct {
		Source string `json:"source" validate:"required"`
		Target string `json:"target" validate:"required"`
	}

	type removeLinkResponse struct {
		Message string `json:"message"`
	}

	store := sessionStore(c)
	if store == nil {
		return nil
	}

	data := new(removeLinkBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, removeLinkResponse{
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, removeLinkResponse{
			Message: "Invalid request body",
		})
	}

	store.RemoveLink(data.Source, data.Target)
	return c.JSON(http.StatusOK, removeLinkResponse{
		Message: "Link removed",
	})
}
