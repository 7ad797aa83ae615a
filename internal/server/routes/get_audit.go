package routes

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/graphaura/backend/internal/audit"
	"github.com/graphaura/backend/internal/server/middleware"
	"github.com/graphaura/backend/pkg/logger"
)

// ListAuditHandler returns recent audit entries, newest first.
func ListAuditHandler(c echo.Context) error {
	type listAuditResponse struct {
		Message string        `json:"message,omitempty"`
		Entries []audit.Entry `json:"entries"`
	}

	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	app := c.(*middleware.AppContext).App
	entries, err := audit.List(c.Request().Context(), app.DBConn, limit)
	if err != nil {
		logger.Error("[Audit] Failed to list entries", "err", err)
		return c.JSON(http.StatusInternalServerError, listAuditResponse{
			Message: "Internal server error",
		})
	}
	if entries == nil {
		entries = []audit.Entry{}
	}

	return c.JSON(http.StatusOK, listAuditResponse{Entries: entries})
}
