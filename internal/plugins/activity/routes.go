package activity

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutes sets up all activity routes on the given Echo instance.
// The HTML page lives at /activity; the JSON and CSV surface under
// /api/v1 so the error handler answers with JSON there. writeMW wraps
// only the write endpoint (rate limiting).
func RegisterRoutes(e *echo.Echo, h *Handler, writeMW ...echo.MiddlewareFunc) {
	e.GET("/activity", h.Page)

	api := e.Group("/api/v1")
	api.GET("/activity", h.Feed)
	api.POST("/activity", h.Create, writeMW...)
	api.GET("/activity/export.csv", h.Export)
	api.GET("/activity/:id", h.Detail)
	api.GET("/records/:collection/:rid/history", h.History)
}
