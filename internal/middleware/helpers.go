package middleware

import (
	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/bizledger/internal/templates/layouts"
)

// AppName is copied into every rendered page's context. Set once at startup.
var AppName string

// Render writes a templ component to the response with the given status
// code, after copying layout data (app name, active path) into the Go
// context the component reads from.
func Render(c echo.Context, statusCode int, component templ.Component) error {
	ctx := c.Request().Context()
	ctx = layouts.SetActivePath(ctx, c.Request().URL.Path)
	if AppName != "" {
		ctx = layouts.SetAppName(ctx, AppName)
	}

	c.Response().Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
	c.Response().WriteHeader(statusCode)
	return component.Render(ctx, c.Response().Writer)
}
