package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// CORSConfig holds configuration for the CORS middleware.
type CORSConfig struct {
	// AllowedOrigins lists origins permitted to call the JSON API, e.g. the
	// dashboard frontend. ["*"] allows any origin.
	AllowedOrigins []string
}

// CORS returns middleware that handles Cross-Origin Resource Sharing for
// /api/v1. The dashboard frontend posts change records from its own origin;
// the HTML page is same-origin and never needs it. Credentials are never
// allowed since the API is cookie-less.
func CORS(cfg CORSConfig) echo.MiddlewareFunc {
	allowAll := false
	originSet := make(map[string]bool)
	for _, o := range cfg.AllowedOrigins {
		o = strings.TrimSpace(o)
		if o == "*" {
			allowAll = true
		}
		originSet[o] = true
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			res := c.Response()
			origin := req.Header.Get(echo.HeaderOrigin)

			if origin == "" {
				return next(c)
			}
			if !allowAll && !originSet[origin] {
				// The browser blocks the response client-side.
				return next(c)
			}

			res.Header().Set(echo.HeaderAccessControlAllowOrigin, origin)
			res.Header().Add(echo.HeaderVary, echo.HeaderOrigin)

			if req.Method == http.MethodOptions {
				res.Header().Set(echo.HeaderAccessControlAllowMethods,
					strings.Join([]string{http.MethodGet, http.MethodPost, http.MethodOptions}, ", "))
				res.Header().Set(echo.HeaderAccessControlAllowHeaders,
					strings.Join([]string{echo.HeaderContentType, echo.HeaderXRequestID}, ", "))
				res.Header().Set(echo.HeaderAccessControlMaxAge, "3600")
				return c.NoContent(http.StatusNoContent)
			}

			res.Header().Set(echo.HeaderAccessControlExposeHeaders,
				strings.Join([]string{echo.HeaderXRequestID, echo.HeaderContentDisposition}, ", "))
			return next(c)
		}
	}
}
