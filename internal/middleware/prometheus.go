package middleware

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/bizledger/internal/metrics"
)

// Metrics records HTTP request duration and count. Register it outside
// RequestLogger so the status observed is the one the error handler wrote.
func Metrics() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			// Route pattern, not the raw path, to keep label cardinality bounded.
			path := c.Path()
			if path == "" {
				path = "unknown"
			}
			status := strconv.Itoa(c.Response().Status)
			method := c.Request().Method
			metrics.RequestDuration.WithLabelValues(method, path, status).Observe(time.Since(start).Seconds())
			metrics.RequestsTotal.WithLabelValues(method, path, status).Inc()
			return err
		}
	}
}
