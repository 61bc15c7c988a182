// Package middleware provides HTTP middleware for the activity service.
// ratelimit.go implements a per-IP fixed-window rate limiter whose counters
// live in Redis, so every replica behind the proxy shares one budget.
package middleware

import (
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/keyxmakerx/bizledger/internal/metrics"
)

// RateLimit returns middleware that limits requests per IP to maxRequests
// within each window. Returns 429 when exceeded. Redis failures let the
// request through: losing the limiter must not take the API down. A window
// shorter than a millisecond disables the limiter.
func RateLimit(rdb *redis.Client, scope string, maxRequests int, window time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if rdb == nil || maxRequests <= 0 || window < time.Millisecond {
				return next(c)
			}

			ctx := c.Request().Context()
			bucket := time.Now().UnixMilli() / window.Milliseconds()
			key := fmt.Sprintf("ratelimit:%s:%s:%d", scope, c.RealIP(), bucket)

			pipe := rdb.TxPipeline()
			incr := pipe.Incr(ctx, key)
			pipe.Expire(ctx, key, window)
			if _, err := pipe.Exec(ctx); err != nil {
				slog.Warn("rate limiter unavailable",
					slog.String("scope", scope),
					slog.Any("error", err),
				)
				return next(c)
			}

			if incr.Val() > int64(maxRequests) {
				metrics.RateLimited.WithLabelValues(scope).Inc()
				retry := int(math.Ceil(window.Seconds()))
				c.Response().Header().Set("Retry-After", strconv.Itoa(retry))
				return c.JSON(http.StatusTooManyRequests, map[string]string{
					"error":   "Too Many Requests",
					"message": "Rate limit exceeded. Please try again later.",
				})
			}
			return next(c)
		}
	}
}
