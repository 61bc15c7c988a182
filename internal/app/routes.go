package app

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/keyxmakerx/bizledger/internal/middleware"
	"github.com/keyxmakerx/bizledger/internal/plugins/activity"
)

// RegisterRoutes wires the activity plugin and registers every route.
// This is the single place where infrastructure meets the plugin:
// lookups go MariaDB -> Redis cache -> resolver, records go through the
// async worker.
func (a *App) RegisterRoutes() {
	e := a.Echo
	ac := a.Config.Activity

	e.GET("/", func(c echo.Context) error {
		return c.Redirect(http.StatusFound, "/activity")
	})
	e.GET("/healthz", a.healthz)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	lookup := activity.NewCachedLookup(activity.NewLookupRepository(a.DB), a.Redis, ac.NameCacheTTL)
	resolver := activity.NewResolver(lookup, activity.ResolverOptions{
		Concurrency:  ac.LookupConcurrency,
		DebugLookups: ac.DebugLookups,
	})

	labels := activity.DefaultLabels()
	formatter := activity.NewFormatter(labels, activity.FormatOptions{
		DateLayout: ac.DateLayout,
		Location:   ac.Location,
	})
	describer := activity.NewDescriber(labels, formatter)

	a.Service = activity.NewActivityService(activity.NewActivityRepository(a.DB), resolver, describer)
	a.Worker = activity.NewRecordWorker(a.Service, ac.QueueSize)

	handler := activity.NewHandler(a.Service, a.Worker, labels)
	activity.RegisterRoutes(e, handler,
		middleware.RateLimit(a.Redis, "activity_write", a.Config.HTTP.WriteRateLimit, a.Config.HTTP.WriteRateWindow),
	)
}

// RunBackground starts the record worker and the retention purger. Both
// stop when ctx is cancelled; the returned channel closes once the worker
// has drained its queue.
func (a *App) RunBackground(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		a.Worker.Run(ctx)
	}()
	go activity.RunPurger(ctx, a.Service, a.Config.Activity.Retention, a.Config.Activity.PurgeInterval)
	return done
}

// healthz reports whether MariaDB and Redis answer within two seconds.
func (a *App) healthz(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	status := map[string]string{"status": "ok", "database": "ok"}
	code := http.StatusOK

	if err := a.DB.PingContext(ctx); err != nil {
		status["database"] = "unavailable"
		status["status"] = "degraded"
		code = http.StatusServiceUnavailable
	}

	switch {
	case a.Redis == nil:
		status["redis"] = "disabled"
	case a.Redis.Ping(ctx).Err() != nil:
		status["redis"] = "unavailable"
		status["status"] = "degraded"
		code = http.StatusServiceUnavailable
	default:
		status["redis"] = "ok"
	}

	return c.JSON(code, status)
}
