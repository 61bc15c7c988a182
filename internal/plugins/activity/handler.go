package activity

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/bizledger/internal/apperror"
	"github.com/keyxmakerx/bizledger/internal/middleware"
)

// Handler handles HTTP requests for the activity log. Handlers are thin:
// bind request, call service, render response. No business logic lives here.
type Handler struct {
	service ActivityService
	worker  *RecordWorker
	labels  *Labels
}

// NewHandler creates a new activity handler. A nil worker makes POST
// requests write synchronously.
func NewHandler(service ActivityService, worker *RecordWorker, labels *Labels) *Handler {
	if labels == nil {
		labels = DefaultLabels()
	}
	return &Handler{service: service, worker: worker, labels: labels}
}

// Page renders the activity page (GET /activity).
func (h *Handler) Page(c echo.Context) error {
	filter, err := parseFilter(c)
	if err != nil {
		return err
	}

	page, err := h.service.Feed(c.Request().Context(), filter)
	if err != nil {
		return err
	}

	return middleware.Render(c, http.StatusOK, ActivityPage(page, filter, h.labels))
}

// Feed returns one page of the rendered feed as JSON (GET /api/v1/activity).
func (h *Handler) Feed(c echo.Context) error {
	filter, err := parseFilter(c)
	if err != nil {
		return err
	}

	page, err := h.service.Feed(c.Request().Context(), filter)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, page)
}

// Export streams the filtered feed as a CSV download
// (GET /api/v1/activity/export.csv).
func (h *Handler) Export(c echo.Context) error {
	filter, err := parseFilter(c)
	if err != nil {
		return err
	}

	// Buffer the export so a failed query still reaches the error handler
	// with an uncommitted response.
	var buf bytes.Buffer
	if _, err := h.service.Export(c.Request().Context(), filter, &buf); err != nil {
		return err
	}

	filename := fmt.Sprintf("activity-%s.csv", time.Now().UTC().Format("20060102-150405"))
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return c.Blob(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

// Detail returns one record with field changes (GET /api/v1/activity/:id).
func (h *Handler) Detail(c echo.Context) error {
	detail, err := h.service.Detail(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, detail)
}

// History returns the change history of one entity
// (GET /api/v1/records/:collection/:rid/history).
func (h *Handler) History(c echo.Context) error {
	items, err := h.service.History(c.Request().Context(),
		Collection(c.Param("collection")), c.Param("rid"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, items)
}

// Create appends a change record (POST /api/v1/activity). With a worker
// the write is queued and 202 is returned; without one it is synchronous.
func (h *Handler) Create(c echo.Context) error {
	var rec ChangeRecord
	if err := c.Bind(&rec); err != nil {
		return apperror.NewBadRequest("invalid change record")
	}
	if err := validateRecord(&rec); err != nil {
		return err
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	stampRequest(c, &rec)

	if h.worker == nil {
		if err := h.service.Log(c.Request().Context(), &rec); err != nil {
			return err
		}
		return c.JSON(http.StatusCreated, map[string]string{"id": rec.ID})
	}

	if rec.OccurredAt.IsZero() {
		rec.OccurredAt = time.Now().UTC()
	}
	if !h.worker.Enqueue(&rec) {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "activity queue is full")
	}
	return c.JSON(http.StatusAccepted, map[string]string{"id": rec.ID})
}

// stampRequest records the client ip and user agent in the metadata unless
// the caller already supplied them.
func stampRequest(c echo.Context, rec *ChangeRecord) {
	if rec.Metadata == nil {
		rec.Metadata = make(map[string]any, 2)
	}
	if _, ok := rec.Metadata["ip"]; !ok {
		rec.Metadata["ip"] = c.RealIP()
	}
	if ua := c.Request().UserAgent(); ua != "" {
		if _, ok := rec.Metadata["userAgent"]; !ok {
			rec.Metadata["userAgent"] = ua
		}
	}
}

// parseFilter reads the feed filter from query parameters.
func parseFilter(c echo.Context) (FeedFilter, error) {
	f := FeedFilter{
		Collection: Collection(strings.TrimSpace(c.QueryParam("collection"))),
		ActorID:    strings.TrimSpace(c.QueryParam("actor")),
		Query:      strings.TrimSpace(c.QueryParam("q")),
	}

	f.Page, _ = strconv.Atoi(c.QueryParam("page"))
	if f.Page < 1 {
		f.Page = 1
	}

	if a := strings.TrimSpace(c.QueryParam("action")); a != "" {
		f.Action = Action(strings.ToUpper(a))
		if !f.Action.Valid() {
			return f, apperror.NewBadRequest("unknown action filter")
		}
	}

	var err error
	if f.Since, err = parseTimeParam(c.QueryParam("since")); err != nil {
		return f, apperror.NewBadRequest("since must be a date (2006-01-02) or RFC 3339 time")
	}
	if f.Until, err = parseTimeParam(c.QueryParam("until")); err != nil {
		return f, apperror.NewBadRequest("until must be a date (2006-01-02) or RFC 3339 time")
	}
	return f, nil
}

func parseTimeParam(v string) (*time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.DateOnly, v)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
