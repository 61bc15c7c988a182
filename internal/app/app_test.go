package app

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/keyxmakerx/bizledger/internal/apperror"
	"github.com/keyxmakerx/bizledger/internal/config"
)

func newTestApp() *App {
	return New(&config.Config{Env: "development", AppName: "Bizledger"}, nil, nil)
}

func TestErrorHandler_APIGetsJSON(t *testing.T) {
	a := newTestApp()
	a.Echo.GET("/api/v1/thing", func(c echo.Context) error {
		return apperror.NewValidation("action must be CREATE, UPDATE or DELETE")
	})

	rec := httptest.NewRecorder()
	a.Echo.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/thing", http.NoBody))

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Header().Get(echo.HeaderContentType), echo.MIMEApplicationJSON)
	assert.Contains(t, rec.Body.String(), "action must be CREATE, UPDATE or DELETE")
}

func TestErrorHandler_InternalDetailsHidden(t *testing.T) {
	a := newTestApp()
	a.Echo.GET("/api/v1/thing", func(c echo.Context) error {
		return apperror.NewInternal(errors.New("Error 1045: Access denied for user 'bizledger'"))
	})
	a.Echo.GET("/raw", func(c echo.Context) error {
		return errors.New("dial tcp 10.0.0.3:3306: connect: connection refused")
	})

	rec := httptest.NewRecorder()
	a.Echo.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/thing", http.NoBody))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "Access denied")

	rec = httptest.NewRecorder()
	a.Echo.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/raw", http.NoBody))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "10.0.0.3")
}

func TestErrorHandler_BrowserGetsHTML(t *testing.T) {
	a := newTestApp()

	rec := httptest.NewRecorder()
	a.Echo.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/missing", http.NoBody))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Header().Get(echo.HeaderContentType), "text/html")
	assert.Contains(t, rec.Body.String(), "<html")
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))
}

func TestIsAPIRequest(t *testing.T) {
	e := echo.New()
	for path, want := range map[string]bool{
		"/api/v1/activity": true,
		"/apiary":          false,
		"/activity":        false,
	} {
		c := e.NewContext(httptest.NewRequest(http.MethodGet, path, http.NoBody), httptest.NewRecorder())
		assert.Equal(t, want, isAPIRequest(c), path)
	}
}
