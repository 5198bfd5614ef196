package httpapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestID(t *testing.T) {
	r := newTestRouter(t, &fakeSessions{}, &fakeUsers{}, nil)

	w, _ := do(t, r, http.MethodGet, "/api/healthz", nil, func(r *http.Request) { r.Header.Set("X-Request-Id", "req-42") })
	assert.Equal(t, "req-42", w.Header().Get("X-Request-Id"))

	w, _ = do(t, r, http.MethodGet, "/api/healthz", nil)
	assert.NotEmpty(t, w.Header().Get("X-Request-Id"))
}

func TestRecovery(t *testing.T) {
	engine := gin.New()
	engine.Use(RequestID(), Recovery(discardLogger()))
	engine.GET("/boom", func(*gin.Context) { panic("kaboom") })

	w, resp := do(t, engine, http.MethodGet, "/boom", nil)
	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Internal Server Error!", resp.Error.Message)
	assert.NotContains(t, w.Body.String(), "kaboom")
}

func TestCORS(t *testing.T) {
	engine := gin.New()
	engine.Use(CORS([]string{"https://app.example.com"}))
	engine.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/x", nil)
	req.Header.Set("Origin", "https://app.example.com")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	w = httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Credentials"))
}

func TestCORS_AllowAll(t *testing.T) {
	engine := gin.New()
	engine.Use(CORS(nil))
	engine.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Credentials"), "unlisted origins never get credentials")
}

func TestHealth(t *testing.T) {
	r := newTestRouter(t, &fakeSessions{}, &fakeUsers{}, map[string]HealthCheck{
		"postgres": func(context.Context) error { return nil },
	})
	w, resp := do(t, r, http.MethodGet, "/api/healthz", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, resp.Success)
	assert.Contains(t, string(resp.Data), `"postgres":"ok"`)

	r = newTestRouter(t, &fakeSessions{}, &fakeUsers{}, map[string]HealthCheck{
		"postgres": func(context.Context) error { return nil },
		"redis":    func(context.Context) error { return errors.New("connection refused") },
	})
	w, resp = do(t, r, http.MethodGet, "/api/healthz", nil)
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.False(t, resp.Success)
	assert.Contains(t, string(resp.Data), `"redis":"error"`)
	assert.NotContains(t, w.Body.String(), "connection refused")
}
