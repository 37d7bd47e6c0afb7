package monitoring

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestMetricsMiddleware_CountsRoutesAndGateway(t *testing.T) {
	gin.SetMode(gin.TestMode)
	Reset()

	router := gin.New()
	router.Use(MetricsMiddleware())
	router.GET("/api/tasks", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.NoRoute(func(c *gin.Context) { c.Status(http.StatusRequestTimeout) })

	for _, path := range []string{"/api/tasks", "/api/tasks", "/styles.css"} {
		req, _ := http.NewRequest("GET", path, nil)
		router.ServeHTTP(httptest.NewRecorder(), req)
	}

	m := GetMetrics()
	if m.RequestCount != 3 {
		t.Errorf("Expected 3 requests, got %d", m.RequestCount)
	}
	if m.Endpoints["GET /api/tasks"] != 2 {
		t.Errorf("Expected 2 task calls, got %d", m.Endpoints["GET /api/tasks"])
	}
	if m.Endpoints["GET "+GatewayRoute] != 1 {
		t.Errorf("Expected 1 gateway call, got %d", m.Endpoints["GET "+GatewayRoute])
	}
	if m.ErrorCount != 1 || m.StatusCodes["408"] != 1 {
		t.Errorf("Expected one 408 error, got errors=%d codes=%v", m.ErrorCount, m.StatusCodes)
	}
}

func TestRunHealthChecks_RunsEveryTime(t *testing.T) {
	Reset()

	calls := 0
	var failing error
	RegisterHealthCheck("storage", func(ctx context.Context) error {
		calls++
		return failing
	})

	if got := RunHealthChecks(context.Background())["storage"].Status; got != "healthy" {
		t.Errorf("Expected healthy, got %s", got)
	}

	failing = errors.New("database is locked")
	check := RunHealthChecks(context.Background())["storage"]
	if check.Status != "unhealthy" || check.Message != "database is locked" {
		t.Errorf("Expected unhealthy check with message, got %+v", check)
	}

	if calls != 2 {
		t.Errorf("Expected the check to run twice, got %d", calls)
	}
}

func TestHealthHandler_Unhealthy(t *testing.T) {
	gin.SetMode(gin.TestMode)
	Reset()
	RegisterHealthCheck("redis", func(ctx context.Context) error { return errors.New("connection refused") })

	router := gin.New()
	router.GET("/health", HealthHandler())

	req, _ := http.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected 503, got %d", w.Code)
	}
}
