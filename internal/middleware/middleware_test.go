package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"smart-task-list/internal/config"
	"smart-task-list/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestRateLimiter_RejectsAfterBurst(t *testing.T) {
	gin.SetMode(gin.TestMode)

	limiter := middleware.NewRateLimiter(config.RateLimitConfig{
		Enabled:        true,
		RequestsPerMin: 1,
		BurstSize:      2,
	})

	router := gin.New()
	router.Use(limiter.Middleware())
	router.GET("/api/tasks", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	codes := []int{}
	for i := 0; i < 3; i++ {
		req, _ := http.NewRequest("GET", "/api/tasks", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	req, _ := http.NewRequest("GET", "/api/tasks", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code, "other clients have their own bucket")
}

func TestRateLimiter_CleanupDropsIdleClients(t *testing.T) {
	limiter := middleware.NewRateLimiter(config.RateLimitConfig{
		RequestsPerMin:  60,
		BurstSize:       1,
		CleanupInterval: time.Nanosecond,
	})

	assert.True(t, limiter.Allow("a"))
	time.Sleep(time.Millisecond)
	assert.Equal(t, 1, limiter.Cleanup())
	assert.True(t, limiter.Allow("a"), "a forgotten client starts with a full bucket")
}

func TestCORS_AllowsConfiguredOrigin(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(middleware.CORS(config.CORSConfig{AllowedOrigins: []string{"http://localhost:8080"}}))
	router.GET("/api/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"online": true})
	})

	req, _ := http.NewRequest("GET", "/api/status", nil)
	req.Header.Set("Origin", "http://localhost:8080")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "http://localhost:8080", w.Header().Get("Access-Control-Allow-Origin"))

	req, _ = http.NewRequest("GET", "/api/status", nil)
	req.Header.Set("Origin", "http://evil.example.com")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}
