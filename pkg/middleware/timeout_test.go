package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/richxcame/fare-engine/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestTimeout(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("should timeout after configured duration", func(t *testing.T) {
		if testing.Short() {
			t.Skip("Skipping timeout test in short mode")
		}

		timeoutConfig := &config.TimeoutConfig{
			DefaultRequestTimeout: 1,
			RouteOverrides:        make(map[string]int),
		}

		router := gin.New()
		router.Use(RequestTimeout(timeoutConfig))
		router.GET("/slow", func(c *gin.Context) {
			time.Sleep(2 * time.Second)
			c.JSON(http.StatusOK, gin.H{"message": "success"})
		})

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/slow", nil))

		assert.Equal(t, http.StatusGatewayTimeout, w.Code)
		assert.Contains(t, w.Body.String(), "Request timeout")
		assert.Equal(t, "true", w.Header().Get("X-Timeout"))
	})

	t.Run("should not timeout if request completes in time", func(t *testing.T) {
		timeoutConfig := &config.TimeoutConfig{
			DefaultRequestTimeout: 2,
			RouteOverrides:        make(map[string]int),
		}

		router := gin.New()
		router.Use(RequestTimeout(timeoutConfig))
		router.POST("/api/v1/pricing/estimate", func(c *gin.Context) {
			time.Sleep(50 * time.Millisecond)
			c.JSON(http.StatusOK, gin.H{"message": "success"})
		})

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/pricing/estimate", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "success")
		assert.Empty(t, w.Header().Get("X-Timeout"))
	})

	t.Run("should use route-specific timeout override", func(t *testing.T) {
		if testing.Short() {
			t.Skip("Skipping timeout test in short mode")
		}

		timeoutConfig := &config.TimeoutConfig{
			DefaultRequestTimeout: 1,
			RouteOverrides: map[string]int{
				"POST:/api/v1/pricing/estimate/batch": 3,
			},
		}

		router := gin.New()
		router.Use(RequestTimeout(timeoutConfig))
		router.POST("/api/v1/pricing/estimate/batch", func(c *gin.Context) {
			time.Sleep(1500 * time.Millisecond)
			c.JSON(http.StatusOK, gin.H{"message": "success"})
		})

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/pricing/estimate/batch", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "success")
	})

	t.Run("should expose a deadline on the request context", func(t *testing.T) {
		timeoutConfig := &config.TimeoutConfig{
			DefaultRequestTimeout: 5,
			RouteOverrides:        make(map[string]int),
		}

		router := gin.New()
		router.Use(RequestTimeout(timeoutConfig))

		var hasDeadline bool
		router.GET("/deadline", func(c *gin.Context) {
			_, hasDeadline = c.Request.Context().Deadline()
			c.Status(http.StatusNoContent)
		})

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/deadline", nil))

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.True(t, hasDeadline)
	})

	t.Run("should recover a panicking handler", func(t *testing.T) {
		timeoutConfig := &config.TimeoutConfig{
			DefaultRequestTimeout: 1,
			RouteOverrides:        make(map[string]int),
		}

		router := gin.New()
		router.Use(gin.Recovery())
		router.Use(RequestTimeout(timeoutConfig))
		router.GET("/panic", func(c *gin.Context) {
			panic("test panic")
		})

		w := httptest.NewRecorder()
		require.NotPanics(t, func() {
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))
		})
	})

	t.Run("should propagate correlation ID on timeout", func(t *testing.T) {
		if testing.Short() {
			t.Skip("Skipping timeout test in short mode")
		}

		timeoutConfig := &config.TimeoutConfig{
			DefaultRequestTimeout: 1,
			RouteOverrides:        make(map[string]int),
		}

		router := gin.New()
		router.Use(CorrelationID())
		router.Use(RequestTimeout(timeoutConfig))
		router.GET("/slow", func(c *gin.Context) {
			time.Sleep(2 * time.Second)
			c.JSON(http.StatusOK, gin.H{"message": "success"})
		})

		req := httptest.NewRequest(http.MethodGet, "/slow", nil)
		req.Header.Set(CorrelationIDHeader, "550e8400-e29b-41d4-a716-446655440000")
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusGatewayTimeout, w.Code)
		assert.Equal(t, "550e8400-e29b-41d4-a716-446655440000", w.Header().Get(CorrelationIDHeader))
	})
}

func BenchmarkRequestTimeout(b *testing.B) {
	gin.SetMode(gin.TestMode)

	timeoutConfig := &config.TimeoutConfig{
		DefaultRequestTimeout: 30,
		RouteOverrides:        make(map[string]int),
	}

	router := gin.New()
	router.Use(RequestTimeout(timeoutConfig))
	router.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "success"})
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
	}
}
