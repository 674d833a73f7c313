package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/timeout"
	"github.com/gin-gonic/gin"
	"github.com/richxcame/fare-engine/pkg/config"
	"github.com/richxcame/fare-engine/pkg/logger"
	"go.uber.org/zap"
)

// RequestTimeout bounds every request by the per-route timeout from cfg and
// answers 504 when the handler overruns it. The request context carries the
// same deadline so store calls give up together with the handler.
func RequestTimeout(cfg *config.TimeoutConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		d := cfg.TimeoutForRoute(c.Request.Method, route)

		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)

		timeout.New(
			timeout.WithTimeout(d),
			timeout.WithResponse(timeoutResponse(d)),
		)(c)
	}
}

func timeoutResponse(d time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		logger.WithContext(c.Request.Context()).Warn("Request timeout",
			zap.String("path", c.Request.URL.Path),
			zap.String("method", c.Request.Method),
			zap.Duration("timeout", d),
		)
		c.Header("X-Timeout", "true")
		c.JSON(http.StatusGatewayTimeout, gin.H{
			"error":   "Request timeout",
			"message": "The request took too long to process",
		})
	}
}
