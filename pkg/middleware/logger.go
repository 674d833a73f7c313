package middleware

import (
	"bytes"
	"io"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/richxcame/fare-engine/pkg/logger"
	"go.uber.org/zap"
)

const maxLoggedBodyLength = 512

// RequestLogger logs one line per request. Request bodies are only captured
// for mutating calls, which are the admin configuration changes.
func RequestLogger(serviceName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var requestBody string
		if c.Request.Method == "PATCH" || c.Request.Method == "PUT" {
			requestBody = captureRequestBody(c)
		}

		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		statusCode := c.Writer.Status()
		fields := []zap.Field{
			zap.String("service", serviceName),
			zap.Int("status", statusCode),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("route", c.FullPath()),
			zap.String("query", query),
			zap.String("ip", c.ClientIP()),
			zap.Duration("latency", time.Since(start)),
			zap.Int("response_size", c.Writer.Size()),
		}
		if requestBody != "" {
			fields = append(fields, zap.String("request_body", requestBody))
		}

		reqLogger := logger.WithContext(c.Request.Context())

		switch {
		case len(c.Errors) > 0:
			fields = append(fields, zap.String("errors", c.Errors.String()))
			reqLogger.Error("Request completed with errors", fields...)
		case statusCode >= 500:
			reqLogger.Error("Request failed", fields...)
		case statusCode >= 400:
			reqLogger.Warn("Request rejected", fields...)
		default:
			reqLogger.Info("Request completed", fields...)
		}
	}
}

func captureRequestBody(c *gin.Context) string {
	if c.Request == nil || c.Request.Body == nil {
		return ""
	}

	bodyBytes, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return ""
	}
	c.Request.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))

	compact := strings.Join(strings.Fields(string(bodyBytes)), " ")
	if len(compact) > maxLoggedBodyLength {
		compact = compact[:maxLoggedBodyLength] + "...(truncated)"
	}
	return compact
}
