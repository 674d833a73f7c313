package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/richxcame/fare-engine/pkg/common"
	"github.com/richxcame/fare-engine/pkg/logger"
	"go.uber.org/zap"
)

// AdminAPIKeyHeader carries the shared secret for administrative routes
const AdminAPIKeyHeader = "X-Admin-API-Key"

// AdminAPIKey guards configuration changes with a shared secret compared in
// constant time. An empty expected key locks the routes entirely.
func AdminAPIKey(expected string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if expected == "" {
			common.ErrorResponse(c, http.StatusServiceUnavailable, "admin API key not configured")
			c.Abort()
			return
		}

		provided := c.GetHeader(AdminAPIKeyHeader)
		if subtle.ConstantTimeCompare([]byte(expected), []byte(provided)) != 1 {
			logger.WarnContext(c.Request.Context(), "rejected admin request",
				zap.String("path", c.Request.URL.Path),
				zap.String("ip", c.ClientIP()),
			)
			common.ErrorResponse(c, http.StatusUnauthorized, "invalid admin API key")
			c.Abort()
			return
		}

		c.Set("actor", "admin-api-key")
		c.Next()
	}
}
