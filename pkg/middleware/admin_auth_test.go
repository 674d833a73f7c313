package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func setupAdminRouter(key string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(AdminAPIKey(key))
	r.PATCH("/api/v1/admin/pricing/config", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"actor": c.GetString("actor")})
	})
	return r
}

func TestAdminAPIKey(t *testing.T) {
	tests := []struct {
		name         string
		configured   string
		provided     string
		expectStatus int
		expectBody   string
	}{
		{"not configured", "", "anything", http.StatusServiceUnavailable, "not configured"},
		{"missing header", "secret", "", http.StatusUnauthorized, "invalid admin API key"},
		{"wrong key", "secret", "guess", http.StatusUnauthorized, "invalid admin API key"},
		{"valid key", "secret", "secret", http.StatusOK, "admin-api-key"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := setupAdminRouter(tt.configured)
			req := httptest.NewRequest(http.MethodPatch, "/api/v1/admin/pricing/config", nil)
			if tt.provided != "" {
				req.Header.Set(AdminAPIKeyHeader, tt.provided)
			}
			w := httptest.NewRecorder()

			r.ServeHTTP(w, req)

			assert.Equal(t, tt.expectStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.expectBody)
		})
	}
}
