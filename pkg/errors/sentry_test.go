package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/richxcame/fare-engine/pkg/common"
	"github.com/stretchr/testify/assert"
)

func TestShouldReportError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		statusCode int
		expected   bool
	}{
		{"nil error", nil, http.StatusInternalServerError, false},
		{"bad request app error", common.NewBadRequestError("invalid trip", nil), http.StatusBadRequest, false},
		{"wrapped not found", fmt.Errorf("activate: %w", common.ErrNotFound), http.StatusNotFound, false},
		{"unavailable app error", common.NewServiceUnavailableError("config missing", nil), http.StatusServiceUnavailable, true},
		{"plain error on 500", stderrors.New("connection reset"), http.StatusInternalServerError, true},
		{"plain error on 400", stderrors.New("bad json"), http.StatusBadRequest, false},
		{"throttled", stderrors.New("too many"), http.StatusTooManyRequests, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ShouldReportError(tt.err, tt.statusCode))
		})
	}
}

func TestSanitizeHeaders(t *testing.T) {
	got := sanitizeHeaders(map[string]string{
		"Authorization":   "Bearer abc",
		"x-admin-api-key": "secret",
		"Content-Type":    "application/json",
	})

	assert.Equal(t, "[REDACTED]", got["Authorization"])
	assert.Equal(t, "[REDACTED]", got["x-admin-api-key"])
	assert.Equal(t, "application/json", got["Content-Type"])
}

func TestNewSentryConfig(t *testing.T) {
	prod := NewSentryConfig("dsn", "production", "pricing-service", "1.0.0", 0.2)
	assert.Equal(t, 0.2, prod.TracesSampleRate)
	assert.Equal(t, "pricing-service", prod.ServerName)

	dev := NewSentryConfig("dsn", "development", "pricing-service", "1.0.0", 0.2)
	assert.Equal(t, 1.0, dev.TracesSampleRate)

	assert.Error(t, InitSentry(&SentryConfig{}))
}
