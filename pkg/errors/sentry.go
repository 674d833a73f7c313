package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/richxcame/fare-engine/pkg/common"
	"github.com/richxcame/fare-engine/pkg/logger"
)

// SentryConfig holds configuration for Sentry integration
type SentryConfig struct {
	DSN              string
	Environment      string
	Release          string
	ServerName       string
	SampleRate       float64
	TracesSampleRate float64
	AttachStacktrace bool
}

// NewSentryConfig builds a Sentry configuration for a service.
// Production traces are sampled at the configured rate; other environments sample everything.
func NewSentryConfig(dsn, environment, serviceName, release string, tracesSampleRate float64) *SentryConfig {
	if environment != "production" {
		tracesSampleRate = 1.0
	}
	return &SentryConfig{
		DSN:              dsn,
		Environment:      environment,
		Release:          release,
		ServerName:       serviceName,
		SampleRate:       1.0,
		TracesSampleRate: tracesSampleRate,
		AttachStacktrace: true,
	}
}

// InitSentry initializes the Sentry SDK with the given configuration
func InitSentry(config *SentryConfig) error {
	if config.DSN == "" {
		return fmt.Errorf("sentry DSN is not configured")
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              config.DSN,
		Environment:      config.Environment,
		Release:          config.Release,
		SampleRate:       config.SampleRate,
		TracesSampleRate: config.TracesSampleRate,
		EnableTracing:    config.TracesSampleRate > 0,
		ServerName:       config.ServerName,
		AttachStacktrace: config.AttachStacktrace,
		BeforeSend: func(event *sentry.Event, hint *sentry.EventHint) *sentry.Event {
			if event.Level == sentry.LevelInfo || event.Level == sentry.LevelDebug {
				return nil
			}
			if event.Request != nil {
				event.Request.Headers = sanitizeHeaders(event.Request.Headers)
			}
			return event
		},
	})
	if err != nil {
		return fmt.Errorf("failed to initialize sentry: %w", err)
	}

	return nil
}

// Flush flushes the Sentry buffer
func Flush(timeout time.Duration) bool {
	return sentry.Flush(timeout)
}

// CaptureErrorWithContext captures an error tagged with the request correlation ID
func CaptureErrorWithContext(ctx context.Context, err error, extras map[string]interface{}) *sentry.EventID {
	if err == nil {
		return nil
	}

	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		hub = sentry.CurrentHub().Clone()
	}

	var eventID *sentry.EventID
	hub.WithScope(func(scope *sentry.Scope) {
		for key, value := range extras {
			scope.SetExtra(key, value)
		}
		if correlationID := logger.CorrelationIDFromContext(ctx); correlationID != "" {
			scope.SetTag("correlation_id", correlationID)
		}
		eventID = hub.CaptureException(err)
	})
	return eventID
}

// AddBreadcrumbForRequest adds a breadcrumb for HTTP request
func AddBreadcrumbForRequest(method, url string, statusCode int, duration time.Duration) {
	sentry.AddBreadcrumb(&sentry.Breadcrumb{
		Type:      "http",
		Category:  "http.request",
		Level:     sentry.LevelInfo,
		Message:   fmt.Sprintf("%s %s", method, url),
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"method":      method,
			"url":         url,
			"status_code": statusCode,
			"duration_ms": duration.Milliseconds(),
		},
	})
}

// IsBusinessError reports whether err is an expected client-facing failure:
// rejected input, unknown versions, conflicting activations.
func IsBusinessError(err error) bool {
	if err == nil {
		return false
	}

	var appErr *common.AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code < http.StatusInternalServerError
	}

	return stderrors.Is(err, common.ErrValidation) ||
		stderrors.Is(err, common.ErrNotFound) ||
		stderrors.Is(err, common.ErrConflict) ||
		stderrors.Is(err, common.ErrBadRequest) ||
		stderrors.Is(err, common.ErrUnprocessable)
}

// ShouldReportError determines if an error should be reported to Sentry
func ShouldReportError(err error, statusCode int) bool {
	if err == nil {
		return false
	}

	if IsBusinessError(err) {
		return false
	}

	// 4xx are the caller's problem, except throttling
	if statusCode >= 400 && statusCode < 500 && statusCode != http.StatusTooManyRequests {
		return false
	}

	return true
}

var sensitiveHeaders = map[string]bool{
	"Authorization":   true,
	"Cookie":          true,
	"X-Admin-Api-Key": true,
}

func sanitizeHeaders(headers map[string]string) map[string]string {
	sanitized := make(map[string]string, len(headers))
	for key, value := range headers {
		if sensitiveHeaders[http.CanonicalHeaderKey(key)] {
			sanitized[key] = "[REDACTED]"
			continue
		}
		sanitized[key] = value
	}
	return sanitized
}
