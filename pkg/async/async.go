package async

import (
	"context"
	"runtime/debug"
	"time"

	"github.com/richxcame/fare-engine/pkg/logger"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// TaskContext holds the request values carried into a background task.
// The request context itself is not reused since it is cancelled as soon as
// the response is written.
type TaskContext struct {
	CorrelationID string
	SpanContext   trace.SpanContext
	StartTime     time.Time
	TaskName      string
}

// CaptureContext captures the values of ctx that should follow a task
func CaptureContext(ctx context.Context, taskName string) TaskContext {
	return TaskContext{
		CorrelationID: logger.CorrelationIDFromContext(ctx),
		SpanContext:   trace.SpanContextFromContext(ctx),
		StartTime:     time.Now(),
		TaskName:      taskName,
	}
}

// NewContext creates a detached context carrying the captured values
func (tc TaskContext) NewContext() context.Context {
	ctx := context.Background()
	if tc.CorrelationID != "" {
		ctx = logger.ContextWithCorrelationID(ctx, tc.CorrelationID)
	}
	if tc.SpanContext.IsValid() {
		ctx = trace.ContextWithRemoteSpanContext(ctx, tc.SpanContext)
	}
	return ctx
}

// GoWithTimeout runs fn in a goroutine with the captured values, a deadline
// and panic recovery. fn is expected to honour ctx; the timeout is logged but
// fn is not interrupted.
func GoWithTimeout(ctx context.Context, taskName string, timeout time.Duration, fn func(ctx context.Context)) {
	tc := CaptureContext(ctx, taskName)

	go func() {
		defer recoverWithLogging(tc)

		newCtx, cancel := context.WithTimeout(tc.NewContext(), timeout)
		defer cancel()

		fn(newCtx)

		if newCtx.Err() == context.DeadlineExceeded {
			logger.WarnContext(newCtx, "async task timed out",
				zap.String("task", tc.TaskName),
				zap.Duration("timeout", timeout),
			)
			return
		}
		logger.DebugContext(newCtx, "async task completed",
			zap.String("task", tc.TaskName),
			zap.Duration("duration", time.Since(tc.StartTime)),
		)
	}()
}

func recoverWithLogging(tc TaskContext) {
	if r := recover(); r != nil {
		logger.ErrorContext(tc.NewContext(), "async task panicked",
			zap.String("task", tc.TaskName),
			zap.Any("panic", r),
			zap.String("stack", string(debug.Stack())),
		)
	}
}
