package tracing

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Database span attributes
const (
	DBSystemKey    = attribute.Key("db.system")
	DBOperationKey = attribute.Key("db.operation")
	DBTableKey     = attribute.Key("db.sql.table")
)

// Cache span attributes
const (
	CacheKeyKey = attribute.Key("cache.key")
	CacheHitKey = attribute.Key("cache.hit")
)

// Pricing span attributes
const (
	ServiceTypeKey   = attribute.Key("fare.service_type")
	VariantKey       = attribute.Key("fare.variant")
	DistanceKmKey    = attribute.Key("fare.distance_km")
	RoundTripKey     = attribute.Key("fare.round_trip")
	FareTotalKey     = attribute.Key("fare.total")
	ConfigVersionKey = attribute.Key("pricing.config_version")
	RateFallbackKey  = attribute.Key("fare.rate_fallback")
)

// TraceDBQuery wraps a Postgres call in a client span
func TraceDBQuery(ctx context.Context, tracerName, operation, table string, fn func(context.Context) error) error {
	ctx, span := StartSpan(ctx, tracerName, fmt.Sprintf("db.%s", operation),
		trace.WithSpanKind(trace.SpanKindClient),
	)
	defer span.End()

	span.SetAttributes(
		DBSystemKey.String("postgresql"),
		DBOperationKey.String(operation),
		DBTableKey.String(table),
	)

	err := fn(ctx)
	finish(span, err)
	return err
}

// TraceOperation wraps business logic in an internal span and records its duration
func TraceOperation(ctx context.Context, tracerName, operation string, attrs []attribute.KeyValue, fn func(context.Context) error) error {
	ctx, span := StartSpan(ctx, tracerName, operation,
		trace.WithSpanKind(trace.SpanKindInternal),
	)
	defer span.End()

	if len(attrs) > 0 {
		span.SetAttributes(attrs...)
	}

	start := time.Now()
	err := fn(ctx)
	span.SetAttributes(attribute.Int64("duration_ms", time.Since(start).Milliseconds()))

	finish(span, err)
	return err
}

// FareAttributes describes the trip being priced
func FareAttributes(serviceType, variant string, distanceKm float64, roundTrip bool) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, 4)
	if serviceType != "" {
		attrs = append(attrs, ServiceTypeKey.String(serviceType))
	}
	if variant != "" {
		attrs = append(attrs, VariantKey.String(variant))
	}
	attrs = append(attrs,
		DistanceKmKey.Float64(distanceKm),
		RoundTripKey.Bool(roundTrip),
	)
	return attrs
}

// AddSpanAttributes sets attributes on the span carried by ctx
func AddSpanAttributes(ctx context.Context, attrs ...attribute.KeyValue) {
	trace.SpanFromContext(ctx).SetAttributes(attrs...)
}

func finish(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return
	}
	span.SetStatus(codes.Ok, "")
}
