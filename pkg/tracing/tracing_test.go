package tracing

import (
	"context"
	"errors"
	"testing"

	"github.com/richxcame/fare-engine/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
)

func setupRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(previous)
		_ = tp.Shutdown(context.Background())
	})
	return recorder
}

func attrMap(attrs []attribute.KeyValue) map[attribute.Key]attribute.Value {
	m := make(map[attribute.Key]attribute.Value, len(attrs))
	for _, kv := range attrs {
		m[kv.Key] = kv.Value
	}
	return m
}

func TestTraceOperationRecordsAttributes(t *testing.T) {
	recorder := setupRecorder(t)

	err := TraceOperation(context.Background(), "test", "fare.estimate",
		FareAttributes("car_cab", "economy", 12.5, true),
		func(ctx context.Context) error {
			AddSpanAttributes(ctx, ConfigVersionKey.Int(3))
			assert.NotEmpty(t, GetTraceID(ctx))
			return nil
		})
	require.NoError(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "fare.estimate", spans[0].Name())
	assert.Equal(t, codes.Ok, spans[0].Status().Code)

	attrs := attrMap(spans[0].Attributes())
	assert.Equal(t, "car_cab", attrs[ServiceTypeKey].AsString())
	assert.Equal(t, "economy", attrs[VariantKey].AsString())
	assert.Equal(t, 12.5, attrs[DistanceKmKey].AsFloat64())
	assert.True(t, attrs[RoundTripKey].AsBool())
	assert.Equal(t, int64(3), attrs[ConfigVersionKey].AsInt64())
}

func TestTraceDBQueryRecordsError(t *testing.T) {
	recorder := setupRecorder(t)
	boom := errors.New("connection reset")

	err := TraceDBQuery(context.Background(), "test", "select", "pricing_config_versions",
		func(context.Context) error { return boom })
	assert.ErrorIs(t, err, boom)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "db.select", spans[0].Name())
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Len(t, spans[0].Events(), 1)
	assert.Equal(t, "pricing_config_versions", attrMap(spans[0].Attributes())[DBTableKey].AsString())
}

func TestFareAttributesSkipsEmptyNames(t *testing.T) {
	attrs := FareAttributes("", "", 3, false)
	assert.Len(t, attrs, 2)
}

func TestGetTraceIDWithoutSpan(t *testing.T) {
	assert.Empty(t, GetTraceID(context.Background()))
}

func TestInitTracerDisabled(t *testing.T) {
	tp, err := InitTracer(Config{Enabled: false}, zap.NewNop())
	assert.NoError(t, err)
	assert.Nil(t, tp)
	assert.NoError(t, Shutdown(context.Background(), tp, zap.NewNop()))
}

func TestInitTracerRequiresEndpoint(t *testing.T) {
	_, err := InitTracer(Config{Enabled: true}, zap.NewNop())
	assert.Error(t, err)
}

func TestSampler(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{"development always samples", Config{Environment: "development", SampleRate: 0.1}, "AlwaysOnSampler"},
		{"zero rate never samples", Config{Environment: "production"}, "AlwaysOffSampler"},
		{"ratio", Config{Environment: "production", SampleRate: 0.25}, "TraceIDRatioBased{0.25}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Contains(t, Sampler(tt.cfg).Description(), tt.want)
		})
	}
}

func TestConfigFrom(t *testing.T) {
	cfg := &config.Config{
		Server:  config.ServerConfig{ServiceName: "pricing-service", Version: "1.2.0", Environment: "staging"},
		Tracing: config.TracingConfig{Enabled: true, OTLPEndpoint: "otel:4317", SampleRate: 0.5},
	}
	got := ConfigFrom(cfg)
	assert.Equal(t, "pricing-service", got.ServiceName)
	assert.Equal(t, "1.2.0", got.ServiceVersion)
	assert.Equal(t, "otel:4317", got.OTLPEndpoint)
	assert.True(t, got.Enabled)
}
