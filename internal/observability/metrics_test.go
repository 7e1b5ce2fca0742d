package observability

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/BradenHooton/dualauth/internal/config"
	"github.com/BradenHooton/dualauth/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := make(map[string]metricdata.Metrics)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func TestAuthMetrics_ObserveAuth(t *testing.T) {
	ctx := context.Background()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer func() { _ = provider.Shutdown(ctx) }()

	m, err := NewAuthMetrics(provider)
	require.NoError(t, err)

	m.ObserveAuth(ctx, services.AuthEvent{Operation: "login", Scheme: "wallet", Outcome: "success", Duration: 20 * time.Millisecond})
	m.ObserveAuth(ctx, services.AuthEvent{Operation: "login", Scheme: "wallet", Outcome: "success", Duration: 30 * time.Millisecond})
	m.ObserveAuth(ctx, services.AuthEvent{Operation: "login", Scheme: "password", Outcome: "authentication_failed", Duration: 150 * time.Millisecond})

	metrics := collect(t, reader)

	requests, ok := metrics["auth.requests"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, requests.DataPoints, 2)

	byOutcome := make(map[string]int64)
	for _, dp := range requests.DataPoints {
		outcome, _ := dp.Attributes.Value(attribute.Key("outcome"))
		byOutcome[outcome.AsString()] += dp.Value
	}
	assert.Equal(t, int64(2), byOutcome["success"])
	assert.Equal(t, int64(1), byOutcome["authentication_failed"])

	duration, ok := metrics["auth.request.duration"].Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	var count uint64
	for _, dp := range duration.DataPoints {
		count += dp.Count
	}
	assert.Equal(t, uint64(3), count)
}

func TestAuthMetrics_NilIsNoop(t *testing.T) {
	var m *AuthMetrics
	assert.NotPanics(t, func() {
		m.ObserveAuth(context.Background(), services.AuthEvent{Operation: "verify"})
	})
}

func TestInitMetrics_Disabled(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	mp, err := InitMetrics(context.Background(), &config.TelemetryConfig{MetricsEnabled: false}, logger)
	require.NoError(t, err)
	require.NotNil(t, mp)

	m, err := NewAuthMetrics(mp)
	require.NoError(t, err)
	m.ObserveAuth(context.Background(), services.AuthEvent{Operation: "login"})
	assert.NoError(t, mp.Shutdown(context.Background()))
}
