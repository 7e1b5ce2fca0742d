package observability

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/BradenHooton/dualauth/internal/config"
	"github.com/BradenHooton/dualauth/internal/services"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
)

const meterName = "github.com/BradenHooton/dualauth"

// InitMetrics installs the global meter provider. With metrics disabled the
// provider has no reader and every recording is dropped.
func InitMetrics(ctx context.Context, cfg *config.TelemetryConfig, logger *slog.Logger) (*sdkmetric.MeterProvider, error) {
	if !cfg.MetricsEnabled {
		mp := sdkmetric.NewMeterProvider()
		otel.SetMeterProvider(mp)
		logger.Info("otel metrics disabled")
		return mp, nil
	}

	opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(cfg.OTLPEndpoint)}
	if cfg.OTLPInsecure {
		opts = append(opts, otlpmetricgrpc.WithInsecure())
	}
	exporter, err := otlpmetricgrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create otlp metric exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(attribute.String("service.name", cfg.ServiceName)),
	)
	if err != nil {
		return nil, fmt.Errorf("create metric resource: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(cfg.ExportInterval))),
		sdkmetric.WithView(sdkmetric.NewView(
			sdkmetric.Instrument{Name: "auth.request.duration"},
			sdkmetric.Stream{
				Aggregation: sdkmetric.AggregationExplicitBucketHistogram{
					Boundaries: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
				},
			},
		)),
	)
	otel.SetMeterProvider(mp)

	logger.Info("otel metrics enabled",
		slog.String("endpoint", cfg.OTLPEndpoint),
		slog.Duration("interval", cfg.ExportInterval),
	)
	return mp, nil
}

// AuthMetrics records one counter increment and one latency sample per auth
// call. It implements services.AuthObserver.
type AuthMetrics struct {
	requests metric.Int64Counter
	duration metric.Float64Histogram
}

var _ services.AuthObserver = (*AuthMetrics)(nil)

func NewAuthMetrics(mp metric.MeterProvider) (*AuthMetrics, error) {
	meter := mp.Meter(meterName)

	requests, err := meter.Int64Counter("auth.requests",
		metric.WithDescription("Auth endpoint calls by operation, scheme and outcome"),
	)
	if err != nil {
		return nil, err
	}
	duration, err := meter.Float64Histogram("auth.request.duration",
		metric.WithDescription("Auth endpoint latency"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &AuthMetrics{requests: requests, duration: duration}, nil
}

func (m *AuthMetrics) ObserveAuth(ctx context.Context, event services.AuthEvent) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("operation", event.Operation),
		attribute.String("scheme", event.Scheme),
		attribute.String("outcome", event.Outcome),
	)
	m.requests.Add(ctx, 1, attrs)
	m.duration.Record(ctx, event.Duration.Seconds(), attrs)
}
