// Package metrics records cache and provider activity through OpenTelemetry
// and exposes it in Prometheus format.
package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/attribute"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

const meterName = "ratings-aggregator"

// Provider call outcomes.
const (
	OutcomeOK      = "ok"
	OutcomeEmpty   = "empty"
	OutcomeError   = "error"
	OutcomeTimeout = "timeout"
	OutcomePanic   = "panic"
	OutcomeSkipped = "skipped"
)

// Recorder is safe for concurrent use and never panics.
type Recorder interface {
	RecordProviderCall(ctx context.Context, provider, outcome string, records int, duration time.Duration)
	RecordCacheLookup(ctx context.Context, outcome string)
	RecordAggregation(ctx context.Context, found bool, duration time.Duration)
}

type Metrics struct {
	providerCalls    metric.Int64Counter
	providerRecords  metric.Int64Counter
	providerDuration metric.Float64Histogram
	cacheLookups     metric.Int64Counter
	aggregations     metric.Int64Counter
	aggDuration      metric.Float64Histogram
}

// New creates the instruments on meter.
func New(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}
	var err error

	if m.providerCalls, err = meter.Int64Counter(
		"ratings.provider.calls",
		metric.WithDescription("Provider invocations by outcome"),
		metric.WithUnit("{call}"),
	); err != nil {
		return nil, err
	}
	if m.providerRecords, err = meter.Int64Counter(
		"ratings.provider.records",
		metric.WithDescription("Rating records returned by providers"),
		metric.WithUnit("{record}"),
	); err != nil {
		return nil, err
	}
	if m.providerDuration, err = meter.Float64Histogram(
		"ratings.provider.duration_ms",
		metric.WithDescription("Provider call duration in milliseconds"),
		metric.WithUnit("ms"),
	); err != nil {
		return nil, err
	}
	if m.cacheLookups, err = meter.Int64Counter(
		"ratings.cache.lookups",
		metric.WithDescription("Cache lookups by outcome"),
		metric.WithUnit("{lookup}"),
	); err != nil {
		return nil, err
	}
	if m.aggregations, err = meter.Int64Counter(
		"ratings.aggregations",
		metric.WithDescription("Full provider aggregations by result"),
		metric.WithUnit("{aggregation}"),
	); err != nil {
		return nil, err
	}
	if m.aggDuration, err = meter.Float64Histogram(
		"ratings.aggregation.duration_ms",
		metric.WithDescription("Aggregation duration in milliseconds"),
		metric.WithUnit("ms"),
	); err != nil {
		return nil, err
	}
	return m, nil
}

// NewNoop returns a Recorder backed by the no-op meter.
func NewNoop() Recorder {
	m, err := New(noop.NewMeterProvider().Meter(meterName))
	if err != nil {
		// noop instruments never fail
		panic(err)
	}
	return m
}

func (m *Metrics) RecordProviderCall(ctx context.Context, provider, outcome string, records int, duration time.Duration) {
	opt := metric.WithAttributes(
		attribute.String("provider", provider),
		attribute.String("outcome", outcome),
	)
	m.providerCalls.Add(ctx, 1, opt)
	if records > 0 {
		m.providerRecords.Add(ctx, int64(records), metric.WithAttributes(attribute.String("provider", provider)))
	}
	m.providerDuration.Record(ctx, float64(duration.Milliseconds()), opt)
}

func (m *Metrics) RecordCacheLookup(ctx context.Context, outcome string) {
	m.cacheLookups.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

func (m *Metrics) RecordAggregation(ctx context.Context, found bool, duration time.Duration) {
	opt := metric.WithAttributes(attribute.Bool("found", found))
	m.aggregations.Add(ctx, 1, opt)
	m.aggDuration.Record(ctx, float64(duration.Milliseconds()), opt)
}

// NewPrometheus wires an OpenTelemetry meter provider to a private Prometheus
// registry and returns the recorder, the /metrics handler and a shutdown func.
func NewPrometheus() (Recorder, http.Handler, func(context.Context) error, error) {
	registry := prometheus.NewRegistry()
	exporter, err := otelprom.New(otelprom.WithRegisterer(registry))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to create Prometheus exporter: %w", err)
	}
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	m, err := New(provider.Meter(meterName))
	if err != nil {
		_ = provider.Shutdown(context.Background())
		return nil, nil, nil, fmt.Errorf("failed to create instruments: %w", err)
	}
	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	return m, handler, provider.Shutdown, nil
}
