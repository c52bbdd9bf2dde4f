package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

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
	out := map[string]metricdata.Metrics{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func sumFor(t *testing.T, m metricdata.Metrics, key, value string) int64 {
	t.Helper()
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok, "metric %s is not an int64 sum", m.Name)
	var total int64
	for _, dp := range sum.DataPoints {
		if v, ok := dp.Attributes.Value(attribute.Key(key)); ok && v.Emit() == value {
			total += dp.Value
		}
	}
	return total
}

func TestMetrics_RecordsProviderAndCache(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	m, err := New(provider.Meter("test"))
	require.NoError(t, err)

	ctx := context.Background()
	m.RecordProviderCall(ctx, "IMDb", OutcomeOK, 1, 20*time.Millisecond)
	m.RecordProviderCall(ctx, "Metacritic", OutcomeOK, 2, 30*time.Millisecond)
	m.RecordProviderCall(ctx, "CringeMDB", OutcomeTimeout, 0, time.Second)
	m.RecordCacheLookup(ctx, "hit")
	m.RecordCacheLookup(ctx, "hit")
	m.RecordCacheLookup(ctx, "miss")
	m.RecordAggregation(ctx, true, 50*time.Millisecond)

	got := collect(t, reader)
	assert.Equal(t, int64(2), sumFor(t, got["ratings.provider.calls"], "outcome", OutcomeOK))
	assert.Equal(t, int64(1), sumFor(t, got["ratings.provider.calls"], "outcome", OutcomeTimeout))
	assert.Equal(t, int64(2), sumFor(t, got["ratings.provider.records"], "provider", "Metacritic"))
	assert.Equal(t, int64(2), sumFor(t, got["ratings.cache.lookups"], "outcome", "hit"))
	assert.Equal(t, int64(1), sumFor(t, got["ratings.cache.lookups"], "outcome", "miss"))
	assert.Contains(t, got, "ratings.aggregation.duration_ms")
}

func TestNewNoop(t *testing.T) {
	r := NewNoop()
	assert.NotPanics(t, func() {
		r.RecordProviderCall(context.Background(), "IMDb", OutcomeError, 0, time.Millisecond)
		r.RecordCacheLookup(context.Background(), "miss")
		r.RecordAggregation(context.Background(), false, time.Millisecond)
	})
}

func TestNewPrometheus_ServesMetrics(t *testing.T) {
	r, handler, shutdown, err := NewPrometheus()
	require.NoError(t, err)
	t.Cleanup(func() { _ = shutdown(context.Background()) })

	r.RecordCacheLookup(context.Background(), "negative_hit")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ratings_cache_lookups")
}
