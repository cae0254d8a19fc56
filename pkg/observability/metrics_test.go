package observability_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/Sumatoshi-tech/hornbeam/pkg/observability"
)

func newTestMeterProvider(t *testing.T) (*sdkmetric.MeterProvider, *sdkmetric.ManualReader) {
	t.Helper()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	t.Cleanup(func() { require.NoError(t, mp.Shutdown(context.Background())) })

	return mp, reader
}

func collectMetrics(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()

	var rm metricdata.ResourceMetrics

	err := reader.Collect(context.Background(), &rm)
	require.NoError(t, err)

	return rm
}

func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for idx := range rm.ScopeMetrics {
		for midx := range rm.ScopeMetrics[idx].Metrics {
			if rm.ScopeMetrics[idx].Metrics[midx].Name == name {
				return &rm.ScopeMetrics[idx].Metrics[midx]
			}
		}
	}

	return nil
}

func sumOf(t *testing.T, m *metricdata.Metrics) int64 {
	t.Helper()

	require.NotNil(t, m)

	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok, "metric %s is not an int64 sum", m.Name)

	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}

	return total
}

func TestREDMetrics_RecordRequest(t *testing.T) {
	t.Parallel()

	mp, reader := newTestMeterProvider(t)

	red, err := observability.NewREDMetrics(mp.Meter("test"))
	require.NoError(t, err)

	red.RecordRequest(context.Background(), "hornbeam_rewrite", observability.StatusOK, 100*time.Millisecond)
	red.RecordRequest(context.Background(), "hornbeam_tree", observability.StatusError, time.Second)

	rm := collectMetrics(t, reader)

	assert.Equal(t, int64(2), sumOf(t, findMetric(rm, "hornbeam.requests.total")))
	assert.Equal(t, int64(1), sumOf(t, findMetric(rm, "hornbeam.errors.total")))
	assert.NotNil(t, findMetric(rm, "hornbeam.request.duration.seconds"))
}

func TestREDMetrics_TrackInflight(t *testing.T) {
	t.Parallel()

	mp, reader := newTestMeterProvider(t)

	red, err := observability.NewREDMetrics(mp.Meter("test"))
	require.NoError(t, err)

	done := red.TrackInflight(context.Background(), "hornbeam_rewrite")
	assert.Equal(t, int64(1), sumOf(t, findMetric(collectMetrics(t, reader), "hornbeam.inflight.requests")))

	done()
	assert.Equal(t, int64(0), sumOf(t, findMetric(collectMetrics(t, reader), "hornbeam.inflight.requests")))
}

func TestRewriteMetrics_RecordRewrite(t *testing.T) {
	t.Parallel()

	mp, reader := newTestMeterProvider(t)

	rw, err := observability.NewRewriteMetrics(mp.Meter("test"))
	require.NoError(t, err)

	ctx := context.Background()
	rw.RecordRewrite(ctx, "declare", observability.OutcomeMatched, 3, time.Millisecond)
	rw.RecordRewrite(ctx, "declare", observability.OutcomeUnmatched, 0, time.Millisecond)
	rw.RecordRewrite(ctx, "to-js", observability.OutcomeError, 0, time.Millisecond)

	rm := collectMetrics(t, reader)

	assert.Equal(t, int64(3), sumOf(t, findMetric(rm, "hornbeam.rewrites")))
	assert.Equal(t, int64(3), sumOf(t, findMetric(rm, "hornbeam.rewrite.replacements")))
	assert.NotNil(t, findMetric(rm, "hornbeam.rewrite.duration.seconds"))
}

func TestMetrics_NoopMeter(t *testing.T) {
	t.Parallel()

	providers, err := observability.Init(context.Background(), observability.DefaultConfig())
	require.NoError(t, err)

	t.Cleanup(func() { require.NoError(t, providers.Shutdown(context.Background())) })

	red, err := observability.NewREDMetrics(providers.Meter)
	require.NoError(t, err)

	rw, err := observability.NewRewriteMetrics(providers.Meter)
	require.NoError(t, err)

	red.RecordRequest(context.Background(), "test", observability.StatusOK, time.Millisecond)
	rw.RecordRewrite(context.Background(), "test", observability.OutcomeMatched, 1, time.Millisecond)
}
