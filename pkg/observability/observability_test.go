package observability

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ajitpratap0/slabpool/pkg/slab"
	"github.com/ajitpratap0/slabpool/pkg/threadpool"
)

func TestInitialize(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Tracing.ServiceName = "slabpool-test"
	cfg.Tracing.SamplingRate = 1.0
	cfg.Tracing.Writer = io.Discard

	require.NoError(t, Initialize(cfg))
	assert.NotNil(t, GetTracer())
	assert.NotNil(t, GetMeter())

	err := Trace(context.Background(), "init.check", func(ctx context.Context) error {
		return nil
	})
	assert.NoError(t, err)
	assert.NoError(t, Flush(context.Background()))
}

func TestTraceRecordsFailure(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	prev := tracer
	tracer = provider.Tracer("test")
	t.Cleanup(func() { tracer = prev })

	boom := errors.New("boom")
	err := Trace(context.Background(), "bench.run", func(context.Context) error { return boom })
	assert.ErrorIs(t, err, boom)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "bench.run", spans[0].Name())
	assert.Equal(t, "boom", spans[0].Status().Description)
}

type fixedStats threadpool.Stats

func (f fixedStats) Stats() threadpool.Stats { return threadpool.Stats(f) }

func TestRegisterPoolGauges(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	src := fixedStats{
		Name:    "gauged",
		Pending: 3,
		Records: slab.Stats{Pools: 2, Live: 5, Capacity: 8},
	}
	reg, err := RegisterPoolGauges(provider.Meter("test"), src)
	require.NoError(t, err)
	defer func() { _ = reg.Unregister() }()

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	got := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			gauge, ok := m.Data.(metricdata.Gauge[int64])
			require.True(t, ok, m.Name)
			require.Len(t, gauge.DataPoints, 1)
			got[m.Name] = gauge.DataPoints[0].Value
		}
	}
	assert.Equal(t, map[string]int64{
		"slabpool.pool.pending":          3,
		"slabpool.pool.records.live":     5,
		"slabpool.pool.records.pools":    2,
		"slabpool.pool.records.capacity": 8,
	}, got)
}

func TestStdoutMetricReaderExportsPoolGauges(t *testing.T) {
	var buf bytes.Buffer
	reader, err := metricReader(MetricsConfig{ExporterType: "stdout", Writer: &buf, Interval: time.Hour})
	require.NoError(t, err)
	require.NotNil(t, reader)

	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer func() { _ = provider.Shutdown(context.Background()) }()

	reg, err := RegisterPoolGauges(provider.Meter("test"), fixedStats{Name: "exported", Pending: 1})
	require.NoError(t, err)
	defer func() { _ = reg.Unregister() }()

	require.NoError(t, provider.ForceFlush(context.Background()))
	assert.Contains(t, buf.String(), "slabpool.pool.pending")
	assert.Contains(t, buf.String(), "exported")
}

func TestMetricReaderNone(t *testing.T) {
	reader, err := metricReader(MetricsConfig{ExporterType: "none"})
	require.NoError(t, err)
	assert.Nil(t, reader)
}

func TestRegisterPoolGaugesWithLivePool(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	pool, err := threadpool.New(threadpool.Config{Name: "observed", Workers: 1},
		threadpool.WithLogger(zap.NewNop()))
	require.NoError(t, err)

	reg, err := RegisterPoolGauges(provider.Meter("test"), pool)
	require.NoError(t, err)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	assert.NotEmpty(t, rm.ScopeMetrics)

	require.NoError(t, reg.Unregister())
	pool.Close()
}

func TestWithTrace(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	l := zap.New(core)

	WithTrace(context.Background(), l).Info("no span")

	provider := sdktrace.NewTracerProvider()
	ctx, span := provider.Tracer("test").Start(context.Background(), "op")
	WithTrace(ctx, l).Info("in span")
	span.End()

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.NotContains(t, entries[0].ContextMap(), "trace_id")
	assert.Equal(t, span.SpanContext().TraceID().String(), entries[1].ContextMap()["trace_id"])
}

func TestOperationLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	ol := NewOperationLogger(zap.New(core), "bench")

	ol.LogStart("starting")
	ol.LogComplete("done")
	ol.LogError("failed", errors.New("x"))

	entries := logs.All()
	require.Len(t, entries, 3)
	assert.Equal(t, "complete", entries[1].ContextMap()["phase"])
	assert.Equal(t, "bench", entries[2].ContextMap()["operation"])
}
