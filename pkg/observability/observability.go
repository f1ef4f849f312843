// Package observability wires OpenTelemetry tracing and metrics for slabpool.
//
// Initialize installs a global tracer provider and a meter provider, each
// optionally exporting to stdout. Thread pools pick up the global tracer automatically; pool
// occupancy is published through RegisterPoolGauges.
package observability

import (
	"context"
	stderrors "errors"
	"io"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/trace"
)

var (
	// Global tracer instance
	tracer trace.Tracer = otel.Tracer("slabpool")

	// Global meter instance
	meter metric.Meter = otel.Meter("slabpool")

	// Initialization lock
	initOnce sync.Once
)

// TracingConfig contains tracing configuration
type TracingConfig struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	SamplingRate   float64
	ExporterType   string    // "stdout" or "none"
	Writer         io.Writer // stdout exporter destination, os.Stdout when nil
	BatchTimeout   time.Duration
}

// MetricsConfig contains metrics configuration
type MetricsConfig struct {
	Namespace string
	// Reader collects OpenTelemetry metrics. When nil, ExporterType picks
	// the reader.
	Reader       sdkmetric.Reader
	ExporterType string    // "stdout" (periodic) or "none"
	Writer       io.Writer // stdout exporter destination, os.Stdout when nil
	Interval     time.Duration
}

// Config contains all observability configuration
type Config struct {
	Tracing TracingConfig
	Metrics MetricsConfig
}

// Initialize sets up tracing and metrics providers. Only the first call has
// any effect.
func Initialize(config Config) error {
	var err error

	initOnce.Do(func() {
		if err = initTracing(config.Tracing); err != nil {
			return
		}
		err = initMetrics(config.Metrics)
	})

	return err
}

// GetTracer returns the global tracer
func GetTracer() trace.Tracer {
	return tracer
}

// GetMeter returns the global meter
func GetMeter() metric.Meter {
	return meter
}

// Flush exports buffered spans and collected metrics without shutting the
// providers down.
func Flush(ctx context.Context) error {
	type flusher interface {
		ForceFlush(context.Context) error
	}

	var errs []error
	if tp, ok := otel.GetTracerProvider().(flusher); ok {
		if err := tp.ForceFlush(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if mp, ok := otel.GetMeterProvider().(flusher); ok {
		if err := mp.ForceFlush(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return stderrors.Join(errs...)
}
