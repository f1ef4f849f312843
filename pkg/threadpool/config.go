package threadpool

import (
	"runtime"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/ajitpratap0/slabpool/pkg/errors"
	"github.com/ajitpratap0/slabpool/pkg/memory"
)

// DefaultRecordsPerPool is the task record count of each static pool.
const DefaultRecordsPerPool = 1024

// Config sizes a ThreadPool.
type Config struct {
	// Name labels metrics, spans and logs.
	Name string `yaml:"name" json:"name" mapstructure:"name"`
	// Workers is the number of worker goroutines.
	Workers int `yaml:"workers" json:"workers" mapstructure:"workers"`
	// RecordsPerPool is how many task records each growth step adds.
	RecordsPerPool int `yaml:"records_per_pool" json:"records_per_pool" mapstructure:"records_per_pool"`
}

// DefaultConfig returns one worker per CPU.
func DefaultConfig() Config {
	return Config{
		Name:           "system",
		Workers:        runtime.NumCPU(),
		RecordsPerPool: DefaultRecordsPerPool,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.Workers < 1 {
		return errors.New(errors.ErrorTypeValidation, "thread pool needs at least one worker").
			WithDetail("workers", c.Workers)
	}
	if c.RecordsPerPool < 0 {
		return errors.New(errors.ErrorTypeValidation, "records per pool must not be negative").
			WithDetail("records_per_pool", c.RecordsPerPool)
	}
	return nil
}

// Option customises a ThreadPool.
type Option func(*options)

type options struct {
	logger    *zap.Logger
	allocator memory.Allocator
	tracer    trace.Tracer
}

// WithLogger sets the pool logger. Lifecycle events log at info, tasks at debug.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithAllocator sets the allocator backing the task record slabs.
func WithAllocator(a memory.Allocator) Option {
	return func(o *options) { o.allocator = a }
}

// WithTracer sets the tracer used for per-task spans.
func WithTracer(t trace.Tracer) Option {
	return func(o *options) { o.tracer = t }
}
