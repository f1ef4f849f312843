package config

import (
	"go.uber.org/zap/zapcore"

	"github.com/ajitpratap0/slabpool/pkg/errors"
	"github.com/ajitpratap0/slabpool/pkg/logger"
	"github.com/ajitpratap0/slabpool/pkg/memory"
	"github.com/ajitpratap0/slabpool/pkg/threadpool"
)

// Config is the root configuration.
type Config struct {
	// Version indicates the configuration version
	Version string `yaml:"version" json:"version" mapstructure:"version"`

	// ThreadPool sizes the worker pool
	ThreadPool threadpool.Config `yaml:"thread_pool" json:"thread_pool" mapstructure:"thread_pool"`

	// Memory bounds the allocator behind task records
	Memory MemoryConfig `yaml:"memory" json:"memory" mapstructure:"memory"`

	// Logging configures the global logger
	Logging logger.Config `yaml:"logging" json:"logging" mapstructure:"logging"`

	// Observability settings for monitoring and debugging
	Observability ObservabilityConfig `yaml:"observability" json:"observability" mapstructure:"observability"`
}

// MemoryConfig contains allocator settings.
type MemoryConfig struct {
	// LimitBytes caps the bytes the allocator hands out (0 = unlimited)
	LimitBytes int64 `yaml:"limit_bytes" json:"limit_bytes" mapstructure:"limit_bytes"`
	// EnableMetrics publishes allocator traffic to Prometheus
	EnableMetrics bool `yaml:"enable_metrics" json:"enable_metrics" mapstructure:"enable_metrics"`
	// Name labels allocator metrics
	Name string `yaml:"name" json:"name" mapstructure:"name"`
}

// ObservabilityConfig contains monitoring and tracing settings.
type ObservabilityConfig struct {
	// MetricsAddr serves /metrics when set (e.g. ":9090")
	MetricsAddr string `yaml:"metrics_addr" json:"metrics_addr" mapstructure:"metrics_addr"`
	// EnableTracing activates per-task spans
	EnableTracing bool `yaml:"enable_tracing" json:"enable_tracing" mapstructure:"enable_tracing"`
	// TracingSampleRate controls trace sampling (0.0-1.0)
	TracingSampleRate float64 `yaml:"tracing_sample_rate" json:"tracing_sample_rate" mapstructure:"tracing_sample_rate"`
	// ExportMetrics writes OpenTelemetry pool gauges to stderr periodically
	ExportMetrics bool `yaml:"export_metrics" json:"export_metrics" mapstructure:"export_metrics"`
	// ServiceName is reported on traces
	ServiceName string `yaml:"service_name" json:"service_name" mapstructure:"service_name"`
}

// NewDefault creates a Config with defaults suitable for a single process.
//
// Example:
//
//	cfg := config.NewDefault()
//	cfg.ThreadPool.Workers = 2 // Override default
func NewDefault() *Config {
	return &Config{
		Version:    "1.0.0",
		ThreadPool: threadpool.DefaultConfig(),
		Memory: MemoryConfig{
			LimitBytes:    0,
			EnableMetrics: true,
			Name:          "system",
		},
		Logging: logger.DefaultConfig(),
		Observability: ObservabilityConfig{
			MetricsAddr:       "",
			EnableTracing:     false,
			TracingSampleRate: 0.1,
			ExportMetrics:     false,
			ServiceName:       "slabpool",
		},
	}
}

// Validate checks required fields and value ranges.
func (c *Config) Validate() error {
	if err := c.ThreadPool.Validate(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfig, "invalid thread_pool section")
	}
	if c.Memory.LimitBytes < 0 {
		return errors.New(errors.ErrorTypeConfig, "memory.limit_bytes cannot be negative").
			WithDetail("limit_bytes", c.Memory.LimitBytes)
	}
	if c.Memory.EnableMetrics && c.Memory.Name == "" {
		return errors.New(errors.ErrorTypeConfig, "memory.name is required when metrics are enabled")
	}
	if r := c.Observability.TracingSampleRate; r < 0 || r > 1 {
		return errors.New(errors.ErrorTypeConfig, "observability.tracing_sample_rate must be within [0, 1]").
			WithDetail("tracing_sample_rate", r)
	}
	if c.Logging.Level != "" {
		if _, err := zapcore.ParseLevel(c.Logging.Level); err != nil {
			return errors.Wrap(err, errors.ErrorTypeConfig, "invalid logging.level")
		}
	}
	switch c.Logging.Encoding {
	case "", "json", "console":
	default:
		return errors.New(errors.ErrorTypeConfig, "logging.encoding must be json or console").
			WithDetail("encoding", c.Logging.Encoding)
	}
	return nil
}

// IsLimited returns true if the allocator has a byte budget
func (m *MemoryConfig) IsLimited() bool {
	return m.LimitBytes > 0
}

// NewAllocator builds the allocator described by m: the heap, bounded by
// LimitBytes when set, and decorated with metrics when enabled.
func (m *MemoryConfig) NewAllocator() memory.Allocator {
	var a memory.Allocator = memory.NewHeapAllocator()
	if m.IsLimited() {
		a = memory.NewLimitedAllocator(a, m.LimitBytes)
	}
	if m.EnableMetrics {
		a = memory.NewMetricsAllocator(a, m.Name)
	}
	return a
}

// ServesMetrics returns true if a /metrics endpoint should be started
func (o *ObservabilityConfig) ServesMetrics() bool {
	return o.MetricsAddr != ""
}
