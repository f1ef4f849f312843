package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ajitpratap0/slabpool/internal/workload"
	"github.com/ajitpratap0/slabpool/pkg/config"
	"github.com/ajitpratap0/slabpool/pkg/json"
	"github.com/ajitpratap0/slabpool/pkg/logger"
	"github.com/ajitpratap0/slabpool/pkg/observability"
	"github.com/ajitpratap0/slabpool/pkg/performance"
	"github.com/ajitpratap0/slabpool/pkg/threadpool"
)

type benchFlags struct {
	configFile     string
	producers      int
	tasks          int
	work           time.Duration
	workers        int
	recordsPerPool int
	memoryLimit    int64
	metricsAddr    string
	trace          bool
	exportMetrics  bool
	logLevel       string
	output         string
	stopOnReject   bool
}

func newBenchCmd() *cobra.Command {
	f := &benchFlags{}

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Drive a thread pool with concurrent producers and report throughput",
		Long: `Start a thread pool, submit tasks from several producers, wait for every
accepted task to finish, then print a JSON report.

Example:
  slabpool bench --producers 8 --tasks 100000 --workers 4 --metrics-addr :9090`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(f.configFile)
			if err != nil {
				return err
			}
			applyBenchFlags(cmd, cfg, f)
			if err := cfg.Validate(); err != nil {
				return err
			}
			return runBench(cmd.Context(), cfg, f, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	cmd.Flags().StringVarP(&f.configFile, "config", "c", "", "Path to a YAML configuration file (optional)")
	cmd.Flags().IntVar(&f.producers, "producers", 4, "Number of concurrent producers")
	cmd.Flags().IntVar(&f.tasks, "tasks", 10000, "Tasks submitted by each producer")
	cmd.Flags().DurationVar(&f.work, "work", 0, "Time each task spends sleeping (e.g. 100us)")
	cmd.Flags().IntVar(&f.workers, "workers", 0, "Worker goroutines (overrides config)")
	cmd.Flags().IntVar(&f.recordsPerPool, "records-per-pool", 0, "Task records per slab (overrides config)")
	cmd.Flags().Int64Var(&f.memoryLimit, "memory-limit", 0, "Allocator budget in bytes, 0 for unlimited (overrides config)")
	cmd.Flags().StringVar(&f.metricsAddr, "metrics-addr", "", "Serve Prometheus /metrics on this address (overrides config)")
	cmd.Flags().BoolVar(&f.trace, "trace", false, "Export task spans to stderr")
	cmd.Flags().BoolVar(&f.exportMetrics, "export-metrics", false, "Export OpenTelemetry pool gauges to stderr")
	cmd.Flags().StringVar(&f.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "Write the JSON report to this file instead of stdout")
	cmd.Flags().BoolVar(&f.stopOnReject, "stop-on-reject", false, "Abort on the first rejected submission")

	return cmd
}

// applyBenchFlags lets explicitly set flags win over the loaded configuration.
func applyBenchFlags(cmd *cobra.Command, cfg *config.Config, f *benchFlags) {
	flags := cmd.Flags()
	if flags.Changed("workers") {
		cfg.ThreadPool.Workers = f.workers
	}
	if flags.Changed("records-per-pool") {
		cfg.ThreadPool.RecordsPerPool = f.recordsPerPool
	}
	if flags.Changed("memory-limit") {
		cfg.Memory.LimitBytes = f.memoryLimit
	}
	if flags.Changed("metrics-addr") {
		cfg.Observability.MetricsAddr = f.metricsAddr
	}
	if flags.Changed("trace") {
		cfg.Observability.EnableTracing = f.trace
	}
	if flags.Changed("export-metrics") {
		cfg.Observability.ExportMetrics = f.exportMetrics
	}
	if flags.Changed("log-level") {
		cfg.Logging.Level = f.logLevel
	}
}

func runBench(ctx context.Context, cfg *config.Config, f *benchFlags, stdout, stderr io.Writer) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := logger.Init(cfg.Logging); err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	log := logger.Named("cli").With(zap.String("pool", cfg.ThreadPool.Name))

	obsCfg := observability.DefaultConfig()
	obsCfg.Tracing.ServiceName = cfg.Observability.ServiceName
	obsCfg.Tracing.ServiceVersion = version
	obsCfg.Tracing.Writer = stderr
	obsCfg.Metrics.Writer = stderr
	if cfg.Observability.ExportMetrics {
		obsCfg.Metrics.ExporterType = "stdout"
	} else {
		obsCfg.Metrics.ExporterType = "none"
	}
	if cfg.Observability.EnableTracing {
		obsCfg.Tracing.SamplingRate = cfg.Observability.TracingSampleRate
	} else {
		obsCfg.Tracing.ExporterType = "none"
		obsCfg.Tracing.SamplingRate = 0
	}
	if err := observability.Initialize(obsCfg); err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := observability.Shutdown(shutdownCtx); err != nil {
			log.Warn("observability shutdown failed", zap.Error(err))
		}
	}()

	if cfg.Observability.ServesMetrics() {
		srv := serveMetrics(cfg.Observability.MetricsAddr, log)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	monitor, err := performance.NewResourceMonitor(ctx)
	if err != nil {
		return err
	}

	pool, err := threadpool.New(cfg.ThreadPool,
		threadpool.WithAllocator(cfg.Memory.NewAllocator()),
		threadpool.WithLogger(logger.Named("threadpool")),
		threadpool.WithTracer(observability.GetTracer()))
	if err != nil {
		return err
	}
	defer pool.Close()

	reg, err := observability.RegisterPoolGauges(observability.GetMeter(), pool)
	if err != nil {
		return err
	}
	defer func() { _ = reg.Unregister() }()

	runner, err := workload.NewRunner(pool, workload.Config{
		Producers:        f.producers,
		TasksPerProducer: f.tasks,
		Work:             f.work,
		StopOnReject:     f.stopOnReject,
	}, log)
	if err != nil {
		return err
	}

	op := observability.NewOperationLogger(log, "bench")
	op.LogStart("benchmark starting",
		zap.Int("producers", f.producers),
		zap.Int("tasks_per_producer", f.tasks),
		zap.Int("workers", pool.Workers()))

	report, runErr := runner.Run(ctx)
	flushCtx, cancelFlush := context.WithTimeout(context.Background(), 5*time.Second)
	if err := observability.Flush(flushCtx); err != nil {
		log.Warn("observability flush failed", zap.Error(err))
	}
	cancelFlush()
	pool.Close()

	if usage, err := monitor.Sample(context.Background()); err == nil {
		report.Resources = usage
	} else {
		log.Warn("resource sample failed", zap.Error(err))
	}

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		op.LogError("benchmark failed", runErr)
	} else {
		op.LogComplete("benchmark finished", zap.Int64("completed", report.Completed))
	}

	if err := writeReport(f.output, stdout, report); err != nil {
		return err
	}
	return runErr
}

func serveMetrics(addr string, log *zap.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info("serving metrics", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server failed", zap.Error(err))
		}
	}()
	return srv
}

func writeReport(path string, stdout io.Writer, report *workload.Report) error {
	if path == "" {
		return json.WriteIndent(stdout, report)
	}
	f, err := os.Create(path) //nolint:gosec // G304: path comes from the operator
	if err != nil {
		return err
	}
	if err := json.WriteIndent(f, report); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
