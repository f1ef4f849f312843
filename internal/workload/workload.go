// Package workload drives a thread pool with concurrent producers and
// reports what happened.
package workload

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ajitpratap0/slabpool/pkg/errors"
	"github.com/ajitpratap0/slabpool/pkg/metrics"
	"github.com/ajitpratap0/slabpool/pkg/observability"
	"github.com/ajitpratap0/slabpool/pkg/performance"
	"github.com/ajitpratap0/slabpool/pkg/threadpool"
)

// Submitter accepts tasks.
type Submitter interface {
	Add(task threadpool.Task) error
	Name() string
}

// Config shapes a workload.
type Config struct {
	Producers        int           `json:"producers"`
	TasksPerProducer int           `json:"tasks_per_producer"`
	Work             time.Duration `json:"work"`
	// StopOnReject aborts the run on the first rejected submission instead
	// of counting it and moving on.
	StopOnReject bool `json:"stop_on_reject"`
}

// Report summarises a finished run.
type Report struct {
	Pool       string                     `json:"pool"`
	Producers  int                        `json:"producers"`
	Submitted  int64                      `json:"submitted"`
	Completed  int64                      `json:"completed"`
	Rejected   int64                      `json:"rejected"`
	Elapsed    time.Duration              `json:"elapsed_ns"`
	Throughput float64                    `json:"throughput_per_sec"`
	Latency    performance.Percentiles    `json:"latency"`
	Resources  *performance.ResourceUsage `json:"resources,omitempty"`
}

// Runner submits tasks on behalf of several producers.
type Runner struct {
	pool    Submitter
	config  Config
	logger  *zap.Logger
	latency *performance.LatencyTracker
	tracker *metrics.ThroughputTracker

	submitted atomic.Int64
	completed atomic.Int64
	rejected  atomic.Int64
}

// NewRunner validates cfg and prepares a run against pool.
func NewRunner(pool Submitter, cfg Config, logger *zap.Logger) (*Runner, error) {
	if cfg.Producers < 1 || cfg.TasksPerProducer < 0 {
		return nil, errors.New(errors.ErrorTypeValidation, "workload needs at least one producer").
			WithDetail("producers", cfg.Producers).
			WithDetail("tasks_per_producer", cfg.TasksPerProducer)
	}
	return &Runner{
		pool:    pool,
		config:  cfg,
		logger:  logger.With(zap.String("pool", pool.Name())),
		latency: performance.NewLatencyTracker(),
		tracker: metrics.NewThroughputTracker(pool.Name()),
	}, nil
}

// Run submits every task and waits until all accepted tasks have finished.
// Cancelling ctx stops producers early; tasks already accepted still run.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	start := time.Now()
	var inflight sync.WaitGroup

	err := observability.Trace(ctx, "workload.run", func(ctx context.Context) error {
		g, ctx := errgroup.WithContext(ctx)
		for p := 0; p < r.config.Producers; p++ {
			p := p
			g.Go(func() error { return r.produce(ctx, p, &inflight) })
		}
		return g.Wait()
	},
		attribute.String("pool", r.pool.Name()),
		attribute.Int("producers", r.config.Producers),
		attribute.Int("tasks_per_producer", r.config.TasksPerProducer),
	)

	inflight.Wait()
	elapsed := time.Since(start)

	report := &Report{
		Pool:      r.pool.Name(),
		Producers: r.config.Producers,
		Submitted: r.submitted.Load(),
		Completed: r.completed.Load(),
		Rejected:  r.rejected.Load(),
		Elapsed:   elapsed,
		Latency:   r.latency.Percentiles(),
	}
	if elapsed > 0 {
		report.Throughput = float64(report.Completed) / elapsed.Seconds()
	}
	r.tracker.GetAndReset()

	r.logger.Info("workload finished",
		zap.Int64("submitted", report.Submitted),
		zap.Int64("completed", report.Completed),
		zap.Int64("rejected", report.Rejected),
		zap.Duration("elapsed", elapsed),
		zap.Float64("throughput", report.Throughput))
	return report, err
}

func (r *Runner) produce(ctx context.Context, producer int, inflight *sync.WaitGroup) error {
	for i := 0; i < r.config.TasksPerProducer; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		queued := time.Now()
		inflight.Add(1)
		err := r.pool.Add(func(int) {
			defer inflight.Done()
			if r.config.Work > 0 {
				time.Sleep(r.config.Work)
			}
			r.latency.Record(time.Since(queued))
			r.completed.Add(1)
			r.tracker.Increment(1)
		})
		if err != nil {
			inflight.Done()
			r.rejected.Add(1)
			if r.config.StopOnReject {
				return err
			}
			r.logger.Debug("task rejected",
				zap.Int("producer", producer),
				zap.Int("task", i),
				zap.Error(err))
			continue
		}
		r.submitted.Add(1)
	}
	return nil
}
