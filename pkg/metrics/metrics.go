// Package metrics provides performance tracking and observability for slabpool
// using Prometheus metrics. It offers collectors for allocator usage, slab
// occupancy, and worker pool throughput.
//
// # Overview
//
// The metrics package provides:
//   - Prometheus-compatible metrics collection
//   - Pre-defined metrics for allocators, slab pools and thread pools
//   - A Timer used as the stopwatch for lifecycle and task timing
//   - Throughput tracking for benchmark workloads
//
// # Basic Usage
//
//	// Count a submitted task
//	metrics.TasksSubmitted.WithLabelValues("system").Inc()
//
//	// Time an operation
//	timer := metrics.NewTimer("pool_start")
//	startWorkers()
//	logger.Info("started", zap.Duration("took", timer.Stop()))
//
// All metrics are registered with the default Prometheus registry and are
// safe for concurrent use.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AllocatorBytesAllocated counts bytes handed out by an allocator.
	// Labels: allocator
	AllocatorBytesAllocated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "slabpool_allocator_allocated_bytes_total",
			Help: "Total bytes handed out by the allocator",
		},
		[]string{"allocator"},
	)

	// AllocatorBytesInUse tracks bytes currently held by callers
	AllocatorBytesInUse = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "slabpool_allocator_inuse_bytes",
			Help: "Bytes currently held by allocator callers",
		},
		[]string{"allocator"},
	)

	// AllocatorFailures counts allocation requests the allocator refused
	AllocatorFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "slabpool_allocator_failures_total",
			Help: "Total allocation requests that failed",
		},
		[]string{"allocator"},
	)

	// SlabPools tracks the number of static pools owned by a dynamic pool
	SlabPools = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "slabpool_slab_pools",
			Help: "Number of static pools owned by a dynamic pool",
		},
		[]string{"pool"},
	)

	// SlabObjectsLive tracks live objects in a dynamic pool
	SlabObjectsLive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "slabpool_slab_objects_live",
			Help: "Live objects held by a dynamic pool",
		},
		[]string{"pool"},
	)

	// TasksSubmitted counts tasks accepted by a thread pool.
	// Labels: pool
	//
	// Example:
	//	metrics.TasksSubmitted.WithLabelValues("system").Inc()
	TasksSubmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "slabpool_tasks_submitted_total",
			Help: "Total number of tasks accepted",
		},
		[]string{"pool"},
	)

	// TasksRejected counts submissions refused by a thread pool.
	// Labels: pool, reason (closed, exhausted, invalid)
	TasksRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "slabpool_tasks_rejected_total",
			Help: "Total number of tasks rejected at submission",
		},
		[]string{"pool", "reason"},
	)

	// TasksCompleted counts tasks that ran to completion
	TasksCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "slabpool_tasks_completed_total",
			Help: "Total number of tasks executed",
		},
		[]string{"pool"},
	)

	// QueueDepth tracks pending task records
	QueueDepth = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "slabpool_queue_depth",
			Help: "Current number of queued task records",
		},
		[]string{"pool"},
	)

	// WorkersBusy tracks workers currently executing a callback
	WorkersBusy = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "slabpool_workers_busy",
			Help: "Workers currently executing a task",
		},
		[]string{"pool"},
	)

	// TaskDuration tracks callback execution time in seconds
	TaskDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "slabpool_task_duration_seconds",
			Help:    "Task execution time in seconds",
			Buckets: []float64{0.00001, 0.0001, 0.001, 0.01, 0.1, 1, 10},
		},
		[]string{"pool"},
	)

	// Throughput tracks completed tasks per second for a workload
	Throughput = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "slabpool_throughput_tasks_per_second",
			Help: "Current throughput in tasks per second",
		},
		[]string{"pool"},
	)
)

// Timer provides a simple timing mechanism for measuring operation durations.
// It captures the start time on creation and calculates elapsed time on stop.
type Timer struct {
	start time.Time
	name  string
}

// NewTimer creates a new timer and starts timing immediately.
// The name parameter is for identification in logs or metrics.
//
// Example:
//
//	timer := metrics.NewTimer("pool_stop")
//	pool.Close()
//	logger.Info("stopped", zap.Duration("took", timer.Stop()))
func NewTimer(name string) *Timer {
	return &Timer{
		start: time.Now(),
		name:  name,
	}
}

// Name returns the timer's identifier
func (t *Timer) Name() string {
	return t.name
}

// Stop returns the elapsed duration since creation.
// The timer can be stopped multiple times, each returning the total
// elapsed time since creation.
func (t *Timer) Stop() time.Duration {
	return time.Since(t.start)
}

// ThroughputTracker tracks throughput (tasks per second) over time windows.
// Thread-safe for concurrent use.
type ThroughputTracker struct {
	mu        sync.Mutex
	count     int64     // Tasks counted since last reset
	lastReset time.Time // Time of last reset
	pool      string    // Pool name label
}

// NewThroughputTracker creates a new throughput tracker for a pool
func NewThroughputTracker(pool string) *ThroughputTracker {
	return &ThroughputTracker{
		lastReset: time.Now(),
		pool:      pool,
	}
}

// Increment adds n to the count. Safe for concurrent use.
func (t *ThroughputTracker) Increment(n int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.count += n
}

// GetAndReset calculates the current throughput (tasks/second),
// updates the Prometheus metric, resets the counter, and returns
// the calculated throughput. Safe for concurrent use.
func (t *ThroughputTracker) GetAndReset() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	elapsed := time.Since(t.lastReset).Seconds()
	if elapsed == 0 {
		return 0
	}

	throughput := float64(t.count) / elapsed
	Throughput.WithLabelValues(t.pool).Set(throughput)

	t.count = 0
	t.lastReset = time.Now()

	return throughput
}
