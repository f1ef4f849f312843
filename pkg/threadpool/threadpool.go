package threadpool

import (
	"context"
	stderrors "errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/ajitpratap0/slabpool/pkg/errors"
	"github.com/ajitpratap0/slabpool/pkg/logger"
	"github.com/ajitpratap0/slabpool/pkg/metrics"
	"github.com/ajitpratap0/slabpool/pkg/slab"
)

const tracerName = "github.com/ajitpratap0/slabpool/pkg/threadpool"

// ErrClosed is returned by Add once Close has been called.
var ErrClosed = stderrors.New("threadpool: pool is closed")

// Task is a unit of work. It receives the id of the worker running it,
// in [0, Workers).
type Task func(workerID int)

// State is the lifecycle stage of a ThreadPool.
type State int32

const (
	StateRunning State = iota
	StateStopping
	StateJoined
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	case StateJoined:
		return "joined"
	default:
		return "unknown"
	}
}

// Stats is a point-in-time view of a ThreadPool.
type Stats struct {
	Name    string     `json:"name"`
	State   string     `json:"state"`
	Workers int        `json:"workers"`
	Pending int        `json:"pending"`
	Records slab.Stats `json:"records"`
}

type taskRecord struct {
	task     Task
	enqueued time.Time
	next     slab.Handle
}

// ThreadPool executes tasks on a fixed set of workers.
type ThreadPool struct {
	name    string
	workers int
	logger  *zap.Logger
	tracer  trace.Tracer

	mu       sync.Mutex
	cond     *sync.Cond
	records  *slab.DynamicPool[taskRecord]
	head     slab.Handle
	tail     slab.Handle
	pending  int
	stopping bool

	state     atomic.Int32
	closeOnce sync.Once
	done      sync.WaitGroup

	submitted prometheus.Counter
	completed prometheus.Counter
	depth     prometheus.Gauge
	busy      prometheus.Gauge
	duration  prometheus.Observer
}

// New starts cfg.Workers workers and returns once all of them are waiting
// for work.
func New(cfg Config, opts ...Option) (*ThreadPool, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Name == "" {
		cfg.Name = "system"
	}
	if cfg.RecordsPerPool == 0 {
		cfg.RecordsPerPool = DefaultRecordsPerPool
	}

	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logger.Named("threadpool")
	}
	if o.tracer == nil {
		o.tracer = otel.Tracer(tracerName)
	}
	log := o.logger.With(zap.String("pool", cfg.Name))

	records, err := slab.NewDynamicPool[taskRecord](o.allocator, cfg.RecordsPerPool,
		slab.WithName(cfg.Name),
		slab.WithLogger(log))
	if err != nil {
		return nil, err
	}

	p := &ThreadPool{
		name:      cfg.Name,
		workers:   cfg.Workers,
		logger:    log,
		tracer:    o.tracer,
		records:   records,
		submitted: metrics.TasksSubmitted.WithLabelValues(cfg.Name),
		completed: metrics.TasksCompleted.WithLabelValues(cfg.Name),
		depth:     metrics.QueueDepth.WithLabelValues(cfg.Name),
		busy:      metrics.WorkersBusy.WithLabelValues(cfg.Name),
		duration:  metrics.TaskDuration.WithLabelValues(cfg.Name),
	}
	p.cond = sync.NewCond(&p.mu)

	timer := metrics.NewTimer("threadpool_start")
	var ready sync.WaitGroup
	ready.Add(cfg.Workers)
	p.done.Add(cfg.Workers)
	for id := 0; id < cfg.Workers; id++ {
		go p.work(id, &ready)
	}
	ready.Wait()

	p.logger.Info("thread pool started",
		zap.Int("workers", cfg.Workers),
		zap.Int("records_per_pool", cfg.RecordsPerPool),
		zap.Int("record_size", records.ObjectSize()),
		zap.Duration("elapsed", timer.Stop()))
	return p, nil
}

// Add queues task for execution and returns without waiting for a worker.
// It fails if task is nil, if the pool is closing, or if no task record can
// be allocated; in every failure case the task is neither queued nor run.
func (p *ThreadPool) Add(task Task) error {
	if task == nil {
		p.reject("invalid")
		return errors.New(errors.ErrorTypeValidation, "task must not be nil").
			WithDetail("pool", p.name)
	}

	p.mu.Lock()
	if p.stopping {
		p.mu.Unlock()
		p.reject("closed")
		return errors.Wrap(ErrClosed, errors.ErrorTypeClosed, "thread pool is shutting down").
			WithDetail("pool", p.name)
	}

	h, err := p.records.Create(taskRecord{task: task, enqueued: time.Now()})
	if err != nil {
		p.mu.Unlock()
		p.reject("exhausted")
		return errors.Wrap(err, errors.ErrorTypeResourceExhausted, "failed to allocate task record").
			WithDetail("pool", p.name)
	}

	if p.tail.IsZero() {
		p.head = h
	} else {
		prev, _ := p.records.Get(p.tail)
		prev.next = h
	}
	p.tail = h
	p.pending++
	p.depth.Set(float64(p.pending))
	p.mu.Unlock()

	p.cond.Signal()
	p.submitted.Inc()
	return nil
}

func (p *ThreadPool) reject(reason string) {
	metrics.TasksRejected.WithLabelValues(p.name, reason).Inc()
}

func (p *ThreadPool) work(id int, ready *sync.WaitGroup) {
	defer p.done.Done()

	p.mu.Lock()
	ready.Done()
	for {
		for p.head.IsZero() && !p.stopping {
			p.cond.Wait()
		}
		if p.head.IsZero() {
			p.mu.Unlock()
			p.logger.Debug("worker exiting", zap.Int("worker_id", id))
			return
		}

		h := p.head
		rec, _ := p.records.Get(h)
		task, enqueued := rec.task, rec.enqueued
		p.head = rec.next
		if p.head.IsZero() {
			p.tail = slab.Handle{}
		}
		p.records.Destroy(h)
		p.pending--
		p.depth.Set(float64(p.pending))
		p.mu.Unlock()

		p.run(id, task, enqueued)

		p.mu.Lock()
	}
}

func (p *ThreadPool) run(id int, task Task, enqueued time.Time) {
	_, span := p.tracer.Start(context.Background(), "threadpool.task",
		trace.WithAttributes(
			attribute.String("threadpool.name", p.name),
			attribute.Int("threadpool.worker_id", id),
		))
	p.busy.Inc()
	start := time.Now()

	task(id)

	elapsed := time.Since(start)
	p.busy.Dec()
	span.End()

	p.completed.Inc()
	p.duration.Observe(elapsed.Seconds())
	p.logger.Debug("task finished",
		zap.Int("worker_id", id),
		zap.Duration("waited", start.Sub(enqueued)),
		zap.Duration("elapsed", elapsed))
}

// Close stops accepting tasks, waits for the workers to drain the queue and
// exit, and frees the task records. Later calls return once the first one
// has finished.
func (p *ThreadPool) Close() {
	p.closeOnce.Do(func() {
		timer := metrics.NewTimer("threadpool_stop")

		p.mu.Lock()
		p.stopping = true
		pending := p.pending
		p.mu.Unlock()
		p.state.Store(int32(StateStopping))
		p.cond.Broadcast()

		p.done.Wait()

		p.mu.Lock()
		p.records.Release()
		p.mu.Unlock()
		p.state.Store(int32(StateJoined))

		p.logger.Info("thread pool stopped",
			zap.Int("drained", pending),
			zap.Duration("elapsed", timer.Stop()))
	})
}

// State reports the lifecycle stage.
func (p *ThreadPool) State() State {
	return State(p.state.Load())
}

// Name returns the pool name.
func (p *ThreadPool) Name() string { return p.name }

// Workers returns the number of worker goroutines.
func (p *ThreadPool) Workers() int { return p.workers }

// Pending returns the number of queued tasks no worker has picked up yet.
func (p *ThreadPool) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pending
}

// RecordSize returns the slab slot size of one task record.
func (p *ThreadPool) RecordSize() int { return p.records.ObjectSize() }

// Stats returns a snapshot of the queue and record pool.
func (p *ThreadPool) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Stats{
		Name:    p.name,
		State:   p.State().String(),
		Workers: p.workers,
		Pending: p.pending,
		Records: p.records.Stats(),
	}
}
