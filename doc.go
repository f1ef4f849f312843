// Package slabpool provides fixed-size typed object pools built on slabs,
// and a worker thread pool whose pending tasks live in those pools.
//
// # Architecture
//
// The module is layered bottom-up:
//
//   - pkg/memory: the Allocator interface with a heap allocator, a
//     budget-limited allocator and a Prometheus-instrumented decorator.
//   - pkg/slab: Tracker (occupancy bitmap), StaticPool[T] (fixed capacity)
//     and DynamicPool[T] (grows and shrinks one static pool at a time).
//     Objects are addressed by generation-checked handles.
//   - pkg/threadpool: ThreadPool runs Task callbacks on a fixed set of
//     workers, queueing them in a FIFO of slab-allocated task records.
//
// Ambient packages follow the same pattern throughout: pkg/logger (zap),
// pkg/errors (typed errors), pkg/config (viper + YAML), pkg/metrics
// (Prometheus), pkg/observability (OpenTelemetry) and pkg/performance
// (process resource sampling).
//
// # Quick Start
//
//	pool, err := threadpool.New(threadpool.Config{Name: "ingest", Workers: 4})
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer pool.Close()
//
//	for i := 0; i < 100; i++ {
//		i := i
//		if err := pool.Add(func(workerID int) { process(i, workerID) }); err != nil {
//			log.Printf("task %d rejected: %v", i, err)
//		}
//	}
//
// # Lifecycle
//
// There is no process-wide pool. Callers construct a ThreadPool, pass it to
// whatever submits work, and Close it during shutdown. Close drains queued
// tasks before returning.
//
// # Command Line
//
// cmd/slabpool wraps the library:
//
//	slabpool config init -o slabpool.yaml
//	slabpool bench -c slabpool.yaml --producers 8 --tasks 100000 --metrics-addr :9090
package slabpool
