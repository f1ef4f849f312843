// Package config provides configuration management for slabpool.
//
// A single Config structure sizes the thread pool, bounds the allocator that
// backs task records, and configures logging and observability.
//
// # Key Features
//
//   - Config: one structure with ThreadPool, Memory, Logging and Observability sections
//   - Defaults from NewDefault, checked by Validate
//   - Environment variable substitution with ${VAR_NAME} syntax
//   - SLABPOOL_* environment overrides, e.g. SLABPOOL_THREAD_POOL_WORKERS=8
//
// # Usage
//
// ## Loading a File
//
//	cfg, err := config.Load("slabpool.yaml")
//	if err != nil {
//		log.Fatal(err)
//	}
//	pool, err := threadpool.New(cfg.ThreadPool,
//		threadpool.WithAllocator(cfg.Memory.NewAllocator()))
//
// ## File Format
//
//	version: 1.0.0
//	thread_pool:
//	  name: ingest
//	  workers: 8
//	  records_per_pool: 1024
//	memory:
//	  limit_bytes: ${SLABPOOL_BUDGET}
//	  enable_metrics: true
//	  name: ingest
//	logging:
//	  level: info
//	  encoding: json
//	observability:
//	  metrics_addr: ":9090"
//	  enable_tracing: false
//
// ## Writing a Starter File
//
//	if err := config.Save("slabpool.yaml", config.NewDefault()); err != nil {
//		log.Fatal(err)
//	}
//
// # Precedence
//
// Environment overrides win over file values, which win over NewDefault.
// Load validates the merged result and returns an error of type
// errors.ErrorTypeConfig when it is invalid.
package config
