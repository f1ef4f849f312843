// Package memory defines the raw-byte allocator capability that slab pools
// grow through, together with the allocators slabpool ships: a heap
// allocator over the Go runtime, a budget-limited allocator that reports
// exhaustion, and a Prometheus-instrumented decorator.
//
// Allocators hand out byte regions. Slab pools reserve their whole slab
// footprint through an Allocator when they are created and give it back
// when they are dropped, so capping the allocator caps pool growth.
package memory

import (
	stderrors "errors"
)

// Alignment is the granularity object sizes are rounded up to.
const Alignment = 16

// ErrExhausted is returned when an allocator cannot satisfy a request.
var ErrExhausted = stderrors.New("memory: allocator exhausted")

// Allocator hands out and reclaims byte regions.
// Implementations must be safe for concurrent use.
type Allocator interface {
	// Allocate returns a zeroed region of exactly size bytes.
	Allocate(size int) ([]byte, error)
	// Reallocate grows or shrinks buf to size bytes, preserving the common
	// prefix. buf may be nil, in which case it behaves like Allocate.
	Reallocate(buf []byte, size int) ([]byte, error)
	// Deallocate returns buf to the allocator. buf must not be used after.
	Deallocate(buf []byte)
}

// RoundToAlignment rounds size up to the next multiple of Alignment.
// Sizes below one are rounded to a single alignment unit.
func RoundToAlignment(size int) int {
	if size < 1 {
		return Alignment
	}
	return (size + Alignment - 1) &^ (Alignment - 1)
}
