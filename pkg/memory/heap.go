package memory

import (
	"sync/atomic"

	"github.com/ajitpratap0/slabpool/pkg/errors"
)

// HeapAllocator allocates from the Go heap and keeps running totals.
type HeapAllocator struct {
	inUse     atomic.Int64
	allocated atomic.Int64
}

var _ Allocator = (*HeapAllocator)(nil)

var system = &HeapAllocator{}

// System returns the process-wide heap allocator.
func System() *HeapAllocator {
	return system
}

// NewHeapAllocator creates a heap allocator with its own counters.
func NewHeapAllocator() *HeapAllocator {
	return &HeapAllocator{}
}

func (h *HeapAllocator) Allocate(size int) ([]byte, error) {
	if size < 0 {
		return nil, errors.New(errors.ErrorTypeValidation, "negative allocation size").
			WithDetail("size", size)
	}
	buf := make([]byte, size)
	h.inUse.Add(int64(size))
	h.allocated.Add(int64(size))
	return buf, nil
}

func (h *HeapAllocator) Reallocate(buf []byte, size int) ([]byte, error) {
	if size < 0 {
		return nil, errors.New(errors.ErrorTypeValidation, "negative allocation size").
			WithDetail("size", size)
	}
	if size <= cap(buf) {
		old := len(buf)
		buf = buf[:size]
		// Regrown tail must read as zero.
		if size > old {
			clear(buf[old:])
		}
		h.inUse.Add(int64(size - old))
		return buf, nil
	}
	out := make([]byte, size)
	copy(out, buf)
	h.inUse.Add(int64(size - len(buf)))
	h.allocated.Add(int64(size))
	return out, nil
}

func (h *HeapAllocator) Deallocate(buf []byte) {
	h.inUse.Add(-int64(len(buf)))
}

// InUse returns the bytes currently held by callers.
func (h *HeapAllocator) InUse() int64 {
	return h.inUse.Load()
}

// Allocated returns the total bytes ever handed out.
func (h *HeapAllocator) Allocated() int64 {
	return h.allocated.Load()
}
