package memory

import (
	"sync/atomic"

	"github.com/ajitpratap0/slabpool/pkg/errors"
)

// LimitedAllocator caps the bytes an upstream allocator may hand out.
// Requests that would exceed the limit fail with an error wrapping
// ErrExhausted and leave the upstream untouched.
type LimitedAllocator struct {
	upstream Allocator
	limit    int64
	inUse    atomic.Int64
}

var _ Allocator = (*LimitedAllocator)(nil)

// NewLimitedAllocator wraps upstream with a budget of limit bytes.
// A nil upstream means the system heap allocator.
func NewLimitedAllocator(upstream Allocator, limit int64) *LimitedAllocator {
	if upstream == nil {
		upstream = System()
	}
	return &LimitedAllocator{
		upstream: upstream,
		limit:    limit,
	}
}

// reserve claims delta bytes of budget, failing without side effects.
func (l *LimitedAllocator) reserve(delta int64) error {
	for {
		cur := l.inUse.Load()
		if cur+delta > l.limit {
			return errors.Wrap(ErrExhausted, errors.ErrorTypeResourceExhausted, "allocation exceeds budget").
				WithDetail("requested", delta).
				WithDetail("in_use", cur).
				WithDetail("limit", l.limit)
		}
		if l.inUse.CompareAndSwap(cur, cur+delta) {
			return nil
		}
	}
}

func (l *LimitedAllocator) Allocate(size int) ([]byte, error) {
	if err := l.reserve(int64(size)); err != nil {
		return nil, err
	}
	buf, err := l.upstream.Allocate(size)
	if err != nil {
		l.inUse.Add(-int64(size))
		return nil, err
	}
	return buf, nil
}

func (l *LimitedAllocator) Reallocate(buf []byte, size int) ([]byte, error) {
	delta := int64(size - len(buf))
	if delta > 0 {
		if err := l.reserve(delta); err != nil {
			return nil, err
		}
	}
	out, err := l.upstream.Reallocate(buf, size)
	if err != nil {
		if delta > 0 {
			l.inUse.Add(-delta)
		}
		return nil, err
	}
	if delta < 0 {
		l.inUse.Add(delta)
	}
	return out, nil
}

func (l *LimitedAllocator) Deallocate(buf []byte) {
	l.inUse.Add(-int64(len(buf)))
	l.upstream.Deallocate(buf)
}

// Limit returns the configured budget in bytes.
func (l *LimitedAllocator) Limit() int64 {
	return l.limit
}

// InUse returns the budget currently claimed.
func (l *LimitedAllocator) InUse() int64 {
	return l.inUse.Load()
}

// Remaining returns the unclaimed budget.
func (l *LimitedAllocator) Remaining() int64 {
	return l.limit - l.inUse.Load()
}
