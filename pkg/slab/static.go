package slab

import (
	stderrors "errors"
	"fmt"
	"unsafe"

	"github.com/ajitpratap0/slabpool/pkg/errors"
	"github.com/ajitpratap0/slabpool/pkg/memory"
)

// ErrPoolFull is returned by StaticPool.Create when every slot is taken.
var ErrPoolFull = stderrors.New("slab: pool is full")

// Finalizer is implemented by pooled values that must release resources
// when their slot is destroyed. Finalize runs exactly once per Create.
type Finalizer interface {
	Finalize()
}

// StaticPool is a fixed-capacity arena of object-sized slots.
//
// The slab region (ObjectSize * Capacity bytes) is reserved from the
// allocator up front and returned by Release. Values themselves live in a
// typed slot array so the garbage collector can see pointers inside T.
//
// StaticPool does no locking; callers provide mutual exclusion.
type StaticPool[T any] struct {
	owner      uint32
	id         uint32
	allocator  memory.Allocator
	objectSize int
	capacity   int
	region     []byte
	slots      []T
	gens       []uint32
	tracker    *Tracker
}

// NewStaticPool reserves a pool of capacity slots from allocator.
// A nil allocator means memory.System().
func NewStaticPool[T any](allocator memory.Allocator, capacity int) (*StaticPool[T], error) {
	return newStaticPool[T](allocator, nextOwner(), 0, capacity)
}

func newStaticPool[T any](allocator memory.Allocator, owner, id uint32, capacity int) (*StaticPool[T], error) {
	if capacity < 1 {
		return nil, errors.New(errors.ErrorTypeValidation, "static pool capacity must be positive").
			WithDetail("capacity", capacity)
	}
	if allocator == nil {
		allocator = memory.System()
	}

	objectSize := objectSizeOf[T]()

	region, err := allocator.Allocate(objectSize * capacity)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeResourceExhausted, "failed to reserve slab region").
			WithDetail("object_size", objectSize).
			WithDetail("capacity", capacity)
	}

	return &StaticPool[T]{
		owner:      owner,
		id:         id,
		allocator:  allocator,
		objectSize: objectSize,
		capacity:   capacity,
		region:     region,
		slots:      make([]T, capacity),
		gens:       make([]uint32, capacity),
		tracker:    NewTracker(capacity),
	}, nil
}

// finalize runs the value's Finalize method, found either on the stored
// value itself (pointer and value receivers of T) or on its slot address.
func finalize[T any](slot *T) {
	if f, ok := any(*slot).(Finalizer); ok {
		f.Finalize()
		return
	}
	if f, ok := any(slot).(Finalizer); ok {
		f.Finalize()
	}
}

func objectSizeOf[T any]() int {
	var zero T
	return memory.RoundToAlignment(int(unsafe.Sizeof(zero)))
}

// Allocate claims the lowest free slot and returns its index,
// or InvalidIndex when the pool is full.
func (p *StaticPool[T]) Allocate() int {
	index := p.tracker.FindFirstUnset()
	if index == InvalidIndex {
		return InvalidIndex
	}

	p.tracker.Set(index)
	p.gens[index]++
	if p.gens[index] == 0 {
		p.gens[index] = 1
	}
	return index
}

// Deallocate frees slot index. The slot must be allocated.
func (p *StaticPool[T]) Deallocate(index int) {
	if index < 0 || index >= p.capacity {
		panic(fmt.Sprintf("slab: deallocate of slot %d outside pool of %d", index, p.capacity))
	}
	if !p.tracker.Test(index) {
		panic(fmt.Sprintf("slab: deallocate of unallocated slot %d", index))
	}
	var zero T
	p.slots[index] = zero
	p.tracker.Clear(index)
}

// Create stores value in a free slot. A full pool returns an error wrapping
// ErrPoolFull and stores nothing.
func (p *StaticPool[T]) Create(value T) (Handle, error) {
	index := p.Allocate()
	if index == InvalidIndex {
		return Handle{}, errors.Wrap(ErrPoolFull, errors.ErrorTypeResourceExhausted, "static pool has no free slot").
			WithDetail("capacity", p.capacity)
	}
	p.slots[index] = value
	return p.handle(index), nil
}

// Destroy finalizes the object behind h and frees its slot.
// h must have been issued by this pool and still be live.
func (p *StaticPool[T]) Destroy(h Handle) {
	index := p.mustIndex(h)
	finalize(&p.slots[index])
	p.Deallocate(index)
}

// Get returns the live object behind h. The pointer is valid until the
// object is destroyed.
func (p *StaticPool[T]) Get(h Handle) (*T, bool) {
	index, ok := p.indexOf(h)
	if !ok {
		return nil, false
	}
	return &p.slots[index], true
}

// Owns reports whether h was issued by this pool, live or not.
func (p *StaticPool[T]) Owns(h Handle) bool {
	return h.owner == p.owner && h.pool == p.id
}

func (p *StaticPool[T]) handle(index int) Handle {
	return Handle{owner: p.owner, pool: p.id, slot: uint32(index), gen: p.gens[index]}
}

func (p *StaticPool[T]) indexOf(h Handle) (int, bool) {
	if !p.Owns(h) {
		return InvalidIndex, false
	}
	index := int(h.slot)
	if index >= p.capacity || !p.tracker.Test(index) || p.gens[index] != h.gen {
		return InvalidIndex, false
	}
	return index, true
}

func (p *StaticPool[T]) mustIndex(h Handle) int {
	if !p.Owns(h) {
		panic(fmt.Sprintf("slab: handle %s not issued by pool %d", h, p.id))
	}
	if int(h.slot) >= p.capacity {
		panic(fmt.Sprintf("slab: handle %s outside pool of %d", h, p.capacity))
	}
	index, ok := p.indexOf(h)
	if !ok {
		panic(fmt.Sprintf("slab: handle %s is stale", h))
	}
	return index
}

// Release finalizes any live objects and returns the slab region to the
// allocator. The pool must not be used afterwards.
func (p *StaticPool[T]) Release() {
	if p.region == nil {
		return
	}
	for index := 0; index < p.capacity && p.tracker.Count() > 0; index++ {
		if p.tracker.Test(index) {
			p.Destroy(p.handle(index))
		}
	}
	p.allocator.Deallocate(p.region)
	p.region = nil
	p.slots = nil
}

// ID returns the pool id embedded in issued handles.
func (p *StaticPool[T]) ID() uint32 { return p.id }

// Len returns the number of live objects.
func (p *StaticPool[T]) Len() int { return p.tracker.Count() }

// Capacity returns the number of slots.
func (p *StaticPool[T]) Capacity() int { return p.capacity }

// ObjectSize returns the alignment-rounded slot size in bytes.
func (p *StaticPool[T]) ObjectSize() int { return p.objectSize }

// CanAllocate reports whether a slot is free.
func (p *StaticPool[T]) CanAllocate() bool { return p.tracker.Count() < p.capacity }

// IsFull reports whether every slot is taken.
func (p *StaticPool[T]) IsFull() bool { return !p.CanAllocate() }

// IsEmpty reports whether no slot is taken.
func (p *StaticPool[T]) IsEmpty() bool { return p.tracker.Count() == 0 }
