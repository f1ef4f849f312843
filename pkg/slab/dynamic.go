package slab

import (
	"go.uber.org/zap"

	"github.com/ajitpratap0/slabpool/pkg/errors"
	"github.com/ajitpratap0/slabpool/pkg/memory"
	"github.com/ajitpratap0/slabpool/pkg/metrics"
)

// Stats is a point-in-time view of a DynamicPool.
type Stats struct {
	Pools      int `json:"pools"`
	Live       int `json:"live"`
	Capacity   int `json:"capacity"`
	PerPool    int `json:"per_pool"`
	ObjectSize int `json:"object_size"`
}

// DynamicOption configures a DynamicPool.
type DynamicOption func(*dynamicOptions)

type dynamicOptions struct {
	name   string
	logger *zap.Logger
}

// WithName labels the pool's Prometheus gauges. Unnamed pools publish nothing.
func WithName(name string) DynamicOption {
	return func(o *dynamicOptions) { o.name = name }
}

// WithLogger logs pool growth and shrink at debug level.
func WithLogger(l *zap.Logger) DynamicOption {
	return func(o *dynamicOptions) { o.logger = l }
}

// DynamicPool is an unbounded, ordered collection of StaticPools sharing one
// object size and per-pool capacity.
//
// Growth appends one pool at the tail; a pool is dropped only when it is
// both empty and last. Handles carry the owning pool's id, so Destroy and
// Get find the owner without scanning.
//
// DynamicPool does no locking; callers provide mutual exclusion.
type DynamicPool[T any] struct {
	owner      uint32
	allocator  memory.Allocator
	perPool    int
	pools      []*StaticPool[T]
	byID       map[uint32]*StaticPool[T]
	nextID     uint32
	live       int
	objectSize int

	logger *zap.Logger
	poolsG gauge
	liveG  gauge
}

type gauge interface{ Set(float64) }

type nopGauge struct{}

func (nopGauge) Set(float64) {}

// NewDynamicPool creates an empty pool that grows perPool slots at a time
// through allocator. A nil allocator means memory.System().
func NewDynamicPool[T any](allocator memory.Allocator, perPool int, opts ...DynamicOption) (*DynamicPool[T], error) {
	if perPool < 1 {
		return nil, errors.New(errors.ErrorTypeValidation, "objects per pool must be positive").
			WithDetail("per_pool", perPool)
	}
	if allocator == nil {
		allocator = memory.System()
	}

	o := dynamicOptions{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}

	d := &DynamicPool[T]{
		owner:      nextOwner(),
		allocator:  allocator,
		perPool:    perPool,
		byID:       make(map[uint32]*StaticPool[T]),
		objectSize: objectSizeOf[T](),
		logger:     o.logger,
		poolsG:     nopGauge{},
		liveG:      nopGauge{},
	}
	if o.name != "" {
		d.poolsG = metrics.SlabPools.WithLabelValues(o.name)
		d.liveG = metrics.SlabObjectsLive.WithLabelValues(o.name)
	}
	return d, nil
}

// Create stores value in the first pool with room, growing by one pool if
// every pool is full. Growth failure returns an error and stores nothing.
func (d *DynamicPool[T]) Create(value T) (Handle, error) {
	for _, p := range d.pools {
		if p.CanAllocate() {
			return d.created(p.Create(value))
		}
	}

	p, err := d.addPool()
	if err != nil {
		return Handle{}, err
	}
	return d.created(p.Create(value))
}

func (d *DynamicPool[T]) created(h Handle, err error) (Handle, error) {
	if err != nil {
		return Handle{}, err
	}
	d.live++
	d.liveG.Set(float64(d.live))
	return h, nil
}

func (d *DynamicPool[T]) addPool() (*StaticPool[T], error) {
	d.nextID++
	p, err := newStaticPool[T](d.allocator, d.owner, d.nextID, d.perPool)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeResourceExhausted, "failed to grow dynamic pool").
			WithDetail("pools", len(d.pools)).
			WithDetail("per_pool", d.perPool)
	}

	d.pools = append(d.pools, p)
	d.byID[p.id] = p
	d.poolsG.Set(float64(len(d.pools)))
	d.logger.Debug("grew pool",
		zap.Uint32("pool_id", p.id),
		zap.Int("pools", len(d.pools)),
		zap.Int("per_pool", d.perPool))
	return p, nil
}

// Allocate reserves a zero-valued slot, growing like Create. The value is
// filled in through Get.
func (d *DynamicPool[T]) Allocate() (Handle, error) {
	var zero T
	return d.Create(zero)
}

// Destroy finalizes the object behind h and frees its slot. Handles not
// issued by this pool, including the zero handle, are ignored. If the owning
// pool ends up empty and is the last pool, it is dropped.
func (d *DynamicPool[T]) Destroy(h Handle) {
	d.free(h, true)
}

// Deallocate frees the slot behind h without running its finalizer.
// It follows the same ownership and shrink rules as Destroy.
func (d *DynamicPool[T]) Deallocate(h Handle) {
	d.free(h, false)
}

func (d *DynamicPool[T]) free(h Handle, finalize bool) {
	if h.owner != d.owner {
		return
	}
	p, ok := d.byID[h.pool]
	if !ok {
		return
	}

	if finalize {
		p.Destroy(h)
	} else {
		p.Deallocate(p.mustIndex(h))
	}
	d.live--
	d.liveG.Set(float64(d.live))

	if p.IsEmpty() && p == d.pools[len(d.pools)-1] {
		d.pools[len(d.pools)-1] = nil
		d.pools = d.pools[:len(d.pools)-1]
		delete(d.byID, p.id)
		p.Release()
		d.poolsG.Set(float64(len(d.pools)))
		d.logger.Debug("dropped trailing pool",
			zap.Uint32("pool_id", p.id),
			zap.Int("pools", len(d.pools)))
	}
}

// Get returns the live object behind h.
func (d *DynamicPool[T]) Get(h Handle) (*T, bool) {
	if h.owner != d.owner {
		return nil, false
	}
	p, ok := d.byID[h.pool]
	if !ok {
		return nil, false
	}
	return p.Get(h)
}

// Release drops every pool, finalizing any live objects.
func (d *DynamicPool[T]) Release() {
	for _, p := range d.pools {
		delete(d.byID, p.id)
		p.Release()
	}
	d.pools = nil
	d.live = 0
	d.poolsG.Set(0)
	d.liveG.Set(0)
}

// Len returns the number of static pools.
func (d *DynamicPool[T]) Len() int { return len(d.pools) }

// Live returns the number of live objects.
func (d *DynamicPool[T]) Live() int { return d.live }

// PerPool returns the slot count of each static pool.
func (d *DynamicPool[T]) PerPool() int { return d.perPool }

// ObjectSize returns the alignment-rounded slot size in bytes.
func (d *DynamicPool[T]) ObjectSize() int { return d.objectSize }

// Stats returns a snapshot of the pool.
func (d *DynamicPool[T]) Stats() Stats {
	return Stats{
		Pools:      len(d.pools),
		Live:       d.live,
		Capacity:   len(d.pools) * d.perPool,
		PerPool:    d.perPool,
		ObjectSize: d.ObjectSize(),
	}
}
