package slab

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/slabpool/pkg/errors"
	"github.com/ajitpratap0/slabpool/pkg/memory"
)

type finalizeCounter struct {
	calls *int
}

func (f *finalizeCounter) Finalize() { *f.calls++ }

func TestStaticPoolAllocateLowestFree(t *testing.T) {
	p, err := NewStaticPool[int64](nil, 2)
	require.NoError(t, err)
	defer p.Release()

	assert.Equal(t, 0, p.Allocate())
	assert.Equal(t, 1, p.Allocate())
	assert.Equal(t, InvalidIndex, p.Allocate())

	p.Deallocate(0)
	assert.Equal(t, 0, p.Allocate())
}

func TestStaticPoolFullnessFollowsCount(t *testing.T) {
	p, err := NewStaticPool[int](nil, 3)
	require.NoError(t, err)
	defer p.Release()

	assert.True(t, p.IsEmpty())
	assert.True(t, p.CanAllocate())

	for i := 0; i < 3; i++ {
		assert.False(t, p.IsFull())
		p.Allocate()
	}
	assert.True(t, p.IsFull())
	assert.False(t, p.CanAllocate())
	assert.Equal(t, 3, p.Len())
}

func TestStaticPoolCreateDestroyFinalizesOnce(t *testing.T) {
	p, err := NewStaticPool[finalizeCounter](nil, 4)
	require.NoError(t, err)
	defer p.Release()

	calls := 0
	h, err := p.Create(finalizeCounter{calls: &calls})
	require.NoError(t, err)

	obj, ok := p.Get(h)
	require.True(t, ok)
	assert.Same(t, &calls, obj.calls)

	p.Destroy(h)
	assert.Equal(t, 1, calls)
	assert.True(t, p.IsEmpty())

	_, ok = p.Get(h)
	assert.False(t, ok)
}

func TestStaticPoolFinalizesPointerValues(t *testing.T) {
	p, err := NewStaticPool[*finalizeCounter](nil, 2)
	require.NoError(t, err)

	destroyed, released := 0, 0
	h, err := p.Create(&finalizeCounter{calls: &destroyed})
	require.NoError(t, err)
	_, err = p.Create(&finalizeCounter{calls: &released})
	require.NoError(t, err)

	p.Destroy(h)
	assert.Equal(t, 1, destroyed)

	p.Release()
	assert.Equal(t, 1, released)
	assert.Equal(t, 1, destroyed)
}

func TestStaticPoolCreateWhenFull(t *testing.T) {
	p, err := NewStaticPool[string](nil, 1)
	require.NoError(t, err)
	defer p.Release()

	_, err = p.Create("a")
	require.NoError(t, err)

	_, err = p.Create("b")
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, ErrPoolFull))
	assert.True(t, errors.IsExhausted(err))
	assert.Equal(t, 1, p.Len())
}

func TestStaticPoolPreconditionPanics(t *testing.T) {
	p, err := NewStaticPool[int](nil, 2)
	require.NoError(t, err)
	defer p.Release()

	assert.Panics(t, func() { p.Deallocate(1) }, "unallocated slot")
	assert.Panics(t, func() { p.Deallocate(2) }, "out of range")

	h, err := p.Create(5)
	require.NoError(t, err)
	p.Destroy(h)
	assert.Panics(t, func() { p.Destroy(h) }, "stale handle")

	other, err := NewStaticPool[int](nil, 2)
	require.NoError(t, err)
	defer other.Release()
	foreign, err := other.Create(1)
	require.NoError(t, err)
	assert.Panics(t, func() { p.Destroy(foreign) }, "foreign handle")
}

func TestStaticPoolReusedSlotGetsNewGeneration(t *testing.T) {
	p, err := NewStaticPool[int](nil, 1)
	require.NoError(t, err)
	defer p.Release()

	first, err := p.Create(1)
	require.NoError(t, err)
	p.Destroy(first)

	second, err := p.Create(2)
	require.NoError(t, err)
	assert.Equal(t, first.Slot(), second.Slot())
	assert.NotEqual(t, first.Generation(), second.Generation())

	_, ok := p.Get(first)
	assert.False(t, ok)
	v, ok := p.Get(second)
	require.True(t, ok)
	assert.Equal(t, 2, *v)
}

func TestStaticPoolReservesAlignedRegion(t *testing.T) {
	heap := memory.NewHeapAllocator()
	p, err := NewStaticPool[[3]byte](heap, 10)
	require.NoError(t, err)

	assert.Equal(t, memory.Alignment, p.ObjectSize())
	assert.Equal(t, int64(10*memory.Alignment), heap.InUse())

	p.Release()
	assert.Equal(t, int64(0), heap.InUse())
}

func TestStaticPoolReleaseFinalizesLiveObjects(t *testing.T) {
	p, err := NewStaticPool[finalizeCounter](nil, 3)
	require.NoError(t, err)

	calls := 0
	for i := 0; i < 2; i++ {
		_, err := p.Create(finalizeCounter{calls: &calls})
		require.NoError(t, err)
	}
	p.Release()
	assert.Equal(t, 2, calls)
}

func TestNewStaticPoolValidation(t *testing.T) {
	_, err := NewStaticPool[int](nil, 0)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))

	limited := memory.NewLimitedAllocator(nil, 8)
	_, err = NewStaticPool[int64](limited, 4)
	require.Error(t, err)
	assert.True(t, errors.IsExhausted(err))
	assert.True(t, stderrors.Is(err, memory.ErrExhausted))
	assert.Equal(t, int64(0), limited.InUse())
}
