package slab

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ajitpratap0/slabpool/pkg/errors"
	"github.com/ajitpratap0/slabpool/pkg/memory"
)

type record struct {
	id    int
	calls *int
}

func (r *record) Finalize() {
	if r.calls != nil {
		*r.calls++
	}
}

func TestDynamicPoolGrowsOnePoolAtATime(t *testing.T) {
	const perPool, pools = 4, 3

	d, err := NewDynamicPool[record](nil, perPool, WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, err)
	defer d.Release()

	assert.Equal(t, 0, d.Len())

	handles := make([]Handle, 0, perPool*pools+1)
	for i := 0; i < perPool*pools+1; i++ {
		h, err := d.Create(record{id: i})
		require.NoError(t, err)
		handles = append(handles, h)
	}

	assert.Equal(t, pools+1, d.Len())
	assert.Equal(t, perPool*pools+1, d.Live())
	assert.Equal(t, handles[0].Pool(), handles[perPool-1].Pool())
	assert.NotEqual(t, handles[0].Pool(), handles[perPool].Pool())

	for i, h := range handles {
		r, ok := d.Get(h)
		require.True(t, ok)
		assert.Equal(t, i, r.id)
	}
}

func TestDynamicPoolDropsOnlyTrailingEmptyPool(t *testing.T) {
	d, err := NewDynamicPool[record](nil, 2)
	require.NoError(t, err)
	defer d.Release()

	var hs []Handle
	for i := 0; i < 6; i++ {
		h, err := d.Create(record{id: i})
		require.NoError(t, err)
		hs = append(hs, h)
	}
	require.Equal(t, 3, d.Len())

	// Emptying a middle pool keeps it.
	d.Destroy(hs[2])
	d.Destroy(hs[3])
	assert.Equal(t, 3, d.Len())

	// Emptying the last pool drops exactly that one.
	d.Destroy(hs[4])
	assert.Equal(t, 3, d.Len())
	d.Destroy(hs[5])
	assert.Equal(t, 2, d.Len())
	assert.Equal(t, 2, d.Live())

	// The empty middle pool is now last but is only dropped on the next destroy into it.
	h, err := d.Create(record{id: 9})
	require.NoError(t, err)
	assert.Equal(t, hs[2].Pool(), h.Pool())
	d.Destroy(h)
	assert.Equal(t, 1, d.Len())
}

func TestDynamicPoolReusesFreedSlotsBeforeGrowing(t *testing.T) {
	d, err := NewDynamicPool[int](nil, 2)
	require.NoError(t, err)
	defer d.Release()

	a, _ := d.Create(1)
	_, _ = d.Create(2)
	_, _ = d.Create(3)
	require.Equal(t, 2, d.Len())

	d.Destroy(a)
	h, err := d.Create(4)
	require.NoError(t, err)
	assert.Equal(t, a.Pool(), h.Pool())
	assert.Equal(t, 2, d.Len())
}

func TestDynamicPoolIgnoresForeignHandles(t *testing.T) {
	d, err := NewDynamicPool[int](nil, 2)
	require.NoError(t, err)
	defer d.Release()

	other, err := NewDynamicPool[int](nil, 2)
	require.NoError(t, err)
	defer other.Release()

	mine, err := d.Create(1)
	require.NoError(t, err)
	theirs, err := other.Create(2)
	require.NoError(t, err)

	d.Destroy(Handle{})
	d.Destroy(theirs)
	assert.Equal(t, 1, d.Live())
	assert.Equal(t, 1, other.Live())

	_, ok := d.Get(theirs)
	assert.False(t, ok)
	_, ok = d.Get(mine)
	assert.True(t, ok)
}

func TestDynamicPoolFinalizesOnDestroy(t *testing.T) {
	d, err := NewDynamicPool[record](nil, 1)
	require.NoError(t, err)

	calls := 0
	h, err := d.Create(record{calls: &calls})
	require.NoError(t, err)
	d.Destroy(h)
	assert.Equal(t, 1, calls)

	_, err = d.Create(record{calls: &calls})
	require.NoError(t, err)
	d.Release()
	assert.Equal(t, 2, calls)
	assert.Equal(t, 0, d.Len())
}

func TestDynamicPoolAllocateDeallocateSkipFinalizer(t *testing.T) {
	d, err := NewDynamicPool[record](nil, 2)
	require.NoError(t, err)
	defer d.Release()

	calls := 0
	var hs []Handle
	for i := 0; i < 3; i++ {
		h, err := d.Allocate()
		require.NoError(t, err)
		r, ok := d.Get(h)
		require.True(t, ok)
		assert.Equal(t, record{}, *r)
		r.id, r.calls = i, &calls
		hs = append(hs, h)
	}
	assert.Equal(t, 2, d.Len())
	assert.Equal(t, 3, d.Live())

	d.Deallocate(Handle{})
	d.Deallocate(hs[2])
	assert.Equal(t, 1, d.Len())
	assert.Equal(t, 2, d.Live())
	assert.Zero(t, calls)

	_, ok := d.Get(hs[2])
	assert.False(t, ok)
	assert.Panics(t, func() {
		d.Deallocate(Handle{owner: hs[0].owner, pool: hs[0].pool, slot: hs[0].slot, gen: hs[0].gen + 1})
	})

	d.Destroy(hs[0])
	assert.Equal(t, 1, calls)
}

func TestDynamicPoolExhaustionLeavesNothingBehind(t *testing.T) {
	objectSize := objectSizeOf[int64]()
	limited := memory.NewLimitedAllocator(nil, int64(objectSize*2*2))

	d, err := NewDynamicPool[int64](limited, 2)
	require.NoError(t, err)
	defer d.Release()

	for i := 0; i < 4; i++ {
		_, err := d.Create(int64(i))
		require.NoError(t, err)
	}

	_, err = d.Create(99)
	require.Error(t, err)
	assert.True(t, errors.IsExhausted(err))
	assert.True(t, stderrors.Is(err, memory.ErrExhausted))
	assert.Equal(t, 2, d.Len())
	assert.Equal(t, 4, d.Live())
}

func TestDynamicPoolStats(t *testing.T) {
	d, err := NewDynamicPool[int64](nil, 8, WithName("stats_test"))
	require.NoError(t, err)
	defer d.Release()

	for i := 0; i < 9; i++ {
		_, err := d.Create(int64(i))
		require.NoError(t, err)
	}

	assert.Equal(t, Stats{
		Pools:      2,
		Live:       9,
		Capacity:   16,
		PerPool:    8,
		ObjectSize: memory.Alignment,
	}, d.Stats())
}

func TestNewDynamicPoolValidation(t *testing.T) {
	_, err := NewDynamicPool[int](nil, 0)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
}
