package slab

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTrackerFindFirstUnset(t *testing.T) {
	tr := NewTracker(130)
	assert.Equal(t, 130, tr.Len())
	assert.Equal(t, 0, tr.FindFirstUnset())

	for i := 0; i < 129; i++ {
		tr.Set(i)
	}
	assert.Equal(t, 129, tr.FindFirstUnset())
	assert.Equal(t, 129, tr.Count())

	tr.Set(129)
	assert.Equal(t, InvalidIndex, tr.FindFirstUnset())

	tr.Clear(64)
	assert.Equal(t, 64, tr.FindFirstUnset())
	assert.False(t, tr.Test(64))
	assert.True(t, tr.Test(65))
}

func TestTrackerSetClearIdempotentCount(t *testing.T) {
	tr := NewTracker(8)
	tr.Set(3)
	tr.Set(3)
	assert.Equal(t, 1, tr.Count())

	tr.Clear(3)
	tr.Clear(3)
	assert.Equal(t, 0, tr.Count())
}

func TestTrackerPaddingBitsNeverReturned(t *testing.T) {
	tr := NewTracker(3)
	tr.Set(0)
	tr.Set(1)
	tr.Set(2)
	assert.Equal(t, InvalidIndex, tr.FindFirstUnset())
}

func TestTrackerOutOfRangePanics(t *testing.T) {
	tr := NewTracker(4)
	assert.Panics(t, func() { tr.Set(4) })
	assert.Panics(t, func() { tr.Test(-1) })
}

func TestTrackerEmpty(t *testing.T) {
	tr := NewTracker(0)
	assert.Equal(t, InvalidIndex, tr.FindFirstUnset())
}
