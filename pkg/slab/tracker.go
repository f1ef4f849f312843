package slab

import (
	"fmt"
	"math/bits"
)

// InvalidIndex is returned by Allocate and FindFirstUnset when no slot is free.
const InvalidIndex = -1

// Tracker is an ordered bitmap of slot occupancy. Bit i is set exactly when
// slot i is allocated.
type Tracker struct {
	words []uint64
	size  int
	count int
}

// NewTracker creates a tracker for size slots, all free.
func NewTracker(size int) *Tracker {
	if size < 0 {
		size = 0
	}
	return &Tracker{
		words: make([]uint64, (size+63)/64),
		size:  size,
	}
}

// Len returns the number of slots tracked.
func (t *Tracker) Len() int { return t.size }

// Count returns the number of set bits.
func (t *Tracker) Count() int { return t.count }

func (t *Tracker) check(i int) {
	if i < 0 || i >= t.size {
		panic(fmt.Sprintf("slab: slot %d out of range [0, %d)", i, t.size))
	}
}

// Test reports whether slot i is set.
func (t *Tracker) Test(i int) bool {
	t.check(i)
	return t.words[i>>6]&(1<<(uint(i)&63)) != 0
}

// Set marks slot i allocated.
func (t *Tracker) Set(i int) {
	t.check(i)
	w, m := i>>6, uint64(1)<<(uint(i)&63)
	if t.words[w]&m == 0 {
		t.words[w] |= m
		t.count++
	}
}

// Clear marks slot i free.
func (t *Tracker) Clear(i int) {
	t.check(i)
	w, m := i>>6, uint64(1)<<(uint(i)&63)
	if t.words[w]&m != 0 {
		t.words[w] &^= m
		t.count--
	}
}

// FindFirstUnset returns the lowest free slot, or InvalidIndex.
func (t *Tracker) FindFirstUnset() int {
	if t.count == t.size {
		return InvalidIndex
	}
	for w, word := range t.words {
		if word == ^uint64(0) {
			continue
		}
		i := w<<6 + bits.TrailingZeros64(^word)
		if i >= t.size {
			// only padding bits of the final word are free
			return InvalidIndex
		}
		return i
	}
	return InvalidIndex
}
