package slab

import (
	"fmt"
	"sync/atomic"
)

// Handle identifies a pooled object by owner, pool, slot and generation
// instead of by address. The zero Handle refers to nothing.
type Handle struct {
	owner uint32
	pool  uint32
	slot  uint32
	gen   uint32
}

// IsZero reports whether h is the zero handle.
func (h Handle) IsZero() bool { return h == Handle{} }

// Pool returns the id of the static pool holding the object.
func (h Handle) Pool() uint32 { return h.pool }

// Slot returns the slot index inside the static pool.
func (h Handle) Slot() int { return int(h.slot) }

// Generation returns the slot generation the handle was issued for.
func (h Handle) Generation() uint32 { return h.gen }

func (h Handle) String() string {
	return fmt.Sprintf("%d/%d/%d#%d", h.owner, h.pool, h.slot, h.gen)
}

// ownerSeq gives every arena a distinct owner tag so handles from one arena
// are never mistaken for another's.
var ownerSeq atomic.Uint32

func nextOwner() uint32 {
	for {
		if o := ownerSeq.Add(1); o != 0 {
			return o
		}
	}
}
