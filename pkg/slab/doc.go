// Package slab implements fixed-size typed object pools that hand out
// handles instead of pointers.
//
// # Architecture
//
// Three layers build on each other:
//
//   - Tracker: an ordered occupancy bitmap, one bit per slot.
//   - StaticPool[T]: a fixed-capacity arena. Its slab region is reserved from
//     a memory.Allocator when the pool is created, and a Tracker records
//     which slots are taken.
//   - DynamicPool[T]: an ordered list of StaticPools that grows one pool at a
//     time and drops the last pool once it empties.
//
// # Handles
//
// Create returns a Handle made of an owner tag, a pool id, a slot index and
// a generation counter. Destroy and Get resolve the handle in O(1). A handle
// whose generation no longer matches its slot is stale; destroying it is a
// programming error and panics, which rules out double-free and
// use-after-free by construction.
//
//	pool, err := slab.NewDynamicPool[Job](nil, 256)
//	if err != nil {
//		return err
//	}
//	h, err := pool.Create(Job{ID: 7})
//	if err != nil {
//		return err // allocator exhausted
//	}
//	job, _ := pool.Get(h)
//	job.Attempts++
//	pool.Destroy(h)
//
// # Concurrency
//
// Pools are not safe for concurrent use. The owner serialises access, the
// way threadpool.ThreadPool guards its record pool with its queue mutex.
//
// # Failure modes
//
//   - Pool full or allocator exhausted: Create returns an error of type
//     errors.ErrorTypeResourceExhausted.
//   - Deallocating a free slot, or destroying a stale handle: panic.
//   - DynamicPool.Destroy with a handle it never issued: ignored.
package slab
