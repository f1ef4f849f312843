// Package threadpool runs submitted callbacks on a fixed set of worker
// goroutines.
//
// Pending tasks are kept in a FIFO of task records allocated from a
// slab.DynamicPool. While the queue is non-empty, new records fill free
// slots of the slabs already reserved. The last slab is released as soon
// as it empties, so a queue that drains to zero between submissions
// reserves a fresh slab of RecordsPerPool records for the next one; size
// RecordsPerPool for the expected burst, not for the total task count.
// The queue and the record pool share one mutex; callbacks always run with
// that mutex released.
//
// # Lifecycle
//
//	pool, err := threadpool.New(threadpool.Config{Name: "ingest", Workers: 4})
//	if err != nil {
//		return err
//	}
//	defer pool.Close()
//
//	if err := pool.Add(func(workerID int) { handle(workerID) }); err != nil {
//		// errors.IsExhausted(err): record allocation failed, retry later
//		// errors.Is(err, threadpool.ErrClosed): pool is shutting down
//	}
//
// New returns once every worker has entered its loop. Close stops accepting
// work, lets the workers drain the queue, joins them and frees the record
// pool. Close is idempotent and must not be called from inside a task.
//
// # Ordering
//
// Tasks are dequeued in submission order. With one worker they also run in
// that order; with more, execution overlaps and completion order is not
// defined.
package threadpool
