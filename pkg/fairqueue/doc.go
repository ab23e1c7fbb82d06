// Package fairqueue implements a fairness-preserving multi-tenant queue.
//
// Items are tagged with a bucket identifier and handed back out one at a
// time such that no bucket can starve another, regardless of how many items
// it enqueues. Internally the queue keeps a min-heap of (priority, bucket)
// entries and one FIFO sub-queue per bucket; bucket priority is recomputed
// through a pluggable callback every time a removal touches the bucket. The
// default callback returns the current wall-clock time, which makes the
// queue behave as a round-robin: a bucket that was just served (or just
// created) moves to the back of the service order.
//
// The queue is purely an in-memory ordering structure. It performs no I/O
// and is not internally synchronized; callers using it from multiple
// goroutines must wrap every operation in their own mutual exclusion.
package fairqueue
