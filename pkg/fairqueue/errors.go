package fairqueue

import "errors"

var (
	// ErrInvalidKey reports a bucket identifier whose dynamic value cannot
	// be used as a map key (an interface-typed key carrying a slice, map,
	// or function). The failing operation leaves the queue untouched.
	ErrInvalidKey = errors.New("fairqueue: key not usable as bucket identifier")

	// ErrUnknownBucket reports a keyed operation against a bucket with no
	// live sub-queue.
	ErrUnknownBucket = errors.New("fairqueue: unknown bucket")

	// ErrQueueEmpty reports a non-keyed removal on a queue with no live
	// buckets.
	ErrQueueEmpty = errors.New("fairqueue: queue is empty")

	// ErrMalformedState reports a snapshot whose heap sequence or bucket
	// mapping is structurally missing.
	ErrMalformedState = errors.New("fairqueue: malformed snapshot state")
)
