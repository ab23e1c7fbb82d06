// Package scheduler owns the server's named fair queues.
//
// Queues are addressed as namespace/queue. Each queue is a fairqueue.Queue
// guarded by its own mutex, so concurrent API requests interleave at
// operation granularity and every operation observes a consistent queue.
// Mutations are persisted to the snapshot store (when one is configured)
// and queues are restored lazily on first access.
package scheduler
