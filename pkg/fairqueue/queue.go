package fairqueue

import (
	"container/heap"
	"fmt"
	"iter"
	"reflect"
	"sort"
	"time"
)

// PriorityFunc maps a bucket identifier to its placement in the service
// order; lesser values are served sooner. It must be a pure function of the
// key: the queue re-evaluates it at insert time and on every removal touch
// and neither caches nor validates the result.
type PriorityFunc[K comparable] func(key K) float64

// Diagnostics receives the queue's advisory warnings (duplicate initial
// bucket merge) and errors (heap/sub-queue inconsistency found during a
// removal). Both are non-fatal and never surface as operation errors.
// The interface is satisfied by pkg/log.Logger.
type Diagnostics interface {
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

type nopDiagnostics struct{}

func (nopDiagnostics) Warnf(string, ...interface{})  {}
func (nopDiagnostics) Errorf(string, ...interface{}) {}

// Options configures a Queue. Zero value means wall-clock priority and
// no-op diagnostics.
type Options[K comparable] struct {
	Priority PriorityFunc[K]
	Diag     Diagnostics
}

// Bucket pairs a bucket identifier with its initial payloads for queue
// construction. A slice of Buckets preserves the caller's enumeration
// order, which determines the initial priority order under a time-based
// callback.
type Bucket[K comparable, V any] struct {
	Key   K
	Items []V
}

// Queue is a priority-ordered collection of per-bucket FIFO sub-queues.
// The zero value is not usable; construct with New or Restore.
//
// Invariants held after every public operation returns:
//   - exactly one heap entry per live sub-queue, and vice versa
//   - every sub-queue in the map is non-empty
//   - the heap satisfies min-heap order
//   - no bucket appears twice among heap entries
type Queue[K comparable, V any] struct {
	priority PriorityFunc[K]
	diag     Diagnostics

	entries   bucketHeap[K]
	subqueues map[K]*SubQueue[V]
	nextSeq   uint64
}

// New builds a queue from optional initial contents. If two initial entries
// share a key their payloads are concatenated in the order encountered and
// only one heap entry is created; this is reported through the diagnostics
// sink as a warning. Entries with no payloads are skipped so that no empty
// sub-queue survives construction.
func New[K comparable, V any](contents []Bucket[K, V], opts Options[K]) *Queue[K, V] {
	q := &Queue[K, V]{
		priority: opts.Priority,
		diag:     opts.Diag,
	}
	if q.priority == nil {
		q.priority = func(K) float64 { return wallClock() }
	}
	if q.diag == nil {
		q.diag = nopDiagnostics{}
	}
	q.Clear()

	for _, b := range contents {
		if !keyOK(b.Key) {
			q.diag.Errorf("fairqueue: skipping initial bucket with invalid key type %T", b.Key)
			continue
		}
		if sq, ok := q.subqueues[b.Key]; ok {
			q.diag.Warnf("fairqueue: bucket already queued, merging: %v", b.Key)
			sq.items = append(sq.items, b.Items...)
			continue
		}
		if len(b.Items) == 0 {
			continue
		}
		q.pushEntry(b.Key)
		q.subqueues[b.Key] = &SubQueue[V]{items: append([]V(nil), b.Items...)}
	}
	return q
}

// wallClock is the default priority source: current time as fractional
// seconds, matching "just touched goes to the back" round-robin order.
var wallClock = func() float64 {
	return float64(time.Now().UnixNano()) / float64(time.Second)
}

// keyOK reports whether key's dynamic value can be used as a map key. For
// concrete comparable key types this is always true; interface-typed keys
// may carry non-comparable values that would panic on map insertion.
func keyOK[K comparable](key K) bool {
	v := reflect.ValueOf(key)
	if !v.IsValid() {
		return true // untyped nil is a valid map key
	}
	return v.Comparable()
}

// pushEntry adds a fresh heap entry for key at its current priority.
func (q *Queue[K, V]) pushEntry(key K) {
	q.nextSeq++
	heap.Push(&q.entries, entry[K]{prio: q.priority(key), seq: q.nextSeq, key: key})
}

// removeEntries drops every heap entry for key and restores heap order.
// Linear scan: keyed removal is assumed rare relative to non-keyed pops.
func (q *Queue[K, V]) removeEntries(key K) {
	kept := q.entries[:0]
	for _, e := range q.entries {
		if e.key != key {
			kept = append(kept, e)
		}
	}
	q.entries = kept
	heap.Init(&q.entries)
}

// killBucket removes key's sub-queue and heap entries in one step.
func (q *Queue[K, V]) killBucket(key K) {
	delete(q.subqueues, key)
	q.removeEntries(key)
}

// Insert appends value to key's sub-queue, creating the bucket (and its
// heap entry, at a freshly computed priority) if it has no live sub-queue.
// Returns ErrInvalidKey without touching any state if key is unusable.
func (q *Queue[K, V]) Insert(key K, value V) error {
	if !keyOK(key) {
		return fmt.Errorf("%w: %T", ErrInvalidKey, key)
	}
	sq, ok := q.subqueues[key]
	if !ok {
		q.pushEntry(key)
		sq = &SubQueue[V]{}
		q.subqueues[key] = sq
	}
	sq.push(value)
	return nil
}

// RemoveNext removes and returns the head item of the minimum-priority
// bucket. The touched bucket is re-ranked (fresh priority) before its
// sub-queue is inspected; a bucket drained by the removal dies in the same
// step. Returns ErrQueueEmpty when no bucket has pending items.
func (q *Queue[K, V]) RemoveNext() (K, V, error) {
	return q.pop(nil)
}

// RemoveNextFrom bypasses bucket selection and removes the head item of the
// named bucket. Returns ErrUnknownBucket if the bucket has no live
// sub-queue, even when the whole queue is empty.
func (q *Queue[K, V]) RemoveNextFrom(key K) (V, error) {
	_, v, err := q.pop(&key)
	return v, err
}

func (q *Queue[K, V]) pop(key *K) (K, V, error) {
	var zeroK K
	var zeroV V

	// current is the bucket this iteration will service; nil means "take
	// the heap minimum". It resets to nil whenever self-healing retries.
	var current *K
	if key != nil {
		k := *key
		current = &k
	}

	for {
		if key != nil {
			if _, ok := q.subqueues[*key]; !ok {
				return zeroK, zeroV, fmt.Errorf("%w: %v", ErrUnknownBucket, *key)
			}
		} else if q.entries.Len() == 0 {
			return zeroK, zeroV, ErrQueueEmpty
		}

		var b K
		if current == nil {
			b = heap.Pop(&q.entries).(entry[K]).key
		} else {
			b = *current
			q.removeEntries(b)
		}

		// Re-rank before inspecting, so a transiently empty bucket is
		// re-ordered rather than silently dropped from the rotation.
		q.pushEntry(b)

		sq, ok := q.subqueues[b]
		switch {
		case ok && sq.Len() > 0:
			v := sq.popFront()
			if sq.Len() == 0 {
				q.killBucket(b)
			}
			return b, v, nil
		case ok:
			// Present but empty: the sub-queue was drained through a
			// LookupBucket handle. Drop it and keep looking.
			q.diag.Errorf("fairqueue: bucket %v empty at inspection, expiring", b)
			q.killBucket(b)
		default:
			q.diag.Errorf("fairqueue: key in heap but not sub-queues: %v", b)
			q.removeEntries(b)
		}
		current = nil
	}
}

// LookupBucket returns the live sub-queue handle for key, or
// ErrUnknownBucket if the bucket has no sub-queue in the map.
func (q *Queue[K, V]) LookupBucket(key K) (*SubQueue[V], error) {
	sq, ok := q.subqueues[key]
	if !ok {
		return nil, fmt.Errorf("%w: %v", ErrUnknownBucket, key)
	}
	return sq, nil
}

// ReplaceBucket overwrites key's pending payloads in one step, creating the
// bucket at a freshly computed priority if absent. An existing live bucket
// keeps its place in the service order. Replacing with an empty sequence
// deletes a live bucket and is a no-op otherwise, so no empty sub-queue is
// ever left behind.
func (q *Queue[K, V]) ReplaceBucket(key K, items []V) error {
	if !keyOK(key) {
		return fmt.Errorf("%w: %T", ErrInvalidKey, key)
	}
	sq, ok := q.subqueues[key]
	if len(items) == 0 {
		if ok {
			q.killBucket(key)
		}
		return nil
	}
	if !ok {
		q.pushEntry(key)
		sq = &SubQueue[V]{}
		q.subqueues[key] = sq
	}
	sq.items = append([]V(nil), items...)
	return nil
}

// DeleteBucket removes key's sub-queue and heap entry outright, regardless
// of content. Returns ErrUnknownBucket if the bucket is not present.
func (q *Queue[K, V]) DeleteBucket(key K) error {
	if _, ok := q.subqueues[key]; !ok {
		return fmt.Errorf("%w: %v", ErrUnknownBucket, key)
	}
	q.killBucket(key)
	return nil
}

// Contains reports whether key has a non-empty sub-queue.
func (q *Queue[K, V]) Contains(key K) bool {
	sq, ok := q.subqueues[key]
	return ok && sq.Len() > 0
}

// Size returns the total number of payloads across all live sub-queues,
// not the number of buckets.
func (q *Queue[K, V]) Size() int {
	n := 0
	for _, sq := range q.subqueues {
		n += sq.Len()
	}
	return n
}

// NumBuckets returns the number of live buckets.
func (q *Queue[K, V]) NumBuckets() int { return len(q.subqueues) }

// IsEmpty reports whether no sub-queue holds a pending payload. O(buckets)
// scan; kept as a defensive predicate for the lazy-expiry window where a
// drained sub-queue may still be present.
func (q *Queue[K, V]) IsEmpty() bool {
	for _, sq := range q.subqueues {
		if sq.Len() > 0 {
			return false
		}
	}
	return true
}

// Clear empties the queue in constant time.
func (q *Queue[K, V]) Clear() {
	q.entries = nil
	q.subqueues = make(map[K]*SubQueue[V])
}

// Iterate returns a restartable sequence of all bucket identifiers holding
// at least one payload, in ascending priority (service) order. The order is
// snapshotted when Iterate is called; per-bucket liveness is re-checked at
// yield time so buckets drained through a LookupBucket handle are skipped.
// Mutating the queue while ranging is otherwise undefined.
func (q *Queue[K, V]) Iterate() iter.Seq[K] {
	snap := make([]entry[K], len(q.entries))
	copy(snap, q.entries)
	sort.Slice(snap, func(i, j int) bool {
		if snap[i].prio != snap[j].prio {
			return snap[i].prio < snap[j].prio
		}
		return snap[i].seq < snap[j].seq
	})
	return func(yield func(K) bool) {
		for _, e := range snap {
			if sq, ok := q.subqueues[e.key]; ok && sq.Len() > 0 {
				if !yield(e.key) {
					return
				}
			}
		}
	}
}

// Keys returns all non-empty bucket identifiers in service order.
func (q *Queue[K, V]) Keys() []K {
	var keys []K
	for k := range q.Iterate() {
		keys = append(keys, k)
	}
	return keys
}
