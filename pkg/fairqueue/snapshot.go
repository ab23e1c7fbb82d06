package fairqueue

import (
	"container/heap"
	"sort"
)

// HeapEntry is one serialized (priority, bucket) pair.
type HeapEntry[K comparable] struct {
	Priority float64 `json:"priority"`
	Key      K       `json:"key"`
}

// Snapshot is the serialized state of a Queue: an ordered sequence of heap
// entries and a mapping from bucket identifier to pending payloads. How a
// Snapshot is encoded and persisted is the host's business; see
// internal/snapstore for the JSON-over-Pebble store used by the server.
type Snapshot[K comparable, V any] struct {
	Entries []HeapEntry[K] `json:"entries"`
	Buckets map[K][]V      `json:"buckets"`
}

// Serialize returns an independent copy of the queue state: mutating the
// live queue afterwards cannot corrupt the snapshot, and vice versa.
// Entries are emitted in service order so equal-priority buckets restore in
// the same relative order they would have been served.
func (q *Queue[K, V]) Serialize() Snapshot[K, V] {
	snap := Snapshot[K, V]{
		Entries: make([]HeapEntry[K], 0, len(q.entries)),
		Buckets: make(map[K][]V, len(q.subqueues)),
	}
	ordered := make([]entry[K], len(q.entries))
	copy(ordered, q.entries)
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].prio != ordered[j].prio {
			return ordered[i].prio < ordered[j].prio
		}
		return ordered[i].seq < ordered[j].seq
	})
	for _, e := range ordered {
		snap.Entries = append(snap.Entries, HeapEntry[K]{Priority: e.prio, Key: e.key})
	}
	for k, sq := range q.subqueues {
		snap.Buckets[k] = append([]V(nil), sq.items...)
	}
	return snap
}

// Restore builds a ready-to-use queue from a Snapshot. A nil entry sequence
// or nil bucket mapping is ErrMalformedState. The entry order in the
// snapshot is not trusted to satisfy heap order (it may have been
// hand-edited), so the heap invariant is re-established; stray entries
// (duplicates, or entries whose bucket is missing or empty) are dropped
// and buckets missing from the heap get a freshly computed priority, each
// reported through the diagnostics sink, so that the queue's standing
// invariants hold on return.
func Restore[K comparable, V any](snap Snapshot[K, V], opts Options[K]) (*Queue[K, V], error) {
	if snap.Entries == nil || snap.Buckets == nil {
		return nil, ErrMalformedState
	}
	q := New[K, V](nil, opts)

	for k, items := range snap.Buckets {
		if len(items) == 0 {
			q.diag.Warnf("fairqueue: dropping empty sub-queue in snapshot: %v", k)
			continue
		}
		q.subqueues[k] = &SubQueue[V]{items: append([]V(nil), items...)}
	}

	seen := make(map[K]struct{}, len(snap.Entries))
	for _, e := range snap.Entries {
		if _, dup := seen[e.Key]; dup {
			q.diag.Warnf("fairqueue: dropping duplicate heap entry in snapshot: %v", e.Key)
			continue
		}
		if _, ok := q.subqueues[e.Key]; !ok {
			q.diag.Warnf("fairqueue: dropping stray heap entry in snapshot: %v", e.Key)
			continue
		}
		seen[e.Key] = struct{}{}
		q.nextSeq++
		q.entries = append(q.entries, entry[K]{prio: e.Priority, seq: q.nextSeq, key: e.Key})
	}
	for k := range q.subqueues {
		if _, ok := seen[k]; !ok {
			q.diag.Warnf("fairqueue: snapshot bucket missing from heap, re-ranking: %v", k)
			q.pushEntry(k)
		}
	}
	heap.Init(&q.entries)
	return q, nil
}
