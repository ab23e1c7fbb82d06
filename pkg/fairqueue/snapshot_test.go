package fairqueue

import (
	"errors"
	"testing"
)

func drainOrder[K comparable, V any](t *testing.T, q *Queue[K, V]) []K {
	t.Helper()
	var order []K
	for {
		k, _, err := q.RemoveNext()
		if errors.Is(err, ErrQueueEmpty) {
			return order
		}
		if err != nil {
			t.Fatalf("drain: %v", err)
		}
		order = append(order, k)
	}
}

func TestSerializeRestoreRoundTrip(t *testing.T) {
	prio := stepClock()
	q := New[string, int](nil, Options[string]{Priority: prio})
	_ = q.Insert("a", 1)
	_ = q.Insert("a", 2)
	_ = q.Insert("b", 3)
	_ = q.Insert("c", 4)

	snap := q.Serialize()
	restored, err := Restore(snap, Options[string]{Priority: prio})
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	checkInvariants(t, restored)

	if restored.Size() != q.Size() || restored.NumBuckets() != q.NumBuckets() {
		t.Fatalf("restored size=%d buckets=%d, want %d/%d",
			restored.Size(), restored.NumBuckets(), q.Size(), q.NumBuckets())
	}
	for _, k := range []string{"a", "b", "c"} {
		want, _ := q.LookupBucket(k)
		got, err := restored.LookupBucket(k)
		if err != nil {
			t.Fatalf("restored lookup %s: %v", k, err)
		}
		if got.Len() != want.Len() {
			t.Fatalf("bucket %s: %v, want %v", k, got.Items(), want.Items())
		}
		for i := range want.Items() {
			if got.At(i) != want.At(i) {
				t.Fatalf("bucket %s: %v, want %v", k, got.Items(), want.Items())
			}
		}
	}

	// Same relative service order.
	wantOrder := drainOrder(t, q)
	gotOrder := drainOrder(t, restored)
	if len(gotOrder) != len(wantOrder) {
		t.Fatalf("drain lengths differ: %v vs %v", gotOrder, wantOrder)
	}
	for i := range wantOrder {
		if gotOrder[i] != wantOrder[i] {
			t.Fatalf("service order %v, want %v", gotOrder, wantOrder)
		}
	}
}

func TestSnapshotIsIndependentCopy(t *testing.T) {
	prio := stepClock()
	q := New[string, int](nil, Options[string]{Priority: prio})
	_ = q.Insert("a", 1)
	_ = q.Insert("b", 2)

	snap := q.Serialize()
	restored, err := Restore(snap, Options[string]{Priority: prio})
	if err != nil {
		t.Fatalf("restore: %v", err)
	}

	// Mutating the live queue must not leak into the snapshot or the copy.
	_ = q.Insert("a", 99)
	_ = q.DeleteBucket("b")

	if len(snap.Buckets["a"]) != 1 || len(snap.Buckets["b"]) != 1 {
		t.Fatalf("snapshot aliased live state: %v", snap.Buckets)
	}
	if restored.Size() != 2 || !restored.Contains("b") {
		t.Fatalf("restored queue aliased live state")
	}

	// And the other direction.
	if _, _, err := restored.RemoveNext(); err != nil {
		t.Fatalf("remove from copy: %v", err)
	}
	if q.Size() != 2 {
		t.Fatalf("mutating the copy changed the original")
	}
}

func TestRestoreMalformedState(t *testing.T) {
	_, err := Restore(Snapshot[string, int]{Entries: nil, Buckets: map[string][]int{}}, Options[string]{})
	if !errors.Is(err, ErrMalformedState) {
		t.Fatalf("nil entries: err = %v, want ErrMalformedState", err)
	}
	_, err = Restore(Snapshot[string, int]{Entries: []HeapEntry[string]{}, Buckets: nil}, Options[string]{})
	if !errors.Is(err, ErrMalformedState) {
		t.Fatalf("nil buckets: err = %v, want ErrMalformedState", err)
	}
	q, err := Restore(Snapshot[string, int]{Entries: []HeapEntry[string]{}, Buckets: map[string][]int{}}, Options[string]{})
	if err != nil || q.Size() != 0 {
		t.Fatalf("empty snapshot should restore an empty queue, err = %v", err)
	}
}

func TestRestoreReestablishesHeapOrder(t *testing.T) {
	// Hand-edited snapshot with entries out of heap order.
	snap := Snapshot[string, int]{
		Entries: []HeapEntry[string]{
			{Priority: 9, Key: "late"},
			{Priority: 1, Key: "early"},
			{Priority: 5, Key: "mid"},
		},
		Buckets: map[string][]int{
			"late":  {3},
			"early": {1},
			"mid":   {2},
		},
	}
	q, err := Restore(snap, Options[string]{Priority: stepClock()})
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	checkInvariants(t, q)
	for _, want := range []string{"early", "mid", "late"} {
		k, _, err := q.RemoveNext()
		if err != nil {
			t.Fatalf("remove: %v", err)
		}
		if k != want {
			t.Fatalf("service order: got %s, want %s", k, want)
		}
	}
}

func TestRestoreReconcilesStrayState(t *testing.T) {
	diag := &recordDiag{}
	snap := Snapshot[string, int]{
		Entries: []HeapEntry[string]{
			{Priority: 1, Key: "a"},
			{Priority: 2, Key: "a"},     // duplicate
			{Priority: 3, Key: "ghost"}, // no sub-queue
		},
		Buckets: map[string][]int{
			"a":        {1},
			"drained":  {},  // empty sub-queue
			"orphaned": {7}, // missing from heap
		},
	}
	q, err := Restore(snap, Options[string]{Priority: stepClock(), Diag: diag})
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	checkInvariants(t, q)
	if q.NumBuckets() != 2 || !q.Contains("a") || !q.Contains("orphaned") {
		t.Fatalf("reconciled buckets = %v", q.Keys())
	}
	// One warning each: empty sub-queue, duplicate entry, stray entry,
	// bucket missing from the heap.
	if len(diag.warns) != 4 {
		t.Fatalf("expected 4 reconciliation warnings, got %v", diag.warns)
	}
}
