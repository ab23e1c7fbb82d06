package snapstore

import (
	"errors"
	"testing"

	"github.com/ssokolow/snakebyte/internal/storage/pebble"
	"github.com/ssokolow/snakebyte/pkg/fairqueue"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := pebblestore.Open(pebblestore.Options{
		DataDir: t.TempDir(),
		Fsync:   pebblestore.FsyncModeNever,
	})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return New(db)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	store := newTestStore(t)

	q := fairqueue.New[string, string](nil, fairqueue.Options[string]{})
	_ = q.Insert("conn-1", "hello")
	_ = q.Insert("conn-1", "world")
	_ = q.Insert("conn-2", "hi")
	snap := q.Serialize()

	if err := store.Save("default", "main", snap); err != nil {
		t.Fatalf("save: %v", err)
	}

	var loaded fairqueue.Snapshot[string, string]
	if err := store.Load("default", "main", &loaded); err != nil {
		t.Fatalf("load: %v", err)
	}
	restored, err := fairqueue.Restore(loaded, fairqueue.Options[string]{})
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if restored.Size() != 3 || restored.NumBuckets() != 2 {
		t.Fatalf("restored size=%d buckets=%d", restored.Size(), restored.NumBuckets())
	}
}

func TestLoadMissing(t *testing.T) {
	store := newTestStore(t)
	var snap fairqueue.Snapshot[string, string]
	if err := store.Load("default", "nope", &snap); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestDeleteIsIdempotent(t *testing.T) {
	store := newTestStore(t)
	if err := store.Save("default", "q1", map[string]int{"x": 1}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.Delete("default", "q1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := store.Delete("default", "q1"); err != nil {
		t.Fatalf("second delete: %v", err)
	}
	var into map[string]int
	if err := store.Load("default", "q1", &into); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestListQueuesAndNamespaces(t *testing.T) {
	store := newTestStore(t)
	for _, nq := range [][2]string{
		{"default", "alpha"}, {"default", "beta"}, {"prod", "gamma"},
	} {
		if err := store.Save(nq[0], nq[1], map[string]int{}); err != nil {
			t.Fatalf("save %v: %v", nq, err)
		}
	}

	queues, err := store.ListQueues("default")
	if err != nil {
		t.Fatalf("list queues: %v", err)
	}
	if len(queues) != 2 || queues[0] != "alpha" || queues[1] != "beta" {
		t.Fatalf("queues = %v", queues)
	}

	namespaces, err := store.ListNamespaces()
	if err != nil {
		t.Fatalf("list namespaces: %v", err)
	}
	if len(namespaces) != 2 {
		t.Fatalf("namespaces = %v", namespaces)
	}
}

func TestInvalidNamesRejected(t *testing.T) {
	store := newTestStore(t)
	if err := store.Save("bad/ns", "q", 1); err == nil {
		t.Fatalf("slash in namespace should fail")
	}
	if err := store.Save("ns", "", 1); err == nil {
		t.Fatalf("empty queue should fail")
	}
}
