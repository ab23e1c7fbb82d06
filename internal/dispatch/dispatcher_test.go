package dispatch

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ssokolow/snakebyte/internal/services/scheduler"
	logpkg "github.com/ssokolow/snakebyte/pkg/log"
)

func quietLogger() logpkg.Logger {
	return logpkg.NewLogger(logpkg.WithLevel(logpkg.ErrorLevel), logpkg.WithOutput(logpkg.NullOutput{}))
}

func TestDispatchDrainsQueue(t *testing.T) {
	svc := scheduler.New(scheduler.Options{Logger: quietLogger()})
	for i := 0; i < 3; i++ {
		if _, err := svc.Enqueue("", "jobs", "alice", "a", nil); err != nil {
			t.Fatalf("enqueue: %v", err)
		}
		if _, err := svc.Enqueue("", "jobs", "bob", "b", nil); err != nil {
			t.Fatalf("enqueue: %v", err)
		}
	}

	var mu sync.Mutex
	got := map[string]int{}
	done := make(chan struct{})
	handler := func(bucket string, item scheduler.Item) error {
		mu.Lock()
		got[bucket]++
		total := got["alice"] + got["bob"]
		mu.Unlock()
		if total == 6 {
			close(done)
		}
		return nil
	}

	d, err := New(svc, handler, Options{
		Queue:       "jobs",
		Workers:     2,
		IdleBackoff: 5 * time.Millisecond,
		Logger:      quietLogger(),
	})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("timeout: handled %v", got)
	}
	d.Stop()

	mu.Lock()
	defer mu.Unlock()
	if got["alice"] != 3 || got["bob"] != 3 {
		t.Fatalf("handled %v", got)
	}
	stats, _ := svc.Stats("", "jobs")
	if stats.Items != 0 {
		t.Fatalf("queue not drained: %+v", stats)
	}
}

func TestStopIsIdempotentAndWaits(t *testing.T) {
	svc := scheduler.New(scheduler.Options{Logger: quietLogger()})
	d, err := New(svc, func(string, scheduler.Item) error { return nil }, Options{
		Queue:       "jobs",
		IdleBackoff: time.Millisecond,
		Logger:      quietLogger(),
	})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	d.Start(context.Background())
	d.Stop()
	d.Stop()
}

func TestNewValidation(t *testing.T) {
	svc := scheduler.New(scheduler.Options{Logger: quietLogger()})
	if _, err := New(svc, nil, Options{Queue: "jobs"}); err == nil {
		t.Fatalf("nil handler should fail")
	}
	if _, err := New(svc, func(string, scheduler.Item) error { return nil }, Options{}); err == nil {
		t.Fatalf("missing queue should fail")
	}
}
