package runtime

import (
	"context"
	"testing"

	cfgpkg "github.com/ssokolow/snakebyte/internal/config"
	logpkg "github.com/ssokolow/snakebyte/pkg/log"
)

func testConfig(t *testing.T) cfgpkg.Config {
	t.Helper()
	cfg := cfgpkg.Default()
	cfg.DataDir = t.TempDir()
	cfg.Storage.Fsync = "never"
	return cfg
}

func quietLogger() logpkg.Logger {
	return logpkg.NewLogger(logpkg.WithLevel(logpkg.ErrorLevel), logpkg.WithOutput(logpkg.NullOutput{}))
}

func TestOpenCloseHealth(t *testing.T) {
	rt, err := Open(Options{Config: testConfig(t), Logger: quietLogger()})
	if err != nil {
		t.Fatalf("open runtime: %v", err)
	}
	defer rt.Close()
	if err := rt.CheckHealth(context.Background()); err != nil {
		t.Fatalf("health: %v", err)
	}
}

func TestOpenRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Storage.Fsync = "sometimes"
	if _, err := Open(Options{Config: cfg, Logger: quietLogger()}); err == nil {
		t.Fatalf("invalid config should fail")
	}
}

func TestSchedulerPersistsThroughRuntime(t *testing.T) {
	cfg := testConfig(t)

	rt, err := Open(Options{Config: cfg, Logger: quietLogger()})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := rt.Scheduler().Enqueue("", "jobs", "alice", "a1", nil); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if err := rt.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	rt2, err := Open(Options{Config: cfg, Logger: quietLogger()})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer rt2.Close()
	stats, err := rt2.Scheduler().Stats("", "jobs")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Items != 1 || stats.Buckets != 1 {
		t.Fatalf("restored stats: %+v", stats)
	}
}
