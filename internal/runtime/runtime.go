package runtime

import (
	"context"
	"errors"
	"time"

	cfgpkg "github.com/ssokolow/snakebyte/internal/config"
	"github.com/ssokolow/snakebyte/internal/services/scheduler"
	"github.com/ssokolow/snakebyte/internal/snapstore"
	pebblestore "github.com/ssokolow/snakebyte/internal/storage/pebble"
	logpkg "github.com/ssokolow/snakebyte/pkg/log"
)

// Options for building the Runtime.
type Options struct {
	Config cfgpkg.Config
	Logger logpkg.Logger
}

// Runtime wires storage, config and the scheduler for a single-node
// instance.
type Runtime struct {
	db        *pebblestore.DB
	config    cfgpkg.Config
	logger    logpkg.Logger
	scheduler *scheduler.Service
}

// Open initializes storage and the scheduler and returns a Runtime.
func Open(opts Options) (*Runtime, error) {
	if err := opts.Config.Validate(); err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = logpkg.NewLogger(logpkg.WithLevel(logpkg.InfoLevel))
	}

	fsync, err := pebblestore.ParseFsyncMode(opts.Config.Storage.Fsync)
	if err != nil {
		return nil, err
	}
	db, err := pebblestore.Open(pebblestore.Options{
		DataDir:       opts.Config.DataDir,
		Fsync:         fsync,
		FsyncInterval: time.Duration(opts.Config.Storage.FsyncIntervalMs) * time.Millisecond,
	})
	if err != nil {
		return nil, err
	}

	sched := scheduler.New(scheduler.Options{
		Store:                  snapstore.New(db),
		DefaultNamespace:       opts.Config.Scheduler.DefaultNamespace,
		SnapshotEveryMutations: opts.Config.Scheduler.SnapshotEveryMutations,
		Logger:                 logger,
	})

	return &Runtime{
		db:        db,
		config:    opts.Config,
		logger:    logger,
		scheduler: sched,
	}, nil
}

// Close persists dirty queues and closes underlying resources.
func (r *Runtime) Close() error {
	if r.scheduler != nil {
		if err := r.scheduler.Close(); err != nil {
			r.logger.Error("scheduler close failed", logpkg.Err(err))
		}
	}
	if r.db == nil {
		return nil
	}
	return r.db.Close()
}

// CheckHealth performs a simple health check.
func (r *Runtime) CheckHealth(ctx context.Context) error {
	if r.db == nil {
		return errors.New("db not open")
	}
	it, err := r.db.NewIter(nil)
	if err != nil {
		return err
	}
	it.Close()
	return nil
}

// Scheduler returns the queue service.
func (r *Runtime) Scheduler() *scheduler.Service { return r.scheduler }

// DB exposes the underlying DB for advanced operations (internal use only).
func (r *Runtime) DB() *pebblestore.DB { return r.db }

// Config returns the runtime configuration.
func (r *Runtime) Config() cfgpkg.Config { return r.config }

// Logger returns the runtime's root logger.
func (r *Runtime) Logger() logpkg.Logger { return r.logger }
