// Package dispatch drains a scheduler queue into a bounded goroutine pool.
// It is the in-process consumer for deployments where workers run inside
// the server instead of pulling over HTTP.
package dispatch

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/ssokolow/snakebyte/internal/services/scheduler"
	"github.com/ssokolow/snakebyte/pkg/fairqueue"
	logpkg "github.com/ssokolow/snakebyte/pkg/log"
)

// Handler processes one dequeued item. Returning an error only logs it; the
// item is already removed from the queue.
type Handler func(bucket string, item scheduler.Item) error

// Options configures a Dispatcher.
type Options struct {
	Namespace string
	Queue     string
	// Workers bounds concurrent handler executions.
	Workers int
	// IdleBackoff is how long to park when the queue is empty.
	IdleBackoff time.Duration
	Logger      logpkg.Logger
}

// Dispatcher polls the scheduler and hands items to a worker pool.
type Dispatcher struct {
	sched   *scheduler.Service
	handler Handler
	opts    Options
	logger  logpkg.Logger

	pool   *ants.Pool
	exitCh chan struct{}
	wg     sync.WaitGroup

	mu      sync.Mutex
	started bool
}

// New creates a Dispatcher. The handler must be safe for concurrent calls.
func New(sched *scheduler.Service, handler Handler, opts Options) (*Dispatcher, error) {
	if handler == nil {
		return nil, errors.New("dispatch: handler is required")
	}
	if opts.Workers <= 0 {
		opts.Workers = 8
	}
	if opts.IdleBackoff <= 0 {
		opts.IdleBackoff = 50 * time.Millisecond
	}
	if opts.Queue == "" {
		return nil, errors.New("dispatch: queue name is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = logpkg.NewLogger(logpkg.WithLevel(logpkg.InfoLevel))
	}
	logger = logger.With(logpkg.Component("dispatch"), logpkg.Str("queue", opts.Queue))

	// Nonblocking: when the pool is saturated, Submit fails and the item is
	// handled on the polling goroutine, which also applies backpressure.
	pool, err := ants.NewPool(opts.Workers, ants.WithNonblocking(true))
	if err != nil {
		return nil, err
	}

	return &Dispatcher{
		sched:   sched,
		handler: handler,
		opts:    opts,
		logger:  logger,
		pool:    pool,
		exitCh:  make(chan struct{}),
	}, nil
}

// Start launches the polling loop. Stop or context cancellation ends it.
func (d *Dispatcher) Start(ctx context.Context) {
	d.mu.Lock()
	if d.started {
		d.mu.Unlock()
		return
	}
	d.started = true
	d.mu.Unlock()

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.run(ctx)
	}()
}

func (d *Dispatcher) run(ctx context.Context) {
	idle := time.NewTimer(d.opts.IdleBackoff)
	defer idle.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-d.exitCh:
			return
		default:
		}

		bucket, item, err := d.sched.Dequeue(d.opts.Namespace, d.opts.Queue)
		if err != nil {
			if !errors.Is(err, fairqueue.ErrQueueEmpty) {
				d.logger.Error("dequeue failed", logpkg.Err(err))
			}
			if !idle.Stop() {
				select {
				case <-idle.C:
				default:
				}
			}
			idle.Reset(d.opts.IdleBackoff)
			select {
			case <-ctx.Done():
				return
			case <-d.exitCh:
				return
			case <-idle.C:
			}
			continue
		}

		task := func() { d.invoke(bucket, item) }
		if err := d.pool.Submit(task); err != nil {
			// Pool saturated: run inline so the poll loop slows down with
			// the workers instead of dropping work.
			task()
		}
	}
}

func (d *Dispatcher) invoke(bucket string, item scheduler.Item) {
	if err := d.handler(bucket, item); err != nil {
		d.logger.Error("handler failed",
			logpkg.Str("bucket", bucket), logpkg.Str("id", item.ID), logpkg.Err(err))
	}
}

// Stop ends the polling loop and waits for in-flight handlers.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	select {
	case <-d.exitCh:
	default:
		close(d.exitCh)
	}
	d.mu.Unlock()

	d.wg.Wait()
	d.pool.Release()
}

// Running reports how many handlers are currently executing in the pool.
func (d *Dispatcher) Running() int { return d.pool.Running() }
