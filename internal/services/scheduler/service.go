package scheduler

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"sync"
	"time"

	"github.com/ssokolow/snakebyte/internal/snapstore"
	"github.com/ssokolow/snakebyte/pkg/fairqueue"
	"github.com/ssokolow/snakebyte/pkg/id"
	logpkg "github.com/ssokolow/snakebyte/pkg/log"
)

var nameRe = regexp.MustCompile(`^[a-zA-Z0-9._-]{1,64}$`)

// Options configures the scheduler service.
type Options struct {
	// Store persists queue snapshots. Nil runs the service in-memory only.
	Store *snapstore.Store
	// DefaultNamespace is used when a request names no namespace.
	DefaultNamespace string
	// SnapshotEveryMutations persists a queue after this many mutating
	// operations. Zero persists on every mutation.
	SnapshotEveryMutations int
	// Logger receives operational logs and core advisory diagnostics.
	Logger logpkg.Logger
}

// Service coordinates named fair queues for the server.
type Service struct {
	store         *snapstore.Store
	logger        logpkg.Logger
	idgen         *id.Generator
	defaultNS     string
	snapshotEvery int

	mu     sync.Mutex
	queues map[string]*managedQueue
}

// managedQueue serializes all core operations on one queue. The inner mutex
// spans every public operation, which is the concurrency contract the core
// requires of its host.
type managedQueue struct {
	mu        sync.Mutex
	namespace string
	name      string
	q         *fairqueue.Queue[string, Item]
	dirty     int
}

// New creates a scheduler service.
func New(opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = logpkg.NewLogger(logpkg.WithLevel(logpkg.InfoLevel))
	}
	logger = logger.With(logpkg.Component("scheduler"))
	ns := opts.DefaultNamespace
	if ns == "" {
		ns = "default"
	}
	return &Service{
		store:         opts.Store,
		logger:        logger,
		idgen:         id.NewGenerator(),
		defaultNS:     ns,
		snapshotEvery: opts.SnapshotEveryMutations,
		queues:        make(map[string]*managedQueue),
	}
}

func (s *Service) resolveNS(ns string) string {
	if ns == "" {
		return s.defaultNS
	}
	return ns
}

func validateName(kind, name string) error {
	if !nameRe.MatchString(name) {
		return fmt.Errorf("%w: %s %q", ErrInvalidName, kind, name)
	}
	return nil
}

// getQueue returns the managed queue, creating it on first access. A stored
// snapshot is restored when present; malformed stored state is reported and
// the queue starts empty.
func (s *Service) getQueue(ns, queue string) (*managedQueue, error) {
	ns = s.resolveNS(ns)
	if err := validateName("namespace", ns); err != nil {
		return nil, err
	}
	if err := validateName("queue", queue); err != nil {
		return nil, err
	}

	key := ns + "/" + queue
	s.mu.Lock()
	defer s.mu.Unlock()
	if mq, ok := s.queues[key]; ok {
		return mq, nil
	}

	qlog := s.logger.With(logpkg.Str("ns", ns), logpkg.Str("queue", queue))
	opts := fairqueue.Options[string]{Diag: qlog}

	var q *fairqueue.Queue[string, Item]
	if s.store != nil {
		var snap fairqueue.Snapshot[string, Item]
		switch err := s.store.Load(ns, queue, &snap); {
		case err == nil:
			restored, rerr := fairqueue.Restore(snap, opts)
			if rerr != nil {
				qlog.Error("stored snapshot is malformed, starting empty", logpkg.Err(rerr))
			} else {
				q = restored
				qlog.Info("queue restored", logpkg.Int("items", q.Size()), logpkg.Int("buckets", q.NumBuckets()))
			}
		case errors.Is(err, snapstore.ErrNotFound):
			// Fresh queue.
		default:
			qlog.Error("snapshot load failed, starting empty", logpkg.Err(err))
		}
	}
	if q == nil {
		q = fairqueue.New[string, Item](nil, opts)
	}

	mq := &managedQueue{namespace: ns, name: queue, q: q}
	s.queues[key] = mq
	return mq, nil
}

// maybePersist writes a snapshot once enough mutations accumulated.
// Caller holds mq.mu.
func (s *Service) maybePersist(mq *managedQueue) {
	if s.store == nil {
		return
	}
	mq.dirty++
	if mq.dirty <= s.snapshotEvery {
		return
	}
	s.persistLocked(mq)
}

// persistLocked writes the queue's snapshot. Caller holds mq.mu.
func (s *Service) persistLocked(mq *managedQueue) {
	if s.store == nil {
		return
	}
	snap := mq.q.Serialize()
	if err := s.store.Save(mq.namespace, mq.name, snap); err != nil {
		s.logger.Error("snapshot save failed",
			logpkg.Str("ns", mq.namespace), logpkg.Str("queue", mq.name), logpkg.Err(err))
		return
	}
	mq.dirty = 0
}

// Enqueue appends a work item to the named bucket and returns it.
func (s *Service) Enqueue(ns, queue, bucket, payload string, headers map[string]string) (Item, error) {
	if err := validateName("bucket", bucket); err != nil {
		return Item{}, err
	}
	mq, err := s.getQueue(ns, queue)
	if err != nil {
		return Item{}, err
	}

	item := Item{
		ID:           s.idgen.Next().String(),
		Payload:      payload,
		Headers:      headers,
		EnqueuedAtMs: time.Now().UnixMilli(),
	}

	mq.mu.Lock()
	defer mq.mu.Unlock()
	if err := mq.q.Insert(bucket, item); err != nil {
		return Item{}, err
	}
	s.maybePersist(mq)
	s.logger.Debug("item enqueued",
		logpkg.Str("ns", mq.namespace), logpkg.Str("queue", mq.name),
		logpkg.Str("bucket", bucket), logpkg.Str("id", item.ID))
	return item, nil
}

// Dequeue removes the next item in fair order and reports which bucket it
// came from.
func (s *Service) Dequeue(ns, queue string) (string, Item, error) {
	mq, err := s.getQueue(ns, queue)
	if err != nil {
		return "", Item{}, err
	}
	mq.mu.Lock()
	defer mq.mu.Unlock()
	bucket, item, err := mq.q.RemoveNext()
	if err != nil {
		return "", Item{}, err
	}
	s.maybePersist(mq)
	return bucket, item, nil
}

// DequeueFrom removes the next item from one specific bucket.
func (s *Service) DequeueFrom(ns, queue, bucket string) (Item, error) {
	if err := validateName("bucket", bucket); err != nil {
		return Item{}, err
	}
	mq, err := s.getQueue(ns, queue)
	if err != nil {
		return Item{}, err
	}
	mq.mu.Lock()
	defer mq.mu.Unlock()
	item, err := mq.q.RemoveNextFrom(bucket)
	if err != nil {
		return Item{}, err
	}
	s.maybePersist(mq)
	return item, nil
}

// ListBuckets returns buckets in service order, optionally filtered by a
// CEL expression over bucket, depth, position and now_ms.
func (s *Service) ListBuckets(ns, queue, filterExpr string) ([]BucketInfo, error) {
	filter, err := newCELFilter(filterExpr)
	if err != nil {
		return nil, fmt.Errorf("scheduler: filter: %w", err)
	}
	mq, err := s.getQueue(ns, queue)
	if err != nil {
		return nil, err
	}
	mq.mu.Lock()
	defer mq.mu.Unlock()

	var out []BucketInfo
	pos := 0
	for _, key := range mq.q.Keys() {
		sub, err := mq.q.LookupBucket(key)
		if err != nil {
			continue
		}
		info := BucketInfo{Bucket: key, Depth: sub.Len(), Position: pos}
		pos++
		if filter.Eval(info) {
			out = append(out, info)
		}
	}
	return out, nil
}

// GetBucket returns a copy of the bucket's pending items in service order.
func (s *Service) GetBucket(ns, queue, bucket string) ([]Item, error) {
	if err := validateName("bucket", bucket); err != nil {
		return nil, err
	}
	mq, err := s.getQueue(ns, queue)
	if err != nil {
		return nil, err
	}
	mq.mu.Lock()
	defer mq.mu.Unlock()
	sub, err := mq.q.LookupBucket(bucket)
	if err != nil {
		return nil, err
	}
	return append([]Item(nil), sub.Items()...), nil
}

// ReplaceBucket swaps the bucket's pending items wholesale. An empty item
// list deletes the bucket.
func (s *Service) ReplaceBucket(ns, queue, bucket string, items []Item) error {
	if err := validateName("bucket", bucket); err != nil {
		return err
	}
	mq, err := s.getQueue(ns, queue)
	if err != nil {
		return err
	}
	mq.mu.Lock()
	defer mq.mu.Unlock()
	if err := mq.q.ReplaceBucket(bucket, items); err != nil {
		return err
	}
	s.maybePersist(mq)
	return nil
}

// DeleteBucket removes the bucket and everything queued under it.
func (s *Service) DeleteBucket(ns, queue, bucket string) error {
	if err := validateName("bucket", bucket); err != nil {
		return err
	}
	mq, err := s.getQueue(ns, queue)
	if err != nil {
		return err
	}
	mq.mu.Lock()
	defer mq.mu.Unlock()
	if err := mq.q.DeleteBucket(bucket); err != nil {
		return err
	}
	s.maybePersist(mq)
	return nil
}

// Stats summarizes the queue.
func (s *Service) Stats(ns, queue string) (Stats, error) {
	mq, err := s.getQueue(ns, queue)
	if err != nil {
		return Stats{}, err
	}
	mq.mu.Lock()
	defer mq.mu.Unlock()
	return Stats{Items: mq.q.Size(), Buckets: mq.q.NumBuckets()}, nil
}

// Persist forces a snapshot write for the queue.
func (s *Service) Persist(ns, queue string) error {
	mq, err := s.getQueue(ns, queue)
	if err != nil {
		return err
	}
	if s.store == nil {
		return errors.New("scheduler: no snapshot store configured")
	}
	mq.mu.Lock()
	defer mq.mu.Unlock()
	s.persistLocked(mq)
	return nil
}

// ListQueues returns the queue names known in the namespace: open queues
// plus queues with a stored snapshot.
func (s *Service) ListQueues(ns string) ([]string, error) {
	ns = s.resolveNS(ns)
	if err := validateName("namespace", ns); err != nil {
		return nil, err
	}

	seen := map[string]struct{}{}
	s.mu.Lock()
	for _, mq := range s.queues {
		if mq.namespace == ns {
			seen[mq.name] = struct{}{}
		}
	}
	s.mu.Unlock()

	if s.store != nil {
		stored, err := s.store.ListQueues(ns)
		if err != nil {
			return nil, err
		}
		for _, name := range stored {
			seen[name] = struct{}{}
		}
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Close persists every dirty queue. Called on shutdown.
func (s *Service) Close() error {
	s.mu.Lock()
	queues := make([]*managedQueue, 0, len(s.queues))
	for _, mq := range s.queues {
		queues = append(queues, mq)
	}
	s.mu.Unlock()

	for _, mq := range queues {
		mq.mu.Lock()
		if mq.dirty > 0 {
			s.persistLocked(mq)
		}
		mq.mu.Unlock()
	}
	return nil
}
