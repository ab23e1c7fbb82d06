package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/ssokolow/snakebyte/internal/runtime"
	"github.com/ssokolow/snakebyte/internal/services/scheduler"
	"github.com/ssokolow/snakebyte/pkg/fairqueue"
	logpkg "github.com/ssokolow/snakebyte/pkg/log"
)

// Server exposes the queue API over plain net/http.
type Server struct {
	rt     *runtime.Runtime
	sched  *scheduler.Service
	logger logpkg.Logger
	srv    *http.Server
	lis    net.Listener
}

// New builds the server and its route table.
func New(rt *runtime.Runtime) *Server {
	mux := http.NewServeMux()
	s := &Server{
		rt:     rt,
		sched:  rt.Scheduler(),
		logger: rt.Logger().With(logpkg.Component("http")),
	}
	s.srv = &http.Server{Handler: cors(requestID(mux))}
	mux.HandleFunc("/v1/healthz", s.handleHealth)
	mux.HandleFunc("/v1/queues/enqueue", s.handleEnqueue)
	mux.HandleFunc("/v1/queues/dequeue", s.handleDequeue)
	mux.HandleFunc("/v1/queues/buckets", s.handleListBuckets)
	mux.HandleFunc("/v1/queues/bucket", s.handleGetBucket)
	mux.HandleFunc("/v1/queues/bucket/replace", s.handleReplaceBucket)
	mux.HandleFunc("/v1/queues/bucket/delete", s.handleDeleteBucket)
	mux.HandleFunc("/v1/queues/stats", s.handleStats)
	mux.HandleFunc("/v1/queues/list", s.handleListQueues)
	mux.HandleFunc("/v1/queues/snapshot", s.handleSnapshot)
	return s
}

// ListenAndServe serves until the context is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s.lis = l
	s.logger.Info("http server listening", logpkg.Str("addr", l.Addr().String()))
	errCh := make(chan error, 1)
	go func() { errCh <- s.srv.Serve(l) }()
	select {
	case <-ctx.Done():
		cctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.srv.Shutdown(cctx)
		return nil
	case err := <-errCh:
		return err
	}
}

// Close releases the listener.
func (s *Server) Close() {
	if s.lis != nil {
		_ = s.lis.Close()
	}
}

// Handler returns the root handler, for tests.
func (s *Server) Handler() http.Handler { return s.srv.Handler }

func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requestID tags every response with an X-Request-Id, honoring one supplied
// by the caller.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rid := r.Header.Get("X-Request-Id")
		if rid == "" {
			rid = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", rid)
		next.ServeHTTP(w, r)
	})
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps service errors to HTTP statuses and stable error codes.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, fairqueue.ErrQueueEmpty):
		writeJSON(w, http.StatusNotFound, apiError{Code: "queue_empty", Message: err.Error()})
	case errors.Is(err, fairqueue.ErrUnknownBucket):
		writeJSON(w, http.StatusNotFound, apiError{Code: "unknown_bucket", Message: err.Error()})
	case errors.Is(err, fairqueue.ErrInvalidKey), errors.Is(err, fairqueue.ErrMalformedState),
		errors.Is(err, scheduler.ErrInvalidName):
		writeJSON(w, http.StatusBadRequest, apiError{Code: "bad_request", Message: err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, apiError{Code: "internal", Message: err.Error()})
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.rt.CheckHealth(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not_serving"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type enqueueReq struct {
	Namespace string            `json:"namespace"`
	Queue     string            `json:"queue"`
	Bucket    string            `json:"bucket"`
	Payload   string            `json:"payload"`
	Headers   map[string]string `json:"headers"`
}

func (s *Server) handleEnqueue(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req enqueueReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, apiError{Code: "bad_request", Message: "invalid JSON body"})
		return
	}
	item, err := s.sched.Enqueue(req.Namespace, req.Queue, req.Bucket, req.Payload, req.Headers)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"bucket": req.Bucket, "item": item})
}

type dequeueReq struct {
	Namespace string `json:"namespace"`
	Queue     string `json:"queue"`
	Bucket    string `json:"bucket"`
}

func (s *Server) handleDequeue(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req dequeueReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, apiError{Code: "bad_request", Message: "invalid JSON body"})
		return
	}
	if req.Bucket != "" {
		item, err := s.sched.DequeueFrom(req.Namespace, req.Queue, req.Bucket)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"bucket": req.Bucket, "item": item})
		return
	}
	bucket, item, err := s.sched.Dequeue(req.Namespace, req.Queue)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"bucket": bucket, "item": item})
}

func (s *Server) handleListBuckets(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	q := r.URL.Query()
	buckets, err := s.sched.ListBuckets(q.Get("namespace"), q.Get("queue"), q.Get("filter"))
	if err != nil {
		writeError(w, err)
		return
	}
	if buckets == nil {
		buckets = []scheduler.BucketInfo{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"buckets": buckets})
}

func (s *Server) handleGetBucket(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	q := r.URL.Query()
	items, err := s.sched.GetBucket(q.Get("namespace"), q.Get("queue"), q.Get("bucket"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"bucket": q.Get("bucket"), "items": items})
}

type replaceReq struct {
	Namespace string           `json:"namespace"`
	Queue     string           `json:"queue"`
	Bucket    string           `json:"bucket"`
	Items     []scheduler.Item `json:"items"`
}

func (s *Server) handleReplaceBucket(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req replaceReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, apiError{Code: "bad_request", Message: "invalid JSON body"})
		return
	}
	if err := s.sched.ReplaceBucket(req.Namespace, req.Queue, req.Bucket, req.Items); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type bucketReq struct {
	Namespace string `json:"namespace"`
	Queue     string `json:"queue"`
	Bucket    string `json:"bucket"`
}

func (s *Server) handleDeleteBucket(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req bucketReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, apiError{Code: "bad_request", Message: "invalid JSON body"})
		return
	}
	if err := s.sched.DeleteBucket(req.Namespace, req.Queue, req.Bucket); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	q := r.URL.Query()
	stats, err := s.sched.Stats(q.Get("namespace"), q.Get("queue"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleListQueues(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	queues, err := s.sched.ListQueues(r.URL.Query().Get("namespace"))
	if err != nil {
		writeError(w, err)
		return
	}
	if queues == nil {
		queues = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"queues": queues})
}

type snapshotReq struct {
	Namespace string `json:"namespace"`
	Queue     string `json:"queue"`
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req snapshotReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, apiError{Code: "bad_request", Message: "invalid JSON body"})
		return
	}
	if err := s.sched.Persist(req.Namespace, req.Queue); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
