// Package httpserver provides the JSON REST surface for SnakeByte's queue
// operations: enqueue/dequeue, bucket listing and management, stats and
// snapshot persistence.
//
// Example:
//
//	rt, _ := runtime.Open(runtime.Options{Config: config.Default()})
//	s := httpserver.New(rt)
//	ctx, cancel := context.WithCancel(context.Background())
//	defer cancel()
//	_ = s.ListenAndServe(ctx, ":8787")
package httpserver
