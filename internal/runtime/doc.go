// Package runtime wires storage, config and the scheduler into a
// single-node SnakeByte instance. It exposes Open/Close, basic health
// checks, and accessors used by the servers and CLI.
//
// Example:
//
//	cfg := config.Default()
//	rt, _ := runtime.Open(runtime.Options{Config: cfg})
//	defer rt.Close()
//	_ = rt.CheckHealth(context.Background())
//	item, _ := rt.Scheduler().Enqueue("default", "jobs", "alice", "payload", nil)
package runtime
