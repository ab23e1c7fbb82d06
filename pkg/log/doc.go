// Package log provides SnakeByte's structured logging facade.
//
// # Overview
//
// The package exposes a small Logger interface with leveled methods and a
// simple Field type for structured context. Internally it is backed by Go's
// standard library slog via a custom handler that routes records through a
// formatter/outputs pipeline, so consumers keep one consistent output shape
// while remaining interoperable with the slog ecosystem.
//
// Quick start
//
//	l := log.NewLogger(
//	    log.WithLevel(log.InfoLevel),
//	    log.WithFormatter(&log.TextFormatter{}),
//	    log.WithOutput(log.NewConsoleOutput()),
//	)
//	l = l.With(log.Component("scheduler"), log.Str("ns", "default"))
//	l.Info("queue opened", log.Int("buckets", 3))
//
// # Configuration
//
// Use ApplyConfig to build a logger from a declarative Config (level plus
// json or text formatting). To integrate with libraries that write through
// the standard library logger (Pebble does), use RedirectStdLog.
package log
