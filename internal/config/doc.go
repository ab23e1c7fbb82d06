// Package config provides loading and environment overlay for SnakeByte
// runtime configuration. It exposes a Default() baseline, file loading for
// JSON and YAML, and SNAKEBYTE_* environment overrides.
//
// Example:
//
//	cfg := config.Default()
//	// Optionally load from file and overlay env vars
//	if fileCfg, err := config.Load("/etc/snakebyte.yaml"); err == nil {
//	    cfg = fileCfg
//	}
//	config.FromEnv(&cfg)
//	if err := cfg.Validate(); err != nil { ... }
//	// Pass cfg into runtime.Options
package config
