package config

import (
	"os"
	"strconv"
)

// FromEnv overlays SNAKEBYTE_* environment variables onto cfg.
func FromEnv(cfg *Config) {
	if v := os.Getenv("SNAKEBYTE_HTTP_ADDR"); v != "" {
		cfg.HTTPAddr = v
	}
	if v := os.Getenv("SNAKEBYTE_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("SNAKEBYTE_STORAGE_FSYNC"); v != "" {
		cfg.Storage.Fsync = v
	}
	if v := os.Getenv("SNAKEBYTE_STORAGE_FSYNC_INTERVAL_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Storage.FsyncIntervalMs = n
		}
	}
	if v := os.Getenv("SNAKEBYTE_DEFAULT_NAMESPACE"); v != "" {
		cfg.Scheduler.DefaultNamespace = v
	}
	if v := os.Getenv("SNAKEBYTE_DISPATCH_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Scheduler.DispatchWorkers = n
		}
	}
	if v := os.Getenv("SNAKEBYTE_SNAPSHOT_EVERY_MUTATIONS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Scheduler.SnapshotEveryMutations = n
		}
	}
	if v := os.Getenv("SNAKEBYTE_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("SNAKEBYTE_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
}
