package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/ssokolow/snakebyte/pkg/log"
)

// Config is the top-level configuration loaded from file/env.
type Config struct {
	// HTTPAddr is the listen address for the HTTP API.
	HTTPAddr string `json:"httpAddr" yaml:"httpAddr"`
	// DataDir is where queue snapshots are persisted.
	DataDir string `json:"dataDir" yaml:"dataDir"`

	Storage   StorageConfig   `json:"storage" yaml:"storage"`
	Scheduler SchedulerConfig `json:"scheduler" yaml:"scheduler"`
	Log       log.Config      `json:"log" yaml:"log"`
}

// StorageConfig controls the Pebble-backed snapshot store.
type StorageConfig struct {
	// Fsync selects the durability mode: always, interval or never.
	Fsync string `json:"fsync" yaml:"fsync"`
	// FsyncIntervalMs applies when Fsync is "interval".
	FsyncIntervalMs int `json:"fsyncIntervalMs" yaml:"fsyncIntervalMs"`
}

// SchedulerConfig controls queue behavior and dispatch.
type SchedulerConfig struct {
	// DefaultNamespace is used when a request names no namespace.
	DefaultNamespace string `json:"defaultNamespace" yaml:"defaultNamespace"`
	// DispatchWorkers sizes the dispatcher's goroutine pool.
	DispatchWorkers int `json:"dispatchWorkers" yaml:"dispatchWorkers"`
	// SnapshotEveryMutations persists a queue snapshot after this many
	// mutating operations. Zero persists on every mutation.
	SnapshotEveryMutations int `json:"snapshotEveryMutations" yaml:"snapshotEveryMutations"`
}

// Default returns built-in defaults.
func Default() Config {
	return Config{
		HTTPAddr: ":8787",
		DataDir:  DefaultDataDir(),
		Storage: StorageConfig{
			Fsync:           "interval",
			FsyncIntervalMs: 50,
		},
		Scheduler: SchedulerConfig{
			DefaultNamespace:       "default",
			DispatchWorkers:        8,
			SnapshotEveryMutations: 0,
		},
		Log: log.Config{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads configuration from a JSON or YAML file (by extension). If path
// is empty, returns defaults.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	cfg := Default()
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	return cfg, nil
}

// Validate checks cross-field constraints that cannot be expressed per-field.
func (c Config) Validate() error {
	switch c.Storage.Fsync {
	case "always", "interval", "never":
	default:
		return fmt.Errorf("config: unknown fsync mode %q", c.Storage.Fsync)
	}
	if c.Storage.Fsync == "interval" && c.Storage.FsyncIntervalMs <= 0 {
		return fmt.Errorf("config: fsyncIntervalMs must be positive in interval mode")
	}
	if c.Scheduler.DispatchWorkers < 1 {
		return fmt.Errorf("config: dispatchWorkers must be at least 1")
	}
	if c.Scheduler.DefaultNamespace == "" {
		return fmt.Errorf("config: defaultNamespace must not be empty")
	}
	return nil
}
