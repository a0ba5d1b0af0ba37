// Package config loads tunables for the asyncfile benchmark CLI
// (cmd/afbench) from an optional JSONC file. The core asyncfile library itself
// takes no configuration beyond the functional options in
// [github.com/calvinalkan/asyncfile/pkg/asyncfile]; HeaderSize stays a
// compile-time constant.
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/tailscale/hujson"
)

// Config carries worker-pool and allocation tunables read from a JSONC
// file, with defaults matching the library's own defaults.
type Config struct {
	// Workers sizes the goroutine pool backing the asynchronous channel.
	Workers int `json:"workers"`

	// AllocationThreshold overrides the default 1 MiB gap below which
	// AllocateSpace skips physical zero-fill.
	AllocationThreshold int64 `json:"allocationThreshold"`

	// ZeroChunkSize bounds a single physical zero-fill write.
	ZeroChunkSize int `json:"zeroChunkSize"`
}

// Default returns a Config matching the library's built-in defaults.
func Default() Config {
	return Config{
		Workers:             8,
		AllocationThreshold: 1 << 20,
		ZeroChunkSize:       1 << 20,
	}
}

// Load reads and parses a JSONC config file at path, starting from
// [Default] and overlaying any fields present in the file. A missing
// file is not an error; Load returns the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("config: reading %q: %w", path, err)
	}

	standardized, err := hujson.Standardize(raw)
	if err != nil {
		return cfg, fmt.Errorf("config: parsing %q: %w", path, err)
	}

	if err := json.Unmarshal(standardized, &cfg); err != nil {
		return cfg, fmt.Errorf("config: decoding %q: %w", path, err)
	}

	if err := validate(cfg); err != nil {
		return cfg, fmt.Errorf("config: %q: %w", path, err)
	}

	return cfg, nil
}

func validate(cfg Config) error {
	if cfg.Workers <= 0 {
		return fmt.Errorf("workers must be > 0, got %d", cfg.Workers)
	}
	if cfg.AllocationThreshold < 0 {
		return fmt.Errorf("allocationThreshold must be >= 0, got %d", cfg.AllocationThreshold)
	}
	if cfg.ZeroChunkSize <= 0 {
		return fmt.Errorf("zeroChunkSize must be > 0, got %d", cfg.ZeroChunkSize)
	}

	return nil
}
