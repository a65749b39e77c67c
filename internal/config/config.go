// Package config provides configuration loading and structs for the osusume server.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is returned by Validate for out-of-range or unknown settings.
var ErrInvalidConfig = errors.New("invalid config")

// Store mapping policies.
const (
	MappingNarrow = "narrow"
	MappingBroad  = "broad"
)

// Config holds all configuration for the application.
type Config struct {
	Debug     bool            `yaml:"debug"`
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Recommend RecommendConfig `yaml:"recommend"`
	Import    ImportConfig    `yaml:"import"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host                  string `yaml:"host"`
	Port                  int    `yaml:"port"`
	RequestTimeoutSeconds int    `yaml:"request_timeout_seconds"`
	// RateLimitPerMinute caps requests per client IP; 0 disables limiting.
	RateLimitPerMinute int `yaml:"rate_limit_per_minute"`
}

// StorageConfig holds the catalog database path.
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// RecommendConfig holds ranking settings.
type RecommendConfig struct {
	DefaultProductLimit int `yaml:"default_product_limit"`
	DefaultStoreLimit   int `yaml:"default_store_limit"`
	MaxLimit            int `yaml:"max_limit"`
	// Strategy is "knn" (per-seed neighbors, pooled) or "mean" (cosine to the mean seed vector).
	Strategy string `yaml:"strategy"`
	// Neighbors per seed for knn. 0 means limit + number of excluded entries.
	Neighbors int `yaml:"neighbors"`
	// StoreMapping is "narrow" (seed products only) or "broad" (seed + top recommended products).
	StoreMapping string `yaml:"store_mapping"`
	BroadTopN    int    `yaml:"broad_top_n"`
	Backfill     *bool  `yaml:"backfill"`
	BackfillSeed uint64 `yaml:"backfill_seed"`
	// IncludeDetails adds full product/store records to results.
	IncludeDetails bool     `yaml:"include_details"`
	ProductFields  []string `yaml:"product_fields"`
	StoreFields    []string `yaml:"store_fields"`
}

// BackfillOrDefault returns whether to backfill under-full store results; defaults to true when unset.
func (r *RecommendConfig) BackfillOrDefault() bool {
	if r.Backfill != nil {
		return *r.Backfill
	}
	return true
}

// ImportConfig holds catalog import directory watch settings.
type ImportConfig struct {
	Directories []string `yaml:"directories"`
	Extensions  []string `yaml:"extensions"`
	Recursive   *bool    `yaml:"recursive"`
}

// RecursiveOrDefault returns whether to watch recursively; defaults to true when unset.
func (w *ImportConfig) RecursiveOrDefault() bool {
	if w.Recursive != nil {
		return *w.Recursive
	}
	return true
}

// Load reads and parses the config file at path, expands paths, applies defaults and validates.
// Returns an error if the file cannot be read, parsed or validated.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)
	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	configDir := filepath.Dir(path)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	for i := range cfg.Import.Directories {
		cfg.Import.Directories[i] = expandPath(cfg.Import.Directories[i], configDir)
	}

	return &cfg, nil
}

// Validate checks ranking settings. It expects defaults to have been applied.
func Validate(cfg *Config) error {
	r := &cfg.Recommend
	switch r.Strategy {
	case "knn", "mean":
	default:
		return fmt.Errorf("%w: recommend.strategy %q (supported: knn, mean)", ErrInvalidConfig, r.Strategy)
	}
	switch r.StoreMapping {
	case MappingNarrow, MappingBroad:
	default:
		return fmt.Errorf("%w: recommend.store_mapping %q (supported: narrow, broad)", ErrInvalidConfig, r.StoreMapping)
	}
	if r.Neighbors < 0 {
		return fmt.Errorf("%w: recommend.neighbors must not be negative", ErrInvalidConfig)
	}
	if r.MaxLimit < r.DefaultProductLimit || r.MaxLimit < r.DefaultStoreLimit {
		return fmt.Errorf("%w: recommend.max_limit %d is below a default limit", ErrInvalidConfig, r.MaxLimit)
	}
	if r.StoreMapping == MappingBroad && r.BroadTopN <= r.DefaultStoreLimit {
		return fmt.Errorf("%w: recommend.broad_top_n %d must exceed default_store_limit %d",
			ErrInvalidConfig, r.BroadTopN, r.DefaultStoreLimit)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
