package config

import "github.com/hyperjump/osusume/internal/features"

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 5055
	}
	if cfg.Server.RequestTimeoutSeconds == 0 {
		cfg.Server.RequestTimeoutSeconds = 60
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "/usr/local/var/osusume/data/catalog.db"
	}
	r := &cfg.Recommend
	if r.DefaultProductLimit == 0 {
		r.DefaultProductLimit = 30
	}
	if r.DefaultStoreLimit == 0 {
		r.DefaultStoreLimit = 15
	}
	if r.MaxLimit == 0 {
		r.MaxLimit = 100
	}
	if r.Strategy == "" {
		r.Strategy = "knn"
	}
	if r.StoreMapping == "" {
		r.StoreMapping = MappingNarrow
	}
	if r.BroadTopN == 0 {
		r.BroadTopN = 50
	}
	if r.BackfillSeed == 0 {
		r.BackfillSeed = 42
	}
	if r.Backfill == nil {
		t := true
		r.Backfill = &t
	}
	if r.ProductFields == nil {
		r.ProductFields = append([]string(nil), features.DefaultProductFields...)
	}
	if r.StoreFields == nil {
		r.StoreFields = append([]string(nil), features.DefaultStoreFields...)
	}
	if cfg.Import.Extensions == nil {
		cfg.Import.Extensions = []string{".xlsx"}
	}
	// Recursive defaults to true when unset (nil).
	if len(cfg.Import.Directories) > 0 && cfg.Import.Recursive == nil {
		t := true
		cfg.Import.Recursive = &t
	}
}
