// Package main is the Osusume CLI entry point.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/hyperjump/osusume/internal/catalogimport"
	"github.com/hyperjump/osusume/internal/config"
	"github.com/hyperjump/osusume/internal/recommend"
	"github.com/hyperjump/osusume/internal/server"
	"github.com/hyperjump/osusume/internal/storage"
	"github.com/hyperjump/osusume/internal/watcher"
	"github.com/hyperjump/osusume/pkg/utils"
	"go.uber.org/zap"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/osusume/config.yaml"

// loadConfig loads config from path. When path is the default and ./config.yaml exists,
// that file is used instead so a checkout can run with its own config.
// Returns the config and the path that was actually loaded.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
		if _, statErr := os.Stat(path); os.IsNotExist(statErr) {
			cfg := &config.Config{}
			config.ApplyDefaults(cfg)
			return cfg, "", nil
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "products":
		runProducts()
	case "stores":
		runStores()
	case "profile":
		runProfile()
	case "import":
		runImport()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("osusume version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
		zap.String("strategy", cfg.Recommend.Strategy),
		zap.String("store_mapping", cfg.Recommend.StoreMapping),
	)

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if len(cfg.Import.Directories) > 0 {
		importer := components.Importer
		watchSvc := watcher.NewWatcher(
			cfg.Import.Directories,
			cfg.Import.Extensions,
			cfg.Import.RecursiveOrDefault(),
			func(ctx context.Context, path string) {
				_, err := importer.ImportFile(ctx, path)
				switch {
				case errors.Is(err, catalogimport.ErrUnchanged):
					logger.Debug("workbook unchanged", zap.String("path", path))
				case err != nil:
					logger.Warn("import failed", zap.String("path", path), zap.Error(err))
				}
			},
			watcher.WithLogger(logger),
		)
		if err := watchSvc.Start(ctx); err != nil {
			logger.Fatal("Failed to start watcher", zap.Error(err))
		}
		watchSvc.SyncExistingFiles()
		defer watchSvc.Stop()
	}

	srv := server.NewServer(components.Engine, components.Storage, cfg, logger)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = srv.Stop(shutdownCtx)
}

// Components holds the long-lived objects shared by commands.
type Components struct {
	Storage  storage.Storage
	Engine   *recommend.Engine
	Importer *catalogimport.Importer
}

// Close releases resources.
func (c *Components) Close() {
	if c.Storage != nil {
		_ = c.Storage.Close()
	}
}

func initializeComponents(cfg *config.Config, logger *zap.Logger, importOpts ...catalogimport.Option) (*Components, error) {
	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	opts, err := recommend.OptionsFromConfig(&cfg.Recommend)
	if err != nil {
		store.Close()
		return nil, err
	}
	importOpts = append([]catalogimport.Option{catalogimport.WithLogger(logger)}, importOpts...)
	return &Components{
		Storage:  store,
		Engine:   recommend.NewEngine(store, opts, logger),
		Importer: catalogimport.NewImporter(store, importOpts...),
	}, nil
}

func printUsage() {
	fmt.Print(`Osusume - content-based product and store recommendations

Usage:
  osusume <command> [flags] [args]

Commands:
  server                 Run the HTTP API (and the import directory watcher)
  products <user_id>     Recommend products for a user
  stores <user_id>       Recommend stores for a user
  profile <user_id>      Show the products and stores behind a user's signals
  import <file.xlsx>...  Import catalog workbooks into storage
  status                 Show catalog counts and ranking settings
  version                Print the version
  help                   Show this help

Common flags:
  --config <path>        Config file (default /usr/local/etc/osusume/config.yaml)
  --server <url>         Query a running server instead of opening storage directly
  --output text|json     Output format

Examples:
  osusume products 42 --limit 10
  osusume stores 42 --server http://localhost:5055 --output json
  osusume import ./catalog.xlsx
`)
}
