package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/hyperjump/osusume/internal/catalogimport"
	"github.com/hyperjump/osusume/internal/cli"
	"github.com/hyperjump/osusume/internal/models"
	"github.com/hyperjump/osusume/internal/storage"
	"github.com/hyperjump/osusume/pkg/utils"
	"go.uber.org/zap"
)

// commandFlags are shared by the read commands.
type commandFlags struct {
	fs         *flag.FlagSet
	configPath *string
	serverURL  *string
	output     *string
	limit      *int
}

func newCommandFlags(name string, withLimit bool) *commandFlags {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	c := &commandFlags{
		fs:         fs,
		configPath: fs.String("config", defaultConfigPath, "config file path"),
		serverURL:  fs.String("server", "", "server URL (empty = open storage directly)"),
		output:     fs.String("output", "text", "output format: text or json"),
	}
	if withLimit {
		c.limit = fs.Int("limit", 0, "number of results (default: configured limit)")
	}
	return c
}

// parse parses args (flags may follow positionals) and returns the output format.
func (c *commandFlags) parse(args []string) cli.OutputFormat {
	_ = c.fs.Parse(flagsFirst(args))
	format, err := cli.ParseOutputFormat(*c.output)
	if err != nil {
		fail("%v", err)
	}
	return format
}

// requestedLimit returns the --limit value, or nil when the flag was not given.
func (c *commandFlags) requestedLimit() *int {
	if c.limit == nil {
		return nil
	}
	var set bool
	c.fs.Visit(func(f *flag.Flag) {
		if f.Name == "limit" {
			set = true
		}
	})
	if !set {
		return nil
	}
	return c.limit
}

// limitOr returns the --limit value, or def when the flag was not given.
func limitOr(limit *int, def int) int {
	if limit == nil {
		return def
	}
	return *limit
}

// flagsFirst moves flags that follow positional arguments to the front so the flag
// package sees them ("osusume products 42 --limit 5").
func flagsFirst(args []string) []string {
	for i, a := range args {
		if len(a) > 0 && a[0] == '-' {
			if i == 0 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[i:]...)
			reordered = append(reordered, args[:i]...)
			return reordered
		}
	}
	return args
}

func parseUserIDArg(args []string) (int64, error) {
	if len(args) != 1 {
		return 0, errors.New("exactly one user id is required")
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid user id %q", args[0])
	}
	return id, nil
}

func fail(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

// withComponents opens storage from config and runs fn. Storage is closed and the logger
// flushed before it returns fn's error.
func withComponents(configPath string, fn func(*Components) error, importOpts ...catalogimport.Option) error {
	cfg, _, err := loadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Sync()
	components, err := initializeComponents(cfg, logger, importOpts...)
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}
	defer components.Close()
	if err := fn(components); err != nil {
		logger.Debug("command failed", zap.Error(err))
		return err
	}
	return nil
}

// runWithComponents runs fn through withComponents and exits non-zero on failure.
func runWithComponents(configPath string, fn func(*Components) error, importOpts ...catalogimport.Option) {
	if err := withComponents(configPath, fn, importOpts...); err != nil {
		fail("%v", err)
	}
}

func runProducts() {
	c := newCommandFlags("products", true)
	format := c.parse(os.Args[2:])
	userID, err := parseUserIDArg(c.fs.Args())
	if err != nil {
		fail("Usage: osusume products [flags] <user_id>: %v", err)
	}

	if *c.serverURL != "" {
		var resp models.ProductRecommendationResponse
		if err := getJSON(*c.serverURL, productsPath(userID, c.requestedLimit()), &resp); err != nil {
			fail("Recommendation failed: %v", err)
		}
		if err := cli.WriteProductRecommendations(os.Stdout, &resp, format); err != nil {
			fail("Output failed: %v", err)
		}
		return
	}
	runWithComponents(*c.configPath, func(comp *Components) error {
		start := time.Now()
		limit := limitOr(c.requestedLimit(), comp.Engine.DefaultProductLimit())
		products, err := comp.Engine.RecommendProducts(context.Background(), userID, limit)
		if err != nil {
			return fmt.Errorf("recommendation failed: %w", err)
		}
		return cli.WriteProductRecommendations(os.Stdout, &models.ProductRecommendationResponse{
			ResponseTime: time.Since(start).Seconds(),
			UserID:       userID,
			Products:     products,
		}, format)
	})
}

func runStores() {
	c := newCommandFlags("stores", true)
	format := c.parse(os.Args[2:])
	userID, err := parseUserIDArg(c.fs.Args())
	if err != nil {
		fail("Usage: osusume stores [flags] <user_id>: %v", err)
	}

	if *c.serverURL != "" {
		var resp models.StoreRecommendationResponse
		if err := getJSON(*c.serverURL, storesPath(userID, c.requestedLimit()), &resp); err != nil {
			fail("Recommendation failed: %v", err)
		}
		if err := cli.WriteStoreRecommendations(os.Stdout, &resp, format); err != nil {
			fail("Output failed: %v", err)
		}
		return
	}
	runWithComponents(*c.configPath, func(comp *Components) error {
		start := time.Now()
		limit := limitOr(c.requestedLimit(), comp.Engine.DefaultStoreLimit())
		stores, err := comp.Engine.RecommendStores(context.Background(), userID, limit)
		if err != nil {
			return fmt.Errorf("recommendation failed: %w", err)
		}
		return cli.WriteStoreRecommendations(os.Stdout, &models.StoreRecommendationResponse{
			ResponseTime: time.Since(start).Seconds(),
			UserID:       userID,
			Stores:       stores,
		}, format)
	})
}

func runProfile() {
	c := newCommandFlags("profile", false)
	format := c.parse(os.Args[2:])
	userID, err := parseUserIDArg(c.fs.Args())
	if err != nil {
		fail("Usage: osusume profile [flags] <user_id>: %v", err)
	}

	if *c.serverURL != "" {
		var resp models.UserProfileResponse
		if err := getJSON(*c.serverURL, profilePath(userID), &resp); err != nil {
			fail("Profile failed: %v", err)
		}
		if err := cli.WriteUserProfile(os.Stdout, &resp, format); err != nil {
			fail("Output failed: %v", err)
		}
		return
	}
	runWithComponents(*c.configPath, func(comp *Components) error {
		start := time.Now()
		profile, err := comp.Engine.UserProfile(context.Background(), userID)
		if err != nil {
			return fmt.Errorf("profile failed: %w", err)
		}
		return cli.WriteUserProfile(os.Stdout, &models.UserProfileResponse{
			ResponseTime: time.Since(start).Seconds(),
			UserProfile:  profile,
		}, format)
	})
}

func runImport() {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	force := fs.Bool("force", false, "import even when the file is unchanged since its last import")
	_ = fs.Parse(flagsFirst(os.Args[2:]))
	if fs.NArg() < 1 {
		fmt.Println("Usage: osusume import [flags] <file.xlsx>...")
		fs.PrintDefaults()
		os.Exit(1)
	}

	runWithComponents(*configPath, func(comp *Components) error {
		for _, path := range fs.Args() {
			batch, err := comp.Importer.ImportFile(context.Background(), path)
			if errors.Is(err, catalogimport.ErrUnchanged) {
				fmt.Printf("%s: unchanged, skipped (use --force to re-import)\n", path)
				continue
			}
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			fmt.Printf("%s: %d products, %d stores, %d preferences, %d transactions (batch %s)\n",
				path, batch.Products, batch.Stores, batch.Preferences, batch.Transactions, batch.ID)
		}
		return nil
	}, catalogimport.WithForce(*force))
}

func runStatus() {
	c := newCommandFlags("status", false)
	format := c.parse(os.Args[2:])

	if *c.serverURL != "" {
		var status map[string]interface{}
		if err := getJSON(*c.serverURL, "/api/v1/status", &status); err != nil {
			fail("Status failed: %v", err)
		}
		if err := cli.WriteStatus(os.Stdout, status, format); err != nil {
			fail("Output failed: %v", err)
		}
		return
	}
	cfg, _, err := loadConfig(*c.configPath)
	if err != nil {
		fail("Failed to load config: %v", err)
	}
	runWithComponents(*c.configPath, func(comp *Components) error {
		status, err := localStatus(context.Background(), comp, cfg.Storage.DatabasePath)
		if err != nil {
			return err
		}
		return cli.WriteStatus(os.Stdout, status, format)
	})
}

func localStatus(ctx context.Context, comp *Components, dbPath string) (map[string]interface{}, error) {
	products, err := comp.Storage.CountProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("count products: %w", err)
	}
	stores, err := comp.Storage.CountStores(ctx)
	if err != nil {
		return nil, fmt.Errorf("count stores: %w", err)
	}
	users, err := comp.Storage.CountUsersWithPreferences(ctx)
	if err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}
	status := map[string]interface{}{
		"products":               products,
		"stores":                 stores,
		"users_with_preferences": users,
		"config": map[string]interface{}{
			"strategy":      comp.Engine.StrategyType(),
			"store_mapping": comp.Engine.StoreMapping(),
			"database_path": dbPath,
		},
	}
	if size, err := storage.DatabaseSizeBytes(dbPath); err == nil {
		status["database_size_bytes"] = size
	}
	return status, nil
}
