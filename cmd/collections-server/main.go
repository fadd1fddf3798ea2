// STT Collections MCP Server
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/rsned/stt-collections-server/internal/collections/db"
	"github.com/rsned/stt-collections-server/internal/collections/engine"
	"github.com/rsned/stt-collections-server/internal/collections/optimizer"
	"github.com/rsned/stt-collections-server/internal/config"
)

var rootCmd = &cobra.Command{
	Use:          "collections-server",
	Short:        "Crew collection completion optimizer",
	Long:         "collections-server imports player rosters and collection catalogs, and finds which collections can be completed together with shared crew at the lowest honor cost.",
	SilenceUsage: true,
}

var (
	dbPath     string
	configPath string
	verbose    bool
)

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Path to SQLite database (overrides config)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "collections.toml", "Path to TOML config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// app holds what every subcommand needs.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	db     *db.DB
}

// setup loads the configuration, sets up logging and opens the database.
func setup(ctx context.Context) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if dbPath != "" {
		cfg.Database.Path = dbPath
	}
	if verbose {
		cfg.Log.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	// Setup logging
	logLevel, err := cfg.SlogLevel()
	if err != nil {
		return nil, err
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// Open database
	database, err := db.OpenAndInit(ctx, cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	return &app{cfg: cfg, logger: logger, db: database}, nil
}

func (a *app) close() {
	_ = a.db.Close()
}

// newEngine builds the query engine from the optimizer settings.
func (a *app) newEngine() (*engine.Engine, error) {
	return engine.New(a.db, engine.Options{
		CacheSize: a.cfg.Optimizer.CacheSize,
		Tuning: optimizer.Tuning{
			SubsetCap:        a.cfg.Optimizer.SubsetCap,
			SubsetCapTrigger: a.cfg.Optimizer.SubsetCapTrigger,
		},
		SaleDiscountPct: a.cfg.Optimizer.SaleDiscountPct,
		Logger:          a.logger,
	})
}
