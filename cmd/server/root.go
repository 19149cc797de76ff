package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/fatih/color"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"relief/internal/platform/config"
	"relief/internal/platform/database"
	"relief/internal/platform/logger"
	"relief/internal/platform/metrics"
	"relief/internal/relief"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "relief",
		Short: "Disaster relief management API",
		Long: `relief serves the disaster relief REST API.

Examples:

  relief serve
  relief seed --file fixtures.yaml
  relief check
`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCmd(), newSeedCmd(), newCheckCmd())
	return root
}

// app is what every subcommand shares: configuration, a store and the wired module.
type app struct {
	cfg      config.Config
	logger   *slog.Logger
	db       *database.DB
	registry *prometheus.Registry
	metrics  *metrics.Metrics
	module   *relief.Module
}

func loadConfig() (config.Config, *slog.Logger, error) {
	cfg, err := config.FromEnv()
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, logger.New(cfg.Log.Level, cfg.Log.Format), nil
}

func newApp(ctx context.Context) (*app, error) {
	cfg, log, err := loadConfig()
	if err != nil {
		return nil, err
	}

	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	if cfg.Database.BootstrapSchema {
		if err := db.Bootstrap(ctx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("bootstrap schema: %w", err)
		}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	mod, err := relief.New(db, relief.Config{
		Allocator:      cfg.Database.Allocator,
		CreateAttempts: cfg.CreateRetries,
		Logger:         log,
		Metrics:        m,
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &app{cfg: cfg, logger: log, db: db, registry: reg, metrics: m, module: mod}, nil
}

func (a *app) Close() error {
	return a.db.Close()
}

var (
	okLine   = color.New(color.FgGreen, color.Bold)
	failLine = color.New(color.FgRed, color.Bold)
	infoLine = color.New(color.FgCyan)
)
