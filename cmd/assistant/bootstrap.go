package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"binary-options-assistant/internal/broker"
	"binary-options-assistant/internal/catalog"
	"binary-options-assistant/internal/cli"
	"binary-options-assistant/internal/engine"
	"binary-options-assistant/internal/engine/engineobs"
	"binary-options-assistant/internal/eod"
	"binary-options-assistant/internal/eod/eodobs"
	"binary-options-assistant/internal/interfaces"
	"binary-options-assistant/internal/logger"
	"binary-options-assistant/internal/store"
	"binary-options-assistant/internal/trace"
	"binary-options-assistant/internal/tradelog"

	"github.com/joho/godotenv"
)

// initializeSystem initializes logger, tracer, and session summarizer
func initializeSystem() error {
	_ = godotenv.Load()

	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if err := trace.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize tracer: %v\n", err)
	}

	initializeEOD()
	return nil
}

// loadConfig reads ASSISTANT_CONFIG, falling back to config.yaml. A missing
// default file means built-in defaults.
func loadConfig(ctx context.Context) (*store.Config, error) {
	path := os.Getenv("ASSISTANT_CONFIG")
	explicit := path != ""
	if !explicit {
		path = "config.yaml"
	}

	cfg, err := store.LoadConfig(path)
	if err != nil {
		if !explicit && os.IsNotExist(err) {
			logger.Warn(ctx, "No config.yaml found - using defaults")
			return store.ParseConfig(nil)
		}
		logger.ErrorWithErr(ctx, "Failed to load config", err, "path", path)
		return nil, err
	}
	return cfg, nil
}

// loadCatalog returns the configured asset list or the built-in one.
func loadCatalog(ctx context.Context, cfg *store.Config) (*catalog.Catalog, error) {
	if cfg.AssetsFile == "" {
		return catalog.Default(), nil
	}
	cat, err := catalog.Load(cfg.AssetsFile)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to load asset catalog", err, "path", cfg.AssetsFile)
		return nil, err
	}
	logger.Info(ctx, "Asset catalog loaded", "path", cfg.AssetsFile, "count", cat.Len())
	return cat, nil
}

// compressOldLogs compresses old journal files if retention is configured
func compressOldLogs(ctx context.Context, cfg *store.Config) {
	tradelog.SetDir(cfg.LogDir)
	if cfg.LogRetentionDays <= 0 {
		return
	}
	if err := tradelog.CompressOlder(cfg.LogRetentionDays); err != nil {
		logger.Warn(ctx, "Failed to compress old logs", "error", err)
	}
}

// initializeBroker builds the venue for the configured mode
func initializeBroker(ctx context.Context, cfg *store.Config, cat *catalog.Catalog) (interfaces.Broker, error) {
	if cfg.Mode == store.ModeDryRun {
		logger.Warn(ctx, "Running in DRY_RUN mode - candles and orders are simulated")
	} else {
		logger.Info(ctx, "Running in LIVE mode", "broker", cfg.Broker)
	}
	return broker.New(cfg, cat)
}

// initializeEngine initializes and returns the engine with observability
func initializeEngine(cfg *store.Config, brk interfaces.Broker) interfaces.Engine {
	return engineobs.Wrap(engine.New(cfg, brk))
}

// initializeEOD wraps the default summarizer with observability
func initializeEOD() {
	eod.SetDefaultSummarizer(eodobs.Wrap(eod.NewSummarizer()))
}

func newSession(cfg *store.Config, cat *catalog.Catalog, eng interfaces.Engine) *cli.Session {
	return cli.NewSession(cli.Options{
		In:             os.Stdin,
		Out:            os.Stdout,
		Assets:         cat,
		Engine:         eng,
		Offsets:        cfg.Display.Offsets,
		ShowIndicators: cfg.Display.Indicators,
		PostTradePause: time.Duration(cfg.Display.PostTradePauseSeconds) * time.Second,
	})
}
