package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"binary-options-assistant/internal/eod"
	"binary-options-assistant/internal/logger"
	"binary-options-assistant/internal/trace"
)

func must(err error) {
	if err != nil {
		log.Fatal(err)
	}
}

func main() {
	must(initializeSystem())
	defer logger.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = trace.Shutdown(shutdownCtx)
	}()

	cfg, err := loadConfig(ctx)
	must(err)

	compressOldLogs(ctx, cfg)

	cat, err := loadCatalog(ctx, cfg)
	must(err)

	brk, err := initializeBroker(ctx, cfg, cat)
	must(err)

	if err := brk.Start(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Could not connect to broker: %v\n", err)
		os.Exit(1)
	}
	defer brk.Stop(context.Background())

	eng := initializeEngine(cfg, brk)

	if err := newSession(cfg, cat, eng).Run(ctx); err != nil {
		logger.ErrorWithErr(ctx, "Session ended with error", err)
	}

	if p, err := eod.SummarizeToday(); err == nil && p != "" {
		fmt.Fprintln(os.Stderr, "Session summary written:", p)
	}
}
