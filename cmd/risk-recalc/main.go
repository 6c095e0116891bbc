// Command risk-recalc assesses every active student once and prints a JSON summary.
// It exits non-zero only when the batch could not run at all.
package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/noah-isme/sma-wellbeing-api/internal/app"
	"github.com/noah-isme/sma-wellbeing-api/pkg/config"
	"github.com/noah-isme/sma-wellbeing-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	container, err := app.New(ctx, cfg, logr)
	if err != nil {
		logr.Sugar().Fatalw("failed to initialise", "error", err)
	}
	container.Start(ctx)

	result, err := container.Risk.RecalculateAll(ctx)
	if err != nil {
		container.Close()
		logr.Sugar().Fatalw("risk recalculation failed", "error", err)
	}

	drainCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	container.Drain(drainCtx)
	cancel()
	container.Close()

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		logr.Sugar().Fatalw("failed to write summary", "error", err)
	}
}
