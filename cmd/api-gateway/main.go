package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	_ "github.com/noah-isme/sma-wellbeing-api/api/swagger"
	"github.com/noah-isme/sma-wellbeing-api/internal/app"
	"github.com/noah-isme/sma-wellbeing-api/pkg/config"
	"github.com/noah-isme/sma-wellbeing-api/pkg/jobs"
	"github.com/noah-isme/sma-wellbeing-api/pkg/logger"
)

// @title SMA Wellbeing API
// @version 1.0.0
// @description Student risk assessment, alerting and intervention tracking
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

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
	defer container.Close()
	container.Start(ctx)

	if cfg.Risk.SchedulerEnabled {
		scheduler := jobs.NewIntervalScheduler("risk-recalc", cfg.Risk.RecalcInterval, cfg.Risk.RecalcOnStart,
			func(ctx context.Context) error {
				result, err := container.Risk.RecalculateAll(ctx)
				if err != nil {
					return err
				}
				logr.Info("scheduled risk recalculation finished",
					zap.Int("total", result.Total),
					zap.Int("failed", len(result.Failed)),
					zap.Int("alerts_created", result.AlertsCreated),
				)
				return nil
			}, logr)
		scheduler.Start(ctx)
		defer scheduler.Stop()
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           app.NewRouter(container),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Errorw("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
	logr.Sugar().Infow("server stopped")
}
