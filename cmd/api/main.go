package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"go-audit-insights/internal/config"
	httpapi "go-audit-insights/internal/http"
	"go-audit-insights/internal/logging"
)

var version = "dev"

func main() {
	cfg := config.FromEnv()
	logger := logging.Init(cfg.Environment, cfg.LogLevel, cfg.LogFormat)
	defer logging.Sync()

	srv, err := httpapi.NewServer(cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize server", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting API server",
			zap.String("version", version),
			zap.String("addr", cfg.ListenAddr),
			zap.String("data_origin", cfg.DataOrigin),
		)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Fatal("server stopped", zap.Error(err))
		}
	case <-ctx.Done():
		logger.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}
