package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/storm-data-wqflow/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/storm-data-wqflow/internal/adapter/kafka"
	"github.com/couchcryptid/storm-data-wqflow/internal/adapter/simulator"
	"github.com/couchcryptid/storm-data-wqflow/internal/config"
	"github.com/couchcryptid/storm-data-wqflow/internal/domain"
	"github.com/couchcryptid/storm-data-wqflow/internal/observability"
	"github.com/couchcryptid/storm-data-wqflow/internal/sizing"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	// Full simulation fallback (feature-flagged via SIMULATOR_COMMAND).
	var sim domain.Simulator
	if cfg.SimulatorEnabled() {
		sim = simulator.NewCommandSimulator(cfg.SimulatorCommand, cfg.SimulatorTimeout, logger)
		logger.Info("simulation fallback enabled", "command", cfg.SimulatorCommand, "timeout", cfg.SimulatorTimeout)
	} else {
		logger.Info("simulation fallback disabled")
	}

	// Result publishing (feature-flagged via KAFKA_BROKERS).
	var pub sizing.Publisher
	var writer *kafkaadapter.Writer
	if cfg.PublishEnabled() {
		writer = kafkaadapter.NewWriter(cfg, logger)
		pub = writer
		logger.Info("result publishing enabled", "topic", cfg.KafkaResultsTopic)
	}

	svc := sizing.New(cfg, sim, pub, logger, metrics)

	var sizer sizing.Sizer = svc
	if cfg.ResultCacheSize > 0 {
		sizer = sizing.NewCachedSizer(svc, cfg.ResultCacheSize, metrics)
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, svc, sizer, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Load (or build) the reference series; /readyz reports 503 until done.
	go func() {
		if err := svc.Bootstrap(ctx); err != nil {
			logger.Error("reference bootstrap failed", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
