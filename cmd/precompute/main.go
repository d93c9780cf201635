// Command precompute runs the full simulation path once and saves the hourly
// reference flow series used by the sizing service.
//
// It reads the same environment as the service. SIMULATOR_COMMAND is required.
//
// Usage:
//
//	SIMULATOR_COMMAND=/opt/swmm/run-link-report go run ./cmd/precompute -force
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/storm-data-wqflow/internal/adapter/simulator"
	"github.com/couchcryptid/storm-data-wqflow/internal/config"
	"github.com/couchcryptid/storm-data-wqflow/internal/domain"
	"github.com/couchcryptid/storm-data-wqflow/internal/observability"
	"github.com/couchcryptid/storm-data-wqflow/internal/sizing"
)

func main() {
	force := flag.Bool("force", false, "rebuild the reference series even if the artifact exists")
	flag.Parse()

	if err := run(*force); err != nil {
		fmt.Fprintf(os.Stderr, "precompute: %v\n", err)
		os.Exit(1)
	}
}

func run(force bool) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if !cfg.SimulatorEnabled() {
		return errors.New("SIMULATOR_COMMAND is required")
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sim := simulator.NewCommandSimulator(cfg.SimulatorCommand, cfg.SimulatorTimeout, logger)
	svc := sizing.New(cfg, sim, nil, logger, metrics)

	if _, err := os.Stat(cfg.ReferenceFlowsPath); err == nil && !force {
		logger.Info("reference flows already exist, use -force to rebuild", "path", cfg.ReferenceFlowsPath)
	} else {
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("stat reference flows: %w", err)
		}
		if err := svc.BuildReference(ctx); err != nil {
			return err
		}
	}

	if err := svc.Bootstrap(ctx); err != nil {
		return err
	}

	result, err := svc.Size(ctx, sizing.Request{AreaHa: cfg.ReferenceAreaHa, ImperviousPct: cfg.ReferenceImpervPct})
	if err != nil {
		return fmt.Errorf("analyze reference catchment: %w", err)
	}

	fmt.Printf("Reference catchment: %.1f ha, %.0f%% impervious, %d hourly samples\n",
		cfg.ReferenceAreaHa, cfg.ReferenceImpervPct, svc.Reference().Len())
	fmt.Printf("Wet periods: %d, dry periods: %d, total volume: %.1f m³\n",
		result.WetPeriods, result.DryPeriods, result.TotalVolumeM3)
	for _, p := range result.CaptureFlows {
		fmt.Printf("  Q_wq %5.1f%%: %s\n", p.Percent, domain.FormatFlow(p.FlowCMS))
	}
	return nil
}
