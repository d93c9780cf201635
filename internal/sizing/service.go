// Package sizing answers Q_wq requests from a reference flow series, building
// that series through the external simulator when it has not been precomputed.
package sizing

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/couchcryptid/storm-data-wqflow/internal/adapter/flowfile"
	"github.com/couchcryptid/storm-data-wqflow/internal/adapter/raindat"
	"github.com/couchcryptid/storm-data-wqflow/internal/config"
	"github.com/couchcryptid/storm-data-wqflow/internal/domain"
	"github.com/couchcryptid/storm-data-wqflow/internal/observability"
)

// Request describes the catchment to size. Empty CapturePercentages selects
// the configured defaults.
type Request struct {
	AreaHa             float64
	ImperviousPct      float64
	CapturePercentages []float64
}

// Sizer computes Q_wq for a catchment.
type Sizer interface {
	Size(ctx context.Context, req Request) (domain.SizingResult, error)
}

// Publisher delivers completed sizing results downstream.
type Publisher interface {
	Publish(ctx context.Context, result domain.SizingResult) error
}

// Service holds the immutable reference series and answers sizing requests.
type Service struct {
	cfg       *config.Config
	simulator domain.Simulator
	publisher Publisher
	logger    *slog.Logger
	metrics   *observability.Metrics

	reference atomic.Pointer[domain.ReferenceFlow]
	bootErr   atomic.Pointer[bootstrapError]
}

// bootstrapError records why the last Bootstrap left the service without a
// reference series.
type bootstrapError struct {
	err error
}

// New creates a Service. A nil simulator disables building the reference
// series; a nil publisher disables result publishing.
func New(cfg *config.Config, sim domain.Simulator, pub Publisher, logger *slog.Logger, metrics *observability.Metrics) *Service {
	return &Service{
		cfg:       cfg,
		simulator: sim,
		publisher: pub,
		logger:    logger,
		metrics:   metrics,
	}
}

// CheckReadiness returns nil once the reference series is loaded. After a
// failed Bootstrap it returns that failure, so MissingArtifact and
// UpstreamFailure stay visible to callers.
func (s *Service) CheckReadiness(_ context.Context) error {
	if s.reference.Load() != nil {
		return nil
	}
	return s.notReadyErr()
}

// notReadyErr explains a missing reference series.
func (s *Service) notReadyErr() error {
	if b := s.bootErr.Load(); b != nil {
		return fmt.Errorf("reference bootstrap failed: %w", b.err)
	}
	return domain.ErrNotReady
}

// Reference returns the loaded reference series, or nil before Bootstrap completes.
func (s *Service) Reference() *domain.ReferenceFlow {
	return s.reference.Load()
}

// SetReference publishes ref as the series all subsequent requests scale.
func (s *Service) SetReference(ref *domain.ReferenceFlow) {
	s.reference.Store(ref)
	s.metrics.ReferenceLoaded.Set(1)
	s.metrics.ReferenceSamples.Set(float64(ref.Len()))
}

// Bootstrap loads the reference series. When the artifact is missing and a
// simulator is configured, the series is built first. A failure is kept and
// reported by CheckReadiness and Size until a later Bootstrap succeeds.
func (s *Service) Bootstrap(ctx context.Context) error {
	if err := s.bootstrap(ctx); err != nil {
		s.bootErr.Store(&bootstrapError{err: err})
		return err
	}
	s.bootErr.Store(nil)
	return nil
}

func (s *Service) bootstrap(ctx context.Context) error {
	ref, err := s.loadReference()
	if errors.Is(err, domain.ErrMissingArtifact) && s.simulator != nil {
		s.logger.Warn("reference flows missing, running full simulation", "path", s.cfg.ReferenceFlowsPath)
		if err := s.BuildReference(ctx); err != nil {
			return err
		}
		ref, err = s.loadReference()
	}
	if err != nil {
		return err
	}

	s.SetReference(ref)
	s.logger.Info("reference flows loaded",
		"path", s.cfg.ReferenceFlowsPath,
		"samples", ref.Len(),
		"area_ha", ref.AreaHa(),
		"imperv_pct", ref.ImperviousPct(),
	)
	return nil
}

func (s *Service) loadReference() (*domain.ReferenceFlow, error) {
	flows, err := flowfile.Load(s.cfg.ReferenceFlowsPath)
	if err != nil {
		return nil, err
	}
	ref, err := domain.NewReferenceFlow(flows, s.cfg.ReferenceAreaHa, s.cfg.ReferenceImpervPct, s.cfg.ReferenceStepSeconds)
	if err != nil {
		return nil, fmt.Errorf("reference flows %s: %w", s.cfg.ReferenceFlowsPath, err)
	}
	return ref, nil
}

// BuildReference runs the full simulation path: generate the rainfall artifact
// when absent, run the simulator, and save its hourly flows as the reference.
func (s *Service) BuildReference(ctx context.Context) error {
	if s.simulator == nil {
		return fmt.Errorf("no simulator configured to build %s: %w", s.cfg.ReferenceFlowsPath, domain.ErrMissingArtifact)
	}
	if err := s.EnsureRainfall(); err != nil {
		return err
	}

	start := domain.Now()
	series, err := s.simulator.Run(ctx, s.cfg.CatchmentModel())
	s.metrics.SimulationDuration.Observe(domain.Since(start).Seconds())
	if err != nil {
		return err
	}
	if series.StepSeconds != s.cfg.ReferenceStepSeconds {
		s.logger.Warn("simulator step differs from configured reference step",
			"simulator_step_seconds", series.StepSeconds,
			"reference_step_seconds", s.cfg.ReferenceStepSeconds,
		)
	}

	if err := flowfile.Save(s.cfg.ReferenceFlowsPath, series.Flows); err != nil {
		return err
	}
	s.logger.Info("reference flows saved", "path", s.cfg.ReferenceFlowsPath, "samples", len(series.Flows))
	return nil
}

// EnsureRainfall generates the rainfall artifact unless it already exists.
func (s *Service) EnsureRainfall() error {
	path := s.cfg.RainfallPath
	if _, err := os.Stat(path); err == nil {
		s.logger.Info("using existing rainfall artifact", "path", path)
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat rainfall artifact: %w", err)
	}

	series, stats, err := domain.GenerateRainfall(s.cfg.RainfallStartYear, s.cfg.RainfallEndYear, s.cfg.RainfallSeed)
	if err != nil {
		return err
	}
	records, err := raindat.WriteFile(path, series, s.cfg.RainfallStation, s.cfg.RainfallStartYear, s.cfg.RainfallEndYear)
	if err != nil {
		return err
	}
	s.metrics.RainfallStorms.Add(float64(stats.StormCount))
	s.logger.Info("rainfall artifact generated",
		"path", path,
		"period", stats.Period,
		"storms", stats.StormCount,
		"wet_hours", stats.WetHours,
		"annual_avg_mm", stats.AnnualAverageMM,
		"records", records,
	)
	return nil
}

// Size scales the reference series to the requested catchment and analyzes
// its capture curve. The 90% capture flow is always included.
func (s *Service) Size(ctx context.Context, req Request) (domain.SizingResult, error) {
	ref := s.reference.Load()
	if ref == nil {
		return domain.SizingResult{}, s.notReadyErr()
	}

	percentages := req.CapturePercentages
	if len(percentages) == 0 {
		percentages = s.cfg.CapturePercentages
	}
	percentages = domain.WithTargetPercent(percentages)

	start := domain.Now()
	curve, err := ref.ScaleAndAnalyze(req.AreaHa, req.ImperviousPct, percentages, s.cfg.WetThreshold)
	elapsed := domain.Since(start)
	s.metrics.SizingDuration.Observe(elapsed.Seconds())
	if err != nil {
		s.metrics.SizingRequests.WithLabelValues(domain.ModeReferenceScaled, outcomeFor(err)).Inc()
		return domain.SizingResult{}, err
	}
	s.metrics.SizingRequests.WithLabelValues(domain.ModeReferenceScaled, "success").Inc()

	q90, _ := curve.FlowAt(domain.TargetCapturePercent)
	result := domain.SizingResult{
		RunID:              uuid.NewString(),
		ComputedAt:         start.UTC(),
		Mode:               domain.ModeReferenceScaled,
		AreaHa:             req.AreaHa,
		ImperviousPct:      req.ImperviousPct,
		QWQ90CMS:           q90,
		QWQ90LPS:           q90 * 1000,
		CaptureCurveResult: curve,
		ProcessSeconds:     elapsed.Seconds(),
	}

	s.logger.Debug("catchment sized",
		"run_id", result.RunID,
		"area_ha", req.AreaHa,
		"imperv_pct", req.ImperviousPct,
		"q_wq_90", domain.FormatFlow(q90),
	)

	s.publish(ctx, result)
	return result, nil
}

// publish never fails the request; delivery problems are logged and counted.
func (s *Service) publish(ctx context.Context, result domain.SizingResult) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, result); err != nil {
		s.metrics.PublishErrors.Inc()
		s.logger.Warn("publish sizing result failed", "run_id", result.RunID, "error", err)
		return
	}
	s.metrics.ResultsPublished.Inc()
}

func outcomeFor(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return "invalid"
	case errors.Is(err, domain.ErrNoWetWeatherData):
		return "no_wet_data"
	default:
		return "error"
	}
}
