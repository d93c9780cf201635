package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/joho/godotenv"

	"github.com/couchcryptid/storm-data-wqflow/internal/domain"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Reference catchment and its precomputed flow series.
	ReferenceFlowsPath   string
	ReferenceAreaHa      float64
	ReferenceImpervPct   float64
	ReferenceStepSeconds float64

	WetThreshold       float64
	CapturePercentages []float64

	// Synthetic rainfall artifact.
	RainfallPath      string
	RainfallStartYear int
	RainfallEndYear   int
	RainfallSeed      int64
	RainfallStation   string

	// External simulation engine. Empty SimulatorCommand disables the full path.
	SimulatorCommand   string
	SimulatorModelPath string
	SimulatorLinkID    string
	SimulatorTimeout   time.Duration

	ResultCacheSize int

	// Result publishing. Empty KafkaBrokers disables it.
	KafkaBrokers      []string
	KafkaResultsTopic string
}

// SimulatorEnabled reports whether the full simulation path is configured.
func (c *Config) SimulatorEnabled() bool { return c.SimulatorCommand != "" }

// PublishEnabled reports whether sizing results are written to Kafka.
func (c *Config) PublishEnabled() bool { return len(c.KafkaBrokers) > 0 }

// CatchmentModel returns the simulation run described by the configuration.
func (c *Config) CatchmentModel() domain.CatchmentModel {
	return domain.CatchmentModel{
		ModelPath:    c.SimulatorModelPath,
		RainfallPath: c.RainfallPath,
		LinkID:       c.SimulatorLinkID,
	}
}

// Load reads configuration from environment variables, applying defaults where
// unset. A .env file in the working directory is loaded first when present;
// variables already set in the environment take precedence.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTPAddr:           sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:           sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:          sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:    shutdownTimeout,
		ReferenceFlowsPath: sharedcfg.EnvOrDefault("REFERENCE_FLOWS_PATH", "calgary_flows_30yr.npy"),
		RainfallPath:       sharedcfg.EnvOrDefault("RAINFALL_PATH", "calgary_rainfall.dat"),
		RainfallStation:    sharedcfg.EnvOrDefault("RAINFALL_STATION", "CALGARY_SYN"),
		SimulatorCommand:   os.Getenv("SIMULATOR_COMMAND"),
		SimulatorModelPath: sharedcfg.EnvOrDefault("SIMULATOR_MODEL_PATH", "calgary_model.inp"),
		SimulatorLinkID:    sharedcfg.EnvOrDefault("SIMULATOR_LINK_ID", "Link_1"),
		KafkaResultsTopic:  sharedcfg.EnvOrDefault("KAFKA_RESULTS_TOPIC", "wqflow-sizing-results"),
	}
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = sharedcfg.ParseBrokers(brokers)
	}

	if cfg.ReferenceAreaHa, err = parsePositiveFloat("REFERENCE_AREA_HA", domain.ReferenceAreaHa); err != nil {
		return nil, err
	}
	if cfg.ReferenceImpervPct, err = parsePositiveFloat("REFERENCE_IMPERV_PCT", domain.ReferenceImperviousPct); err != nil {
		return nil, err
	}
	if cfg.ReferenceImpervPct > 100 {
		return nil, errors.New("REFERENCE_IMPERV_PCT must be at most 100")
	}
	if cfg.ReferenceStepSeconds, err = parsePositiveFloat("REFERENCE_STEP_SECONDS", domain.HourSeconds); err != nil {
		return nil, err
	}
	if cfg.WetThreshold, err = parsePositiveFloat("WET_THRESHOLD_CMS", domain.DefaultWetThreshold); err != nil {
		return nil, err
	}
	if cfg.CapturePercentages, err = domain.ParsePercentages(sharedcfg.EnvOrDefault("CAPTURE_PERCENTAGES", "50,75,80,90,95")); err != nil {
		return nil, fmt.Errorf("invalid CAPTURE_PERCENTAGES: %w", err)
	}

	if cfg.RainfallStartYear, err = parseInt("RAINFALL_START_YEAR", 1991); err != nil {
		return nil, err
	}
	if cfg.RainfallEndYear, err = parseInt("RAINFALL_END_YEAR", 2020); err != nil {
		return nil, err
	}
	if cfg.RainfallStartYear > cfg.RainfallEndYear {
		return nil, errors.New("RAINFALL_START_YEAR must not be after RAINFALL_END_YEAR")
	}
	seed, err := parseInt("RAINFALL_SEED", 42)
	if err != nil {
		return nil, err
	}
	cfg.RainfallSeed = int64(seed)

	simTimeout, err := time.ParseDuration(sharedcfg.EnvOrDefault("SIMULATOR_TIMEOUT", "30m"))
	if err != nil || simTimeout <= 0 {
		return nil, errors.New("invalid SIMULATOR_TIMEOUT")
	}
	cfg.SimulatorTimeout = simTimeout

	if cfg.ResultCacheSize, err = parseInt("RESULT_CACHE_SIZE", 256); err != nil {
		return nil, err
	}
	if cfg.ResultCacheSize < 0 {
		return nil, errors.New("RESULT_CACHE_SIZE must not be negative")
	}

	if cfg.PublishEnabled() && cfg.KafkaResultsTopic == "" {
		return nil, errors.New("KAFKA_RESULTS_TOPIC is required when KAFKA_BROKERS is set")
	}

	return cfg, nil
}

func parsePositiveFloat(key string, def float64) (float64, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("invalid %s: must be a positive number", key)
	}
	return v, nil
}

func parseInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: must be an integer", key)
	}
	return v, nil
}
