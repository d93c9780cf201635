package domain

import "errors"

var (
	// ErrInvalidInput marks malformed arguments: bad date ranges, out-of-domain
	// months, non-positive scaling denominators, percentages outside 0–100.
	ErrInvalidInput = errors.New("invalid input")

	// ErrMissingArtifact marks a persisted rainfall or flow file that is absent
	// with no generation path configured to rebuild it.
	ErrMissingArtifact = errors.New("missing artifact")

	// ErrNoWetWeatherData is returned when every sample is at or below the wet
	// threshold. It is a legitimate outcome, distinct from ErrInvalidInput, and
	// must never be reported as a zero Q_wq.
	ErrNoWetWeatherData = errors.New("no wet weather data")

	// ErrUpstreamFailure marks a failed or missing external simulation engine.
	ErrUpstreamFailure = errors.New("upstream failure")

	// ErrNotReady is returned while the reference series is still being prepared.
	ErrNotReady = errors.New("reference flows not ready")
)
