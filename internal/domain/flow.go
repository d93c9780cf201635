package domain

import (
	"context"
	"fmt"
	"math"
	"time"
)

// HourSeconds is the sample interval of hourly flow series.
const HourSeconds = 3600

// FlowSeries is an ordered sequence of flow rates (m³/s) sampled every StepSeconds.
type FlowSeries struct {
	Flows       []float64
	StepSeconds float64
}

// CatchmentModel identifies one external simulation run.
type CatchmentModel struct {
	ModelPath    string // solver input file describing the catchment
	RainfallPath string // rainfall artifact referenced by the model
	LinkID       string // conveyance link whose flow is reported
}

// Simulator is an external continuous-simulation engine. Implementations
// return ErrUpstreamFailure when the engine fails or is not installed.
type Simulator interface {
	Run(ctx context.Context, model CatchmentModel) (FlowSeries, error)
}

// FlowSample is one timestamped flow reading from a simulator.
type FlowSample struct {
	Time time.Time
	Flow float64
}

// ResampleHourly keeps the first sample of every clock hour and returns the
// absolute flows as an hourly series. Samples must be in chronological order.
func ResampleHourly(samples []FlowSample) (FlowSeries, error) {
	flows := make([]float64, 0, len(samples)/4+1)
	var last time.Time
	for i, s := range samples {
		hour := s.Time.Truncate(time.Hour)
		if i > 0 {
			if s.Time.Before(samples[i-1].Time) {
				return FlowSeries{}, fmt.Errorf("sample %d at %s precedes previous sample: %w", i, s.Time.Format(time.RFC3339), ErrInvalidInput)
			}
			if hour.Equal(last) {
				continue
			}
		}
		flows = append(flows, math.Abs(s.Flow))
		last = hour
	}
	return FlowSeries{Flows: flows, StepSeconds: HourSeconds}, nil
}
