package domain

import (
	"fmt"
	"math"
	"slices"
	"sort"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// DefaultWetThreshold is the flow (m³/s) at or below which a sample is dry.
const DefaultWetThreshold = 0.0001

// DefaultCapturePercentages are the capture rates reported when none are requested.
var DefaultCapturePercentages = []float64{50, 75, 80, 90, 95}

// CapturePoint is Q_wq at one capture percentage.
type CapturePoint struct {
	Percent float64 `json:"percent"`
	FlowCMS float64 `json:"flow_cms"`
}

// FlowStats summarizes the wet-period flows.
type FlowStats struct {
	MinFlowCMS    float64 `json:"min_flow_cms"`
	MaxFlowCMS    float64 `json:"max_flow_cms"`
	MeanFlowCMS   float64 `json:"mean_flow_cms"`
	MedianFlowCMS float64 `json:"median_flow_cms"`
}

// CaptureCurveResult is the outcome of one capture-curve analysis.
// CaptureFlows follows the order of the requested percentages, duplicates included.
type CaptureCurveResult struct {
	TotalVolumeM3 float64        `json:"total_volume_m3"`
	WetPeriods    int            `json:"wet_periods"`
	DryPeriods    int            `json:"dry_periods"`
	CaptureFlows  []CapturePoint `json:"capture_flows"`
	Stats         FlowStats      `json:"stats"`
}

// FlowAt returns Q_wq for a percentage present in the result.
func (r CaptureCurveResult) FlowAt(percent float64) (float64, bool) {
	for _, p := range r.CaptureFlows {
		if p.Percent == percent {
			return p.FlowCMS, true
		}
	}
	return 0, false
}

// AnalyzeCaptureCurve builds the volume capture curve of flows sampled every
// dtSeconds and reads Q_wq at each capture percentage. Samples above
// wetThreshold are wet; dry samples are only counted. Returned flows are always
// observed wet flows. Returns ErrNoWetWeatherData when no sample is wet.
func AnalyzeCaptureCurve(flows []float64, dtSeconds float64, percentages []float64, wetThreshold float64) (CaptureCurveResult, error) {
	if !(dtSeconds > 0) || math.IsInf(dtSeconds, 0) {
		return CaptureCurveResult{}, fmt.Errorf("time step %v must be positive: %w", dtSeconds, ErrInvalidInput)
	}
	if !(wetThreshold >= 0) || math.IsInf(wetThreshold, 0) {
		return CaptureCurveResult{}, fmt.Errorf("wet threshold %v must be non-negative: %w", wetThreshold, ErrInvalidInput)
	}
	if err := ValidatePercentages(percentages); err != nil {
		return CaptureCurveResult{}, err
	}

	wet := make([]float64, 0, len(flows))
	for i, f := range flows {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return CaptureCurveResult{}, fmt.Errorf("flow sample %d is %v: %w", i, f, ErrInvalidInput)
		}
		if f > wetThreshold {
			wet = append(wet, f)
		}
	}
	if len(wet) == 0 {
		return CaptureCurveResult{}, fmt.Errorf("%d samples at or below %g m³/s: %w", len(flows), wetThreshold, ErrNoWetWeatherData)
	}

	slices.Sort(wet)

	volumes := make([]float64, len(wet))
	for i, f := range wet {
		volumes[i] = f * dtSeconds
	}
	cumulative := floats.CumSum(make([]float64, len(volumes)), volumes)
	total := cumulative[len(cumulative)-1]
	if math.IsInf(total, 0) {
		return CaptureCurveResult{}, fmt.Errorf("total wet volume overflows float64 at step %v s: %w", dtSeconds, ErrInvalidInput)
	}
	mean := stat.Mean(wet, nil)
	if math.IsInf(mean, 0) {
		return CaptureCurveResult{}, fmt.Errorf("mean wet flow overflows float64: %w", ErrInvalidInput)
	}

	cumulativePct := make([]float64, len(cumulative))
	for i, v := range cumulative {
		cumulativePct[i] = v / total * 100
	}

	points := make([]CapturePoint, len(percentages))
	for i, p := range percentages {
		idx := sort.SearchFloat64s(cumulativePct, p)
		if idx >= len(wet) {
			idx = len(wet) - 1
		}
		points[i] = CapturePoint{Percent: p, FlowCMS: wet[idx]}
	}

	return CaptureCurveResult{
		TotalVolumeM3: total,
		WetPeriods:    len(wet),
		DryPeriods:    len(flows) - len(wet),
		CaptureFlows:  points,
		Stats: FlowStats{
			MinFlowCMS:    wet[0],
			MaxFlowCMS:    wet[len(wet)-1],
			MeanFlowCMS:   mean,
			MedianFlowCMS: sortedMedian(wet),
		},
	}, nil
}

// ValidatePercentages checks that every capture percentage lies in [0, 100].
func ValidatePercentages(percentages []float64) error {
	for _, p := range percentages {
		if !(p >= 0 && p <= 100) {
			return fmt.Errorf("capture percentage %v outside 0-100: %w", p, ErrInvalidInput)
		}
	}
	return nil
}

// ParsePercentages parses a comma-separated list of capture percentages such
// as "50, 90,99.9". Blank entries are skipped. At least one percentage is
// required and each must pass [ValidatePercentages].
func ParsePercentages(s string) ([]float64, error) {
	var out []float64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		v, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return nil, fmt.Errorf("capture percentage %q is not a number: %w", part, ErrInvalidInput)
		}
		out = append(out, v)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no capture percentages given: %w", ErrInvalidInput)
	}
	if err := ValidatePercentages(out); err != nil {
		return nil, err
	}
	return out, nil
}

// sortedMedian returns the median of an ascending slice, averaging the two
// middle values for even lengths.
func sortedMedian(sorted []float64) float64 {
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
