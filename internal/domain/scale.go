package domain

import (
	"fmt"
	"math"
)

// Reference catchment the stored flow series was simulated for.
const (
	ReferenceAreaHa        = 66.0
	ReferenceImperviousPct = 55.0
)

// ReferenceFlow is an immutable, previously simulated flow series for a known
// catchment. Build it once at startup and share the pointer; nothing mutates it.
type ReferenceFlow struct {
	flows         []float64
	areaHa        float64
	imperviousPct float64
	stepSeconds   float64
}

// NewReferenceFlow copies flows into a ReferenceFlow for a catchment of areaHa
// hectares and imperviousPct percent impervious.
func NewReferenceFlow(flows []float64, areaHa, imperviousPct, stepSeconds float64) (*ReferenceFlow, error) {
	if len(flows) == 0 {
		return nil, fmt.Errorf("reference flow series is empty: %w", ErrInvalidInput)
	}
	if !(areaHa > 0) {
		return nil, fmt.Errorf("reference area %v ha must be positive: %w", areaHa, ErrInvalidInput)
	}
	if !(imperviousPct > 0) {
		return nil, fmt.Errorf("reference imperviousness %v%% must be positive: %w", imperviousPct, ErrInvalidInput)
	}
	if !(stepSeconds > 0) {
		return nil, fmt.Errorf("reference step %v s must be positive: %w", stepSeconds, ErrInvalidInput)
	}
	return &ReferenceFlow{
		flows:         append([]float64(nil), flows...),
		areaHa:        areaHa,
		imperviousPct: imperviousPct,
		stepSeconds:   stepSeconds,
	}, nil
}

func (r *ReferenceFlow) Len() int               { return len(r.flows) }
func (r *ReferenceFlow) AreaHa() float64        { return r.areaHa }
func (r *ReferenceFlow) ImperviousPct() float64 { return r.imperviousPct }
func (r *ReferenceFlow) StepSeconds() float64   { return r.stepSeconds }

// Scale returns the reference flows multiplied by
// (targetArea/referenceArea)·(targetImperv/referenceImperv).
//
// This linear law is an approximation. It ignores changes in travel time and
// peak attenuation, so results degrade for catchments whose size, slope, or
// drainage layout differ materially from the reference catchment.
func (r *ReferenceFlow) Scale(targetAreaHa, targetImperviousPct float64) ([]float64, error) {
	if !(targetAreaHa > 0) || math.IsInf(targetAreaHa, 0) {
		return nil, fmt.Errorf("target area %v ha must be positive: %w", targetAreaHa, ErrInvalidInput)
	}
	if !(targetImperviousPct >= 0 && targetImperviousPct <= 100) {
		return nil, fmt.Errorf("target imperviousness %v%% outside 0-100: %w", targetImperviousPct, ErrInvalidInput)
	}

	areaFactor := targetAreaHa / r.areaHa
	impervFactor := targetImperviousPct / r.imperviousPct

	scaled := make([]float64, len(r.flows))
	for i, f := range r.flows {
		scaled[i] = f * areaFactor * impervFactor
	}
	return scaled, nil
}

// ScaleAndAnalyze scales the reference to the target catchment and runs the
// capture-curve analysis on the result.
func (r *ReferenceFlow) ScaleAndAnalyze(targetAreaHa, targetImperviousPct float64, percentages []float64, wetThreshold float64) (CaptureCurveResult, error) {
	scaled, err := r.Scale(targetAreaHa, targetImperviousPct)
	if err != nil {
		return CaptureCurveResult{}, err
	}
	return AnalyzeCaptureCurve(scaled, r.stepSeconds, percentages, wetThreshold)
}

// ScaleAndAnalyze is the one-shot form of [ReferenceFlow.ScaleAndAnalyze] for an
// hourly reference series.
func ScaleAndAnalyze(reference []float64, referenceAreaHa, referenceImperviousPct, targetAreaHa, targetImperviousPct float64, percentages []float64, wetThreshold float64) (CaptureCurveResult, error) {
	ref, err := NewReferenceFlow(reference, referenceAreaHa, referenceImperviousPct, HourSeconds)
	if err != nil {
		return CaptureCurveResult{}, err
	}
	return ref.ScaleAndAnalyze(targetAreaHa, targetImperviousPct, percentages, wetThreshold)
}
