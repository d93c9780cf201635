package domain

import (
	"fmt"
	"time"
)

// ModeReferenceScaled marks results scaled from the reference flow series.
const ModeReferenceScaled = "reference-scaled"

// TargetCapturePercent is the capture rate devices are sized to.
const TargetCapturePercent = 90.0

// SizingResult is the answer returned to callers for one catchment.
type SizingResult struct {
	RunID         string    `json:"run_id"`
	ComputedAt    time.Time `json:"computed_at"`
	Mode          string    `json:"mode"`
	AreaHa        float64   `json:"area_ha"`
	ImperviousPct float64   `json:"imperv_pct"`

	QWQ90CMS float64 `json:"q_wq_90_cms"`
	QWQ90LPS float64 `json:"q_wq_90_lps"`

	CaptureCurveResult

	ProcessSeconds float64 `json:"process_seconds"`
}

// WithTargetPercent returns percentages with TargetCapturePercent appended
// when it is not already requested.
func WithTargetPercent(percentages []float64) []float64 {
	for _, p := range percentages {
		if p == TargetCapturePercent {
			return percentages
		}
	}
	out := make([]float64, 0, len(percentages)+1)
	out = append(out, percentages...)
	return append(out, TargetCapturePercent)
}

// FormatFlow renders a flow in m³/s with a unit suited to its magnitude.
func FormatFlow(cms float64) string {
	switch {
	case cms < 0.001:
		return fmt.Sprintf("%.4f L/s", cms*1000)
	case cms < 1:
		return fmt.Sprintf("%.6f CMS (%.2f L/s)", cms, cms*1000)
	default:
		return fmt.Sprintf("%.4f CMS", cms)
	}
}
