// Command qwq computes Q_wq capture tables from a reference flow series without
// starting the service.
//
// Usage:
//
//	go run ./cmd/qwq -flows calgary_flows_30yr.npy -area 12.5 -imperv 65
//	go run ./cmd/qwq -flows calgary_flows_30yr.npy -json > qwq.json
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/couchcryptid/storm-data-wqflow/internal/adapter/flowfile"
	"github.com/couchcryptid/storm-data-wqflow/internal/domain"
)

// catchment is one row of the scaling table.
type catchment struct {
	AreaHa        float64 `json:"area_ha"`
	ImperviousPct float64 `json:"imperv_pct"`
}

// standardCatchments spans small residential lots to large mixed-use basins.
var standardCatchments = []catchment{
	{AreaHa: 10, ImperviousPct: 40},
	{AreaHa: domain.ReferenceAreaHa, ImperviousPct: domain.ReferenceImperviousPct},
	{AreaHa: 100, ImperviousPct: 70},
	{AreaHa: 200, ImperviousPct: 80},
}

// scaledRow is one entry of the scaling table. Error is set instead of the
// flow when the scaled series has no wet weather.
type scaledRow struct {
	catchment
	QWQ90CMS float64 `json:"q_wq_90_cms,omitempty"`
	Error    string  `json:"error,omitempty"`
}

type report struct {
	Target  catchment                 `json:"target"`
	Curve   domain.CaptureCurveResult `json:"capture_curve"`
	Scaling []scaledRow               `json:"scaling"`
}

func main() {
	flowsPath := flag.String("flows", "calgary_flows_30yr.npy", "reference flow series (.npy or raw float32)")
	area := flag.Float64("area", domain.ReferenceAreaHa, "target catchment area in hectares")
	imperv := flag.Float64("imperv", domain.ReferenceImperviousPct, "target imperviousness in percent")
	refArea := flag.Float64("ref-area", domain.ReferenceAreaHa, "reference catchment area in hectares")
	refImperv := flag.Float64("ref-imperv", domain.ReferenceImperviousPct, "reference imperviousness in percent")
	capture := flag.String("capture", "50,75,80,90,95", "comma-separated capture percentages")
	dt := flag.Float64("dt", domain.HourSeconds, "sample interval of the flow series in seconds")
	threshold := flag.Float64("threshold", domain.DefaultWetThreshold, "wet-weather flow threshold in m³/s")
	asJSON := flag.Bool("json", false, "write the report as JSON")
	flag.Parse()

	percentages, err := domain.ParsePercentages(*capture)
	if err != nil {
		fmt.Fprintf(os.Stderr, "qwq: %v\n", err)
		os.Exit(2)
	}

	flows, err := flowfile.Load(*flowsPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "qwq: %v\n", err)
		os.Exit(1)
	}
	ref, err := domain.NewReferenceFlow(flows, *refArea, *refImperv, *dt)
	if err != nil {
		fmt.Fprintf(os.Stderr, "qwq: %v\n", err)
		os.Exit(1)
	}

	rep, err := buildReport(ref, catchment{AreaHa: *area, ImperviousPct: *imperv}, percentages, *threshold)
	if err != nil {
		fmt.Fprintf(os.Stderr, "qwq: %v\n", err)
		os.Exit(1)
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(rep); err != nil {
			fmt.Fprintf(os.Stderr, "qwq: %v\n", err)
			os.Exit(1)
		}
		return
	}
	printReport(rep, ref.Len())
}

func buildReport(ref *domain.ReferenceFlow, target catchment, percentages []float64, threshold float64) (report, error) {
	curve, err := ref.ScaleAndAnalyze(target.AreaHa, target.ImperviousPct, percentages, threshold)
	if err != nil {
		return report{}, fmt.Errorf("analyze %.1f ha / %.0f%%: %w", target.AreaHa, target.ImperviousPct, err)
	}

	rows := make([]scaledRow, 0, len(standardCatchments))
	for _, c := range standardCatchments {
		row := scaledRow{catchment: c}
		res, err := ref.ScaleAndAnalyze(c.AreaHa, c.ImperviousPct, []float64{domain.TargetCapturePercent}, threshold)
		switch {
		case errors.Is(err, domain.ErrNoWetWeatherData):
			row.Error = err.Error()
		case err != nil:
			return report{}, fmt.Errorf("scale to %.1f ha / %.0f%%: %w", c.AreaHa, c.ImperviousPct, err)
		default:
			row.QWQ90CMS, _ = res.FlowAt(domain.TargetCapturePercent)
		}
		rows = append(rows, row)
	}

	return report{Target: target, Curve: curve, Scaling: rows}, nil
}

func printReport(rep report, samples int) {
	fmt.Println("=== Capture Curve ===")
	fmt.Printf("Catchment:    %.1f ha, %.0f%% impervious\n", rep.Target.AreaHa, rep.Target.ImperviousPct)
	fmt.Printf("Samples:      %d (wet %d, dry %d)\n", samples, rep.Curve.WetPeriods, rep.Curve.DryPeriods)
	fmt.Printf("Total volume: %.1f m³\n", rep.Curve.TotalVolumeM3)
	fmt.Printf("Wet flows:    min %s, max %s, mean %s, median %s\n",
		domain.FormatFlow(rep.Curve.Stats.MinFlowCMS), domain.FormatFlow(rep.Curve.Stats.MaxFlowCMS),
		domain.FormatFlow(rep.Curve.Stats.MeanFlowCMS), domain.FormatFlow(rep.Curve.Stats.MedianFlowCMS))
	fmt.Println()
	for _, p := range rep.Curve.CaptureFlows {
		fmt.Printf("  Q_wq %5.1f%%  %s\n", p.Percent, domain.FormatFlow(p.FlowCMS))
	}

	fmt.Println("\n=== Scaling (Q_wq 90%) ===")
	for _, r := range rep.Scaling {
		if r.Error != "" {
			fmt.Printf("  %6.1f ha  %3.0f%%  %s\n", r.AreaHa, r.ImperviousPct, r.Error)
			continue
		}
		fmt.Printf("  %6.1f ha  %3.0f%%  %s\n", r.AreaHa, r.ImperviousPct, domain.FormatFlow(r.QWQ90CMS))
	}
}
