package domain

import (
	"fmt"
	"math"
	"math/rand/v2"
	"slices"
	"time"

	"gonum.org/v1/gonum/stat/distuv"
)

const (
	// TraceDepthMM is the smallest storm depth worth synthesizing.
	TraceDepthMM = 0.1

	// WetHourDepthMM is the hourly depth above which an hour counts as wet and
	// is written to the rainfall artifact.
	WetHourDepthMM = 0.001

	minYear = 1
	maxYear = 9999
)

// HourlyRainfallSeries holds hourly depths (mm) covering [Start, Start+len(Values) h).
// Overlapping storms add into the same hour.
type HourlyRainfallSeries struct {
	Start  time.Time
	Values []float64
}

// Time returns the timestamp of hour index i.
func (s HourlyRainfallSeries) Time(i int) time.Time {
	return s.Start.Add(time.Duration(i) * time.Hour)
}

// RainfallStats summarizes one generation run.
type RainfallStats struct {
	Period           string  `json:"period"`
	TotalYears       int     `json:"total_years"`
	TotalHours       int     `json:"total_hours"`
	TotalDepthMM     float64 `json:"total_precip_mm"` // sum of storm target depths
	AnnualAverageMM  float64 `json:"annual_avg_mm"`
	StormCount       int     `json:"storm_count"`
	WetHours         int     `json:"wet_hours"`
	WetPercent       float64 `json:"wet_percent"`
	MaxIntensityMMHr float64 `json:"max_intensity_mmhr"`
}

// NewSource returns the seeded random source used for rainfall generation.
func NewSource(seed int64) rand.Source {
	return rand.NewPCG(uint64(seed), uint64(seed))
}

// GenerateRainfall generates an hourly series from startYear-01-01 up to the end
// of endYear using the Calgary storm model. See [StormModel.Generate].
func GenerateRainfall(startYear, endYear int, seed int64) (HourlyRainfallSeries, RainfallStats, error) {
	return CalgaryStormModel().Generate(startYear, endYear, seed)
}

// Generate synthesizes hourly rainfall month by month. Each month it scales the
// normal depth by a year-to-year factor N(1, 0.15) clamped to [0.5, 1.5], draws
// max(1, Poisson(0.7·wet days)) storms, splits the depth with normalized
// exponential weights, places storms on distinct days, and adds every storm of at
// least TraceDepthMM into the hourly grid. Storm hours outside the series are dropped.
func (m StormModel) Generate(startYear, endYear int, seed int64) (HourlyRainfallSeries, RainfallStats, error) {
	if startYear > endYear {
		return HourlyRainfallSeries{}, RainfallStats{}, fmt.Errorf("start year %d after end year %d: %w", startYear, endYear, ErrInvalidInput)
	}
	if startYear < minYear || endYear > maxYear {
		return HourlyRainfallSeries{}, RainfallStats{}, fmt.Errorf("years %d-%d outside %d-%d: %w", startYear, endYear, minYear, maxYear, ErrInvalidInput)
	}

	src := NewSource(seed)
	rng := rand.New(src)

	start := time.Date(startYear, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(endYear+1, time.January, 1, 0, 0, 0, 0, time.UTC)
	totalHours := int(end.Sub(start) / time.Hour)
	rainfall := make([]float64, totalHours)

	variability := distuv.Normal{Mu: 1, Sigma: 0.15, Src: src}
	weights := distuv.Exponential{Rate: 1, Src: src}

	var totalDepth float64
	var stormCount int

	for current := start; current.Before(end); current = current.AddDate(0, 1, 0) {
		month := current.Month()

		normal, err := m.Normal(month)
		if err != nil {
			return HourlyRainfallSeries{}, RainfallStats{}, err
		}
		season, err := SeasonFor(month)
		if err != nil {
			return HourlyRainfallSeries{}, RainfallStats{}, err
		}

		factor := math.Max(0.5, math.Min(1.5, variability.Rand()))
		monthlyDepth := normal.MeanDepthMM * factor

		nStorms := int(distuv.Poisson{Lambda: float64(normal.WetDayCount) * 0.7, Src: src}.Rand())
		if nStorms < 1 {
			nStorms = 1
		}

		depths := make([]float64, nStorms)
		var weightSum float64
		for i := range depths {
			depths[i] = weights.Rand()
			weightSum += depths[i]
		}
		for i := range depths {
			depths[i] = monthlyDepth * depths[i] / weightSum
		}

		daysInMonth := time.Date(current.Year(), month+1, 0, 0, 0, 0, 0, time.UTC).Day()
		days := rng.Perm(daysInMonth)[:min(nStorms, daysInMonth)]
		slices.Sort(days)

		for i, day := range days {
			depth := depths[i]
			if depth < TraceDepthMM {
				continue
			}

			startHour := stormStartHour(season, rng)

			storm, err := m.SynthesizeStorm(month, depth, src)
			if err != nil {
				return HourlyRainfallSeries{}, RainfallStats{}, err
			}

			stormStart := time.Date(current.Year(), month, day+1, startHour, 0, 0, 0, time.UTC)
			addStorm(rainfall, int(stormStart.Sub(start)/time.Hour), storm)

			totalDepth += depth
			stormCount++
		}
	}

	series := HourlyRainfallSeries{Start: start, Values: rainfall}
	return series, summarizeRainfall(series, startYear, endYear, totalDepth, stormCount), nil
}

// stormStartHour draws the onset hour of a storm: triangular 12–22 h with mode
// 16 h in summer, uniform over the day otherwise.
func stormStartHour(season Season, rng *rand.Rand) int {
	if season == Summer {
		return int(distuv.NewTriangle(12, 22, 16, rng).Rand())
	}
	return rng.IntN(24)
}

// addStorm adds storm into grid starting at hour offset. Hours that fall
// outside the grid are dropped.
func addStorm(grid []float64, offset int, storm []float64) {
	for j, intensity := range storm {
		idx := offset + j
		if idx >= 0 && idx < len(grid) {
			grid[idx] += intensity
		}
	}
}

func summarizeRainfall(series HourlyRainfallSeries, startYear, endYear int, totalDepth float64, stormCount int) RainfallStats {
	years := endYear - startYear + 1
	stats := RainfallStats{
		Period:          fmt.Sprintf("%d-%d", startYear, endYear),
		TotalYears:      years,
		TotalHours:      len(series.Values),
		TotalDepthMM:    totalDepth,
		AnnualAverageMM: totalDepth / float64(years),
		StormCount:      stormCount,
	}
	for _, v := range series.Values {
		if v > WetHourDepthMM {
			stats.WetHours++
		}
		stats.MaxIntensityMMHr = math.Max(stats.MaxIntensityMMHr, v)
	}
	if stats.TotalHours > 0 {
		stats.WetPercent = float64(stats.WetHours) / float64(stats.TotalHours) * 100
	}
	return stats
}
