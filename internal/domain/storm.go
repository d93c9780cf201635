package domain

import (
	"math"
	"math/rand/v2"
	"time"

	"gonum.org/v1/gonum/stat/distuv"
)

// SynthesizeStorm draws one storm for month using the Calgary storm model.
// See [StormModel.SynthesizeStorm].
func SynthesizeStorm(month time.Month, targetDepthMM float64, src rand.Source) ([]float64, error) {
	return CalgaryStormModel().SynthesizeStorm(month, targetDepthMM, src)
}

// SynthesizeStorm returns the hourly intensities (mm/h) of one storm whose total
// depth equals targetDepthMM. Draws from src happen in a fixed order: duration,
// peak position, then one gamma noise sample per hour.
//
// The envelope rises as (pos/peak)^0.5 to the peak and decays as
// exp(-2·(pos-peak)) after it. If every noise sample collapses to zero the storm
// deposits nothing and an all-zero profile is returned.
func (m StormModel) SynthesizeStorm(month time.Month, targetDepthMM float64, src rand.Source) ([]float64, error) {
	_, params, err := m.ParametersFor(month)
	if err != nil {
		return nil, err
	}

	duration := int(distuv.Normal{Mu: params.DurationMeanHours, Sigma: params.DurationStdHours, Src: src}.Rand())
	if duration < 1 {
		duration = 1
	}

	peak := distuv.Uniform{Min: 0.2, Max: 0.5, Src: src}.Rand()
	noise := distuv.Gamma{Alpha: params.IntensityShape, Beta: 1, Src: src}

	intensities := make([]float64, duration)
	var total float64
	for i := range intensities {
		pos := float64(i) / float64(duration)

		var envelope float64
		if pos < peak {
			envelope = math.Sqrt(pos / peak)
		} else {
			envelope = math.Exp(-2 * (pos - peak))
		}

		intensity := envelope * noise.Rand() * params.MaxIntensityMMPerHour / 3
		intensity = math.Max(0, intensity)
		intensities[i] = intensity
		total += intensity
	}

	if total > 0 {
		scale := targetDepthMM / total
		for i := range intensities {
			intensities[i] *= scale
		}
	}
	return intensities, nil
}
