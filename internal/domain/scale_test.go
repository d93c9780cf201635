package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReferenceFlow_ScaleDoublesForDoubleArea(t *testing.T) {
	flows := []float64{0, 0.0003, 0.012, 1.75, 0.00005}
	ref, err := NewReferenceFlow(flows, ReferenceAreaHa, ReferenceImperviousPct, HourSeconds)
	require.NoError(t, err)

	scaled, err := ref.Scale(132, 55)
	require.NoError(t, err)
	require.Len(t, scaled, len(flows))
	for i := range flows {
		assert.Equal(t, flows[i]*2.0, scaled[i])
	}
}

func TestReferenceFlow_ScaleFactors(t *testing.T) {
	ref, err := NewReferenceFlow([]float64{1.1}, 66, 55, HourSeconds)
	require.NoError(t, err)

	tests := []struct {
		name   string
		area   float64
		imperv float64
		want   float64
	}{
		{"reference catchment", 66, 55, 1.1},
		{"half area", 33, 55, 0.55},
		{"half imperviousness", 66, 27.5, 0.55},
		{"large commercial", 100, 70, 1.1 * 100 / 66 * 70 / 55},
		{"fully pervious", 66, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scaled, err := ref.Scale(tt.area, tt.imperv)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, scaled[0], 1e-12)
		})
	}
}

func TestReferenceFlow_DoesNotAliasInput(t *testing.T) {
	flows := []float64{1, 2}
	ref, err := NewReferenceFlow(flows, 66, 55, HourSeconds)
	require.NoError(t, err)

	flows[0] = 100
	scaled, err := ref.Scale(66, 55)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2}, scaled)
	assert.Equal(t, 2, ref.Len())
}

func TestNewReferenceFlow_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		flows  []float64
		area   float64
		imperv float64
		step   float64
	}{
		{"empty series", nil, 66, 55, HourSeconds},
		{"zero area", []float64{1}, 0, 55, HourSeconds},
		{"negative area", []float64{1}, -66, 55, HourSeconds},
		{"zero imperviousness", []float64{1}, 66, 0, HourSeconds},
		{"zero step", []float64{1}, 66, 55, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewReferenceFlow(tt.flows, tt.area, tt.imperv, tt.step)
			require.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestReferenceFlow_ScaleInvalidTarget(t *testing.T) {
	ref, err := NewReferenceFlow([]float64{1}, 66, 55, HourSeconds)
	require.NoError(t, err)

	_, err = ref.Scale(0, 55)
	require.ErrorIs(t, err, ErrInvalidInput)
	_, err = ref.Scale(10, 101)
	require.ErrorIs(t, err, ErrInvalidInput)
	_, err = ref.Scale(10, -1)
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestScaleAndAnalyze(t *testing.T) {
	reference := []float64{0, 0.0005, 0.0005, 0.0005, 0.0005}

	result, err := ScaleAndAnalyze(reference, 66, 55, 132, 55, []float64{25, 90}, DefaultWetThreshold)
	require.NoError(t, err)
	assert.Equal(t, 4, result.WetPeriods)
	assert.InDelta(t, 14.4, result.TotalVolumeM3, 1e-9)

	q90, ok := result.FlowAt(90)
	require.True(t, ok)
	assert.Equal(t, 0.001, q90)
}

func TestScaleAndAnalyze_PerviousTargetHasNoWetWeather(t *testing.T) {
	_, err := ScaleAndAnalyze([]float64{0.5, 0.2}, 66, 55, 66, 0, []float64{90}, DefaultWetThreshold)
	require.ErrorIs(t, err, ErrNoWetWeatherData)
}

func TestScaleAndAnalyze_InvalidReference(t *testing.T) {
	_, err := ScaleAndAnalyze(nil, 66, 55, 66, 55, []float64{90}, DefaultWetThreshold)
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = ScaleAndAnalyze([]float64{1}, 66, 0, 66, 55, []float64{90}, DefaultWetThreshold)
	require.ErrorIs(t, err, ErrInvalidInput)
}
