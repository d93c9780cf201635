package domain

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSynthesizeStorm_RescalesToTargetDepth(t *testing.T) {
	months := []time.Month{time.January, time.April, time.July, time.September}
	src := NewSource(7)

	var positive int
	for _, month := range months {
		for i := 0; i < 200; i++ {
			target := 0.1 + float64(i)*0.25
			storm, err := SynthesizeStorm(month, target, src)
			require.NoError(t, err)
			require.NotEmpty(t, storm)

			var sum float64
			for _, v := range storm {
				assert.GreaterOrEqual(t, v, 0.0)
				sum += v
			}
			if sum == 0 {
				continue
			}
			positive++
			assert.InEpsilon(t, target, sum, 1e-6, "month %s draw %d", month, i)
		}
	}
	assert.Positive(t, positive)
}

func TestSynthesizeStorm_Deterministic(t *testing.T) {
	a, err := SynthesizeStorm(time.May, 12.5, NewSource(42))
	require.NoError(t, err)
	b, err := SynthesizeStorm(time.May, 12.5, NewSource(42))
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestSynthesizeStorm_SingleHourDepositsNothing(t *testing.T) {
	// A one-hour storm sits entirely before its peak at pos=0, where the
	// envelope is zero, so the profile must stay all-zero instead of dividing by zero.
	m := CalgaryStormModel()
	m.Seasons[Winter] = SeasonParameters{DurationMeanHours: 1, DurationStdHours: 0, MaxIntensityMMPerHour: 5, IntensityShape: 1.5}

	storm, err := m.SynthesizeStorm(time.January, 5, NewSource(1))
	require.NoError(t, err)
	assert.Equal(t, []float64{0}, storm)
}

func TestSynthesizeStorm_MinimumDuration(t *testing.T) {
	m := CalgaryStormModel()
	m.Seasons[Summer] = SeasonParameters{DurationMeanHours: -5, DurationStdHours: 0, MaxIntensityMMPerHour: 40, IntensityShape: 0.8}

	storm, err := m.SynthesizeStorm(time.July, 3, NewSource(3))
	require.NoError(t, err)
	assert.Len(t, storm, 1)
}

func TestSynthesizeStorm_DurationDrawnFirst(t *testing.T) {
	// With zero spread the duration draw is fixed, so the profile length
	// pins down the season regardless of the source state.
	m := CalgaryStormModel()
	m.Seasons[Fall] = SeasonParameters{DurationMeanHours: 6, DurationStdHours: 0, MaxIntensityMMPerHour: 10, IntensityShape: 1.3}

	storm, err := m.SynthesizeStorm(time.October, 8, rand.NewPCG(9, 9))
	require.NoError(t, err)
	assert.Len(t, storm, 6)
	assert.Zero(t, storm[0], "first hour sits at the envelope origin")
}

func TestSynthesizeStorm_InvalidMonth(t *testing.T) {
	_, err := SynthesizeStorm(0, 5, NewSource(1))
	require.ErrorIs(t, err, ErrInvalidInput)
}
