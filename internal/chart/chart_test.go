package chart

import (
	"bytes"
	"context"
	"image/png"
	"math"
	"testing"

	"github.com/claude/runplan/internal/progression"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustModel(t *testing.T, kind string, target, starting, a, b float64) progression.Model {
	t.Helper()
	m, err := progression.New(kind, target, starting, a, b)
	require.NoError(t, err)
	return m
}

func TestLinspace(t *testing.T) {
	assert.Equal(t, []float64{0, 0.5, 1, 1.5, 2}, Linspace(0, 2, 5))
	assert.Equal(t, []float64{3}, Linspace(3, 9, 1))
	assert.Nil(t, Linspace(0, 1, 0))

	ws := Linspace(0, 19, 100)
	require.Len(t, ws, 100)
	assert.Equal(t, 19.0, ws[99])
}

func TestSampleDense(t *testing.T) {
	m := mustModel(t, "exponential", 50, 10, 0.8, 4)
	s, err := Sample(m, 20, 100)
	require.NoError(t, err)

	require.Len(t, s.Weeks, 100)
	require.Len(t, s.Mileages, 100)
	require.Len(t, s.Rates, 100)
	assert.Equal(t, 10.0, s.Mileages[0])
	for i := 1; i < len(s.Mileages); i++ {
		assert.Greater(t, s.Mileages[i], s.Mileages[i-1])
		assert.Less(t, s.Rates[i], s.Rates[i-1])
	}
}

func TestSampleRejectsNonPositiveWeeks(t *testing.T) {
	m := mustModel(t, "linear", 50, 10, 2, 1)
	_, err := Sample(m, 0, 10)
	require.Error(t, err)
	_, err = Weekly(m, -3, true)
	require.Error(t, err)
}

func TestWeeklyLinear(t *testing.T) {
	m := mustModel(t, "linear", 50, 10, 2, 1)
	s, err := Weekly(m, 25, false)
	require.NoError(t, err)
	assert.Nil(t, s.Rates)
	assert.Equal(t, 12.0, s.Mileages[1])
	assert.Equal(t, 50.0, s.Mileages[24])
	assert.Equal(t, progression.KindLinear, s.Kind)
}

func TestSampleAll(t *testing.T) {
	models := []progression.Model{
		mustModel(t, "exponential", 50, 10, 0.8, 4),
		mustModel(t, "linear", 50, 10, 2, 1),
	}
	series, err := SampleAll(context.Background(), models, 10, 10)
	require.NoError(t, err)
	require.Len(t, series, 2)
	assert.Equal(t, progression.KindExponential, series[0].Kind)
	assert.Equal(t, progression.KindLinear, series[1].Kind)
	assert.Equal(t, 28.0, series[1].Mileages[9])
}

func TestSampleAllCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := SampleAll(ctx, []progression.Model{mustModel(t, "linear", 50, 10, 2, 1)}, 10, 10)
	require.ErrorIs(t, err, context.Canceled)
}

func TestMilestonesExponential(t *testing.T) {
	m := mustModel(t, "exponential", 50, 10, 0.8, 4)
	ms := Milestones(m, 20)

	// 90% needs 4*ln(0.1)/ln(0.8) ≈ 41.3 weeks, beyond the window
	require.Len(t, ms, 3)
	for _, x := range ms {
		res := m.Week(x.Mileage)
		require.True(t, res.Found())
		assert.InDelta(t, res.Week, x.Week, 1e-12)
		assert.Less(t, x.Week, 20.0)
	}
	assert.InDelta(t, 4*math.Log(0.75)/math.Log(0.8), ms[0].Week, 1e-9)
}

func TestMilestonesLinear(t *testing.T) {
	m := mustModel(t, "linear", 50, 10, 2, 1)
	ms := Milestones(m, 20)
	require.Len(t, ms, 4)
	assert.Equal(t, []float64{5, 10, 15, 18}, []float64{ms[0].Week, ms[1].Week, ms[2].Week, ms[3].Week})

	flat := mustModel(t, "linear", 50, 50, 2, 1)
	assert.Empty(t, Milestones(flat, 20))
}

func TestRenderProgressionPNG(t *testing.T) {
	for _, m := range []progression.Model{
		mustModel(t, "exponential", 50, 10, 0.8, 4),
		mustModel(t, "linear", 50, 10, 2, 1),
		mustModel(t, "linear", 50, 50, 2, 1),
	} {
		var buf bytes.Buffer
		require.NoError(t, RenderProgression(&buf, m, Options{Width: 640, Height: 480, Weeks: 20}))

		img, err := png.Decode(&buf)
		require.NoError(t, err)
		assert.Equal(t, 640, img.Bounds().Dx())
		assert.Equal(t, 480, img.Bounds().Dy())
	}
}

func TestRenderComparisonPNG(t *testing.T) {
	models := []progression.Model{
		mustModel(t, "exponential", 50, 10, 0.8, 4),
		mustModel(t, "linear", 50, 10, 2, 1),
	}
	var buf bytes.Buffer
	require.NoError(t, RenderComparison(context.Background(), &buf, models, Options{}))
	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, 1200, img.Bounds().Dx())

	require.Error(t, RenderComparison(context.Background(), &buf, nil, Options{}))
}
