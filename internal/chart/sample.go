// Package chart samples progression models and renders them as PNG charts.
package chart

import (
	"context"
	"fmt"

	"github.com/claude/runplan/internal/progression"
	"golang.org/x/sync/errgroup"
)

// DefaultPoints is the sampling density used for smooth curves.
const DefaultPoints = 100

// Series holds a model sampled at a sequence of (possibly fractional) weeks.
type Series struct {
	Kind     progression.Kind `json:"equation_type"`
	Weeks    []float64        `json:"weeks"`
	Mileages []float64        `json:"mileages"`
	Rates    []float64        `json:"rates,omitempty"`
}

// Linspace returns n evenly spaced values from start to end inclusive.
func Linspace(start, end float64, n int) []float64 {
	if n <= 0 {
		return nil
	}
	if n == 1 {
		return []float64{start}
	}
	out := make([]float64, n)
	step := (end - start) / float64(n-1)
	for i := range out {
		out[i] = start + step*float64(i)
	}
	out[n-1] = end
	return out
}

// Sample evaluates m densely over [0, weeks-1].
func Sample(m progression.Model, weeks, points int) (Series, error) {
	if weeks <= 0 {
		return Series{}, fmt.Errorf("weeks must be positive, got %d", weeks)
	}
	return SampleAt(m, Linspace(0, float64(weeks-1), points), true)
}

// Weekly evaluates m at whole weeks 0..weeks-1.
func Weekly(m progression.Model, weeks int, includeRate bool) (Series, error) {
	if weeks <= 0 {
		return Series{}, fmt.Errorf("weeks must be positive, got %d", weeks)
	}
	at := make([]float64, weeks)
	for i := range at {
		at[i] = float64(i)
	}
	return SampleAt(m, at, includeRate)
}

// SampleAt evaluates m at the given weeks.
func SampleAt(m progression.Model, weeks []float64, includeRate bool) (Series, error) {
	s := Series{
		Kind:     m.Kind(),
		Weeks:    weeks,
		Mileages: make([]float64, len(weeks)),
	}
	if includeRate {
		s.Rates = make([]float64, len(weeks))
	}
	for i, w := range weeks {
		mileage, err := m.Mileage(w)
		if err != nil {
			return Series{}, err
		}
		s.Mileages[i] = mileage
		if includeRate {
			rate, err := m.RateOfChange(w)
			if err != nil {
				return Series{}, err
			}
			s.Rates[i] = rate
		}
	}
	return s, nil
}

// SampleAll samples several models concurrently. Models are immutable, so no
// coordination beyond collecting the results is needed.
func SampleAll(ctx context.Context, models []progression.Model, weeks, points int) ([]Series, error) {
	out := make([]Series, len(models))
	g, ctx := errgroup.WithContext(ctx)
	for i, m := range models {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			s, err := Sample(m, weeks, points)
			if err != nil {
				return fmt.Errorf("sampling %s model: %w", m.Kind(), err)
			}
			out[i] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Milestone marks the week a fraction of the starting-to-target span is reached.
type Milestone struct {
	Fraction float64 `json:"fraction"`
	Mileage  float64 `json:"mileage"`
	Week     float64 `json:"week"`
}

// MilestoneFractions are the progress points highlighted on charts.
var MilestoneFractions = []float64{0.25, 0.5, 0.75, 0.9}

// Milestones locates each milestone that is reached after week 0 and before weeks.
func Milestones(m progression.Model, weeks float64) []Milestone {
	p := m.Parameters()
	var out []Milestone
	for _, f := range MilestoneFractions {
		mileage := p.Starting + f*(p.Target-p.Starting)
		res := m.Week(mileage)
		if !res.Found() || res.Week <= 0 || res.Week >= weeks {
			continue
		}
		out = append(out, Milestone{Fraction: f, Mileage: mileage, Week: res.Week})
	}
	return out
}
