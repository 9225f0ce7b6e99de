// Package progression evaluates closed-form weekly-mileage progression models.
//
// A Model is built once from a Kind and a Parameters tuple and is immutable
// afterwards, so a single value may be shared between goroutines. Nothing in
// this package logs, blocks or reads configuration; callers resolve defaults
// and pass every value explicitly.
//
// The inverse calculation has three outcomes that callers must tell apart:
// a week was found, no week exists for the mileage, or the mileage is only
// approached asymptotically. None of them is an error.
package progression

// Model is the calculation contract shared by every progression variant.
type Model interface {
	Kind() Kind
	Parameters() Parameters

	// Mileage returns the weekly mileage at the given (real-valued) week.
	Mileage(week float64) (float64, error)

	// Week inverts Mileage.
	Week(mileage float64) WeekResult

	// RateOfChange returns dM/dn at the given week.
	RateOfChange(week float64) (float64, error)

	// Equation returns LaTeX display text for the formula.
	Equation() string
}

// WeekStatus discriminates the outcomes of an inverse calculation.
type WeekStatus int

const (
	WeekFound WeekStatus = iota
	WeekNoSolution
	WeekUnbounded
)

func (s WeekStatus) String() string {
	switch s {
	case WeekFound:
		return "found"
	case WeekNoSolution:
		return "no_solution"
	case WeekUnbounded:
		return "unbounded"
	default:
		return "unknown"
	}
}

// WeekResult is the outcome of Model.Week. Week is only meaningful when
// Status is WeekFound.
type WeekResult struct {
	Status WeekStatus
	Week   float64
}

// Found reports whether a finite week was located.
func (r WeekResult) Found() bool { return r.Status == WeekFound }

func foundAt(week float64) WeekResult { return WeekResult{Status: WeekFound, Week: week} }

var (
	noSolution = WeekResult{Status: WeekNoSolution}
	unbounded  = WeekResult{Status: WeekUnbounded}
)

// Compile-time checks: both variants satisfy Model.
var (
	_ Model = (*ExponentialModel)(nil)
	_ Model = (*LinearModel)(nil)
)
