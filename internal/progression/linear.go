package progression

import "math"

// LinearModel ramps at a constant slope and plateaus at the target:
//
//	M(n) = min(S + (a/b) * n, T),  a > 0, b > 0, S <= T
type LinearModel struct {
	p Parameters
}

// NewLinear validates the linear-specific rules on p.
func NewLinear(p Parameters) (*LinearModel, error) {
	if err := ValidateShape(p.A, p.B, KindLinear); err != nil {
		return nil, err
	}
	if err := ValidateMileageRange(p.Starting, p.Target, KindLinear); err != nil {
		return nil, err
	}
	m := &LinearModel{p: p}
	if err := validateDerived(m.Rate(), m.PlateauWeek()); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *LinearModel) Kind() Kind             { return KindLinear }
func (m *LinearModel) Parameters() Parameters { return m.p }

// Rate is the slope a/b of the ramp.
func (m *LinearModel) Rate() float64 { return m.p.A / m.p.B }

// PlateauWeek is the first week at which the target is reached.
func (m *LinearModel) PlateauWeek() float64 {
	if m.p.Starting == m.p.Target {
		return 0
	}
	return (m.p.Target - m.p.Starting) / m.Rate()
}

func (m *LinearModel) Mileage(week float64) (float64, error) {
	if err := ValidateWeek(week); err != nil {
		return 0, err
	}
	return math.Min(m.p.Starting+m.Rate()*week, m.p.Target), nil
}

func (m *LinearModel) Week(mileage float64) WeekResult {
	T, S := m.p.Target, m.p.Starting
	if math.IsNaN(mileage) || mileage < S || mileage > T {
		return noSolution
	}
	if mileage == S {
		return foundAt(0)
	}
	week := (mileage - S) / m.Rate()
	plateau := m.PlateauWeek()
	if week <= plateau {
		return foundAt(week)
	}
	if mileage == T {
		return foundAt(plateau)
	}
	return noSolution
}

// RateOfChange is a step function: the slope before the plateau week and
// exactly zero from the plateau week on.
func (m *LinearModel) RateOfChange(week float64) (float64, error) {
	if err := ValidateWeek(week); err != nil {
		return 0, err
	}
	if week < m.PlateauWeek() {
		return m.Rate(), nil
	}
	return 0, nil
}

func (m *LinearModel) Equation() string {
	return KindLinear.Equation()
}
