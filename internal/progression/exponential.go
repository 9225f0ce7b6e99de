package progression

import "math"

// ExponentialModel approaches the target asymptotically:
//
//	M(n) = T - (T - S) * a^(n/b),  0 < a < 1, b > 0, S < T
type ExponentialModel struct {
	p Parameters
}

// NewExponential validates the exponential-specific rules on p.
func NewExponential(p Parameters) (*ExponentialModel, error) {
	if err := ValidateShape(p.A, p.B, KindExponential); err != nil {
		return nil, err
	}
	if err := ValidateMileageRange(p.Starting, p.Target, KindExponential); err != nil {
		return nil, err
	}
	rate := -((p.Target - p.Starting) / p.B) * math.Log(p.A)
	if err := validateDerived(rate, -p.B/math.Log(p.A)*maxLogSpan); err != nil {
		return nil, err
	}
	return &ExponentialModel{p: p}, nil
}

func (m *ExponentialModel) Kind() Kind             { return KindExponential }
func (m *ExponentialModel) Parameters() Parameters { return m.p }

func (m *ExponentialModel) Mileage(week float64) (float64, error) {
	if err := ValidateWeek(week); err != nil {
		return 0, err
	}
	if week == 0 {
		return m.p.Starting, nil
	}
	T, S := m.p.Target, m.p.Starting
	return T - (T-S)*math.Pow(m.p.A, week/m.p.B), nil
}

func (m *ExponentialModel) Week(mileage float64) WeekResult {
	T, S := m.p.Target, m.p.Starting
	if math.IsNaN(mileage) || mileage < S || mileage > T {
		return noSolution
	}
	if mileage == T {
		return unbounded
	}
	week := m.p.B / math.Log(m.p.A) * math.Log((T-mileage)/(T-S))
	// round-off can leave a tiny negative value next to week 0
	return foundAt(math.Max(0, week))
}

func (m *ExponentialModel) RateOfChange(week float64) (float64, error) {
	if err := ValidateWeek(week); err != nil {
		return 0, err
	}
	T, S, a, b := m.p.Target, m.p.Starting, m.p.A, m.p.B
	return -((T - S) / b) * math.Pow(a, week/b) * math.Log(a), nil
}

func (m *ExponentialModel) Equation() string {
	return KindExponential.Equation()
}
