package progression

// New parses kind, validates the parameters and builds the matching model.
// Either a fully valid model or an error is returned.
func New(kind string, target, starting, a, b float64) (Model, error) {
	k, err := ParseKind(kind)
	if err != nil {
		return nil, err
	}
	return NewFromParameters(k, Parameters{Target: target, Starting: starting, A: a, B: b})
}

// NewFromParameters builds a model for an already parsed kind.
func NewFromParameters(k Kind, p Parameters) (Model, error) {
	p, err := NewParameters(p.Target, p.Starting, p.A, p.B)
	if err != nil {
		return nil, err
	}
	switch k {
	case KindExponential:
		m, err := NewExponential(p)
		if err != nil {
			return nil, err
		}
		return m, nil
	case KindLinear:
		m, err := NewLinear(p)
		if err != nil {
			return nil, err
		}
		return m, nil
	}
	_, err = ParseKind(string(k))
	return nil, err
}

// PlateauWeek returns the week the model first reaches its target, when it
// does so at a finite week.
func PlateauWeek(m Model) (float64, bool) {
	if l, ok := m.(*LinearModel); ok {
		return l.PlateauWeek(), true
	}
	return 0, false
}
