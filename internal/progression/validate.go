package progression

import "math"

// ValidateWeek rejects negative or NaN week numbers.
func ValidateWeek(week float64) error {
	if math.IsNaN(week) || week < 0 {
		return invalidInput("week", "week must be non-negative, got %v", week)
	}
	return nil
}

// ValidateMileageRange checks starting/target against the generic rules and
// the ordering rule of the given model kind. Exponential models need a strict
// starting < target because the target is only approached; linear models may
// start at the plateau.
func ValidateMileageRange(starting, target float64, k Kind) error {
	if err := validateGeneric(starting, target); err != nil {
		return err
	}
	switch k {
	case KindExponential:
		if starting >= target {
			return invalidParameter("starting_mileage",
				"for exponential model, starting (%v) must be less than target (%v)", starting, target)
		}
	case KindLinear:
		if starting > target {
			return invalidParameter("starting_mileage",
				"for linear model, starting (%v) cannot exceed target (%v)", starting, target)
		}
	default:
		_, err := ParseKind(string(k))
		return err
	}
	return nil
}

// ValidateShape checks the model-specific a and b parameters.
func ValidateShape(a, b float64, k Kind) error {
	if err := validateFinite("a_parameter", a); err != nil {
		return err
	}
	if err := validateFinite("b_parameter", b); err != nil {
		return err
	}
	if !(b > 0) {
		return invalidParameter("b_parameter", "parameter b must be positive, got %v", b)
	}
	switch k {
	case KindExponential:
		if !(a > 0 && a < 1) {
			return invalidParameter("a_parameter", "for exponential model, parameter a must be in (0, 1), got %v", a)
		}
	case KindLinear:
		if !(a > 0) {
			return invalidParameter("a_parameter", "for linear model, parameter a must be positive, got %v", a)
		}
	default:
		_, err := ParseKind(string(k))
		return err
	}
	return nil
}

// maxLogSpan bounds |ln r| for any positive float64 r <= 1.
var maxLogSpan = -math.Log(math.SmallestNonzeroFloat64)

// validateDerived rejects parameter combinations whose derived quantities
// overflow (or underflow to zero) even though every parameter is finite.
// rate is the largest rate of change the model reaches and span the longest
// week Week can return; both must be finite and rate must be positive.
func validateDerived(rate, span float64) error {
	if math.IsNaN(rate) || math.IsInf(rate, 0) || rate <= 0 {
		return invalidParameter("b_parameter",
			"parameters give a rate of change that is not representable (%v)", rate)
	}
	if math.IsNaN(span) || math.IsInf(span, 0) {
		return invalidParameter("b_parameter",
			"parameters give a time to target that is not representable (%v)", span)
	}
	return nil
}
