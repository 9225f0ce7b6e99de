package progression

import "math"

// Parameters is the validated (target, starting, a, b) tuple shared by every model.
// Only the generic rules are enforced here; a and b are checked by the owning model.
type Parameters struct {
	Target   float64 `json:"target_mileage"`
	Starting float64 `json:"starting_mileage"`
	A        float64 `json:"a_parameter"`
	B        float64 `json:"b_parameter"`
}

// NewParameters validates that target and starting are finite, target > 0
// and starting >= 0.
func NewParameters(target, starting, a, b float64) (Parameters, error) {
	if err := validateFinite("target_mileage", target); err != nil {
		return Parameters{}, err
	}
	if err := validateFinite("starting_mileage", starting); err != nil {
		return Parameters{}, err
	}
	if err := validateGeneric(starting, target); err != nil {
		return Parameters{}, err
	}
	return Parameters{Target: target, Starting: starting, A: a, B: b}, nil
}

func validateGeneric(starting, target float64) error {
	if target <= 0 {
		return invalidParameter("target_mileage", "target mileage must be positive, got %v", target)
	}
	if starting < 0 {
		return invalidParameter("starting_mileage", "starting mileage must be non-negative, got %v", starting)
	}
	return nil
}

func validateFinite(field string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return invalidParameter(field, "%s must be a finite number, got %v", field, v)
	}
	return nil
}
