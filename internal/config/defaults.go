package config

import "github.com/claude/runplan/internal/progression"

// Overrides carries the optional per-request model fields. Nil means "use the default".
type Overrides struct {
	Model    *string
	Target   *float64
	Starting *float64
	A        *float64
	B        *float64
}

// Resolved is a complete set of model inputs after defaults were applied.
type Resolved struct {
	Model    string  `json:"model_type"`
	Target   float64 `json:"target_mileage"`
	Starting float64 `json:"starting_mileage"`
	A        float64 `json:"a_parameter"`
	B        float64 `json:"b_parameter"`
}

// Resolve fills every field missing from o with the configured default.
// An explicit zero is kept, so it reaches model validation instead of being
// silently replaced.
func (d ModelDefaults) Resolve(o Overrides) Resolved {
	r := Resolved{
		Model:    d.Model,
		Target:   d.Target,
		Starting: d.Starting,
		A:        d.A,
		B:        d.B,
	}
	if o.Model != nil && *o.Model != "" {
		r.Model = *o.Model
	}
	if o.Target != nil {
		r.Target = *o.Target
	}
	if o.Starting != nil {
		r.Starting = *o.Starting
	}
	if o.A != nil {
		r.A = *o.A
	}
	if o.B != nil {
		r.B = *o.B
	}
	return r
}

// Build constructs the default model.
func (d ModelDefaults) Build() (progression.Model, error) {
	return d.Resolve(Overrides{}).Build()
}

// Build constructs the model described by r.
func (r Resolved) Build() (progression.Model, error) {
	return progression.New(r.Model, r.Target, r.Starting, r.A, r.B)
}
