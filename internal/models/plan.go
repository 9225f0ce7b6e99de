package models

import (
	"time"

	"github.com/claude/runplan/internal/progression"
	"github.com/google/uuid"
)

// Plan is a named, saved set of model inputs.
type Plan struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Model     string    `json:"model_type"`
	Target    float64   `json:"target_mileage"`
	Starting  float64   `json:"starting_mileage"`
	A         float64   `json:"a_parameter"`
	B         float64   `json:"b_parameter"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Build constructs the progression model the plan describes.
func (p Plan) Build() (progression.Model, error) {
	return progression.New(p.Model, p.Target, p.Starting, p.A, p.B)
}
