package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/claude/runplan/internal/chart"
	"github.com/claude/runplan/internal/config"
)

// validate checks request bodies. Field names in errors use the JSON tag.
var validate *validator.Validate

func init() {
	validate = validator.New()
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
}

// ModelOverrides are the optional model fields every calculation accepts.
type ModelOverrides struct {
	ModelType *string  `json:"model_type,omitempty"`
	Target    *float64 `json:"target_mileage,omitempty" validate:"omitnil,gt=0"`
	Starting  *float64 `json:"starting_mileage,omitempty" validate:"omitnil,gte=0"`
	A         *float64 `json:"a_parameter,omitempty"`
	B         *float64 `json:"b_parameter,omitempty" validate:"omitnil,gt=0"`
}

func (o ModelOverrides) overrides() config.Overrides {
	return config.Overrides{
		Model:    o.ModelType,
		Target:   o.Target,
		Starting: o.Starting,
		A:        o.A,
		B:        o.B,
	}
}

type MileageRequest struct {
	ModelOverrides
	WeekNumber *float64 `json:"week_number" validate:"required,gte=0"`
}

type WeekRequest struct {
	ModelOverrides
	WeeklyMileage *float64 `json:"weekly_mileage" validate:"required,gte=0"`
}

type RateRequest struct {
	ModelOverrides
	WeekNumber *float64 `json:"week_number" validate:"required,gte=0"`
}

type VisualiseRequest struct {
	ModelOverrides
	WeeksToPlot *int  `json:"weeks_to_plot,omitempty" validate:"omitnil,gt=0,lte=52"`
	IncludeRate *bool `json:"include_rate,omitempty"`
}

// weeks returns the requested week count, defaulting to 20.
func (r VisualiseRequest) weeks() int {
	if r.WeeksToPlot == nil {
		return 20
	}
	return *r.WeeksToPlot
}

func (r VisualiseRequest) includeRate() bool {
	return r.IncludeRate == nil || *r.IncludeRate
}

type PlanRequest struct {
	Name     string   `json:"name" validate:"required,max=200"`
	Notes    string   `json:"notes,omitempty" validate:"max=2000"`
	Model    string   `json:"model_type" validate:"required"`
	Target   *float64 `json:"target_mileage" validate:"required,gt=0"`
	Starting *float64 `json:"starting_mileage" validate:"required,gte=0"`
	A        *float64 `json:"a_parameter" validate:"required"`
	B        *float64 `json:"b_parameter" validate:"required,gt=0"`
}

type MileageResponse struct {
	WeekNumber         float64         `json:"week_number"`
	WeeklyMileage      float64         `json:"weekly_mileage"`
	PercentageOfTarget float64         `json:"percentage_of_target"`
	EquationType       string          `json:"equation_type"`
	Parameters         config.Resolved `json:"parameters"`
}

type WeekResponse struct {
	WeeklyMileage float64         `json:"weekly_mileage"`
	WeekNumber    *float64        `json:"week_number"`
	IsAchievable  bool            `json:"is_achievable"`
	IsUnbounded   bool            `json:"is_unbounded"`
	Message       *string         `json:"message"`
	EquationType  string          `json:"equation_type"`
	Parameters    config.Resolved `json:"parameters"`
}

type RateResponse struct {
	WeekNumber     float64         `json:"week_number"`
	RateOfChange   float64         `json:"rate_of_change"`
	Interpretation string          `json:"interpretation"`
	EquationType   string          `json:"equation_type"`
	Parameters     config.Resolved `json:"parameters"`
}

type VisualiseResponse struct {
	Weeks         []int             `json:"weeks"`
	Mileages      []float64         `json:"mileages"`
	Rates         []float64         `json:"rates"`
	EquationLatex string            `json:"equation_latex"`
	PlateauWeek   *float64          `json:"plateau_week"`
	Milestones    []chart.Milestone `json:"milestones"`
	EquationType  string            `json:"equation_type"`
	Parameters    config.Resolved   `json:"parameters"`
}

type HealthResponse struct {
	Status            string             `json:"status"`
	Version           string             `json:"version"`
	EquationType      string             `json:"equation_type"`
	DefaultParameters map[string]float64 `json:"default_parameters"`
}

type ModelInfo struct {
	Type     string `json:"type"`
	Equation string `json:"equation_latex"`
}

// decodeRequest reads a JSON body into v and validates it. An empty body
// decodes as an empty object so endpoints with all-optional fields accept it.
func decodeRequest(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	if err := validate.Struct(v); err != nil {
		return describeValidation(err)
	}
	return nil
}

func describeValidation(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s must satisfy %s=%s", fe.Field(), fe.Tag(), fe.Param()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s is %s", fe.Field(), fe.Tag()))
		}
	}
	return errors.New(strings.Join(msgs, "; "))
}
