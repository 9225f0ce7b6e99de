// Package client is a typed HTTP client for the runplan API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/claude/runplan/internal/models"
)

// Overrides are optional model fields sent with a calculation. Nil fields
// fall back to the server's defaults.
type Overrides struct {
	ModelType *string  `json:"model_type,omitempty"`
	Target    *float64 `json:"target_mileage,omitempty"`
	Starting  *float64 `json:"starting_mileage,omitempty"`
	A         *float64 `json:"a_parameter,omitempty"`
	B         *float64 `json:"b_parameter,omitempty"`
}

// Parameters mirrors the resolved parameters echoed by the server.
type Parameters struct {
	ModelType string  `json:"model_type"`
	Target    float64 `json:"target_mileage"`
	Starting  float64 `json:"starting_mileage"`
	A         float64 `json:"a_parameter"`
	B         float64 `json:"b_parameter"`
}

type MileageResult struct {
	WeekNumber         float64    `json:"week_number"`
	WeeklyMileage      float64    `json:"weekly_mileage"`
	PercentageOfTarget float64    `json:"percentage_of_target"`
	EquationType       string     `json:"equation_type"`
	Parameters         Parameters `json:"parameters"`
}

type WeekResult struct {
	WeeklyMileage float64    `json:"weekly_mileage"`
	WeekNumber    *float64   `json:"week_number"`
	IsAchievable  bool       `json:"is_achievable"`
	IsUnbounded   bool       `json:"is_unbounded"`
	Message       *string    `json:"message"`
	EquationType  string     `json:"equation_type"`
	Parameters    Parameters `json:"parameters"`
}

type RateResult struct {
	WeekNumber     float64    `json:"week_number"`
	RateOfChange   float64    `json:"rate_of_change"`
	Interpretation string     `json:"interpretation"`
	EquationType   string     `json:"equation_type"`
	Parameters     Parameters `json:"parameters"`
}

// PlanInput is the body for creating a saved plan.
type PlanInput struct {
	Name     string  `json:"name"`
	Notes    string  `json:"notes,omitempty"`
	Model    string  `json:"model_type"`
	Target   float64 `json:"target_mileage"`
	Starting float64 `json:"starting_mileage"`
	A        float64 `json:"a_parameter"`
	B        float64 `json:"b_parameter"`
}

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}

// Client talks to a runplan server over HTTP.
type Client struct {
	serverURL  string
	apiKey     string
	httpClient *http.Client
	retryDelay time.Duration
}

// NewClient creates a client for serverURL. apiKey is sent with plan writes
// and may be empty.
func NewClient(serverURL, apiKey string) *Client {
	return &Client{
		serverURL:  strings.TrimRight(serverURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		retryDelay: time.Second,
	}
}

func (c *Client) CalculateMileage(ctx context.Context, week float64, o Overrides) (MileageResult, error) {
	var out MileageResult
	body := struct {
		Overrides
		WeekNumber float64 `json:"week_number"`
	}{o, week}
	err := c.do(ctx, http.MethodPost, "/api/v1/calculate-mileage", body, &out)
	return out, err
}

func (c *Client) CalculateWeek(ctx context.Context, mileage float64, o Overrides) (WeekResult, error) {
	var out WeekResult
	body := struct {
		Overrides
		WeeklyMileage float64 `json:"weekly_mileage"`
	}{o, mileage}
	err := c.do(ctx, http.MethodPost, "/api/v1/calculate-week", body, &out)
	return out, err
}

func (c *Client) RateOfChange(ctx context.Context, week float64, o Overrides) (RateResult, error) {
	var out RateResult
	body := struct {
		Overrides
		WeekNumber float64 `json:"week_number"`
	}{o, week}
	err := c.do(ctx, http.MethodPost, "/api/v1/rate-of-change", body, &out)
	return out, err
}

// ListPlans returns saved plans, newest first. A limit <= 0 uses the server default.
func (c *Client) ListPlans(ctx context.Context, limit int) ([]models.Plan, error) {
	path := "/api/v1/plans"
	if limit > 0 {
		path += "?" + url.Values{"limit": {strconv.Itoa(limit)}}.Encode()
	}
	var out []models.Plan
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreatePlan(ctx context.Context, in PlanInput) (models.Plan, error) {
	var out models.Plan
	err := c.do(ctx, http.MethodPost, "/api/v1/plans", in, &out)
	return out, err
}

// do sends one request, retrying up to 3 times with exponential backoff on
// transport failures and 5xx answers. 4xx answers are returned immediately.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var data []byte
	if in != nil {
		var err error
		data, err = json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
	}

	var lastErr error
	for attempt := range 3 {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.retryDelay << uint(attempt-1)):
			}
		}

		err := c.once(ctx, method, path, data, out)
		if err == nil {
			return nil
		}
		lastErr = err
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Status < http.StatusInternalServerError {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return fmt.Errorf("after 3 attempts: %w", lastErr)
}

func (c *Client) once(ctx context.Context, method, path string, data []byte, out any) error {
	var body io.Reader
	if data != nil {
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.serverURL+path, body)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if data != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{Status: resp.StatusCode, Message: errorMessage(raw)}
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decoding %s response: %w", path, err)
	}
	return nil
}

// errorMessage extracts the {"error": "..."} body, falling back to the raw text.
func errorMessage(raw []byte) string {
	var body struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err == nil && body.Error != "" {
		return body.Error
	}
	return strings.TrimSpace(string(raw))
}
