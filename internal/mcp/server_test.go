package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/claude/runplan/internal/config"
	"github.com/claude/runplan/internal/models"
)

type fakePlans struct {
	plans []models.Plan
	err   error
	limit int
}

func (f *fakePlans) ListPlans(ctx context.Context, limit int) ([]models.Plan, error) {
	f.limit = limit
	return f.plans, f.err
}

func newHandlers(plans PlanSource) *handlers {
	return &handlers{
		defaults: config.Default().Defaults,
		plans:    plans,
		log:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func callRequest(name string, args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	for _, c := range res.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			return tc.Text
		}
	}
	t.Fatal("result has no text content")
	return ""
}

func resultJSON(t *testing.T, res *mcp.CallToolResult) map[string]any {
	t.Helper()
	if res.IsError {
		t.Fatalf("unexpected tool error: %s", resultText(t, res))
	}
	var out map[string]any
	if err := json.Unmarshal([]byte(resultText(t, res)), &out); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	return out
}

// TestCalculateMileageTool verifies defaults and overrides flow into the model.
func TestCalculateMileageTool(t *testing.T) {
	h := newHandlers(nil)

	res, err := h.calculateMileage(context.Background(), callRequest("calculate_mileage", map[string]any{"week": 4.0}))
	if err != nil {
		t.Fatal(err)
	}
	out := resultJSON(t, res)
	if out["weekly_mileage"] != 18.0 {
		t.Errorf("weekly_mileage = %v, want 18", out["weekly_mileage"])
	}

	res, err = h.calculateMileage(context.Background(), callRequest("calculate_mileage", map[string]any{
		"week": 3.0, "model_type": "linear", "a_parameter": 2.0, "b_parameter": 1.0,
	}))
	if err != nil {
		t.Fatal(err)
	}
	out = resultJSON(t, res)
	if out["weekly_mileage"] != 16.0 || out["equation_type"] != "linear" {
		t.Errorf("linear result = %v", out)
	}
}

// TestToolErrors verifies missing arguments and invalid models surface as
// tool errors rather than protocol errors.
func TestToolErrors(t *testing.T) {
	h := newHandlers(nil)
	ctx := context.Background()

	tests := []struct {
		name string
		call func() (*mcp.CallToolResult, error)
	}{
		{"missing week", func() (*mcp.CallToolResult, error) {
			return h.calculateMileage(ctx, callRequest("calculate_mileage", map[string]any{}))
		}},
		{"negative week", func() (*mcp.CallToolResult, error) {
			return h.rateOfChange(ctx, callRequest("rate_of_change", map[string]any{"week": -1.0}))
		}},
		{"negative mileage", func() (*mcp.CallToolResult, error) {
			return h.calculateWeek(ctx, callRequest("calculate_week", map[string]any{"mileage": -5.0}))
		}},
		{"bad shape", func() (*mcp.CallToolResult, error) {
			return h.calculateMileage(ctx, callRequest("calculate_mileage", map[string]any{"week": 1.0, "a_parameter": 1.2}))
		}},
		{"unknown model", func() (*mcp.CallToolResult, error) {
			return h.calculateMileage(ctx, callRequest("calculate_mileage", map[string]any{"week": 1.0, "model_type": "cubic"}))
		}},
		{"too many weeks", func() (*mcp.CallToolResult, error) {
			return h.progressionTable(ctx, callRequest("progression_table", map[string]any{"weeks": 60.0}))
		}},
		{"no storage", func() (*mcp.CallToolResult, error) {
			return h.listPlans(ctx, callRequest("list_plans", nil))
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := tt.call()
			if err != nil {
				t.Fatalf("protocol error: %v", err)
			}
			if !res.IsError {
				t.Errorf("expected tool error, got %s", resultText(t, res))
			}
		})
	}
}

// TestCalculateWeekTool verifies each week status.
func TestCalculateWeekTool(t *testing.T) {
	h := newHandlers(nil)
	tests := []struct {
		mileage float64
		status  string
		week    any
	}{
		{18, "found", 4.0},
		{50, "unbounded", nil},
		{5, "no_solution", nil},
	}
	for _, tt := range tests {
		res, err := h.calculateWeek(context.Background(), callRequest("calculate_week", map[string]any{"mileage": tt.mileage}))
		if err != nil {
			t.Fatal(err)
		}
		out := resultJSON(t, res)
		if out["status"] != tt.status || out["week_number"] != tt.week {
			t.Errorf("mileage %v: got %v", tt.mileage, out)
		}
	}
}

// TestRateOfChangeTool verifies the rounded rate.
func TestRateOfChangeTool(t *testing.T) {
	h := newHandlers(nil)
	res, err := h.rateOfChange(context.Background(), callRequest("rate_of_change", map[string]any{"week": 0.0}))
	if err != nil {
		t.Fatal(err)
	}
	if out := resultJSON(t, res); out["rate_of_change"] != 2.2314 {
		t.Errorf("rate_of_change = %v, want 2.2314", out["rate_of_change"])
	}
}

// TestProgressionTableTool verifies the text table includes the summary and rows.
func TestProgressionTableTool(t *testing.T) {
	h := newHandlers(nil)
	res, err := h.progressionTable(context.Background(), callRequest("progression_table", map[string]any{
		"weeks": 5.0, "model_type": "linear", "a_parameter": 2.0, "b_parameter": 1.0,
	}))
	if err != nil {
		t.Fatal(err)
	}
	text := resultText(t, res)
	for _, want := range []string{"linear progression", "Mileage", "18.00"} {
		if !strings.Contains(text, want) {
			t.Errorf("table missing %q:\n%s", want, text)
		}
	}
}

// TestListModelsTool verifies both kinds are listed in display order.
func TestListModelsTool(t *testing.T) {
	h := newHandlers(nil)
	res, err := h.listModels(context.Background(), callRequest("list_models", nil))
	if err != nil {
		t.Fatal(err)
	}
	var out []map[string]string
	if err := json.Unmarshal([]byte(resultText(t, res)), &out); err != nil {
		t.Fatal(err)
	}
	if len(out) != 2 || out[0]["type"] != "exponential" || out[1]["type"] != "linear" {
		t.Errorf("models = %v", out)
	}
}

// TestListPlansTool verifies plans are read from the source with the given limit.
func TestListPlansTool(t *testing.T) {
	src := &fakePlans{plans: []models.Plan{{
		ID: uuid.New(), Name: "base", Model: "linear", Target: 40, Starting: 20, A: 4, B: 2,
		CreatedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}}}
	h := newHandlers(src)

	res, err := h.listPlans(context.Background(), callRequest("list_plans", map[string]any{"limit": 5.0}))
	if err != nil {
		t.Fatal(err)
	}
	var out []models.Plan
	if err := json.Unmarshal([]byte(resultText(t, res)), &out); err != nil {
		t.Fatal(err)
	}
	if len(out) != 1 || out[0].Name != "base" {
		t.Errorf("plans = %+v", out)
	}
	if src.limit != 5 {
		t.Errorf("limit = %d, want 5", src.limit)
	}

	src.err = errors.New("db down")
	res, err = h.listPlans(context.Background(), callRequest("list_plans", nil))
	if err != nil {
		t.Fatal(err)
	}
	if !res.IsError {
		t.Error("expected tool error on source failure")
	}
}

// TestDefaultsResource verifies the defaults resource body.
func TestDefaultsResource(t *testing.T) {
	h := newHandlers(nil)
	var req mcp.ReadResourceRequest
	req.Params.URI = "runplan://defaults"

	contents, err := h.defaultsResource(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	text, ok := contents[0].(mcp.TextResourceContents)
	if !ok {
		t.Fatalf("content type = %T", contents[0])
	}
	var out map[string]any
	if err := json.Unmarshal([]byte(text.Text), &out); err != nil {
		t.Fatal(err)
	}
	if out["model_type"] != "exponential" || out["target_mileage"] != 50.0 {
		t.Errorf("defaults = %v", out)
	}
}

// TestNewRegistersTools verifies the server builds with every tool.
func TestNewRegistersTools(t *testing.T) {
	s := New(config.Default().Defaults, nil, "test", slog.New(slog.NewTextHandler(io.Discard, nil)))
	if s == nil {
		t.Fatal("New returned nil")
	}
	if NewHTTPHandler(s) == nil {
		t.Fatal("NewHTTPHandler returned nil")
	}
}
