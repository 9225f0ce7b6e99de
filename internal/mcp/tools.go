package mcp

import (
	"context"
	"errors"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/claude/runplan/internal/config"
	"github.com/claude/runplan/internal/progression"
	"github.com/claude/runplan/internal/report"
)

// --- Tool definitions ---

// modelOptions are the optional overrides shared by every calculation tool.
func modelOptions() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithString("model_type", mcp.Description("Progression model. Defaults to the server default."), mcp.Enum("exponential", "linear")),
		mcp.WithNumber("target_mileage", mcp.Description("Target weekly mileage (T), > 0")),
		mcp.WithNumber("starting_mileage", mcp.Description("Starting weekly mileage (S), >= 0")),
		mcp.WithNumber("a_parameter", mcp.Description("Shape parameter a. Exponential: 0 < a < 1. Linear: miles added per b weeks, > 0")),
		mcp.WithNumber("b_parameter", mcp.Description("Scale parameter b, > 0")),
	}
}

func tool(name string, opts ...mcp.ToolOption) mcp.Tool {
	return mcp.NewTool(name, append(opts, modelOptions()...)...)
}

var toolCalculateMileage = tool("calculate_mileage",
	mcp.WithDescription("Weekly mileage at a (possibly fractional) week number, 0-indexed."),
	mcp.WithNumber("week", mcp.Required(), mcp.Description("Week number, >= 0")),
)

var toolCalculateWeek = tool("calculate_week",
	mcp.WithDescription("Week at which a weekly mileage is first reached. Reports no_solution when the mileage is outside [starting, target] and unbounded when the exponential target is only approached asymptotically."),
	mcp.WithNumber("mileage", mcp.Required(), mcp.Description("Weekly mileage, >= 0")),
)

var toolRateOfChange = tool("rate_of_change",
	mcp.WithDescription("Instantaneous change in weekly mileage (miles per week) at a week number."),
	mcp.WithNumber("week", mcp.Required(), mcp.Description("Week number, >= 0")),
)

var toolProgressionTable = tool("progression_table",
	mcp.WithDescription("Week-by-week mileage table with milestones, as plain text."),
	mcp.WithNumber("weeks", mcp.Description("Number of weeks to tabulate (1-52). Defaults to 20.")),
	mcp.WithBoolean("include_rate", mcp.Description("Include the rate of change column. Defaults to true.")),
)

var toolListModels = mcp.NewTool("list_models",
	mcp.WithDescription("List the available progression models and their equations."),
)

var toolListPlans = mcp.NewTool("list_plans",
	mcp.WithDescription("List saved training plans, newest first."),
	mcp.WithNumber("limit", mcp.Description("Maximum plans to return (1-100). Defaults to 100.")),
)

// --- Tool handlers ---

func (h *handlers) calculateMileage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	week, err := req.RequireFloat("week")
	if err != nil {
		return mcp.NewToolResultError("week parameter is required"), nil
	}
	m, params, errResult := h.model(req)
	if errResult != nil {
		return errResult, nil
	}

	mileage, err := m.Mileage(week)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]any{
		"week_number":          week,
		"weekly_mileage":       report.Round(mileage, 2),
		"percentage_of_target": report.Round(mileage/params.Target*100, 1),
		"equation_type":        m.Kind().String(),
		"parameters":           params,
	})
}

func (h *handlers) calculateWeek(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	mileage, err := req.RequireFloat("mileage")
	if err != nil {
		return mcp.NewToolResultError("mileage parameter is required"), nil
	}
	if mileage < 0 {
		return mcp.NewToolResultError("mileage must be >= 0"), nil
	}
	m, params, errResult := h.model(req)
	if errResult != nil {
		return errResult, nil
	}

	res := m.Week(mileage)
	out := map[string]any{
		"weekly_mileage": mileage,
		"status":         res.Status.String(),
		"week_number":    nil,
		"equation_type":  m.Kind().String(),
		"parameters":     params,
	}
	if res.Found() {
		out["week_number"] = report.Round(res.Week, 2)
	} else {
		out["message"] = report.WeekMessage(res, mileage)
	}
	return jsonResult(out)
}

func (h *handlers) rateOfChange(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	week, err := req.RequireFloat("week")
	if err != nil {
		return mcp.NewToolResultError("week parameter is required"), nil
	}
	m, params, errResult := h.model(req)
	if errResult != nil {
		return errResult, nil
	}

	rate, err := m.RateOfChange(week)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]any{
		"week_number":    week,
		"rate_of_change": report.Round(rate, 4),
		"interpretation": report.Interpret(week, rate),
		"equation_type":  m.Kind().String(),
		"parameters":     params,
	})
}

func (h *handlers) progressionTable(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	weeks := req.GetInt("weeks", 20)
	if weeks < 1 || weeks > 52 {
		return mcp.NewToolResultError("weeks must be between 1 and 52"), nil
	}
	m, _, errResult := h.model(req)
	if errResult != nil {
		return errResult, nil
	}

	table, err := report.Table(m, weeks, req.GetBool("include_rate", true), report.PlainTheme())
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	summary := report.Summary(m, weeks, report.PlainTheme())
	return mcp.NewToolResultText(summary + "\n\n" + table), nil
}

func (h *handlers) listModels(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	kinds := progression.Kinds()
	out := make([]map[string]string, len(kinds))
	for i, k := range kinds {
		out[i] = map[string]string{"type": k.String(), "equation_latex": k.Equation()}
	}
	return jsonResult(out)
}

func (h *handlers) listPlans(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if h.plans == nil {
		return mcp.NewToolResultError("plan storage is disabled"), nil
	}
	plans, err := h.plans.ListPlans(ctx, req.GetInt("limit", 0))
	if err != nil {
		h.log.Error("mcp list_plans", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(plans)
}

// model resolves the request's overrides against the defaults and builds the
// model. Construction failures come back as a tool error result.
func (h *handlers) model(req mcp.CallToolRequest) (progression.Model, config.Resolved, *mcp.CallToolResult) {
	params := h.defaults.Resolve(overrides(req.GetArguments()))
	m, err := params.Build()
	if err != nil {
		var perr *progression.Error
		if errors.As(err, &perr) {
			return nil, params, mcp.NewToolResultError(perr.Error())
		}
		h.log.Error("mcp build model", "error", err)
		return nil, params, mcp.NewToolResultError("model construction failed: " + err.Error())
	}
	params.Model = m.Kind().String()
	return m, params, nil
}

func overrides(args map[string]any) config.Overrides {
	var o config.Overrides
	if v, ok := args["model_type"].(string); ok && v != "" {
		o.Model = &v
	}
	o.Target = floatArg(args, "target_mileage")
	o.Starting = floatArg(args, "starting_mileage")
	o.A = floatArg(args, "a_parameter")
	o.B = floatArg(args, "b_parameter")
	return o
}

func floatArg(args map[string]any, key string) *float64 {
	switch v := args[key].(type) {
	case float64:
		return &v
	case int:
		f := float64(v)
		return &f
	}
	return nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	result, err := mcp.NewToolResultJSON(v)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}
