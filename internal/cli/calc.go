package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/claude/runplan/internal/client"
	"github.com/claude/runplan/internal/config"
	"github.com/claude/runplan/internal/progression"
	"github.com/claude/runplan/internal/report"
)

// calculator is satisfied by *client.Client and localCalc.
type calculator interface {
	CalculateMileage(ctx context.Context, week float64, o client.Overrides) (client.MileageResult, error)
	CalculateWeek(ctx context.Context, mileage float64, o client.Overrides) (client.WeekResult, error)
	RateOfChange(ctx context.Context, week float64, o client.Overrides) (client.RateResult, error)
}

var (
	_ calculator = (*client.Client)(nil)
	_ calculator = localCalc{}
)

// localCalc evaluates models in-process with the configured defaults.
type localCalc struct {
	defaults config.ModelDefaults
}

func (l localCalc) model(o client.Overrides) (progression.Model, client.Parameters, error) {
	r := l.defaults.Resolve(config.Overrides{
		Model:    o.ModelType,
		Target:   o.Target,
		Starting: o.Starting,
		A:        o.A,
		B:        o.B,
	})
	m, err := r.Build()
	if err != nil {
		return nil, client.Parameters{}, err
	}
	return m, client.Parameters{
		ModelType: m.Kind().String(),
		Target:    r.Target,
		Starting:  r.Starting,
		A:         r.A,
		B:         r.B,
	}, nil
}

func (l localCalc) CalculateMileage(_ context.Context, week float64, o client.Overrides) (client.MileageResult, error) {
	m, p, err := l.model(o)
	if err != nil {
		return client.MileageResult{}, err
	}
	mileage, err := m.Mileage(week)
	if err != nil {
		return client.MileageResult{}, err
	}
	return client.MileageResult{
		WeekNumber:         week,
		WeeklyMileage:      report.Round(mileage, 2),
		PercentageOfTarget: report.Round(mileage/p.Target*100, 1),
		EquationType:       p.ModelType,
		Parameters:         p,
	}, nil
}

func (l localCalc) CalculateWeek(_ context.Context, mileage float64, o client.Overrides) (client.WeekResult, error) {
	m, p, err := l.model(o)
	if err != nil {
		return client.WeekResult{}, err
	}
	res := m.Week(mileage)
	out := client.WeekResult{
		WeeklyMileage: mileage,
		IsAchievable:  res.Status != progression.WeekNoSolution,
		IsUnbounded:   res.Status == progression.WeekUnbounded,
		EquationType:  p.ModelType,
		Parameters:    p,
	}
	if res.Found() {
		w := report.Round(res.Week, 2)
		out.WeekNumber = &w
	}
	if msg := report.WeekMessage(res, mileage); msg != "" {
		out.Message = &msg
	}
	return out, nil
}

func (l localCalc) RateOfChange(_ context.Context, week float64, o client.Overrides) (client.RateResult, error) {
	m, p, err := l.model(o)
	if err != nil {
		return client.RateResult{}, err
	}
	rate, err := m.RateOfChange(week)
	if err != nil {
		return client.RateResult{}, err
	}
	return client.RateResult{
		WeekNumber:     week,
		RateOfChange:   report.Round(rate, 4),
		Interpretation: report.Interpret(week, rate),
		EquationType:   p.ModelType,
		Parameters:     p,
	}, nil
}

func parseFloatArg(name, s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number, got %q", name, s)
	}
	return v, nil
}

func mileageCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "mileage <week>",
		Short: "Weekly mileage at a week number",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			week, err := parseFloatArg("week", args[0])
			if err != nil {
				return err
			}
			calc, err := opts.calculator()
			if err != nil {
				return err
			}
			res, err := calc.CalculateMileage(cmd.Context(), week, opts.overrides(cmd))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if opts.format == "json" {
				return writeJSON(out, res)
			}
			_, err = fmt.Fprintf(out, "Week %s: %.2f miles (%.1f%% of target) [%s]\n",
				report.Number(res.WeekNumber), res.WeeklyMileage, res.PercentageOfTarget, res.EquationType)
			return err
		},
	}
}

func weekCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "week <mileage>",
		Short: "Week at which a weekly mileage is reached",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mileage, err := parseFloatArg("mileage", args[0])
			if err != nil {
				return err
			}
			calc, err := opts.calculator()
			if err != nil {
				return err
			}
			res, err := calc.CalculateWeek(cmd.Context(), mileage, opts.overrides(cmd))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if opts.format == "json" {
				return writeJSON(out, res)
			}
			if res.WeekNumber != nil {
				_, err = fmt.Fprintf(out, "%s miles is reached at week %.2f [%s]\n",
					report.Number(mileage), *res.WeekNumber, res.EquationType)
				return err
			}
			msg := ""
			if res.Message != nil {
				msg = *res.Message
			}
			_, err = fmt.Fprintf(out, "%s [%s]\n", msg, res.EquationType)
			return err
		},
	}
}

func rateCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "rate <week>",
		Short: "Rate of change of weekly mileage at a week number",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			week, err := parseFloatArg("week", args[0])
			if err != nil {
				return err
			}
			calc, err := opts.calculator()
			if err != nil {
				return err
			}
			res, err := calc.RateOfChange(cmd.Context(), week, opts.overrides(cmd))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if opts.format == "json" {
				return writeJSON(out, res)
			}
			_, err = fmt.Fprintf(out, "%s (rate %.4f) [%s]\n", res.Interpretation, res.RateOfChange, res.EquationType)
			return err
		},
	}
}
