package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/claude/runplan/internal/chart"
	"github.com/claude/runplan/internal/config"
	"github.com/claude/runplan/internal/progression"
	"github.com/claude/runplan/internal/report"
)

// localModel builds the model described by the config defaults and flags.
func (o *options) localModel(cmd *cobra.Command) (progression.Model, *config.Config, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, nil, err
	}
	m, _, err := localCalc{defaults: cfg.Defaults}.model(o.overrides(cmd))
	if err != nil {
		return nil, nil, err
	}
	return m, cfg, nil
}

func tableCmd(opts *options) *cobra.Command {
	var weeks int
	var noRate bool

	c := &cobra.Command{
		Use:   "table",
		Short: "Print a week-by-week mileage table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, cfg, err := opts.localModel(cmd)
			if err != nil {
				return err
			}
			if weeks <= 0 {
				weeks = cfg.Plot.Weeks
			}
			out := cmd.OutOrStdout()

			if opts.format == "json" {
				s, err := chart.Weekly(m, weeks, !noRate)
				if err != nil {
					return err
				}
				return writeJSON(out, s)
			}

			th := opts.theme()
			table, err := report.Table(m, weeks, !noRate, th)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(out, "%s\n\n%s\n", report.Summary(m, weeks, th), table)
			return err
		},
	}
	c.Flags().IntVarP(&weeks, "weeks", "w", 0, "number of weeks (default: plot.weeks from config)")
	c.Flags().BoolVar(&noRate, "no-rate", false, "omit the rate of change column")
	return c
}

func plotCmd(opts *options) *cobra.Command {
	var weeks int
	var outPath string

	c := &cobra.Command{
		Use:   "plot",
		Short: "Render the progression and rate of change as a PNG",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, cfg, err := opts.localModel(cmd)
			if err != nil {
				return err
			}
			return writePNG(cmd, outPath, func(f *os.File) error {
				return chart.RenderProgression(f, m, plotOptions(cfg, weeks))
			})
		},
	}
	c.Flags().IntVarP(&weeks, "weeks", "w", 0, "number of weeks (default: plot.weeks from config)")
	c.Flags().StringVarP(&outPath, "out", "o", "progression.png", "output file")
	return c
}

func compareCmd(opts *options) *cobra.Command {
	var weeks int
	var outPath string

	c := &cobra.Command{
		Use:   "compare",
		Short: "Render every model kind with the same parameters on one chart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			ov := opts.overrides(cmd)
			var models []progression.Model
			for _, k := range progression.Kinds() {
				kind := k.String()
				ov.ModelType = &kind
				m, _, err := localCalc{defaults: cfg.Defaults}.model(ov)
				if err != nil {
					return fmt.Errorf("%s model: %w", k, err)
				}
				models = append(models, m)
			}
			return writePNG(cmd, outPath, func(f *os.File) error {
				return chart.RenderComparison(cmd.Context(), f, models, plotOptions(cfg, weeks))
			})
		},
	}
	c.Flags().IntVarP(&weeks, "weeks", "w", 0, "number of weeks (default: plot.weeks from config)")
	c.Flags().StringVarP(&outPath, "out", "o", "comparison.png", "output file")
	return c
}

func plotOptions(cfg *config.Config, weeks int) chart.Options {
	opts := chart.Options{Width: cfg.Plot.Width, Height: cfg.Plot.Height, Weeks: cfg.Plot.Weeks}
	if weeks > 0 {
		opts.Weeks = weeks
	}
	return opts
}

func writePNG(cmd *cobra.Command, path string, render func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := render(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
	return err
}
