// Package cli implements the runplan-cli command tree.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/claude/runplan/internal/client"
	"github.com/claude/runplan/internal/config"
	"github.com/claude/runplan/internal/report"
)

// Version is reported by the MCP server; set by main.
var Version = "dev"

func Execute() {
	cmd := newRootCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// options are the persistent flags shared by every subcommand.
type options struct {
	configPath string
	serverURL  string
	apiKey     string
	format     string
	plain      bool

	model    string
	target   float64
	starting float64
	a        float64
	b        float64
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:          "runplan-cli",
		Short:        "Weekly mileage progression calculator",
		SilenceUsage: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", "config.yaml", "config file (defaults are used when missing)")
	pf.StringVar(&opts.serverURL, "server", "", "runplan server URL; calculations run locally when empty")
	pf.StringVar(&opts.apiKey, "api-key", "", "API key for plan writes (default: auth.api_key from config)")
	pf.StringVar(&opts.format, "format", "pretty", "output format: pretty|json")
	pf.BoolVar(&opts.plain, "plain", false, "disable colours and borders")
	pf.StringVarP(&opts.model, "model", "m", "", "model type: exponential|linear")
	pf.Float64VarP(&opts.target, "target", "T", 0, "target weekly mileage")
	pf.Float64VarP(&opts.starting, "starting", "S", 0, "starting weekly mileage")
	pf.Float64VarP(&opts.a, "a", "a", 0, "shape parameter a")
	pf.Float64VarP(&opts.b, "b", "b", 0, "scale parameter b")

	cmd.AddCommand(
		mileageCmd(opts),
		weekCmd(opts),
		rateCmd(opts),
		tableCmd(opts),
		plotCmd(opts),
		compareCmd(opts),
		plansCmd(opts),
		mcpCmd(opts),
		modelsCmd(opts),
	)
	return cmd
}

func (o *options) loadConfig() (*config.Config, error) {
	cfg, err := config.LoadOrDefault(o.configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

// overrides returns the model flags the user actually set.
func (o *options) overrides(cmd *cobra.Command) client.Overrides {
	var ov client.Overrides
	flags := cmd.Flags()
	if flags.Changed("model") {
		ov.ModelType = &o.model
	}
	if flags.Changed("target") {
		ov.Target = &o.target
	}
	if flags.Changed("starting") {
		ov.Starting = &o.starting
	}
	if flags.Changed("a") {
		ov.A = &o.a
	}
	if flags.Changed("b") {
		ov.B = &o.b
	}
	return ov
}

func (o *options) theme() report.Theme {
	if o.plain {
		return report.PlainTheme()
	}
	return report.DefaultTheme()
}

// calculator picks the remote client when --server is set, else evaluates locally.
func (o *options) calculator() (calculator, error) {
	if o.serverURL != "" {
		return client.NewClient(o.serverURL, o.apiKey), nil
	}
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}
	return localCalc{defaults: cfg.Defaults}, nil
}

func stderrLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
