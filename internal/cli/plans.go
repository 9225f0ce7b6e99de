package cli

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/claude/runplan/internal/client"
	"github.com/claude/runplan/internal/config"
	"github.com/claude/runplan/internal/models"
	"github.com/claude/runplan/internal/storage"
)

// planBackend is satisfied by *client.Client and localPlans.
type planBackend interface {
	ListPlans(ctx context.Context, limit int) ([]models.Plan, error)
	CreatePlan(ctx context.Context, in client.PlanInput) (models.Plan, error)
}

var (
	_ planBackend = (*client.Client)(nil)
	_ planBackend = localPlans{}
)

// localPlans writes straight to the configured store.
type localPlans struct {
	store storage.PlanStore
}

func (l localPlans) ListPlans(ctx context.Context, limit int) ([]models.Plan, error) {
	return l.store.ListPlans(ctx, limit)
}

func (l localPlans) CreatePlan(ctx context.Context, in client.PlanInput) (models.Plan, error) {
	plan := models.Plan{
		Name:     in.Name,
		Notes:    in.Notes,
		Model:    in.Model,
		Target:   in.Target,
		Starting: in.Starting,
		A:        in.A,
		B:        in.B,
	}
	m, err := plan.Build()
	if err != nil {
		return models.Plan{}, err
	}
	plan.Model = m.Kind().String()
	return l.store.CreatePlan(ctx, plan)
}

// planBackend returns the backend and a cleanup func.
func (o *options) planBackend(ctx context.Context, cfg *config.Config) (planBackend, func(), error) {
	if o.serverURL != "" {
		key := o.apiKey
		if key == "" {
			key = cfg.Auth.APIKey
		}
		return client.NewClient(o.serverURL, key), func() {}, nil
	}
	store, err := storage.Open(ctx, cfg.Storage, "migrations")
	if err != nil {
		return nil, nil, fmt.Errorf("opening storage: %w", err)
	}
	if store == nil {
		return nil, nil, errors.New("plan storage is disabled (storage.driver: none); use --server")
	}
	return localPlans{store: store}, store.Close, nil
}

func plansCmd(opts *options) *cobra.Command {
	c := &cobra.Command{
		Use:   "plans",
		Short: "Manage saved training plans",
	}
	c.AddCommand(plansListCmd(opts), plansCreateCmd(opts))
	return c
}

func plansListCmd(opts *options) *cobra.Command {
	var limit int

	c := &cobra.Command{
		Use:   "list",
		Short: "List saved plans, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			backend, cleanup, err := opts.planBackend(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			plans, err := backend.ListPlans(cmd.Context(), limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if opts.format == "json" {
				if plans == nil {
					plans = []models.Plan{}
				}
				return writeJSON(out, plans)
			}
			if len(plans) == 0 {
				_, err := fmt.Fprintln(out, "no saved plans")
				return err
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tMODEL\tSTART\tTARGET\tA\tB\tCREATED")
			for _, p := range plans {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%g\t%g\t%g\t%g\t%s\n",
					p.ID, p.Name, p.Model, p.Starting, p.Target, p.A, p.B, p.CreatedAt.Format("2006-01-02"))
			}
			return tw.Flush()
		},
	}
	c.Flags().IntVarP(&limit, "limit", "n", 0, "maximum plans to list (default 100)")
	return c
}

func plansCreateCmd(opts *options) *cobra.Command {
	var name, notes string

	c := &cobra.Command{
		Use:   "create",
		Short: "Save a plan from the model flags (unset flags use config defaults)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			ov := opts.overrides(cmd)
			r := cfg.Defaults.Resolve(config.Overrides{
				Model:    ov.ModelType,
				Target:   ov.Target,
				Starting: ov.Starting,
				A:        ov.A,
				B:        ov.B,
			})

			backend, cleanup, err := opts.planBackend(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			plan, err := backend.CreatePlan(cmd.Context(), client.PlanInput{
				Name:     name,
				Notes:    notes,
				Model:    r.Model,
				Target:   r.Target,
				Starting: r.Starting,
				A:        r.A,
				B:        r.B,
			})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if opts.format == "json" {
				return writeJSON(out, plan)
			}
			_, err = fmt.Fprintf(out, "saved plan %s (%s)\n", plan.ID, plan.Name)
			return err
		},
	}
	c.Flags().StringVar(&name, "name", "", "plan name (required)")
	c.Flags().StringVar(&notes, "notes", "", "free-form notes")
	_ = c.MarkFlagRequired("name")
	return c
}
