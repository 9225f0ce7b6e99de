package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/claude/runplan/internal/progression"
)

func modelsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List the available progression models",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			kinds := progression.Kinds()
			if opts.format == "json" {
				list := make([]map[string]string, len(kinds))
				for i, k := range kinds {
					list[i] = map[string]string{"type": k.String(), "equation_latex": k.Equation()}
				}
				return writeJSON(out, list)
			}
			th := opts.theme()
			for _, k := range kinds {
				if _, err := fmt.Fprintf(out, "%s  %s\n", th.Title.Render(fmt.Sprintf("%-12s", k)), th.Muted.Render(k.Equation())); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
