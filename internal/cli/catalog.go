package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/slicemap/internal/scenario"
)

// NewCatalogCommand creates the catalog command.
func NewCatalogCommand(rootOpts *RootOptions) *cobra.Command {
	var kind string

	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "List the actions, effects, mappers and transforms scenarios can use",
		Args:  cobra.NoArgs,
		Example: `  slicemap catalog
  slicemap catalog --kind action
  slicemap catalog --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			var entries []scenario.Entry
			for _, e := range scenario.Entries() {
				if kind == "" || e.Kind == kind {
					entries = append(entries, e)
				}
			}
			if len(entries) == 0 {
				return NewExitError(ExitCommandError, fmt.Sprintf("no catalog entries of kind %q", kind))
			}

			if rootOpts.Format == "json" {
				return writeJSON(cmd.OutOrStdout(), CLIResponse{Status: "ok", Data: entries})
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "KIND\tNAME\tDESCRIPTION")
			for _, e := range entries {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", e.Kind, e.Name, e.Doc)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVar(&kind, "kind", "", "only list entries of this kind (action|effect|mapper|transform)")

	return cmd
}
