package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/saturnines/gqlprobe/pkg/scenario"
)

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List available scenarios",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if rootOpts.Format == "json" {
				type entry struct {
					Name        string `json:"name"`
					Description string `json:"description"`
				}
				var entries []entry
				for _, d := range scenario.All() {
					entries = append(entries, entry{Name: d.Name, Description: d.Description})
				}
				return writeJSON(out, entries)
			}
			for _, d := range scenario.All() {
				if _, err := fmt.Fprintf(out, "%-28s %s\n", d.Name, d.Description); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
