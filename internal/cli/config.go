package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/saturnines/gqlprobe/pkg/auth"
	"github.com/saturnines/gqlprobe/pkg/config"
)

type configEntry struct {
	Key    string `json:"key"`
	Value  string `json:"value"`
	Source string `json:"source"`
}

// NewConfigCommand creates the config command.
func NewConfigCommand(rootOpts *RootOptions) *cobra.Command {
	var inspectToken bool

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show the effective configuration",
		Long: `Print every recognized setting, its effective value and where it came from.
Secrets are redacted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := rootOpts.settings(rootOpts.logger(cmd.ErrOrStderr()))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if rootOpts.Format == "json" {
				entries := make([]configEntry, 0, len(config.KnownKeys))
				for _, key := range config.KnownKeys {
					entries = append(entries, configEntry{Key: key, Value: s.Redacted(key), Source: s.Source(key).String()})
				}
				return writeJSON(out, entries)
			}

			if err := s.Describe(out); err != nil {
				return err
			}
			if inspectToken {
				info, err := auth.InspectToken(s.TestAuthToken)
				if err != nil {
					return WrapExitError(ExitCommandError, "inspect token", err)
				}
				fmt.Fprintf(out, "token user: %s, issued: %s, expired: %t\n",
					info.Username, info.IssuedAt.UTC().Format(time.RFC3339), info.Expired(time.Now()))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&inspectToken, "inspect-token", false, "decode the configured auth token's claims")
	return cmd
}
