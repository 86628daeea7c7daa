package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/saturnines/gqlprobe/pkg/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigFile string
	Set        []string
	Verbose    bool
	Format     string // "json" | "text"
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the gqlprobe CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "gqlprobe",
		Short: "gqlprobe - GraphQL API test harness",
		Long: `Build GraphQL requests, run API scenarios against a live endpoint
and clean up the data they create.

Settings resolve from environment variables (graphql.base.url -> GRAPHQL_BASE_URL),
then --set overrides, then the configuration file, then built-in defaults.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return nil
		},
	}

	cmd.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		return WrapExitError(ExitCommandError, "invalid flags", err)
	})

	cmd.PersistentFlags().StringVarP(&opts.ConfigFile, "config", "c", config.DefaultConfigFile, "configuration file (.properties or .yaml)")
	cmd.PersistentFlags().StringArrayVar(&opts.Set, "set", nil, "override a setting, key=value (repeatable)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewConfigCommand(opts))
	cmd.AddCommand(NewBuildCommand(opts))
	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewListCommand(opts))

	return cmd
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// logger writes to w, at debug level with --verbose.
func (o *RootOptions) logger(w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	if o.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// settings resolves and validates the effective configuration.
func (o *RootOptions) settings(logger *slog.Logger) (*config.Settings, error) {
	props, err := config.ParseProperties(o.Set)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid --set", err)
	}

	r := config.NewResolver(
		config.WithFile(o.ConfigFile),
		config.WithProperties(props),
		config.WithLogger(logger),
	)
	s, err := config.Load(r)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid configuration", err)
	}
	return s, nil
}
