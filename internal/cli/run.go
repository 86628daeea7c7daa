package cli

import (
	"github.com/spf13/cobra"

	"github.com/saturnines/gqlprobe/pkg/harness"
	"github.com/saturnines/gqlprobe/pkg/scenario"
)

type scenarioResult struct {
	Name       string `json:"name"`
	Pass       bool   `json:"pass"`
	Error      string `json:"error,omitempty"`
	DurationMS int64  `json:"duration_ms"`
}

type runResult struct {
	Scenarios []scenarioResult `json:"scenarios"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Total     int              `json:"total"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [scenario...]",
		Short: "Run API scenarios against the configured endpoint",
		Long: `Run the named scenarios, or all of them, one after another.
Data created by a scenario is deleted when it finishes, pass or fail.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (invalid configuration, unknown scenario)

Examples:
  gqlprobe run
  gqlprobe run create-user delete-user
  gqlprobe run --set graphql.base.url=http://localhost:4000/graphql --format json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := rootOpts.logger(cmd.ErrOrStderr())
			settings, err := rootOpts.settings(logger)
			if err != nil {
				return err
			}

			h, err := harness.New(settings, harness.WithLogger(logger))
			if err != nil {
				return WrapExitError(ExitCommandError, "create harness", err)
			}

			report, err := scenario.Run(cmd.Context(), h, args...)
			if err != nil {
				return WrapExitError(ExitCommandError, "run", err)
			}

			out := cmd.OutOrStdout()
			if rootOpts.Format == "json" {
				if err := writeJSON(out, toRunResult(report)); err != nil {
					return err
				}
			} else if err := report.Write(out); err != nil {
				return err
			}

			if !report.Passed() {
				return NewExitError(ExitFailure, "one or more scenarios failed")
			}
			return nil
		},
	}
	return cmd
}

func toRunResult(report *harness.Report) runResult {
	res := runResult{Total: len(report.Results)}
	for _, r := range report.Results {
		sr := scenarioResult{Name: r.Name, Pass: r.Passed, DurationMS: r.Duration.Milliseconds()}
		if r.Err != nil {
			sr.Error = r.Err.Error()
		}
		if r.Passed {
			res.Passed++
		} else {
			res.Failed++
		}
		res.Scenarios = append(res.Scenarios, sr)
	}
	return res
}
