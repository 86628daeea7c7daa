package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/saturnines/gqlprobe/pkg/transport/graphql"
)

// BuildOptions holds flags for the build command.
type BuildOptions struct {
	*RootOptions
	Query         string
	Mutation      string
	Raw           string
	Args          []string
	Fields        []string
	Vars          []string
	OperationName string
	Scalar        bool
	Schema        string
	TextOnly      bool
}

// NewBuildCommand creates the build command.
func NewBuildCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &BuildOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Render a GraphQL request envelope",
		Long: `Render the request body for a single operation without sending it.

Argument and variable values are read as JSON when they parse as JSON,
and as plain strings otherwise.

Examples:
  gqlprobe build --mutation createUser --arg firstName=Ann --arg lastName=Lee --field id --field firstName
  gqlprobe build --mutation signIn --arg username=AdminUser1 --arg authToken=abc --scalar
  gqlprobe build --query getAllUsers --field id --text`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := opts.builder()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if opts.TextOnly {
				text, err := b.Text()
				if err != nil {
					return WrapExitError(ExitCommandError, "build", err)
				}
				_, err = fmt.Fprintln(out, text)
				return err
			}

			body, err := b.Build()
			if err != nil {
				return WrapExitError(ExitCommandError, "build", err)
			}
			if rootOpts.Format == "json" {
				var pretty bytes.Buffer
				if err := json.Indent(&pretty, body, "", "  "); err == nil {
					body = pretty.Bytes()
				}
			}
			_, err = fmt.Fprintln(out, string(body))
			return err
		},
	}

	cmd.Flags().StringVar(&opts.Query, "query", "", "root query field")
	cmd.Flags().StringVar(&opts.Mutation, "mutation", "", "root mutation field")
	cmd.Flags().StringVar(&opts.Raw, "raw", "", "raw query text, sent as is")
	cmd.Flags().StringArrayVar(&opts.Args, "arg", nil, "argument, name=value (repeatable, kept in order)")
	cmd.Flags().StringSliceVar(&opts.Fields, "field", nil, "result field (repeatable)")
	cmd.Flags().StringArrayVar(&opts.Vars, "var", nil, "variable, name=value (repeatable)")
	cmd.Flags().StringVar(&opts.OperationName, "operation-name", "", "operation name")
	cmd.Flags().BoolVar(&opts.Scalar, "scalar", false, "the field returns a scalar; no fields may be requested")
	cmd.Flags().StringVar(&opts.Schema, "schema", "", "SDL file to validate the operation against")
	cmd.Flags().BoolVar(&opts.TextOnly, "text", false, "print only the query text")

	cmd.MarkFlagsMutuallyExclusive("query", "mutation", "raw")

	return cmd
}

func (o *BuildOptions) builder() (*graphql.Builder, error) {
	b := graphql.NewBuilder()

	switch {
	case o.Query != "":
		b.QueryOperation(o.Query)
	case o.Mutation != "":
		b.MutationOperation(o.Mutation)
	case o.Raw != "":
		b.Query(o.Raw)
	}

	for _, pair := range o.Args {
		name, value, err := splitPair(pair)
		if err != nil {
			return nil, err
		}
		b.Argument(name, value)
	}
	for _, pair := range o.Vars {
		name, value, err := splitPair(pair)
		if err != nil {
			return nil, err
		}
		b.Variable(name, value)
	}

	b.Fields(o.Fields...)
	if o.Scalar {
		b.Scalar()
	}
	if o.OperationName != "" {
		b.OperationName(o.OperationName)
	}
	if o.Schema != "" {
		schema, err := graphql.LoadSchema(o.Schema)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "load schema", err)
		}
		b.WithSchema(schema)
	}
	return b, nil
}

// splitPair splits name=value and decodes value as JSON when possible.
func splitPair(pair string) (string, interface{}, error) {
	name, raw, ok := strings.Cut(pair, "=")
	if !ok || name == "" {
		return "", nil, NewExitError(ExitCommandError, fmt.Sprintf("expected name=value, got %q", pair))
	}

	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil || dec.More() {
		return name, raw, nil
	}
	return name, v, nil
}
