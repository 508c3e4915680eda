package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Execute runs the apigen CLI.
func Execute() error {
	return NewRootCmd().Execute()
}

// NewRootCmd constructs the root command so tests can exercise the CLI easily.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "apigen",
		Short:         "Generate typed client code from API descriptors",
		Long:          "apigen compiles listApis descriptors into a deduplicated type graph and emits Go, Python, TypeScript or OpenAPI client models.",
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	// Convert Cobra flag errors (like unknown flags) into friendly usage errors
	// that also show the command's help text.
	cmd.SetFlagErrorFunc(flagError)

	cmd.PersistentFlags().StringP("config", "c", "", "Config file path (YAML, JSON or TOML)")
	cmd.PersistentFlags().CountP("verbose", "v", "Increase log verbosity (-v info, -vv debug)")

	g := newGenerateCmd()
	g.SetFlagErrorFunc(flagError)
	cmd.AddCommand(g)

	i := newInitCmd()
	i.SetFlagErrorFunc(flagError)
	cmd.AddCommand(i)

	return cmd
}

func flagError(c *cobra.Command, err error) error {
	return newUsageError(fmt.Sprintf("%v\n\n%s", err, c.UsageString()))
}
