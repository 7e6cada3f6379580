package expand

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/open-cli-collective/macro-cli/internal/cmd/cmdutil"
	"github.com/open-cli-collective/macro-cli/pkg/macro"
)

type validateOptions struct {
	cmdutil.ContextFlags
	maxPasses int
}

// NewCmdValidate creates the validate command.
func NewCmdValidate() *cobra.Command {
	opts := &validateOptions{}

	cmd := &cobra.Command{
		Use:   "validate [file|-]",
		Short: "Check that every macro in a file resolves",
		Long: `Run every macro in a file without stopping at the first failure and
report each one that could not be resolved, with its location.

The command fails when any macro does not resolve.`,
		Example: `  # Validate a template
  mcr validate page.md --context-file vars.yml

  # Machine-readable report
  mcr validate page.md -o json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var path string
			if len(args) > 0 {
				path = args[0]
			}
			return runValidate(cmd.Context(), path, opts, cmdutil.GlobalsFrom(cmd))
		},
	}

	opts.Register(cmd)
	cmd.Flags().IntVar(&opts.maxPasses, "max-passes", macro.DefaultMaxPasses, "maximum number of scan passes")

	return cmd
}

func runValidate(ctx context.Context, path string, opts *validateOptions, g *cmdutil.Globals) error {
	if ctx == nil {
		ctx = context.Background()
	}

	s, err := g.NewSession(ctx, opts.ContextFlags)
	if err != nil {
		return err
	}

	source, text, err := cmdutil.ReadInput(path, g.In)
	if err != nil {
		return err
	}

	return check(s, source, text, opts.maxPasses)
}
