// Package runcmd provides the run command, which dispatches one macro
// without scanning any text.
package runcmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/open-cli-collective/macro-cli/internal/cmd/cmdutil"
	"github.com/open-cli-collective/macro-cli/internal/view"
	"github.com/open-cli-collective/macro-cli/pkg/macro"
)

type runOptions struct {
	cmdutil.ContextFlags
	selector string
}

// NewCmdRun creates the run command.
func NewCmdRun() *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run <Name[::method]> [params...]",
		Short: "Run a single macro",
		Long: `Run one macro method with the given parameters and print its result.

Parameters are passed as they are, without splitting on ", " and without
expanding nested macros.`,
		Example: `  # Current date in the default layout
  mcr run Dates

  # A method with parameters
  mcr run Strings::join " / " a b c

  # Select a value out of the ambient context
  mcr run Values greeting --set en.greeting=Hello --select en`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(cmd.Context(), args[0], args[1:], opts, cmdutil.GlobalsFrom(cmd))
		},
	}

	opts.Register(cmd)
	cmd.Flags().StringVar(&opts.selector, "select", "", "key selected from a mapping context, as a macro's |selector would")

	return cmd
}

type runResult struct {
	Macro      string   `json:"macro"`
	Parameters []string `json:"parameters"`
	Result     string   `json:"result"`
}

func runRun(ctx context.Context, identifier string, params []string, opts *runOptions, g *cmdutil.Globals) error {
	if ctx == nil {
		ctx = context.Background()
	}

	s, err := g.NewSession(ctx, opts.ContextFlags)
	if err != nil {
		return err
	}

	key := s.ContextKey
	if key == "" {
		key = macro.DefaultContextKey
	}
	selected := macro.SelectContext(s.Context, opts.selector, key)

	result, err := s.Engine.Run(identifier, params, selected)
	if err != nil {
		return fmt.Errorf("failed to run %s: %w", identifier, err)
	}

	if s.Renderer.Format() == view.FormatJSON {
		if params == nil {
			params = []string{}
		}
		return s.Renderer.RenderJSON(runResult{Macro: identifier, Parameters: params, Result: result})
	}

	s.Renderer.RenderText(result)
	return nil
}
