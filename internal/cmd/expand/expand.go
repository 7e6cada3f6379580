// Package expand provides the expand and validate commands.
package expand

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/open-cli-collective/macro-cli/internal/cmd/cmdutil"
	"github.com/open-cli-collective/macro-cli/internal/view"
	"github.com/open-cli-collective/macro-cli/pkg/macro"
)

// ErrInvalid is returned when validation finds macros that do not resolve.
var ErrInvalid = errors.New("validation failed")

type expandOptions struct {
	cmdutil.ContextFlags
	validate  bool
	maxPasses int
}

// NewCmdExpand creates the expand command.
func NewCmdExpand() *cobra.Command {
	opts := &expandOptions{}

	cmd := &cobra.Command{
		Use:   "expand [file|-]",
		Short: "Expand the macros in a file",
		Long: `Expand every {=Name::method(params)|context=} macro in a file or in
standard input and print the result.

The ambient context comes from --context-file and --set. A macro's
|selector, or --context-key when it has none, picks a value out of a
mapping context before the macro runs.`,
		Example: `  # Expand a template
  mcr expand README.tmpl.md

  # Read from stdin with a context file
  cat notes.md | mcr expand --context-file vars.yml

  # Set values inline
  mcr expand page.md --set default.name=Ada --set release=1.4

  # Report unresolved macros instead of failing on the first one
  mcr expand page.md --validate`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var path string
			if len(args) > 0 {
				path = args[0]
			}
			return runExpand(cmd.Context(), path, opts, cmdutil.GlobalsFrom(cmd))
		},
	}

	opts.Register(cmd)
	cmd.Flags().BoolVar(&opts.validate, "validate", false, "report unresolved macros instead of expanding")
	cmd.Flags().IntVar(&opts.maxPasses, "max-passes", macro.DefaultMaxPasses, "maximum number of scan passes")

	return cmd
}

type expandResult struct {
	Source string `json:"source"`
	Text   string `json:"text"`
}

func runExpand(ctx context.Context, path string, opts *expandOptions, g *cmdutil.Globals) error {
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

	if opts.validate {
		return check(s, source, text, opts.maxPasses)
	}

	res, err := s.Engine.Execute(text, s.Context, macro.Options{
		Context:   s.ContextKey,
		MaxPasses: opts.maxPasses,
	})
	if err != nil {
		return fmt.Errorf("failed to expand %s: %w", source, err)
	}

	if s.Renderer.Format() == view.FormatJSON {
		return s.Renderer.RenderJSON(expandResult{Source: source, Text: res.Text})
	}

	_, err = fmt.Fprint(g.Out, res.Text)
	return err
}

// check runs text in validate mode and renders the diagnostics.
func check(s *cmdutil.Session, source, text string, maxPasses int) error {
	res, err := s.Engine.Execute(text, s.Context, macro.Options{
		Validate:  true,
		Context:   s.ContextKey,
		MaxPasses: maxPasses,
	})
	if err != nil {
		return fmt.Errorf("failed to validate %s: %w", source, err)
	}

	if err := s.Renderer.RenderDiagnostics(source, text, res.Diagnostics); err != nil {
		return err
	}
	if !res.Valid() {
		return ErrInvalid
	}
	return nil
}
