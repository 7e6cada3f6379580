package macros

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/open-cli-collective/macro-cli/internal/cmd/cmdutil"
	"github.com/open-cli-collective/macro-cli/internal/view"
)

// NewCmdList creates the macros list command.
func NewCmdList() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List the registered macros and their methods",
		Example: `  # List macros
  mcr macros list

  # As JSON
  mcr macros list -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runList(cmd.Context(), cmdutil.GlobalsFrom(cmd))
		},
	}

	return cmd
}

type macroInfo struct {
	Name    string   `json:"name"`
	Methods []string `json:"methods"`
}

func runList(ctx context.Context, g *cmdutil.Globals) error {
	if ctx == nil {
		ctx = context.Background()
	}

	s, err := g.NewSession(ctx, cmdutil.ContextFlags{})
	if err != nil {
		return err
	}

	reg := s.Engine.Registry()
	defer reg.Reset()

	var infos []macroInfo
	for _, name := range reg.Names() {
		h, err := reg.Load(name)
		if err != nil {
			return err
		}
		infos = append(infos, macroInfo{Name: name, Methods: h.Methods()})
	}

	if s.Renderer.Format() == view.FormatJSON {
		return s.Renderer.RenderJSON(infos)
	}

	rows := make([][]string, 0, len(infos))
	for _, info := range infos {
		rows = append(rows, []string{info.Name, strings.Join(info.Methods, ", ")})
	}
	s.Renderer.RenderTable([]string{"NAME", "METHODS"}, rows)
	return nil
}
