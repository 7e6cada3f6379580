// Package macros provides commands for inspecting the available macros.
package macros

import (
	"github.com/spf13/cobra"
)

// NewCmdMacros creates the macros command.
func NewCmdMacros() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "macros",
		Aliases: []string{"macro"},
		Short:   "Inspect the available macros",
	}

	cmd.AddCommand(NewCmdList())

	return cmd
}
