// Package root provides the root command for the mcr CLI.
package root

import (
	"github.com/spf13/cobra"

	"github.com/open-cli-collective/macro-cli/internal/cmd/completion"
	"github.com/open-cli-collective/macro-cli/internal/cmd/configcmd"
	"github.com/open-cli-collective/macro-cli/internal/cmd/expand"
	initcmd "github.com/open-cli-collective/macro-cli/internal/cmd/init"
	"github.com/open-cli-collective/macro-cli/internal/cmd/macros"
	"github.com/open-cli-collective/macro-cli/internal/cmd/runcmd"
	"github.com/open-cli-collective/macro-cli/internal/logging"
	"github.com/open-cli-collective/macro-cli/internal/version"
	"github.com/open-cli-collective/macro-cli/internal/view"
)

// NewCmdRoot creates the root command for mcr.
func NewCmdRoot() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcr",
		Short: "Expand {=Name::method(params)|context=} macros in text",
		Long: `mcr expands macro invocations embedded in text files.

A macro looks like {=Name::method(param, param)|selector=}. Each one is
resolved by a named handler and replaced with its result; results that
contain macros of their own are expanded in turn.

Get started by running: mcr macros list`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version.Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return validateGlobals(cmd)
		},
	}

	// Global flags
	cmd.PersistentFlags().StringP("config", "c", "", "config file (default: ~/.config/mcr/config.yml)")
	cmd.PersistentFlags().StringP("output", "o", "", "output format: table, json, plain (default: table)")
	cmd.PersistentFlags().Bool("no-color", false, "disable colored output")
	cmd.PersistentFlags().String("log-level", "warn", "log level: debug, info, warn, error")
	cmd.PersistentFlags().String("log-format", "text", "log format: text, json")

	cmd.SetVersionTemplate("mcr version {{.Version}} (commit: " + version.Commit + ", built: " + version.Date + ")\n")

	cmd.AddCommand(expand.NewCmdExpand())
	cmd.AddCommand(expand.NewCmdValidate())
	cmd.AddCommand(runcmd.NewCmdRun())
	cmd.AddCommand(macros.NewCmdMacros())
	cmd.AddCommand(configcmd.NewCmdConfig())
	cmd.AddCommand(initcmd.NewCmdInit())
	cmd.AddCommand(completion.NewCmdCompletion())

	return cmd
}

func validateGlobals(cmd *cobra.Command) error {
	output, _ := cmd.Flags().GetString("output")
	if err := view.ValidateFormat(output); err != nil {
		return err
	}

	level, _ := cmd.Flags().GetString("log-level")
	if _, err := logging.ParseLevel(level); err != nil {
		return err
	}

	format, _ := cmd.Flags().GetString("log-format")
	return logging.ValidateFormat(format)
}
