package configcmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/open-cli-collective/macro-cli/internal/config"
)

// NewCmdShow creates the config show command.
func NewCmdShow() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Display current configuration",
		Long:  `Display the current mcr configuration with value source indicators.`,
		Example: `  # Show current config
  mcr config show`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			noColor, _ := cmd.Flags().GetBool("no-color")
			return runShow(configPath(cmd), noColor, cmd.OutOrStdout())
		},
	}

	return cmd
}

func runShow(path string, noColor bool, out io.Writer) error {
	if noColor {
		color.NoColor = true
	}
	if path == "" {
		path = config.DefaultConfigPath()
	}

	// Load file config (may not exist)
	fileCfg, fileErr := config.Load(path)
	if fileErr != nil {
		fileCfg = &config.Config{}
	}

	cfg, err := config.LoadWithEnv(path)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	bold := color.New(color.Bold)
	dim := color.New(color.Faint)

	printField := func(label, value, fileValue string, envVars ...string) {
		_, _ = bold.Fprintf(out, "%-18s", label+":")
		if value == "" {
			_, _ = dim.Fprintln(out, "-")
			return
		}

		display := value
		if strings.Contains(strings.ToLower(label), "token") && len(value) > 8 {
			display = value[:4] + strings.Repeat("*", len(value)-8) + value[len(value)-4:]
		}

		fmt.Fprint(out, display)

		source := "config"
		if fileErr != nil {
			source = "-"
		}
		for _, envVar := range envVars {
			if v := os.Getenv(envVar); v != "" && v == value {
				source = envVar
				break
			}
		}
		if fileValue != value && source == "config" {
			source = "-"
		}

		_, _ = dim.Fprintf(out, "  (source: %s)\n", source)
	}

	printField("URL", cfg.URL, fileCfg.URL, "MCR_URL", "ATLASSIAN_URL")
	printField("Email", cfg.Email, fileCfg.Email, "MCR_EMAIL", "ATLASSIAN_EMAIL")
	printField("API Token", cfg.APIToken, fileCfg.APIToken, "MCR_API_TOKEN", "ATLASSIAN_API_TOKEN")
	printField("Context key", cfg.ContextKey, fileCfg.ContextKey, "MCR_CONTEXT_KEY")
	printField("Context file", cfg.ContextFile, fileCfg.ContextFile, "MCR_CONTEXT_FILE")
	printField("Snippet dirs", strings.Join(cfg.SnippetDirs, ", "), strings.Join(fileCfg.SnippetDirs, ", "))
	printField("Snippet suffixes", strings.Join(cfg.SnippetSuffixes, ", "), strings.Join(fileCfg.SnippetSuffixes, ", "))
	printField("Output format", cfg.OutputFormat, fileCfg.OutputFormat)

	fmt.Fprintln(out)
	_, _ = dim.Fprintf(out, "Config file: %s\n", path)
	if fileErr != nil {
		_, _ = dim.Fprintln(out, "(file not found)")
	}

	return nil
}
