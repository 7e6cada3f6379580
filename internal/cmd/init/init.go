// Package init provides the init command for mcr.
package init

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/open-cli-collective/macro-cli/api"
	"github.com/open-cli-collective/macro-cli/internal/cmd/cmdutil"
	"github.com/open-cli-collective/macro-cli/internal/config"
)

type initOptions struct {
	url         string
	email       string
	contextKey  string
	snippetDirs string
	noVerify    bool
}

// NewCmdInit creates the init command.
func NewCmdInit() *cobra.Command {
	opts := &initOptions{}

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize mcr configuration",
		Long: `Initialize mcr with your defaults and, optionally, Confluence Cloud
credentials for the Pages and Spaces macros.

The configuration will be saved to ~/.config/mcr/config.yml.

To generate an API token:
  1. Go to https://id.atlassian.com/manage-profile/security/api-tokens
  2. Click "Create API token"
  3. Copy the token (it won't be shown again)`,
		Example: `  # Interactive setup
  mcr init

  # Pre-populate values
  mcr init --url https://mycompany.atlassian.net --snippet-dirs ./snippets`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, _ := cmd.Flags().GetString("config")
			return runInit(cmd.Context(), path, opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&opts.url, "url", "", "Confluence URL (e.g., https://mycompany.atlassian.net)")
	cmd.Flags().StringVar(&opts.email, "email", "", "Your Atlassian account email")
	cmd.Flags().StringVar(&opts.contextKey, "context-key", "", "Default key selected from mapping contexts")
	cmd.Flags().StringVar(&opts.snippetDirs, "snippet-dirs", "", "Comma-separated Texts snippet directories")
	cmd.Flags().BoolVar(&opts.noVerify, "no-verify", false, "Skip connection verification")

	return cmd
}

func runInit(ctx context.Context, configPath string, opts *initOptions, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if configPath == "" {
		configPath = config.DefaultConfigPath()
	}

	// Check if config already exists
	if _, err := os.Stat(configPath); err == nil {
		var overwrite bool
		err := huh.NewConfirm().
			Title("Configuration already exists").
			Description(fmt.Sprintf("Overwrite %s?", configPath)).
			Value(&overwrite).
			Run()
		if err != nil {
			return err
		}
		if !overwrite {
			fmt.Fprintln(out, "Initialization cancelled.")
			return nil
		}
	}

	cfg := &config.Config{
		URL:        opts.url,
		Email:      opts.email,
		ContextKey: opts.contextKey,
	}
	snippetDirs := opts.snippetDirs

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Default context key (optional)").
				Description("Key selected from a mapping context when a macro has no |selector").
				Placeholder("default").
				Value(&cfg.ContextKey),

			huh.NewInput().
				Title("Snippet directories (optional)").
				Description("Comma-separated directories the Texts macro reads from").
				Placeholder("./snippets").
				Value(&snippetDirs),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Confluence URL (optional)").
				Description("Leave empty to disable the Pages and Spaces macros").
				Placeholder("https://mycompany.atlassian.net").
				Value(&cfg.URL),

			huh.NewInput().
				Title("Email").
				Description("Your Atlassian account email").
				Placeholder("you@example.com").
				Value(&cfg.Email),

			huh.NewInput().
				Title("API Token").
				Description("Generate at: id.atlassian.com/manage-profile/security/api-tokens").
				EchoMode(huh.EchoModePassword).
				Value(&cfg.APIToken),
		),
	)

	if err := form.Run(); err != nil {
		return err
	}

	if err := finalize(cfg, snippetDirs); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if cfg.HasConfluence() && !opts.noVerify {
		fmt.Fprint(out, "Verifying connection... ")
		if err := verifyConnection(ctx, cfg, nil); err != nil {
			fmt.Fprintln(out, "failed!")
			return fmt.Errorf("connection verification failed: %w", err)
		}
		fmt.Fprintln(out, "success!")
	}

	if err := cfg.Save(configPath); err != nil {
		return err
	}

	fmt.Fprintf(out, "\nConfiguration saved to %s\n", configPath)
	fmt.Fprintln(out, "\nYou're all set! Try running:")
	fmt.Fprintln(out, "  mcr macros list")
	fmt.Fprintln(out, "  echo '{=Dates=}' | mcr expand")

	return nil
}

// finalize applies the free-text form answers to cfg and validates it.
func finalize(cfg *config.Config, snippetDirs string) error {
	cfg.SnippetDirs = nil
	for _, dir := range strings.Split(snippetDirs, ",") {
		if dir = strings.TrimSpace(dir); dir != "" {
			cfg.SnippetDirs = append(cfg.SnippetDirs, dir)
		}
	}

	cfg.URL = strings.TrimSpace(cfg.URL)
	cfg.Email = strings.TrimSpace(cfg.Email)
	cfg.ContextKey = strings.TrimSpace(cfg.ContextKey)
	cfg.NormalizeURL()

	return cfg.Validate()
}

func verifyConnection(ctx context.Context, cfg *config.Config, hc *http.Client) error {
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}

	err := cmdutil.NewClient(cfg, hc).Ping(ctx)
	if err == nil {
		return nil
	}

	var errResp *api.ErrorResponse
	if !errors.As(err, &errResp) {
		return err
	}
	switch errResp.StatusCode {
	case http.StatusUnauthorized:
		return fmt.Errorf("authentication failed - check your email and API token")
	case http.StatusForbidden:
		return fmt.Errorf("access denied - check your permissions")
	}
	return fmt.Errorf("unexpected status code: %d", errResp.StatusCode)
}
