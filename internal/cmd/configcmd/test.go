package configcmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/open-cli-collective/macro-cli/api"
	"github.com/open-cli-collective/macro-cli/internal/cmd/cmdutil"
	"github.com/open-cli-collective/macro-cli/internal/config"
)

// NewCmdTest creates the config test command.
func NewCmdTest() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "test",
		Short: "Test connectivity with configured credentials",
		Long: `Test that mcr can reach your Confluence instance with the current
configuration. The Pages and Spaces macros need this connection.`,
		Example: `  # Test connection
  mcr config test`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			noColor, _ := cmd.Flags().GetBool("no-color")
			g := cmdutil.GlobalsFrom(cmd)
			cfg, err := g.LoadConfig()
			if err != nil {
				return err
			}
			return runTest(cmd.Context(), cfg, noColor, nil, cmd.OutOrStdout())
		},
	}

	return cmd
}

func runTest(ctx context.Context, cfg *config.Config, noColor bool, hc *http.Client, out io.Writer) error {
	if noColor {
		color.NoColor = true
	}
	if ctx == nil {
		ctx = context.Background()
	}

	if err := cfg.ValidateConfluence(); err != nil {
		return fmt.Errorf("no Confluence connection configured: %w (run 'mcr init' to configure)", err)
	}

	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)

	fmt.Fprintf(out, "Testing connection to %s...\n", cfg.URL)

	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	client := cmdutil.NewClient(cfg, hc)

	err := client.Ping(ctx)
	var errResp *api.ErrorResponse
	switch {
	case err == nil:
	case errors.As(err, &errResp) && errResp.StatusCode == http.StatusUnauthorized:
		_, _ = red.Fprintln(out, "✗ Authentication failed: 401 Unauthorized")
		fmt.Fprintln(out, "\nCheck your credentials with: mcr config show")
		fmt.Fprintln(out, "Reconfigure with: mcr init")
		return fmt.Errorf("authentication failed")
	case errors.As(err, &errResp) && errResp.StatusCode == http.StatusForbidden:
		_, _ = red.Fprintln(out, "✗ Access denied: 403 Forbidden")
		fmt.Fprintln(out, "\nCheck your permissions.")
		return fmt.Errorf("access denied")
	case errors.As(err, &errResp):
		_, _ = red.Fprintf(out, "✗ Unexpected response: %d\n", errResp.StatusCode)
		return fmt.Errorf("unexpected status code: %d", errResp.StatusCode)
	default:
		_, _ = red.Fprintln(out, "✗ Connection failed:", err)
		fmt.Fprintln(out, "\nCheck your URL with: mcr config show")
		fmt.Fprintln(out, "Reconfigure with: mcr init")
		return fmt.Errorf("connection failed: %w", err)
	}

	_, _ = green.Fprintln(out, "✓ Authentication successful")
	_, _ = green.Fprintln(out, "✓ API access verified")
	fmt.Fprintf(out, "\nAuthenticated as: %s\n", cfg.Email)

	return nil
}
