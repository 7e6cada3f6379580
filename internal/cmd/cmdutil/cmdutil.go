// Package cmdutil holds the setup shared by the mcr commands: global flags,
// configuration, the macro engine and the ambient context.
package cmdutil

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/open-cli-collective/macro-cli/api"
	"github.com/open-cli-collective/macro-cli/internal/builtin"
	"github.com/open-cli-collective/macro-cli/internal/config"
	"github.com/open-cli-collective/macro-cli/internal/contextfile"
	"github.com/open-cli-collective/macro-cli/internal/logging"
	"github.com/open-cli-collective/macro-cli/internal/version"
	"github.com/open-cli-collective/macro-cli/internal/view"
	"github.com/open-cli-collective/macro-cli/pkg/macro"
)

// StdinSource names text read from standard input in diagnostics.
const StdinSource = "stdin"

// Globals carries the root persistent flags and the command's streams.
type Globals struct {
	ConfigPath string
	Output     string
	NoColor    bool
	LogLevel   string
	LogFormat  string

	// Config, when set, is used instead of loading ConfigPath.
	Config *config.Config
	// HTTPClient, when set, backs the Confluence client.
	HTTPClient *http.Client

	In  io.Reader
	Out io.Writer
	Err io.Writer
}

// GlobalsFrom reads the persistent flags of cmd.
func GlobalsFrom(cmd *cobra.Command) *Globals {
	g := &Globals{
		In:  cmd.InOrStdin(),
		Out: cmd.OutOrStdout(),
		Err: cmd.ErrOrStderr(),
	}
	g.ConfigPath, _ = cmd.Flags().GetString("config")
	g.Output, _ = cmd.Flags().GetString("output")
	g.NoColor, _ = cmd.Flags().GetBool("no-color")
	g.LogLevel, _ = cmd.Flags().GetString("log-level")
	g.LogFormat, _ = cmd.Flags().GetString("log-format")
	return g
}

// LoadConfig returns the injected config, or loads it from ConfigPath (the
// default path when empty) with environment overrides applied.
func (g *Globals) LoadConfig() (*config.Config, error) {
	if g.Config != nil {
		return g.Config, nil
	}

	path := g.ConfigPath
	if path == "" {
		path = config.DefaultConfigPath()
	}

	cfg, err := config.LoadWithEnv(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	cfg.NormalizeURL()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w (run 'mcr init' to configure)", err)
	}

	g.Config = cfg
	return cfg, nil
}

// Logger builds the logger for this invocation, writing to Err.
func (g *Globals) Logger() *slog.Logger {
	return logging.New(g.LogLevel, g.LogFormat, g.errWriter())
}

// Renderer returns a renderer writing to Out. The --output flag wins over the
// configured output format.
func (g *Globals) Renderer(cfg *config.Config) (*view.Renderer, error) {
	format := g.Output
	if format == "" && cfg != nil {
		format = cfg.OutputFormat
	}
	if err := view.ValidateFormat(format); err != nil {
		return nil, err
	}

	r := view.NewRenderer(view.Format(format), g.NoColor)
	r.SetWriter(g.outWriter())
	return r, nil
}

func (g *Globals) outWriter() io.Writer {
	if g.Out == nil {
		return os.Stdout
	}
	return g.Out
}

func (g *Globals) errWriter() io.Writer {
	if g.Err == nil {
		return os.Stderr
	}
	return g.Err
}

// NewClient returns a Confluence client for cfg, or nil when no connection
// is configured.
func NewClient(cfg *config.Config, hc *http.Client) *api.Client {
	if !cfg.HasConfluence() {
		return nil
	}

	opts := []api.ClientOption{api.WithUserAgent("mcr/" + version.Version)}
	if hc != nil {
		opts = append(opts, api.WithHTTPClient(hc))
	}
	return api.NewClient(cfg.URL, cfg.Email, cfg.APIToken, opts...)
}

// ContextFlags are the flags that shape the ambient context and the handler
// set. They are shared by expand, validate and run.
type ContextFlags struct {
	ContextFile string
	ContextKey  string
	Set         []string
	SnippetDirs []string
}

// Register adds the context flags to cmd.
func (f *ContextFlags) Register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.ContextFile, "context-file", "", "YAML, JSON or HCL file holding the ambient context")
	cmd.Flags().StringVar(&f.ContextKey, "context-key", "", "key selected from a mapping context when a macro has no selector (default \"default\")")
	cmd.Flags().StringArrayVar(&f.Set, "set", nil, "set a context value as key=value; dots address nested keys (repeatable)")
	cmd.Flags().StringArrayVar(&f.SnippetDirs, "snippet-dir", nil, "directory holding Texts snippets (repeatable)")
}

// Session is everything a command needs to expand text.
type Session struct {
	Config     *config.Config
	Engine     *macro.Engine
	Renderer   *view.Renderer
	Logger     *slog.Logger
	Context    any
	ContextKey string
}

// NewSession loads the config, builds the registry of built-in handlers and
// loads the ambient context. Flags win over configured defaults.
func (g *Globals) NewSession(ctx context.Context, f ContextFlags) (*Session, error) {
	cfg, err := g.LoadConfig()
	if err != nil {
		return nil, err
	}

	renderer, err := g.Renderer(cfg)
	if err != nil {
		return nil, err
	}

	logger := g.Logger()

	reg, err := builtin.NewRegistry(builtin.Deps{
		Client:          NewClient(cfg, g.HTTPClient),
		Context:         ctx,
		SnippetDirs:     slices.Concat(cfg.SnippetDirs, f.SnippetDirs),
		SnippetSuffixes: cfg.SnippetSuffixes,
	})
	if err != nil {
		return nil, err
	}

	contextFile := f.ContextFile
	if contextFile == "" {
		contextFile = cfg.ContextFile
	}
	ambient, err := LoadContext(contextFile, f.Set)
	if err != nil {
		return nil, err
	}

	key := f.ContextKey
	if key == "" {
		key = cfg.ContextKey
	}

	engine := macro.New(reg,
		macro.WithLogger(logger),
		macro.WithRecorder(macro.LogRecorder{Logger: logger}),
	)

	logger.Debug("Session ready.", "handlers", len(reg.Names()), "context_file", contextFile, "context_key", key)

	return &Session{
		Config:     cfg,
		Engine:     engine,
		Renderer:   renderer,
		Logger:     logger,
		Context:    ambient,
		ContextKey: key,
	}, nil
}

// LoadContext reads the context file, if any, and applies the key=value
// assignments on top. It returns nil when neither is given.
func LoadContext(file string, assignments []string) (any, error) {
	var ctx map[string]any

	if file != "" {
		loaded, err := contextfile.Load(file)
		if err != nil {
			return nil, err
		}
		ctx = loaded
	}

	if len(assignments) > 0 {
		set, err := contextfile.ParseAssignments(assignments)
		if err != nil {
			return nil, err
		}
		ctx = contextfile.Merge(ctx, set)
	}

	if ctx == nil {
		return nil, nil
	}
	return ctx, nil
}

// ReadInput reads the named file, or in when name is empty or "-". It
// returns the source name used in diagnostics.
func ReadInput(name string, in io.Reader) (string, string, error) {
	if name == "" || name == "-" {
		if in == nil {
			in = os.Stdin
		}
		data, err := io.ReadAll(in)
		if err != nil {
			return "", "", fmt.Errorf("failed to read input: %w", err)
		}
		return StdinSource, string(data), nil
	}

	data, err := os.ReadFile(name)
	if err != nil {
		return "", "", fmt.Errorf("failed to read input: %w", err)
	}
	return name, string(data), nil
}
