// engine.go scans text, resolves every invocation and substitutes the results.
package macro

import (
	"fmt"
	"log/slog"
	"strings"
	"time"
)

const (
	// DefaultContextKey selects from a mapping context when a token carries
	// no inline selector.
	DefaultContextKey = "default"
	// DefaultMaxPasses bounds the re-scan loop.
	DefaultMaxPasses = 100
)

// Options controls one expansion.
type Options struct {
	// Validate collects Diagnostics instead of aborting on the first failure.
	Validate bool
	// Context is the key used to select from a mapping context when a token
	// has no inline selector. Defaults to DefaultContextKey.
	Context string
	// MaxPasses bounds the number of scan passes. Defaults to DefaultMaxPasses.
	MaxPasses int
}

func (o Options) withDefaults() Options {
	if o.Context == "" {
		o.Context = DefaultContextKey
	}
	if o.MaxPasses <= 0 {
		o.MaxPasses = DefaultMaxPasses
	}
	return o
}

// Diagnostic describes a token that failed to resolve in validate mode.
type Diagnostic struct {
	Position int    `json:"position"` // byte offset of the first occurrence of Macro in the pass text
	Macro    string `json:"macro"`
	Kind     Kind   `json:"error"`
	Message  string `json:"message"`
	Err      error  `json:"-"`
}

// Result is the outcome of Execute. In validate mode Text is always empty.
type Result struct {
	Text        string
	Diagnostics []Diagnostic
}

// Valid reports whether no diagnostics were produced.
func (r *Result) Valid() bool {
	return len(r.Diagnostics) == 0
}

// Engine resolves macro invocations against a Registry. Like its Registry,
// an Engine must not be shared between concurrent expansions.
type Engine struct {
	registry *Registry
	timer    Timer
	recorder Recorder
	logger   *slog.Logger
}

// Option configures an Engine.
type Option func(e *Engine)

// WithTimer measures every single dispatch with t.
func WithTimer(t Timer) Option {
	return func(e *Engine) {
		e.timer = t
	}
}

// WithRecorder reports every successful dispatch to r.
func WithRecorder(r Recorder) Option {
	return func(e *Engine) {
		e.recorder = r
	}
}

// WithLogger sets the engine's logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// New creates an Engine over reg.
func New(reg *Registry, opts ...Option) *Engine {
	e := &Engine{
		registry: reg,
		logger:   slog.Default(),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Registry returns the registry the engine dispatches against.
func (e *Engine) Registry() *Registry {
	return e.registry
}

// Expand substitutes every macro in text and returns the result. The first
// failure aborts the expansion; handler errors are returned unchanged.
func (e *Engine) Expand(text string, ctx any) (string, error) {
	res, err := e.Execute(text, ctx, Options{})
	if err != nil {
		return "", err
	}
	return res.Text, nil
}

// Validate runs text in validate mode and returns the diagnostics. A nil
// slice means every token resolved.
func (e *Engine) Validate(text string, ctx any) ([]Diagnostic, error) {
	res, err := e.Execute(text, ctx, Options{Validate: true})
	if err != nil {
		return nil, err
	}
	return res.Diagnostics, nil
}

// Execute expands text according to opts.
//
// Each pass scans the current text and replaces every token with its value.
// Another pass follows only when the previous one matched more than one
// token, so a lone token whose result contains new macro syntax is not
// re-scanned.
func (e *Engine) Execute(text string, ctx any, opts Options) (*Result, error) {
	opts = opts.withDefaults()

	out, diags, err := e.expand(text, ctx, opts)
	if err != nil {
		return nil, err
	}
	if opts.Validate {
		return &Result{Diagnostics: diags}, nil
	}
	return &Result{Text: out}, nil
}

// Run dispatches a single "Name[::method]" identifier without scanning.
func (e *Engine) Run(identifier string, params []string, ctx any) (string, error) {
	name, method, _ := strings.Cut(identifier, "::")
	if method == "" {
		method = DefaultMethod
	}
	return e.dispatch(identifier, name, method, params, ctx, Options{}.withDefaults())
}

func (e *Engine) expand(text string, ctx any, opts Options) (string, []Diagnostic, error) {
	var diags []Diagnostic

	for pass := 1; ; pass++ {
		passText := text
		out, count, err := replaceTokens(passText, func(tok Token) (string, error) {
			value, nested, err := e.resolveToken(tok, ctx, opts)
			for _, d := range nested {
				if pos := strings.Index(passText, d.Macro); pos >= 0 {
					d.Position = pos
				}
				diags = append(diags, d)
			}
			if err == nil {
				return value, nil
			}
			if !opts.Validate {
				return "", err
			}

			d := Diagnostic{
				Position: strings.Index(passText, tok.Raw),
				Macro:    tok.Raw,
				Kind:     KindOf(err),
				Message:  err.Error(),
				Err:      err,
			}
			e.logger.Debug("Macro failed validation.", "macro", tok.Raw, "position", d.Position, "error", err)
			diags = append(diags, d)

			// The message stands in for the token so later passes cannot match it again.
			return d.Message, nil
		})
		if err != nil {
			return "", nil, err
		}
		text = out

		if count <= 1 {
			return text, diags, nil
		}
		if pass >= opts.MaxPasses {
			return "", nil, fmt.Errorf("%w: still matching %d macros after %d passes", ErrPassLimit, count, pass)
		}
	}
}

// resolveToken expands the token's parameters, selects its context and
// dispatches it. Diagnostics raised inside parameters are returned alongside.
func (e *Engine) resolveToken(tok Token, ctx any, opts Options) (string, []Diagnostic, error) {
	ctx = SelectContext(ctx, tok.Context, opts.Context)

	params := SplitParameters(tok.Parameters)
	var nested []Diagnostic
	for i, p := range params {
		value, diags, err := e.expand(p, ctx, opts)
		if err != nil {
			return "", nil, err
		}
		params[i] = value
		nested = append(nested, diags...)
	}

	value, err := e.dispatch(tok.Identifier(), tok.Name, tok.Method, params, ctx, opts)
	return value, nested, err
}

// dispatch resets the registry, loads a fresh handler, applies the context
// and invokes method.
func (e *Engine) dispatch(identifier, name, method string, params []string, ctx any, opts Options) (string, error) {
	label := "Macro: " + identifier
	if e.timer != nil {
		e.timer.Start(label)
		defer e.timer.Stop(label)
	}

	e.registry.Reset()

	h, err := e.registry.Load(name)
	if err != nil {
		return "", err
	}

	if hasContext(ctx) {
		if err := h.SetContext(ctx); err != nil {
			return "", err
		}
	}

	fn, ok := h.Method(method)
	if !ok {
		return "", &Error{Kind: KindMissingHandlerMethod, Name: name, Method: method}
	}

	result, err := fn(params...)
	if err != nil {
		return "", err
	}

	elapsed := e.elapsed(label)
	e.logger.Debug("Macro resolved.", "macro", identifier, "parameters", len(params), "elapsed", elapsed)
	if e.recorder != nil {
		e.recorder.Record(Record{
			Identifier: identifier,
			Parameters: params,
			Context:    ctx,
			Options:    opts,
			Result:     result,
			Elapsed:    elapsed,
		})
	}

	return result, nil
}

func (e *Engine) elapsed(label string) time.Duration {
	if e.timer == nil {
		return 0
	}
	return e.timer.ElapsedTime(label)
}

// SelectContext returns the value addressed by the selector when ctx is a
// mapping holding it, otherwise ctx unchanged. The inline selector wins over
// the fallback key.
func SelectContext(ctx any, inline, fallback string) any {
	selector := fallback
	if inline != "" {
		selector = inline
	}

	switch m := ctx.(type) {
	case map[string]any:
		if v, ok := m[selector]; ok && v != nil {
			return v
		}
	case map[string]string:
		if v, ok := m[selector]; ok {
			return v
		}
	}
	return ctx
}

// hasContext reports whether ctx should be applied to a handler. Nil, the
// empty string and empty mappings or lists are not.
func hasContext(ctx any) bool {
	if ctx == nil {
		return false
	}
	switch v := ctx.(type) {
	case string:
		return v != ""
	case map[string]any:
		return len(v) > 0
	case map[string]string:
		return len(v) > 0
	case []any:
		return len(v) > 0
	case []string:
		return len(v) > 0
	}
	return true
}
