// Package builtin provides the macro handlers shipped with mcr.
package builtin

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/nickwells/filecheck.mod/filecheck"
	"gopkg.in/yaml.v3"

	"github.com/open-cli-collective/macro-cli/api"
	"github.com/open-cli-collective/macro-cli/pkg/macro"
)

const defaultTimeout = 15 * time.Second

// Deps carries what the built-in handlers need from the outside world.
// Every field is optional.
type Deps struct {
	// Client backs the Pages and Spaces macros. Nil leaves them unconfigured.
	Client *api.Client
	// Timeout bounds each Confluence lookup. Defaults to 15s.
	Timeout time.Duration
	// Context is the parent of every Confluence lookup.
	Context context.Context

	SnippetDirs     []string
	SnippetSuffixes []string

	LookupEnv func(key string) (string, bool)
	Now       func() time.Time
}

func (d Deps) withDefaults() Deps {
	if d.Timeout <= 0 {
		d.Timeout = defaultTimeout
	}
	if d.Context == nil {
		d.Context = context.Background()
	}
	if d.LookupEnv == nil {
		d.LookupEnv = os.LookupEnv
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return d
}

// NewRegistry returns a registry holding every built-in handler, with a
// ConfluenceLoader as its model loader.
func NewRegistry(deps Deps) (*macro.Registry, error) {
	deps = deps.withDefaults()

	for _, dir := range deps.SnippetDirs {
		if err := filecheck.DirExists().StatusCheck(dir); err != nil {
			return nil, fmt.Errorf("invalid snippet directory: %w", err)
		}
	}

	loader := &ConfluenceLoader{
		Client:  deps.Client,
		Timeout: deps.Timeout,
		Context: deps.Context,
	}
	reg := macro.NewRegistry(macro.WithModelLoader(loader))

	shared := &factoryEnv{Deps: deps, snippets: newSnippetCache(deps.SnippetDirs, deps.SnippetSuffixes)}
	for _, name := range Names() {
		build := builtins[name]
		if err := reg.Register(name, func(r *macro.Registry) (macro.Handler, error) { return build(r, shared) }); err != nil {
			return nil, err
		}
	}

	return reg, nil
}

// factoryEnv is what a built-in factory can reach: the dependencies and the
// collaborators shared by every instance a registry builds.
type factoryEnv struct {
	Deps
	snippets *snippetCache
}

var builtins = map[string]func(r *macro.Registry, e *factoryEnv) (macro.Handler, error){
	"Values":   func(r *macro.Registry, _ *factoryEnv) (macro.Handler, error) { return newValues(r) },
	"Env":      func(r *macro.Registry, e *factoryEnv) (macro.Handler, error) { return newEnv(r, e.LookupEnv), nil },
	"Dates":    func(r *macro.Registry, e *factoryEnv) (macro.Handler, error) { return newDates(r, e.Now), nil },
	"Texts":    func(r *macro.Registry, e *factoryEnv) (macro.Handler, error) { return newTexts(r, e.snippets), nil },
	"Markdown": func(r *macro.Registry, _ *factoryEnv) (macro.Handler, error) { return newMarkdown(r) },
	"Html":     func(r *macro.Registry, _ *factoryEnv) (macro.Handler, error) { return newHTML(r) },
	"Pages":    func(r *macro.Registry, _ *factoryEnv) (macro.Handler, error) { return newPages(r) },
	"Spaces":   func(r *macro.Registry, _ *factoryEnv) (macro.Handler, error) { return newSpaces(r) },
	"Strings":  func(r *macro.Registry, _ *factoryEnv) (macro.Handler, error) { return newStrings(r) },
}

// Names lists the built-in handler names, sorted.
func Names() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// isMapping reports whether ctx is a mapping context. Handlers that take a
// scalar context treat a mapping as no context at all.
func isMapping(ctx any) bool {
	_, ok := mapKeys(ctx)
	return ok
}

// joinArgs undoes parameter splitting for handlers that take one free-text
// argument, so "a, b" reaches them whole.
func joinArgs(args []string) string {
	return strings.Join(args, macro.ParameterSeparator)
}

// arity checks that a method received between lo and hi parameters. A
// negative hi means no upper bound.
func arity(h macro.Handler, method string, args []string, lo, hi int) error {
	n := len(args)
	if n >= lo && (hi < 0 || n <= hi) {
		return nil
	}

	var want string
	switch {
	case hi < 0:
		want = fmt.Sprintf("at least %d", lo)
	case hi == lo:
		want = strconv.Itoa(lo)
	default:
		want = fmt.Sprintf("%d to %d", lo, hi)
	}
	return fmt.Errorf("method '%s' of macro '%s' expects %s parameter(s), got %d", method, h.Name(), want, n)
}

// render turns a context value into text. Mappings and lists are rendered as
// YAML.
func render(v any) (string, error) {
	switch val := v.(type) {
	case nil:
		return "", nil
	case string:
		return val, nil
	case fmt.Stringer:
		return val.String(), nil
	case map[string]any, map[string]string, []any, []string:
		out, err := yaml.Marshal(val)
		if err != nil {
			return "", fmt.Errorf("failed to render value: %w", err)
		}
		return strings.TrimSuffix(string(out), "\n"), nil
	}
	return fmt.Sprint(v), nil
}

// mapKeys returns the sorted keys of a mapping context.
func mapKeys(v any) ([]string, bool) {
	var keys []string
	switch m := v.(type) {
	case map[string]any:
		for k := range m {
			keys = append(keys, k)
		}
	case map[string]string:
		for k := range m {
			keys = append(keys, k)
		}
	default:
		return nil, false
	}
	sort.Strings(keys)
	return keys, true
}

// lookup reads key from a mapping context.
func lookup(v any, key string) (any, bool) {
	switch m := v.(type) {
	case map[string]any:
		val, ok := m[key]
		return val, ok
	case map[string]string:
		val, ok := m[key]
		return val, ok
	}
	return nil, false
}
