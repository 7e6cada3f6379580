package builtin

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/open-cli-collective/macro-cli/pkg/macro"
)

// snippetCache finds snippet files by name in a list of directories, trying
// each suffix in turn, and remembers what it has read. It is shared by every
// Texts instance a registry builds.
type snippetCache struct {
	mu       sync.Mutex
	dirs     []string
	suffixes []string
	found    map[string]string
}

func newSnippetCache(dirs, suffixes []string) *snippetCache {
	// The empty suffix always comes first so "intro" matches a file named "intro".
	all := append([]string{""}, suffixes...)
	return &snippetCache{
		dirs:     dirs,
		suffixes: all,
		found:    make(map[string]string),
	}
}

// find returns the contents of the snippet called name. A non-empty locale
// is tried as a subdirectory of every snippet directory before the directory
// itself.
func (c *snippetCache) find(name, locale string) (string, error) {
	key := locale + "/" + name

	c.mu.Lock()
	defer c.mu.Unlock()

	if text, ok := c.found[key]; ok {
		return text, nil
	}

	for _, dir := range c.dirs {
		var candidates []string
		if locale != "" {
			candidates = append(candidates, filepath.Join(dir, locale))
		}
		candidates = append(candidates, dir)

		for _, d := range candidates {
			for _, suffix := range c.suffixes {
				data, err := os.ReadFile(filepath.Join(d, name+suffix))
				if err == nil {
					text := strings.TrimSuffix(string(data), "\n")
					c.found[key] = text
					return text, nil
				}
				if !errors.Is(err, os.ErrNotExist) {
					return "", fmt.Errorf("failed to read snippet '%s': %w", name, err)
				}
			}
		}
	}

	switch len(c.dirs) {
	case 0:
		return "", fmt.Errorf("snippet '%s' was not found: no snippet directories are configured", name)
	case 1:
		return "", fmt.Errorf("snippet '%s' was not found in the snippet directory: %s", name, c.dirs[0])
	}
	return "", fmt.Errorf("snippet '%s' was not found in any of the snippet directories: %s",
		name, strings.Join(c.dirs, ", "))
}

var snippetName = regexp.MustCompile(`^[A-Za-z0-9_][A-Za-z0-9_.-]*$`)

// TextsMacro inserts snippet files: {=Texts(signature)=}. Its context is an
// optional locale subdirectory name, e.g. "fr".
type TextsMacro struct {
	*macro.Base
	cache *snippetCache
}

func newTexts(r *macro.Registry, cache *snippetCache) *TextsMacro {
	m := &TextsMacro{
		Base:  macro.NewBase(r, macro.NameOf((*TextsMacro)(nil))),
		cache: cache,
	}
	m.ValidateContextWith(func(ctx any) error {
		if isMapping(ctx) {
			return nil
		}
		locale, ok := ctx.(string)
		if !ok || !snippetName.MatchString(locale) {
			return macro.InvalidContext("expected a locale directory name, got %v", ctx)
		}
		return nil
	})
	m.Handle(macro.DefaultMethod, m.run)
	return m
}

func (m *TextsMacro) run(args ...string) (string, error) {
	if err := arity(m, macro.DefaultMethod, args, 1, 1); err != nil {
		return "", err
	}
	if !snippetName.MatchString(args[0]) {
		return "", fmt.Errorf("invalid snippet name '%s'", args[0])
	}
	return m.cache.find(args[0], m.ContextString())
}
