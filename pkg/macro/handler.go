// handler.go defines the handler contract and the embeddable Base implementation.
package macro

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// ContextKey is the config slot holding a handler's context value.
const ContextKey = "context"

// NameSuffix is stripped from Go type names by NameOf.
const NameSuffix = "Macro"

// Method is one operation a handler declares. Parameters arrive positionally,
// already expanded.
type Method func(args ...string) (string, error)

// Handler is a named unit of behaviour invocable from text.
type Handler interface {
	Name() string
	// Context returns the value last applied with SetContext, or nil.
	Context() any
	// SetContext validates and stores ctx. Rejections carry KindInvalidContext.
	SetContext(ctx any) error
	// Method looks name up in the handler's declared method set.
	Method(name string) (Method, bool)
	// Methods lists the declared method names, sorted.
	Methods() []string
}

// Factory constructs a handler with default configuration. It receives the
// registry that is loading it so the handler can reach the model loader.
type Factory func(r *Registry) (Handler, error)

// Base implements Handler and is meant to be embedded. It owns the name, the
// config map (always holding a ContextKey slot) and the declared method set,
// which starts with a DefaultMethod that returns the empty string.
type Base struct {
	name     string
	config   map[string]any
	methods  map[string]Method
	validate func(ctx any) error
	registry *Registry
}

// NewBase creates a Base named name, bound to r. r may be nil for handlers
// that never call Model.
func NewBase(r *Registry, name string) *Base {
	b := &Base{
		name:     name,
		config:   map[string]any{ContextKey: nil},
		methods:  make(map[string]Method),
		registry: r,
	}
	b.methods[DefaultMethod] = func(...string) (string, error) { return "", nil }
	return b
}

// NameOf derives a handler name from the Go type of v: the type name with
// NameSuffix removed, so *UsersMacro becomes "Users".
func NameOf(v any) string {
	t := reflect.TypeOf(v)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil {
		return ""
	}
	return strings.TrimSuffix(t.Name(), NameSuffix)
}

func (b *Base) Name() string {
	return b.name
}

// Handle declares (or replaces) the method called name.
func (b *Base) Handle(name string, fn Method) {
	b.methods[name] = fn
}

func (b *Base) Method(name string) (Method, bool) {
	fn, ok := b.methods[name]
	return fn, ok
}

func (b *Base) Methods() []string {
	names := make([]string, 0, len(b.methods))
	for name := range b.methods {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Config returns the config value stored under key.
func (b *Base) Config(key string) any {
	return b.config[key]
}

// SetConfig stores value under key.
func (b *Base) SetConfig(key string, value any) {
	b.config[key] = value
}

func (b *Base) Context() any {
	return b.config[ContextKey]
}

// ValidateContextWith installs fn as the check SetContext runs before storing
// a context value. fn may return InvalidContext(...) or any other error.
func (b *Base) ValidateContextWith(fn func(ctx any) error) {
	b.validate = fn
}

func (b *Base) SetContext(ctx any) error {
	if b.validate != nil {
		if err := b.validate(ctx); err != nil {
			var me *Error
			if errors.As(err, &me) && me.Kind == KindInvalidContext {
				if me.Name == "" {
					me.Name = b.name
				}
				return me
			}
			return &Error{Kind: KindInvalidContext, Name: b.name, Err: err}
		}
	}
	b.config[ContextKey] = ctx
	return nil
}

// ContextString returns the context when it is a string, else "".
func (b *Base) ContextString() string {
	s, _ := b.Context().(string)
	return s
}

// Model returns the domain object associated with this handler, obtained from
// the registry's ModelLoader under the handler's name.
func (b *Base) Model() (any, error) {
	if b.registry == nil || b.registry.loader == nil {
		return nil, fmt.Errorf("macro '%s' has no model loader configured", b.name)
	}
	return b.registry.loader.LoadModel(b.name)
}
