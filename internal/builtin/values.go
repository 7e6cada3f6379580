package builtin

import (
	"fmt"
	"strings"

	"github.com/open-cli-collective/macro-cli/pkg/macro"
)

// ValuesMacro exposes the context it was given.
//
//	{=Values=}            the whole context
//	{=Values(greeting)=}  one key of a mapping context
//	{=Values::keys=}      the keys of a mapping context
type ValuesMacro struct {
	*macro.Base
}

func newValues(r *macro.Registry) (macro.Handler, error) {
	m := &ValuesMacro{Base: macro.NewBase(r, macro.NameOf((*ValuesMacro)(nil)))}
	m.Handle(macro.DefaultMethod, m.run)
	m.Handle("keys", m.keys)
	return m, nil
}

func (m *ValuesMacro) run(args ...string) (string, error) {
	if err := arity(m, macro.DefaultMethod, args, 0, 1); err != nil {
		return "", err
	}
	if len(args) == 0 {
		return render(m.Context())
	}

	if _, ok := mapKeys(m.Context()); !ok {
		return "", fmt.Errorf("context of macro '%s' is not a mapping", m.Name())
	}
	v, ok := lookup(m.Context(), args[0])
	if !ok {
		return "", fmt.Errorf("key '%s' not found in context", args[0])
	}
	return render(v)
}

func (m *ValuesMacro) keys(args ...string) (string, error) {
	if err := arity(m, "keys", args, 0, 0); err != nil {
		return "", err
	}
	keys, ok := mapKeys(m.Context())
	if !ok {
		return "", fmt.Errorf("context of macro '%s' is not a mapping", m.Name())
	}
	return strings.Join(keys, macro.ParameterSeparator), nil
}
