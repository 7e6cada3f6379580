package builtin

import (
	"strings"

	"github.com/open-cli-collective/macro-cli/pkg/macro"
)

// StringsMacro holds small text helpers.
//
//	{=Strings::upper(hello)=}
//	{=Strings::join(-, a, b)=}       a-b
//	{=Strings::default(, none)=}     none
type StringsMacro struct {
	*macro.Base
}

func newStrings(r *macro.Registry) (macro.Handler, error) {
	m := &StringsMacro{Base: macro.NewBase(r, macro.NameOf((*StringsMacro)(nil)))}
	m.Handle(macro.DefaultMethod, func(args ...string) (string, error) {
		return strings.Join(args, ""), nil
	})
	m.Handle("upper", func(args ...string) (string, error) {
		return strings.ToUpper(joinArgs(args)), nil
	})
	m.Handle("lower", func(args ...string) (string, error) {
		return strings.ToLower(joinArgs(args)), nil
	})
	m.Handle("join", m.join)
	m.Handle("default", m.fallback)
	return m, nil
}

func (m *StringsMacro) join(args ...string) (string, error) {
	if err := arity(m, "join", args, 1, -1); err != nil {
		return "", err
	}
	return strings.Join(args[1:], args[0]), nil
}

func (m *StringsMacro) fallback(args ...string) (string, error) {
	if err := arity(m, "default", args, 1, 2); err != nil {
		return "", err
	}
	if args[0] != "" || len(args) == 1 {
		return args[0], nil
	}
	return args[1], nil
}
