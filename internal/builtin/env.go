package builtin

import (
	"fmt"

	"github.com/open-cli-collective/macro-cli/pkg/macro"
)

// EnvMacro reads environment variables: {=Env(HOME)=} or {=Env(EDITOR, vi)=}.
type EnvMacro struct {
	*macro.Base
	lookupEnv func(string) (string, bool)
}

func newEnv(r *macro.Registry, lookupEnv func(string) (string, bool)) *EnvMacro {
	m := &EnvMacro{
		Base:      macro.NewBase(r, macro.NameOf((*EnvMacro)(nil))),
		lookupEnv: lookupEnv,
	}
	m.Handle(macro.DefaultMethod, m.run)
	return m
}

func (m *EnvMacro) run(args ...string) (string, error) {
	if err := arity(m, macro.DefaultMethod, args, 1, 2); err != nil {
		return "", err
	}
	if v, ok := m.lookupEnv(args[0]); ok {
		return v, nil
	}
	if len(args) == 2 {
		return args[1], nil
	}
	return "", fmt.Errorf("environment variable '%s' is not set", args[0])
}
