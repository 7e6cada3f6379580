/*
Package macro expands inline macro invocations embedded in text.

An invocation has the form

	{=Name::method(param1, param2)|selector=}

where "::method", "(...)" and "|selector" are each optional. The method
defaults to "run". Parameters are split on ", " and may themselves contain
invocations, which are expanded before the outer one is dispatched.

Handlers are registered by name on a Registry and embedded in an Engine:

	reg := macro.NewRegistry()
	reg.MustRegister("Users", NewUsersMacro)

	out, err := macro.New(reg).Expand("Hello {=Users::name(42)=}", nil)

Every dispatch resets the registry, so each invocation works on a freshly
constructed handler with default configuration before its context is applied.
The context is either the value passed to Expand or, when that value is a map,
the entry addressed by the token's selector (or Options.Context).

In validate mode failures are collected as Diagnostics instead of aborting:

	diags, err := macro.New(reg).Validate(text, nil)

A pass is repeated only while the previous pass matched more than one token.
*/
package macro
