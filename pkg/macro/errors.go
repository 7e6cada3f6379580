// errors.go defines the failure kinds raised while resolving macros.
package macro

import (
	"errors"
	"fmt"
)

// Kind classifies a macro failure.
type Kind int

const (
	KindHandlerFailure       Kind = iota // any error raised by the handler itself
	KindMissingHandler                   // no factory registered under the name
	KindMissingHandlerMethod             // handler does not declare the method
	KindInvalidContext                   // handler rejected the context value
)

// String returns the kind name used in diagnostics output.
func (k Kind) String() string {
	switch k {
	case KindMissingHandler:
		return "MissingHandler"
	case KindMissingHandlerMethod:
		return "MissingHandlerMethod"
	case KindInvalidContext:
		return "InvalidContext"
	default:
		return "HandlerFailure"
	}
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Sentinels for errors.Is checks against *Error values.
var (
	ErrMissingHandler       = errors.New("missing macro handler")
	ErrMissingHandlerMethod = errors.New("missing macro handler method")
	ErrInvalidContext       = errors.New("invalid macro context")

	// ErrPassLimit is returned when re-scanning does not settle within
	// Options.MaxPasses passes.
	ErrPassLimit = errors.New("macro expansion exceeded the pass limit")
)

// Error is a failure raised by the engine or registry while resolving a macro.
type Error struct {
	Kind   Kind
	Name   string // handler name
	Method string // set for KindMissingHandlerMethod
	Err    error  // underlying cause, may be nil
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindMissingHandler:
		return fmt.Sprintf("macro '%s' could not be found", e.Name)
	case KindMissingHandlerMethod:
		return fmt.Sprintf("unknown method '%s' in macro '%s'", e.Method, e.Name)
	case KindInvalidContext:
		if e.Err != nil {
			return fmt.Sprintf("invalid context for macro '%s': %v", e.Name, e.Err)
		}
		return fmt.Sprintf("invalid context for macro '%s'", e.Name)
	}
	if e.Err != nil {
		return fmt.Sprintf("macro '%s' failed: %v", e.Name, e.Err)
	}
	return fmt.Sprintf("macro '%s' failed", e.Name)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the kind sentinels so callers can write errors.Is(err, ErrMissingHandler).
func (e *Error) Is(target error) bool {
	switch target {
	case ErrMissingHandler:
		return e.Kind == KindMissingHandler
	case ErrMissingHandlerMethod:
		return e.Kind == KindMissingHandlerMethod
	case ErrInvalidContext:
		return e.Kind == KindInvalidContext
	}
	return false
}

// InvalidContext builds the error a handler's context validator returns to
// reject a value. The engine fills in the handler name.
func InvalidContext(format string, args ...any) error {
	return &Error{Kind: KindInvalidContext, Err: fmt.Errorf(format, args...)}
}

// KindOf classifies err. Errors that are not *Error are handler failures.
func KindOf(err error) Kind {
	var me *Error
	if errors.As(err, &me) {
		return me.Kind
	}
	return KindHandlerFailure
}
