package macro

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

// tracker records handler construction across a test.
type tracker struct {
	builds      int
	seenContext []any // Context() observed just before each SetContext
}

func newTestRegistry(p *tracker) *Registry {
	reg := NewRegistry()

	reg.MustRegister("Foo", func(r *Registry) (Handler, error) {
		h := NewBase(r, "Foo")
		h.Handle(DefaultMethod, func(args ...string) (string, error) {
			return "foo[" + strings.Join(args, "|") + "]", nil
		})
		h.Handle("bar", func(args ...string) (string, error) {
			return "bar(" + strings.Join(args, "|") + ")", nil
		})
		h.Handle("ctx", func(...string) (string, error) {
			return fmt.Sprint(h.Context()), nil
		})
		return h, nil
	})

	reg.MustRegister("Bar", func(r *Registry) (Handler, error) {
		h := NewBase(r, "Bar")
		h.Handle(DefaultMethod, func(...string) (string, error) { return "BAR", nil })
		return h, nil
	})

	reg.MustRegister("Fail", func(r *Registry) (Handler, error) {
		h := NewBase(r, "Fail")
		h.Handle(DefaultMethod, func(...string) (string, error) { return "", errBoom })
		return h, nil
	})

	reg.MustRegister("Strict", func(r *Registry) (Handler, error) {
		h := NewBase(r, "Strict")
		h.ValidateContextWith(func(ctx any) error {
			if ctx != "ok" {
				return InvalidContext("context must be 'ok', got %v", ctx)
			}
			return nil
		})
		h.Handle(DefaultMethod, func(...string) (string, error) { return "strict:" + h.ContextString(), nil })
		return h, nil
	})

	reg.MustRegister("Emit", func(r *Registry) (Handler, error) {
		h := NewBase(r, "Emit")
		h.Handle(DefaultMethod, func(...string) (string, error) { return "{=Bar=}", nil })
		return h, nil
	})

	reg.MustRegister("Loop", func(r *Registry) (Handler, error) {
		h := NewBase(r, "Loop")
		h.Handle(DefaultMethod, func(...string) (string, error) { return "{=Loop=} {=Loop=}", nil })
		return h, nil
	})

	reg.MustRegister("Track", func(r *Registry) (Handler, error) {
		if p != nil {
			p.builds++
		}
		h := NewBase(r, "Track")
		h.ValidateContextWith(func(any) error {
			if p != nil {
				p.seenContext = append(p.seenContext, h.Context())
			}
			return nil
		})
		h.Handle(DefaultMethod, func(...string) (string, error) { return fmt.Sprint(h.Context()), nil })
		return h, nil
	})

	return reg
}

func TestEngine_Expand_NoTokens(t *testing.T) {
	e := New(newTestRegistry(nil))

	inputs := []string{"", "plain text", "{= broken", "{=Foo(x=}"}
	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			out, err := e.Expand(input, nil)
			require.NoError(t, err)
			assert.Equal(t, input, out)

			diags, err := e.Validate(input, nil)
			require.NoError(t, err)
			assert.Nil(t, diags)
		})
	}
}

func TestEngine_Expand_SingleToken(t *testing.T) {
	e := New(newTestRegistry(nil))

	out, err := e.Expand("x = {=Foo::bar(1, 2)=};", nil)
	require.NoError(t, err)
	assert.Equal(t, "x = bar(1|2);", out)
}

func TestEngine_Expand_FreshInstanceHasNoContext(t *testing.T) {
	e := New(newTestRegistry(nil))

	out, err := e.Expand("{=Foo::ctx=}", nil)
	require.NoError(t, err)
	assert.Equal(t, "<nil>", out)
}

func TestEngine_Expand_NestedResolvedFirst(t *testing.T) {
	rec := &MemoryRecorder{}
	e := New(newTestRegistry(nil), WithRecorder(rec))

	out, err := e.Expand("{=Foo(1, {=Bar=})=}", nil)
	require.NoError(t, err)
	assert.Equal(t, "foo[1|BAR]", out)

	records := rec.Records()
	require.Len(t, records, 2)
	assert.Equal(t, "Bar", records[0].Identifier)
	assert.Equal(t, "Foo", records[1].Identifier)
	assert.Equal(t, []string{"1", "BAR"}, records[1].Parameters)
}

func TestEngine_Expand_ContextSelection(t *testing.T) {
	ambient := map[string]any{"a": "X", "b": "Y"}

	tests := []struct {
		name  string
		input string
		ctx   any
		opts  Options
		want  string
	}{
		{"inline selector", "{=Foo::ctx|b=}", ambient, Options{}, "Y"},
		{"options key", "{=Foo::ctx=}", ambient, Options{Context: "a"}, "X"},
		{"inline wins over options", "{=Foo::ctx|b=}", ambient, Options{Context: "a"}, "Y"},
		{"no default key leaves mapping", "{=Foo::ctx=}", ambient, Options{}, "map[a:X b:Y]"},
		{"default key", "{=Foo::ctx=}", map[string]any{"default": "D", "a": "X"}, Options{}, "D"},
		{"unknown selector leaves mapping", "{=Foo::ctx|zzz=}", map[string]string{"a": "X"}, Options{}, "map[a:X]"},
		{"string map", "{=Foo::ctx|a=}", map[string]string{"a": "X"}, Options{}, "X"},
		{"scalar ignores selector", "{=Foo::ctx|a=}", "plain", Options{}, "plain"},
		{"nil entry is not selected", "{=Foo::ctx|a=}", map[string]any{"a": nil, "b": "Y"}, Options{}, "map[a:<nil> b:Y]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := New(newTestRegistry(nil))
			res, err := e.Execute(tt.input, tt.ctx, tt.opts)
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Text)
		})
	}
}

func TestEngine_Expand_ContextReachesNestedParameters(t *testing.T) {
	e := New(newTestRegistry(nil))

	ambient := map[string]any{"outer": map[string]any{"inner": "deep"}}
	out, err := e.Expand("{=Foo({=Foo::ctx|inner=})|outer=}", ambient)
	require.NoError(t, err)
	assert.Equal(t, "foo[deep]", out)
}

func TestEngine_Expand_MissingHandler(t *testing.T) {
	e := New(newTestRegistry(nil))

	_, err := e.Expand("Hi {=Ghost=}", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingHandler)
	assert.Equal(t, KindMissingHandler, KindOf(err))
	assert.Equal(t, "macro 'Ghost' could not be found", err.Error())
}

func TestEngine_Validate_MissingHandler(t *testing.T) {
	e := New(newTestRegistry(nil))

	diags, err := e.Validate("Hi {=Ghost=}", nil)
	require.NoError(t, err)
	require.Len(t, diags, 1)

	d := diags[0]
	assert.Equal(t, 3, d.Position)
	assert.Equal(t, "{=Ghost=}", d.Macro)
	assert.Equal(t, KindMissingHandler, d.Kind)
	assert.Equal(t, "macro 'Ghost' could not be found", d.Message)
	assert.ErrorIs(t, d.Err, ErrMissingHandler)
}

func TestEngine_Expand_MissingMethod(t *testing.T) {
	e := New(newTestRegistry(nil))

	_, err := e.Expand("{=Foo::nope=}", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingHandlerMethod)
	assert.Equal(t, "unknown method 'nope' in macro 'Foo'", err.Error())
}

func TestEngine_Expand_InvalidContext(t *testing.T) {
	e := New(newTestRegistry(nil))

	_, err := e.Expand("{=Strict=}", "bad")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidContext)
	assert.Contains(t, err.Error(), "invalid context for macro 'Strict'")

	out, err := e.Expand("{=Strict=}", "ok")
	require.NoError(t, err)
	assert.Equal(t, "strict:ok", out)
}

func TestEngine_Expand_EmptyContextIsNotApplied(t *testing.T) {
	e := New(newTestRegistry(nil))

	out, err := e.Expand("{=Strict=}", "")
	require.NoError(t, err)
	assert.Equal(t, "strict:", out)
}

func TestEngine_Expand_EmptyCollectionContextIsNotApplied(t *testing.T) {
	tests := []struct {
		name string
		ctx  any
	}{
		{"empty map", map[string]any{}},
		{"empty string map", map[string]string{}},
		{"empty list", []any{}},
		{"empty string list", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &tracker{}
			e := New(newTestRegistry(p))

			out, err := e.Expand("{=Strict=}", tt.ctx)
			require.NoError(t, err)
			assert.Equal(t, "strict:", out)

			out, err = e.Expand("{=Track=}", tt.ctx)
			require.NoError(t, err)
			assert.Equal(t, "<nil>", out)
			assert.Empty(t, p.seenContext)
		})
	}
}

func TestEngine_Expand_HandlerErrorIsNotWrapped(t *testing.T) {
	e := New(newTestRegistry(nil))

	out, err := e.Expand("before {=Fail=} after", nil)
	require.Error(t, err)
	assert.Equal(t, errBoom, err)
	assert.Empty(t, out)
}

func TestEngine_Validate_CollectsAllFailures(t *testing.T) {
	e := New(newTestRegistry(nil))

	diags, err := e.Validate("{=Ghost=} {=Foo=} {=Fail=} {=Foo::nope=}", nil)
	require.NoError(t, err)
	require.Len(t, diags, 3)

	assert.Equal(t, 0, diags[0].Position)
	assert.Equal(t, KindMissingHandler, diags[0].Kind)

	assert.Equal(t, 18, diags[1].Position)
	assert.Equal(t, "{=Fail=}", diags[1].Macro)
	assert.Equal(t, KindHandlerFailure, diags[1].Kind)
	assert.Equal(t, "boom", diags[1].Message)

	assert.Equal(t, 27, diags[2].Position)
	assert.Equal(t, KindMissingHandlerMethod, diags[2].Kind)
}

func TestEngine_Validate_PositionIsFirstOccurrence(t *testing.T) {
	e := New(newTestRegistry(nil))

	diags, err := e.Validate("{=Ghost=} and {=Ghost=}", nil)
	require.NoError(t, err)
	require.Len(t, diags, 2)
	assert.Equal(t, 0, diags[0].Position)
	assert.Equal(t, 0, diags[1].Position)
}

func TestEngine_Validate_NestedParameterFailure(t *testing.T) {
	e := New(newTestRegistry(nil))

	diags, err := e.Validate("{=Foo(1, {=Ghost=})=}", nil)
	require.NoError(t, err)
	require.Len(t, diags, 1)
	assert.Equal(t, "{=Ghost=}", diags[0].Macro)
	assert.Equal(t, 9, diags[0].Position)
}

func TestEngine_Execute_ValidateHasNoText(t *testing.T) {
	e := New(newTestRegistry(nil))

	res, err := e.Execute("{=Bar=} {=Ghost=}", nil, Options{Validate: true})
	require.NoError(t, err)
	assert.Empty(t, res.Text)
	assert.False(t, res.Valid())

	res, err = e.Execute("{=Bar=}", nil, Options{Validate: true})
	require.NoError(t, err)
	assert.Empty(t, res.Text)
	assert.True(t, res.Valid())
}

func TestEngine_Expand_SiblingsGetFreshInstances(t *testing.T) {
	p := &tracker{}
	e := New(newTestRegistry(p))

	out, err := e.Expand("{=Track|a=} {=Track|b=}", map[string]any{"a": "X", "b": "Y"})
	require.NoError(t, err)
	assert.Equal(t, "X Y", out)

	assert.Equal(t, 2, p.builds)
	assert.Equal(t, []any{nil, nil}, p.seenContext)
}

func TestEngine_Expand_FixpointRule(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"single token result is not rescanned", "{=Emit=}", "{=Bar=}"},
		{"two tokens trigger another pass", "{=Emit=} {=Emit=}", "BAR BAR"},
		{"second pass with one match stops", "{=Emit=} {=Bar=}", "BAR BAR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := New(newTestRegistry(nil))
			out, err := e.Expand(tt.input, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestEngine_Expand_ExtraPassDispatchesNothing(t *testing.T) {
	rec := &MemoryRecorder{}
	e := New(newTestRegistry(nil), WithRecorder(rec))

	out, err := e.Expand("{=Bar=} {=Bar=}", nil)
	require.NoError(t, err)
	assert.Equal(t, "BAR BAR", out)
	assert.Len(t, rec.Records(), 2)
}

func TestEngine_Expand_PassLimit(t *testing.T) {
	e := New(newTestRegistry(nil))

	_, err := e.Execute("{=Loop=} {=Loop=}", nil, Options{MaxPasses: 3})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPassLimit)
}

func TestEngine_Expand_Idempotent(t *testing.T) {
	e := New(newTestRegistry(nil))

	once, err := e.Expand("a {=Bar=} b {=Foo(1)=}", nil)
	require.NoError(t, err)
	assert.Equal(t, "a BAR b foo[1]", once)

	twice, err := e.Expand(once, nil)
	require.NoError(t, err)
	assert.Equal(t, once, twice)
}

func TestEngine_Run(t *testing.T) {
	e := New(newTestRegistry(nil))

	out, err := e.Run("Foo::bar", []string{"a", "b"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "bar(a|b)", out)

	out, err = e.Run("Foo", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "foo[]", out)

	out, err = e.Run("Strict", nil, "ok")
	require.NoError(t, err)
	assert.Equal(t, "strict:ok", out)

	_, err = e.Run("Ghost::run", nil, nil)
	assert.ErrorIs(t, err, ErrMissingHandler)
}

type fakeTimer struct {
	started []string
	stopped []string
	elapsed time.Duration
}

func (f *fakeTimer) Start(label string)                { f.started = append(f.started, label) }
func (f *fakeTimer) Stop(label string)                 { f.stopped = append(f.stopped, label) }
func (f *fakeTimer) ElapsedTime(string) time.Duration { return f.elapsed }

func TestEngine_TimerAndRecorder(t *testing.T) {
	timer := &fakeTimer{elapsed: 42 * time.Millisecond}
	rec := &MemoryRecorder{}
	e := New(newTestRegistry(nil), WithTimer(timer), WithRecorder(rec))

	_, err := e.Execute("{=Foo::bar(1)=}", "ctx", Options{Context: "k"})
	require.NoError(t, err)

	assert.Equal(t, []string{"Macro: Foo::bar"}, timer.started)
	assert.Equal(t, []string{"Macro: Foo::bar"}, timer.stopped)

	records := rec.Records()
	require.Len(t, records, 1)
	assert.Equal(t, "Foo::bar", records[0].Identifier)
	assert.Equal(t, []string{"1"}, records[0].Parameters)
	assert.Equal(t, "ctx", records[0].Context)
	assert.Equal(t, "k", records[0].Options.Context)
	assert.Equal(t, "bar(1)", records[0].Result)
	assert.Equal(t, 42*time.Millisecond, records[0].Elapsed)
}

func TestEngine_TimerStopsOnFailure(t *testing.T) {
	timer := &fakeTimer{}
	e := New(newTestRegistry(nil), WithTimer(timer))

	_, err := e.Expand("{=Ghost=}", nil)
	require.Error(t, err)
	assert.Equal(t, []string{"Macro: Ghost"}, timer.started)
	assert.Equal(t, []string{"Macro: Ghost"}, timer.stopped)
}

func TestSelectContext(t *testing.T) {
	assert.Equal(t, "Y", SelectContext(map[string]any{"b": "Y"}, "b", "default"))
	assert.Equal(t, "D", SelectContext(map[string]any{"default": "D"}, "", "default"))
	assert.Nil(t, SelectContext(nil, "b", "default"))
	assert.Equal(t, 7, SelectContext(7, "b", "default"))
}
