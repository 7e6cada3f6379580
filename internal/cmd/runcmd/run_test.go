package runcmd

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/open-cli-collective/macro-cli/internal/cmd/cmdutil"
	"github.com/open-cli-collective/macro-cli/internal/config"
	"github.com/open-cli-collective/macro-cli/pkg/macro"
)

func testGlobals(out *bytes.Buffer) *cmdutil.Globals {
	return &cmdutil.Globals{
		NoColor: true,
		Config:  &config.Config{},
		Out:     out,
		Err:     io.Discard,
	}
}

func TestRunRun(t *testing.T) {
	tests := []struct {
		name       string
		identifier string
		params     []string
		opts       runOptions
		want       string
	}{
		{
			name:       "method with parameters kept whole",
			identifier: "Strings::join",
			params:     []string{" / ", "a, b", "c"},
			want:       "a, b / c\n",
		},
		{
			name:       "default method",
			identifier: "Strings",
			params:     []string{"x", "y"},
			want:       "xy\n",
		},
		{
			name:       "selector",
			identifier: "Values",
			params:     []string{"greeting"},
			opts: runOptions{
				ContextFlags: cmdutil.ContextFlags{Set: []string{"en.greeting=Hello", "fr.greeting=Bonjour"}},
				selector:     "fr",
			},
			want: "Bonjour\n",
		},
		{
			name:       "default context key",
			identifier: "Values",
			params:     []string{"greeting"},
			opts: runOptions{
				ContextFlags: cmdutil.ContextFlags{Set: []string{"default.greeting=Hi"}},
			},
			want: "Hi\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			opts := tt.opts
			err := runRun(context.Background(), tt.identifier, tt.params, &opts, testGlobals(&out))
			require.NoError(t, err)
			assert.Equal(t, tt.want, out.String())
		})
	}
}

func TestRunRun_JSON(t *testing.T) {
	var out bytes.Buffer
	g := testGlobals(&out)
	g.Output = "json"

	require.NoError(t, runRun(context.Background(), "Strings::upper", []string{"abc"}, &runOptions{}, g))

	var got runResult
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	assert.Equal(t, runResult{Macro: "Strings::upper", Parameters: []string{"abc"}, Result: "ABC"}, got)
}

func TestRunRun_Errors(t *testing.T) {
	tests := []struct {
		name       string
		identifier string
		wantErr    error
	}{
		{"unknown macro", "Ghost", macro.ErrMissingHandler},
		{"unknown method", "Strings::nope", macro.ErrMissingHandlerMethod},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			err := runRun(context.Background(), tt.identifier, nil, &runOptions{}, testGlobals(&out))
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Contains(t, err.Error(), "failed to run "+tt.identifier)
		})
	}
}

func TestRunRun_InvalidContext(t *testing.T) {
	var out bytes.Buffer
	opts := &runOptions{ContextFlags: cmdutil.ContextFlags{Set: []string{"zone=Mars/Olympus"}}, selector: "zone"}

	err := runRun(context.Background(), "Dates", nil, opts, testGlobals(&out))
	require.Error(t, err)
	assert.ErrorIs(t, err, macro.ErrInvalidContext)
}
