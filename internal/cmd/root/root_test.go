package root

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	for _, v := range []string{"MCR_URL", "MCR_EMAIL", "MCR_API_TOKEN", "MCR_CONTEXT_KEY", "MCR_CONTEXT_FILE",
		"ATLASSIAN_URL", "ATLASSIAN_EMAIL", "ATLASSIAN_API_TOKEN"} {
		t.Setenv(v, "")
	}

	cmd := NewCmdRoot()
	var out bytes.Buffer
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--no-color"}, args...))

	err := cmd.Execute()
	return out.String(), err
}

func TestRoot_Subcommands(t *testing.T) {
	cmd := NewCmdRoot()

	var names []string
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}
	for _, want := range []string{"expand", "validate", "run", "macros", "config", "init", "completion"} {
		assert.Contains(t, names, want)
	}
}

func TestRoot_Expand(t *testing.T) {
	out, err := execute(t, "Hi {=Values(name)=}\n", "expand", "--set", "default.name=Ada")
	require.NoError(t, err)
	assert.Equal(t, "Hi Ada\n", out)
}

func TestRoot_Run(t *testing.T) {
	out, err := execute(t, "", "run", "Strings::upper", "shout")
	require.NoError(t, err)
	assert.Equal(t, "SHOUT\n", out)
}

func TestRoot_ValidateFails(t *testing.T) {
	out, err := execute(t, "{=Ghost=}", "validate", "-o", "plain")
	require.Error(t, err)
	assert.Equal(t, "stdin:1: MissingHandler: macro 'Ghost' could not be found\n", out)
}

func TestRoot_InvalidGlobals(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"output", []string{"-o", "xml", "macros", "list"}, "invalid output format"},
		{"log level", []string{"--log-level", "loud", "macros", "list"}, "invalid log level"},
		{"log format", []string{"--log-format", "xml", "macros", "list"}, "invalid log format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, "", tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestRoot_DebugLogging(t *testing.T) {
	out, err := execute(t, "", "--log-level", "debug", "run", "Strings", "a")
	require.NoError(t, err)
	assert.Contains(t, out, "Macro resolved.")
	assert.Contains(t, out, "macro=Strings")
}

func TestRoot_Version(t *testing.T) {
	out, err := execute(t, "", "--version")
	require.NoError(t, err)
	assert.Contains(t, out, "mcr version dev")
}
