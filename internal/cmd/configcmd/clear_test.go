package configcmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/open-cli-collective/macro-cli/internal/config"
)

func TestRunClear_WithExistingConfig(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "mcr", "config.yml")
	require.NoError(t, (&config.Config{ContextKey: "en"}).Save(path))

	var out bytes.Buffer
	require.NoError(t, runClear(path, true, &out))
	assert.Contains(t, out.String(), "✓ Configuration cleared from "+path)

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestRunClear_NoConfigFile(t *testing.T) {
	clearEnv(t)

	var out bytes.Buffer
	require.NoError(t, runClear(filepath.Join(t.TempDir(), "config.yml"), true, &out))
	assert.Equal(t, "✓ No config file to remove\n", out.String())
}

func TestRunClear_Idempotent(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yml")

	var out bytes.Buffer
	require.NoError(t, runClear(path, true, &out))
	require.NoError(t, runClear(path, true, &out))
}

func TestRunClear_ReportsEnvVars(t *testing.T) {
	clearEnv(t)
	t.Setenv("MCR_CONTEXT_FILE", "/tmp/vars.yml")

	var out bytes.Buffer
	require.NoError(t, runClear(filepath.Join(t.TempDir(), "config.yml"), true, &out))
	assert.Contains(t, out.String(), "Environment variables will still be used: [MCR_CONTEXT_FILE]")
}
