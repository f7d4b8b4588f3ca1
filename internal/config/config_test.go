package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadAppliesDefaultsAndValidates(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
llm:
  endpoint: https://example.test/v1
  api_key: sk-test
  model: claude-test
sandbox:
  endpoint: https://sandbox.test
  api_key: sandbox-key
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 100, cfg.Loop.MaxIterations)
	assert.Equal(t, -100, cfg.LLM.BiasStrength)
	assert.Equal(t, "/workspace", cfg.Sandbox.WorkspaceMount)
}

func TestLoadMissingRequiredFieldsFails(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`llm:
  model: claude-test
`), 0o600))

	_, err := Load(path)
	require.Error(t, err)
	var cfgErr *Error
	assert.ErrorAs(t, err, &cfgErr)
}

func TestEnvOverlayOverridesFileValues(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
llm:
  endpoint: https://example.test/v1
  api_key: sk-test
  model: claude-test
sandbox:
  endpoint: https://sandbox.test
  api_key: sandbox-key
`), 0o600))

	t.Setenv("AGENTCORE_MAX_ITERATIONS", "42")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 42, cfg.Loop.MaxIterations)
}
