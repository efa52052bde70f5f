package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "bidwatch", cfg.Name)
	assert.Equal(t, "deepseek-chat", cfg.LLM.Model)
	assert.Equal(t, 8, cfg.Memory.BufferWindow)
	assert.Equal(t, 15, cfg.Memory.SummarizeThreshold)
	assert.Equal(t, 50, cfg.Memory.MaxStored)
	assert.InDelta(t, 0.7, cfg.Memory.BudgetFraction, 1e-9)
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	dir := t.TempDir()
	body := "llm:\n  model: deepseek-reasoner\nmemory:\n  buffer_window: 4\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(body), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "deepseek-reasoner", cfg.LLM.Model)
	assert.Equal(t, 4, cfg.Memory.BufferWindow)
	// Unset fields keep defaults.
	assert.Equal(t, 15, cfg.Memory.SummarizeThreshold)
	assert.Equal(t, "https://api.deepseek.com", cfg.LLM.BaseURL)
}

func TestLoadMalformedFileErrors(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("llm: [broken"), 0o644))

	_, err := Load(dir)
	assert.Error(t, err)
}

func TestEnvOverridesWinOverFile(t *testing.T) {
	dir := t.TempDir()
	body := "llm:\n  api_key: from-file\n  model: from-file-model\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(body), 0o644))

	t.Setenv("BIDWATCH_API_KEY", "from-env")
	t.Setenv("BIDWATCH_MODEL", "env-model")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.LLM.APIKey)
	assert.Equal(t, "env-model", cfg.LLM.Model)
}

func TestEnvOverridePrecedenceOrder(t *testing.T) {
	t.Setenv("BIDWATCH_API_KEY", "primary")
	t.Setenv("DEEPSEEK_API_KEY", "secondary")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "primary", cfg.LLM.APIKey)
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()

	cfg := DefaultConfig()
	cfg.LLM.Model = "deepseek-reasoner"
	cfg.Memory.MaxStored = 99
	require.NoError(t, cfg.Save(dir))

	loaded, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "deepseek-reasoner", loaded.LLM.Model)
	assert.Equal(t, 99, loaded.Memory.MaxStored)
}
