package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	cfg, err := Load()
	require.NoError(t, err)

	assert.InDelta(t, 0.001, cfg.Codegen.Dt, 1e-12)
	assert.Equal(t, 10, cfg.Codegen.MaxDepth)
	assert.Equal(t, "        ", cfg.Codegen.Indent)
	assert.Equal(t, 500, cfg.Watch.DebounceMs)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "oc.toml")
	content := `
[codegen]
dt = 0.01
max_depth = 3

[watch]
debounce_ms = 100
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.InDelta(t, 0.01, cfg.Codegen.Dt, 1e-12)
	assert.Equal(t, 3, cfg.Codegen.MaxDepth)
	assert.Equal(t, 100, cfg.Watch.DebounceMs)
	// Untouched keys keep their defaults
	assert.Equal(t, "        ", cfg.Codegen.Indent)
}

func TestLoadFromFileMissing(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestLoadCaches(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	first, err := Load()
	require.NoError(t, err)
	second, err := Load()
	require.NoError(t, err)
	assert.Same(t, first, second)
}
