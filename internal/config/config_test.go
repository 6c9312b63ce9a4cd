package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoadDefaultsWhenFileAbsent(t *testing.T) {
	os.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "missing.yaml"))
	defer os.Unsetenv("CONFIG_PATH")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 6, cfg.Eval.MaxDepth)
	assert.Equal(t, 7, cfg.Interactive.MaxDepth)
	assert.Contains(t, cfg.URLBlocklist, "reddit.com")
}

func TestLoadOverridesFromYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "research.yaml")
	contents := `
eval:
  max_depth: 4
  max_failed_attempts: 2
url_blocklist:
  - example-blocked.com
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	os.Setenv("CONFIG_PATH", path)
	defer os.Unsetenv("CONFIG_PATH")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Eval.MaxDepth)
	assert.Equal(t, 2, cfg.Eval.MaxFailedAttempts)
	assert.Equal(t, []string{"example-blocked.com"}, cfg.URLBlocklist)
	// Interactive block wasn't present in the override file, so defaults survive.
	assert.Equal(t, 7, cfg.Interactive.MaxDepth)
}

func TestManagerLoadsResearchYAMLOnStart(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "research.yaml")
	require.NoError(t, os.WriteFile(path, []byte("eval:\n  max_depth: 5\n"), 0o644))

	mgr, err := NewConfigManager(dir, zap.NewNop())
	require.NoError(t, err)
	defer mgr.Stop()

	reloaded := make(chan ChangeEvent, 1)
	mgr.RegisterHandler("research.yaml", func(evt ChangeEvent) error {
		reloaded <- evt
		return nil
	})

	require.NoError(t, mgr.Start(context.Background()))

	got, ok := mgr.GetConfig("research.yaml")
	require.True(t, ok)
	assert.NotEmpty(t, got)
}
