package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	viper.Reset()
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9210, cfg.DaemonPort)
	assert.Equal(t, 500*time.Millisecond, cfg.DebounceInterval)
	assert.Equal(t, 2*time.Second, cfg.TargetDebounce)
	assert.Equal(t, 5*time.Minute, cfg.FullSyncInterval)
	assert.Equal(t, 3, cfg.MaxConcurrentJobs)
	assert.Contains(t, cfg.IgnoreList, ".git")
	assert.False(t, cfg.GDriveBackup.Enabled)

	require.Len(t, cfg.Adapters, 2)
	assert.Equal(t, "claude", cfg.Adapters[0].Name)
	assert.Equal(t, "cursor", cfg.Adapters[1].Name)
}

func TestLoad_FileOverrides(t *testing.T) {
	viper.Reset()
	home := t.TempDir()
	t.Setenv("HOME", home)

	dir := filepath.Join(home, ".myai")
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(`
daemon_port: 9999
target_debounce: 10s
adapters:
  - name: zed
    agent_dir: /tmp/zed/agents
`), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9999, cfg.DaemonPort)
	assert.Equal(t, 10*time.Second, cfg.TargetDebounce)
	require.Len(t, cfg.Adapters, 1)
	assert.Equal(t, "zed", cfg.Adapters[0].Name)

	// Untouched keys keep their defaults.
	assert.Equal(t, 3, cfg.MaxConcurrentJobs)
}

func TestDir_CreatesBaseDir(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	dir, err := Dir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".myai"), dir)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
