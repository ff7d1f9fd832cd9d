package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bamsammich/cloudmig/internal/config"
)

func writeConfig(t *testing.T, content string) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	configDir := filepath.Join(dir, "cloudmig")
	require.NoError(t, os.MkdirAll(configDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(configDir, "config.toml"), []byte(content), 0o644))
}

func TestLoad_MissingFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Nil(t, cfg.Defaults.Dehydrate)
	assert.Nil(t, cfg.Defaults.MaxPath)
	assert.Nil(t, cfg.Theme.Green)
}

func TestLoad_FullConfig(t *testing.T) {
	writeConfig(t, `
[defaults]
dehydrate = "all"
skip_names = ["~$lock", ".sync"]
exclude = ["*.tmp", "/cache/"]
max_path = 400
hydrate_timeout = "45m"
buffer_size = "8MiB"
bwlimit = "50M"
placeholders = "xattr"
journal = "auto"
log = "/tmp/cloudmig.log"

[theme]
green = "#00ff00"
red = "#ff0000"
`)

	cfg, err := config.Load()
	require.NoError(t, err)

	d := cfg.Defaults
	require.NotNil(t, d.Dehydrate)
	assert.Equal(t, "all", *d.Dehydrate)
	require.NotNil(t, d.SkipNames)
	assert.Equal(t, []string{"~$lock", ".sync"}, *d.SkipNames)
	require.NotNil(t, d.Exclude)
	assert.Len(t, *d.Exclude, 2)
	require.NotNil(t, d.MaxPath)
	assert.Equal(t, 400, *d.MaxPath)
	require.NotNil(t, d.HydrateTimeout)
	assert.Equal(t, 45*time.Minute, d.HydrateTimeout.Duration)
	require.NotNil(t, d.BufferSize)
	assert.Equal(t, "8MiB", *d.BufferSize)
	require.NotNil(t, d.BWLimit)
	assert.Equal(t, "50M", *d.BWLimit)
	require.NotNil(t, d.Placeholders)
	assert.Equal(t, "xattr", *d.Placeholders)
	require.NotNil(t, d.Journal)
	require.NotNil(t, d.Log)

	require.NotNil(t, cfg.Theme.Green)
	assert.Equal(t, "#00ff00", *cfg.Theme.Green)
	require.NotNil(t, cfg.Theme.Red)

	// Unset fields should remain nil.
	assert.Nil(t, d.SkipFile)
	assert.Nil(t, cfg.Theme.Blue)
	assert.Nil(t, cfg.Theme.Bright)
}

func TestLoad_PartialConfig(t *testing.T) {
	writeConfig(t, `
[theme]
bright = "#ffffff"
`)

	cfg, err := config.Load()
	require.NoError(t, err)

	// Defaults section entirely absent.
	assert.Nil(t, cfg.Defaults.Dehydrate)
	assert.Nil(t, cfg.Defaults.HydrateTimeout)

	require.NotNil(t, cfg.Theme.Bright)
	assert.Equal(t, "#ffffff", *cfg.Theme.Bright)
}

func TestLoad_InvalidTOML(t *testing.T) {
	writeConfig(t, "invalid [[[")

	_, err := config.Load()
	assert.Error(t, err)
}

func TestLoad_BadDuration(t *testing.T) {
	writeConfig(t, "[defaults]\nhydrate_timeout = \"forever\"\n")

	_, err := config.Load()
	assert.Error(t, err)
}

func TestLoad_UnknownKey(t *testing.T) {
	writeConfig(t, "[defaults]\nworkers = 8\n")

	_, err := config.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "workers")
}

func TestConfigPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/custom/config")
	assert.Equal(t, filepath.Join("/custom/config", "cloudmig", "config.toml"), config.Path())
}
