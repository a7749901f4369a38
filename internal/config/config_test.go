package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"trawl/internal/config"
	trawlerrors "trawl/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Helper to write a temporary YAML config file.
func createTestYAML(t *testing.T, content string) string {
	t.Helper()
	tmpFile, err := os.CreateTemp(t.TempDir(), "config-*.yaml")
	require.NoError(t, err)
	_, err = tmpFile.WriteString(content)
	require.NoError(t, err)
	require.NoError(t, tmpFile.Close())
	return tmpFile.Name()
}

const validYAML = `
daemon:
  url: "http://seedbox:9091/transmission/rpc"
  username: "admin"
  password: "hunter2"
  timeout: 10
refresh:
  interval: 5
  websocket: true
watch:
  enabled: true
  directories: ["/downloads/torrents"]
  post_add: "delete"
display:
  show_done: true
`

func TestLoadConfigFile(t *testing.T) {
	path := createTestYAML(t, validYAML)

	cfg, err := config.LoadConfigFile(path)
	require.NoError(t, err)

	assert.Equal(t, "http://seedbox:9091/transmission/rpc", cfg.Daemon.URL)
	assert.Equal(t, "admin", cfg.Daemon.Username)
	assert.Equal(t, 10*time.Second, cfg.RequestTimeout())
	assert.Equal(t, 5*time.Second, cfg.PollInterval())
	assert.True(t, cfg.Refresh.WebSocket)
	assert.Equal(t, []string{"/downloads/torrents"}, cfg.Watch.Directories)
	assert.Equal(t, "delete", cfg.Watch.PostAdd)
}

func TestLoadConfigFileDefaults(t *testing.T) {
	// A missing file falls back to defaults rather than failing.
	cfg, err := config.LoadConfigFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:9091/transmission/rpc", cfg.Daemon.URL)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout())
	assert.Equal(t, "rename", cfg.Watch.PostAdd)
	assert.False(t, cfg.Refresh.WebSocket)
}

func TestLoadConfigFilePartial(t *testing.T) {
	// Unset fields keep their defaults.
	path := createTestYAML(t, "daemon:\n  url: \"http://other:9091/rpc\"\n")

	cfg, err := config.LoadConfigFile(path)
	require.NoError(t, err)

	assert.Equal(t, "http://other:9091/rpc", cfg.Daemon.URL)
	assert.Equal(t, 30, cfg.Daemon.Timeout)
	assert.Equal(t, 3, cfg.Refresh.Interval)
}

func TestLoadConfigFileBadSyntax(t *testing.T) {
	path := createTestYAML(t, "daemon: [unclosed\n")

	_, err := config.LoadConfigFile(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"missing url", func(c *config.Config) { c.Daemon.URL = "" }},
		{"bad scheme", func(c *config.Config) { c.Daemon.URL = "ftp://x:9091" }},
		{"no host", func(c *config.Config) { c.Daemon.URL = "http://" }},
		{"zero timeout", func(c *config.Config) { c.Daemon.Timeout = 0 }},
		{"zero interval", func(c *config.Config) { c.Refresh.Interval = 0 }},
		{"bad post_add", func(c *config.Config) { c.Watch.PostAdd = "shred" }},
		{"empty watch dir", func(c *config.Config) {
			c.Watch.Enabled = true
			c.Watch.Directories = []string{""}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.New()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, trawlerrors.IsInvalidConfig(err))
		})
	}

	t.Run("defaults are valid", func(t *testing.T) {
		assert.NoError(t, config.New().Validate())
	})
}

func TestSaveConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")

	cfg := config.New()
	cfg.Daemon.URL = "http://nas:9091/transmission/rpc"
	cfg.Watch.Enabled = true
	cfg.Watch.Directories = []string{"/incoming"}
	require.NoError(t, config.SaveConfig(cfg, path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded, err := config.LoadConfigFile(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Daemon.URL, loaded.Daemon.URL)
	assert.Equal(t, cfg.Watch.Directories, loaded.Watch.Directories)
}
