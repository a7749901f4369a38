package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"trawl/internal/errors"
)

// Config represents the application configuration structure.
// It defines the daemon connection, refresh behavior, watch directories,
// and display settings.
type Config struct {
	Daemon struct {
		URL      string `yaml:"url"`      // RPC endpoint, e.g. http://localhost:9091/transmission/rpc
		Username string `yaml:"username"` // Basic-auth user, empty to disable auth
		Password string `yaml:"password"` // Basic-auth password
		Timeout  int    `yaml:"timeout"`  // Per-request timeout in seconds
	} `yaml:"daemon"`
	Refresh struct {
		Interval  int    `yaml:"interval"`   // Poll interval in seconds
		WebSocket bool   `yaml:"websocket"`  // Prefer a websocket event feed over polling
		EventsURL string `yaml:"events_url"` // Websocket endpoint, derived from daemon URL when empty
	} `yaml:"refresh"`
	Watch struct {
		Enabled     bool     `yaml:"enabled"`      // Watch directories for .torrent files
		Directories []string `yaml:"directories"`  // Directories to watch
		PostAdd     string   `yaml:"post_add"`     // What to do with the file after adding: rename, delete, or keep
		StartPaused bool     `yaml:"start_paused"` // Add watched torrents in the stopped state
	} `yaml:"watch"`
	Display struct {
		Theme    string `yaml:"theme"`     // Theme name
		ShowDone bool   `yaml:"show_done"` // Show completed torrents in the list
	} `yaml:"display"`
	LogFile string `yaml:"log_file"` // Log destination while the TUI owns the terminal
}

// LoadConfig loads configuration from the default location
// (~/.config/trawl/config.yaml).
func LoadConfig() (*Config, error) {
	path, err := DefaultPath()
	if err != nil {
		return nil, err
	}
	return LoadConfigFile(path)
}

// DefaultPath returns the default config file location.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "trawl", "config.yaml"), nil
}

// LoadConfigFile loads configuration from a specific file path.
// If the file doesn't exist, returns default configuration.
func LoadConfigFile(path string) (*Config, error) {
	// Start with default configuration
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil // Return defaults if file doesn't exist
		}
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// Unmarshal into a temporary config to preserve defaults for unset fields
	var tempCfg Config
	if err := yaml.Unmarshal(data, &tempCfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	// Merge the loaded config with defaults
	if tempCfg.Daemon.URL != "" {
		cfg.Daemon.URL = tempCfg.Daemon.URL
	}
	cfg.Daemon.Username = tempCfg.Daemon.Username
	cfg.Daemon.Password = tempCfg.Daemon.Password
	if tempCfg.Daemon.Timeout > 0 {
		cfg.Daemon.Timeout = tempCfg.Daemon.Timeout
	}

	if tempCfg.Refresh.Interval > 0 {
		cfg.Refresh.Interval = tempCfg.Refresh.Interval
	}
	cfg.Refresh.WebSocket = tempCfg.Refresh.WebSocket
	if tempCfg.Refresh.EventsURL != "" {
		cfg.Refresh.EventsURL = tempCfg.Refresh.EventsURL
	}

	cfg.Watch.Enabled = tempCfg.Watch.Enabled
	if len(tempCfg.Watch.Directories) > 0 {
		cfg.Watch.Directories = tempCfg.Watch.Directories
	}
	if tempCfg.Watch.PostAdd != "" {
		cfg.Watch.PostAdd = tempCfg.Watch.PostAdd
	}
	cfg.Watch.StartPaused = tempCfg.Watch.StartPaused

	if tempCfg.Display.Theme != "" {
		cfg.Display.Theme = tempCfg.Display.Theme
	}
	cfg.Display.ShowDone = tempCfg.Display.ShowDone

	if tempCfg.LogFile != "" {
		cfg.LogFile = tempCfg.LogFile
	}

	// Validate the final configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns the default configuration with safe defaults.
func defaultConfig() *Config {
	cfg := &Config{}

	cfg.Daemon.URL = "http://localhost:9091/transmission/rpc"
	cfg.Daemon.Timeout = 30

	cfg.Refresh.Interval = 3
	cfg.Refresh.WebSocket = false

	cfg.Watch.Enabled = false
	cfg.Watch.Directories = []string{}
	cfg.Watch.PostAdd = "rename"

	cfg.Display.Theme = "default"
	cfg.Display.ShowDone = true

	return cfg
}

// SaveConfig saves the configuration to the specified file.
// It creates parent directories if they don't exist.
func SaveConfig(cfg *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// RequestTimeout returns the per-request timeout as a duration.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Daemon.Timeout) * time.Second
}

// PollInterval returns the refresh interval as a duration.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Refresh.Interval) * time.Second
}

// Validate checks if the configuration is valid.
// Returns error if any settings are invalid.
func (c *Config) Validate() error {
	if c == nil {
		return errors.NewConfigError("nil config", "", errors.InvalidConfig, nil)
	}

	u, err := url.Parse(c.Daemon.URL)
	if err != nil {
		return errors.NewConfigError("invalid daemon url", "daemon.url", errors.InvalidConfig, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.NewConfigError(fmt.Sprintf("daemon url must be http or https, got %q", u.Scheme), "daemon.url", errors.InvalidConfig, nil)
	}
	if u.Host == "" {
		return errors.NewConfigError("daemon url is missing a host", "daemon.url", errors.InvalidConfig, nil)
	}

	if c.Daemon.Timeout < 1 {
		return errors.NewConfigError("daemon timeout must be >= 1 second", "daemon.timeout", errors.InvalidConfig, nil)
	}

	if c.Refresh.Interval < 1 {
		return errors.NewConfigError("refresh interval must be >= 1 second", "refresh.interval", errors.InvalidConfig, nil)
	}

	validPostAdd := map[string]bool{"rename": true, "delete": true, "keep": true}
	if !validPostAdd[c.Watch.PostAdd] {
		return errors.NewConfigError(fmt.Sprintf("invalid post_add setting: %s", c.Watch.PostAdd), "watch.post_add", errors.InvalidConfig, nil)
	}

	if c.Watch.Enabled && len(c.Watch.Directories) == 0 {
		return errors.NewConfigError("watch is enabled but no directories are configured", "watch.directories", errors.InvalidConfig, nil)
	}
	for _, dir := range c.Watch.Directories {
		if dir == "" {
			return errors.NewConfigError("watch directory path cannot be empty", "watch.directories", errors.InvalidConfig, nil)
		}
	}

	return nil
}

// NewTestConfig creates a configuration instance for testing purposes.
func NewTestConfig() *Config {
	cfg := defaultConfig()
	cfg.Daemon.URL = "http://localhost:9091/transmission/rpc"
	cfg.Daemon.Timeout = 5
	cfg.Refresh.Interval = 1
	return cfg
}

// New creates a new configuration instance with default values.
func New() *Config {
	return defaultConfig()
}
