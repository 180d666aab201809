// Package config loads fieldsync configuration from file, environment and
// defaults, and persists user-changed sync settings back to the file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/dcampos/fieldsync/internal/engine"
	"github.com/dcampos/fieldsync/internal/store"
)

// Config is the resolved process configuration.
type Config struct {
	// RemoteURL is the base URL of the backend API.
	RemoteURL string `mapstructure:"remote_url"`

	// Token is the bearer token (standard or device-local shape).
	Token string `mapstructure:"token"`

	// SalesRepID scopes partial downloads to the logged-in rep.
	SalesRepID string `mapstructure:"sales_rep_id"`

	// Backend selects the local store implementation.
	Backend string `mapstructure:"backend"`

	// DataDir holds the store, checkpoint and logs.
	DataDir string `mapstructure:"data_dir"`

	// DenyListFile optionally extends the seed-guard patterns.
	DenyListFile string `mapstructure:"deny_list_file"`

	// DashboardPort is where the status dashboard listens.
	DashboardPort int `mapstructure:"dashboard_port"`

	// Sync holds the user-tunable sync settings.
	Sync engine.SyncSettings `mapstructure:"sync"`

	v *viper.Viper
}

// DefaultDir returns the default configuration/data directory.
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".fieldsync"
	}
	return filepath.Join(home, ".fieldsync")
}

// Load reads configuration from path (or the default location when empty),
// applying FIELDSYNC_* environment overrides on top. A missing config file is
// fine; defaults apply.
func Load(path string) (*Config, error) {
	v := viper.New()

	dir := DefaultDir()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(dir)
	}

	v.SetEnvPrefix("FIELDSYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := engine.DefaultSyncSettings()
	// Empty defaults register the keys so AutomaticEnv reaches Unmarshal.
	v.SetDefault("remote_url", "")
	v.SetDefault("token", "")
	v.SetDefault("sales_rep_id", "")
	v.SetDefault("deny_list_file", "")
	v.SetDefault("backend", string(store.BackendSQLite))
	v.SetDefault("data_dir", dir)
	v.SetDefault("dashboard_port", 8384)
	v.SetDefault("sync.auto_sync", defaults.AutoSync)
	v.SetDefault("sync.interval", defaults.Interval)
	v.SetDefault("sync.wifi_only", defaults.WifiOnly)

	// A missing config file (searched or explicit) is not an error.
	if err := v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.v = v
	return &cfg, nil
}

// StorePath returns the path handed to the store backend.
func (c *Config) StorePath() string {
	switch store.Backend(c.Backend) {
	case store.BackendKVFile:
		return filepath.Join(c.DataDir, "tables")
	default:
		return filepath.Join(c.DataDir, "fieldsync.db")
	}
}

// CheckpointPath returns the last_sync checkpoint file location, deliberately
// outside the store path so it survives a store reset.
func (c *Config) CheckpointPath() string {
	return filepath.Join(c.DataDir, "last_sync")
}

// LogDir returns the rotating log directory.
func (c *Config) LogDir() string {
	return filepath.Join(c.DataDir, "logs")
}

// GetSyncSettings implements engine.SettingsStore.
func (c *Config) GetSyncSettings() engine.SyncSettings {
	return c.Sync
}

// UpdateSyncSettings implements engine.SettingsStore, writing the new values
// back to the config file.
func (c *Config) UpdateSyncSettings(s engine.SyncSettings) error {
	c.Sync = s
	c.v.Set("sync.auto_sync", s.AutoSync)
	c.v.Set("sync.interval", s.Interval.String())
	c.v.Set("sync.wifi_only", s.WifiOnly)

	if err := os.MkdirAll(c.DataDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if c.v.ConfigFileUsed() == "" {
		c.v.SetConfigFile(filepath.Join(c.DataDir, "config.yaml"))
	}
	if err := c.v.WriteConfig(); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Validate checks the fields required for network operation.
func (c *Config) Validate() error {
	if c.RemoteURL == "" {
		return fmt.Errorf("remote_url is required (set it in config.yaml or FIELDSYNC_REMOTE_URL)")
	}
	if c.Token == "" {
		return fmt.Errorf("token is required (set it in config.yaml or FIELDSYNC_TOKEN)")
	}
	if !store.IsRegistered(store.Backend(c.Backend)) {
		return fmt.Errorf("unknown storage backend %q", c.Backend)
	}
	return nil
}

// ParseInterval is a helper for CLI flags that accept Go duration strings.
func ParseInterval(s string) (time.Duration, error) {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid interval %q: %w", s, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("interval must be positive")
	}
	return d, nil
}
