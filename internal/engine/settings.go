package engine

import "time"

// SyncSettings are the user-tunable knobs surfaced by the settings screen.
type SyncSettings struct {
	// AutoSync enables the background daemon's periodic runs.
	AutoSync bool `json:"auto_sync" mapstructure:"auto_sync"`

	// Interval between automatic runs.
	Interval time.Duration `json:"interval" mapstructure:"interval"`

	// WifiOnly skips automatic runs on metered connections. The engine only
	// carries the flag; the platform layer decides what "Wi-Fi" means.
	WifiOnly bool `json:"wifi_only" mapstructure:"wifi_only"`
}

// DefaultSyncSettings returns the out-of-the-box settings.
func DefaultSyncSettings() SyncSettings {
	return SyncSettings{
		AutoSync: true,
		Interval: 15 * time.Minute,
		WifiOnly: false,
	}
}

// SettingsStore persists sync settings. Implemented by the config package.
type SettingsStore interface {
	GetSyncSettings() SyncSettings
	UpdateSyncSettings(SyncSettings) error
}
