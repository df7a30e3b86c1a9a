package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// appDir is the directory under the user config dir holding all keyresolver files.
const appDir = "keyresolver"

// DefaultPartialTimeoutMs is how long a partially matched sequence waits for the next stroke.
const DefaultPartialTimeoutMs = 1000

// userConfigDir is swapped in tests.
var userConfigDir = os.UserConfigDir

// Settings holds user-configurable options.
type Settings struct {
	PanelVisible     bool `yaml:"panelVisible"`     // Key Binding Resolver panel attached
	PartialTimeoutMs int  `yaml:"partialTimeoutMs"` // Pending sequence timeout
	ShowReleases     bool `yaml:"showReleases"`     // Synthesize a key-up after every key press
}

// DefaultSettings returns the default settings.
func DefaultSettings() *Settings {
	return &Settings{
		PanelVisible:     true,
		PartialTimeoutMs: DefaultPartialTimeoutMs,
		ShowReleases:     false, // Terminals report no releases
	}
}

// Dir returns the keyresolver config directory.
func Dir() (string, error) {
	configDir, err := userConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, appDir), nil
}

// settingsPath returns the path to the settings file.
func settingsPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "settings.yaml"), nil
}

// LoadSettings loads settings from disk, returning defaults if not found.
func LoadSettings() (*Settings, error) {
	path, err := settingsPath()
	if err != nil {
		return DefaultSettings(), nil
	}

	// #nosec G304 - path is constructed from trusted sources
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultSettings(), nil
		}
		return DefaultSettings(), err
	}

	// Start from defaults so keys missing from an older file keep their default.
	settings := DefaultSettings()
	if err := yaml.Unmarshal(data, settings); err != nil {
		return DefaultSettings(), err
	}
	if settings.PartialTimeoutMs <= 0 {
		settings.PartialTimeoutMs = DefaultPartialTimeoutMs
	}

	return settings, nil
}

// SaveSettings writes settings to disk.
func SaveSettings(s *Settings) error {
	path, err := settingsPath()
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return err
	}

	data, err := yaml.Marshal(s)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600)
}

// CurrentSettings holds the loaded settings (singleton).
var CurrentSettings *Settings

// InitSettings initializes the global settings.
func InitSettings() error {
	settings, err := LoadSettings()
	if err != nil {
		return err
	}
	CurrentSettings = settings
	return nil
}

func init() {
	// Initialize with default settings on package load
	CurrentSettings = DefaultSettings()
}
