package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// For mocking in tests
var osUserHomeDir = os.UserHomeDir
var osGetwd = os.Getwd

const (
	userConfigDir    = ".config/mcmon"
	projectConfigDir = ".mcmon"
	configFileName   = "config.yaml"

	// EnvAPIURL overrides api.baseURL after all files are merged.
	EnvAPIURL = "MCMON_API_URL"
)

// Override adjusts the merged configuration before it is validated.
// Command-line flags are applied this way.
type Override func(*Config)

// LoadConfig layers the defaults, the user file, the project file and, when
// explicitPath is not empty, that file on top. Missing user/project files are
// skipped; a missing explicit file is an error. The environment and then
// overrides are applied last.
func LoadConfig(explicitPath string, overrides ...Override) (Config, error) {
	cfg := GetDefaultConfig()

	for _, getPath := range []func() (string, error){getUserConfigPath, getProjectConfigPath} {
		path, err := getPath()
		if err != nil {
			// Optional layer; the location just can't be resolved here.
			continue
		}
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			continue
		}
		overlay, err := loadConfigFromFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("error loading config from %s: %w", path, err)
		}
		cfg = mergeConfigs(cfg, overlay)
	}

	if explicitPath != "" {
		overlay, err := loadConfigFromFile(explicitPath)
		if err != nil {
			return Config{}, fmt.Errorf("error loading config from %s: %w", explicitPath, err)
		}
		cfg = mergeConfigs(cfg, overlay)
	}

	if v := os.Getenv(EnvAPIURL); v != "" {
		cfg.API.BaseURL = v
	}
	for _, o := range overrides {
		o(&cfg)
	}

	return cfg, cfg.Validate()
}

var getUserConfigPath = func() (string, error) {
	homeDir, err := osUserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, userConfigDir, configFileName), nil
}

var getProjectConfigPath = func() (string, error) {
	wd, err := osGetwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(wd, projectConfigDir, configFileName), nil
}

func loadConfigFromFile(filePath string) (Config, error) {
	var cfg Config
	data, err := os.ReadFile(filePath)
	if err != nil {
		return Config{}, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// mergeConfigs merges 'overlay' into 'base'. Zero values in overlay leave the
// base untouched.
func mergeConfigs(base, overlay Config) Config {
	merged := base

	if overlay.API.BaseURL != "" {
		merged.API.BaseURL = overlay.API.BaseURL
	}
	if overlay.API.Timeout != 0 {
		merged.API.Timeout = overlay.API.Timeout
	}
	if overlay.Poll.Interval != 0 {
		merged.Poll.Interval = overlay.Poll.Interval
	}
	if overlay.Stream.ReconnectDelay != 0 {
		merged.Stream.ReconnectDelay = overlay.Stream.ReconnectDelay
	}
	if overlay.Logs.Capacity != 0 {
		merged.Logs.Capacity = overlay.Logs.Capacity
	}
	if overlay.Logs.ScrollThreshold != nil {
		v := *overlay.Logs.ScrollThreshold
		merged.Logs.ScrollThreshold = &v
	}
	if overlay.UI.ColorMode != "" {
		merged.UI.ColorMode = overlay.UI.ColorMode
	}
	if overlay.Update.Repository != "" {
		merged.Update.Repository = overlay.Update.Repository
	}

	return merged
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil {
		return fmt.Errorf("api.baseURL: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("api.baseURL: %q is not an http(s) URL", c.API.BaseURL)
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf("api.timeout must be > 0")
	}
	if c.Poll.Interval <= 0 {
		return fmt.Errorf("poll.interval must be > 0")
	}
	if c.Stream.ReconnectDelay <= 0 {
		return fmt.Errorf("stream.reconnectDelay must be > 0")
	}
	if c.Logs.Capacity <= 0 {
		return fmt.Errorf("logs.capacity must be > 0")
	}
	if c.Logs.Threshold() < 0 {
		return fmt.Errorf("logs.scrollThreshold must be >= 0")
	}
	switch c.UI.ColorMode {
	case "auto", "dark", "light":
	default:
		return fmt.Errorf("ui.colorMode: unknown mode %q", c.UI.ColorMode)
	}
	return nil
}

// SaveUserSettings stores the API base URL and, when positive, the poll
// interval in the user config file. Other settings already in the file are
// kept. It returns the path written.
func SaveUserSettings(baseURL string, interval time.Duration) (string, error) {
	path, err := getUserConfigPath()
	if err != nil {
		return "", err
	}

	var cfg Config
	if _, err := os.Stat(path); err == nil {
		if cfg, err = loadConfigFromFile(path); err != nil {
			return "", fmt.Errorf("error loading config from %s: %w", path, err)
		}
	}
	cfg.API.BaseURL = baseURL
	if interval > 0 {
		cfg.Poll.Interval = interval
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", err
	}
	return path, nil
}

// GetUserConfigDir returns the user configuration directory path.
func GetUserConfigDir() (string, error) {
	homeDir, err := osUserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, userConfigDir), nil
}
