package config

import "time"

// Config is the top-level configuration structure for mcmon.
type Config struct {
	API    APIConfig    `yaml:"api"`
	Poll   PollConfig   `yaml:"poll"`
	Stream StreamConfig `yaml:"stream"`
	Logs   LogsConfig   `yaml:"logs"`
	UI     UIConfig     `yaml:"ui"`
	Update UpdateConfig `yaml:"update"`
}

// APIConfig points at the managed service's control API.
type APIConfig struct {
	BaseURL string        `yaml:"baseURL,omitempty"` // e.g. "http://localhost:7860/api"
	Timeout time.Duration `yaml:"timeout,omitempty"` // per request; does not apply to the log stream
}

// PollConfig controls the status reconciliation loop.
type PollConfig struct {
	Interval time.Duration `yaml:"interval,omitempty"`
}

// StreamConfig controls the log stream consumer.
type StreamConfig struct {
	ReconnectDelay time.Duration `yaml:"reconnectDelay,omitempty"`
}

// LogsConfig controls the in-memory log buffer and auto-scroll.
type LogsConfig struct {
	Capacity        int  `yaml:"capacity,omitempty"`
	ScrollThreshold *int `yaml:"scrollThreshold,omitempty"` // pointer so an explicit 0 survives merging
}

// UIConfig holds presentation preferences.
type UIConfig struct {
	ColorMode string `yaml:"colorMode,omitempty"` // "auto", "dark" or "light"
}

// UpdateConfig configures self-update.
type UpdateConfig struct {
	Repository string `yaml:"repository,omitempty"` // GitHub "owner/name"
}

// Threshold returns the configured scroll threshold or the default.
func (l LogsConfig) Threshold() int {
	if l.ScrollThreshold == nil {
		return DefaultScrollThreshold
	}
	return *l.ScrollThreshold
}
