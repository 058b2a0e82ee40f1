package config

import "time"

const (
	DefaultBaseURL         = "http://localhost:7860/api"
	DefaultTimeout         = 10 * time.Second
	DefaultPollInterval    = 5 * time.Second
	DefaultReconnectDelay  = 5 * time.Second
	DefaultLogCapacity     = 1000
	DefaultScrollThreshold = 0 // terminal lines
	DefaultColorMode       = "auto"
	DefaultRepository      = "nemoproj/mcmon"
)

// GetDefaultConfig returns the built-in configuration.
func GetDefaultConfig() Config {
	threshold := DefaultScrollThreshold
	return Config{
		API: APIConfig{
			BaseURL: DefaultBaseURL,
			Timeout: DefaultTimeout,
		},
		Poll:   PollConfig{Interval: DefaultPollInterval},
		Stream: StreamConfig{ReconnectDelay: DefaultReconnectDelay},
		Logs: LogsConfig{
			Capacity:        DefaultLogCapacity,
			ScrollThreshold: &threshold,
		},
		UI:     UIConfig{ColorMode: DefaultColorMode},
		Update: UpdateConfig{Repository: DefaultRepository},
	}
}
