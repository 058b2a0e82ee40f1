package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points both optional layers at files that do not exist.
func isolate(t *testing.T) string {
	t.Helper()
	tempDir := t.TempDir()

	originalUser := getUserConfigPath
	originalProject := getProjectConfigPath
	t.Cleanup(func() {
		getUserConfigPath = originalUser
		getProjectConfigPath = originalProject
	})

	getUserConfigPath = func() (string, error) {
		return filepath.Join(tempDir, "no-user.yaml"), nil
	}
	getProjectConfigPath = func() (string, error) {
		return filepath.Join(tempDir, "no-project.yaml"), nil
	}
	t.Setenv(EnvAPIURL, "")
	return tempDir
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestLoadConfig_DefaultOnly(t *testing.T) {
	isolate(t)

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, DefaultBaseURL, cfg.API.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.Poll.Interval)
	assert.Equal(t, 5*time.Second, cfg.Stream.ReconnectDelay)
	assert.Equal(t, 1000, cfg.Logs.Capacity)
	assert.Equal(t, 0, cfg.Logs.Threshold())
}

func TestLoadConfig_Layering(t *testing.T) {
	tempDir := isolate(t)

	userPath := filepath.Join(tempDir, "home", userConfigDir, configFileName)
	projectPath := filepath.Join(tempDir, "proj", projectConfigDir, configFileName)
	getUserConfigPath = func() (string, error) { return userPath, nil }
	getProjectConfigPath = func() (string, error) { return projectPath, nil }

	writeFile(t, userPath, `
api:
  baseURL: http://user.example:7860/api
poll:
  interval: 2s
logs:
  capacity: 50
  scrollThreshold: 3
`)
	writeFile(t, projectPath, `
poll:
  interval: 3s
logs:
  scrollThreshold: 0
`)

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "http://user.example:7860/api", cfg.API.BaseURL)
	assert.Equal(t, 3*time.Second, cfg.Poll.Interval, "project overrides user")
	assert.Equal(t, 50, cfg.Logs.Capacity, "user value kept when project is silent")
	assert.Equal(t, 0, cfg.Logs.Threshold(), "explicit zero survives the merge")
	assert.Equal(t, DefaultReconnectDelay, cfg.Stream.ReconnectDelay)
}

func TestLoadConfig_ExplicitFileAndEnv(t *testing.T) {
	tempDir := isolate(t)

	explicit := filepath.Join(tempDir, "custom.yaml")
	writeFile(t, explicit, `
stream:
  reconnectDelay: 250ms
api:
  baseURL: http://file.example/api
`)
	t.Setenv(EnvAPIURL, "https://env.example/api")

	cfg, err := LoadConfig(explicit)
	require.NoError(t, err)

	assert.Equal(t, 250*time.Millisecond, cfg.Stream.ReconnectDelay)
	assert.Equal(t, "https://env.example/api", cfg.API.BaseURL)
}

func TestLoadConfig_OverridesWinOverEnv(t *testing.T) {
	isolate(t)
	t.Setenv(EnvAPIURL, "https://env.example/api")

	cfg, err := LoadConfig("", func(c *Config) { c.API.BaseURL = "http://flag.example/api" })
	require.NoError(t, err)
	assert.Equal(t, "http://flag.example/api", cfg.API.BaseURL)

	_, err = LoadConfig("", func(c *Config) { c.API.BaseURL = "ftp://flag.example" })
	assert.Error(t, err, "overrides are validated")
}

func TestLoadConfig_MissingExplicitFile(t *testing.T) {
	tempDir := isolate(t)

	_, err := LoadConfig(filepath.Join(tempDir, "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	tempDir := isolate(t)
	bad := filepath.Join(tempDir, "bad.yaml")
	writeFile(t, bad, "poll: [unterminated")

	_, err := LoadConfig(bad)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	negative := -1
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"ftp url", func(c *Config) { c.API.BaseURL = "ftp://host/api" }, true},
		{"no host", func(c *Config) { c.API.BaseURL = "http:///api" }, true},
		{"zero timeout", func(c *Config) { c.API.Timeout = 0 }, true},
		{"zero interval", func(c *Config) { c.Poll.Interval = 0 }, true},
		{"zero reconnect", func(c *Config) { c.Stream.ReconnectDelay = 0 }, true},
		{"zero capacity", func(c *Config) { c.Logs.Capacity = 0 }, true},
		{"negative threshold", func(c *Config) { c.Logs.ScrollThreshold = &negative }, true},
		{"bad color mode", func(c *Config) { c.UI.ColorMode = "neon" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := GetDefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestGetUserConfigDir(t *testing.T) {
	original := osUserHomeDir
	defer func() { osUserHomeDir = original }()
	osUserHomeDir = func() (string, error) { return "/home/op", nil }

	dir, err := GetUserConfigDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/home/op", ".config", "mcmon"), dir)
}

func TestSaveUserSettings(t *testing.T) {
	tempDir := isolate(t)
	userFile := filepath.Join(tempDir, "user", "config.yaml")
	getUserConfigPath = func() (string, error) { return userFile, nil }
	writeFile(t, userFile, `
ui:
  colorMode: light
poll:
  interval: 30s
`)

	path, err := SaveUserSettings("http://saved.example/api", 0)
	require.NoError(t, err)
	assert.Equal(t, userFile, path)

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "http://saved.example/api", cfg.API.BaseURL)
	assert.Equal(t, "light", cfg.UI.ColorMode, "existing settings survive")
	assert.Equal(t, 30*time.Second, cfg.Poll.Interval, "zero interval leaves the file alone")

	_, err = SaveUserSettings("http://saved.example/api", 2*time.Second)
	require.NoError(t, err)
	cfg, err = LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, cfg.Poll.Interval)
}
