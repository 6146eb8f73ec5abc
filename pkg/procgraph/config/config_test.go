package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestDefault verifies the default configuration is valid except for the
// required URL.
func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "none", cfg.Auth.Mode)
	assert.Equal(t, 3, cfg.HTTP.RetryMax)
	assert.Equal(t, 30*time.Second, cfg.HTTP.Timeout.Std())

	err := cfg.Validate()
	assert.ErrorContains(t, err, "url is required")

	cfg.URL = "https://backend.example/v1"
	assert.NoError(t, cfg.Validate())
}

// TestFromYAML tests YAML loading with duration strings and numbers.
func TestFromYAML(t *testing.T) {
	cfg, err := FromYAML([]byte(`
url: https://backend.example/v1
auth:
  mode: basic
  username: alice
  password: secret
http:
  retry_max: 5
  timeout: 45s
poll:
  initial_interval: 1s
  max_interval: 30
`))
	require.NoError(t, err)

	assert.Equal(t, "https://backend.example/v1", cfg.URL)
	assert.Equal(t, "basic", cfg.Auth.Mode)
	assert.Equal(t, "alice", cfg.Auth.Username)
	assert.Equal(t, 5, cfg.HTTP.RetryMax)
	assert.Equal(t, 45*time.Second, cfg.HTTP.Timeout.Std())
	assert.Equal(t, 1*time.Second, cfg.Poll.InitialInterval.Std())
	// Bare numbers are seconds.
	assert.Equal(t, 30*time.Second, cfg.Poll.MaxInterval.Std())
}

// TestFromJSON tests JSON loading.
func TestFromJSON(t *testing.T) {
	cfg, err := FromJSON([]byte(`{
		"url": "https://backend.example/v1",
		"auth": {"mode": "bearer", "token": "tok"},
		"http": {"retry_max": 1, "timeout": "10s"}
	}`))
	require.NoError(t, err)
	assert.Equal(t, "bearer", cfg.Auth.Mode)
	assert.Equal(t, "tok", cfg.Auth.Token)
	assert.Equal(t, 10*time.Second, cfg.HTTP.Timeout.Std())
	// Defaults survive for untouched sections.
	assert.Equal(t, 2*time.Second, cfg.Poll.InitialInterval.Std())
}

// TestFromFile tests extension-based dispatch.
func TestFromFile(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "cfg.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte("url: https://a.example\n"), 0o644))
	cfg, err := FromFile(yamlPath)
	require.NoError(t, err)
	assert.Equal(t, "https://a.example", cfg.URL)

	badPath := filepath.Join(dir, "cfg.toml")
	require.NoError(t, os.WriteFile(badPath, []byte(""), 0o644))
	_, err = FromFile(badPath)
	assert.ErrorContains(t, err, "unsupported config file extension")

	_, err = FromFile(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

// TestValidate tests the consistency checks.
func TestValidate(t *testing.T) {
	testCases := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"basic without username", func(c *Config) { c.Auth = Auth{Mode: "basic"} }, "requires username"},
		{"bearer without token", func(c *Config) { c.Auth = Auth{Mode: "bearer"} }, "requires token"},
		{"unknown mode", func(c *Config) { c.Auth = Auth{Mode: "oidc-device"} }, "unknown auth mode"},
		{"negative retries", func(c *Config) { c.HTTP.RetryMax = -1 }, "cannot be negative"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			cfg.URL = "https://backend.example"
			tc.mutate(&cfg)
			assert.ErrorContains(t, cfg.Validate(), tc.wantErr)
		})
	}
}

// TestDuration_Invalid tests rejection of malformed durations.
func TestDuration_Invalid(t *testing.T) {
	_, err := FromYAML([]byte("url: https://a.example\nhttp:\n  timeout: soon\n"))
	assert.ErrorContains(t, err, "invalid duration")
}
