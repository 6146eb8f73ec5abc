// Package config loads and validates connection configuration for a
// process-graph backend: base URL, authentication, HTTP retry behavior,
// and batch-job polling intervals.
package config

import (
	"encoding/json"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full client configuration.
type Config struct {
	// URL is the backend base URL (e.g. "https://backend.example/v1").
	URL string `yaml:"url" json:"url"`

	// Auth selects and parameterizes the authentication mode.
	Auth Auth `yaml:"auth" json:"auth"`

	// HTTP configures the transport.
	HTTP HTTP `yaml:"http" json:"http"`

	// Poll configures batch-job status polling.
	Poll Poll `yaml:"poll" json:"poll"`
}

// Auth holds authentication settings. Mode is "none", "basic", or
// "bearer".
type Auth struct {
	Mode     string `yaml:"mode" json:"mode"`
	Username string `yaml:"username,omitempty" json:"username,omitempty"`
	Password string `yaml:"password,omitempty" json:"password,omitempty"`
	Token    string `yaml:"token,omitempty" json:"token,omitempty"`
}

// HTTP holds transport settings.
type HTTP struct {
	// RetryMax is the maximum number of retries per request.
	RetryMax int `yaml:"retry_max" json:"retry_max"`

	// Timeout bounds a single request.
	Timeout Duration `yaml:"timeout" json:"timeout"`
}

// Poll holds batch-job polling settings.
type Poll struct {
	// InitialInterval is the first wait between status checks.
	InitialInterval Duration `yaml:"initial_interval" json:"initial_interval"`

	// MaxInterval caps the backoff between status checks.
	MaxInterval Duration `yaml:"max_interval" json:"max_interval"`

	// MaxElapsed bounds the total polling time; zero means unbounded.
	MaxElapsed Duration `yaml:"max_elapsed" json:"max_elapsed"`
}

// Default returns the configuration defaults applied where a loaded
// file leaves fields unset.
func Default() Config {
	return Config{
		Auth: Auth{Mode: "none"},
		HTTP: HTTP{
			RetryMax: 3,
			Timeout:  Duration(30 * time.Second),
		},
		Poll: Poll{
			InitialInterval: Duration(2 * time.Second),
			MaxInterval:     Duration(60 * time.Second),
		},
	}
}

// Validate checks the configuration for internal consistency.
func (c Config) Validate() error {
	if c.URL == "" {
		return fmt.Errorf("config: url is required")
	}
	switch c.Auth.Mode {
	case "", "none":
	case "basic":
		if c.Auth.Username == "" {
			return fmt.Errorf("config: basic auth requires username")
		}
	case "bearer":
		if c.Auth.Token == "" {
			return fmt.Errorf("config: bearer auth requires token")
		}
	default:
		return fmt.Errorf("config: unknown auth mode %q", c.Auth.Mode)
	}
	if c.HTTP.RetryMax < 0 {
		return fmt.Errorf("config: retry_max cannot be negative")
	}
	return nil
}

// Duration is a time.Duration that unmarshals from Go duration strings
// ("30s", "2m") or bare numbers interpreted as seconds.
type Duration time.Duration

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	// Bare numbers come first: an untagged scalar like 30 would also
	// decode as the string "30", which ParseDuration rejects.
	var secs float64
	if err := value.Decode(&secs); err == nil {
		*d = Duration(secs * float64(time.Second))
		return nil
	}
	var s string
	if err := value.Decode(&s); err == nil {
		return d.parse(s)
	}
	return fmt.Errorf("config: invalid duration %q", value.Value)
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		return d.parse(s)
	}
	var secs float64
	if err := json.Unmarshal(data, &secs); err == nil {
		*d = Duration(secs * float64(time.Second))
		return nil
	}
	return fmt.Errorf("config: invalid duration %s", data)
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// MarshalJSON implements json.Marshaler.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) parse(s string) error {
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("config: invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}
