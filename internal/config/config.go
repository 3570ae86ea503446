// Package config manages the CLI's configuration file and credentials.
//
// Configuration lives at ~/.linguara/config.yaml. Environment variables
// override the file, which keeps CI and one-off usage free of local state.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultAPIURL is the production Linguara backend.
const DefaultAPIURL = "https://linguara.ai"

// Environment overrides.
const (
	EnvAPIURL   = "LINGUARA_API_URL"
	EnvAPIToken = "LINGUARA_API_TOKEN"
)

// Config is the persisted CLI configuration.
type Config struct {
	// APIURL is the backend base URL
	APIURL string `yaml:"api_url"`

	// APIToken is the personal API token saved by `linguara login`.
	// The file is written 0600 because of this field.
	APIToken string `yaml:"api_token,omitempty"`

	// PollInterval is the job status polling cadence
	PollInterval time.Duration `yaml:"poll_interval,omitempty"`

	// UsageDB overrides the usage cache location
	UsageDB string `yaml:"usage_db,omitempty"`
}

// Dir returns the CLI's configuration directory (~/.linguara).
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".linguara"
	}
	return filepath.Join(home, ".linguara")
}

// Path returns the configuration file location.
func Path() string {
	return filepath.Join(Dir(), "config.yaml")
}

// Load reads the configuration file, applies defaults and environment
// overrides. A missing file is not an error; it yields the defaults.
func Load() (*Config, error) {
	cfg := &Config{
		APIURL:       DefaultAPIURL,
		PollInterval: 2 * time.Second,
	}

	data, err := os.ReadFile(Path())
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("could not parse config %s: %w", Path(), err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("could not read config %s: %w", Path(), err)
	}

	if cfg.APIURL == "" {
		cfg.APIURL = DefaultAPIURL
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 2 * time.Second
	}

	if v := os.Getenv(EnvAPIURL); v != "" {
		cfg.APIURL = v
	}
	if v := os.Getenv(EnvAPIToken); v != "" {
		cfg.APIToken = v
	}

	return cfg, nil
}

// Save writes the configuration file, creating the directory if needed. The
// file carries the API token, so permissions are restricted to the owner.
func (c *Config) Save() error {
	if err := os.MkdirAll(Dir(), 0755); err != nil {
		return fmt.Errorf("could not create config dir %s: %w", Dir(), err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("could not serialize config: %w", err)
	}

	if err := os.WriteFile(Path(), data, 0600); err != nil {
		return fmt.Errorf("could not write config %s: %w", Path(), err)
	}
	return nil
}

// UsageDBPath returns the usage cache location, defaulting next to the
// config file.
func (c *Config) UsageDBPath() string {
	if c.UsageDB != "" {
		return c.UsageDB
	}
	return filepath.Join(Dir(), "usage.db")
}

// Authenticated reports whether a token is configured.
func (c *Config) Authenticated() bool {
	return c.APIToken != ""
}
