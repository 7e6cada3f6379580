// Package config provides configuration management for mcr.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/nickwells/filecheck.mod/filecheck"
	"gopkg.in/yaml.v3"
)

// Config holds the mcr configuration.
type Config struct {
	// Confluence connection, used by the Pages and Spaces macros. Optional.
	URL      string `yaml:"url,omitempty"`
	Email    string `yaml:"email,omitempty"`
	APIToken string `yaml:"api_token,omitempty"`

	ContextKey      string   `yaml:"context_key,omitempty"`
	ContextFile     string   `yaml:"context_file,omitempty"`
	SnippetDirs     []string `yaml:"snippet_dirs,omitempty"`
	SnippetSuffixes []string `yaml:"snippet_suffixes,omitempty"`
	OutputFormat    string   `yaml:"output_format,omitempty"`
}

// HasConfluence reports whether any Confluence connection field is set.
func (c *Config) HasConfluence() bool {
	return c.URL != "" || c.Email != "" || c.APIToken != ""
}

// Validate checks the Confluence fields as a group and that every snippet
// directory exists.
func (c *Config) Validate() error {
	if c.HasConfluence() {
		if err := c.ValidateConfluence(); err != nil {
			return err
		}
	}

	for _, dir := range c.SnippetDirs {
		if err := filecheck.DirExists().StatusCheck(dir); err != nil {
			return fmt.Errorf("invalid snippet directory: %w", err)
		}
	}

	return nil
}

// ValidateConfluence checks that the Confluence connection is complete.
func (c *Config) ValidateConfluence() error {
	if c.URL == "" {
		return errors.New("url is required")
	}
	if c.Email == "" {
		return errors.New("email is required")
	}
	if c.APIToken == "" {
		return errors.New("api_token is required")
	}

	if !strings.HasPrefix(c.URL, "https://") {
		return errors.New("url must use https")
	}

	return nil
}

// NormalizeURL ensures the URL has the /wiki suffix for Confluence Cloud.
func (c *Config) NormalizeURL() {
	if c.URL == "" {
		return
	}
	c.URL = strings.TrimSuffix(c.URL, "/")
	if !strings.HasSuffix(c.URL, "/wiki") {
		c.URL = c.URL + "/wiki"
	}
}

// LoadFromEnv loads configuration from environment variables.
// Environment variables override existing values only if set and non-empty.
// Precedence: MCR_* → ATLASSIAN_* → existing config value
func (c *Config) LoadFromEnv() {
	if url := getEnvWithFallback("MCR_URL", "ATLASSIAN_URL"); url != "" {
		c.URL = url
	}
	if email := getEnvWithFallback("MCR_EMAIL", "ATLASSIAN_EMAIL"); email != "" {
		c.Email = email
	}
	if token := getEnvWithFallback("MCR_API_TOKEN", "ATLASSIAN_API_TOKEN"); token != "" {
		c.APIToken = token
	}
	if key := os.Getenv("MCR_CONTEXT_KEY"); key != "" {
		c.ContextKey = key
	}
	if file := os.Getenv("MCR_CONTEXT_FILE"); file != "" {
		c.ContextFile = file
	}
}

func getEnvWithFallback(primary, fallback string) string {
	if v := os.Getenv(primary); v != "" {
		return v
	}
	return os.Getenv(fallback)
}

// DefaultConfigPath returns the default configuration file path.
func DefaultConfigPath() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "mcr", "config.yml")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".mcr", "config.yml")
	}

	return filepath.Join(home, ".config", "mcr", "config.yml")
}

// Save writes the configuration to the specified path.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// The file may hold an API token.
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Load reads the configuration from the specified path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &cfg, nil
}

// LoadWithEnv loads configuration from file and overrides with environment
// variables. A missing file yields an empty config; a malformed one is an error.
func LoadWithEnv(path string) (*Config, error) {
	cfg, err := Load(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		cfg = &Config{}
	}

	cfg.LoadFromEnv()
	return cfg, nil
}
