package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultPath returns the default config file location under the user's
// home directory
func DefaultPath() string {
	return filepath.Join(os.Getenv("HOME"), ".devgraph", "config.yaml")
}

// DefaultStorePath returns the default vector store location
func DefaultStorePath() string {
	return filepath.Join(os.Getenv("HOME"), ".devgraph", "devgraph.db")
}

// Load reads a config file, fills in defaults and validates the result
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Store.Path == "" {
		c.Store.Path = DefaultStorePath()
	}
	if c.Store.EmbeddingDim == 0 {
		c.Store.EmbeddingDim = 768
	}
	if c.Provider.BaseURL == "" {
		c.Provider.BaseURL = "https://api.lastwinnersllc.com"
	}
	if c.Provider.Model == "" {
		c.Provider.Model = "nomic-embed-text"
	}
	if c.Provider.TimeoutSeconds == 0 {
		c.Provider.TimeoutSeconds = 60
	}
	if c.Provider.APIKey == "" {
		c.Provider.APIKey = os.Getenv("DEVGRAPH_API_KEY")
	}
}

// Validate checks the configuration for obvious mistakes
func (c *Config) Validate() error {
	if c.Root == "" {
		return fmt.Errorf("root directory not specified")
	}
	info, err := os.Stat(c.Root)
	if err != nil {
		return fmt.Errorf("root directory not accessible: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("root %s is not a directory", c.Root)
	}
	if c.Store.EmbeddingDim <= 0 {
		return fmt.Errorf("embedding dimension must be positive, got %d", c.Store.EmbeddingDim)
	}
	return nil
}
