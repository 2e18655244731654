package config

// Config is the engine configuration, loaded from YAML
type Config struct {
	// Root is the project directory to scan and watch
	Root string `yaml:"root"`

	// Extensions is the source-file allowlist (default: .py)
	Extensions []string `yaml:"extensions,omitempty"`

	// ExcludeDirs are directory names skipped during scans and watches
	ExcludeDirs []string `yaml:"exclude_dirs,omitempty"`

	Store    StoreConfig    `yaml:"store"`
	Provider ProviderConfig `yaml:"provider"`
}

// StoreConfig configures the vector store
type StoreConfig struct {
	Path         string `yaml:"path"`          // database file path
	EmbeddingDim int    `yaml:"embedding_dim"` // must match the provider model
}

// ProviderConfig configures the embedding provider
type ProviderConfig struct {
	BaseURL        string `yaml:"base_url"`
	APIKey         string `yaml:"api_key,omitempty"`
	Model          string `yaml:"model"`
	TimeoutSeconds int    `yaml:"timeout_seconds,omitempty"`
}

// Default returns a configuration with sensible defaults; Root must still
// be set by the caller
func Default() *Config {
	return &Config{
		Store: StoreConfig{
			EmbeddingDim: 768,
		},
		Provider: ProviderConfig{
			BaseURL:        "https://api.lastwinnersllc.com",
			Model:          "nomic-embed-text",
			TimeoutSeconds: 60,
		},
	}
}
