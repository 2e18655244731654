package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_FullConfig(t *testing.T) {
	root := t.TempDir()
	path := writeConfig(t, `
root: `+root+`
extensions: [".py", ".pyi"]
exclude_dirs: ["build"]
store:
  path: /tmp/test-devgraph.db
  embedding_dim: 384
provider:
  base_url: http://localhost:11434
  model: all-minilm
  timeout_seconds: 10
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Root != root {
		t.Errorf("Root = %s", cfg.Root)
	}
	if len(cfg.Extensions) != 2 {
		t.Errorf("Extensions = %v", cfg.Extensions)
	}
	if cfg.Store.EmbeddingDim != 384 {
		t.Errorf("EmbeddingDim = %d", cfg.Store.EmbeddingDim)
	}
	if cfg.Provider.Model != "all-minilm" {
		t.Errorf("Model = %s", cfg.Provider.Model)
	}
	if cfg.Provider.TimeoutSeconds != 10 {
		t.Errorf("TimeoutSeconds = %d", cfg.Provider.TimeoutSeconds)
	}
}

func TestLoad_Defaults(t *testing.T) {
	root := t.TempDir()
	path := writeConfig(t, "root: "+root+"\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Store.EmbeddingDim != 768 {
		t.Errorf("Expected default dim 768, got %d", cfg.Store.EmbeddingDim)
	}
	if cfg.Provider.BaseURL != "https://api.lastwinnersllc.com" {
		t.Errorf("Expected default base URL, got %s", cfg.Provider.BaseURL)
	}
	if cfg.Provider.Model != "nomic-embed-text" {
		t.Errorf("Expected default model, got %s", cfg.Provider.Model)
	}
	if cfg.Store.Path == "" {
		t.Error("Expected default store path")
	}
}

func TestLoad_APIKeyFromEnv(t *testing.T) {
	t.Setenv("DEVGRAPH_API_KEY", "env-secret")
	root := t.TempDir()
	path := writeConfig(t, "root: "+root+"\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Provider.APIKey != "env-secret" {
		t.Errorf("Expected API key from environment, got %q", cfg.Provider.APIKey)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("Expected error for missing file")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "root: [unclosed\n")
	if _, err := Load(path); err == nil {
		t.Fatal("Expected error for invalid YAML")
	}
}

func TestValidate(t *testing.T) {
	root := t.TempDir()
	file := filepath.Join(root, "file.txt")
	if err := os.WriteFile(file, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"valid", Config{Root: root, Store: StoreConfig{EmbeddingDim: 768}}, false},
		{"no root", Config{Store: StoreConfig{EmbeddingDim: 768}}, true},
		{"root missing", Config{Root: filepath.Join(root, "nope"), Store: StoreConfig{EmbeddingDim: 768}}, true},
		{"root is a file", Config{Root: file, Store: StoreConfig{EmbeddingDim: 768}}, true},
		{"zero dim", Config{Root: root}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
