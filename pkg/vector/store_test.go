package vector

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/lastwinnersllc/devgraph/pkg/embed"
)

func TestOpen_NewStore(t *testing.T) {
	tmpDir := t.TempDir()
	storePath := filepath.Join(tmpDir, "test.db")

	cfg := Config{
		Path:         storePath,
		EmbeddingDim: 768,
		Model:        "nomic-embed-text",
		SkipVecTable: true,
	}

	store, err := Open(cfg, embed.NewMockProvider())
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	defer store.Close()

	if _, err := os.Stat(storePath); os.IsNotExist(err) {
		t.Error("Store file was not created")
	}

	info, err := os.Stat(storePath)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("Expected permissions 0600, got %o", info.Mode().Perm())
	}

	if store.EmbeddingDim() != 768 {
		t.Errorf("Expected embedding dim 768, got %d", store.EmbeddingDim())
	}
	if store.Path() != storePath {
		t.Errorf("Expected path %s, got %s", storePath, store.Path())
	}

	version, err := store.GetMeta("schema_version")
	if err != nil {
		t.Fatal(err)
	}
	if version != SchemaVersion {
		t.Errorf("Expected schema version %s, got %s", SchemaVersion, version)
	}
}

func TestOpen_Validation(t *testing.T) {
	tests := []struct {
		name     string
		cfg      Config
		provider embed.Provider
	}{
		{"empty path", Config{EmbeddingDim: 768}, embed.NewMockProvider()},
		{"zero dim", Config{Path: "x.db"}, embed.NewMockProvider()},
		{"negative dim", Config{Path: "x.db", EmbeddingDim: -1}, embed.NewMockProvider()},
		{"nil provider", Config{Path: "x.db", EmbeddingDim: 768}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Open(tt.cfg, tt.provider); err == nil {
				t.Error("Expected error")
			}
		})
	}
}

func TestOpen_ReopenKeepsMeta(t *testing.T) {
	storePath := filepath.Join(t.TempDir(), "test.db")
	cfg := Config{Path: storePath, EmbeddingDim: 768, SkipVecTable: true}

	store, err := Open(cfg, embed.NewMockProvider())
	if err != nil {
		t.Fatal(err)
	}
	if err := store.SetMeta("custom", "value"); err != nil {
		t.Fatal(err)
	}
	store.Close()

	store, err = Open(cfg, embed.NewMockProvider())
	if err != nil {
		t.Fatalf("Failed to reopen store: %v", err)
	}
	defer store.Close()

	value, err := store.GetMeta("custom")
	if err != nil {
		t.Fatal(err)
	}
	if value != "value" {
		t.Errorf("Expected value after reopen, got %q", value)
	}
}

func TestGetMeta_Missing(t *testing.T) {
	storePath := filepath.Join(t.TempDir(), "test.db")
	store, err := Open(Config{Path: storePath, EmbeddingDim: 768, SkipVecTable: true}, embed.NewMockProvider())
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	value, err := store.GetMeta("nonexistent")
	if err != nil {
		t.Errorf("Missing key must not error, got %v", err)
	}
	if value != "" {
		t.Errorf("Expected empty value, got %q", value)
	}
}

func TestHealthCheck(t *testing.T) {
	storePath := filepath.Join(t.TempDir(), "test.db")
	store, err := Open(Config{Path: storePath, EmbeddingDim: 768, SkipVecTable: true}, embed.NewMockProvider())
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	if err := store.HealthCheck(); err != nil {
		t.Errorf("HealthCheck failed: %v", err)
	}
}
