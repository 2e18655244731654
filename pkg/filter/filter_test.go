package filter

import (
	"os"
	"path/filepath"
	"testing"
)

func TestIsSourceFile_Extension(t *testing.T) {
	f := New(t.TempDir(), nil, nil)

	tests := []struct {
		path string
		want bool
	}{
		{"app.py", true},
		{"pkg/module.py", true},
		{"APP.PY", true},
		{"readme.md", false},
		{"script.sh", false},
		{"noext", false},
	}
	for _, tt := range tests {
		if got := f.IsSourceFile(tt.path); got != tt.want {
			t.Errorf("IsSourceFile(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestIsSourceFile_ExcludedDirs(t *testing.T) {
	f := New(t.TempDir(), nil, nil)

	for _, path := range []string{
		"__pycache__/mod.py",
		"src/__pycache__/mod.py",
		".venv/lib/thing.py",
		"node_modules/pkg/x.py",
	} {
		if f.IsSourceFile(path) {
			t.Errorf("IsSourceFile(%q) must be false", path)
		}
	}
}

func TestSkipDir(t *testing.T) {
	f := New(t.TempDir(), nil, nil)

	if !f.SkipDir("src/__pycache__") {
		t.Error("Expected __pycache__ skipped")
	}
	if !f.SkipDir(".git") {
		t.Error("Expected .git skipped")
	}
	if f.SkipDir("src/app") {
		t.Error("Regular directory must not be skipped")
	}
}

func TestGitignoreRules(t *testing.T) {
	tmpDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(tmpDir, ".gitignore"), []byte("generated/\nscratch.py\n"), 0644); err != nil {
		t.Fatal(err)
	}

	f := New(tmpDir, nil, nil)

	if f.IsSourceFile("scratch.py") {
		t.Error("Gitignored file must be rejected")
	}
	if !f.SkipDir("generated") {
		t.Error("Gitignored directory must be skipped")
	}
	if !f.IsSourceFile("kept.py") {
		t.Error("Unignored file must be accepted")
	}
}

func TestCustomExtensions(t *testing.T) {
	f := New(t.TempDir(), []string{".pyi"}, nil)

	if !f.IsSourceFile("stubs.pyi") {
		t.Error("Configured extension must be accepted")
	}
	if f.IsSourceFile("app.py") {
		t.Error("Default extension must not apply when overridden")
	}
}
