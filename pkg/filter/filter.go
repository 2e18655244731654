// Package filter decides which filesystem paths the engine looks at
package filter

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"
)

// DefaultExtensions is the source-file allowlist when none is configured
var DefaultExtensions = []string{".py"}

// DefaultExcludeDirs are directory names never descended into
var DefaultExcludeDirs = []string{
	".git", "__pycache__", ".venv", "venv",
	"node_modules", ".mypy_cache", ".pytest_cache",
}

// SourceFilter filters paths by extension, excluded directory names and,
// when the watched root carries a .gitignore, its ignore rules
type SourceFilter struct {
	root        string
	extensions  map[string]bool
	excludeDirs map[string]bool
	gitignore   *ignore.GitIgnore
}

// New builds a filter rooted at root. Empty extension or exclude lists
// fall back to the defaults. A .gitignore at the root is honored if
// present and readable.
func New(root string, extensions, excludeDirs []string) *SourceFilter {
	if len(extensions) == 0 {
		extensions = DefaultExtensions
	}
	if len(excludeDirs) == 0 {
		excludeDirs = DefaultExcludeDirs
	}

	f := &SourceFilter{
		root:        root,
		extensions:  make(map[string]bool, len(extensions)),
		excludeDirs: make(map[string]bool, len(excludeDirs)),
	}
	for _, ext := range extensions {
		f.extensions[strings.ToLower(ext)] = true
	}
	for _, dir := range excludeDirs {
		f.excludeDirs[dir] = true
	}

	gitignorePath := filepath.Join(root, ".gitignore")
	if _, err := os.Stat(gitignorePath); err == nil {
		gi, err := ignore.CompileIgnoreFile(gitignorePath)
		if err != nil {
			slog.Warn("Failed to compile .gitignore, ignoring it", "path", gitignorePath, "error", err)
		} else {
			f.gitignore = gi
		}
	}

	return f
}

// IsSourceFile reports whether a relative file path should be indexed
func (f *SourceFilter) IsSourceFile(relPath string) bool {
	if !f.extensions[strings.ToLower(filepath.Ext(relPath))] {
		return false
	}
	for _, part := range strings.Split(filepath.ToSlash(relPath), "/") {
		if f.excludeDirs[part] {
			return false
		}
	}
	if f.gitignore != nil && f.gitignore.MatchesPath(relPath) {
		return false
	}
	return true
}

// SkipDir reports whether a directory (by relative path) should be
// skipped entirely during walks and watches
func (f *SourceFilter) SkipDir(relPath string) bool {
	base := filepath.Base(relPath)
	if f.excludeDirs[base] {
		return true
	}
	return f.gitignore != nil && f.gitignore.MatchesPath(relPath+"/")
}

// Extensions returns the configured extension list
func (f *SourceFilter) Extensions() []string {
	exts := make([]string, 0, len(f.extensions))
	for ext := range f.extensions {
		exts = append(exts, ext)
	}
	return exts
}
