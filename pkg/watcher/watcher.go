// Package watcher delivers filesystem change events for source files
// under a watched root. Events are forwarded one at a time from a single
// goroutine, which gives the engine a total order over mutations.
package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Op classifies a filesystem event
type Op int

const (
	Created Op = iota
	Modified
	Deleted
)

func (op Op) String() string {
	switch op {
	case Created:
		return "created"
	case Modified:
		return "modified"
	case Deleted:
		return "deleted"
	}
	return "unknown"
}

// Event is one source-file change
type Event struct {
	Path string // absolute path
	Op   Op
}

// Config holds watcher configuration
type Config struct {
	// OnEvent receives filtered events. It is called from the watch
	// goroutine; each call completes before the next event is delivered.
	OnEvent func(Event)

	// FileFilter decides whether a file path is forwarded. Nil forwards
	// everything.
	FileFilter func(path string) bool

	// DirFilter decides whether a directory is watched. Nil watches
	// everything.
	DirFilter func(path string) bool
}

// FileWatcher watches a directory tree for source-file changes
type FileWatcher struct {
	watcher    *fsnotify.Watcher
	onEvent    func(Event)
	fileFilter func(string) bool
	dirFilter  func(string) bool
	mu         sync.Mutex
	watched    map[string]bool
}

// New creates a file watcher
func New(cfg *Config) (*FileWatcher, error) {
	if cfg == nil {
		cfg = &Config{}
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	return &FileWatcher{
		watcher:    watcher,
		onEvent:    cfg.OnEvent,
		fileFilter: cfg.FileFilter,
		dirFilter:  cfg.DirFilter,
		watched:    make(map[string]bool),
	}, nil
}

// WatchRecursive adds a directory and all its subdirectories to the
// watch list, skipping any directory the filter rejects
func (w *FileWatcher) WatchRecursive(root string) error {
	abs, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}

	return filepath.WalkDir(abs, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			slog.Warn("Walk error while watching", "path", path, "error", err)
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if w.dirFilter != nil && path != abs && !w.dirFilter(path) {
			return filepath.SkipDir
		}
		return w.watch(path)
	})
}

func (w *FileWatcher) watch(path string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.watched[path] {
		return nil
	}
	if err := w.watcher.Add(path); err != nil {
		return fmt.Errorf("failed to watch %s: %w", path, err)
	}
	w.watched[path] = true
	return nil
}

// Start runs the watch loop until the context is cancelled. Errors from
// individual events are logged and the loop continues; a single bad file
// never stops the watch.
func (w *FileWatcher) Start(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			slog.Warn("Watcher error", "error", err)
		}
	}
}

func (w *FileWatcher) handleEvent(event fsnotify.Event) {
	switch {
	case event.Op&fsnotify.Create != 0:
		// New directories join the watch so files created inside them
		// are seen too
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if w.dirFilter == nil || w.dirFilter(event.Name) {
				if err := w.WatchRecursive(event.Name); err != nil {
					slog.Warn("Failed to watch new directory", "path", event.Name, "error", err)
				}
			}
			return
		}
		w.forward(Event{Path: event.Name, Op: Created})

	case event.Op&fsnotify.Write != 0:
		w.forward(Event{Path: event.Name, Op: Modified})

	case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		// The path is gone, so only the name can be filtered on
		w.forward(Event{Path: event.Name, Op: Deleted})
	}
}

func (w *FileWatcher) forward(e Event) {
	if w.fileFilter != nil && !w.fileFilter(e.Path) {
		return
	}
	if w.onEvent != nil {
		w.onEvent(e)
	}
}

// Close stops the watcher and releases resources
func (w *FileWatcher) Close() error {
	return w.watcher.Close()
}

// Watched returns the directories currently on the watch list
func (w *FileWatcher) Watched() []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	paths := make([]string, 0, len(w.watched))
	for path := range w.watched {
		paths = append(paths, path)
	}
	return paths
}
