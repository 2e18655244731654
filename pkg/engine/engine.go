// Package engine owns the code-intelligence state: the symbol index, the
// dependency graph, the vector index and the change watcher. One Engine
// instance serves one watched root; there are no package-level singletons.
package engine

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"regexp"
	"sync"
	"time"

	"github.com/lastwinnersllc/devgraph/pkg/filter"
	"github.com/lastwinnersllc/devgraph/pkg/graph"
	"github.com/lastwinnersllc/devgraph/pkg/index"
	"github.com/lastwinnersllc/devgraph/pkg/parser"
	"github.com/lastwinnersllc/devgraph/pkg/vector"
	"github.com/lastwinnersllc/devgraph/pkg/watcher"
	"github.com/lastwinnersllc/devgraph/pkg/worker"
)

// Config holds engine configuration
type Config struct {
	Root        string   // project root to scan and watch
	Extensions  []string // source-file extensions (default: .py)
	ExcludeDirs []string // directory names to skip
}

// Engine maintains a live structural understanding of one codebase
type Engine struct {
	root        string
	parser      *parser.Parser
	index       *index.Index
	graph       *graph.Graph
	store       vector.Store
	pool        *worker.UpsertPool
	filter      *filter.SourceFilter
	fileTokenRe *regexp.Regexp

	// mu serializes mutations against structural reads: reparse, index
	// update and edge rebuild happen as one unit, and query entry points
	// take the read side so they never observe a half-applied mutation.
	// Vector calls are network I/O and run after the lock is released,
	// accepting brief graph/search inconsistency.
	mu sync.RWMutex

	watchMu     sync.Mutex
	watcher     *watcher.FileWatcher
	watchCancel context.CancelFunc
	watchDone   chan struct{}
}

// New creates an engine for the given root, storing vectors in store
func New(cfg *Config, store vector.Store) (*Engine, error) {
	if cfg == nil || cfg.Root == "" {
		return nil, fmt.Errorf("engine root not specified")
	}
	if store == nil {
		return nil, fmt.Errorf("vector store is required")
	}

	root, err := filepath.Abs(cfg.Root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root: %w", err)
	}

	sourceExt := ".py"
	if len(cfg.Extensions) > 0 {
		sourceExt = cfg.Extensions[0]
	}

	return &Engine{
		root:        root,
		parser:      parser.New(),
		index:       index.New(),
		graph:       graph.New(sourceExt),
		store:       store,
		pool:        worker.NewUpsertPool(&worker.Config{Store: store}),
		filter:      filter.New(root, cfg.Extensions, cfg.ExcludeDirs),
		fileTokenRe: regexp.MustCompile(`(\w+` + regexp.QuoteMeta(sourceExt) + `)`),
	}, nil
}

// Root returns the absolute watched root
func (e *Engine) Root() string {
	return e.root
}

// relPath converts an absolute path to the slash-separated relative form
// used as the index key
func (e *Engine) relPath(absPath string) (string, error) {
	rel, err := filepath.Rel(e.root, absPath)
	if err != nil {
		return "", fmt.Errorf("path %s is outside root: %w", absPath, err)
	}
	return filepath.ToSlash(rel), nil
}

// ScanProject walks the root and indexes every matching source file, then
// rebuilds edges once and refreshes the vector index. Used for the
// initial scan and for explicit rescans.
func (e *Engine) ScanProject(ctx context.Context) error {
	var relPaths []string
	err := filepath.WalkDir(e.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			slog.Warn("Scan walk error", "path", path, "error", err)
			return nil
		}
		rel, relErr := e.relPath(path)
		if relErr != nil {
			return nil
		}
		if d.IsDir() {
			if path != e.root && e.filter.SkipDir(rel) {
				return filepath.SkipDir
			}
			return nil
		}
		if e.filter.IsSourceFile(rel) {
			relPaths = append(relPaths, rel)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("project scan failed: %w", err)
	}

	slog.Info("Scanning project", "root", e.root, "files", len(relPaths))

	// Structural phase under the mutation lock: parse everything, then
	// one edge rebuild rather than one per file
	e.mu.Lock()
	var docs []vector.Document
	now := time.Now().Unix()
	for _, rel := range relPaths {
		rec := e.parser.ParseFile(ctx, e.root, rel)
		if rec.Failed() {
			slog.Warn("Parse failed, indexing as error record", "file", rel, "error", rec.Err)
		}
		e.graph.RemoveFile(rel)
		e.index.Upsert(rel, rec)
		e.graph.AddFile(rec)
		docs = append(docs, vector.DocumentsFor(rec, now)...)
	}
	e.graph.Rebuild(e.index.All())
	e.mu.Unlock()

	e.pool.Run(ctx, docs)

	slog.Info("Scan complete", "files", len(relPaths), "edges", e.graph.EdgeCount())
	return nil
}

// handleEvent applies one watcher event to completion. Errors degrade:
// a bad file is indexed with an error marker, a failed vector call is
// logged, and the watch loop moves on.
func (e *Engine) handleEvent(ctx context.Context, ev watcher.Event) {
	rel, err := e.relPath(ev.Path)
	if err != nil {
		slog.Warn("Ignoring event outside root", "path", ev.Path, "error", err)
		return
	}

	slog.Debug("Handling change", "file", rel, "op", ev.Op.String())

	switch ev.Op {
	case watcher.Created, watcher.Modified:
		e.upsertFile(ctx, rel)
	case watcher.Deleted:
		e.removeFile(ctx, rel)
	}
}

// upsertFile reparses a file and replaces its record wholesale, never
// patching a record in place
func (e *Engine) upsertFile(ctx context.Context, rel string) {
	e.mu.Lock()
	rec := e.parser.ParseFile(ctx, e.root, rel)
	if rec.Failed() {
		slog.Warn("Parse failed, indexing as error record", "file", rel, "error", rec.Err)
	}
	e.graph.RemoveFile(rel)
	e.index.Upsert(rel, rec)
	e.graph.AddFile(rec)
	e.graph.Rebuild(e.index.All())
	docs := vector.DocumentsFor(rec, time.Now().Unix())
	e.mu.Unlock()

	// Stale definition entries go first so a renamed function cannot
	// leave an orphaned embedding behind
	if err := e.store.DeleteByPrefix(ctx, graph.FileNode(rel)); err != nil {
		slog.Warn("Vector delete failed", "file", rel, "error", err)
	}
	e.pool.Run(ctx, docs)
}

// removeFile drops a file from index, graph and vector store
func (e *Engine) removeFile(ctx context.Context, rel string) {
	e.mu.Lock()
	existed := e.index.Remove(rel)
	e.graph.RemoveFile(rel)
	e.graph.Rebuild(e.index.All())
	e.mu.Unlock()

	if !existed {
		return
	}
	if err := e.store.DeleteByPrefix(ctx, graph.FileNode(rel)); err != nil {
		slog.Warn("Vector delete failed", "file", rel, "error", err)
	}
}

// StartWatching begins delivering filesystem events to the engine.
// Starting an already-watching engine is a no-op.
func (e *Engine) StartWatching(ctx context.Context) error {
	e.watchMu.Lock()
	defer e.watchMu.Unlock()

	if e.watcher != nil {
		return nil
	}

	watchCtx, cancel := context.WithCancel(ctx)

	w, err := watcher.New(&watcher.Config{
		OnEvent: func(ev watcher.Event) {
			e.handleEvent(watchCtx, ev)
		},
		FileFilter: func(absPath string) bool {
			rel, err := e.relPath(absPath)
			if err != nil {
				return false
			}
			return e.filter.IsSourceFile(rel)
		},
		DirFilter: func(absPath string) bool {
			rel, err := e.relPath(absPath)
			if err != nil {
				return false
			}
			return !e.filter.SkipDir(rel)
		},
	})
	if err != nil {
		cancel()
		return err
	}

	if err := w.WatchRecursive(e.root); err != nil {
		cancel()
		w.Close()
		return err
	}

	done := make(chan struct{})
	e.watcher = w
	e.watchCancel = cancel
	e.watchDone = done

	go func() {
		defer close(done)
		if err := w.Start(watchCtx); err != nil && watchCtx.Err() == nil {
			slog.Error("Watch loop exited", "error", err)
		}
	}()

	slog.Info("Started watching for changes", "root", e.root)
	return nil
}

// StopWatching stops event delivery and waits for the watch loop to exit.
// Stopping a stopped engine is a no-op.
func (e *Engine) StopWatching() {
	e.watchMu.Lock()
	defer e.watchMu.Unlock()

	if e.watcher == nil {
		return
	}

	e.watchCancel()
	e.watcher.Close()
	<-e.watchDone

	e.watcher = nil
	e.watchCancel = nil
	e.watchDone = nil

	slog.Info("Stopped watching for changes", "root", e.root)
}

// Watching reports whether the change watcher is running
func (e *Engine) Watching() bool {
	e.watchMu.Lock()
	defer e.watchMu.Unlock()
	return e.watcher != nil
}

// Rescan stops the watcher, runs a full project scan, and restarts the
// watcher if it was running. In-flight scans are never interrupted;
// cancellation happens by sequencing only.
func (e *Engine) Rescan(ctx context.Context) error {
	wasWatching := e.Watching()
	e.StopWatching()

	err := e.ScanProject(ctx)

	if wasWatching {
		if startErr := e.StartWatching(ctx); startErr != nil && err == nil {
			err = startErr
		}
	}
	return err
}
