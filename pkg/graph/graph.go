// Package graph maintains the directed dependency graph over files,
// classes and functions. The edge set is always a pure function of the
// symbol index: Rebuild clears and recomputes every edge, so the graph
// carries no state that cannot be recomputed.
package graph

import (
	"sort"
	"strings"
	"sync"

	"github.com/lastwinnersllc/devgraph/pkg/parser"
)

// EdgeKind is the relationship type carried by an edge
type EdgeKind string

const (
	EdgeImports EdgeKind = "imports"
	EdgeCalls   EdgeKind = "calls"
)

// Edge is a typed directed edge between two node identities. Equal edges
// (same source, target and kind) are deduplicated by construction.
type Edge struct {
	Source string
	Target string
	Kind   EdgeKind
}

// Node identity constructors. Node kind is always derived from the
// identity shape, never stored separately.

// FileNode returns the identity of a file node
func FileNode(path string) string {
	return "file:" + path
}

// ClassNode returns the identity of a class qualified by its file
func ClassNode(path, name string) string {
	return "file:" + path + ":class:" + name
}

// FuncNode returns the identity of a function qualified by its file
func FuncNode(path, name string) string {
	return "file:" + path + ":function:" + name
}

// Graph is the dependency graph. Node membership changes only through
// AddFile/RemoveFile for the owning file; edges change only through
// Rebuild. Safe for concurrent readers; the engine serializes mutations.
type Graph struct {
	mu        sync.RWMutex
	sourceExt string
	nodes     map[string]struct{}
	edges     map[Edge]struct{}
}

// New creates an empty graph. sourceExt is the extension used when
// resolving imported module names to file paths; empty means ".py".
func New(sourceExt string) *Graph {
	if sourceExt == "" {
		sourceExt = ".py"
	}
	return &Graph{
		sourceExt: sourceExt,
		nodes:     make(map[string]struct{}),
		edges:     make(map[Edge]struct{}),
	}
}

// AddFile registers the file node plus one node per class and function the
// record declares. Failed records contribute only their file node.
func (g *Graph) AddFile(rec *parser.Record) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.nodes[FileNode(rec.Path)] = struct{}{}
	if rec.Failed() {
		return
	}
	for _, cls := range rec.Classes {
		g.nodes[ClassNode(rec.Path, cls.Name)] = struct{}{}
	}
	for _, fn := range rec.Functions {
		g.nodes[FuncNode(rec.Path, fn.Name)] = struct{}{}
	}
}

// RemoveFile drops the file node, every node it owns, and every edge
// touching any of them
func (g *Graph) RemoveFile(path string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	fileID := FileNode(path)
	ownedPrefix := fileID + ":"

	owned := func(id string) bool {
		return id == fileID || strings.HasPrefix(id, ownedPrefix)
	}

	for id := range g.nodes {
		if owned(id) {
			delete(g.nodes, id)
		}
	}
	for e := range g.edges {
		if owned(e.Source) || owned(e.Target) {
			delete(g.edges, e)
		}
	}
}

// HasNode reports whether an identity is present
func (g *Graph) HasNode(id string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.nodes[id]
	return ok
}

// NodeCount returns the number of nodes
func (g *Graph) NodeCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.nodes)
}

// EdgeCount returns the number of distinct edges
func (g *Graph) EdgeCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.edges)
}

// Nodes returns all node identities sorted
func (g *Graph) Nodes() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	ids := make([]string, 0, len(g.nodes))
	for id := range g.nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Edges returns all edges in a stable order
func (g *Graph) Edges() []Edge {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.sortedEdgesLocked()
}

func (g *Graph) sortedEdgesLocked() []Edge {
	edges := make([]Edge, 0, len(g.edges))
	for e := range g.edges {
		edges = append(edges, e)
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].Source != edges[j].Source {
			return edges[i].Source < edges[j].Source
		}
		if edges[i].Target != edges[j].Target {
			return edges[i].Target < edges[j].Target
		}
		return edges[i].Kind < edges[j].Kind
	})
	return edges
}

// Dependencies returns the file paths this file imports, via direct
// imports edges only
func (g *Graph) Dependencies(path string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	source := FileNode(path)
	if _, ok := g.nodes[source]; !ok {
		return nil
	}

	var deps []string
	for e := range g.edges {
		if e.Kind == EdgeImports && e.Source == source {
			deps = append(deps, strings.TrimPrefix(e.Target, "file:"))
		}
	}
	sort.Strings(deps)
	return deps
}

// Dependents returns the file paths that import this file, via direct
// imports edges only
func (g *Graph) Dependents(path string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.dependentsLocked(path)
}

func (g *Graph) dependentsLocked(path string) []string {
	target := FileNode(path)
	if _, ok := g.nodes[target]; !ok {
		return nil
	}

	var deps []string
	for e := range g.edges {
		if e.Kind == EdgeImports && e.Target == target {
			deps = append(deps, strings.TrimPrefix(e.Source, "file:"))
		}
	}
	sort.Strings(deps)
	return deps
}

// CallersOf returns the file paths holding calls edges into any function
// node with the given name, in any file. Matching is by name only.
func (g *Graph) CallersOf(functionName string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	suffix := ":function:" + functionName
	seen := make(map[string]struct{})
	for e := range g.edges {
		if e.Kind == EdgeCalls && strings.HasSuffix(e.Target, suffix) {
			seen[strings.TrimPrefix(e.Source, "file:")] = struct{}{}
		}
	}

	callers := make([]string, 0, len(seen))
	for path := range seen {
		callers = append(callers, path)
	}
	sort.Strings(callers)
	return callers
}
