package engine

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"

	"github.com/lastwinnersllc/devgraph/pkg/graph"
	"github.com/lastwinnersllc/devgraph/pkg/parser"
	"github.com/lastwinnersllc/devgraph/pkg/vector"
)

// ImpactResult describes what changing a file would reach
type ImpactResult struct {
	File                 string                      `json:"file"`
	DirectDependents     []string                    `json:"direct_dependents"`
	TransitiveDependents []graph.TransitiveDependent `json:"transitive_dependents"`
	Functions            []parser.Function           `json:"functions"`
	Classes              []parser.Class              `json:"classes"`
	TotalImpactCount     int                         `json:"total_impact_count"`
}

// Stats summarises the engine's state
type Stats struct {
	FileCount       int   `json:"files"`
	NodeCount       int   `json:"nodes"`
	EdgeCount       int   `json:"edges"`
	VectorItemCount int64 `json:"vector_items"`
}

// GetFileInfo returns the structural record for a relative path, or nil
// if the file is unknown
func (e *Engine) GetFileInfo(path string) *parser.Record {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.index.Get(path)
}

// GetDependents returns the files that import the given file
func (e *Engine) GetDependents(path string) []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.graph.Dependents(path)
}

// GetDependencies returns the files the given file imports
func (e *Engine) GetDependencies(path string) []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.graph.Dependencies(path)
}

// GetCallersOf returns the files holding call edges to any function with
// the given name
func (e *Engine) GetCallersOf(functionName string) []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.graph.CallersOf(functionName)
}

// GetImpactAnalysis computes direct and transitive dependents of a file
// plus its own declarations. Unknown files yield an empty result, not an
// error.
func (e *Engine) GetImpactAnalysis(path string) *ImpactResult {
	e.mu.RLock()
	defer e.mu.RUnlock()

	set := e.graph.Impact(path)

	result := &ImpactResult{
		File:                 path,
		DirectDependents:     set.Direct,
		TransitiveDependents: set.Transitive,
		TotalImpactCount:     len(set.Direct) + len(set.Transitive),
	}

	if rec := e.index.Get(path); rec != nil && !rec.Failed() {
		result.Functions = rec.Functions
		result.Classes = rec.Classes
	}
	return result
}

// SearchCode runs a semantic search over the vector index. It touches no
// structural state, so it runs off the mutation lock: a slow provider
// must not stall index updates. Provider and store failures degrade to an
// empty result set; they are logged, never propagated.
func (e *Engine) SearchCode(ctx context.Context, query string, n int) []vector.Entry {
	entries, err := e.store.Query(ctx, query, n)
	if err != nil {
		slog.Warn("Semantic search failed", "query", query, "error", err)
		return []vector.Entry{}
	}
	if entries == nil {
		entries = []vector.Entry{}
	}
	return entries
}

// GetSystemStats reports index, graph and vector store sizes
func (e *Engine) GetSystemStats() Stats {
	e.mu.RLock()
	defer e.mu.RUnlock()

	count, err := e.store.Count()
	if err != nil {
		slog.Warn("Vector count failed", "error", err)
		count = 0
	}
	return Stats{
		FileCount:       e.index.Len(),
		NodeCount:       e.graph.NodeCount(),
		EdgeCount:       e.graph.EdgeCount(),
		VectorItemCount: count,
	}
}

// GenerateCodeMap renders the full graph for external visualization
func (e *Engine) GenerateCodeMap() *graph.CodeMap {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.graph.BuildCodeMap()
}

// WriteCodeMap writes the code map as indented JSON to a file
func (e *Engine) WriteCodeMap(path string) error {
	data, err := json.MarshalIndent(e.GenerateCodeMap(), "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
