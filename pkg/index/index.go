// Package index holds the authoritative per-file structural state: one
// parser.Record per known file path. Records are replaced wholesale and
// treated as immutable once stored, so snapshots can share pointers.
package index

import (
	"sort"
	"sync"

	"github.com/lastwinnersllc/devgraph/pkg/parser"
)

// Index maps relative file paths to their structural records. Mutations
// serialize through the engine's update path; readers may run concurrently.
type Index struct {
	mu      sync.RWMutex
	records map[string]*parser.Record
}

// New creates an empty symbol index
func New() *Index {
	return &Index{records: make(map[string]*parser.Record)}
}

// Upsert stores or replaces the record for a path
func (ix *Index) Upsert(path string, rec *parser.Record) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.records[path] = rec
}

// Remove deletes the record for a path, reporting whether it existed
func (ix *Index) Remove(path string) bool {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	_, ok := ix.records[path]
	delete(ix.records, path)
	return ok
}

// Get returns the record for a path, or nil if the file is unknown
func (ix *Index) Get(path string) *parser.Record {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.records[path]
}

// Has reports whether a path is known to the index
func (ix *Index) Has(path string) bool {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	_, ok := ix.records[path]
	return ok
}

// Len returns the number of known files
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.records)
}

// All returns a consistent snapshot of every record, sorted by path so
// downstream consumers behave deterministically
func (ix *Index) All() []*parser.Record {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	records := make([]*parser.Record, 0, len(ix.records))
	for _, rec := range ix.records {
		records = append(records, rec)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Path < records[j].Path })
	return records
}
