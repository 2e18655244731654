package vector

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// MockStore is an in-memory Store for testing. Query ranks entries by
// naive token overlap with the query text, which is deterministic and good
// enough to assert routing and lifecycle behaviour.
type MockStore struct {
	mu      sync.Mutex
	entries map[string]Entry

	// Configurable failure injection
	UpsertErr error
	QueryErr  error

	// Call tracking
	UpsertCalls []string
	DeleteCalls []string
	QueryCalls  []string
}

// Ensure MockStore implements Store
var _ Store = (*MockStore)(nil)

// NewMockStore creates an empty mock store
func NewMockStore() *MockStore {
	return &MockStore{entries: make(map[string]Entry)}
}

func (m *MockStore) Close() error       { return nil }
func (m *MockStore) HealthCheck() error { return nil }

func (m *MockStore) Upsert(ctx context.Context, id, document string, meta Metadata) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UpsertCalls = append(m.UpsertCalls, id)
	if m.UpsertErr != nil {
		return m.UpsertErr
	}
	m.entries[id] = Entry{ID: id, Document: document, Metadata: meta}
	return nil
}

func (m *MockStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DeleteCalls = append(m.DeleteCalls, id)
	delete(m.entries, id)
	return nil
}

func (m *MockStore) DeleteByPrefix(ctx context.Context, prefix string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DeleteCalls = append(m.DeleteCalls, prefix)
	for id := range m.entries {
		if id == prefix || strings.HasPrefix(id, prefix+":") {
			delete(m.entries, id)
		}
	}
	return nil
}

func (m *MockStore) Query(ctx context.Context, text string, k int) ([]Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.QueryCalls = append(m.QueryCalls, text)
	if m.QueryErr != nil {
		return nil, m.QueryErr
	}
	if k <= 0 {
		k = 5
	}

	tokens := strings.Fields(strings.ToLower(text))
	var results []Entry
	for _, e := range m.entries {
		hits := 0
		doc := strings.ToLower(e.Document)
		for _, tok := range tokens {
			if strings.Contains(doc, tok) {
				hits++
			}
		}
		// Distance metric: lower is more similar
		e.Score = 1.0 / float64(hits+1)
		results = append(results, e)
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score < results[j].Score
		}
		return results[i].ID < results[j].ID
	})
	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

func (m *MockStore) Count() (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.entries)), nil
}

// Has reports whether an id is stored
func (m *MockStore) Has(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.entries[id]
	return ok
}

// IDs returns all stored ids sorted
func (m *MockStore) IDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.entries))
	for id := range m.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
