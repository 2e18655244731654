package vector

import "context"

// Store is the interface to the vector index. IDs mirror dependency-graph
// node identities so results join back onto the graph.
// This enables dependency injection and mocking for testing.
type Store interface {
	// Lifecycle
	Close() error
	HealthCheck() error

	// Entry operations
	Upsert(ctx context.Context, id, document string, meta Metadata) error
	Delete(ctx context.Context, id string) error
	DeleteByPrefix(ctx context.Context, prefix string) error

	// Query runs a similarity search over document embeddings. Scores are
	// a distance metric: lower means more similar.
	Query(ctx context.Context, text string, k int) ([]Entry, error)

	Count() (int64, error)
}

// Ensure SQLiteStore implements Store
var _ Store = (*SQLiteStore)(nil)
