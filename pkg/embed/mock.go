package embed

import (
	"context"
	"hash/fnv"
	"sync"
)

// MockProvider is a configurable in-process Provider for testing
type MockProvider struct {
	mu sync.Mutex

	// Configurable response
	EmbedFunc func(ctx context.Context, model, text string) ([]float32, error)

	// Call tracking
	EmbedCalls []EmbedCall
}

// EmbedCall records one Embed invocation
type EmbedCall struct {
	Model string
	Text  string
}

// NewMockProvider creates a mock that returns a deterministic embedding
// derived from the input text, so distinct texts map to distinct vectors
func NewMockProvider() *MockProvider {
	return &MockProvider{}
}

// Embed records the call and returns the configured or default response
func (m *MockProvider) Embed(ctx context.Context, model, text string) ([]float32, error) {
	m.mu.Lock()
	m.EmbedCalls = append(m.EmbedCalls, EmbedCall{Model: model, Text: text})
	fn := m.EmbedFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, model, text)
	}

	h := fnv.New32a()
	h.Write([]byte(text))
	seed := h.Sum32()

	embedding := make([]float32, 8)
	for i := range embedding {
		seed = seed*1664525 + 1013904223
		embedding[i] = float32(seed%1000) / 1000.0
	}
	return embedding, nil
}

// CallCount returns how many Embed calls were made
func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.EmbedCalls)
}
