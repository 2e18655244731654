// Package worker runs bulk vector writes with bounded concurrency.
// Embedding calls dominate scan time, so documents are fanned out to a
// small pool instead of being written one by one.
package worker

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lastwinnersllc/devgraph/pkg/vector"
)

// Config holds upsert pool configuration
type Config struct {
	Store       vector.Store
	Concurrency int
	MaxRetries  int
	RetryDelay  time.Duration
}

// UpsertPool writes structural summary documents to the vector store
type UpsertPool struct {
	store       vector.Store
	concurrency int
	maxRetries  int
	retryDelay  time.Duration
}

// NewUpsertPool creates a pool writing to cfg.Store
func NewUpsertPool(cfg *Config) *UpsertPool {
	if cfg.Concurrency == 0 {
		cfg.Concurrency = 4
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = time.Second
	}

	return &UpsertPool{
		store:       cfg.Store,
		concurrency: cfg.Concurrency,
		maxRetries:  cfg.MaxRetries,
		retryDelay:  cfg.RetryDelay,
	}
}

// Run upserts every document and returns the count of permanent
// failures. Failures are logged and never abort the batch; the graph
// stays authoritative even when the vector index lags.
func (p *UpsertPool) Run(ctx context.Context, docs []vector.Document) int {
	if len(docs) == 0 {
		return 0
	}

	work := make(chan vector.Document)
	var failed atomic.Int64
	var wg sync.WaitGroup

	for i := 0; i < p.concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for doc := range work {
				if !p.upsertWithRetry(ctx, doc) {
					failed.Add(1)
				}
			}
		}()
	}

	for _, doc := range docs {
		select {
		case <-ctx.Done():
			close(work)
			wg.Wait()
			return int(failed.Load())
		case work <- doc:
		}
	}
	close(work)
	wg.Wait()

	if n := failed.Load(); n > 0 {
		slog.Warn("Vector upserts incomplete", "failed", n, "total", len(docs))
	}
	return int(failed.Load())
}

// upsertWithRetry attempts one document up to maxRetries times
func (p *UpsertPool) upsertWithRetry(ctx context.Context, doc vector.Document) bool {
	var lastErr error
	for attempt := 1; attempt <= p.maxRetries; attempt++ {
		if ctx.Err() != nil {
			return false
		}
		lastErr = p.store.Upsert(ctx, doc.ID, doc.Text, doc.Metadata)
		if lastErr == nil {
			return true
		}
		slog.Debug("Vector upsert failed, will retry", "id", doc.ID, "attempt", attempt, "max_retries", p.maxRetries, "error", lastErr)

		select {
		case <-ctx.Done():
			return false
		case <-time.After(p.retryDelay):
		}
	}
	slog.Error("Vector upsert failed permanently", "id", doc.ID, "retries", p.maxRetries, "error", lastErr)
	return false
}
