package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lastwinnersllc/devgraph/pkg/vector"
)

func testDocs(n int) []vector.Document {
	docs := make([]vector.Document, n)
	for i := range docs {
		docs[i] = vector.Document{
			ID:   "file:doc" + string(rune('a'+i)) + ".py",
			Text: "some summary",
		}
	}
	return docs
}

func TestRun_UpsertsEverything(t *testing.T) {
	store := vector.NewMockStore()
	pool := NewUpsertPool(&Config{Store: store, Concurrency: 2})

	docs := testDocs(5)
	if failed := pool.Run(context.Background(), docs); failed != 0 {
		t.Errorf("Expected no failures, got %d", failed)
	}

	count, _ := store.Count()
	if count != int64(len(docs)) {
		t.Errorf("Expected %d entries, got %d", len(docs), count)
	}
}

func TestRun_EmptyBatch(t *testing.T) {
	store := vector.NewMockStore()
	pool := NewUpsertPool(&Config{Store: store})

	if failed := pool.Run(context.Background(), nil); failed != 0 {
		t.Errorf("Expected no failures for empty batch, got %d", failed)
	}
	if len(store.UpsertCalls) != 0 {
		t.Errorf("Empty batch must not touch the store, got %v", store.UpsertCalls)
	}
}

func TestRun_CountsPermanentFailures(t *testing.T) {
	store := vector.NewMockStore()
	store.UpsertErr = errors.New("provider down")
	pool := NewUpsertPool(&Config{
		Store:       store,
		Concurrency: 1,
		MaxRetries:  2,
		RetryDelay:  time.Millisecond,
	})

	docs := testDocs(3)
	if failed := pool.Run(context.Background(), docs); failed != len(docs) {
		t.Errorf("Expected %d failures, got %d", len(docs), failed)
	}
	// Each document gets MaxRetries attempts
	if got := len(store.UpsertCalls); got != len(docs)*2 {
		t.Errorf("Expected %d upsert attempts, got %d", len(docs)*2, got)
	}
}

func TestRun_CancelledContext(t *testing.T) {
	store := vector.NewMockStore()
	pool := NewUpsertPool(&Config{Store: store, Concurrency: 1})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	pool.Run(ctx, testDocs(10))
	count, _ := store.Count()
	if count != 0 {
		t.Errorf("No document may persist after cancellation, got %d", count)
	}
}
