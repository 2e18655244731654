// Package vector is the adapter around the embedding-backed vector index.
// Documents are structural summaries, not raw source, so search matches on
// what a file declares rather than incidental text.
package vector

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"

	"github.com/lastwinnersllc/devgraph/pkg/embed"
)

// Metadata describes one vector entry
type Metadata struct {
	Type      string `json:"type"` // file, class or function
	Path      string `json:"path"`
	Name      string `json:"name,omitempty"`
	Line      int    `json:"lineno,omitempty"`
	UpdatedAt int64  `json:"last_updated"`
}

// Entry is one search result. Score is a cosine distance: lower is more
// similar, and the scale is provider-dependent.
type Entry struct {
	ID       string   `json:"id"`
	Document string   `json:"document"`
	Metadata Metadata `json:"metadata"`
	Score    float64  `json:"score"`
}

// Config holds store configuration
type Config struct {
	Path         string // Database file path
	EmbeddingDim int    // Dimension of embedding vectors (e.g., 384, 768)
	Model        string // Embedding model passed to the provider
	SkipVecTable bool   // Skip creating vec_items (for testing without sqlite-vec)
}

// SQLiteStore persists entries in SQLite with sqlite-vec similarity search
type SQLiteStore struct {
	conn         *sql.DB
	provider     embed.Provider
	path         string
	model        string
	embeddingDim int
}

// Open opens or creates a vector store backed by the given provider
func Open(cfg Config, provider embed.Provider) (*SQLiteStore, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("store path cannot be empty")
	}
	if cfg.EmbeddingDim <= 0 {
		return nil, fmt.Errorf("embedding dimension must be positive, got %d", cfg.EmbeddingDim)
	}
	if provider == nil {
		return nil, fmt.Errorf("embedding provider is required")
	}

	dir := filepath.Dir(cfg.Path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	// Enable sqlite-vec extension for all future connections
	sqlite_vec.Auto()

	dsn := fmt.Sprintf("file:%s?_foreign_keys=on", cfg.Path)
	conn, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	// Single writer, a few readers
	conn.SetMaxOpenConns(5)
	conn.SetMaxIdleConns(2)
	conn.SetConnMaxLifetime(time.Hour)

	s := &SQLiteStore{
		conn:         conn,
		provider:     provider,
		path:         cfg.Path,
		model:        cfg.Model,
		embeddingDim: cfg.EmbeddingDim,
	}

	if err := s.initSchema(cfg); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	if err := os.Chmod(cfg.Path, 0600); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to set store permissions: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) initSchema(cfg Config) error {
	if _, err := s.conn.Exec(EnableWALMode); err != nil {
		return fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := s.conn.Exec(SetWALCheckpoint); err != nil {
		return fmt.Errorf("failed to set WAL checkpoint: %w", err)
	}

	schemas := []string{
		CreateMetaTable,
		CreateItemsTable,
		CreateItemsNodeIndex,
		CreateItemsPathIndex,
	}
	if !cfg.SkipVecTable {
		schemas = append(schemas, fmt.Sprintf(CreateVecItemsTableTemplate, s.embeddingDim))
	}

	for _, ddl := range schemas {
		if _, err := s.conn.Exec(ddl); err != nil {
			return fmt.Errorf("schema statement failed: %w", err)
		}
	}

	if err := s.SetMeta("schema_version", SchemaVersion); err != nil {
		return err
	}
	return s.SetMeta("embedding_dim", fmt.Sprintf("%d", s.embeddingDim))
}

// Close releases the underlying connection
func (s *SQLiteStore) Close() error {
	return s.conn.Close()
}

// HealthCheck verifies the store is reachable
func (s *SQLiteStore) HealthCheck() error {
	return s.conn.Ping()
}

// Path returns the store file path
func (s *SQLiteStore) Path() string {
	return s.path
}

// EmbeddingDim returns the configured embedding dimension
func (s *SQLiteStore) EmbeddingDim() int {
	return s.embeddingDim
}

// GetMeta reads a metadata value
func (s *SQLiteStore) GetMeta(key string) (string, error) {
	var value string
	err := s.conn.QueryRow("SELECT value FROM meta WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get meta %s: %w", key, err)
	}
	return value, nil
}

// SetMeta writes a metadata value
func (s *SQLiteStore) SetMeta(key, value string) error {
	_, err := s.conn.Exec(
		"INSERT INTO meta (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value)
	if err != nil {
		return fmt.Errorf("failed to set meta %s: %w", key, err)
	}
	return nil
}

// Upsert embeds a document and stores it under the given identity,
// replacing any previous entry for that identity
func (s *SQLiteStore) Upsert(ctx context.Context, id, document string, meta Metadata) error {
	embedding, err := s.provider.Embed(ctx, s.model, document)
	if err != nil {
		return fmt.Errorf("failed to embed document %s: %w", id, err)
	}
	if len(embedding) != s.embeddingDim {
		return fmt.Errorf("embedding dimension mismatch: expected %d, got %d", s.embeddingDim, len(embedding))
	}

	embBytes, err := sqlite_vec.SerializeFloat32(embedding)
	if err != nil {
		return fmt.Errorf("failed to serialize embedding: %w", err)
	}

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin upsert: %w", err)
	}
	defer tx.Rollback()

	if err := deleteByNodeID(tx, id); err != nil {
		return err
	}

	res, err := tx.Exec(`
		INSERT INTO items (node_id, document, item_type, path, name, lineno, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, id, document, meta.Type, meta.Path, meta.Name, meta.Line, meta.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert item: %w", err)
	}

	itemID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get item ID: %w", err)
	}

	if _, err := tx.Exec(
		"INSERT INTO vec_items (item_id, embedding) VALUES (?, ?)", itemID, embBytes); err != nil {
		return fmt.Errorf("failed to insert embedding: %w", err)
	}

	return tx.Commit()
}

// Delete removes the entry for one identity, if present
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin delete: %w", err)
	}
	defer tx.Rollback()

	if err := deleteByNodeID(tx, id); err != nil {
		return err
	}
	return tx.Commit()
}

// DeleteByPrefix removes the entry for an identity and every entry under
// it (prefix followed by ":"), so a file and its definitions go together
func (s *SQLiteStore) DeleteByPrefix(ctx context.Context, prefix string) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin delete: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`
		DELETE FROM vec_items WHERE item_id IN
			(SELECT id FROM items WHERE node_id = ? OR node_id LIKE ? || ':%')
	`, prefix, prefix); err != nil {
		return fmt.Errorf("failed to delete embeddings: %w", err)
	}
	if _, err := tx.Exec(
		"DELETE FROM items WHERE node_id = ? OR node_id LIKE ? || ':%'", prefix, prefix); err != nil {
		return fmt.Errorf("failed to delete items: %w", err)
	}
	return tx.Commit()
}

func deleteByNodeID(tx *sql.Tx, id string) error {
	if _, err := tx.Exec(
		"DELETE FROM vec_items WHERE item_id IN (SELECT id FROM items WHERE node_id = ?)", id); err != nil {
		return fmt.Errorf("failed to delete embedding: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM items WHERE node_id = ?", id); err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}
	return nil
}

// Query embeds the query text and returns the k nearest entries by cosine
// distance, most similar first
func (s *SQLiteStore) Query(ctx context.Context, text string, k int) ([]Entry, error) {
	if k <= 0 {
		k = 5
	}

	embedding, err := s.provider.Embed(ctx, s.model, text)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if len(embedding) != s.embeddingDim {
		return nil, fmt.Errorf("query embedding dimension mismatch: expected %d, got %d", s.embeddingDim, len(embedding))
	}

	queryBytes, err := sqlite_vec.SerializeFloat32(embedding)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize query embedding: %w", err)
	}

	rows, err := s.conn.QueryContext(ctx, `
		SELECT i.node_id, i.document, i.item_type, i.path, i.name, i.lineno, i.updated_at, distance
		FROM vec_items v
		JOIN items i ON i.id = v.item_id
		WHERE embedding MATCH ?
		  AND k = ?
		ORDER BY distance
	`, queryBytes, k)
	if err != nil {
		return nil, fmt.Errorf("failed to query similar items: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var name sql.NullString
		var lineno sql.NullInt64
		if err := rows.Scan(&e.ID, &e.Document, &e.Metadata.Type, &e.Metadata.Path,
			&name, &lineno, &e.Metadata.UpdatedAt, &e.Score); err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		e.Metadata.Name = name.String
		e.Metadata.Line = int(lineno.Int64)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating entries: %w", err)
	}

	return entries, nil
}

// Count returns the number of stored entries
func (s *SQLiteStore) Count() (int64, error) {
	var count int64
	if err := s.conn.QueryRow("SELECT COUNT(*) FROM items").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count items: %w", err)
	}
	return count, nil
}
