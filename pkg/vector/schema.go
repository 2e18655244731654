package vector

// Schema version for migration tracking
const SchemaVersion = "1.0.0"

// DDL statements for store initialization
const (
	EnableWALMode = `PRAGMA journal_mode=WAL;`

	SetWALCheckpoint = `PRAGMA wal_autocheckpoint=1000;`

	// Meta table stores configuration and version info
	CreateMetaTable = `
CREATE TABLE IF NOT EXISTS meta (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);`

	// Items table carries the document text and metadata for every entry;
	// node_id is the graph identity the entry mirrors
	CreateItemsTable = `
CREATE TABLE IF NOT EXISTS items (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    node_id TEXT UNIQUE NOT NULL,
    document TEXT NOT NULL,
    item_type TEXT NOT NULL,
    path TEXT NOT NULL,
    name TEXT,
    lineno INTEGER,
    updated_at INTEGER NOT NULL
);`

	CreateItemsNodeIndex = `
CREATE INDEX IF NOT EXISTS idx_items_node ON items(node_id);`

	CreateItemsPathIndex = `
CREATE INDEX IF NOT EXISTS idx_items_path ON items(path);`

	// Vec_items virtual table for vector similarity search.
	// Dimension must be specified at creation time. Cosine distance suits
	// text embeddings like nomic-embed-text.
	CreateVecItemsTableTemplate = `
CREATE VIRTUAL TABLE IF NOT EXISTS vec_items USING vec0(
    item_id INTEGER PRIMARY KEY,
    embedding FLOAT[%d] distance_metric=cosine
);`
)
