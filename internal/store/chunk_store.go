// Package store implements codii's two persistent stores: the Chunk Store
// (a SQLite-backed relational table with an FTS5 full-text shadow) and the
// Vector Store (an HNSW-backed approximate nearest neighbor index).
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite" // pure-Go SQLite driver, no CGO

	codiierrors "github.com/oOSomnus/codii/internal/errors"
	"github.com/oOSomnus/codii/internal/query"
)

// CodeChunk is an immutable span of source text produced by the Syntax
// Chunker.
type CodeChunk struct {
	Content   string
	Path      string
	StartLine int
	EndLine   int
	Language  string
	ChunkType string
	Name      string
}

// StoredChunk is a CodeChunk plus its store-assigned integer id.
type StoredChunk struct {
	ID int64
	CodeChunk
	CreatedAt time.Time
}

// BM25Row is one hit from a BM25 search: a stored chunk plus its raw (not
// yet fused) BM25 score.
type BM25Row struct {
	StoredChunk
	Score float64
}

// ChunkStore is the persistent ordered collection of code chunks, backed
// by SQLite with an FTS5 full-text shadow kept in lockstep via triggers.
type ChunkStore struct {
	mu        sync.RWMutex
	db        *sql.DB
	path      string
	closed    bool
	processor *query.Processor
}

// OpenChunkStore opens (creating if necessary) the Chunk Store database at
// path. An empty path opens an in-memory store, useful for tests.
func OpenChunkStore(path string) (*ChunkStore, error) {
	dsn := ":memory:"
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory for chunk store: %w", err)
		}
		if err := validateIntegrity(path); err != nil {
			_ = os.Remove(path)
			_ = os.Remove(path + "-wal")
			_ = os.Remove(path + "-shm")
		}
		dsn = path
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, codiierrors.StoreCorruption(err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA cache_size = -65536",
		"PRAGMA temp_store = MEMORY",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, codiierrors.StoreCorruption(err)
		}
	}

	cs := &ChunkStore{db: db, path: path, processor: query.New()}
	if err := cs.initSchema(); err != nil {
		_ = db.Close()
		return nil, codiierrors.StoreCorruption(err)
	}
	return cs, nil
}

func validateIntegrity(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	db, err := sql.Open("sqlite", path+"?mode=ro")
	if err != nil {
		return err
	}
	defer db.Close()

	var result string
	if err := db.QueryRow("PRAGMA integrity_check").Scan(&result); err != nil {
		return err
	}
	if result != "ok" {
		return fmt.Errorf("database corrupted: %s", result)
	}
	return nil
}

// initSchema creates the chunks/files tables, the FTS5 shadow table, and
// the triggers that keep the shadow in lockstep with chunks.
func (cs *ChunkStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS chunks (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		content TEXT NOT NULL,
		path TEXT NOT NULL,
		start_line INTEGER NOT NULL,
		end_line INTEGER NOT NULL,
		language TEXT NOT NULL,
		chunk_type TEXT NOT NULL,
		name TEXT,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_chunks_path ON chunks(path);

	CREATE TABLE IF NOT EXISTS files (
		path TEXT PRIMARY KEY,
		hash TEXT NOT NULL,
		last_modified TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE VIRTUAL TABLE IF NOT EXISTS fts_chunks USING fts5(
		content, path, language,
		content='chunks', content_rowid='id',
		tokenize='unicode61'
	);

	CREATE TRIGGER IF NOT EXISTS chunks_ai AFTER INSERT ON chunks BEGIN
		INSERT INTO fts_chunks(rowid, content, path, language)
		VALUES (new.id, new.content, new.path, new.language);
	END;

	CREATE TRIGGER IF NOT EXISTS chunks_ad AFTER DELETE ON chunks BEGIN
		INSERT INTO fts_chunks(fts_chunks, rowid, content, path, language)
		VALUES ('delete', old.id, old.content, old.path, old.language);
	END;

	CREATE TRIGGER IF NOT EXISTS chunks_au AFTER UPDATE ON chunks BEGIN
		INSERT INTO fts_chunks(fts_chunks, rowid, content, path, language)
		VALUES ('delete', old.id, old.content, old.path, old.language);
		INSERT INTO fts_chunks(rowid, content, path, language)
		VALUES (new.id, new.content, new.path, new.language);
	END;
	`
	_, err := cs.db.Exec(schema)
	return err
}

// InsertChunk inserts a single chunk and returns its assigned id.
func (cs *ChunkStore) InsertChunk(ctx context.Context, c CodeChunk) (int64, error) {
	ids, err := cs.InsertChunksBatch(ctx, []CodeChunk{c})
	if err != nil {
		return 0, err
	}
	return ids[0], nil
}

// InsertChunksBatch inserts chunks atomically in one commit and returns
// the ids the store assigned, in insertion order. Callers must use these
// returned ids rather than inferring them from "last N by value".
func (cs *ChunkStore) InsertChunksBatch(ctx context.Context, chunks []CodeChunk) ([]int64, error) {
	if len(chunks) == 0 {
		return nil, nil
	}

	cs.mu.Lock()
	defer cs.mu.Unlock()
	if cs.closed {
		return nil, fmt.Errorf("chunk store is closed")
	}

	tx, err := cs.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, codiierrors.StoreCorruption(err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (content, path, start_line, end_line, language, chunk_type, name)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return nil, codiierrors.StoreCorruption(err)
	}
	defer stmt.Close()

	ids := make([]int64, len(chunks))
	for i, c := range chunks {
		res, err := stmt.ExecContext(ctx, c.Content, c.Path, c.StartLine, c.EndLine, c.Language, c.ChunkType, nullableName(c.Name))
		if err != nil {
			return nil, codiierrors.StoreCorruption(err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, codiierrors.StoreCorruption(err)
		}
		ids[i] = id
	}

	if err := tx.Commit(); err != nil {
		return nil, codiierrors.StoreCorruption(err)
	}
	return ids, nil
}

func nullableName(name string) any {
	if name == "" {
		return nil
	}
	return name
}

// SearchBM25 preprocesses queryText through the Query Processor, then
// returns matching rows sorted by ascending raw BM25 score (lower is more
// relevant in FTS5's scorer), optionally restricted to paths containing
// pathSubstring. Malformed FTS syntax is absorbed as zero results, never
// surfaced to the caller.
func (cs *ChunkStore) SearchBM25(ctx context.Context, queryText string, limit int, pathSubstring string) ([]BM25Row, error) {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	if cs.closed {
		return nil, fmt.Errorf("chunk store is closed")
	}

	processed := cs.processor.Process(queryText)
	if processed.FTSQuery == "" {
		return nil, nil
	}

	args := []any{processed.FTSQuery}
	sqlText := `
		SELECT c.id, c.content, c.path, c.start_line, c.end_line, c.language, c.chunk_type,
		       COALESCE(c.name, ''), c.created_at, bm25(fts_chunks) AS score
		FROM fts_chunks
		JOIN chunks c ON c.id = fts_chunks.rowid
		WHERE fts_chunks MATCH ?
	`
	if pathSubstring != "" {
		sqlText += " AND c.path LIKE ?"
		args = append(args, "%"+pathSubstring+"%")
	}
	sqlText += " ORDER BY score LIMIT ?"
	args = append(args, limit)

	rows, err := cs.db.QueryContext(ctx, sqlText, args...)
	if err != nil {
		if strings.Contains(err.Error(), "fts5:") || strings.Contains(err.Error(), "syntax error") {
			return nil, nil
		}
		return nil, codiierrors.StoreCorruption(err)
	}
	defer rows.Close()

	var results []BM25Row
	for rows.Next() {
		var r BM25Row
		if err := rows.Scan(&r.ID, &r.Content, &r.Path, &r.StartLine, &r.EndLine, &r.Language, &r.ChunkType, &r.Name, &r.CreatedAt, &r.Score); err != nil {
			return nil, codiierrors.StoreCorruption(err)
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// GetChunk fetches a single chunk by id, or (zero-value, false) if absent.
func (cs *ChunkStore) GetChunk(ctx context.Context, id int64) (StoredChunk, bool, error) {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	if cs.closed {
		return StoredChunk{}, false, fmt.Errorf("chunk store is closed")
	}

	var c StoredChunk
	err := cs.db.QueryRowContext(ctx, `
		SELECT id, content, path, start_line, end_line, language, chunk_type, COALESCE(name, ''), created_at
		FROM chunks WHERE id = ?
	`, id).Scan(&c.ID, &c.Content, &c.Path, &c.StartLine, &c.EndLine, &c.Language, &c.ChunkType, &c.Name, &c.CreatedAt)
	if err == sql.ErrNoRows {
		return StoredChunk{}, false, nil
	}
	if err != nil {
		return StoredChunk{}, false, codiierrors.StoreCorruption(err)
	}
	return c, true, nil
}

// GetChunkIDsByPath returns the ids of every chunk stored for path.
func (cs *ChunkStore) GetChunkIDsByPath(ctx context.Context, path string) ([]int64, error) {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	if cs.closed {
		return nil, fmt.Errorf("chunk store is closed")
	}

	rows, err := cs.db.QueryContext(ctx, `SELECT id FROM chunks WHERE path = ?`, path)
	if err != nil {
		return nil, codiierrors.StoreCorruption(err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, codiierrors.StoreCorruption(err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// DeleteChunksByPath deletes every chunk stored for path (the FTS shadow
// row is evicted by the chunks_ad trigger) and returns the count removed.
func (cs *ChunkStore) DeleteChunksByPath(ctx context.Context, path string) (int64, error) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	if cs.closed {
		return 0, fmt.Errorf("chunk store is closed")
	}

	res, err := cs.db.ExecContext(ctx, `DELETE FROM chunks WHERE path = ?`, path)
	if err != nil {
		return 0, codiierrors.StoreCorruption(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, codiierrors.StoreCorruption(err)
	}
	return n, nil
}

// ClearAllChunks deletes every chunk in the store and returns the count
// removed.
func (cs *ChunkStore) ClearAllChunks(ctx context.Context) (int64, error) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	if cs.closed {
		return 0, fmt.Errorf("chunk store is closed")
	}

	res, err := cs.db.ExecContext(ctx, `DELETE FROM chunks`)
	if err != nil {
		return 0, codiierrors.StoreCorruption(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, codiierrors.StoreCorruption(err)
	}
	if _, err := cs.db.ExecContext(ctx, `DELETE FROM files`); err != nil {
		return n, codiierrors.StoreCorruption(err)
	}
	return n, nil
}

// UpsertFileHash mirrors path's content hash into the files table,
// diagnostic shadow of the Merkle snapshot.
func (cs *ChunkStore) UpsertFileHash(ctx context.Context, path, hash string) error {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	if cs.closed {
		return fmt.Errorf("chunk store is closed")
	}

	_, err := cs.db.ExecContext(ctx, `
		INSERT INTO files (path, hash, last_modified) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(path) DO UPDATE SET hash = excluded.hash, last_modified = CURRENT_TIMESTAMP
	`, path, hash)
	if err != nil {
		return codiierrors.StoreCorruption(err)
	}
	return nil
}

// DeleteFileHash removes path's entry from the files table.
func (cs *ChunkStore) DeleteFileHash(ctx context.Context, path string) error {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	if cs.closed {
		return fmt.Errorf("chunk store is closed")
	}
	_, err := cs.db.ExecContext(ctx, `DELETE FROM files WHERE path = ?`, path)
	if err != nil {
		return codiierrors.StoreCorruption(err)
	}
	return nil
}

// GetAllFileHashes returns the complete path -> hash map mirrored from the
// Merkle snapshot.
func (cs *ChunkStore) GetAllFileHashes(ctx context.Context) (map[string]string, error) {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	if cs.closed {
		return nil, fmt.Errorf("chunk store is closed")
	}

	rows, err := cs.db.QueryContext(ctx, `SELECT path, hash FROM files`)
	if err != nil {
		return nil, codiierrors.StoreCorruption(err)
	}
	defer rows.Close()

	result := make(map[string]string)
	for rows.Next() {
		var path, hash string
		if err := rows.Scan(&path, &hash); err != nil {
			return nil, codiierrors.StoreCorruption(err)
		}
		result[path] = hash
	}
	return result, rows.Err()
}

// CountChunks returns the total number of stored chunks.
func (cs *ChunkStore) CountChunks(ctx context.Context) (int, error) {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	if cs.closed {
		return 0, fmt.Errorf("chunk store is closed")
	}

	var count int
	if err := cs.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chunks`).Scan(&count); err != nil {
		return 0, codiierrors.StoreCorruption(err)
	}
	return count, nil
}

// Close closes the underlying database connection, checkpointing the WAL
// first for durability.
func (cs *ChunkStore) Close() error {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	if cs.closed {
		return nil
	}
	cs.closed = true
	_, _ = cs.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
	return cs.db.Close()
}
