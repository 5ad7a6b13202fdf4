package store

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)
)

const schemaVersion = 1

// metadataStore is the SQLite layer behind the composite store. It owns the
// durable copy of every chunk; the search indexes are rebuilt from it.
type metadataStore struct {
	mu     sync.RWMutex
	db     *sql.DB
	closed bool
}

// newMetadataStore opens (or creates) the chunk database. An empty path
// creates an in-memory database for testing.
func newMetadataStore(path string) (*metadataStore, error) {
	dsn := ":memory:"
	if path != "" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
		dsn = path
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Single writer to prevent lock contention
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	// WAL mode must be set via PRAGMA for modernc.org/sqlite
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA temp_store = MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	m := &metadataStore{db: db}
	if err := m.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return m, nil
}

func (m *metadataStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY
	);

	CREATE TABLE IF NOT EXISTS chunks (
		id           TEXT PRIMARY KEY,
		domain       TEXT NOT NULL,
		content      TEXT NOT NULL,
		order_index  INTEGER NOT NULL,
		header       TEXT NOT NULL,
		header_level INTEGER NOT NULL,
		embedding    BLOB,
		created_at   TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_chunks_domain ON chunks(domain);
	`
	if _, err := m.db.Exec(schema); err != nil {
		return err
	}
	_, err := m.db.Exec(`INSERT OR IGNORE INTO schema_version (version) VALUES (?)`, schemaVersion)
	return err
}

// replaceDomain deletes every chunk in the domain and inserts the given
// chunks in a single transaction.
func (m *metadataStore) replaceDomain(ctx context.Context, domain string, chunks []*Chunk) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return fmt.Errorf("metadata store is closed")
	}

	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM chunks WHERE domain = ?`, domain); err != nil {
		return fmt.Errorf("failed to clear domain %s: %w", domain, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (id, domain, content, order_index, header, header_level, embedding, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, c := range chunks {
		_, err := stmt.ExecContext(ctx, c.ID, c.Domain, c.Content, c.OrderIndex,
			c.Header, c.HeaderLevel, encodeEmbedding(c.Embedding), c.CreatedAt.UTC())
		if err != nil {
			return fmt.Errorf("failed to insert chunk %s: %w", c.ID, err)
		}
	}

	return tx.Commit()
}

// getByIDs retrieves chunks by ID. Missing IDs are silently skipped; the
// result preserves the order of the input IDs.
func (m *metadataStore) getByIDs(ctx context.Context, ids []string) ([]*Chunk, error) {
	if len(ids) == 0 {
		return []*Chunk{}, nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, fmt.Errorf("metadata store is closed")
	}

	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}

	query := fmt.Sprintf(`
		SELECT id, domain, content, order_index, header, header_level, embedding, created_at
		FROM chunks WHERE id IN (%s)`, strings.Join(placeholders, ","))

	rows, err := m.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query chunks: %w", err)
	}
	defer rows.Close()

	byID := make(map[string]*Chunk, len(ids))
	for rows.Next() {
		c, err := scanChunk(rows)
		if err != nil {
			return nil, err
		}
		byID[c.ID] = c
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]*Chunk, 0, len(byID))
	for _, id := range ids {
		if c, ok := byID[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

// getByDomain retrieves all chunks for a domain ordered by position.
func (m *metadataStore) getByDomain(ctx context.Context, domain string) ([]*Chunk, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, fmt.Errorf("metadata store is closed")
	}

	rows, err := m.db.QueryContext(ctx, `
		SELECT id, domain, content, order_index, header, header_level, embedding, created_at
		FROM chunks WHERE domain = ? ORDER BY order_index`, domain)
	if err != nil {
		return nil, fmt.Errorf("failed to query domain %s: %w", domain, err)
	}
	defer rows.Close()

	var out []*Chunk
	for rows.Next() {
		c, err := scanChunk(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// listDomains returns every domain that has at least one chunk.
func (m *metadataStore) listDomains(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, fmt.Errorf("metadata store is closed")
	}

	rows, err := m.db.QueryContext(ctx, `SELECT DISTINCT domain FROM chunks ORDER BY domain`)
	if err != nil {
		return nil, fmt.Errorf("failed to list domains: %w", err)
	}
	defer rows.Close()

	var domains []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		domains = append(domains, d)
	}
	return domains, rows.Err()
}

// countByDomain returns chunk counts grouped by domain.
func (m *metadataStore) countByDomain(ctx context.Context) (map[string]int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, fmt.Errorf("metadata store is closed")
	}

	rows, err := m.db.QueryContext(ctx, `SELECT domain, COUNT(*) FROM chunks GROUP BY domain`)
	if err != nil {
		return nil, fmt.Errorf("failed to count chunks: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var domain string
		var n int
		if err := rows.Scan(&domain, &n); err != nil {
			return nil, err
		}
		counts[domain] = n
	}
	return counts, rows.Err()
}

func (m *metadataStore) close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}
	m.closed = true
	return m.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanChunk(row rowScanner) (*Chunk, error) {
	var c Chunk
	var blob []byte
	var createdAt time.Time
	err := row.Scan(&c.ID, &c.Domain, &c.Content, &c.OrderIndex,
		&c.Header, &c.HeaderLevel, &blob, &createdAt)
	if err != nil {
		return nil, fmt.Errorf("failed to scan chunk: %w", err)
	}
	c.Embedding = decodeEmbedding(blob)
	c.CreatedAt = createdAt
	return &c, nil
}

// encodeEmbedding serializes a vector as little-endian float32 bytes.
func encodeEmbedding(vec []float32) []byte {
	if len(vec) == 0 {
		return nil
	}
	buf := make([]byte, 4*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

// decodeEmbedding deserializes little-endian float32 bytes.
func decodeEmbedding(buf []byte) []float32 {
	if len(buf) == 0 {
		return nil
	}
	vec := make([]float32, len(buf)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return vec
}
