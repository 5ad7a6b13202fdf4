package store

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	apperrors "github.com/ololopopova/ai-chat/internal/errors"
)

// Config configures the composite chunk store.
type Config struct {
	// DataDir is the directory holding the database and indexes.
	// Empty means fully in-memory (for testing).
	DataDir string

	// Dimensions is the embedding dimension enforced on every vector.
	Dimensions int
}

// Store is the composite ChunkStore backed by SQLite (durable metadata and
// embeddings), Bleve (sparse full-text) and HNSW (dense vectors). SQLite is
// the source of truth; both search indexes live in memory and are rebuilt
// from it on open, so an interrupted replace can never leave a domain
// permanently desynced.
type Store struct {
	meta   *metadataStore
	sparse *sparseIndex
	dense  *denseIndex
	lock   *flock.Flock
}

// Verify interface implementation at compile time
var _ ChunkStore = (*Store)(nil)

// Open creates or opens a store. When DataDir is set, an exclusive file
// lock guards the directory against concurrent writers.
func Open(cfg Config) (*Store, error) {
	var dirLock *flock.Flock
	dbPath := ""

	if cfg.DataDir != "" {
		if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
			return nil, apperrors.Wrap(apperrors.ErrCodeStoreFailed,
				fmt.Errorf("failed to create data directory: %w", err))
		}

		dirLock = flock.New(filepath.Join(cfg.DataDir, ".lock"))
		acquired, err := dirLock.TryLock()
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrCodeStoreFailed,
				fmt.Errorf("failed to acquire data directory lock: %w", err))
		}
		if !acquired {
			return nil, apperrors.New(apperrors.ErrCodeStoreFailed,
				"data directory is locked by another process", nil)
		}

		dbPath = filepath.Join(cfg.DataDir, "chunks.db")
	}

	meta, err := newMetadataStore(dbPath)
	if err != nil {
		releaseLock(dirLock)
		return nil, apperrors.Wrap(apperrors.ErrCodeStoreFailed, err)
	}

	sparse, err := newSparseIndex()
	if err != nil {
		_ = meta.close()
		releaseLock(dirLock)
		return nil, apperrors.Wrap(apperrors.ErrCodeStoreFailed, err)
	}

	s := &Store{
		meta:   meta,
		sparse: sparse,
		dense:  newDenseIndex(cfg.Dimensions),
		lock:   dirLock,
	}

	if err := s.rebuildIndexes(context.Background()); err != nil {
		_ = s.Close()
		return nil, apperrors.Wrap(apperrors.ErrCodeStoreFailed, err)
	}

	return s, nil
}

// rebuildIndexes reconstructs both in-memory search indexes from the stored
// chunks.
func (s *Store) rebuildIndexes(ctx context.Context) error {
	domains, err := s.meta.listDomains(ctx)
	if err != nil {
		return err
	}

	for _, domain := range domains {
		chunks, err := s.meta.getByDomain(ctx, domain)
		if err != nil {
			return err
		}
		if err := s.sparse.replaceDomain(nil, chunks); err != nil {
			return err
		}
		if err := s.dense.replaceDomain(domain, chunks); err != nil {
			return err
		}
		slog.Debug("rebuilt search indexes",
			slog.String("domain", domain),
			slog.Int("chunks", len(chunks)))
	}
	return nil
}

// ReplaceDomainChunks atomically replaces all chunks for a domain. The
// metadata write commits first; the derived indexes are then swapped to
// match it.
func (s *Store) ReplaceDomainChunks(ctx context.Context, domain string, inputs []*ChunkInput) (int, error) {
	if domain == "" {
		return 0, apperrors.New(apperrors.ErrCodeUnknownDomain, "domain must not be empty", nil)
	}

	now := time.Now().UTC()
	chunks := make([]*Chunk, len(inputs))
	for i, in := range inputs {
		if len(in.Embedding) != s.dense.dimensions {
			return 0, apperrors.Newf(apperrors.ErrCodeDimensionMismatch,
				"chunk %d has embedding dimension %d, expected %d",
				in.OrderIndex, len(in.Embedding), s.dense.dimensions)
		}
		chunks[i] = &Chunk{
			ID:          uuid.NewString(),
			Domain:      domain,
			Content:     in.Content,
			OrderIndex:  in.OrderIndex,
			Header:      in.Header,
			HeaderLevel: in.HeaderLevel,
			Embedding:   in.Embedding,
			CreatedAt:   now,
		}
	}

	// Collect the IDs being replaced so the sparse index can drop them.
	previous, err := s.meta.getByDomain(ctx, domain)
	if err != nil {
		return 0, apperrors.Wrap(apperrors.ErrCodeStoreFailed, err)
	}
	oldIDs := make([]string, len(previous))
	for i, c := range previous {
		oldIDs[i] = c.ID
	}

	if err := s.meta.replaceDomain(ctx, domain, chunks); err != nil {
		return 0, apperrors.Wrap(apperrors.ErrCodeStoreFailed, err)
	}

	// The metadata commit is the durable point of no return. If a derived
	// index fails past it, roll everything back to the previous state so
	// the replace stays all-or-nothing.
	if err := s.sparse.replaceDomain(oldIDs, chunks); err != nil {
		s.restorePrevious(ctx, domain, previous, nil)
		return 0, apperrors.Wrap(apperrors.ErrCodeStoreFailed, err)
	}
	if err := s.dense.replaceDomain(domain, chunks); err != nil {
		newIDs := make([]string, len(chunks))
		for i, c := range chunks {
			newIDs[i] = c.ID
		}
		s.restorePrevious(ctx, domain, previous, newIDs)
		return 0, apperrors.Wrap(apperrors.ErrCodeStoreFailed, err)
	}

	slog.Info("replaced domain chunks",
		slog.String("domain", domain),
		slog.Int("previous", len(previous)),
		slog.Int("current", len(chunks)))

	return len(chunks), nil
}

// restorePrevious undoes a partially applied replace: the metadata store is
// rewound to the previous chunks and, when staleIDs is set, the sparse
// index swaps the new documents back out. Restore failures are logged; the
// in-memory indexes are rebuilt from the metadata store on the next open
// either way.
func (s *Store) restorePrevious(ctx context.Context, domain string, previous []*Chunk, staleIDs []string) {
	if err := s.meta.replaceDomain(ctx, domain, previous); err != nil {
		slog.Warn("failed to restore previous domain chunks",
			slog.String("domain", domain),
			slog.String("error", err.Error()))
	}
	if len(staleIDs) > 0 {
		if err := s.sparse.replaceDomain(staleIDs, previous); err != nil {
			slog.Warn("failed to restore previous sparse documents",
				slog.String("domain", domain),
				slog.String("error", err.Error()))
		}
	}
}

// SearchSparse runs domain-scoped full-text search and hydrates the hits
// from the metadata store.
func (s *Store) SearchSparse(ctx context.Context, domain, query string, limit int) ([]*SparseResult, error) {
	hits, err := s.sparse.search(ctx, domain, query, limit)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeStoreFailed, err)
	}
	if len(hits) == 0 {
		return []*SparseResult{}, nil
	}

	ids := make([]string, len(hits))
	scores := make(map[string]float64, len(hits))
	for i, h := range hits {
		ids[i] = h.ID
		scores[h.ID] = h.Score
	}

	chunks, err := s.meta.getByIDs(ctx, ids)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeStoreFailed, err)
	}

	results := make([]*SparseResult, 0, len(chunks))
	for _, c := range chunks {
		results = append(results, &SparseResult{Chunk: c, Score: scores[c.ID]})
	}
	return results, nil
}

// SearchDense runs domain-scoped nearest-neighbor search and hydrates the
// hits from the metadata store.
func (s *Store) SearchDense(ctx context.Context, domain string, vector []float32, limit int) ([]*DenseResult, error) {
	hits, err := s.dense.search(domain, vector, limit)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeStoreFailed, err)
	}
	if len(hits) == 0 {
		return []*DenseResult{}, nil
	}

	ids := make([]string, len(hits))
	distances := make(map[string]float32, len(hits))
	for i, h := range hits {
		ids[i] = h.ID
		distances[h.ID] = h.Distance
	}

	chunks, err := s.meta.getByIDs(ctx, ids)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeStoreFailed, err)
	}

	results := make([]*DenseResult, 0, len(chunks))
	for _, c := range chunks {
		results = append(results, &DenseResult{Chunk: c, Distance: distances[c.ID]})
	}
	return results, nil
}

// CountByDomain returns the number of stored chunks per domain.
func (s *Store) CountByDomain(ctx context.Context) (map[string]int, error) {
	counts, err := s.meta.countByDomain(ctx)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeStoreFailed, err)
	}
	return counts, nil
}

// Close releases indexes, the database and the directory lock.
func (s *Store) Close() error {
	var firstErr error

	if err := s.sparse.close(); err != nil {
		firstErr = err
	}
	if err := s.dense.close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := s.meta.close(); err != nil && firstErr == nil {
		firstErr = err
	}
	releaseLock(s.lock)

	if firstErr != nil {
		return apperrors.Wrap(apperrors.ErrCodeStoreFailed, firstErr)
	}
	return nil
}

func releaseLock(l *flock.Flock) {
	if l == nil {
		return
	}
	if err := l.Unlock(); err != nil {
		slog.Warn("failed to release data directory lock", slog.String("error", err.Error()))
	}
}
