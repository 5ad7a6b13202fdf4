package store

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
)

// sparseIndex provides domain-scoped full-text search over chunk content
// using Bleve. The index lives in memory and is rebuilt from the metadata
// store on open, so it can never drift from the durable copy across
// restarts. The domain field is indexed verbatim so a term query can
// restrict matches to a single domain.
type sparseIndex struct {
	mu     sync.RWMutex
	index  bleve.Index
	closed bool
}

// sparseDocument is the Bleve document shape for a chunk.
type sparseDocument struct {
	Domain  string `json:"domain"`
	Content string `json:"content"`
}

func newSparseIndex() (*sparseIndex, error) {
	indexMapping, err := createSparseMapping()
	if err != nil {
		return nil, fmt.Errorf("failed to create index mapping: %w", err)
	}

	idx, err := bleve.NewMemOnly(indexMapping)
	if err != nil {
		return nil, fmt.Errorf("failed to create index: %w", err)
	}

	return &sparseIndex{index: idx}, nil
}

func createSparseMapping() (*mapping.IndexMappingImpl, error) {
	contentField := bleve.NewTextFieldMapping()
	contentField.Analyzer = standard.Name

	// Domain is a filter key, never analyzed.
	domainField := bleve.NewTextFieldMapping()
	domainField.Analyzer = keyword.Name

	docMapping := bleve.NewDocumentMapping()
	docMapping.AddFieldMappingsAt("content", contentField)
	docMapping.AddFieldMappingsAt("domain", domainField)

	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultMapping = docMapping
	return indexMapping, nil
}

// replaceDomain swaps a domain's documents in a single batch: the old IDs
// are deleted and the new chunks indexed as one unit. Bleve applies the
// batch atomically, so a failure leaves the index unchanged.
func (s *sparseIndex) replaceDomain(oldIDs []string, chunks []*Chunk) error {
	if len(oldIDs) == 0 && len(chunks) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("sparse index is closed")
	}

	batch := s.index.NewBatch()
	for _, id := range oldIDs {
		batch.Delete(id)
	}
	for _, c := range chunks {
		doc := sparseDocument{Domain: c.Domain, Content: c.Content}
		if err := batch.Index(c.ID, doc); err != nil {
			return fmt.Errorf("failed to index chunk %s: %w", c.ID, err)
		}
	}

	if err := s.index.Batch(batch); err != nil {
		return fmt.Errorf("failed to execute batch: %w", err)
	}
	return nil
}

// sparseHit is a raw full-text match before chunk hydration.
type sparseHit struct {
	ID    string
	Score float64
}

// search returns chunk IDs matching the query within the domain, scored by
// the index, best first. Empty queries return no hits.
func (s *sparseIndex) search(ctx context.Context, domain, query string, limit int) ([]sparseHit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, fmt.Errorf("sparse index is closed")
	}

	if strings.TrimSpace(query) == "" {
		return []sparseHit{}, nil
	}

	matchQuery := bleve.NewMatchQuery(query)
	matchQuery.SetField("content")

	domainQuery := bleve.NewTermQuery(domain)
	domainQuery.SetField("domain")

	searchRequest := bleve.NewSearchRequest(bleve.NewConjunctionQuery(matchQuery, domainQuery))
	searchRequest.Size = limit

	result, err := s.index.SearchInContext(ctx, searchRequest)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	hits := make([]sparseHit, 0, len(result.Hits))
	for _, hit := range result.Hits {
		hits = append(hits, sparseHit{ID: hit.ID, Score: hit.Score})
	}
	return hits, nil
}

func (s *sparseIndex) close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	if s.index != nil {
		return s.index.Close()
	}
	return nil
}
