package store

import (
	"fmt"
	"math"
	"sync"

	"github.com/coder/hnsw"
)

// denseIndex serves nearest-neighbor search over chunk embeddings with one
// HNSW graph per domain. Graphs live in memory and are rebuilt from the
// metadata store on open; replace-all ingestion swaps in a fresh graph so
// no lazy-deletion bookkeeping is needed.
type denseIndex struct {
	mu         sync.RWMutex
	dimensions int
	domains    map[string]*domainGraph
	closed     bool
}

type domainGraph struct {
	graph  *hnsw.Graph[uint64]
	keyMap map[uint64]string // graph key -> chunk ID
}

// denseHit is a raw vector match before chunk hydration.
type denseHit struct {
	ID       string
	Distance float32
}

func newDenseIndex(dimensions int) *denseIndex {
	return &denseIndex{
		dimensions: dimensions,
		domains:    make(map[string]*domainGraph),
	}
}

func newGraph() *hnsw.Graph[uint64] {
	g := hnsw.NewGraph[uint64]()
	g.Distance = hnsw.CosineDistance
	g.M = 16
	g.EfSearch = 64
	g.Ml = 0.25
	return g
}

// replaceDomain builds a fresh graph for the domain from the given chunks
// and swaps it in. Chunks without embeddings are rejected.
func (d *denseIndex) replaceDomain(domain string, chunks []*Chunk) error {
	for _, c := range chunks {
		if len(c.Embedding) != d.dimensions {
			return fmt.Errorf("chunk %s has dimension %d, index expects %d",
				c.ID, len(c.Embedding), d.dimensions)
		}
	}

	dg := &domainGraph{
		graph:  newGraph(),
		keyMap: make(map[uint64]string, len(chunks)),
	}
	for i, c := range chunks {
		key := uint64(i)
		vec := make([]float32, len(c.Embedding))
		copy(vec, c.Embedding)
		normalizeVectorInPlace(vec)

		dg.graph.Add(hnsw.MakeNode(key, vec))
		dg.keyMap[key] = c.ID
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return fmt.Errorf("dense index is closed")
	}
	if len(chunks) == 0 {
		delete(d.domains, domain)
		return nil
	}
	d.domains[domain] = dg
	return nil
}

// search finds the k nearest chunks to the query vector within the domain.
// An unknown domain returns no hits.
func (d *denseIndex) search(domain string, query []float32, k int) ([]denseHit, error) {
	if len(query) != d.dimensions {
		return nil, fmt.Errorf("query has dimension %d, index expects %d", len(query), d.dimensions)
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		return nil, fmt.Errorf("dense index is closed")
	}

	dg, ok := d.domains[domain]
	if !ok {
		return []denseHit{}, nil
	}

	normalized := make([]float32, len(query))
	copy(normalized, query)
	normalizeVectorInPlace(normalized)

	nodes := dg.graph.Search(normalized, k)

	hits := make([]denseHit, 0, len(nodes))
	for _, node := range nodes {
		id, ok := dg.keyMap[node.Key]
		if !ok {
			continue
		}
		hits = append(hits, denseHit{
			ID:       id,
			Distance: dg.graph.Distance(normalized, node.Value),
		})
	}
	return hits, nil
}

// count returns the number of indexed vectors in the domain.
func (d *denseIndex) count(domain string) int {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if dg, ok := d.domains[domain]; ok {
		return len(dg.keyMap)
	}
	return 0
}

func (d *denseIndex) close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.closed = true
	d.domains = nil
	return nil
}

// normalizeVectorInPlace normalizes a vector to unit length in place.
func normalizeVectorInPlace(v []float32) {
	var sumSquares float64
	for _, val := range v {
		sumSquares += float64(val) * float64(val)
	}
	if sumSquares == 0 {
		return
	}
	invMagnitude := float32(1.0 / math.Sqrt(sumSquares))
	for i := range v {
		v[i] *= invMagnitude
	}
}
