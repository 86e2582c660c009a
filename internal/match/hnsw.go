package match

import (
	"sync"

	"github.com/coder/hnsw"
)

// hnswMaxNeighbors is the M parameter of the HNSW graph.
const hnswMaxNeighbors = 16

// Index wraps an HNSW graph over registry entries for approximate nearest
// neighbor search. Results are re-ranked with exact cosine similarity by the
// matcher, so the index only needs to surface good candidates.
type Index struct {
	graph     *hnsw.Graph[int64]
	idToEntry map[int64]Entry
	mu        sync.RWMutex
}

// NewIndex creates a new empty index.
func NewIndex() *Index {
	return &Index{
		idToEntry: make(map[int64]Entry),
	}
}

// Build replaces the index contents with the given entries.
func (ix *Index) Build(entries []Entry) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if len(entries) == 0 {
		ix.graph = nil
		ix.idToEntry = make(map[int64]Entry)
		return nil
	}

	// Create new graph with cosine distance.
	g := hnsw.NewGraph[int64]()
	g.M = hnswMaxNeighbors
	g.Ml = 1.0 / float64(hnswMaxNeighbors) // Standard HNSW formula
	g.Distance = hnsw.CosineDistance

	ix.idToEntry = make(map[int64]Entry, len(entries))

	for i, entry := range entries {
		if len(entry.Embedding) == 0 {
			continue
		}
		id := int64(i)
		g.Add(hnsw.MakeNode(id, entry.Embedding))
		ix.idToEntry[id] = entry
	}

	ix.graph = g
	return nil
}

// Nearest returns up to k entries closest to the query embedding.
func (ix *Index) Nearest(query []float32, k int) []Entry {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if ix.graph == nil {
		return nil
	}

	neighbors := ix.graph.Search(query, k)
	entries := make([]Entry, 0, len(neighbors))
	for _, n := range neighbors {
		if entry, ok := ix.idToEntry[n.Key]; ok {
			entries = append(entries, entry)
		}
	}
	return entries
}

// Count returns the number of indexed entries.
func (ix *Index) Count() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.idToEntry)
}
