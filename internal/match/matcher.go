package match

import (
	"errors"
	"sync"
)

// Sentinel outcomes of identification. ErrNoMatch is the normal negative
// result of an authentication attempt, not an exceptional path.
var (
	ErrNoRegisteredUsers = errors.New("no registered users")
	ErrNoMatch           = errors.New("face not recognized")
)

// Entry is one registered user's reference embedding.
type Entry struct {
	Username  string
	Embedding []float32
}

// Match is a positive identification result.
type Match struct {
	Username   string
	Similarity float64
}

// Matcher performs 1:N identification over registry snapshots. For large
// registries an HNSW index narrows the candidate set before exact re-ranking;
// small registries are scanned directly.
type Matcher struct {
	threshold    float64
	minIndexSize int

	mu    sync.RWMutex
	index *Index
}

// hnswCandidates is how many approximate neighbors are re-ranked exactly.
const hnswCandidates = 8

// NewMatcher creates a matcher with the given acceptance threshold.
func NewMatcher(threshold float64) *Matcher {
	return &Matcher{
		threshold:    threshold,
		minIndexSize: 64,
	}
}

// Threshold returns the configured acceptance threshold.
func (m *Matcher) Threshold() float64 {
	return m.threshold
}

// Rebuild refreshes the HNSW index from a snapshot. Registries below
// minIndexSize drop the index and use the exact scan instead.
func (m *Matcher) Rebuild(snapshot []Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(snapshot) < m.minIndexSize {
		m.index = nil
		return nil
	}

	idx := NewIndex()
	if err := idx.Build(snapshot); err != nil {
		return err
	}
	m.index = idx
	return nil
}

// Identify finds the best-matching registered user for a probe embedding.
// Returns ErrNoRegisteredUsers for an empty snapshot and ErrNoMatch when the
// best similarity does not exceed the threshold. Equal similarities resolve
// to the lexicographically smallest username.
func (m *Matcher) Identify(probe []float32, snapshot []Entry) (Match, error) {
	if len(snapshot) == 0 {
		return Match{}, ErrNoRegisteredUsers
	}

	m.mu.RLock()
	idx := m.index
	m.mu.RUnlock()

	candidates := snapshot
	if idx != nil && idx.Count() == len(snapshot) {
		candidates = idx.Nearest(probe, hnswCandidates)
	}

	best := bestOf(probe, candidates)
	if best.Similarity <= m.threshold {
		return Match{}, ErrNoMatch
	}
	return best, nil
}

// bestOf scans candidates with exact cosine similarity. A strictly-greater
// comparison over username-sorted input pins the tie-break to the smallest
// username.
func bestOf(probe []float32, candidates []Entry) Match {
	best := Match{Similarity: -1}
	for _, entry := range candidates {
		sim := Similarity(probe, entry.Embedding)
		if sim > best.Similarity || (sim == best.Similarity && entry.Username < best.Username) {
			best = Match{Username: entry.Username, Similarity: sim}
		}
	}
	return best
}
