// Package corpus holds the in-memory document index: the chunk list and its
// embedding matrix behind a single versioned handle. Ingestion replaces the
// whole snapshot atomically; readers always see a consistent version, never
// a half-replaced index.
package corpus

import (
	"sync"

	"github.com/hyperjump/kiku/internal/models"
)

// Snapshot is one immutable version of the indexed corpus. Chunks[i] owns
// Vectors[i]; both slices must never be mutated after the snapshot is
// published.
type Snapshot struct {
	Version int
	ModelID string
	Chunks  []models.DocumentChunk
	Vectors [][]float32
}

// Size returns the number of chunks in the snapshot.
func (s *Snapshot) Size() int {
	if s == nil {
		return 0
	}
	return len(s.Chunks)
}

// Store is the shared handle to the current corpus snapshot.
type Store struct {
	mu   sync.RWMutex
	snap *Snapshot
}

// NewStore returns a store holding an empty version-0 snapshot, queryable
// but always empty until the first Replace.
func NewStore() *Store {
	return &Store{snap: &Snapshot{}}
}

// Replace swaps in a new snapshot wholesale, bumping the version. There is
// no incremental append mode: the previous chunk set is discarded entirely.
func (s *Store) Replace(modelID string, chunks []models.DocumentChunk, vectors [][]float32) *Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap = &Snapshot{
		Version: s.snap.Version + 1,
		ModelID: modelID,
		Chunks:  chunks,
		Vectors: vectors,
	}
	return s.snap
}

// Snapshot returns the current corpus version. The returned snapshot is
// stable: a concurrent Replace publishes a new one without touching it.
func (s *Store) Snapshot() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// Size returns the chunk count of the current snapshot.
func (s *Store) Size() int {
	return s.Snapshot().Size()
}
