package vectordb

import (
	"fmt"
	"sync"
)

// MemoryRepository is an in-memory vector store for tests and small
// deployments.
type MemoryRepository struct {
	mu        sync.RWMutex
	dimension int
	distType  DistanceType
	indexes   map[string][]Entry
}

// NewMemoryRepository creates an in-memory vector store.
func NewMemoryRepository(config Config) (Repository, error) {
	if config.Dimension <= 0 {
		return nil, fmt.Errorf("vector dimension must be positive")
	}
	distType := config.DistanceType
	if distType == "" {
		distType = Cosine
	}
	return &MemoryRepository{
		dimension: config.Dimension,
		distType:  distType,
		indexes:   make(map[string][]Entry),
	}, nil
}

// Rebuild atomically replaces the document's index.
func (r *MemoryRepository) Rebuild(documentID string, entries []Entry) error {
	stored := make([]Entry, len(entries))
	for i, entry := range entries {
		if err := ValidateVector(entry.Vector, r.dimension); err != nil {
			return fmt.Errorf("chunk %d: %w", entry.ChunkID, err)
		}
		entry.DocumentID = documentID
		stored[i] = entry
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.indexes[documentID] = stored
	return nil
}

// Search returns the k closest entries for the document.
func (r *MemoryRepository) Search(documentID string, vector []float32, k int) ([]Match, error) {
	if err := ValidateVector(vector, r.dimension); err != nil {
		return nil, err
	}
	if k <= 0 {
		return nil, fmt.Errorf("k must be positive")
	}

	r.mu.RLock()
	entries, ok := r.indexes[documentID]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrIndexNotFound, documentID)
	}

	matches := make([]Match, 0, len(entries))
	for _, entry := range entries {
		dist, err := ComputeDistance(vector, entry.Vector, r.distType)
		if err != nil {
			return nil, err
		}
		matches = append(matches, Match{Entry: entry, Distance: dist})
	}
	sortMatches(matches)

	if k < len(matches) {
		matches = matches[:k]
	}
	return matches, nil
}

// Has reports whether the document has an index.
func (r *MemoryRepository) Has(documentID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.indexes[documentID]
	return ok
}

// DeleteDocument removes the document's index.
func (r *MemoryRepository) DeleteDocument(documentID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.indexes, documentID)
	return nil
}

// Count returns the number of entries in the document's index.
func (r *MemoryRepository) Count(documentID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entries, ok := r.indexes[documentID]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrIndexNotFound, documentID)
	}
	return len(entries), nil
}

// Dimension returns the vector dimension.
func (r *MemoryRepository) Dimension() int {
	return r.dimension
}

// Close releases resources.
func (r *MemoryRepository) Close() error {
	return nil
}

func init() {
	RegisterRepository("memory", NewMemoryRepository)
}
