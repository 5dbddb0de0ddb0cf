package vectordb

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/DataIntelligenceCrew/go-faiss"
)

// FaissRepository is a vector store backed by one Faiss flat index per
// document. Rebuild swaps in a freshly built index so readers never see
// a partially indexed document.
type FaissRepository struct {
	mu        sync.RWMutex
	dimension int
	distType  DistanceType
	dir       string
	indexes   map[string]*documentIndex
}

type documentIndex struct {
	index   faiss.Index
	entries []Entry
}

// NewFaissRepository creates a Faiss vector store. When config.Path is
// set and InMemory is false, indexes are persisted under that directory
// and reloaded on startup.
func NewFaissRepository(config Config) (Repository, error) {
	if config.Dimension <= 0 {
		return nil, fmt.Errorf("vector dimension must be positive")
	}
	distType := config.DistanceType
	if distType == "" {
		distType = Cosine
	}

	repo := &FaissRepository{
		dimension: config.Dimension,
		distType:  distType,
		indexes:   make(map[string]*documentIndex),
	}

	if config.Path != "" && !config.InMemory {
		repo.dir = config.Path
		if err := os.MkdirAll(repo.dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create index directory: %v", err)
		}
		if err := repo.loadAll(); err != nil {
			return nil, err
		}
	}
	return repo, nil
}

func newFlatIndex(dimension int, distType DistanceType) (faiss.Index, error) {
	metric := faiss.MetricL2
	if distType == Cosine || distType == DotProduct {
		metric = faiss.MetricInnerProduct
	}
	return faiss.NewIndexFlat(dimension, metric)
}

// Rebuild atomically replaces the document's index.
func (r *FaissRepository) Rebuild(documentID string, entries []Entry) error {
	stored := make([]Entry, len(entries))
	flat := make([]float32, 0, len(entries)*r.dimension)
	for i, entry := range entries {
		if err := ValidateVector(entry.Vector, r.dimension); err != nil {
			return fmt.Errorf("chunk %d: %w", entry.ChunkID, err)
		}
		entry.DocumentID = documentID
		if r.distType == Cosine {
			entry.Vector = normalizeVector(entry.Vector)
		}
		stored[i] = entry
		flat = append(flat, entry.Vector...)
	}

	index, err := newFlatIndex(r.dimension, r.distType)
	if err != nil {
		return fmt.Errorf("failed to create index: %v", err)
	}
	if len(flat) > 0 {
		if err := index.Add(flat); err != nil {
			index.Delete()
			return fmt.Errorf("failed to add vectors: %v", err)
		}
	}

	if r.dir != "" {
		if err := r.save(documentID, index, stored); err != nil {
			index.Delete()
			return err
		}
	}

	r.mu.Lock()
	old := r.indexes[documentID]
	r.indexes[documentID] = &documentIndex{index: index, entries: stored}
	r.mu.Unlock()

	if old != nil {
		old.index.Delete()
	}
	return nil
}

// Search returns the k closest entries for the document.
func (r *FaissRepository) Search(documentID string, vector []float32, k int) ([]Match, error) {
	if err := ValidateVector(vector, r.dimension); err != nil {
		return nil, err
	}
	if k <= 0 {
		return nil, fmt.Errorf("k must be positive")
	}
	if r.distType == Cosine {
		vector = normalizeVector(vector)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	doc, ok := r.indexes[documentID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrIndexNotFound, documentID)
	}
	if len(doc.entries) == 0 {
		return []Match{}, nil
	}

	limit := k
	if limit > len(doc.entries) {
		limit = len(doc.entries)
	}
	distances, labels, err := doc.index.Search(vector, int64(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to search index: %v", err)
	}

	matches := make([]Match, 0, limit)
	for i, label := range labels {
		if label < 0 || int(label) >= len(doc.entries) {
			continue
		}
		dist := distances[i]
		switch r.distType {
		case Cosine:
			dist = 1.0 - dist
		case DotProduct:
			dist = -dist
		}
		matches = append(matches, Match{Entry: doc.entries[label], Distance: dist})
	}
	sortMatches(matches)
	return matches, nil
}

// Has reports whether the document has an index.
func (r *FaissRepository) Has(documentID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.indexes[documentID]
	return ok
}

// DeleteDocument removes the document's index and any persisted files.
func (r *FaissRepository) DeleteDocument(documentID string) error {
	r.mu.Lock()
	doc, ok := r.indexes[documentID]
	delete(r.indexes, documentID)
	r.mu.Unlock()

	if ok {
		doc.index.Delete()
	}
	if r.dir != "" {
		os.Remove(r.indexPath(documentID))
		os.Remove(r.metaPath(documentID))
	}
	return nil
}

// Count returns the number of entries in the document's index.
func (r *FaissRepository) Count(documentID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	doc, ok := r.indexes[documentID]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrIndexNotFound, documentID)
	}
	return len(doc.entries), nil
}

// Dimension returns the vector dimension.
func (r *FaissRepository) Dimension() int {
	return r.dimension
}

// Close frees all indexes.
func (r *FaissRepository) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, doc := range r.indexes {
		doc.index.Delete()
	}
	r.indexes = make(map[string]*documentIndex)
	return nil
}

func (r *FaissRepository) indexPath(documentID string) string {
	return filepath.Join(r.dir, documentID+".index")
}

func (r *FaissRepository) metaPath(documentID string) string {
	return filepath.Join(r.dir, documentID+".meta.json")
}

func (r *FaissRepository) save(documentID string, index faiss.Index, entries []Entry) error {
	if err := faiss.WriteIndex(index, r.indexPath(documentID)); err != nil {
		return fmt.Errorf("failed to write index file: %v", err)
	}

	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("failed to marshal index metadata: %v", err)
	}
	tmpPath := r.metaPath(documentID) + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write metadata file: %v", err)
	}
	return os.Rename(tmpPath, r.metaPath(documentID))
}

func (r *FaissRepository) loadAll() error {
	files, err := os.ReadDir(r.dir)
	if err != nil {
		return fmt.Errorf("failed to read index directory: %v", err)
	}
	for _, file := range files {
		name := file.Name()
		if file.IsDir() || !strings.HasSuffix(name, ".index") {
			continue
		}
		documentID := strings.TrimSuffix(name, ".index")

		data, err := os.ReadFile(r.metaPath(documentID))
		if err != nil {
			continue
		}
		var entries []Entry
		if err := json.Unmarshal(data, &entries); err != nil {
			continue
		}
		index, err := faiss.ReadIndex(r.indexPath(documentID), 0)
		if err != nil {
			continue
		}
		r.indexes[documentID] = &documentIndex{index: index, entries: entries}
	}
	return nil
}

func init() {
	RegisterRepository("faiss", NewFaissRepository)
}
