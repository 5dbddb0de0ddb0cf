package vectordb

import "errors"

// Common errors.
var (
	ErrIndexNotFound    = errors.New("no index for document")
	ErrEmptyVector      = errors.New("empty vector")
	ErrInvalidDimension = errors.New("vector dimension mismatch")
)

// Entry is one indexed chunk of a document.
type Entry struct {
	ChunkID    int       `json:"chunk_id"`
	DocumentID string    `json:"document_id"`
	Text       string    `json:"text"`
	Vector     []float32 `json:"vector"`
	CharStart  int       `json:"char_start"`
	CharEnd    int       `json:"char_end"`
}

// Match is a search hit with its distance to the query vector.
// Smaller distances mean closer matches.
type Match struct {
	Entry    Entry
	Distance float32
}

// DistanceType selects the distance metric.
type DistanceType string

const (
	// Cosine is cosine distance (1 minus cosine similarity).
	Cosine DistanceType = "cosine"
	// DotProduct is negated inner product.
	DotProduct DistanceType = "dot"
	// Euclidean is squared L2 distance.
	Euclidean DistanceType = "l2"
)

// Repository stores per-document vector indexes.
// Each document owns an isolated index that is replaced wholesale.
type Repository interface {
	// Rebuild atomically replaces the document's index with the given
	// entries. An existing index for the same document is discarded.
	Rebuild(documentID string, entries []Entry) error

	// Search returns the k closest entries in the document's index,
	// ordered by ascending distance with ties broken by chunk ID.
	Search(documentID string, vector []float32, k int) ([]Match, error)

	// Has reports whether the document has an index.
	Has(documentID string) bool

	// DeleteDocument removes the document's index.
	DeleteDocument(documentID string) error

	// Count returns the number of entries in the document's index.
	Count(documentID string) (int, error)

	// Dimension returns the vector dimension.
	Dimension() int

	// Close releases resources.
	Close() error
}

// Config holds vector store settings.
type Config struct {
	Type         string
	Path         string
	Dimension    int
	DistanceType DistanceType
	InMemory     bool
}

// Factory creates a Repository from a configuration.
type Factory func(config Config) (Repository, error)

// RepositoryRegistry holds the registered implementations.
var RepositoryRegistry = map[string]Factory{}

// RegisterRepository registers a vector store factory.
func RegisterRepository(name string, factory Factory) {
	RepositoryRegistry[name] = factory
}

// NewRepository creates a vector store for the configured type.
func NewRepository(config Config) (Repository, error) {
	factory, ok := RepositoryRegistry[config.Type]
	if !ok {
		factory = NewMemoryRepository
	}
	return factory(config)
}
