package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/EricBlanvillain/control-automation/internal/cache"
	"github.com/EricBlanvillain/control-automation/internal/document"
	"github.com/EricBlanvillain/control-automation/internal/embedding"
	"github.com/EricBlanvillain/control-automation/internal/models"
	"github.com/EricBlanvillain/control-automation/internal/vectordb"
)

// IndexService embeds document chunks into a per-document vector index
// and answers retrieval queries against it. Query embeddings are cached
// so repeated rule queries do not hit the embedding backend twice.
type IndexService struct {
	embedder    embedding.Client
	batch       *embedding.BatchProcessor
	vectorDB    vectordb.Repository
	cache       cache.Cache
	cacheTTL    time.Duration
	retrievalK  int
	logger      *logrus.Logger
}

// IndexOption configures the index service.
type IndexOption func(*IndexService)

// WithRetrievalK sets how many chunks a query returns.
func WithRetrievalK(k int) IndexOption {
	return func(s *IndexService) {
		if k > 0 {
			s.retrievalK = k
		}
	}
}

// WithQueryCache sets the query-embedding cache.
func WithQueryCache(c cache.Cache, ttl time.Duration) IndexOption {
	return func(s *IndexService) {
		s.cache = c
		s.cacheTTL = ttl
	}
}

// WithIndexLogger sets the logger.
func WithIndexLogger(logger *logrus.Logger) IndexOption {
	return func(s *IndexService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewIndexService creates an index service.
func NewIndexService(
	embedder embedding.Client,
	batch *embedding.BatchProcessor,
	vectorDB vectordb.Repository,
	opts ...IndexOption,
) *IndexService {
	s := &IndexService{
		embedder:   embedder,
		batch:      batch,
		vectorDB:   vectorDB,
		cacheTTL:   24 * time.Hour,
		retrievalK: 3,
		logger:     logrus.New(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Build embeds all chunks and atomically replaces the document's
// index. Rebuilding the same document is idempotent.
func (s *IndexService) Build(ctx context.Context, documentID string, chunks []document.Chunk) (int, error) {
	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}

	vectors, err := s.batch.Process(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", models.ErrEmbeddingService, err)
	}

	entries := make([]vectordb.Entry, len(chunks))
	for i, chunk := range chunks {
		entries[i] = vectordb.Entry{
			ChunkID:    chunk.ID,
			DocumentID: documentID,
			Text:       chunk.Text,
			Vector:     vectors[i],
			CharStart:  chunk.CharStart,
			CharEnd:    chunk.CharEnd,
		}
	}

	if err := s.vectorDB.Rebuild(documentID, entries); err != nil {
		return 0, fmt.Errorf("failed to rebuild index: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"document_id": documentID,
		"chunks":      len(entries),
	}).Info("Document index built")

	return len(entries), nil
}

// Query embeds the query text and returns the closest chunks of the
// document, ordered by ascending distance.
func (s *IndexService) Query(ctx context.Context, documentID, query string) ([]RetrievedChunk, error) {
	vector, err := s.embedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrEmbeddingService, err)
	}

	matches, err := s.vectorDB.Search(documentID, vector, s.retrievalK)
	if err != nil {
		if s.vectorDB.Has(documentID) {
			return nil, fmt.Errorf("failed to search index: %w", err)
		}
		return nil, fmt.Errorf("%w: %s", models.ErrIndexNotBuilt, documentID)
	}

	retrieved := make([]RetrievedChunk, len(matches))
	for i, match := range matches {
		retrieved[i] = RetrievedChunk{
			ChunkID:  match.Entry.ChunkID,
			Text:     match.Entry.Text,
			Distance: match.Distance,
		}
	}
	return retrieved, nil
}

// Has reports whether the document has an index.
func (s *IndexService) Has(documentID string) bool {
	return s.vectorDB.Has(documentID)
}

// Delete removes the document's index.
func (s *IndexService) Delete(documentID string) error {
	return s.vectorDB.DeleteDocument(documentID)
}

func (s *IndexService) embedQuery(ctx context.Context, query string) ([]float32, error) {
	if s.cache == nil {
		return s.embedder.Embed(ctx, query)
	}

	key := cache.HashKey("embed_query", query)
	if cached, found, err := s.cache.Get(key); err == nil && found {
		var vector []float32
		if err := json.Unmarshal([]byte(cached), &vector); err == nil {
			return vector, nil
		}
	}

	vector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(vector); err == nil {
		if err := s.cache.Set(key, string(data), s.cacheTTL); err != nil {
			s.logger.WithError(err).Debug("Failed to cache query embedding")
		}
	}
	return vector, nil
}
