package document

import (
	"fmt"
)

// Chunk one bounded slice of a document's extracted text. Chunks are
// immutable once produced; ID is the sequence number within the document.
type Chunk struct {
	ID        int    // sequence number, unique within the document
	Text      string // chunk text
	CharStart int    // start offset in the normalized text, in runes
	CharEnd   int    // end offset (exclusive), in runes
}

// SplitterConfig chunking configuration.
type SplitterConfig struct {
	ChunkSize    int // window size in characters
	ChunkOverlap int // overlap between consecutive windows, in characters
}

// DefaultSplitterConfig returns the default chunking configuration.
func DefaultSplitterConfig() SplitterConfig {
	return SplitterConfig{
		ChunkSize:    2000,
		ChunkOverlap: 200,
	}
}

// Splitter cuts normalized text into fixed-size overlapping character
// windows. Boundaries are purely positional; consecutive chunks overlap so
// evidence spanning a boundary is not lost.
type Splitter struct {
	config SplitterConfig
}

// NewSplitter creates a splitter, validating the configuration.
func NewSplitter(config SplitterConfig) (*Splitter, error) {
	if config.ChunkSize <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", config.ChunkSize)
	}
	if config.ChunkOverlap < 0 || config.ChunkOverlap >= config.ChunkSize {
		return nil, fmt.Errorf("chunk overlap must be in [0, chunk size), got %d", config.ChunkOverlap)
	}
	return &Splitter{config: config}, nil
}

// Split cuts text into chunks. Offsets count runes, never splitting inside
// a multi-byte code point. The final chunk may be shorter than the window.
func (s *Splitter) Split(text string) []Chunk {
	if text == "" {
		return []Chunk{}
	}

	runes := []rune(text)
	step := s.config.ChunkSize - s.config.ChunkOverlap

	var chunks []Chunk
	for start := 0; ; start += step {
		end := start + s.config.ChunkSize
		if end > len(runes) {
			end = len(runes)
		}

		chunks = append(chunks, Chunk{
			ID:        len(chunks),
			Text:      string(runes[start:end]),
			CharStart: start,
			CharEnd:   end,
		})

		if end == len(runes) {
			break
		}
	}

	return chunks
}

// Config returns the splitter configuration.
func (s *Splitter) Config() SplitterConfig {
	return s.config
}
