package services

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/EricBlanvillain/control-automation/internal/document"
	"github.com/EricBlanvillain/control-automation/internal/ocr"
	"github.com/EricBlanvillain/control-automation/pkg/storage"
)

// ExtractionService turns stored documents into plain text chunks.
// Format detection picks the parser; image-only formats go through the
// OCR backend.
type ExtractionService struct {
	storage    storage.Storage
	ocrClient  ocr.Client
	splitter   *document.Splitter
	ocrTimeout time.Duration
	logger     *logrus.Logger
}

// ExtractionOption configures the extraction service.
type ExtractionOption func(*ExtractionService)

// WithOCRTimeout sets the OCR request timeout.
func WithOCRTimeout(timeout time.Duration) ExtractionOption {
	return func(s *ExtractionService) {
		s.ocrTimeout = timeout
	}
}

// WithExtractionLogger sets the logger.
func WithExtractionLogger(logger *logrus.Logger) ExtractionOption {
	return func(s *ExtractionService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewExtractionService creates an extraction service. ocrClient may be
// nil, in which case image and PDF documents are rejected as
// unsupported.
func NewExtractionService(
	store storage.Storage,
	ocrClient ocr.Client,
	splitter *document.Splitter,
	opts ...ExtractionOption,
) *ExtractionService {
	s := &ExtractionService{
		storage:    store,
		ocrClient:  ocrClient,
		splitter:   splitter,
		ocrTimeout: 120 * time.Second,
		logger:     logrus.New(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Extract reads the document at the given storage path and returns its
// plain text.
func (s *ExtractionService) Extract(storagePath, fileName string) (string, error) {
	var ocrParser document.Parser
	if s.ocrClient != nil {
		ocrParser = document.NewOCRParser(s.ocrClient, s.ocrTimeout)
	}

	parser, err := document.ParserFactory(fileName, ocrParser)
	if err != nil {
		return "", err
	}

	reader, err := s.storage.GetByPath(storagePath)
	if err != nil {
		return "", fmt.Errorf("failed to read document from storage: %w", err)
	}
	defer reader.Close()

	text, err := parser.ParseReader(reader, fileName)
	if err != nil {
		return "", err
	}

	s.logger.WithFields(logrus.Fields{
		"file_name": fileName,
		"format":    string(document.DetectFormat(fileName)),
		"chars":     len(text),
	}).Debug("Document text extracted")

	return text, nil
}

// Split cuts extracted text into fixed-size chunks.
func (s *ExtractionService) Split(text string) []document.Chunk {
	return s.splitter.Split(text)
}
