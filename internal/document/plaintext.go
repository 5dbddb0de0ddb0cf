package document

import (
	"fmt"
	"io"
	"os"

	"github.com/EricBlanvillain/control-automation/internal/models"
)

// PlainTextParser reads text files as-is.
type PlainTextParser struct{}

// NewPlainTextParser creates a plain text parser.
func NewPlainTextParser() Parser {
	return &PlainTextParser{}
}

// Parse reads the whole file.
func (p *PlainTextParser) Parse(filePath string) (string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("%w: open text file: %v", models.ErrExtractionFailed, err)
	}
	defer file.Close()

	return p.ParseReader(file, filePath)
}

// ParseReader reads all content from the reader.
func (p *PlainTextParser) ParseReader(r io.Reader, filename string) (string, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("%w: read text content: %v", models.ErrExtractionFailed, err)
	}
	return string(content), nil
}
