package document

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fumiama/go-docx"

	"github.com/EricBlanvillain/control-automation/internal/models"
)

// WordParser extracts paragraph text from docx documents in document order.
type WordParser struct{}

// NewWordParser creates a word-processor document parser.
func NewWordParser() Parser {
	return &WordParser{}
}

// Parse opens the document from disk.
func (p *WordParser) Parse(filePath string) (string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("%w: open docx: %v", models.ErrExtractionFailed, err)
	}
	defer file.Close()

	return p.ParseReader(file, filePath)
}

// ParseReader extracts paragraph text from a docx reader.
func (p *WordParser) ParseReader(r io.Reader, filename string) (string, error) {
	// docx is a zip container; parsing needs random access so the
	// content is buffered first.
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("%w: read docx content: %v", models.ErrExtractionFailed, err)
	}

	doc, err := docx.Parse(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: parse docx: %v", models.ErrExtractionFailed, err)
	}

	var out strings.Builder
	for _, item := range doc.Document.Body.Items {
		switch item.(type) {
		case *docx.Paragraph, *docx.Table:
			text := strings.TrimSpace(fmt.Sprint(item))
			if text != "" {
				out.WriteString(text)
				out.WriteString("\n")
			}
		}
	}

	return strings.TrimSpace(out.String()), nil
}
