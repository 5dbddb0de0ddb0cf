// Package document turns arbitrary business documents into normalized text
// and splits that text into overlapping chunks for retrieval.
package document

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/EricBlanvillain/control-automation/internal/models"
)

// Format detected document format tag. The set is closed; every parser
// boundary switches over it exhaustively.
type Format string

const (
	// FormatPlainText raw text files
	FormatPlainText Format = "plaintext"
	// FormatSpreadsheet xlsx workbooks
	FormatSpreadsheet Format = "spreadsheet"
	// FormatWordProcessor docx documents
	FormatWordProcessor Format = "wordprocessor"
	// FormatImagePDF PDFs and images, extracted via the text layer or remote OCR
	FormatImagePDF Format = "imagepdf"
	// FormatUnknown unrecognized file type
	FormatUnknown Format = "unknown"
)

// Parser extracts the normalized text of one document format.
type Parser interface {
	// Parse reads a document from disk and returns its text content.
	Parse(filePath string) (string, error)

	// ParseReader extracts text from a reader; filename determines the format.
	ParseReader(r io.Reader, filename string) (string, error)
}

// DetectFormat classifies a file by extension.
func DetectFormat(filename string) Format {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".txt", ".text", ".log":
		return FormatPlainText
	case ".xlsx", ".xlsm":
		return FormatSpreadsheet
	case ".docx":
		return FormatWordProcessor
	case ".pdf", ".png", ".jpg", ".jpeg", ".tif", ".tiff":
		return FormatImagePDF
	default:
		return FormatUnknown
	}
}

// ParserFactory returns the parser for a file. The OCR-backed parser needs
// a remote client; pass nil when image/PDF support is not wired, in which
// case those files fail as unsupported.
func ParserFactory(filename string, ocrParser Parser) (Parser, error) {
	switch DetectFormat(filename) {
	case FormatPlainText:
		return NewPlainTextParser(), nil
	case FormatSpreadsheet:
		return NewSpreadsheetParser(), nil
	case FormatWordProcessor:
		return NewWordParser(), nil
	case FormatImagePDF:
		if ocrParser == nil {
			return nil, fmt.Errorf("%w: no OCR backend configured for %s", models.ErrUnsupportedFormat, filename)
		}
		return ocrParser, nil
	default:
		return nil, fmt.Errorf("%w: %s", models.ErrUnsupportedFormat, filepath.Ext(filename))
	}
}
