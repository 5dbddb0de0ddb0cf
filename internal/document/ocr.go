package document

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/EricBlanvillain/control-automation/internal/models"
	"github.com/EricBlanvillain/control-automation/internal/ocr"
)

// OCRParser handles image and PDF documents. PDFs are probed for an embedded
// text layer first; when none is found, or for image files, the bytes go to
// the remote OCR backend and the returned markdown is normalized.
type OCRParser struct {
	client  ocr.Client
	timeout time.Duration
}

// NewOCRParser creates a parser backed by the given OCR client.
func NewOCRParser(client ocr.Client, timeout time.Duration) Parser {
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &OCRParser{client: client, timeout: timeout}
}

// Parse reads the file from disk.
func (p *OCRParser) Parse(filePath string) (string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("%w: open file: %v", models.ErrExtractionFailed, err)
	}
	defer file.Close()

	return p.ParseReader(file, filePath)
}

// ParseReader extracts text from PDF or image content.
func (p *OCRParser) ParseReader(r io.Reader, filename string) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("%w: read content: %v", models.ErrExtractionFailed, err)
	}

	if strings.EqualFold(filepath.Ext(filename), ".pdf") {
		if text, err := extractPDFTextLayer(data); err == nil && text != "" {
			return text, nil
		}
		// No usable text layer; fall through to OCR.
	}

	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	md, err := p.client.Recognize(ctx, data, filename)
	if err != nil {
		return "", fmt.Errorf("%w: %v", models.ErrOCRService, err)
	}

	return NormalizeMarkdown([]byte(md)), nil
}

// extractPDFTextLayer pulls page text out of a PDF that carries one.
// Scanned PDFs yield nothing here and are handled by OCR instead.
func extractPDFTextLayer(data []byte) (string, error) {
	tmpDir, err := os.MkdirTemp("", "pdf_extract_")
	if err != nil {
		return "", fmt.Errorf("create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	tmpFile := filepath.Join(tmpDir, "input.pdf")
	if err := os.WriteFile(tmpFile, data, 0644); err != nil {
		return "", fmt.Errorf("write temp pdf: %v", err)
	}

	conf := model.NewDefaultConfiguration()
	if err := api.ExtractContentFile(tmpFile, tmpDir, nil, conf); err != nil {
		return "", fmt.Errorf("extract pdf content: %v", err)
	}

	entries, err := os.ReadDir(tmpDir)
	if err != nil {
		return "", fmt.Errorf("read extraction dir: %v", err)
	}

	// Page files sort by name, which matches page order.
	var names []string
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".txt") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	var out strings.Builder
	for _, name := range names {
		content, err := os.ReadFile(filepath.Join(tmpDir, name))
		if err != nil {
			continue
		}
		if out.Len() > 0 {
			out.WriteString("\n\n")
		}
		out.Write(content)
	}

	return strings.TrimSpace(out.String()), nil
}
