package document

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/EricBlanvillain/control-automation/internal/models"
)

// SpreadsheetParser extracts cell text from xlsx workbooks, sheet by sheet
// and row by row. Empty cells contribute nothing.
type SpreadsheetParser struct{}

// NewSpreadsheetParser creates a spreadsheet parser.
func NewSpreadsheetParser() Parser {
	return &SpreadsheetParser{}
}

// Parse opens the workbook from disk.
func (p *SpreadsheetParser) Parse(filePath string) (string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("%w: open spreadsheet: %v", models.ErrExtractionFailed, err)
	}
	defer file.Close()

	return p.ParseReader(file, filePath)
}

// ParseReader extracts text from a workbook reader.
func (p *SpreadsheetParser) ParseReader(r io.Reader, filename string) (string, error) {
	wb, err := excelize.OpenReader(r)
	if err != nil {
		return "", fmt.Errorf("%w: read workbook: %v", models.ErrExtractionFailed, err)
	}
	defer wb.Close()

	var out strings.Builder
	for _, sheet := range wb.GetSheetList() {
		rows, err := wb.GetRows(sheet)
		if err != nil {
			return "", fmt.Errorf("%w: read sheet %s: %v", models.ErrExtractionFailed, sheet, err)
		}

		if out.Len() > 0 {
			out.WriteString("\n")
		}
		out.WriteString(fmt.Sprintf("--- Sheet: %s ---\n", sheet))

		for _, row := range rows {
			var cells []string
			for _, cell := range row {
				cell = strings.TrimSpace(cell)
				if cell != "" {
					cells = append(cells, cell)
				}
			}
			if len(cells) > 0 {
				out.WriteString(strings.Join(cells, " | "))
				out.WriteString("\n")
			}
		}
	}

	return strings.TrimSpace(out.String()), nil
}
