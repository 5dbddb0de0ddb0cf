package services

import (
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/EricBlanvillain/control-automation/pkg/storage"
)

// ReportEntry is one control's outcome in a report.
type ReportEntry struct {
	Graded GradedResult     `json:"graded"`
	Eval   EvaluationResult `json:"eval"`
}

// Report is the final outcome of a control run.
type Report struct {
	RunID        string        `json:"run_id"`
	DocumentName string        `json:"document_name"`
	DocumentPath string        `json:"document_path"`
	MetaCategory string        `json:"meta_category"`
	GeneratedAt  time.Time     `json:"generated_at"`
	Entries      []ReportEntry `json:"entries"`
	Passed       int           `json:"passed"`
	Total        int           `json:"total"`

	// HighestRisk is the entry with the highest scored risk, nil when
	// no entry was scored.
	HighestRisk *ReportEntry `json:"highest_risk,omitempty"`
}

// AssembleReport pairs evaluation and graded results into a report.
// Both slices are parallel to the selected rules; every rule has one
// entry regardless of outcome.
func AssembleReport(runID, documentName, documentPath, metaCategory string, evals []EvaluationResult, grades []GradedResult) Report {
	report := Report{
		RunID:        runID,
		DocumentName: documentName,
		DocumentPath: documentPath,
		MetaCategory: metaCategory,
		GeneratedAt:  time.Now(),
		Entries:      make([]ReportEntry, len(grades)),
		Total:        len(grades),
	}
	highest := -1
	for i := range grades {
		report.Entries[i] = ReportEntry{Graded: grades[i], Eval: evals[i]}
		if grades[i].Pass {
			report.Passed++
		}
		if grades[i].RiskScore != nil {
			if highest < 0 || *grades[i].RiskScore > *report.Entries[highest].Graded.RiskScore {
				highest = i
			}
		}
	}
	if highest >= 0 {
		report.HighestRisk = &report.Entries[highest]
	}
	return report
}

// RenderText renders the report in its plain text layout.
func (r Report) RenderText() string {
	var b strings.Builder

	b.WriteString("--- Control Automation Report ---\n\n")
	fmt.Fprintf(&b, "Original Document: %s\n", r.DocumentPath)
	fmt.Fprintf(&b, "Category: %s\n", r.MetaCategory)
	fmt.Fprintf(&b, "Report Generated: %s\n", r.GeneratedAt.Format(time.RFC3339))

	b.WriteString("\n--- Summary ---\n")
	fmt.Fprintf(&b, "Tests Passed: %d out of %d\n", r.Passed, r.Total)
	if r.HighestRisk != nil {
		fmt.Fprintf(&b, "Highest Risk: %s (Risk Score: %d/10)\n", r.HighestRisk.Graded.ControlID, *r.HighestRisk.Graded.RiskScore)
		for _, chunk := range r.HighestRisk.Eval.Retrieved {
			fmt.Fprintf(&b, "  Chunk %d (distance %.4f)\n", chunk.ChunkID, chunk.Distance)
		}
	}

	b.WriteString("\n--- Control Results ---\n\n")
	if len(r.Entries) == 0 {
		b.WriteString("No controls were applied or results available.\n")
	}
	for _, entry := range r.Entries {
		score := "N/A"
		if entry.Graded.RiskScore != nil {
			score = fmt.Sprintf("%d", *entry.Graded.RiskScore)
		}
		fmt.Fprintf(&b, "Control ID: %s (Risk Score: %s/10)\n", entry.Graded.ControlID, score)

		result := entry.Eval.RawOutput
		if result == "" {
			result = entry.Graded.Rationale
		}
		fmt.Fprintf(&b, "Result: %s\n", result)
		b.WriteString(strings.Repeat("-", 20) + "\n")
	}

	b.WriteString("\n--- End of Report ---\n")
	return b.String()
}

// ReportService persists rendered reports to the report sink.
type ReportService struct {
	storage storage.Storage
	dir     string
	logger  *logrus.Logger
}

// NewReportService creates a report service writing under dir in the
// given storage.
func NewReportService(store storage.Storage, dir string, logger *logrus.Logger) *ReportService {
	if logger == nil {
		logger = logrus.New()
	}
	if dir == "" {
		dir = "reports"
	}
	return &ReportService{storage: store, dir: dir, logger: logger}
}

// Save renders the report and writes it to the sink, returning the
// report path.
func (s *ReportService) Save(report Report) (string, error) {
	base := report.DocumentName
	if dot := strings.LastIndex(base, "."); dot > 0 {
		base = base[:dot]
	}
	fileName := fmt.Sprintf("report_%s_%s.txt", base, report.GeneratedAt.Format("20060102_150405"))
	reportPath := path.Join(s.dir, fileName)

	info, err := s.storage.SaveAt(strings.NewReader(report.RenderText()), reportPath)
	if err != nil {
		return "", fmt.Errorf("failed to save report: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"run_id": report.RunID,
		"path":   info.Path,
	}).Info("Report saved")

	return info.Path, nil
}
