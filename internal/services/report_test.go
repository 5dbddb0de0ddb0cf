package services

import (
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EricBlanvillain/control-automation/pkg/storage"
)

func intPtr(v int) *int {
	return &v
}

func sampleReport() Report {
	evals := []EvaluationResult{
		{ControlID: "KYC-01", RawOutput: `{"present": true}`, Status: StatusSuccess},
		{ControlID: "KYC-02", RawOutput: `{"present": false}`, Status: StatusSuccess, Retrieved: []RetrievedChunk{
			{ChunkID: 0, Text: "chunk a", Distance: 0.12},
			{ChunkID: 2, Text: "chunk c", Distance: 0.48},
		}},
		{ControlID: "KYC-03", Status: StatusModelError, Error: "timeout"},
	}
	grades := []GradedResult{
		{ControlID: "KYC-01", RiskScore: intPtr(2), Pass: true, Rationale: "risk score 2"},
		{ControlID: "KYC-02", RiskScore: intPtr(8), Pass: false, Rationale: "risk score 8"},
		{ControlID: "KYC-03", Rationale: "model_error during evaluation"},
	}
	return AssembleReport("run-42", "client_file.pdf", "clients/KYC/client_file.pdf", "KYC", evals, grades)
}

func TestAssembleReport(t *testing.T) {
	report := sampleReport()

	assert.Equal(t, "run-42", report.RunID)
	assert.Equal(t, 3, report.Total)
	assert.Equal(t, 1, report.Passed)
	require.Len(t, report.Entries, 3)
	assert.Equal(t, "KYC-02", report.Entries[1].Graded.ControlID)
	assert.Equal(t, "KYC-02", report.Entries[1].Eval.ControlID)
	require.NotNil(t, report.HighestRisk)
	assert.Equal(t, "KYC-02", report.HighestRisk.Graded.ControlID)
	assert.False(t, report.GeneratedAt.IsZero())
}

func TestAssembleReport_NoScoredResults(t *testing.T) {
	evals := []EvaluationResult{{ControlID: "KYC-01", Status: StatusModelError}}
	grades := []GradedResult{{ControlID: "KYC-01", Rationale: "model_error during evaluation"}}

	report := AssembleReport("run-7", "doc.txt", "docs/doc.txt", "KYC", evals, grades)
	assert.Nil(t, report.HighestRisk)
	assert.NotContains(t, report.RenderText(), "Highest Risk:")
}

func TestReport_RenderText(t *testing.T) {
	report := sampleReport()
	text := report.RenderText()

	assert.True(t, strings.HasPrefix(text, "--- Control Automation Report ---\n\n"))
	assert.Contains(t, text, "Original Document: clients/KYC/client_file.pdf\n")
	assert.Contains(t, text, "Category: KYC\n")
	assert.Contains(t, text, "Tests Passed: 1 out of 3\n")
	assert.Contains(t, text, "Highest Risk: KYC-02 (Risk Score: 8/10)\n")
	assert.Contains(t, text, "  Chunk 0 (distance 0.1200)\n")
	assert.Contains(t, text, "  Chunk 2 (distance 0.4800)\n")
	assert.Contains(t, text, "Control ID: KYC-01 (Risk Score: 2/10)\n")
	assert.Contains(t, text, "Control ID: KYC-03 (Risk Score: N/A/10)\n")
	assert.Contains(t, text, "Result: model_error during evaluation\n")
	assert.Contains(t, text, strings.Repeat("-", 20)+"\n")
	assert.True(t, strings.HasSuffix(text, "\n--- End of Report ---\n"))
}

func TestReport_RenderText_NoControls(t *testing.T) {
	report := AssembleReport("run-1", "doc.txt", "docs/doc.txt", "RGPD", nil, nil)
	text := report.RenderText()

	assert.Contains(t, text, "Tests Passed: 0 out of 0\n")
	assert.Contains(t, text, "No controls were applied or results available.\n")
}

func TestReportService_Save(t *testing.T) {
	store, err := storage.NewLocalStorage(storage.LocalConfig{Path: t.TempDir()})
	require.NoError(t, err)

	report := sampleReport()
	report.GeneratedAt = time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)

	svc := NewReportService(store, "reports", nil)
	reportPath, err := svc.Save(report)
	require.NoError(t, err)
	assert.Equal(t, "reports/report_client_file_20240315_103000.txt", reportPath)

	reader, err := store.GetByPath(reportPath)
	require.NoError(t, err)
	defer reader.Close()

	content, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Equal(t, report.RenderText(), string(content))
}

func TestReportService_SaveOverwritesSameRun(t *testing.T) {
	store, err := storage.NewLocalStorage(storage.LocalConfig{Path: t.TempDir()})
	require.NoError(t, err)
	svc := NewReportService(store, "reports", nil)

	report := sampleReport()
	report.GeneratedAt = time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)

	first, err := svc.Save(report)
	require.NoError(t, err)
	second, err := svc.Save(report)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
