package services

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	logrustest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/EricBlanvillain/control-automation/internal/category"
	"github.com/EricBlanvillain/control-automation/internal/database"
	"github.com/EricBlanvillain/control-automation/internal/document"
	"github.com/EricBlanvillain/control-automation/internal/embedding"
	"github.com/EricBlanvillain/control-automation/internal/models"
	"github.com/EricBlanvillain/control-automation/internal/repository"
	"github.com/EricBlanvillain/control-automation/internal/rules"
	"github.com/EricBlanvillain/control-automation/internal/vectordb"
	"github.com/EricBlanvillain/control-automation/pkg/storage"
)

// stubEmbedder produces deterministic vectors from text content.
type stubEmbedder struct {
	fail bool
}

func (e *stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if e.fail {
		return nil, fmt.Errorf("embedding backend down")
	}
	var sum float32
	for _, r := range text {
		sum += float32(r % 13)
	}
	return []float32{1, sum + 1, float32(len(text) + 1)}, nil
}

func (e *stubEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vector, err := e.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		vectors[i] = vector
	}
	return vectors, nil
}

func (e *stubEmbedder) Name() string {
	return "stub"
}

// scriptedModel answers grading prompts with a fixed score and
// evaluation prompts with valid JSON.
func scriptedModel(score string) *stubLLM {
	return &stubLLM{respond: func(prompt string) (string, error) {
		if strings.Contains(prompt, "Output ONLY the integer score") {
			return score, nil
		}
		return `{"present": true, "details": "found"}`, nil
	}}
}

type pipelineFixture struct {
	store    storage.Storage
	rules    rules.Store
	pipeline *PipelineService
	model    *stubLLM
}

func newPipelineFixture(t *testing.T, model *stubLLM, opts ...PipelineOption) *pipelineFixture {
	t.Helper()

	store, err := storage.NewLocalStorage(storage.LocalConfig{Path: t.TempDir()})
	require.NoError(t, err)

	splitter, err := document.NewSplitter(document.SplitterConfig{ChunkSize: 80, ChunkOverlap: 10})
	require.NoError(t, err)

	embedder := &stubEmbedder{}
	vectorDB, err := vectordb.NewMemoryRepository(vectordb.Config{Dimension: 3, DistanceType: vectordb.Cosine})
	require.NoError(t, err)

	ruleStore, err := rules.NewFileStore(t.TempDir())
	require.NoError(t, err)
	for _, rule := range []rules.Rule{
		{
			ControlID:          "KYC-01",
			Description:        "Verify identity document presence",
			MetaCategory:       "KYC",
			PromptInstructions: []string{"Check that a passport or ID card is referenced."},
			ExpectedFormat:     `{"present": bool}`,
		},
		{
			ControlID:          "KYC-02",
			Description:        "Verify proof of address",
			MetaCategory:       "KYC",
			PromptInstructions: []string{"Check that a recent proof of address is referenced."},
			ExpectedFormat:     `{"present": bool}`,
		},
	} {
		require.NoError(t, ruleStore.Create(rule))
	}

	pipeline := NewPipelineService(
		category.NewResolver(nil),
		NewExtractionService(store, nil, splitter),
		NewIndexService(embedder, embedding.NewBatchProcessor(embedder, 4, 2), vectorDB),
		ruleStore,
		NewEvaluator(model, nil),
		NewGrader(model, nil),
		NewReportService(store, "reports", nil),
		append([]PipelineOption{WithRuleConcurrency(2)}, opts...)...,
	)

	return &pipelineFixture{store: store, rules: ruleStore, pipeline: pipeline, model: model}
}

func (f *pipelineFixture) seedDocument(t *testing.T, relPath, content string) string {
	t.Helper()
	info, err := f.store.SaveAt(strings.NewReader(content), relPath)
	require.NoError(t, err)
	return info.Path
}

func (f *pipelineFixture) reportCount(t *testing.T) int {
	t.Helper()
	files, err := f.store.List()
	require.NoError(t, err)
	count := 0
	for _, file := range files {
		if strings.HasPrefix(file.Path, "reports/") {
			count++
		}
	}
	return count
}

const sampleDocument = "Client onboarding file. Passport number 12AB34567 on record. " +
	"Proof of address: utility bill dated last month. Risk questionnaire completed."

func TestPipelineService_Run(t *testing.T) {
	f := newPipelineFixture(t, scriptedModel("2"))
	sourcePath := f.seedDocument(t, "docs/dossier.txt", sampleDocument)

	result, err := f.pipeline.Run(context.Background(), RunRequest{
		DocumentID:   "doc-1",
		DocumentName: "dossier.txt",
		SourcePath:   sourcePath,
		PathHint:     "clients/KYC/dossier.txt",
	})
	require.NoError(t, err)

	assert.Equal(t, "KYC", result.MetaCategory)
	assert.Equal(t, 2, result.Report.Passed)
	assert.Equal(t, 2, result.Report.Total)
	require.Len(t, result.Report.Entries, 2)
	assert.Equal(t, "KYC-01", result.Report.Entries[0].Graded.ControlID)
	assert.Equal(t, "KYC-02", result.Report.Entries[1].Graded.ControlID)

	reader, err := f.store.GetByPath(result.ReportPath)
	require.NoError(t, err)
	reader.Close()
	assert.Contains(t, result.Report.RenderText(), "Tests Passed: 2 out of 2")
}

func TestPipelineService_OverrideWins(t *testing.T) {
	f := newPipelineFixture(t, scriptedModel("2"))
	sourcePath := f.seedDocument(t, "docs/file.txt", sampleDocument)

	result, err := f.pipeline.Run(context.Background(), RunRequest{
		DocumentID:       "doc-1",
		DocumentName:     "file.txt",
		SourcePath:       sourcePath,
		PathHint:         "archive/misc/file.txt",
		CategoryOverride: "rgpd",
	})
	require.NoError(t, err)

	assert.Equal(t, "RGPD", result.MetaCategory)
	assert.Equal(t, 0, result.Report.Total)
	assert.Contains(t, result.Report.RenderText(), "No controls were applied")
	assert.Equal(t, 1, f.reportCount(t))
}

func TestPipelineService_EmptySelectionWarns(t *testing.T) {
	logger, hook := logrustest.NewNullLogger()
	f := newPipelineFixture(t, scriptedModel("2"), WithPipelineLogger(logger))
	sourcePath := f.seedDocument(t, "docs/file.txt", sampleDocument)

	_, err := f.pipeline.Run(context.Background(), RunRequest{
		DocumentID:       "doc-1",
		DocumentName:     "file.txt",
		SourcePath:       sourcePath,
		PathHint:         "archive/misc/file.txt",
		CategoryOverride: "RGPD",
	})
	require.NoError(t, err)

	warned := false
	for _, entry := range hook.AllEntries() {
		if entry.Level == logrus.WarnLevel && strings.Contains(entry.Message, "No rules selected") {
			warned = true
		}
	}
	assert.True(t, warned)
}

func TestPipelineService_DegradedModel(t *testing.T) {
	model := &stubLLM{respond: func(prompt string) (string, error) {
		return "", fmt.Errorf("model unavailable")
	}}
	f := newPipelineFixture(t, model)
	sourcePath := f.seedDocument(t, "docs/dossier.txt", sampleDocument)

	result, err := f.pipeline.Run(context.Background(), RunRequest{
		DocumentID:   "doc-1",
		DocumentName: "dossier.txt",
		SourcePath:   sourcePath,
		PathHint:     "clients/KYC/dossier.txt",
	})
	require.NoError(t, err)

	assert.Equal(t, 0, result.Report.Passed)
	assert.Equal(t, 2, result.Report.Total)
	for _, entry := range result.Report.Entries {
		assert.Nil(t, entry.Graded.RiskScore)
		assert.False(t, entry.Graded.Pass)
	}
	assert.Contains(t, result.Report.RenderText(), "Risk Score: N/A/10")
	assert.Equal(t, 1, f.reportCount(t))
}

func TestPipelineService_UnresolvedCategory(t *testing.T) {
	f := newPipelineFixture(t, scriptedModel("2"))
	sourcePath := f.seedDocument(t, "docs/file.txt", sampleDocument)

	result, err := f.pipeline.Run(context.Background(), RunRequest{
		DocumentID:   "doc-1",
		DocumentName: "file.txt",
		SourcePath:   sourcePath,
		PathHint:     "archive/misc/file.txt",
	})
	require.ErrorIs(t, err, models.ErrCategoryUnresolved)
	assert.Nil(t, result)
	assert.Equal(t, 0, f.reportCount(t))
}

func TestPipelineService_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	model := &stubLLM{respond: func(prompt string) (string, error) {
		cancel()
		return "", ctx.Err()
	}}
	f := newPipelineFixture(t, model)
	sourcePath := f.seedDocument(t, "docs/dossier.txt", sampleDocument)

	result, err := f.pipeline.Run(ctx, RunRequest{
		DocumentID:   "doc-1",
		DocumentName: "dossier.txt",
		SourcePath:   sourcePath,
		PathHint:     "clients/KYC/dossier.txt",
	})
	require.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, result)
	assert.Equal(t, 0, f.reportCount(t))
}

// passportModel mimics a model checking a passport expiry date found in
// the retrieved chunks.
func passportModel() *stubLLM {
	return &stubLLM{respond: func(prompt string) (string, error) {
		if strings.Contains(prompt, "Output ONLY the integer score") {
			if strings.Contains(prompt, `"is_valid": true`) {
				return "2", nil
			}
			return "9", nil
		}
		if strings.Contains(prompt, "Expiry 2030-01-01") {
			return `{"is_valid": true, "status": "Valid"}`, nil
		}
		return `{"is_valid": false, "status": "Expired"}`, nil
	}}
}

func TestPipelineService_PassportExpiry(t *testing.T) {
	f := newPipelineFixture(t, passportModel())
	require.NoError(t, f.rules.Create(rules.Rule{
		ControlID:          "KYC-03",
		Description:        "Verify passport validity",
		MetaCategory:       "KYC",
		PromptInstructions: []string{"Check that the passport expiry date is in the future."},
		ExpectedFormat:     `{"is_valid": bool, "status": string}`,
	}))

	valid := f.seedDocument(t, "docs/valid.txt", "Passport No. 123, Expiry 2030-01-01, Name: Jane Doe")
	result, err := f.pipeline.Run(context.Background(), RunRequest{
		DocumentID:   "doc-valid",
		DocumentName: "valid.txt",
		SourcePath:   valid,
		PathHint:     "clients/KYC/valid.txt",
	})
	require.NoError(t, err)
	require.Len(t, result.Report.Entries, 3)

	entry := result.Report.Entries[2]
	assert.Equal(t, "KYC-03", entry.Eval.ControlID)
	assert.Equal(t, StatusSuccess, entry.Eval.Status)
	assert.Equal(t, true, entry.Eval.Parsed["is_valid"])
	assert.True(t, entry.Graded.Pass)

	expired := f.seedDocument(t, "docs/expired.txt", "Passport No. 123, Expiry 2020-01-01, Name: Jane Doe")
	result, err = f.pipeline.Run(context.Background(), RunRequest{
		DocumentID:   "doc-expired",
		DocumentName: "expired.txt",
		SourcePath:   expired,
		PathHint:     "clients/KYC/expired.txt",
	})
	require.NoError(t, err)
	require.Len(t, result.Report.Entries, 3)

	entry = result.Report.Entries[2]
	assert.Equal(t, StatusSuccess, entry.Eval.Status)
	assert.Equal(t, false, entry.Eval.Parsed["is_valid"])
	assert.Equal(t, "Expired", entry.Eval.Parsed["status"])
	assert.False(t, entry.Graded.Pass)
}

func newHistoryDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

func TestPipelineService_RunHistory(t *testing.T) {
	db := newHistoryDB(t)
	docRepo := repository.NewDocumentRepositoryWithDB(db)
	runRepo := repository.NewRunRepositoryWithDB(db)

	f := newPipelineFixture(t, scriptedModel("2"), WithRunHistory(docRepo, runRepo))
	sourcePath := f.seedDocument(t, "docs/dossier.txt", sampleDocument)

	require.NoError(t, docRepo.Create(&models.Document{
		ID:       "doc-1",
		FileName: "dossier.txt",
		FileType: "txt",
		FilePath: sourcePath,
		Status:   models.DocStatusUploaded,
	}))

	result, err := f.pipeline.Run(context.Background(), RunRequest{
		DocumentID:   "doc-1",
		DocumentName: "dossier.txt",
		SourcePath:   sourcePath,
		PathHint:     "clients/KYC/dossier.txt",
	})
	require.NoError(t, err)

	run, err := runRepo.GetByID(result.RunID)
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusCompleted, run.Status)
	assert.Equal(t, 2, run.Passed)
	assert.Equal(t, 2, run.Total)
	assert.Equal(t, result.ReportPath, run.ReportPath)
	assert.NotNil(t, run.FinishedAt)
	assert.NotEmpty(t, run.Results)

	doc, err := docRepo.GetByID("doc-1")
	require.NoError(t, err)
	assert.Equal(t, models.DocStatusCompleted, doc.Status)
	assert.Equal(t, "KYC", doc.MetaCategory)
	assert.Greater(t, doc.ChunkCount, 0)
	assert.Empty(t, doc.Error)
}

func TestPipelineService_RunHistoryFailure(t *testing.T) {
	db := newHistoryDB(t)
	docRepo := repository.NewDocumentRepositoryWithDB(db)
	runRepo := repository.NewRunRepositoryWithDB(db)

	f := newPipelineFixture(t, scriptedModel("2"), WithRunHistory(docRepo, runRepo))

	require.NoError(t, docRepo.Create(&models.Document{
		ID:       "doc-1",
		FileName: "dossier.txt",
		FileType: "txt",
		FilePath: "missing/dossier.txt",
		Status:   models.DocStatusUploaded,
	}))

	result, err := f.pipeline.Run(context.Background(), RunRequest{
		DocumentID:   "doc-1",
		DocumentName: "dossier.txt",
		SourcePath:   "missing/dossier.txt",
		PathHint:     "clients/KYC/dossier.txt",
	})
	require.Error(t, err)
	assert.Nil(t, result)

	runs, err := runRepo.ListByDocument("doc-1")
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, models.RunStatusFailed, runs[0].Status)
	assert.NotEmpty(t, runs[0].Error)
	assert.Empty(t, runs[0].ReportPath)

	doc, err := docRepo.GetByID("doc-1")
	require.NoError(t, err)
	assert.Equal(t, models.DocStatusFailed, doc.Status)
	assert.NotEmpty(t, doc.Error)
}

func TestIndexService_QueryBeforeBuild(t *testing.T) {
	embedder := &stubEmbedder{}
	vectorDB, err := vectordb.NewMemoryRepository(vectordb.Config{Dimension: 3, DistanceType: vectordb.Cosine})
	require.NoError(t, err)

	index := NewIndexService(embedder, embedding.NewBatchProcessor(embedder, 4, 2), vectorDB)

	_, err = index.Query(context.Background(), "doc-1", "passport")
	assert.ErrorIs(t, err, models.ErrIndexNotBuilt)
}

func TestIndexService_BuildAndQuery(t *testing.T) {
	embedder := &stubEmbedder{}
	vectorDB, err := vectordb.NewMemoryRepository(vectordb.Config{Dimension: 3, DistanceType: vectordb.Cosine})
	require.NoError(t, err)

	index := NewIndexService(embedder, embedding.NewBatchProcessor(embedder, 4, 2), vectorDB, WithRetrievalK(2))

	chunks := []document.Chunk{
		{ID: 0, Text: "passport number on record", CharStart: 0, CharEnd: 25},
		{ID: 1, Text: "utility bill on record", CharStart: 25, CharEnd: 47},
		{ID: 2, Text: "risk questionnaire completed", CharStart: 47, CharEnd: 75},
	}
	count, err := index.Build(context.Background(), "doc-1", chunks)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
	assert.True(t, index.Has("doc-1"))

	retrieved, err := index.Query(context.Background(), "doc-1", "passport number on record")
	require.NoError(t, err)
	require.Len(t, retrieved, 2)
	assert.Equal(t, 0, retrieved[0].ChunkID)

	// rebuilding with the same chunks must not duplicate entries
	_, err = index.Build(context.Background(), "doc-1", chunks)
	require.NoError(t, err)
	again, err := index.Query(context.Background(), "doc-1", "passport number on record")
	require.NoError(t, err)
	assert.Equal(t, retrieved, again)

	require.NoError(t, index.Delete("doc-1"))
	assert.False(t, index.Has("doc-1"))
}
