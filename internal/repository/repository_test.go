package repository

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/EricBlanvillain/control-automation/internal/database"
	"github.com/EricBlanvillain/control-automation/internal/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

func TestDocumentRepository(t *testing.T) {
	repo := NewDocumentRepositoryWithDB(newTestDB(t))

	doc := &models.Document{
		ID:           "doc-1",
		FileName:     "passport_scan.pdf",
		FileType:     "imagepdf",
		FilePath:     "documents/KYC/passport_scan.pdf",
		FileSize:     2048,
		Status:       models.DocStatusUploaded,
		MetaCategory: "KYC",
	}
	require.NoError(t, repo.Create(doc))

	got, err := repo.GetByID("doc-1")
	require.NoError(t, err)
	assert.Equal(t, "passport_scan.pdf", got.FileName)
	assert.Equal(t, "KYC", got.MetaCategory)
	assert.False(t, got.UploadedAt.IsZero())

	require.NoError(t, repo.UpdateStatus("doc-1", models.DocStatusFailed, "extraction failed"))
	got, err = repo.GetByID("doc-1")
	require.NoError(t, err)
	assert.Equal(t, models.DocStatusFailed, got.Status)
	assert.Equal(t, "extraction failed", got.Error)
}

func TestDocumentRepositoryNotFound(t *testing.T) {
	repo := NewDocumentRepositoryWithDB(newTestDB(t))

	_, err := repo.GetByID("missing")
	assert.ErrorIs(t, err, models.ErrDocumentNotFound)

	err = repo.UpdateStatus("missing", models.DocStatusCompleted, "")
	assert.ErrorIs(t, err, models.ErrDocumentNotFound)
}

func TestDocumentRepositoryList(t *testing.T) {
	repo := NewDocumentRepositoryWithDB(newTestDB(t))

	for _, doc := range []*models.Document{
		{ID: "doc-1", FileName: "a.txt", FileType: "plaintext", FilePath: "a", Status: models.DocStatusUploaded, MetaCategory: "KYC"},
		{ID: "doc-2", FileName: "b.txt", FileType: "plaintext", FilePath: "b", Status: models.DocStatusCompleted, MetaCategory: "RGPD"},
		{ID: "doc-3", FileName: "c.txt", FileType: "plaintext", FilePath: "c", Status: models.DocStatusCompleted, MetaCategory: "KYC"},
	} {
		require.NoError(t, repo.Create(doc))
	}

	docs, total, err := repo.List(0, 10, map[string]interface{}{"meta_category": "KYC"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, docs, 2)

	docs, total, err = repo.List(0, 10, map[string]interface{}{"status": "completed"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)

	docs, total, err = repo.List(0, 1, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, docs, 1)
}

func TestDocumentDeleteRemovesRuns(t *testing.T) {
	db := newTestDB(t)
	docRepo := NewDocumentRepositoryWithDB(db)
	runRepo := NewRunRepositoryWithDB(db)

	require.NoError(t, docRepo.Create(&models.Document{
		ID: "doc-1", FileName: "a.txt", FileType: "plaintext", FilePath: "a",
		Status: models.DocStatusUploaded,
	}))
	require.NoError(t, runRepo.Create(&models.ControlRun{
		ID: "run-1", DocumentID: "doc-1", DocumentName: "a.txt",
		MetaCategory: "KYC", Status: models.RunStatusCompleted,
	}))

	require.NoError(t, docRepo.Delete("doc-1"))

	_, err := docRepo.GetByID("doc-1")
	assert.ErrorIs(t, err, models.ErrDocumentNotFound)

	runs, err := runRepo.ListByDocument("doc-1")
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestRunRepository(t *testing.T) {
	repo := NewRunRepositoryWithDB(newTestDB(t))

	run := &models.ControlRun{
		ID:           "run-1",
		DocumentID:   "doc-1",
		DocumentName: "passport_scan.pdf",
		MetaCategory: "KYC",
		Status:       models.RunStatusRunning,
	}
	require.NoError(t, repo.Create(run))

	got, err := repo.GetByID("run-1")
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusRunning, got.Status)
	assert.False(t, got.StartedAt.IsZero())

	now := time.Now()
	got.Status = models.RunStatusCompleted
	got.Passed = 2
	got.Total = 3
	got.FinishedAt = &now
	require.NoError(t, repo.Update(got))

	got, err = repo.GetByID("run-1")
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusCompleted, got.Status)
	assert.Equal(t, 2, got.Passed)
	require.NotNil(t, got.FinishedAt)
}

func TestRunRepositoryListByDocument(t *testing.T) {
	repo := NewRunRepositoryWithDB(newTestDB(t))

	base := time.Now().Add(-time.Hour)
	for i, id := range []string{"run-1", "run-2"} {
		require.NoError(t, repo.Create(&models.ControlRun{
			ID:           id,
			DocumentID:   "doc-1",
			DocumentName: "a.txt",
			MetaCategory: "KYC",
			Status:       models.RunStatusCompleted,
			StartedAt:    base.Add(time.Duration(i) * time.Minute),
		}))
	}
	require.NoError(t, repo.Create(&models.ControlRun{
		ID: "run-3", DocumentID: "doc-2", DocumentName: "b.txt",
		MetaCategory: "RGPD", Status: models.RunStatusCompleted,
	}))

	runs, err := repo.ListByDocument("doc-1")
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run-2", runs[0].ID)
	assert.Equal(t, "run-1", runs[1].ID)
}

func TestRunRepositoryNotFound(t *testing.T) {
	repo := NewRunRepositoryWithDB(newTestDB(t))

	_, err := repo.GetByID("missing")
	assert.ErrorIs(t, err, models.ErrRunNotFound)
}
