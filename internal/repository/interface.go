package repository

import "github.com/EricBlanvillain/control-automation/internal/models"

// DocumentRepository stores document metadata.
type DocumentRepository interface {
	// Create inserts a document record.
	Create(doc *models.Document) error

	// Update saves a document record.
	Update(doc *models.Document) error

	// GetByID returns a document by ID.
	GetByID(id string) (*models.Document, error)

	// List returns documents with pagination and optional filters.
	List(offset, limit int, filters map[string]interface{}) ([]*models.Document, int64, error)

	// Delete removes a document record.
	Delete(id string) error

	// UpdateStatus updates a document's processing status.
	UpdateStatus(id string, status models.DocumentStatus, errorMsg string) error
}

// RunRepository stores control run history.
type RunRepository interface {
	// Create inserts a run record.
	Create(run *models.ControlRun) error

	// Update saves a run record.
	Update(run *models.ControlRun) error

	// GetByID returns a run by ID.
	GetByID(id string) (*models.ControlRun, error)

	// List returns runs with pagination and optional filters.
	List(offset, limit int, filters map[string]interface{}) ([]*models.ControlRun, int64, error)

	// ListByDocument returns all runs for a document, newest first.
	ListByDocument(documentID string) ([]*models.ControlRun, error)
}
