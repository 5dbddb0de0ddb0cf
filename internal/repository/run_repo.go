package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/EricBlanvillain/control-automation/internal/database"
	"github.com/EricBlanvillain/control-automation/internal/models"
)

type runRepository struct {
	db *gorm.DB
}

// NewRunRepository creates a run repository using the global database
// connection.
func NewRunRepository() RunRepository {
	return &runRepository{db: database.MustDB()}
}

// NewRunRepositoryWithDB creates a run repository with the given
// connection.
func NewRunRepositoryWithDB(db *gorm.DB) RunRepository {
	if db == nil {
		db = database.MustDB()
	}
	return &runRepository{db: db}
}

// Create inserts a run record.
func (r *runRepository) Create(run *models.ControlRun) error {
	if run.ID == "" {
		return errors.New("run ID cannot be empty")
	}
	return r.db.Create(run).Error
}

// Update saves a run record.
func (r *runRepository) Update(run *models.ControlRun) error {
	if run.ID == "" {
		return errors.New("run ID cannot be empty")
	}
	return r.db.Save(run).Error
}

// GetByID returns a run by ID.
func (r *runRepository) GetByID(id string) (*models.ControlRun, error) {
	var run models.ControlRun
	err := r.db.Where("id = ?", id).First(&run).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", models.ErrRunNotFound, id)
		}
		return nil, err
	}
	return &run, nil
}

// List returns runs with pagination and optional filters.
func (r *runRepository) List(offset, limit int, filters map[string]interface{}) ([]*models.ControlRun, int64, error) {
	var runs []*models.ControlRun
	var total int64

	query := r.db.Model(&models.ControlRun{})

	if filters != nil {
		if status, ok := filters["status"].(string); ok && status != "" {
			query = query.Where("status = ?", status)
		}
		if documentID, ok := filters["document_id"].(string); ok && documentID != "" {
			query = query.Where("document_id = ?", documentID)
		}
		if category, ok := filters["meta_category"].(string); ok && category != "" {
			query = query.Where("meta_category = ?", category)
		}
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("started_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&runs).Error
	if err != nil {
		return nil, 0, err
	}
	return runs, total, nil
}

// ListByDocument returns all runs for a document, newest first.
func (r *runRepository) ListByDocument(documentID string) ([]*models.ControlRun, error) {
	var runs []*models.ControlRun
	err := r.db.Where("document_id = ?", documentID).
		Order("started_at DESC").
		Find(&runs).Error
	if err != nil {
		return nil, err
	}
	return runs, nil
}
