package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// DocumentStatus lifecycle of an uploaded target document
type DocumentStatus string

const (
	// DocStatusUploaded stored but not yet run against any controls
	DocStatusUploaded DocumentStatus = "uploaded"
	// DocStatusProcessing a control run is in progress for this document
	DocStatusProcessing DocumentStatus = "processing"
	// DocStatusCompleted at least one control run finished
	DocStatusCompleted DocumentStatus = "completed"
	// DocStatusFailed the last control run aborted at run level
	DocStatusFailed DocumentStatus = "failed"
)

// Document metadata record for a target document handed to the pipeline
type Document struct {
	ID           string         `gorm:"primaryKey"`     // storage identifier
	FileName     string         `gorm:"not null"`       // original file name
	FileType     string         `gorm:"not null"`       // detected format tag
	FilePath     string         `gorm:"not null"`       // path inside storage
	FileSize     int64          `gorm:"not null"`       // size in bytes
	Status       DocumentStatus `gorm:"not null;index"` // lifecycle status
	MetaCategory string         `gorm:"index"`          // resolved compliance category, if known
	UploadedAt   time.Time      `gorm:"not null;index"`
	UpdatedAt    time.Time      `gorm:"not null"`
	ChunkCount   int            `gorm:"not null;default:0"` // chunks produced by the last extraction
	Error        string         `gorm:"type:text"`          // last run-level failure cause
	Metadata     datatypes.JSON `gorm:"type:json"`
}

// BeforeCreate fills timestamps on insert
func (d *Document) BeforeCreate(tx *gorm.DB) error {
	if d.UploadedAt.IsZero() {
		d.UploadedAt = time.Now()
	}
	d.UpdatedAt = time.Now()
	return nil
}

// BeforeUpdate refreshes the update timestamp
func (d *Document) BeforeUpdate(tx *gorm.DB) error {
	d.UpdatedAt = time.Now()
	return nil
}

// TableName explicit table name
func (Document) TableName() string {
	return "documents"
}
