package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// RunStatus lifecycle of a control run
type RunStatus string

const (
	// RunStatusPending the run is queued but not started
	RunStatusPending RunStatus = "pending"
	// RunStatusRunning the pipeline is executing
	RunStatusRunning RunStatus = "running"
	// RunStatusCompleted the run produced a report
	RunStatusCompleted RunStatus = "completed"
	// RunStatusFailed the run aborted at run level, no report exists
	RunStatusFailed RunStatus = "failed"
)

// ControlRun one execution of the control chain over a single document.
// Completed runs reference the rendered report in the report sink and keep
// the graded results as JSON for the API; failed runs record the cause and
// have no report.
type ControlRun struct {
	ID           string         `gorm:"primaryKey"` // run identifier
	DocumentID   string         `gorm:"not null;index"`
	DocumentName string         `gorm:"not null"`
	MetaCategory string         `gorm:"size:64;not null;index"`
	Status       RunStatus      `gorm:"size:20;not null;index"`
	Passed       int            `gorm:"not null;default:0"`
	Total        int            `gorm:"not null;default:0"`
	ReportPath   string         `gorm:"size:512"` // report sink reference, empty on failure
	Error        string         `gorm:"type:text"`
	Results      datatypes.JSON `gorm:"type:json"` // graded results, one entry per selected rule
	StartedAt    time.Time      `gorm:"not null;index"`
	FinishedAt   *time.Time
	UpdatedAt    time.Time `gorm:"not null"`
}

// BeforeCreate fills timestamps on insert
func (r *ControlRun) BeforeCreate(tx *gorm.DB) error {
	if r.StartedAt.IsZero() {
		r.StartedAt = time.Now()
	}
	r.UpdatedAt = time.Now()
	return nil
}

// BeforeUpdate refreshes the update timestamp
func (r *ControlRun) BeforeUpdate(tx *gorm.DB) error {
	r.UpdatedAt = time.Now()
	return nil
}

// TableName explicit table name
func (ControlRun) TableName() string {
	return "control_runs"
}
