package model

import (
	"mime/multipart"
)

// PaginationRequest common pagination parameters.
type PaginationRequest struct {
	Page     int `form:"page" json:"page" binding:"omitempty,min=1"`
	PageSize int `form:"page_size" json:"page_size" binding:"omitempty,min=1"`
}

// GetPage returns the page number, defaulting to 1.
func (p *PaginationRequest) GetPage() int {
	if p.Page <= 0 {
		return 1
	}
	return p.Page
}

// GetPageSize returns the page size, defaulting to 10 and capped at 100.
func (p *PaginationRequest) GetPageSize() int {
	if p.PageSize <= 0 {
		return 10
	}
	if p.PageSize > 100 {
		return 100
	}
	return p.PageSize
}

// DocumentUploadRequest uploads a target document.
type DocumentUploadRequest struct {
	File *multipart.FileHeader `form:"file" binding:"required"`
	// MetaCategory optionally pins the compliance category instead of
	// inferring it from the file path.
	MetaCategory string `form:"meta_category" json:"meta_category" binding:"omitempty"`
}

// DocumentIDRequest addresses a document by ID.
type DocumentIDRequest struct {
	ID string `uri:"id" binding:"required"`
}

// DocumentListRequest lists documents with optional filters.
type DocumentListRequest struct {
	PaginationRequest
	Status       string `form:"status" json:"status" binding:"omitempty"`
	MetaCategory string `form:"meta_category" json:"meta_category" binding:"omitempty"`
	FileName     string `form:"file_name" json:"file_name" binding:"omitempty"`
}

// ControlRunRequest starts a control run over an uploaded document.
type ControlRunRequest struct {
	DocumentID string `json:"document_id" binding:"required"`
	// CategoryOverride forces the meta category; it must name a known
	// category to take effect.
	CategoryOverride string `json:"category_override" binding:"omitempty"`
	// PathHint is the original document path used for category
	// inference. Defaults to the stored file path.
	PathHint string `json:"path_hint" binding:"omitempty"`
	// Async enqueues the run instead of executing it inline.
	Async bool `json:"async" binding:"omitempty"`
}

// RunIDRequest addresses a control run by ID.
type RunIDRequest struct {
	ID string `uri:"id" binding:"required"`
}

// RunListRequest lists control runs with optional filters.
type RunListRequest struct {
	PaginationRequest
	Status       string `form:"status" json:"status" binding:"omitempty"`
	DocumentID   string `form:"document_id" json:"document_id" binding:"omitempty"`
	MetaCategory string `form:"meta_category" json:"meta_category" binding:"omitempty"`
}

// RuleIDRequest addresses a rule by control ID.
type RuleIDRequest struct {
	ID string `uri:"id" binding:"required"`
}

// RuleListRequest lists rules, optionally for one category.
type RuleListRequest struct {
	MetaCategory string `form:"meta_category" json:"meta_category" binding:"omitempty"`
}

// TaskIDRequest addresses a background task by ID.
type TaskIDRequest struct {
	ID string `uri:"id" binding:"required"`
}
