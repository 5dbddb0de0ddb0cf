package model

import (
	"time"

	"github.com/EricBlanvillain/control-automation/internal/models"
)

// Response generic API envelope. Code 0 means success.
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	TraceID string      `json:"trace_id,omitempty"`
}

// NewSuccessResponse creates a success envelope.
func NewSuccessResponse(data interface{}) *Response {
	return &Response{
		Code:    0,
		Message: "success",
		Data:    data,
	}
}

// NewErrorResponse creates an error envelope.
func NewErrorResponse(code int, message string) *Response {
	return &Response{
		Code:    code,
		Message: message,
	}
}

// DocumentUploadResponse result of a document upload.
type DocumentUploadResponse struct {
	DocumentID   string `json:"document_id"`
	FileName     string `json:"filename"`
	Status       string `json:"status"`
	MetaCategory string `json:"meta_category,omitempty"`
}

// DocumentInfo API view of a document record.
type DocumentInfo struct {
	DocumentID   string    `json:"document_id"`
	FileName     string    `json:"filename"`
	FileType     string    `json:"file_type"`
	FileSize     int64     `json:"file_size"`
	Status       string    `json:"status"`
	MetaCategory string    `json:"meta_category,omitempty"`
	ChunkCount   int       `json:"chunk_count"`
	Error        string    `json:"error,omitempty"`
	UploadedAt   time.Time `json:"uploaded_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ConvertDocumentInfo maps a document record to its API view.
func ConvertDocumentInfo(doc *models.Document) DocumentInfo {
	return DocumentInfo{
		DocumentID:   doc.ID,
		FileName:     doc.FileName,
		FileType:     doc.FileType,
		FileSize:     doc.FileSize,
		Status:       string(doc.Status),
		MetaCategory: doc.MetaCategory,
		ChunkCount:   doc.ChunkCount,
		Error:        doc.Error,
		UploadedAt:   doc.UploadedAt,
		UpdatedAt:    doc.UpdatedAt,
	}
}

// DocumentListResponse paged document list.
type DocumentListResponse struct {
	Total     int64          `json:"total"`
	Page      int            `json:"page"`
	PageSize  int            `json:"page_size"`
	Documents []DocumentInfo `json:"documents"`
}

// DocumentDeleteResponse result of a document deletion.
type DocumentDeleteResponse struct {
	Success    bool   `json:"success"`
	DocumentID string `json:"document_id"`
}

// RunInfo API view of a control run.
type RunInfo struct {
	RunID        string     `json:"run_id"`
	DocumentID   string     `json:"document_id"`
	DocumentName string     `json:"document_name"`
	MetaCategory string     `json:"meta_category"`
	Status       string     `json:"status"`
	Passed       int        `json:"passed"`
	Total        int        `json:"total"`
	ReportPath   string     `json:"report_path,omitempty"`
	Error        string     `json:"error,omitempty"`
	StartedAt    time.Time  `json:"started_at"`
	FinishedAt   *time.Time `json:"finished_at,omitempty"`
}

// ConvertRunInfo maps a run record to its API view.
func ConvertRunInfo(run *models.ControlRun) RunInfo {
	return RunInfo{
		RunID:        run.ID,
		DocumentID:   run.DocumentID,
		DocumentName: run.DocumentName,
		MetaCategory: run.MetaCategory,
		Status:       string(run.Status),
		Passed:       run.Passed,
		Total:        run.Total,
		ReportPath:   run.ReportPath,
		Error:        run.Error,
		StartedAt:    run.StartedAt,
		FinishedAt:   run.FinishedAt,
	}
}

// RunListResponse paged run list.
type RunListResponse struct {
	Total    int64     `json:"total"`
	Page     int       `json:"page"`
	PageSize int       `json:"page_size"`
	Runs     []RunInfo `json:"runs"`
}

// ControlRunResponse result of starting a control run. TaskID is set
// for async runs; RunID and counters are set for completed sync runs.
type ControlRunResponse struct {
	RunID        string `json:"run_id,omitempty"`
	TaskID       string `json:"task_id,omitempty"`
	Status       string `json:"status"`
	MetaCategory string `json:"meta_category,omitempty"`
	Passed       int    `json:"passed"`
	Total        int    `json:"total"`
	ReportPath   string `json:"report_path,omitempty"`
}

// CategoryListResponse known meta categories.
type CategoryListResponse struct {
	Categories []string `json:"categories"`
}
