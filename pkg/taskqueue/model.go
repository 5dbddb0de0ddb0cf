package taskqueue

import (
	"encoding/json"
	"time"
)

// TaskType identifies the kind of background job.
type TaskType string

const (
	// TaskControlRun executes the control chain over a document.
	TaskControlRun TaskType = "control_run"
	// TaskDocumentIndex extracts and indexes a document without
	// running controls.
	TaskDocumentIndex TaskType = "document_index"
)

// TaskStatus is the lifecycle state of a queued task.
type TaskStatus string

const (
	// StatusPending waiting to be processed
	StatusPending TaskStatus = "pending"
	// StatusProcessing being processed
	StatusProcessing TaskStatus = "processing"
	// StatusCompleted finished successfully
	StatusCompleted TaskStatus = "completed"
	// StatusFailed finished with an error
	StatusFailed TaskStatus = "failed"
)

// Task is a queued background job.
type Task struct {
	ID          string          `json:"id"`
	Type        TaskType        `json:"type"`
	DocumentID  string          `json:"document_id"`
	Status      TaskStatus      `json:"status"`
	Payload     json.RawMessage `json:"payload"`
	Result      json.RawMessage `json:"result"`
	Error       string          `json:"error"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	StartedAt   *time.Time      `json:"started_at"`
	CompletedAt *time.Time      `json:"completed_at"`
	Attempts    int             `json:"attempts"`
	MaxRetries  int             `json:"max_retries"`
}

// ControlRunPayload is the payload of a control_run task.
type ControlRunPayload struct {
	RunID            string `json:"run_id"`
	DocumentID       string `json:"document_id"`
	DocumentName     string `json:"document_name"`
	SourcePath       string `json:"source_path"`
	CategoryOverride string `json:"category_override,omitempty"`
}

// ControlRunResult is the result of a control_run task.
type ControlRunResult struct {
	RunID      string `json:"run_id"`
	Passed     int    `json:"passed"`
	Total      int    `json:"total"`
	ReportPath string `json:"report_path"`
}

// DocumentIndexPayload is the payload of a document_index task.
type DocumentIndexPayload struct {
	DocumentID string `json:"document_id"`
	SourcePath string `json:"source_path"`
	FileName   string `json:"file_name"`
}

// DocumentIndexResult is the result of a document_index task.
type DocumentIndexResult struct {
	DocumentID string `json:"document_id"`
	ChunkCount int    `json:"chunk_count"`
}

// TaskInfo is the task view returned to API clients.
type TaskInfo struct {
	ID          string     `json:"id"`
	Type        TaskType   `json:"type"`
	DocumentID  string     `json:"document_id"`
	Status      TaskStatus `json:"status"`
	Error       string     `json:"error"`
	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at"`
}

// NewTaskInfo builds a TaskInfo from a Task.
func NewTaskInfo(task *Task) *TaskInfo {
	return &TaskInfo{
		ID:          task.ID,
		Type:        task.Type,
		DocumentID:  task.DocumentID,
		Status:      task.Status,
		Error:       task.Error,
		CreatedAt:   task.CreatedAt,
		StartedAt:   task.StartedAt,
		CompletedAt: task.CompletedAt,
	}
}

// TaskError is a typed task queue error.
type TaskError string

func (e TaskError) Error() string {
	return string(e)
}

// Common task queue errors.
var (
	ErrTaskNotFound   = TaskError("task not found")
	ErrTaskTimeout    = TaskError("task timed out")
	ErrInvalidPayload = TaskError("invalid task payload")
)

// MarshalPayload serializes a task payload to JSON.
func MarshalPayload(payload interface{}) (json.RawMessage, error) {
	if payload == nil {
		return json.RawMessage("{}"), nil
	}
	return json.Marshal(payload)
}

// UnmarshalPayload deserializes a task payload from JSON.
func UnmarshalPayload(data json.RawMessage, v interface{}) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, v)
}
