package services

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/EricBlanvillain/control-automation/pkg/taskqueue"
)

// ControlRunHandler executes control runs pulled from the task queue.
type ControlRunHandler struct {
	pipeline *PipelineService
	queue    taskqueue.Queue
	logger   *logrus.Logger
}

// NewControlRunHandler creates the queue handler for control runs.
func NewControlRunHandler(pipeline *PipelineService, queue taskqueue.Queue, logger *logrus.Logger) *ControlRunHandler {
	if logger == nil {
		logger = logrus.New()
	}
	return &ControlRunHandler{
		pipeline: pipeline,
		queue:    queue,
		logger:   logger,
	}
}

// ProcessTask runs the control pipeline for a queued task.
func (h *ControlRunHandler) ProcessTask(ctx context.Context, task *taskqueue.Task) error {
	var payload taskqueue.ControlRunPayload
	if err := taskqueue.UnmarshalPayload(task.Payload, &payload); err != nil {
		return fmt.Errorf("%w: %v", taskqueue.ErrInvalidPayload, err)
	}

	h.logger.WithFields(logrus.Fields{
		"task_id":     task.ID,
		"document_id": payload.DocumentID,
	}).Info("Processing control run task")

	result, err := h.pipeline.Run(ctx, RunRequest{
		DocumentID:       payload.DocumentID,
		DocumentName:     payload.DocumentName,
		SourcePath:       payload.SourcePath,
		CategoryOverride: payload.CategoryOverride,
	})
	if err != nil {
		return err
	}

	// Store the result while the task is still marked processing; the
	// worker flips the status to completed afterwards.
	if h.queue != nil {
		runResult := taskqueue.ControlRunResult{
			RunID:      result.RunID,
			Passed:     result.Report.Passed,
			Total:      result.Report.Total,
			ReportPath: result.ReportPath,
		}
		if err := h.queue.UpdateTaskStatus(ctx, task.ID, taskqueue.StatusProcessing, runResult, ""); err != nil {
			h.logger.WithError(err).Warn("Failed to store task result")
		}
	}
	return nil
}

// GetTaskTypes returns the task types this handler supports.
func (h *ControlRunHandler) GetTaskTypes() []taskqueue.TaskType {
	return []taskqueue.TaskType{taskqueue.TaskControlRun}
}

// DocumentIndexHandler rebuilds a document's vector index from the queue.
type DocumentIndexHandler struct {
	extraction *ExtractionService
	index      *IndexService
	queue      taskqueue.Queue
	logger     *logrus.Logger
}

// NewDocumentIndexHandler creates the queue handler for index rebuilds.
func NewDocumentIndexHandler(extraction *ExtractionService, index *IndexService, queue taskqueue.Queue, logger *logrus.Logger) *DocumentIndexHandler {
	if logger == nil {
		logger = logrus.New()
	}
	return &DocumentIndexHandler{
		extraction: extraction,
		index:      index,
		queue:      queue,
		logger:     logger,
	}
}

// ProcessTask extracts, splits and indexes the document.
func (h *DocumentIndexHandler) ProcessTask(ctx context.Context, task *taskqueue.Task) error {
	var payload taskqueue.DocumentIndexPayload
	if err := taskqueue.UnmarshalPayload(task.Payload, &payload); err != nil {
		return fmt.Errorf("%w: %v", taskqueue.ErrInvalidPayload, err)
	}

	text, err := h.extraction.Extract(payload.SourcePath, payload.FileName)
	if err != nil {
		return err
	}
	chunks := h.extraction.Split(text)
	count, err := h.index.Build(ctx, payload.DocumentID, chunks)
	if err != nil {
		return err
	}

	h.logger.WithFields(logrus.Fields{
		"task_id":     task.ID,
		"document_id": payload.DocumentID,
		"chunks":      count,
	}).Info("Document index rebuilt")

	if h.queue != nil {
		indexResult := taskqueue.DocumentIndexResult{
			DocumentID: payload.DocumentID,
			ChunkCount: count,
		}
		if err := h.queue.UpdateTaskStatus(ctx, task.ID, taskqueue.StatusProcessing, indexResult, ""); err != nil {
			h.logger.WithError(err).Warn("Failed to store task result")
		}
	}
	return nil
}

// GetTaskTypes returns the task types this handler supports.
func (h *DocumentIndexHandler) GetTaskTypes() []taskqueue.TaskType {
	return []taskqueue.TaskType{taskqueue.TaskDocumentIndex}
}
