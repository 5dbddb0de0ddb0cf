package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/EricBlanvillain/control-automation/api/middleware"
	"github.com/EricBlanvillain/control-automation/api/model"
	"github.com/EricBlanvillain/control-automation/internal/models"
	"github.com/EricBlanvillain/control-automation/internal/repository"
	"github.com/EricBlanvillain/control-automation/internal/services"
	"github.com/EricBlanvillain/control-automation/pkg/storage"
	"github.com/EricBlanvillain/control-automation/pkg/taskqueue"
)

// ControlRunner executes the control pipeline.
type ControlRunner interface {
	Run(ctx context.Context, req services.RunRequest) (*services.RunResult, error)
}

// ControlHandler handles control run requests.
type ControlHandler struct {
	runner      ControlRunner
	queue       taskqueue.Queue
	docRepo     repository.DocumentRepository
	runRepo     repository.RunRepository
	fileStorage storage.Storage
	logger      *logrus.Logger
}

// NewControlHandler creates a control handler. queue may be nil, in
// which case async runs are rejected.
func NewControlHandler(
	runner ControlRunner,
	queue taskqueue.Queue,
	docRepo repository.DocumentRepository,
	runRepo repository.RunRepository,
	fileStorage storage.Storage,
) *ControlHandler {
	return &ControlHandler{
		runner:      runner,
		queue:       queue,
		docRepo:     docRepo,
		runRepo:     runRepo,
		fileStorage: fileStorage,
		logger:      middleware.GetLogger(),
	}
}

// StartRun handles POST /api/runs.
func (h *ControlHandler) StartRun(c *gin.Context) {
	var req model.ControlRunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(
			http.StatusBadRequest,
			"invalid run request",
		))
		return
	}

	doc, err := h.docRepo.GetByID(req.DocumentID)
	if err != nil {
		if errors.Is(err, models.ErrDocumentNotFound) {
			c.JSON(http.StatusNotFound, model.NewErrorResponse(
				http.StatusNotFound,
				"document not found",
			))
			return
		}
		h.logger.WithError(err).WithField("document_id", req.DocumentID).Error("Failed to get document")
		c.JSON(http.StatusInternalServerError, model.NewErrorResponse(
			http.StatusInternalServerError,
			"failed to get document",
		))
		return
	}

	pathHint := req.PathHint
	if pathHint == "" {
		pathHint = doc.FileName
	}
	override := req.CategoryOverride
	if override == "" {
		override = doc.MetaCategory
	}

	if req.Async {
		h.startAsync(c, doc, pathHint, override)
		return
	}

	result, err := h.runner.Run(c.Request.Context(), services.RunRequest{
		DocumentID:       doc.ID,
		DocumentName:     doc.FileName,
		SourcePath:       doc.FilePath,
		PathHint:         pathHint,
		CategoryOverride: override,
	})
	if err != nil {
		if errors.Is(err, models.ErrCategoryUnresolved) {
			c.JSON(http.StatusBadRequest, model.NewErrorResponse(
				http.StatusBadRequest,
				"meta category could not be resolved; supply category_override",
			))
			return
		}
		h.logger.WithError(err).WithField("document_id", doc.ID).Error("Control run failed")
		c.JSON(http.StatusInternalServerError, model.NewErrorResponse(
			http.StatusInternalServerError,
			"control run failed: "+err.Error(),
		))
		return
	}

	c.JSON(http.StatusOK, model.NewSuccessResponse(model.ControlRunResponse{
		RunID:        result.RunID,
		Status:       string(models.RunStatusCompleted),
		MetaCategory: result.MetaCategory,
		Passed:       result.Report.Passed,
		Total:        result.Report.Total,
		ReportPath:   result.ReportPath,
	}))
}

func (h *ControlHandler) startAsync(c *gin.Context, doc *models.Document, pathHint, override string) {
	if h.queue == nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(
			http.StatusBadRequest,
			"async runs are not enabled",
		))
		return
	}

	taskID, err := h.queue.Enqueue(c.Request.Context(), taskqueue.TaskControlRun, doc.ID, taskqueue.ControlRunPayload{
		DocumentID:       doc.ID,
		DocumentName:     doc.FileName,
		SourcePath:       doc.FilePath,
		CategoryOverride: override,
	})
	if err != nil {
		h.logger.WithError(err).WithField("document_id", doc.ID).Error("Failed to enqueue control run")
		c.JSON(http.StatusInternalServerError, model.NewErrorResponse(
			http.StatusInternalServerError,
			"failed to enqueue control run",
		))
		return
	}

	h.logger.WithFields(logrus.Fields{
		"task_id":     taskID,
		"document_id": doc.ID,
	}).Info("Control run enqueued")

	c.JSON(http.StatusAccepted, model.NewSuccessResponse(model.ControlRunResponse{
		TaskID: taskID,
		Status: string(taskqueue.StatusPending),
	}))
}

// GetRun handles GET /api/runs/:id.
func (h *ControlHandler) GetRun(c *gin.Context) {
	var req model.RunIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(
			http.StatusBadRequest,
			"run ID is required",
		))
		return
	}

	run, err := h.runRepo.GetByID(req.ID)
	if err != nil {
		if errors.Is(err, models.ErrRunNotFound) {
			c.JSON(http.StatusNotFound, model.NewErrorResponse(
				http.StatusNotFound,
				"run not found",
			))
			return
		}
		h.logger.WithError(err).WithField("run_id", req.ID).Error("Failed to get run")
		c.JSON(http.StatusInternalServerError, model.NewErrorResponse(
			http.StatusInternalServerError,
			"failed to get run",
		))
		return
	}

	c.JSON(http.StatusOK, model.NewSuccessResponse(model.ConvertRunInfo(run)))
}

// ListRuns handles GET /api/runs.
func (h *ControlHandler) ListRuns(c *gin.Context) {
	var req model.RunListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(
			http.StatusBadRequest,
			"invalid list request",
		))
		return
	}

	filters := map[string]interface{}{}
	if req.Status != "" {
		filters["status"] = req.Status
	}
	if req.DocumentID != "" {
		filters["document_id"] = req.DocumentID
	}
	if req.MetaCategory != "" {
		filters["meta_category"] = req.MetaCategory
	}

	page := req.GetPage()
	pageSize := req.GetPageSize()
	runs, total, err := h.runRepo.List((page-1)*pageSize, pageSize, filters)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list runs")
		c.JSON(http.StatusInternalServerError, model.NewErrorResponse(
			http.StatusInternalServerError,
			"failed to list runs",
		))
		return
	}

	infos := make([]model.RunInfo, len(runs))
	for i, run := range runs {
		infos[i] = model.ConvertRunInfo(run)
	}

	c.JSON(http.StatusOK, model.NewSuccessResponse(model.RunListResponse{
		Total:    total,
		Page:     page,
		PageSize: pageSize,
		Runs:     infos,
	}))
}

// GetReport handles GET /api/runs/:id/report. The rendered report is
// returned as plain text.
func (h *ControlHandler) GetReport(c *gin.Context) {
	var req model.RunIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(
			http.StatusBadRequest,
			"run ID is required",
		))
		return
	}

	run, err := h.runRepo.GetByID(req.ID)
	if err != nil {
		if errors.Is(err, models.ErrRunNotFound) {
			c.JSON(http.StatusNotFound, model.NewErrorResponse(
				http.StatusNotFound,
				"run not found",
			))
			return
		}
		h.logger.WithError(err).WithField("run_id", req.ID).Error("Failed to get run")
		c.JSON(http.StatusInternalServerError, model.NewErrorResponse(
			http.StatusInternalServerError,
			"failed to get run",
		))
		return
	}

	if run.ReportPath == "" {
		c.JSON(http.StatusNotFound, model.NewErrorResponse(
			http.StatusNotFound,
			"run has no report",
		))
		return
	}

	reader, err := h.fileStorage.GetByPath(run.ReportPath)
	if err != nil {
		h.logger.WithError(err).WithField("run_id", req.ID).Error("Failed to read report")
		c.JSON(http.StatusInternalServerError, model.NewErrorResponse(
			http.StatusInternalServerError,
			"failed to read report",
		))
		return
	}
	defer reader.Close()

	content, err := io.ReadAll(reader)
	if err != nil {
		c.JSON(http.StatusInternalServerError, model.NewErrorResponse(
			http.StatusInternalServerError,
			"failed to read report",
		))
		return
	}

	c.Data(http.StatusOK, "text/plain; charset=utf-8", content)
}
