package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/EricBlanvillain/control-automation/api/middleware"
	"github.com/EricBlanvillain/control-automation/api/model"
	"github.com/EricBlanvillain/control-automation/pkg/taskqueue"
)

// TaskHandler handles background task status requests.
type TaskHandler struct {
	queue  taskqueue.Queue
	logger *logrus.Logger
}

// NewTaskHandler creates a task handler.
func NewTaskHandler(queue taskqueue.Queue) *TaskHandler {
	return &TaskHandler{
		queue:  queue,
		logger: middleware.GetLogger(),
	}
}

// GetTaskStatus handles GET /api/tasks/:id.
func (h *TaskHandler) GetTaskStatus(c *gin.Context) {
	var req model.TaskIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(
			http.StatusBadRequest,
			"task ID is required",
		))
		return
	}

	task, err := h.queue.GetTask(c.Request.Context(), req.ID)
	if err != nil {
		if errors.Is(err, taskqueue.ErrTaskNotFound) {
			c.JSON(http.StatusNotFound, model.NewErrorResponse(
				http.StatusNotFound,
				"task not found",
			))
			return
		}
		h.logger.WithError(err).WithField("task_id", req.ID).Error("Failed to get task")
		c.JSON(http.StatusInternalServerError, model.NewErrorResponse(
			http.StatusInternalServerError,
			"failed to get task",
		))
		return
	}

	c.JSON(http.StatusOK, model.NewSuccessResponse(taskqueue.NewTaskInfo(task)))
}

// ListDocumentTasks handles GET /api/documents/:id/tasks.
func (h *TaskHandler) ListDocumentTasks(c *gin.Context) {
	var req model.DocumentIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(
			http.StatusBadRequest,
			"document ID is required",
		))
		return
	}

	tasks, err := h.queue.GetTasksByDocument(c.Request.Context(), req.ID)
	if err != nil {
		h.logger.WithError(err).WithField("document_id", req.ID).Error("Failed to list tasks")
		c.JSON(http.StatusInternalServerError, model.NewErrorResponse(
			http.StatusInternalServerError,
			"failed to list tasks",
		))
		return
	}

	infos := make([]*taskqueue.TaskInfo, len(tasks))
	for i, task := range tasks {
		infos[i] = taskqueue.NewTaskInfo(task)
	}

	c.JSON(http.StatusOK, model.NewSuccessResponse(infos))
}

// WaitForTask handles GET /api/tasks/:id/wait. The request blocks until
// the task completes or the timeout elapses.
func (h *TaskHandler) WaitForTask(c *gin.Context) {
	var req model.TaskIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(
			http.StatusBadRequest,
			"task ID is required",
		))
		return
	}

	timeout := 30 * time.Second
	if raw := c.Query("timeout"); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, model.NewErrorResponse(
				http.StatusBadRequest,
				"invalid timeout",
			))
			return
		}
		timeout = parsed
	}

	task, err := h.queue.WaitForTask(c.Request.Context(), req.ID, timeout)
	if err != nil {
		if errors.Is(err, taskqueue.ErrTaskNotFound) {
			c.JSON(http.StatusNotFound, model.NewErrorResponse(
				http.StatusNotFound,
				"task not found",
			))
			return
		}
		if errors.Is(err, taskqueue.ErrTaskTimeout) {
			c.JSON(http.StatusRequestTimeout, model.NewErrorResponse(
				http.StatusRequestTimeout,
				"task did not complete in time",
			))
			return
		}
		h.logger.WithError(err).WithField("task_id", req.ID).Error("Failed to wait for task")
		c.JSON(http.StatusInternalServerError, model.NewErrorResponse(
			http.StatusInternalServerError,
			"failed to wait for task",
		))
		return
	}

	c.JSON(http.StatusOK, model.NewSuccessResponse(taskqueue.NewTaskInfo(task)))
}
