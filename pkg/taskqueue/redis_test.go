package taskqueue

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupQueue(t *testing.T) Queue {
	t.Helper()
	mr := miniredis.RunT(t)

	queue, err := NewRedisQueue(&Config{
		RedisAddr:   mr.Addr(),
		Concurrency: 2,
		RetryLimit:  2,
		RetryDelay:  time.Second,
	})
	require.NoError(t, err)
	t.Cleanup(func() { queue.Close() })
	return queue
}

func TestEnqueueAndGetTask(t *testing.T) {
	queue := setupQueue(t)
	ctx := context.Background()

	payload := &ControlRunPayload{
		RunID:        "run-1",
		DocumentID:   "doc-1",
		DocumentName: "passport_scan.pdf",
		SourcePath:   "documents/KYC/passport_scan.pdf",
	}

	taskID, err := queue.Enqueue(ctx, TaskControlRun, "doc-1", payload)
	require.NoError(t, err)
	require.NotEmpty(t, taskID)

	task, err := queue.GetTask(ctx, taskID)
	require.NoError(t, err)
	assert.Equal(t, taskID, task.ID)
	assert.Equal(t, TaskControlRun, task.Type)
	assert.Equal(t, "doc-1", task.DocumentID)
	assert.Equal(t, StatusPending, task.Status)

	var got ControlRunPayload
	require.NoError(t, UnmarshalPayload(task.Payload, &got))
	assert.Equal(t, "run-1", got.RunID)
	assert.Equal(t, "documents/KYC/passport_scan.pdf", got.SourcePath)
}

func TestGetTaskNotFound(t *testing.T) {
	queue := setupQueue(t)

	_, err := queue.GetTask(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

func TestGetTasksByDocument(t *testing.T) {
	queue := setupQueue(t)
	ctx := context.Background()

	id1, err := queue.Enqueue(ctx, TaskControlRun, "doc-1", nil)
	require.NoError(t, err)
	id2, err := queue.Enqueue(ctx, TaskDocumentIndex, "doc-1", nil)
	require.NoError(t, err)
	_, err = queue.Enqueue(ctx, TaskControlRun, "doc-2", nil)
	require.NoError(t, err)

	tasks, err := queue.GetTasksByDocument(ctx, "doc-1")
	require.NoError(t, err)
	require.Len(t, tasks, 2)

	ids := []string{tasks[0].ID, tasks[1].ID}
	assert.Contains(t, ids, id1)
	assert.Contains(t, ids, id2)
}

func TestUpdateTaskStatus(t *testing.T) {
	queue := setupQueue(t)
	ctx := context.Background()

	taskID, err := queue.Enqueue(ctx, TaskControlRun, "doc-1", nil)
	require.NoError(t, err)

	require.NoError(t, queue.UpdateTaskStatus(ctx, taskID, StatusProcessing, nil, ""))

	task, err := queue.GetTask(ctx, taskID)
	require.NoError(t, err)
	assert.Equal(t, StatusProcessing, task.Status)
	require.NotNil(t, task.StartedAt)

	result := &ControlRunResult{RunID: "run-1", Passed: 2, Total: 3, ReportPath: "reports/run-1.txt"}
	require.NoError(t, queue.UpdateTaskStatus(ctx, taskID, StatusCompleted, result, ""))

	task, err = queue.GetTask(ctx, taskID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, task.Status)
	require.NotNil(t, task.CompletedAt)

	var got ControlRunResult
	require.NoError(t, UnmarshalPayload(task.Result, &got))
	assert.Equal(t, 2, got.Passed)
	assert.Equal(t, "reports/run-1.txt", got.ReportPath)
}

func TestUpdateTaskStatusFailure(t *testing.T) {
	queue := setupQueue(t)
	ctx := context.Background()

	taskID, err := queue.Enqueue(ctx, TaskControlRun, "doc-1", nil)
	require.NoError(t, err)

	require.NoError(t, queue.UpdateTaskStatus(ctx, taskID, StatusFailed, nil, "category could not be resolved"))

	task, err := queue.GetTask(ctx, taskID)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, task.Status)
	assert.Equal(t, "category could not be resolved", task.Error)
}

func TestDeleteTask(t *testing.T) {
	queue := setupQueue(t)
	ctx := context.Background()

	taskID, err := queue.Enqueue(ctx, TaskControlRun, "doc-1", nil)
	require.NoError(t, err)

	require.NoError(t, queue.DeleteTask(ctx, taskID))

	_, err = queue.GetTask(ctx, taskID)
	assert.ErrorIs(t, err, ErrTaskNotFound)

	tasks, err := queue.GetTasksByDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestWaitForTaskCompleted(t *testing.T) {
	queue := setupQueue(t)
	ctx := context.Background()

	taskID, err := queue.Enqueue(ctx, TaskControlRun, "doc-1", nil)
	require.NoError(t, err)
	require.NoError(t, queue.UpdateTaskStatus(ctx, taskID, StatusCompleted, nil, ""))

	task, err := queue.WaitForTask(ctx, taskID, 2*time.Second)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, task.Status)
}

func TestNewTaskInfo(t *testing.T) {
	now := time.Now()
	task := &Task{
		ID:         "task-1",
		Type:       TaskControlRun,
		DocumentID: "doc-1",
		Status:     StatusProcessing,
		CreatedAt:  now,
		StartedAt:  &now,
	}

	info := NewTaskInfo(task)
	assert.Equal(t, "task-1", info.ID)
	assert.Equal(t, TaskControlRun, info.Type)
	assert.Equal(t, StatusProcessing, info.Status)
	require.NotNil(t, info.StartedAt)
}

func TestNewRedisWorkerFromQueue(t *testing.T) {
	mr := miniredis.RunT(t)

	queue, err := NewRedisQueue(&Config{
		RedisAddr:   mr.Addr(),
		Concurrency: 2,
		RetryLimit:  2,
		RetryDelay:  time.Second,
	})
	require.NoError(t, err)
	t.Cleanup(func() { queue.Close() })

	worker := NewRedisWorker(queue, nil)
	require.NotNil(t, worker)

	var asQueue Queue = queue
	assert.NotNil(t, asQueue)
}

func TestNewQueueUnknownImplementation(t *testing.T) {
	_, err := NewQueue("nope", nil)
	assert.Error(t, err)
}
