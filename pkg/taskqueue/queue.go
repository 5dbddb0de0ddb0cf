package taskqueue

import (
	"context"
	"time"
)

// Queue enqueues background tasks and tracks their state.
type Queue interface {
	// Enqueue adds a task to the queue.
	Enqueue(ctx context.Context, taskType TaskType, documentID string, payload interface{}) (string, error)

	// EnqueueAt adds a task scheduled for a specific time.
	EnqueueAt(ctx context.Context, taskType TaskType, documentID string, payload interface{}, processAt time.Time) (string, error)

	// EnqueueIn adds a task scheduled after a delay.
	EnqueueIn(ctx context.Context, taskType TaskType, documentID string, payload interface{}, delay time.Duration) (string, error)

	// GetTask returns a task by ID.
	GetTask(ctx context.Context, taskID string) (*Task, error)

	// GetTasksByDocument returns all tasks for a document.
	GetTasksByDocument(ctx context.Context, documentID string) ([]*Task, error)

	// WaitForTask blocks until the task completes or the timeout
	// elapses. A zero timeout waits indefinitely.
	WaitForTask(ctx context.Context, taskID string, timeout time.Duration) (*Task, error)

	// DeleteTask removes a task.
	DeleteTask(ctx context.Context, taskID string) error

	// UpdateTaskStatus updates a task's status and result.
	UpdateTaskStatus(ctx context.Context, taskID string, status TaskStatus, result interface{}, errorMsg string) error

	// NotifyTaskUpdate publishes a task state change.
	NotifyTaskUpdate(ctx context.Context, taskID string) error

	// Close closes the queue connection.
	Close() error
}

// Handler processes tasks of specific types.
type Handler interface {
	// ProcessTask executes a task.
	ProcessTask(ctx context.Context, task *Task) error

	// GetTaskTypes returns the task types this handler supports.
	GetTaskTypes() []TaskType
}

// Worker runs handlers against the queue.
type Worker interface {
	// RegisterHandler registers a handler for a task type.
	RegisterHandler(taskType TaskType, handler Handler)

	// Start begins processing tasks.
	Start() error

	// Stop shuts the worker down.
	Stop()
}

// Config holds queue settings.
type Config struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	Concurrency   int
	RetryLimit    int
	RetryDelay    time.Duration
	Queues        map[string]int
}

// DefaultConfig returns the default queue configuration.
func DefaultConfig() *Config {
	return &Config{
		RedisAddr:   "localhost:6379",
		RedisDB:     0,
		Concurrency: 4,
		RetryLimit:  3,
		RetryDelay:  time.Minute,
		Queues: map[string]int{
			"critical": 6,
			"default":  3,
			"low":      1,
		},
	}
}

// Factory creates a Queue from a configuration.
type Factory func(cfg *Config) (Queue, error)
