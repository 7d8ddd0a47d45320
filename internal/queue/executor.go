package queue

import (
	"context"
	"time"

	"github.com/ShayCichocki/taskforge/pkg/models"
)

// Executor performs the work of one task attempt. The queue may call it
// again for the same task after a failure, never concurrently.
type Executor interface {
	Execute(ctx context.Context, task models.TaskDescriptor) (any, error)
}

// ExecutorFunc adapts a function to the Executor interface.
type ExecutorFunc func(ctx context.Context, task models.TaskDescriptor) (any, error)

// Execute calls f.
func (f ExecutorFunc) Execute(ctx context.Context, task models.TaskDescriptor) (any, error) {
	return f(ctx, task)
}

// Recorder receives queue metrics. internal/metrics provides the
// Prometheus implementation.
type Recorder interface {
	TaskEnqueued(role string)
	TaskStarted(role string)
	TaskRetried(role string)
	TaskFinished(role string, status models.TaskStatus, d time.Duration)
}
