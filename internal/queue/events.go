package queue

import (
	"sync/atomic"
	"time"

	"github.com/ShayCichocki/taskforge/internal/logging"
)

// EventType represents the type of queue event.
type EventType string

const (
	// EventTaskQueued indicates a task was enqueued.
	EventTaskQueued EventType = "task_queued"
	// EventTaskStarted indicates a task was dispatched.
	EventTaskStarted EventType = "task_started"
	// EventTaskRetry indicates a failed attempt will be retried.
	EventTaskRetry EventType = "task_retry"
	// EventTaskCompleted indicates a task completed successfully.
	EventTaskCompleted EventType = "task_completed"
	// EventTaskFailed indicates a task exhausted its retries.
	EventTaskFailed EventType = "task_failed"
	// EventTaskBlocked indicates a task can never become ready in this run.
	EventTaskBlocked EventType = "task_blocked"
	// EventRunDone indicates Run returned.
	EventRunDone EventType = "run_done"
)

// Event represents a task lifecycle event emitted by the queue.
type Event struct {
	// Type is the kind of event.
	Type EventType
	// TaskID is the ID of the related task, if applicable.
	TaskID string
	// TaskName is the name of the related task, if applicable.
	TaskName string
	// Role is the role of the related task, if applicable.
	Role string
	// Attempt is the attempt number for start, retry and finish events.
	Attempt int
	// Message provides additional context about the event.
	Message string
	// Error contains error details for failure and retry events.
	Error error
	// Duration is the task's run time for finish events.
	Duration time.Duration
	// Timestamp is when the event occurred.
	Timestamp time.Time
}

// EventEmitter delivers events to a single subscriber without blocking the
// scheduler for long.
type EventEmitter struct {
	events       chan Event
	droppedCount atomic.Uint64
}

// NewEventEmitter creates a new EventEmitter with the given buffer size.
func NewEventEmitter(bufferSize int) *EventEmitter {
	return &EventEmitter{
		events: make(chan Event, bufferSize),
	}
}

// Emit sends an event to the events channel.
// If the channel is full, it tries with a timeout before dropping the event.
func (e *EventEmitter) Emit(event Event) {
	if e == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	select {
	case e.events <- event:
		return
	default:
	}

	// Give the receiver 100ms to drain before dropping.
	timer := time.NewTimer(100 * time.Millisecond)
	defer timer.Stop()
	select {
	case e.events <- event:
	case <-timer.C:
		count := e.droppedCount.Add(1)
		if count%10 == 1 { // Log every 10th drop to avoid spam
			logging.Debugf("[queue] WARNING: event channel full, dropped event (total dropped: %d): type=%s", count, event.Type)
		}
	}
}

// DroppedCount returns the total number of events that have been dropped.
func (e *EventEmitter) DroppedCount() uint64 {
	return e.droppedCount.Load()
}

// Events returns a read-only channel of events.
func (e *EventEmitter) Events() <-chan Event {
	return e.events
}

// Close closes the events channel. Call it once no queue emits anymore.
func (e *EventEmitter) Close() {
	close(e.events)
}
