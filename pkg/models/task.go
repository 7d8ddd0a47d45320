package models

import (
	"errors"
	"fmt"
	"time"
)

// TaskStatus represents the current state of a runtime task.
type TaskStatus string

const (
	// TaskStatusPending indicates the task has not been dispatched.
	TaskStatusPending TaskStatus = "pending"
	// TaskStatusRunning indicates an attempt of the task is in flight.
	TaskStatusRunning TaskStatus = "running"
	// TaskStatusCompleted indicates the task finished successfully.
	TaskStatusCompleted TaskStatus = "completed"
	// TaskStatusFailed indicates the task exhausted its retries.
	TaskStatusFailed TaskStatus = "failed"
)

// Valid returns true if the status is a known value.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusPending, TaskStatusRunning, TaskStatusCompleted, TaskStatusFailed:
		return true
	default:
		return false
	}
}

// Terminal returns true for statuses no transition leaves.
func (s TaskStatus) Terminal() bool {
	return s == TaskStatusCompleted || s == TaskStatusFailed
}

var (
	// ErrMissingID is returned when a descriptor has no ID.
	ErrMissingID = errors.New("task descriptor has no id")
	// ErrMissingName is returned when a descriptor has no name.
	ErrMissingName = errors.New("task descriptor has no name")
	// ErrSelfDependency is returned when a descriptor lists itself as a dependency.
	ErrSelfDependency = errors.New("task descriptor depends on itself")
)

// TaskDescriptor is a statically described unit of work, usually instantiated
// from a template for a single run.
type TaskDescriptor struct {
	// ID is unique within a run.
	ID string `json:"id" yaml:"id"`
	// Name is the short human-readable title.
	Name string `json:"name" yaml:"name"`
	// Description explains what the task does.
	Description string `json:"description,omitempty" yaml:"description"`
	// Role is the abstract executor responsible for the task.
	Role string `json:"role" yaml:"role"`
	// Workflow is the workflow the role runs for this task.
	Workflow string `json:"workflow,omitempty" yaml:"workflow"`
	// Priority orders ready tasks; lower numbers run first.
	Priority int `json:"priority" yaml:"priority"`
	// EstimatedTime is the raw duration string from the template (e.g. "30min").
	EstimatedTime string `json:"estimated_time,omitempty" yaml:"estimated_time"`
	// EstimatedMinutes is EstimatedTime parsed to minutes.
	EstimatedMinutes int `json:"estimated_minutes" yaml:"-"`
	// Dependencies lists IDs of tasks that must complete first.
	Dependencies []string `json:"dependencies,omitempty" yaml:"dependencies"`
}

// Validate checks the required fields of a descriptor. It requires an ID, so
// callers that generate IDs must do so before validating.
func (d TaskDescriptor) Validate() error {
	if d.ID == "" {
		return ErrMissingID
	}
	if d.Name == "" {
		return fmt.Errorf("%w: %s", ErrMissingName, d.ID)
	}
	for _, dep := range d.Dependencies {
		if dep == d.ID {
			return fmt.Errorf("%w: %s", ErrSelfDependency, d.ID)
		}
	}
	return nil
}

// Clone returns a deep copy of the descriptor.
func (d TaskDescriptor) Clone() TaskDescriptor {
	c := d
	if d.Dependencies != nil {
		c.Dependencies = append([]string(nil), d.Dependencies...)
	}
	return c
}

// RuntimeTask wraps a descriptor with mutable execution state.
// It is owned by a single queue for its lifetime.
type RuntimeTask struct {
	TaskDescriptor
	// Status is the current lifecycle state.
	Status TaskStatus `json:"status"`
	// Result is whatever the executor returned on success.
	Result any `json:"result,omitempty"`
	// Error holds the last failure message.
	Error string `json:"error,omitempty"`
	// Attempts counts executor invocations so far.
	Attempts int `json:"attempts"`
	// BlockedReason explains why a pending task can never become ready.
	BlockedReason string `json:"blocked_reason,omitempty"`
	// CreatedAt is when the task was enqueued.
	CreatedAt time.Time `json:"created_at"`
	// StartedAt is when the first attempt was dispatched.
	StartedAt *time.Time `json:"started_at,omitempty"`
	// CompletedAt is when the task reached a terminal state.
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Duration returns the wall time between dispatch and completion,
// or zero if the task has not finished.
func (t *RuntimeTask) Duration() time.Duration {
	if t.StartedAt == nil || t.CompletedAt == nil {
		return 0
	}
	return t.CompletedAt.Sub(*t.StartedAt)
}
