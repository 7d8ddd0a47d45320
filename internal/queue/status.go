package queue

import (
	"time"

	"github.com/ShayCichocki/taskforge/pkg/models"
)

// TaskSummary is a read-only view of one runtime task.
type TaskSummary struct {
	ID            string            `json:"id"`
	Name          string            `json:"name"`
	Role          string            `json:"role"`
	Workflow      string            `json:"workflow,omitempty"`
	Priority      int               `json:"priority"`
	Dependencies  []string          `json:"dependencies,omitempty"`
	Status        models.TaskStatus `json:"status"`
	Attempts      int               `json:"attempts"`
	Error         string            `json:"error,omitempty"`
	BlockedReason string            `json:"blocked_reason,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
	StartedAt     *time.Time        `json:"started_at,omitempty"`
	CompletedAt   *time.Time        `json:"completed_at,omitempty"`
	Duration      time.Duration     `json:"duration"`
}

func summarize(t *models.RuntimeTask) TaskSummary {
	s := TaskSummary{
		ID:            t.ID,
		Name:          t.Name,
		Role:          t.Role,
		Workflow:      t.Workflow,
		Priority:      t.Priority,
		Dependencies:  append([]string(nil), t.Dependencies...),
		Status:        t.Status,
		Attempts:      t.Attempts,
		Error:         t.Error,
		BlockedReason: t.BlockedReason,
		CreatedAt:     t.CreatedAt,
		Duration:      t.Duration(),
	}
	if t.StartedAt != nil {
		v := *t.StartedAt
		s.StartedAt = &v
	}
	if t.CompletedAt != nil {
		v := *t.CompletedAt
		s.CompletedAt = &v
	}
	return s
}

// QueueStatus is a snapshot of queue counts and tasks in enqueue order.
type QueueStatus struct {
	Total     int           `json:"total"`
	Pending   int           `json:"pending"`
	Running   int           `json:"running"`
	Completed int           `json:"completed"`
	Failed    int           `json:"failed"`
	Active    bool          `json:"active"`
	Tasks     []TaskSummary `json:"tasks"`
}

// RunSummary is the result of one Run.
type RunSummary struct {
	QueueStatus
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	Duration   time.Duration `json:"duration"`
	// Stalled lists tasks left pending, each with a BlockedReason.
	Stalled []string `json:"stalled,omitempty"`
	// Cancelled is true when the context ended the run early.
	Cancelled bool `json:"cancelled,omitempty"`
}

// Succeeded reports whether every task completed.
func (s *RunSummary) Succeeded() bool {
	return s.Completed == s.Total
}

// SuccessRate returns completed / total, or 0 for an empty run.
func (s *RunSummary) SuccessRate() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Completed) / float64(s.Total)
}
