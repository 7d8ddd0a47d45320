// Package report renders run summaries for files and terminals.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ShayCichocki/taskforge/internal/decompose"
	"github.com/ShayCichocki/taskforge/internal/queue"
	"github.com/ShayCichocki/taskforge/pkg/models"
)

// Input is everything a report is rendered from.
type Input struct {
	Goal   string
	Intent models.Intent
	// Plan may be nil when the run was not produced by a decomposition.
	Plan        *decompose.Result
	Summary     *queue.RunSummary
	Logs        []queue.LogEntry
	GeneratedAt time.Time
}

var statusIcon = map[models.TaskStatus]string{
	models.TaskStatusPending:   "⏳",
	models.TaskStatusRunning:   "🔄",
	models.TaskStatusCompleted: "✅",
	models.TaskStatusFailed:    "❌",
}

// Markdown renders the automation report: goal, plan, per-task results,
// totals and the execution log.
func Markdown(in Input) string {
	var b strings.Builder

	b.WriteString("# Automation Report\n\n")

	b.WriteString("## Goal\n")
	fmt.Fprintf(&b, "- **Type**: %s\n", in.Intent.Name)
	fmt.Fprintf(&b, "- **Description**: %s\n", in.Goal)
	fmt.Fprintf(&b, "- **Confidence**: %.2f\n", in.Intent.Confidence)
	if in.Plan != nil {
		c := in.Plan.Complexity
		fmt.Fprintf(&b, "- **Template**: %s\n", in.Plan.Template)
		fmt.Fprintf(&b, "- **Complexity**: %s (score %.2f, %d subtasks, %d dependencies, depth %d)\n",
			c.Level, c.Score, c.SubtaskCount, c.DependencyCount, c.MaxDependencyDepth)
		fmt.Fprintf(&b, "- **Estimated time**: %s\n", in.Plan.TotalEstimatedTime)
	}
	b.WriteString("\n")

	if in.Plan != nil && len(in.Plan.ExecutionPlan) > 0 {
		b.WriteString("## Execution Plan\n\n")
		for _, step := range in.Plan.ExecutionPlan {
			fmt.Fprintf(&b, "%d. %s (%s, %s)", step.Step, step.Name, step.Role, step.EstimatedTime)
			if step.Forced {
				b.WriteString(" [cycle broken]")
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")

		if len(in.Plan.Recommendations) > 0 {
			b.WriteString("## Recommendations\n\n")
			for _, r := range in.Plan.Recommendations {
				fmt.Fprintf(&b, "- **%s**: %s\n", r.Level, r.Message)
			}
			b.WriteString("\n")
		}
	}

	if in.Summary != nil {
		b.WriteString("## Results\n\n")
		b.WriteString("| Task | Role | Workflow | Status | Started | Duration | Error |\n")
		b.WriteString("|------|------|----------|--------|---------|----------|-------|\n")
		for _, t := range in.Summary.Tasks {
			fmt.Fprintf(&b, "| %s | %s | %s | %s %s | %s | %s | %s |\n",
				cell(t.Name), orDash(t.Role), orDash(t.Workflow),
				statusIcon[t.Status], t.Status,
				formatTime(t.StartedAt), formatDuration(t),
				cell(taskError(t)))
		}
		b.WriteString("\n")

		s := in.Summary
		b.WriteString("## Summary\n")
		fmt.Fprintf(&b, "- Total tasks: %d\n", s.Total)
		fmt.Fprintf(&b, "- Completed: %d\n", s.Completed)
		fmt.Fprintf(&b, "- Failed: %d\n", s.Failed)
		fmt.Fprintf(&b, "- Not run: %d\n", s.Pending)
		fmt.Fprintf(&b, "- Success rate: %.0f%%\n", s.SuccessRate()*100)
		fmt.Fprintf(&b, "- Duration: %s\n", s.Duration.Round(time.Millisecond))
		if s.Cancelled {
			b.WriteString("- Run was stopped before all tasks were dispatched\n")
		}
		b.WriteString("\n")
	}

	if len(in.Logs) > 0 {
		b.WriteString("## Execution Log\n\n")
		for _, e := range in.Logs {
			fmt.Fprintf(&b, "- [%s] %s: %s\n", e.Time.Format(time.RFC3339), e.Level, e.Message)
		}
		b.WriteString("\n")
	}

	b.WriteString("---\n")
	fmt.Fprintf(&b, "Generated at: %s\n", generatedAt(in).Format(time.RFC3339))
	return b.String()
}

// Text renders the plain queue report.
func Text(s *queue.RunSummary, concurrency int, logs []queue.LogEntry) string {
	var b strings.Builder

	b.WriteString("Task Queue Report\n")
	b.WriteString("=================\n\n")
	fmt.Fprintf(&b, "Total tasks: %d\n", s.Total)
	fmt.Fprintf(&b, "Completed: %d\n", s.Completed)
	fmt.Fprintf(&b, "Failed: %d\n", s.Failed)
	fmt.Fprintf(&b, "Concurrency: %d\n\n", concurrency)

	b.WriteString("Tasks:\n")
	b.WriteString("------\n")
	for _, t := range s.Tasks {
		fmt.Fprintf(&b, "\n%s %s\n", statusIcon[t.Status], t.Name)
		fmt.Fprintf(&b, "  ID: %s\n", t.ID)
		fmt.Fprintf(&b, "  Status: %s\n", t.Status)
		fmt.Fprintf(&b, "  Priority: %d\n", t.Priority)
		fmt.Fprintf(&b, "  Role: %s\n", t.Role)
		fmt.Fprintf(&b, "  Workflow: %s\n", orDash(t.Workflow))
		fmt.Fprintf(&b, "  Attempts: %d\n", t.Attempts)
		fmt.Fprintf(&b, "  Duration: %dms\n", t.Duration.Milliseconds())
		if msg := taskError(t); msg != "" {
			fmt.Fprintf(&b, "  Error: %s\n", msg)
		}
	}

	b.WriteString("\nExecution log:\n")
	b.WriteString("--------------\n")
	b.WriteString(queue.ExportLogs(logs))
	return b.String()
}

// WriteFile writes content to dir/automation-report-<unix-ms>.md and
// returns the path.
func WriteFile(dir, content string, now time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create report directory: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("automation-report-%d.md", now.UnixMilli()))
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return path, nil
}

func generatedAt(in Input) time.Time {
	if in.GeneratedAt.IsZero() {
		return time.Now()
	}
	return in.GeneratedAt
}

// taskError is the failure text, or the blocked reason for a task that
// never ran.
func taskError(t queue.TaskSummary) string {
	if t.Error != "" && t.Status == models.TaskStatusFailed {
		return t.Error
	}
	if t.BlockedReason != "" {
		return "not run: " + t.BlockedReason
	}
	return ""
}

func formatTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format(time.RFC3339)
}

func formatDuration(t queue.TaskSummary) string {
	if !t.Status.Terminal() {
		return "-"
	}
	return t.Duration.Round(time.Millisecond).String()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// cell escapes a value for a markdown table cell.
func cell(s string) string {
	if s == "" {
		return "-"
	}
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}
