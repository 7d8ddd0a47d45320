package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/ShayCichocki/taskforge/internal/queue"
	"github.com/ShayCichocki/taskforge/pkg/models"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(lipgloss.Color("238"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Width(12)

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			Bold(true)

	columnStyle = lipgloss.NewStyle().PaddingRight(2)

	statusStyles = map[models.TaskStatus]lipgloss.Style{
		models.TaskStatusPending:   lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		models.TaskStatusRunning:   lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		models.TaskStatusCompleted: lipgloss.NewStyle().Foreground(lipgloss.Color("34")),
		models.TaskStatusFailed:    lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
	}
)

// Console writes a styled summary table of s to w.
func Console(w io.Writer, s *queue.RunSummary) error {
	var b strings.Builder

	b.WriteString(headerStyle.Render("Run Summary"))
	b.WriteString("\n")

	rows := [][]string{{"TASK", "ROLE", "STATUS", "ATTEMPTS", "DURATION", "NOTE"}}
	for _, t := range s.Tasks {
		rows = append(rows, []string{
			t.Name,
			orDash(t.Role),
			string(t.Status),
			fmt.Sprintf("%d", t.Attempts),
			formatDuration(t),
			truncate(taskError(t), 48),
		})
	}
	b.WriteString(table(rows, s.Tasks))
	b.WriteString("\n")

	stat := func(label, value string) {
		b.WriteString(labelStyle.Render(label))
		b.WriteString(valueStyle.Render(value))
		b.WriteString("\n")
	}
	stat("Completed", fmt.Sprintf("%d/%d", s.Completed, s.Total))
	stat("Failed", fmt.Sprintf("%d", s.Failed))
	stat("Not run", fmt.Sprintf("%d", s.Pending))
	stat("Duration", s.Duration.Round(time.Millisecond).String())

	_, err := io.WriteString(w, b.String())
	return err
}

// table lays out rows in padded columns. The status column of each task row
// is colored by status.
func table(rows [][]string, tasks []queue.TaskSummary) string {
	widths := make([]int, len(rows[0]))
	for _, row := range rows {
		for i, c := range row {
			if w := lipgloss.Width(c); w > widths[i] {
				widths[i] = w
			}
		}
	}

	var b strings.Builder
	for r, row := range rows {
		cells := make([]string, len(row))
		for i, c := range row {
			style := columnStyle.Width(widths[i] + 2)
			if r == 0 {
				style = style.Bold(true)
			} else if i == 2 {
				style = style.Inherit(statusStyles[tasks[r-1].Status])
			}
			cells[i] = style.Render(c)
		}
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, cells...))
		b.WriteString("\n")
	}
	return b.String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
