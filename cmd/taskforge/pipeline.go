package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"

	"github.com/ShayCichocki/taskforge/internal/catalog"
	"github.com/ShayCichocki/taskforge/internal/config"
	"github.com/ShayCichocki/taskforge/internal/decompose"
	"github.com/ShayCichocki/taskforge/internal/intent"
	"github.com/ShayCichocki/taskforge/internal/logging"
	"github.com/ShayCichocki/taskforge/internal/metrics"
	"github.com/ShayCichocki/taskforge/internal/queue"
	"github.com/ShayCichocki/taskforge/internal/report"
	"github.com/ShayCichocki/taskforge/internal/state"
)

// pipeline carries everything one goal run needs.
type pipeline struct {
	cfg     *config.Config
	catalog *catalog.Catalog
	exec    queue.Executor
	logger  *logging.DebugLogger
	metrics *metrics.Metrics
	// store may be nil to skip run history.
	store state.RunStore
	// out receives progress lines.
	out io.Writer
}

// pipelineResult is what a goal run produced.
type pipelineResult struct {
	RunID      string
	Analysis   intent.Analysis
	Plan       *decompose.Result
	Summary    *queue.RunSummary
	Logs       []queue.LogEntry
	ReportPath string
	// Concurrency is the bound the queue actually ran with.
	Concurrency int
}

// errTasksFailed is returned when a run ends with tasks not completed.
var errTasksFailed = errors.New("not all tasks completed")

// run classifies goal, decomposes it, executes the subtasks and records
// the outcome. A cancelled ctx still produces a result and report.
func (p *pipeline) run(ctx context.Context, goal string) (*pipelineResult, error) {
	res := &pipelineResult{RunID: "run-" + uuid.NewString()}

	res.Analysis = intent.New(p.catalog).Analyze(goal)
	in := res.Analysis.Primary
	fmt.Fprintf(p.out, "Goal type: %s (confidence %.2f)\n", in.Name, in.Confidence)
	for _, s := range res.Analysis.Suggestions {
		printAdvice(p.out, s.Level, s.Message)
	}

	res.Plan = decompose.New(p.catalog).Decompose(goal, in)
	if p.metrics != nil {
		p.metrics.DecompositionRecorded(res.Plan.Category, string(res.Plan.Complexity.Level), len(res.Plan.Subtasks))
	}
	printPlan(p.out, res.Plan)

	started := time.Now()
	run := &state.Run{
		ID:           res.RunID,
		Goal:         goal,
		Intent:       in.ID,
		Category:     res.Plan.Category,
		Confidence:   in.Confidence,
		Complexity:   string(res.Plan.Complexity.Level),
		TotalMinutes: res.Plan.TotalMinutes,
		Status:       state.RunRunning,
		StartedAt:    started,
	}
	if p.store != nil {
		if n, err := p.store.MarkInterrupted(); err != nil {
			p.logger.Log("[run] mark interrupted runs: %v", err)
		} else if n > 0 {
			p.logger.Log("[run] marked %d earlier run(s) interrupted", n)
		}
		if err := p.store.RecordRun(run, nil); err != nil {
			return nil, fmt.Errorf("record run start: %w", err)
		}
	}

	events := queue.NewEventEmitter(64)
	opts := []queue.Option{
		queue.WithConcurrency(p.cfg.Queue.Concurrency),
		queue.WithMaxRetries(p.cfg.Queue.MaxRetries),
		queue.WithBaseDelay(p.cfg.Queue.BaseDelay),
		queue.WithPollInterval(p.cfg.Queue.PollInterval),
		queue.WithLogger(p.logger),
		queue.WithEvents(events),
	}
	if p.metrics != nil {
		opts = append(opts, queue.WithMetrics(p.metrics))
	}
	q := queue.New(opts...)
	res.Concurrency = q.Concurrency()

	fmt.Fprintf(p.out, "\nRunning %d task(s) (concurrency %d, max retries %d)\n",
		len(res.Plan.Subtasks), q.Concurrency(), q.MaxRetries())
	progressDone := make(chan struct{})
	go func() {
		defer close(progressDone)
		for ev := range events.Events() {
			printEvent(p.out, ev)
		}
	}()

	for _, task := range res.Plan.Subtasks {
		if _, err := q.Enqueue(task, p.exec); err != nil {
			events.Close()
			<-progressDone
			return nil, fmt.Errorf("enqueue %s: %w", task.ID, err)
		}
	}

	summary, runErr := q.Run(ctx)
	events.Close()
	<-progressDone
	if n := events.DroppedCount(); n > 0 {
		p.logger.Log("[run] progress output skipped %d event(s)", n)
	}

	res.Summary = summary
	res.Logs = q.Logs()

	if p.cfg.Report.Enabled {
		content := report.Markdown(report.Input{
			Goal:    goal,
			Intent:  in,
			Plan:    res.Plan,
			Summary: summary,
			Logs:    res.Logs,
		})
		path, err := report.WriteFile(p.cfg.Report.Dir, content, time.Now())
		if err != nil {
			p.logger.Log("[run] write report: %v", err)
			fmt.Fprintf(p.out, "%s could not write report: %v\n", color.YellowString("⚠"), err)
		} else {
			res.ReportPath = path
		}
	}

	if p.store != nil {
		finished := summary.FinishedAt
		run.FinishedAt = &finished
		run.Status = summaryRunStatus(summary)
		run.ReportPath = res.ReportPath
		if err := p.store.RecordRun(run, runTasks(res.RunID, summary)); err != nil {
			p.logger.Log("[run] record run: %v", err)
			return res, fmt.Errorf("record run: %w", err)
		}
	}

	if runErr != nil {
		return res, runErr
	}
	if !summary.Succeeded() {
		return res, fmt.Errorf("%w: %d failed, %d not run", errTasksFailed, summary.Failed, summary.Pending)
	}
	return res, nil
}

func summaryRunStatus(s *queue.RunSummary) state.RunStatus {
	switch {
	case s.Cancelled:
		return state.RunCancelled
	case s.Succeeded():
		return state.RunCompleted
	default:
		return state.RunFailed
	}
}

func runTasks(runID string, s *queue.RunSummary) []state.RunTask {
	tasks := make([]state.RunTask, 0, len(s.Tasks))
	for _, t := range s.Tasks {
		tasks = append(tasks, state.RunTask{
			RunID:         runID,
			TaskID:        t.ID,
			Name:          t.Name,
			Role:          t.Role,
			Workflow:      t.Workflow,
			Status:        string(t.Status),
			Attempts:      t.Attempts,
			Error:         t.Error,
			BlockedReason: t.BlockedReason,
			StartedAt:     t.StartedAt,
			CompletedAt:   t.CompletedAt,
		})
	}
	return tasks
}
