// Package queue runs task descriptors under a concurrency bound, in
// dependency order, retrying failed attempts with linear backoff.
package queue

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/ShayCichocki/taskforge/internal/graph"
	"github.com/ShayCichocki/taskforge/pkg/models"
)

var (
	// ErrQueueRunning is returned by Enqueue, Clear and Run while Run is active.
	ErrQueueRunning = errors.New("queue is running")
	// ErrDuplicateTask is returned when a task ID is already enqueued.
	ErrDuplicateTask = errors.New("task already enqueued")
	// ErrNilExecutor is returned when Enqueue is given no executor.
	ErrNilExecutor = errors.New("executor is nil")
)

// Blocked reason prefixes set on tasks left pending after a run.
const (
	ReasonDependencyFailed  = "dependency_failed"
	ReasonDependencyBlocked = "dependency_blocked"
	ReasonUnknownDependency = "unknown_dependency"
	ReasonDependencyCycle   = "dependency_cycle"
	ReasonCancelled         = "cancelled"
)

// entry pairs a runtime task with its executor and enqueue sequence.
type entry struct {
	task *models.RuntimeTask
	exec Executor
	seq  int
}

// Queue holds runtime tasks and runs them.
//
// A task is ready when it is pending and every dependency is a completed
// task in the queue. Ready tasks are dispatched lowest priority number
// first, ties in enqueue order. A task whose dependency failed is not
// failed in turn: it stays pending with a BlockedReason and is listed in
// RunSummary.Stalled.
type Queue struct {
	opts queueOptions

	// mu guards tasks, order, nextSeq and running. The scheduler loop and
	// Enqueue are the only writers of the task set; workers only update
	// their own task's state.
	mu      sync.Mutex
	tasks   map[string]*entry
	order   []string
	nextSeq int
	running bool

	journal journal
}

// New creates an empty queue.
func New(opts ...Option) *Queue {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Queue{
		opts:  o,
		tasks: make(map[string]*entry),
	}
}

// Concurrency returns the configured concurrency bound.
func (q *Queue) Concurrency() int { return q.opts.concurrency }

// MaxRetries returns the configured retry bound.
func (q *Queue) MaxRetries() int { return q.opts.maxRetries }

// Enqueue adds a pending task and returns its ID. The descriptor's ID is
// used when set, otherwise one is generated. Enqueue fails with
// ErrQueueRunning while Run is active.
func (q *Queue) Enqueue(desc models.TaskDescriptor, exec Executor) (string, error) {
	if exec == nil {
		return "", ErrNilExecutor
	}

	d := desc.Clone()
	if d.ID == "" {
		d.ID = "task-" + uuid.NewString()
	}
	if err := d.Validate(); err != nil {
		return "", fmt.Errorf("enqueue: %w", err)
	}

	q.mu.Lock()
	if q.running {
		q.mu.Unlock()
		return "", ErrQueueRunning
	}
	if _, exists := q.tasks[d.ID]; exists {
		q.mu.Unlock()
		return "", fmt.Errorf("%w: %s", ErrDuplicateTask, d.ID)
	}
	q.tasks[d.ID] = &entry{
		task: &models.RuntimeTask{
			TaskDescriptor: d,
			Status:         models.TaskStatusPending,
			CreatedAt:      time.Now(),
		},
		exec: exec,
		seq:  q.nextSeq,
	}
	q.nextSeq++
	q.order = append(q.order, d.ID)
	q.mu.Unlock()

	q.logf(LevelInfo, "Task enqueued: %s (%s)", d.Name, d.ID)
	q.opts.events.Emit(Event{Type: EventTaskQueued, TaskID: d.ID, TaskName: d.Name, Role: d.Role})
	if q.opts.metrics != nil {
		q.opts.metrics.TaskEnqueued(d.Role)
	}
	return d.ID, nil
}

// Run dispatches pending tasks until nothing is running and nothing is
// ready. Cancelling ctx stops further dispatch and retries; attempts in
// flight receive the same ctx and Run waits for them before returning the
// summary together with ctx.Err().
func (q *Queue) Run(ctx context.Context) (*RunSummary, error) {
	q.mu.Lock()
	if q.running {
		q.mu.Unlock()
		return nil, ErrQueueRunning
	}
	q.running = true
	g := q.buildGraphLocked()
	pending := 0
	for _, e := range q.tasks {
		if e.task.Status == models.TaskStatusPending {
			e.task.BlockedReason = ""
			pending++
		}
	}
	q.mu.Unlock()

	start := time.Now()
	q.logf(LevelInfo, "Run started: %d pending task(s), concurrency %d", pending, q.opts.concurrency)
	missing := g.Missing()
	for _, id := range g.Nodes() {
		if deps, ok := missing[id]; ok {
			q.logf(LevelWarning, "Task %s depends on unknown task(s): %s", id, strings.Join(deps, ", "))
		}
	}

	sem := semaphore.NewWeighted(int64(q.opts.concurrency))
	done := make(chan string, pending)
	ticker := time.NewTicker(q.opts.pollInterval)
	defer ticker.Stop()

	inflight := 0
	var wg sync.WaitGroup

	for {
		if ctx.Err() == nil {
			for _, e := range q.ready(g) {
				if !sem.TryAcquire(1) {
					break
				}
				q.dispatch(ctx, e, sem, done, &wg)
				inflight++
			}
		}

		if inflight == 0 {
			break
		}

		if ctx.Err() != nil {
			<-done
			inflight--
			continue
		}

		select {
		case <-done:
			inflight--
		case <-ticker.C:
		case <-ctx.Done():
		}
	}
	wg.Wait()

	stalled := q.markBlocked(g, ctx.Err() != nil)

	q.mu.Lock()
	q.running = false
	summary := &RunSummary{
		QueueStatus: q.statusLocked(),
		StartedAt:   start,
		FinishedAt:  time.Now(),
		Stalled:     stalled,
		Cancelled:   ctx.Err() != nil,
	}
	q.mu.Unlock()
	summary.Duration = summary.FinishedAt.Sub(start)

	q.logf(LevelInfo, "Run finished in %s: %d completed, %d failed, %d stalled",
		summary.Duration.Round(time.Millisecond), summary.Completed, summary.Failed, len(stalled))
	q.opts.events.Emit(Event{
		Type:     EventRunDone,
		Message:  fmt.Sprintf("%d/%d completed", summary.Completed, summary.Total),
		Duration: summary.Duration,
	})

	return summary, ctx.Err()
}

// buildGraphLocked builds the dependency graph of every queued task.
func (q *Queue) buildGraphLocked() *graph.DependencyGraph {
	descs := make([]models.TaskDescriptor, 0, len(q.order))
	for _, id := range q.order {
		descs = append(descs, q.tasks[id].task.TaskDescriptor)
	}
	g := graph.New()
	g.SetDebugLog(q.opts.logger.Log)
	g.Build(descs)
	return g
}

// ready returns pending tasks whose dependencies are all completed,
// ordered by priority then enqueue order.
func (q *Queue) ready(g *graph.DependencyGraph) []*entry {
	q.mu.Lock()
	defer q.mu.Unlock()

	var out []*entry
	for _, id := range q.order {
		e := q.tasks[id]
		if e.task.Status != models.TaskStatusPending {
			continue
		}
		if q.depsCompletedLocked(g.GetDependencies(id)) {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].task.Priority != out[j].task.Priority {
			return out[i].task.Priority < out[j].task.Priority
		}
		return out[i].seq < out[j].seq
	})
	return out
}

func (q *Queue) depsCompletedLocked(deps []string) bool {
	for _, dep := range deps {
		d, ok := q.tasks[dep]
		if !ok || d.task.Status != models.TaskStatusCompleted {
			return false
		}
	}
	return true
}

// dispatch marks e running and starts its attempts in a goroutine that
// holds one semaphore slot until the task is terminal.
func (q *Queue) dispatch(ctx context.Context, e *entry, sem *semaphore.Weighted, done chan<- string, wg *sync.WaitGroup) {
	now := time.Now()
	q.mu.Lock()
	e.task.Status = models.TaskStatusRunning
	e.task.StartedAt = &now
	desc := e.task.TaskDescriptor.Clone()
	q.mu.Unlock()

	q.logf(LevelInfo, "Starting task: %s (%s)", desc.Name, desc.ID)
	q.opts.events.Emit(Event{Type: EventTaskStarted, TaskID: desc.ID, TaskName: desc.Name, Role: desc.Role, Attempt: 1})
	if q.opts.metrics != nil {
		q.opts.metrics.TaskStarted(desc.Role)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		q.runAttempts(ctx, e, desc)
		sem.Release(1)
		done <- desc.ID
	}()
}

// runAttempts executes the task up to maxRetries+1 times and records the
// terminal state.
func (q *Queue) runAttempts(ctx context.Context, e *entry, desc models.TaskDescriptor) {
	for attempt := 1; ; attempt++ {
		q.mu.Lock()
		e.task.Attempts = attempt
		q.mu.Unlock()

		result, err := execute(ctx, e.exec, desc)
		if err == nil {
			q.finish(e, models.TaskStatusCompleted, result, nil)
			return
		}

		if attempt > q.opts.maxRetries {
			q.finish(e, models.TaskStatusFailed, nil, err)
			return
		}

		q.mu.Lock()
		e.task.Error = err.Error()
		q.mu.Unlock()

		q.logf(LevelWarning, "Task %s failed, retrying (%d/%d): %v", desc.Name, attempt, q.opts.maxRetries, err)
		q.opts.events.Emit(Event{Type: EventTaskRetry, TaskID: desc.ID, TaskName: desc.Name, Role: desc.Role, Attempt: attempt, Error: err})
		if q.opts.metrics != nil {
			q.opts.metrics.TaskRetried(desc.Role)
		}

		if !sleep(ctx, time.Duration(attempt)*q.opts.baseDelay) {
			q.finish(e, models.TaskStatusFailed, nil, fmt.Errorf("retry cancelled: %w (last error: %v)", ctx.Err(), err))
			return
		}
	}
}

// execute runs one attempt, turning a panic into an error.
func execute(ctx context.Context, exec Executor, desc models.TaskDescriptor) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("executor panic: %v", r)
		}
	}()
	return exec.Execute(ctx, desc)
}

// sleep waits for d or until ctx is done. It reports whether d elapsed.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}

func (q *Queue) finish(e *entry, status models.TaskStatus, result any, err error) {
	now := time.Now()
	q.mu.Lock()
	e.task.Status = status
	e.task.CompletedAt = &now
	if status == models.TaskStatusCompleted {
		e.task.Result = result
		e.task.Error = ""
	} else if err != nil {
		e.task.Error = err.Error()
	}
	name, id, role, attempts := e.task.Name, e.task.ID, e.task.Role, e.task.Attempts
	dur := e.task.Duration()
	q.mu.Unlock()

	if status == models.TaskStatusCompleted {
		q.logf(LevelSuccess, "Task completed: %s (%s)", name, dur.Round(time.Millisecond))
		q.opts.events.Emit(Event{Type: EventTaskCompleted, TaskID: id, TaskName: name, Role: role, Attempt: attempts, Duration: dur})
	} else {
		q.logf(LevelError, "Task failed: %s after %d attempt(s): %v", name, attempts, err)
		q.opts.events.Emit(Event{Type: EventTaskFailed, TaskID: id, TaskName: name, Role: role, Attempt: attempts, Error: err, Duration: dur})
	}
	if q.opts.metrics != nil {
		q.opts.metrics.TaskFinished(role, status, dur)
	}
}

// markBlocked sets BlockedReason on every task left pending and returns
// their IDs in enqueue order. Reasons are resolved to a fixpoint so a task
// behind a blocked task points at that task.
func (q *Queue) markBlocked(g *graph.DependencyGraph, cancelled bool) []string {
	q.mu.Lock()

	var pending []*models.RuntimeTask
	for _, id := range q.order {
		if t := q.tasks[id].task; t.Status == models.TaskStatusPending {
			pending = append(pending, t)
		}
	}

	reasons := make(map[string]string, len(pending))
	for _, t := range pending {
		for _, dep := range g.GetDependencies(t.ID) {
			d, ok := q.tasks[dep]
			if !ok {
				reasons[t.ID] = ReasonUnknownDependency + ":" + dep
				break
			}
			if d.task.Status == models.TaskStatusFailed {
				reasons[t.ID] = ReasonDependencyFailed + ":" + dep
				break
			}
		}
	}
	for changed := true; changed; {
		changed = false
		for _, t := range pending {
			if reasons[t.ID] != "" {
				continue
			}
			for _, dep := range g.GetDependencies(t.ID) {
				if reasons[dep] != "" {
					reasons[t.ID] = ReasonDependencyBlocked + ":" + dep
					changed = true
					break
				}
			}
		}
	}

	stalled := make([]string, 0, len(pending))
	for _, t := range pending {
		reason := reasons[t.ID]
		if reason == "" {
			if cancelled {
				reason = ReasonCancelled
			} else {
				reason = ReasonDependencyCycle
			}
		}
		t.BlockedReason = reason
		stalled = append(stalled, t.ID)
	}
	blocked := make([]*models.RuntimeTask, len(pending))
	for i, t := range pending {
		c := *t
		blocked[i] = &c
	}
	q.mu.Unlock()

	for _, t := range blocked {
		q.logf(LevelWarning, "Task blocked: %s (%s)", t.Name, t.BlockedReason)
		q.opts.events.Emit(Event{Type: EventTaskBlocked, TaskID: t.ID, TaskName: t.Name, Role: t.Role, Message: t.BlockedReason})
	}
	return stalled
}

// Status returns a snapshot of the queue. It does not modify state.
func (q *Queue) Status() QueueStatus {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.statusLocked()
}

func (q *Queue) statusLocked() QueueStatus {
	s := QueueStatus{
		Total:  len(q.order),
		Active: q.running,
		Tasks:  make([]TaskSummary, 0, len(q.order)),
	}
	for _, id := range q.order {
		t := q.tasks[id].task
		switch t.Status {
		case models.TaskStatusPending:
			s.Pending++
		case models.TaskStatusRunning:
			s.Running++
		case models.TaskStatusCompleted:
			s.Completed++
		case models.TaskStatusFailed:
			s.Failed++
		}
		s.Tasks = append(s.Tasks, summarize(t))
	}
	return s
}

// Task returns a copy of the runtime task with the given ID.
func (q *Queue) Task(id string) (models.RuntimeTask, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	e, ok := q.tasks[id]
	if !ok {
		return models.RuntimeTask{}, false
	}
	c := *e.task
	c.TaskDescriptor = e.task.TaskDescriptor.Clone()
	return c, true
}

// Clear removes every task and journal entry. It fails with
// ErrQueueRunning while Run is active.
func (q *Queue) Clear() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.running {
		return ErrQueueRunning
	}
	q.tasks = make(map[string]*entry)
	q.order = nil
	q.nextSeq = 0
	q.journal.reset()
	return nil
}

// Logs returns the execution journal in order.
func (q *Queue) Logs() []LogEntry {
	return q.journal.snapshot()
}

// ExportLogs renders the execution journal as text.
func (q *Queue) ExportLogs() string {
	return ExportLogs(q.journal.snapshot())
}

// logf records a journal entry and mirrors it to the debug logger.
func (q *Queue) logf(level LogLevel, format string, args ...interface{}) {
	e := q.journal.add(level, format, args...)
	q.opts.logger.Log("[queue] %s %s", e.Level, e.Message)
}
