package queue

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/ShayCichocki/taskforge/pkg/models"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestQueue(opts ...Option) *Queue {
	base := []Option{
		WithBaseDelay(time.Millisecond),
		WithPollInterval(5 * time.Millisecond),
	}
	return New(append(base, opts...)...)
}

func desc(id string, priority int, deps ...string) models.TaskDescriptor {
	return models.TaskDescriptor{
		ID:           id,
		Name:         "task " + id,
		Role:         "dev",
		Priority:     priority,
		Dependencies: deps,
	}
}

func succeed() Executor {
	return ExecutorFunc(func(ctx context.Context, t models.TaskDescriptor) (any, error) {
		return t.ID + " done", nil
	})
}

// recorder collects execution order and peak concurrency.
type recorder struct {
	mu      sync.Mutex
	order   []string
	current atomic.Int32
	peak    atomic.Int32
	delay   time.Duration
}

func (r *recorder) exec() Executor {
	return ExecutorFunc(func(ctx context.Context, t models.TaskDescriptor) (any, error) {
		n := r.current.Add(1)
		for {
			p := r.peak.Load()
			if n <= p || r.peak.CompareAndSwap(p, n) {
				break
			}
		}
		r.mu.Lock()
		r.order = append(r.order, t.ID)
		r.mu.Unlock()

		if r.delay > 0 {
			time.Sleep(r.delay)
		}
		r.current.Add(-1)
		return nil, nil
	})
}

func (r *recorder) started() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.order...)
}

func TestRunRespectsConcurrency(t *testing.T) {
	q := newTestQueue(WithConcurrency(2))
	rec := &recorder{delay: 50 * time.Millisecond}

	for _, id := range []string{"A", "B", "C"} {
		_, err := q.Enqueue(desc(id, 1), rec.exec())
		require.NoError(t, err)
	}

	summary, err := q.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int32(2), rec.peak.Load())
	assert.Equal(t, 3, summary.Completed)
	assert.True(t, summary.Succeeded())
	assert.InDelta(t, 1.0, summary.SuccessRate(), 1e-9)
	assert.Empty(t, summary.Stalled)
	assert.False(t, summary.Active)
}

func TestRunFailedDependencyLeavesDependentPending(t *testing.T) {
	q := newTestQueue(WithMaxRetries(1))

	var bCalls atomic.Int32
	_, err := q.Enqueue(desc("A", 1), ExecutorFunc(func(ctx context.Context, _ models.TaskDescriptor) (any, error) {
		return nil, errors.New("boom")
	}))
	require.NoError(t, err)
	_, err = q.Enqueue(desc("B", 1, "A"), ExecutorFunc(func(ctx context.Context, _ models.TaskDescriptor) (any, error) {
		bCalls.Add(1)
		return nil, nil
	}))
	require.NoError(t, err)

	summary, err := q.Run(context.Background())
	require.NoError(t, err)

	a, ok := q.Task("A")
	require.True(t, ok)
	assert.Equal(t, models.TaskStatusFailed, a.Status)
	assert.Equal(t, 2, a.Attempts)
	assert.Equal(t, "boom", a.Error)
	assert.NotNil(t, a.CompletedAt)

	b, ok := q.Task("B")
	require.True(t, ok)
	assert.Equal(t, models.TaskStatusPending, b.Status)
	assert.Equal(t, "dependency_failed:A", b.BlockedReason)
	assert.Zero(t, bCalls.Load())

	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 1, summary.Pending)
	assert.Equal(t, []string{"B"}, summary.Stalled)
	assert.False(t, summary.Succeeded())
}

func TestRunBlockedReasonsPropagate(t *testing.T) {
	q := newTestQueue(WithMaxRetries(0))
	fail := ExecutorFunc(func(ctx context.Context, _ models.TaskDescriptor) (any, error) {
		return nil, errors.New("nope")
	})

	_, err := q.Enqueue(desc("A", 1), fail)
	require.NoError(t, err)
	_, err = q.Enqueue(desc("B", 1, "A"), succeed())
	require.NoError(t, err)
	_, err = q.Enqueue(desc("C", 1, "B"), succeed())
	require.NoError(t, err)
	_, err = q.Enqueue(desc("D", 1, "ghost"), succeed())
	require.NoError(t, err)
	_, err = q.Enqueue(desc("E", 1, "F"), succeed())
	require.NoError(t, err)
	_, err = q.Enqueue(desc("F", 1, "E"), succeed())
	require.NoError(t, err)

	summary, err := q.Run(context.Background())
	require.NoError(t, err)

	want := map[string]string{
		"B": "dependency_failed:A",
		"C": "dependency_blocked:B",
		"D": "unknown_dependency:ghost",
		"E": "dependency_cycle",
		"F": "dependency_cycle",
	}
	for id, reason := range want {
		task, ok := q.Task(id)
		require.True(t, ok, id)
		assert.Equal(t, reason, task.BlockedReason, id)
	}
	assert.Equal(t, []string{"B", "C", "D", "E", "F"}, summary.Stalled)
}

func TestRunWarnsAboutUnknownDependencies(t *testing.T) {
	q := newTestQueue()
	_, err := q.Enqueue(desc("A", 1), succeed())
	require.NoError(t, err)
	_, err = q.Enqueue(desc("B", 1, "A", "ghost", "phantom"), succeed())
	require.NoError(t, err)

	_, err = q.Run(context.Background())
	require.NoError(t, err)

	var warnings []string
	for _, e := range q.Logs() {
		if e.Level == LevelWarning {
			warnings = append(warnings, e.Message)
		}
	}
	assert.Equal(t, []string{"Task B depends on unknown task(s): ghost, phantom"}, warnings)
}

func TestRunRetriesUpToMax(t *testing.T) {
	tests := []struct {
		name       string
		maxRetries int
		failFirst  int
		wantStatus models.TaskStatus
		wantCalls  int32
	}{
		{name: "no retries", maxRetries: 0, failFirst: 10, wantStatus: models.TaskStatusFailed, wantCalls: 1},
		{name: "exhausts retries", maxRetries: 3, failFirst: 10, wantStatus: models.TaskStatusFailed, wantCalls: 4},
		{name: "succeeds on retry", maxRetries: 3, failFirst: 2, wantStatus: models.TaskStatusCompleted, wantCalls: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := newTestQueue(WithMaxRetries(tt.maxRetries))
			var calls atomic.Int32
			_, err := q.Enqueue(desc("A", 1), ExecutorFunc(func(ctx context.Context, _ models.TaskDescriptor) (any, error) {
				if int(calls.Add(1)) <= tt.failFirst {
					return nil, errors.New("transient")
				}
				return "ok", nil
			}))
			require.NoError(t, err)

			_, err = q.Run(context.Background())
			require.NoError(t, err)

			task, _ := q.Task("A")
			assert.Equal(t, tt.wantStatus, task.Status)
			assert.Equal(t, tt.wantCalls, calls.Load())
			assert.Equal(t, int(tt.wantCalls), task.Attempts)
			if tt.wantStatus == models.TaskStatusCompleted {
				assert.Equal(t, "ok", task.Result)
				assert.Empty(t, task.Error)
			}
		})
	}
}

func TestRunBackoffIsLinear(t *testing.T) {
	const base = 20 * time.Millisecond
	q := newTestQueue(WithMaxRetries(3), WithBaseDelay(base))

	var mu sync.Mutex
	var starts []time.Time
	_, err := q.Enqueue(desc("A", 1), ExecutorFunc(func(ctx context.Context, _ models.TaskDescriptor) (any, error) {
		mu.Lock()
		starts = append(starts, time.Now())
		mu.Unlock()
		return nil, errors.New("transient")
	}))
	require.NoError(t, err)

	_, err = q.Run(context.Background())
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, starts, 4)
	for i := 1; i < len(starts); i++ {
		gap := starts[i].Sub(starts[i-1])
		assert.GreaterOrEqual(t, gap, time.Duration(i)*base, "gap before attempt %d", i+1)
	}
}

func TestRunBackoffHoldsSlot(t *testing.T) {
	q := newTestQueue(WithConcurrency(1), WithMaxRetries(1), WithBaseDelay(30*time.Millisecond))

	var mu sync.Mutex
	var order []string
	record := func(s string) {
		mu.Lock()
		order = append(order, s)
		mu.Unlock()
	}

	var calls atomic.Int32
	_, err := q.Enqueue(desc("A", 1), ExecutorFunc(func(ctx context.Context, _ models.TaskDescriptor) (any, error) {
		if calls.Add(1) == 1 {
			record("A1")
			return nil, errors.New("transient")
		}
		record("A2")
		return "ok", nil
	}))
	require.NoError(t, err)
	_, err = q.Enqueue(desc("B", 2), ExecutorFunc(func(ctx context.Context, _ models.TaskDescriptor) (any, error) {
		record("B")
		return "ok", nil
	}))
	require.NoError(t, err)

	summary, err := q.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Completed)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"A1", "A2", "B"}, order)
}

func TestRunDependencyOrder(t *testing.T) {
	q := newTestQueue(WithConcurrency(4))
	rec := &recorder{delay: 5 * time.Millisecond}

	// diamond: A -> (B, C) -> D
	for _, d := range []models.TaskDescriptor{
		desc("D", 1, "B", "C"),
		desc("B", 1, "A"),
		desc("C", 1, "A"),
		desc("A", 1),
	} {
		_, err := q.Enqueue(d, rec.exec())
		require.NoError(t, err)
	}

	_, err := q.Run(context.Background())
	require.NoError(t, err)

	order := rec.started()
	require.Len(t, order, 4)
	assert.Equal(t, "A", order[0])
	assert.Equal(t, "D", order[3])

	d, _ := q.Task("D")
	for _, dep := range []string{"B", "C"} {
		task, _ := q.Task(dep)
		require.NotNil(t, task.CompletedAt)
		require.NotNil(t, d.StartedAt)
		assert.False(t, d.StartedAt.Before(*task.CompletedAt), "D started before %s completed", dep)
	}
}

func TestRunPriorityOrder(t *testing.T) {
	q := newTestQueue(WithConcurrency(1))
	rec := &recorder{}

	_, err := q.Enqueue(desc("low", 5), rec.exec())
	require.NoError(t, err)
	_, err = q.Enqueue(desc("high", 1), rec.exec())
	require.NoError(t, err)
	_, err = q.Enqueue(desc("mid-a", 3), rec.exec())
	require.NoError(t, err)
	_, err = q.Enqueue(desc("mid-b", 3), rec.exec())
	require.NoError(t, err)

	_, err = q.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"high", "mid-a", "mid-b", "low"}, rec.started())
}

func TestRunCancellation(t *testing.T) {
	q := newTestQueue(WithConcurrency(1), WithBaseDelay(time.Second))
	started := make(chan struct{})

	_, err := q.Enqueue(desc("A", 1), ExecutorFunc(func(ctx context.Context, _ models.TaskDescriptor) (any, error) {
		close(started)
		<-ctx.Done()
		return nil, ctx.Err()
	}))
	require.NoError(t, err)
	_, err = q.Enqueue(desc("B", 2), succeed())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
	}()

	summary, err := q.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, summary)
	assert.True(t, summary.Cancelled)

	a, _ := q.Task("A")
	assert.Equal(t, models.TaskStatusFailed, a.Status)
	assert.Equal(t, 1, a.Attempts)

	b, _ := q.Task("B")
	assert.Equal(t, models.TaskStatusPending, b.Status)
	assert.Equal(t, "cancelled", b.BlockedReason)
}

func TestRunRecoversExecutorPanic(t *testing.T) {
	q := newTestQueue(WithMaxRetries(0))
	_, err := q.Enqueue(desc("A", 1), ExecutorFunc(func(ctx context.Context, _ models.TaskDescriptor) (any, error) {
		panic("kaboom")
	}))
	require.NoError(t, err)

	_, err = q.Run(context.Background())
	require.NoError(t, err)

	a, _ := q.Task("A")
	assert.Equal(t, models.TaskStatusFailed, a.Status)
	assert.Contains(t, a.Error, "kaboom")
}

func TestEnqueue(t *testing.T) {
	q := newTestQueue()

	id, err := q.Enqueue(models.TaskDescriptor{Name: "generated"}, succeed())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(id, "task-"))

	_, err = q.Enqueue(desc("A", 1), succeed())
	require.NoError(t, err)

	_, err = q.Enqueue(desc("A", 1), succeed())
	assert.ErrorIs(t, err, ErrDuplicateTask)

	_, err = q.Enqueue(desc("B", 1), nil)
	assert.ErrorIs(t, err, ErrNilExecutor)

	_, err = q.Enqueue(models.TaskDescriptor{ID: "C"}, succeed())
	assert.ErrorIs(t, err, models.ErrMissingName)

	_, err = q.Enqueue(desc("D", 1, "D"), succeed())
	assert.ErrorIs(t, err, models.ErrSelfDependency)

	status := q.Status()
	assert.Equal(t, 2, status.Total)
	assert.Equal(t, 2, status.Pending)
	assert.False(t, status.Active)
}

func TestEnqueueDoesNotAliasDescriptor(t *testing.T) {
	q := newTestQueue()
	d := desc("B", 1, "A")
	_, err := q.Enqueue(d, succeed())
	require.NoError(t, err)

	d.Dependencies[0] = "changed"
	task, _ := q.Task("B")
	assert.Equal(t, []string{"A"}, task.Dependencies)
}

func TestEnqueueAndClearWhileRunning(t *testing.T) {
	q := newTestQueue()
	release := make(chan struct{})
	started := make(chan struct{})

	_, err := q.Enqueue(desc("A", 1), ExecutorFunc(func(ctx context.Context, _ models.TaskDescriptor) (any, error) {
		close(started)
		<-release
		return nil, nil
	}))
	require.NoError(t, err)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _ = q.Run(context.Background())
	}()

	<-started
	assert.True(t, q.Status().Active)
	assert.Equal(t, 1, q.Status().Running)

	_, err = q.Enqueue(desc("B", 1), succeed())
	assert.ErrorIs(t, err, ErrQueueRunning)
	assert.ErrorIs(t, q.Clear(), ErrQueueRunning)
	_, err = q.Run(context.Background())
	assert.ErrorIs(t, err, ErrQueueRunning)

	close(release)
	wg.Wait()

	assert.False(t, q.Status().Active)
	require.NoError(t, q.Clear())
	assert.Zero(t, q.Status().Total)
	assert.Empty(t, q.Logs())
}

func TestRunTwiceOnlyRunsPending(t *testing.T) {
	q := newTestQueue()
	var calls atomic.Int32
	exec := ExecutorFunc(func(ctx context.Context, _ models.TaskDescriptor) (any, error) {
		calls.Add(1)
		return nil, nil
	})

	_, err := q.Enqueue(desc("A", 1), exec)
	require.NoError(t, err)
	_, err = q.Run(context.Background())
	require.NoError(t, err)

	_, err = q.Enqueue(desc("B", 1, "A"), exec)
	require.NoError(t, err)
	summary, err := q.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, 2, summary.Completed)
}

func TestRunEmptyQueue(t *testing.T) {
	q := newTestQueue()
	summary, err := q.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, summary.Total)
	assert.Zero(t, summary.SuccessRate())
}

func TestJournalAndEvents(t *testing.T) {
	events := NewEventEmitter(64)
	q := newTestQueue(WithEvents(events), WithMaxRetries(1))

	var calls atomic.Int32
	_, err := q.Enqueue(desc("A", 1), ExecutorFunc(func(ctx context.Context, _ models.TaskDescriptor) (any, error) {
		if calls.Add(1) == 1 {
			return nil, errors.New("first try")
		}
		return nil, nil
	}))
	require.NoError(t, err)

	_, err = q.Run(context.Background())
	require.NoError(t, err)
	events.Close()

	var types []EventType
	for ev := range events.Events() {
		assert.False(t, ev.Timestamp.IsZero())
		types = append(types, ev.Type)
	}
	assert.Equal(t, []EventType{
		EventTaskQueued,
		EventTaskStarted,
		EventTaskRetry,
		EventTaskCompleted,
		EventRunDone,
	}, types)

	levels := make(map[LogLevel]int)
	for _, e := range q.Logs() {
		levels[e.Level]++
	}
	assert.Positive(t, levels[LevelInfo])
	assert.Equal(t, 1, levels[LevelWarning])
	assert.Equal(t, 1, levels[LevelSuccess])

	exported := q.ExportLogs()
	assert.Contains(t, exported, "[SUCCESS] Task completed: task A")
	assert.Equal(t, len(q.Logs()), strings.Count(exported, "\n"))
}

func TestEventEmitterCountsDrops(t *testing.T) {
	events := NewEventEmitter(1)
	events.Emit(Event{Type: EventTaskQueued, TaskID: "A"})
	events.Emit(Event{Type: EventTaskQueued, TaskID: "B"})
	events.Close()

	var ids []string
	for ev := range events.Events() {
		ids = append(ids, ev.TaskID)
	}
	assert.Equal(t, []string{"A"}, ids)
	assert.Equal(t, uint64(1), events.DroppedCount())

	var nilEmitter *EventEmitter
	nilEmitter.Emit(Event{Type: EventTaskQueued})
}

type countingRecorder struct {
	mu       sync.Mutex
	enqueued int
	started  int
	retried  int
	finished map[models.TaskStatus]int
}

func (c *countingRecorder) TaskEnqueued(string) { c.mu.Lock(); c.enqueued++; c.mu.Unlock() }
func (c *countingRecorder) TaskStarted(string)  { c.mu.Lock(); c.started++; c.mu.Unlock() }
func (c *countingRecorder) TaskRetried(string)  { c.mu.Lock(); c.retried++; c.mu.Unlock() }
func (c *countingRecorder) TaskFinished(_ string, s models.TaskStatus, _ time.Duration) {
	c.mu.Lock()
	c.finished[s]++
	c.mu.Unlock()
}

func TestMetricsRecorder(t *testing.T) {
	rec := &countingRecorder{finished: make(map[models.TaskStatus]int)}
	q := newTestQueue(WithMetrics(rec), WithMaxRetries(2))

	_, err := q.Enqueue(desc("ok", 1), succeed())
	require.NoError(t, err)
	_, err = q.Enqueue(desc("bad", 1), ExecutorFunc(func(ctx context.Context, _ models.TaskDescriptor) (any, error) {
		return nil, errors.New("always")
	}))
	require.NoError(t, err)

	_, err = q.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, rec.enqueued)
	assert.Equal(t, 2, rec.started)
	assert.Equal(t, 2, rec.retried)
	assert.Equal(t, 1, rec.finished[models.TaskStatusCompleted])
	assert.Equal(t, 1, rec.finished[models.TaskStatusFailed])
}

func TestOptionsClamp(t *testing.T) {
	q := New(WithConcurrency(0), WithMaxRetries(-2), WithBaseDelay(-time.Second), WithPollInterval(0), WithLogger(nil))
	assert.Equal(t, 1, q.Concurrency())
	assert.Equal(t, 0, q.MaxRetries())
	assert.Equal(t, DefaultBaseDelay, q.opts.baseDelay)
	assert.Equal(t, DefaultPollInterval, q.opts.pollInterval)
	assert.NotNil(t, q.opts.logger)
}
