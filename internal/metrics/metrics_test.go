package metrics

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/ShayCichocki/taskforge/pkg/models"
)

func TestRecorder(t *testing.T) {
	_, m := NewRegistry()

	m.TaskEnqueued("dev")
	m.TaskEnqueued("dev")
	m.TaskEnqueued("tea")
	m.TaskStarted("dev")
	m.TaskStarted("tea")
	m.TaskRetried("tea")
	m.TaskFinished("dev", models.TaskStatusCompleted, 2*time.Second)

	if got := testutil.ToFloat64(m.TasksEnqueued.WithLabelValues("dev")); got != 2 {
		t.Errorf("dev enqueued = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.TasksRunning); got != 1 {
		t.Errorf("running = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.TaskRetries.WithLabelValues("tea")); got != 1 {
		t.Errorf("tea retries = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.TasksFinished.WithLabelValues("dev", "completed")); got != 1 {
		t.Errorf("dev completed = %v, want 1", got)
	}
	if got := testutil.CollectAndCount(m.TaskDuration); got != 1 {
		t.Errorf("duration series = %d, want 1", got)
	}
}

func TestDecompositionRecorded(t *testing.T) {
	_, m := NewRegistry()

	m.DecompositionRecorded("new_feature", "complex", 7)
	m.DecompositionRecorded("fix", "simple", 4)

	if got := testutil.ToFloat64(m.Decompositions.WithLabelValues("new_feature", "complex")); got != 1 {
		t.Errorf("new_feature/complex = %v, want 1", got)
	}
	if got := testutil.CollectAndCount(m.PlanTaskCount); got != 1 {
		t.Errorf("plan task count series = %d, want 1", got)
	}
}

func TestServe(t *testing.T) {
	reg, m := NewRegistry()
	m.TaskEnqueued("dev")

	ctx, cancel := context.WithCancel(context.Background())
	addr, errc, err := Serve(ctx, "127.0.0.1:0", reg)
	if err != nil {
		t.Fatalf("Serve: %v", err)
	}

	resp, err := http.Get("http://" + addr + "/metrics")
	if err != nil {
		cancel()
		t.Fatalf("GET /metrics: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	if !strings.Contains(string(body), `taskforge_tasks_enqueued_total{role="dev"} 1`) {
		t.Errorf("metrics output missing enqueued counter:\n%s", body)
	}

	cancel()
	if err := <-errc; err != nil {
		t.Errorf("server error: %v", err)
	}
}
