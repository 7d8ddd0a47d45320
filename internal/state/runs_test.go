package state

import (
	"errors"
	"testing"
	"time"
)

func sampleRun(id string, started time.Time) *Run {
	return &Run{
		ID:           id,
		Goal:         "添加一个暗黑模式切换功能",
		Intent:       "new_feature",
		Category:     "new_feature",
		Confidence:   0.9,
		Complexity:   "complex",
		TotalMinutes: 335,
		Status:       RunRunning,
		StartedAt:    started,
	}
}

func TestRecordAndGetRun(t *testing.T) {
	db := setupTestDB(t)
	started := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	run := sampleRun("run-1", started)
	if err := db.RecordRun(run, nil); err != nil {
		t.Fatalf("RecordRun failed: %v", err)
	}

	got, err := db.GetRun("run-1")
	if err != nil {
		t.Fatalf("GetRun failed: %v", err)
	}
	if got.Status != RunRunning || got.FinishedAt != nil {
		t.Errorf("unexpected initial run %+v", got)
	}
	if !got.StartedAt.Equal(started) {
		t.Errorf("StartedAt = %v, want %v", got.StartedAt, started)
	}

	// Finish the run with tasks.
	finished := started.Add(5 * time.Minute)
	run.Status = RunFailed
	run.FinishedAt = &finished
	run.ReportPath = "/repo/docs/automation-report-1.md"
	tasks := []RunTask{
		{TaskID: "requirement_analysis", Name: "Requirements", Role: "bmad:analyst", Workflow: "research",
			Status: "completed", Attempts: 1, StartedAt: &started, CompletedAt: &finished},
		{TaskID: "implementation", Name: "Implement", Role: "bmad:dev",
			Status: "failed", Attempts: 4, Error: "exit status 1", StartedAt: &started, CompletedAt: &finished},
		{TaskID: "testing", Name: "Test", Role: "bmad:tea",
			Status: "pending", BlockedReason: "dependency_failed:implementation"},
	}
	if err := db.RecordRun(run, tasks); err != nil {
		t.Fatalf("RecordRun (finish) failed: %v", err)
	}

	got, err = db.GetRun("run-1")
	if err != nil {
		t.Fatalf("GetRun failed: %v", err)
	}
	if got.Status != RunFailed {
		t.Errorf("Status = %q, want %q", got.Status, RunFailed)
	}
	if got.FinishedAt == nil || !got.FinishedAt.Equal(finished) {
		t.Errorf("FinishedAt = %v, want %v", got.FinishedAt, finished)
	}
	if got.ReportPath != run.ReportPath {
		t.Errorf("ReportPath = %q", got.ReportPath)
	}

	gotTasks, err := db.ListRunTasks("run-1")
	if err != nil {
		t.Fatalf("ListRunTasks failed: %v", err)
	}
	if len(gotTasks) != 3 {
		t.Fatalf("got %d tasks, want 3", len(gotTasks))
	}
	for i, want := range []string{"requirement_analysis", "implementation", "testing"} {
		if gotTasks[i].TaskID != want {
			t.Errorf("task[%d] = %q, want %q", i, gotTasks[i].TaskID, want)
		}
	}
	if gotTasks[1].Error != "exit status 1" || gotTasks[1].Attempts != 4 {
		t.Errorf("unexpected failed task %+v", gotTasks[1])
	}
	if gotTasks[2].BlockedReason != "dependency_failed:implementation" || gotTasks[2].StartedAt != nil {
		t.Errorf("unexpected pending task %+v", gotTasks[2])
	}

	// Re-recording replaces tasks rather than appending.
	if err := db.RecordRun(run, tasks[:1]); err != nil {
		t.Fatalf("RecordRun (replace) failed: %v", err)
	}
	gotTasks, _ = db.ListRunTasks("run-1")
	if len(gotTasks) != 1 {
		t.Errorf("got %d tasks after replace, want 1", len(gotTasks))
	}
}

func TestGetRunNotFound(t *testing.T) {
	db := setupTestDB(t)

	_, err := db.GetRun("nope")
	if !errors.Is(err, ErrRunNotFound) {
		t.Errorf("expected ErrRunNotFound, got %v", err)
	}
}

func TestListRuns(t *testing.T) {
	db := setupTestDB(t)
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	for i, id := range []string{"a", "b", "c"} {
		if err := db.RecordRun(sampleRun(id, base.Add(time.Duration(i)*time.Millisecond)), nil); err != nil {
			t.Fatalf("RecordRun(%s) failed: %v", id, err)
		}
	}

	runs, err := db.ListRuns(0)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(runs) != 3 || runs[0].ID != "c" || runs[2].ID != "a" {
		t.Errorf("ListRuns order = %v, want newest first", runIDs(runs))
	}

	runs, err = db.ListRuns(2)
	if err != nil {
		t.Fatalf("ListRuns(2) failed: %v", err)
	}
	if len(runs) != 2 {
		t.Errorf("ListRuns(2) returned %d runs", len(runs))
	}
}

func TestMarkInterrupted(t *testing.T) {
	db := setupTestDB(t)
	now := time.Now()

	if err := db.RecordRun(sampleRun("stale", now), nil); err != nil {
		t.Fatalf("RecordRun failed: %v", err)
	}
	done := sampleRun("done", now)
	done.Status = RunCompleted
	done.FinishedAt = &now
	if err := db.RecordRun(done, nil); err != nil {
		t.Fatalf("RecordRun failed: %v", err)
	}

	n, err := db.MarkInterrupted()
	if err != nil {
		t.Fatalf("MarkInterrupted failed: %v", err)
	}
	if n != 1 {
		t.Errorf("MarkInterrupted updated %d runs, want 1", n)
	}

	stale, _ := db.GetRun("stale")
	if stale.Status != RunInterrupted || stale.FinishedAt == nil {
		t.Errorf("stale run = %+v, want interrupted with finish time", stale)
	}
	completed, _ := db.GetRun("done")
	if completed.Status != RunCompleted {
		t.Errorf("completed run changed to %q", completed.Status)
	}
}

func TestPurgeOldRuns(t *testing.T) {
	db := setupTestDB(t)
	now := time.Now()

	old := sampleRun("old", now.Add(-48*time.Hour))
	if err := db.RecordRun(old, []RunTask{{TaskID: "t", Name: "T", Role: "bmad:dev", Status: "completed"}}); err != nil {
		t.Fatalf("RecordRun failed: %v", err)
	}
	if err := db.RecordRun(sampleRun("new", now), nil); err != nil {
		t.Fatalf("RecordRun failed: %v", err)
	}

	n, err := db.PurgeOldRuns(24 * time.Hour)
	if err != nil {
		t.Fatalf("PurgeOldRuns failed: %v", err)
	}
	if n != 1 {
		t.Errorf("purged %d runs, want 1", n)
	}

	if _, err := db.GetRun("old"); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("old run still present: %v", err)
	}
	tasks, _ := db.ListRunTasks("old")
	if len(tasks) != 0 {
		t.Errorf("old run tasks not removed: %d", len(tasks))
	}
}

func runIDs(runs []Run) []string {
	ids := make([]string, len(runs))
	for i, r := range runs {
		ids[i] = r.ID
	}
	return ids
}

func TestCorruptTimestampsAreReported(t *testing.T) {
	db := setupTestDB(t)
	now := time.Now()
	if err := db.RecordRun(sampleRun("run-1", now), []RunTask{
		{TaskID: "testing", Name: "Testing", Role: "bmad:tea", Status: "completed", StartedAt: &now},
	}); err != nil {
		t.Fatalf("RecordRun failed: %v", err)
	}

	if _, err := db.Exec(`UPDATE run_tasks SET started_at = 'soon' WHERE run_id = ?`, "run-1"); err != nil {
		t.Fatalf("corrupt task: %v", err)
	}
	if _, err := db.ListRunTasks("run-1"); err == nil {
		t.Error("ListRunTasks: expected error for malformed started_at")
	}

	if _, err := db.Exec(`UPDATE runs SET started_at = 'yesterday' WHERE id = ?`, "run-1"); err != nil {
		t.Fatalf("corrupt run: %v", err)
	}
	if _, err := db.GetRun("run-1"); err == nil || errors.Is(err, ErrRunNotFound) {
		t.Errorf("GetRun: expected parse error, got %v", err)
	}
	if _, err := db.ListRuns(0); err == nil {
		t.Error("ListRuns: expected error for malformed started_at")
	}
}
