package state

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// RunStatus represents the outcome of a run.
type RunStatus string

const (
	RunRunning     RunStatus = "running"
	RunCompleted   RunStatus = "completed"
	RunFailed      RunStatus = "failed"
	RunCancelled   RunStatus = "cancelled"
	RunInterrupted RunStatus = "interrupted"
)

// Run is one goal taken through classification, decomposition and execution.
type Run struct {
	ID           string     `json:"id"`
	Goal         string     `json:"goal"`
	Intent       string     `json:"intent"`
	Category     string     `json:"category"`
	Confidence   float64    `json:"confidence"`
	Complexity   string     `json:"complexity"`
	TotalMinutes int        `json:"total_minutes"`
	Status       RunStatus  `json:"status"`
	ReportPath   string     `json:"report_path,omitempty"`
	StartedAt    time.Time  `json:"started_at"`
	FinishedAt   *time.Time `json:"finished_at,omitempty"`
}

// RunTask is the final state of one task in a run.
type RunTask struct {
	RunID         string     `json:"run_id"`
	TaskID        string     `json:"task_id"`
	Name          string     `json:"name"`
	Role          string     `json:"role"`
	Workflow      string     `json:"workflow,omitempty"`
	Status        string     `json:"status"`
	Attempts      int        `json:"attempts"`
	Error         string     `json:"error,omitempty"`
	BlockedReason string     `json:"blocked_reason,omitempty"`
	StartedAt     *time.Time `json:"started_at,omitempty"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
}

// ErrRunNotFound is returned when no run has the requested ID.
var ErrRunNotFound = errors.New("run not found")

// RecordRun inserts or replaces r and replaces its tasks, in one transaction.
// Tasks keep the order given.
func (db *DB) RecordRun(r *Run, tasks []RunTask) error {
	return db.Transaction(func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			INSERT INTO runs (id, goal, intent, category, confidence, complexity, total_minutes, status, report_path, started_at, finished_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				goal = excluded.goal,
				intent = excluded.intent,
				category = excluded.category,
				confidence = excluded.confidence,
				complexity = excluded.complexity,
				total_minutes = excluded.total_minutes,
				status = excluded.status,
				report_path = excluded.report_path,
				finished_at = excluded.finished_at
		`, r.ID, r.Goal, r.Intent, r.Category, r.Confidence, r.Complexity, r.TotalMinutes,
			string(r.Status), nullString(r.ReportPath), formatTime(r.StartedAt), nullableTime(r.FinishedAt))
		if err != nil {
			return fmt.Errorf("record run: %w", err)
		}

		if _, err := tx.Exec(`DELETE FROM run_tasks WHERE run_id = ?`, r.ID); err != nil {
			return fmt.Errorf("clear run tasks: %w", err)
		}

		for i, t := range tasks {
			_, err := tx.Exec(`
				INSERT INTO run_tasks (run_id, task_id, seq, name, role, workflow, status, attempts, error, blocked_reason, started_at, completed_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			`, r.ID, t.TaskID, i, t.Name, t.Role, nullString(t.Workflow), t.Status, t.Attempts,
				nullString(t.Error), nullString(t.BlockedReason), nullableTime(t.StartedAt), nullableTime(t.CompletedAt))
			if err != nil {
				return fmt.Errorf("record run task %s: %w", t.TaskID, err)
			}
		}
		return nil
	})
}

const runColumns = `id, goal, intent, category, confidence, complexity, total_minutes, status, report_path, started_at, finished_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (*Run, error) {
	var r Run
	var reportPath, finishedAt sql.NullString
	var startedAt string
	if err := s.Scan(&r.ID, &r.Goal, &r.Intent, &r.Category, &r.Confidence, &r.Complexity,
		&r.TotalMinutes, &r.Status, &reportPath, &startedAt, &finishedAt); err != nil {
		return nil, err
	}
	r.ReportPath = reportPath.String
	var err error
	if r.StartedAt, err = parseTime(startedAt); err != nil {
		return nil, fmt.Errorf("run %s: parse started_at: %w", r.ID, err)
	}
	if r.FinishedAt, err = parseNullableTime(finishedAt); err != nil {
		return nil, fmt.Errorf("run %s: parse finished_at: %w", r.ID, err)
	}
	return &r, nil
}

// GetRun retrieves a run by ID.
func (db *DB) GetRun(id string) (*Run, error) {
	row := db.QueryRow(`SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return r, nil
}

// ListRuns returns the most recent runs first. limit <= 0 means all.
func (db *DB) ListRuns(limit int) ([]Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY started_at DESC, rowid DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, *r)
	}
	return runs, rows.Err()
}

// ListRunTasks returns the tasks of a run in recorded order.
func (db *DB) ListRunTasks(runID string) ([]RunTask, error) {
	rows, err := db.Query(`
		SELECT run_id, task_id, name, role, workflow, status, attempts, error, blocked_reason, started_at, completed_at
		FROM run_tasks WHERE run_id = ? ORDER BY seq
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("list run tasks: %w", err)
	}
	defer rows.Close()

	var tasks []RunTask
	for rows.Next() {
		var t RunTask
		var workflow, errText, blocked, startedAt, completedAt sql.NullString
		if err := rows.Scan(&t.RunID, &t.TaskID, &t.Name, &t.Role, &workflow, &t.Status, &t.Attempts,
			&errText, &blocked, &startedAt, &completedAt); err != nil {
			return nil, fmt.Errorf("scan run task: %w", err)
		}
		t.Workflow = workflow.String
		t.Error = errText.String
		t.BlockedReason = blocked.String
		if t.StartedAt, err = parseNullableTime(startedAt); err != nil {
			return nil, fmt.Errorf("run task %s: parse started_at: %w", t.TaskID, err)
		}
		if t.CompletedAt, err = parseNullableTime(completedAt); err != nil {
			return nil, fmt.Errorf("run task %s: parse completed_at: %w", t.TaskID, err)
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// MarkInterrupted sets every run still recorded as running to interrupted.
// A run is only left running when the process died mid-run, so this is
// called before a new run starts. Returns the number of runs updated.
func (db *DB) MarkInterrupted() (int64, error) {
	result, err := db.Exec(`
		UPDATE runs SET status = ?, finished_at = ? WHERE status = ?
	`, string(RunInterrupted), formatTime(time.Now()), string(RunRunning))
	if err != nil {
		return 0, fmt.Errorf("mark interrupted runs: %w", err)
	}
	return result.RowsAffected()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
