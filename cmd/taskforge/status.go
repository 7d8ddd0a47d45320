package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ShayCichocki/taskforge/internal/state"
)

var statusCmd = &cobra.Command{
	Use:   "status [run-id]",
	Short: "Show the state of a run",
	Long: `Display a recorded run and its tasks.

Without a run ID, shows the most recent run. Shows:
  - Goal, goal type and complexity
  - Each task's status, attempts and error
  - Why tasks that never ran were left pending`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := openHistory(cfg, false)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if db == nil {
		fmt.Fprintln(out, "No runs recorded. Run 'taskforge run <goal>' to start.")
		return nil
	}
	defer db.Close()

	var run *state.Run
	if len(args) == 1 {
		run, err = db.GetRun(args[0])
		if errors.Is(err, state.ErrRunNotFound) {
			return fmt.Errorf("no run with ID %s", args[0])
		}
		if err != nil {
			return fmt.Errorf("get run: %w", err)
		}
	} else {
		runs, err := db.ListRuns(1)
		if err != nil {
			return fmt.Errorf("list runs: %w", err)
		}
		if len(runs) == 0 {
			fmt.Fprintln(out, "No runs recorded. Run 'taskforge run <goal>' to start.")
			return nil
		}
		run = &runs[0]
	}

	tasks, err := db.ListRunTasks(run.ID)
	if err != nil {
		return fmt.Errorf("list run tasks: %w", err)
	}

	fmt.Fprintf(out, "Run:        %s\n", run.ID)
	fmt.Fprintf(out, "Goal:       %s\n", run.Goal)
	fmt.Fprintf(out, "Goal type:  %s (confidence %.2f)\n", run.Intent, run.Confidence)
	fmt.Fprintf(out, "Template:   %s, %s, ~%d min\n", run.Category, run.Complexity, run.TotalMinutes)
	fmt.Fprintf(out, "Status:     %s\n", colorRunStatus(run.Status))
	fmt.Fprintf(out, "Started:    %s\n", run.StartedAt.Local().Format(time.RFC1123))
	if run.FinishedAt != nil {
		fmt.Fprintf(out, "Duration:   %s\n", run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond))
	}
	if run.ReportPath != "" {
		fmt.Fprintf(out, "Report:     %s\n", run.ReportPath)
	}

	if len(tasks) == 0 {
		return nil
	}
	fmt.Fprintln(out, "\nTasks:")
	for _, t := range tasks {
		note := t.Error
		if t.BlockedReason != "" {
			note = "not run: " + t.BlockedReason
		}
		fmt.Fprintf(out, "  %-10s %-28s %-24s %d  %s\n", t.Status, t.Name, t.Role, t.Attempts, note)
	}
	return nil
}
