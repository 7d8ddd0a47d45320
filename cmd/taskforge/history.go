package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ShayCichocki/taskforge/internal/state"
)

var (
	historyLimit     int
	historyOlderThan time.Duration
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent runs",
	Long: `History lists recorded runs, newest first.

With --purge-older-than, deletes finished runs that started before the
given age instead (e.g. --purge-older-than 720h).`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Maximum runs to list")
	historyCmd.Flags().DurationVar(&historyOlderThan, "purge-older-than", 0, "Delete finished runs older than this age")
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := openHistory(cfg, false)
	if err != nil {
		return err
	}
	if db == nil {
		fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded. Run 'taskforge run <goal>' to start.")
		return nil
	}
	defer db.Close()

	if historyOlderThan > 0 {
		n, err := db.PurgeOldRuns(historyOlderThan)
		if err != nil {
			return fmt.Errorf("purge runs: %w", err)
		}
		printStatus("✓", fmt.Sprintf("Deleted %d run(s)", n), color.FgGreen)
		return nil
	}

	runs, err := db.ListRuns(historyLimit)
	if err != nil {
		return fmt.Errorf("list runs: %w", err)
	}
	if len(runs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded. Run 'taskforge run <goal>' to start.")
		return nil
	}

	out := cmd.OutOrStdout()
	for _, r := range runs {
		fmt.Fprintf(out, "%s  %s  %-11s %-14s %s\n",
			r.ID, r.StartedAt.Local().Format("2006-01-02 15:04"),
			colorRunStatus(r.Status), r.Category, truncateGoal(r.Goal, 50))
	}
	return nil
}

func colorRunStatus(s state.RunStatus) string {
	text := fmt.Sprintf("%-11s", s)
	switch s {
	case state.RunCompleted:
		return color.GreenString(text)
	case state.RunFailed:
		return color.RedString(text)
	case state.RunRunning:
		return color.CyanString(text)
	default:
		return color.YellowString(text)
	}
}

func truncateGoal(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
