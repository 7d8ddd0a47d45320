package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ShayCichocki/taskforge/internal/decompose"
	"github.com/ShayCichocki/taskforge/internal/intent"
)

var planJSON bool

var planCmd = &cobra.Command{
	Use:   "plan <goal>",
	Short: "Show the decomposition of a goal without running it",
	Long: `Plan classifies the goal and prints its subtasks in execution order with
time estimates, complexity and recommendations. Nothing is executed.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runPlan,
}

func init() {
	planCmd.Flags().BoolVar(&planJSON, "json", false, "Print the decomposition as JSON")
}

func runPlan(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := openLogger(cfg)
	defer logger.Close()

	cat, err := loadCatalog(cfg)
	if err != nil {
		return err
	}

	goal := joinArgs(args)
	in := intent.New(cat).Classify(goal)
	res := decompose.New(cat).Decompose(goal, in)

	out := cmd.OutOrStdout()
	if planJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}

	fmt.Fprintf(out, "Goal: %s\n", goal)
	fmt.Fprintf(out, "Goal type: %s (confidence %.2f)\n", in.Name, in.Confidence)
	printPlan(out, res)
	return nil
}

// joinArgs lets a goal be passed with or without quotes.
func joinArgs(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}
