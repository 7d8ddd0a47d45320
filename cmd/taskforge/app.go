package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/ShayCichocki/taskforge/internal/catalog"
	"github.com/ShayCichocki/taskforge/internal/config"
	"github.com/ShayCichocki/taskforge/internal/decompose"
	"github.com/ShayCichocki/taskforge/internal/logging"
	"github.com/ShayCichocki/taskforge/internal/queue"
	"github.com/ShayCichocki/taskforge/internal/state"
	"github.com/ShayCichocki/taskforge/pkg/models"
)

// loadConfig honours --config, otherwise merges the usual locations.
func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.LoadFromPath(configPath)
	}
	return config.Load()
}

// openLogger opens the debug log and makes it the package default.
// A log that cannot be opened is reported and replaced by a no-op logger.
func openLogger(cfg *config.Config) *logging.DebugLogger {
	logger, err := logging.NewDebugLogger(cfg.Log.Path)
	if err != nil {
		printStatus("⚠", fmt.Sprintf("debug log disabled: %v", err), color.FgYellow)
		logger = logging.NopLogger()
	}
	logging.SetDefault(logger)
	return logger
}

// loadCatalog returns the override catalog when configured, or the built-in one.
func loadCatalog(cfg *config.Config) (*catalog.Catalog, error) {
	if cfg.Catalog.Path == "" {
		return catalog.Default(), nil
	}
	c, err := catalog.Load(cfg.Catalog.Path)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	return c, nil
}

// openHistory opens the run history database, or returns nil when none
// exists yet and create is false.
func openHistory(cfg *config.Config, create bool) (*state.DB, error) {
	if !create {
		if _, err := os.Stat(cfg.State.DBPath); os.IsNotExist(err) {
			return nil, nil
		}
	}
	db, err := state.Open(cfg.State.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return db, nil
}

func printStatus(symbol, message string, colorAttr color.Attribute) {
	c := color.New(colorAttr)
	fmt.Printf("%s %s\n", c.Sprint(symbol), message)
}

func printAdvice(w io.Writer, level models.AdviceLevel, message string) {
	symbol, attr := "•", color.FgCyan
	switch level {
	case models.AdviceWarning:
		symbol, attr = "⚠", color.FgYellow
	case models.AdviceError:
		symbol, attr = "✗", color.FgRed
	}
	fmt.Fprintf(w, "%s %s\n", color.New(attr).Sprint(symbol), message)
}

func printPlan(w io.Writer, r *decompose.Result) {
	fmt.Fprintf(w, "Template: %s (%s)\n", r.Template, r.Category)
	fmt.Fprintf(w, "Complexity: %s (score %.1f, %d tasks, %d dependencies, depth %d)\n",
		r.Complexity.Level, r.Complexity.Score, r.Complexity.SubtaskCount,
		r.Complexity.DependencyCount, r.Complexity.MaxDependencyDepth)
	fmt.Fprintf(w, "Estimated time: %s\n\n", r.TotalEstimatedTime)
	for _, step := range r.ExecutionPlan {
		line := fmt.Sprintf("  %d. %s [%s]", step.Step, step.Name, step.Role)
		if step.EstimatedTime != "" {
			line += " " + step.EstimatedTime
		}
		if len(step.Dependencies) > 0 {
			line += " after " + strings.Join(step.Dependencies, ", ")
		}
		if step.Forced {
			line += color.YellowString(" (forced)")
		}
		fmt.Fprintln(w, line)
	}
	for _, rec := range r.Recommendations {
		printAdvice(w, rec.Level, rec.Message)
	}
}

func printEvent(w io.Writer, ev queue.Event) {
	switch ev.Type {
	case queue.EventTaskStarted:
		fmt.Fprintf(w, "%s %s [%s]\n", color.CyanString("▶"), ev.TaskName, ev.Role)
	case queue.EventTaskRetry:
		fmt.Fprintf(w, "%s %s retrying after attempt %d: %v\n", color.YellowString("↻"), ev.TaskName, ev.Attempt, ev.Error)
	case queue.EventTaskCompleted:
		fmt.Fprintf(w, "%s %s (%s)\n", color.GreenString("✓"), ev.TaskName, ev.Duration.Round(10*time.Millisecond))
	case queue.EventTaskFailed:
		fmt.Fprintf(w, "%s %s: %v\n", color.RedString("✗"), ev.TaskName, ev.Error)
	case queue.EventTaskBlocked:
		fmt.Fprintf(w, "%s %s not run: %s\n", color.YellowString("⊘"), ev.TaskName, ev.Message)
	}
}
