package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ShayCichocki/taskforge/internal/config"
	"github.com/ShayCichocki/taskforge/internal/control"
	"github.com/ShayCichocki/taskforge/internal/executor"
	"github.com/ShayCichocki/taskforge/internal/logging"
	"github.com/ShayCichocki/taskforge/internal/metrics"
	"github.com/ShayCichocki/taskforge/internal/report"
)

var (
	runConcurrency int
	runMaxRetries  int
	runMode        string
	runNoReport    bool
	runNoHistory   bool
	runMetricsAddr string
	runPlain       bool
)

var runCmd = &cobra.Command{
	Use:   "run <goal>",
	Short: "Classify, decompose and execute a goal",
	Long: `Run classifies the goal, decomposes it into role tasks and executes them
through the task queue. A task starts only after all of its dependencies
completed. Failed attempts are retried with linear backoff.

When the run ends a markdown report is written to the report directory and
the run is recorded in the history database.

Stop a running run from another terminal with 'taskforge stop', or with
Ctrl-C. Running tasks finish; nothing new is dispatched.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRun,
}

func init() {
	runCmd.Flags().IntVar(&runConcurrency, "concurrency", 0, "Maximum tasks running at once (default from config)")
	runCmd.Flags().IntVar(&runMaxRetries, "max-retries", -1, "Retries after a failed attempt (default from config)")
	runCmd.Flags().StringVar(&runMode, "mode", "", "Executor mode: simulate or command (default from config)")
	runCmd.Flags().BoolVar(&runNoReport, "no-report", false, "Skip writing the markdown report")
	runCmd.Flags().BoolVar(&runNoHistory, "no-history", false, "Do not record the run in the history database")
	runCmd.Flags().StringVar(&runMetricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address during the run")
	runCmd.Flags().BoolVar(&runPlain, "plain", false, "Print the final report as plain text with task details")
}

func runRun(cmd *cobra.Command, args []string) error {
	goal := joinArgs(args)

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	applyRunFlags(cmd, cfg)

	logger := openLogger(cfg)
	defer logger.Close()

	cat, err := loadCatalog(cfg)
	if err != nil {
		return err
	}

	exec, err := executor.ForConfig(cfg.Executor, logger)
	if err != nil {
		return err
	}

	reg, m := metrics.NewRegistry()
	ctx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	if cfg.Metrics.Addr != "" {
		metricsCtx, stopMetrics := context.WithCancel(ctx)
		defer stopMetrics()
		addr, errc, err := metrics.Serve(metricsCtx, cfg.Metrics.Addr, reg)
		if err != nil {
			return fmt.Errorf("serve metrics: %w", err)
		}
		printStatus("•", fmt.Sprintf("metrics on http://%s/metrics", addr), color.FgCyan)
		go logServeErr(errc, logger)
	}

	watcher, err := control.NewWatcher(cfg.Project.Root, logger)
	if err != nil {
		return err
	}
	defer watcher.Close()
	runCtx, cancel := watcher.WithStop(ctx)
	defer cancel()

	p := &pipeline{
		cfg:     cfg,
		catalog: cat,
		exec:    exec,
		logger:  logger,
		metrics: m,
		out:     cmd.OutOrStdout(),
	}
	if !runNoHistory {
		db, err := openHistory(cfg, true)
		if err != nil {
			return err
		}
		defer db.Close()
		p.store = db
	}

	res, err := p.run(runCtx, goal)
	if res != nil && res.Summary != nil {
		fmt.Fprintln(cmd.OutOrStdout())
		if runPlain {
			fmt.Fprint(cmd.OutOrStdout(), report.Text(res.Summary, res.Concurrency, res.Logs))
		} else if cerr := report.Console(cmd.OutOrStdout(), res.Summary); cerr != nil {
			logger.Log("[run] console report: %v", cerr)
		}
		if res.ReportPath != "" {
			printStatus("✓", "Report written to "+res.ReportPath, color.FgGreen)
		}
		if res.Summary.Cancelled {
			printStatus("⚠", "Run stopped before all tasks were dispatched", color.FgYellow)
		}
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// logServeErr reports a metrics server that stopped with an error.
// Serve always sends once, so this returns after shutdown.
func logServeErr(errc <-chan error, logger *logging.DebugLogger) {
	if err := <-errc; err != nil {
		logger.Log("[run] metrics server: %v", err)
		printStatus("⚠", fmt.Sprintf("metrics server stopped: %v", err), color.FgYellow)
	}
}

// applyRunFlags lets explicitly set flags override config values.
func applyRunFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("concurrency") {
		cfg.Queue.Concurrency = runConcurrency
	}
	if flags.Changed("max-retries") {
		cfg.Queue.MaxRetries = runMaxRetries
	}
	if flags.Changed("mode") {
		cfg.Executor.Mode = runMode
	}
	if runNoReport {
		cfg.Report.Enabled = false
	}
	if flags.Changed("metrics-addr") {
		cfg.Metrics.Addr = runMetricsAddr
	}
}
