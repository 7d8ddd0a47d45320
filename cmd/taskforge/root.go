package main

import (
	"os"

	"github.com/spf13/cobra"
)

// configPath overrides config discovery when set.
var configPath string

var rootCmd = &cobra.Command{
	Use:   "taskforge",
	Short: "Goal classification, decomposition and task queue runner",
	Long: `Taskforge classifies a goal, breaks it into role tasks from a template
catalog, and runs them through a dependency-aware queue with bounded
concurrency and retries.

Usage:
  taskforge run "Create a React component library"
  taskforge plan "Design a responsive navigation" --json
  taskforge stop

Supported roles:
  bmad:analyst             requirements analysis
  bmad:architect           system architecture
  bmad:dev                 development and implementation
  bmad:tea                 testing and quality assurance
  bmad:ux-expert           user experience design
  frontend-design-claude2  frontend design
  javascript-pro           JavaScript development
  frontend-tester          frontend testing

Goal types:
  component creation, page design, feature development,
  performance optimization, testing, documentation, bug fixes

Outputs:
  docs/automation-report-{timestamp}.md   execution report
  .taskforge/taskforge.db                 run history
  .taskforge/logs/taskforge-debug.log     debug log

Configuration is read from ~/.config/taskforge/config.yaml, then
.taskforge.yaml in the project, then TASKFORGE_* environment variables.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: user config merged with .taskforge.yaml)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(classifyCmd)
	rootCmd.AddCommand(templatesCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}
