package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ShayCichocki/taskforge/internal/control"
)

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the active run in this project",
	Long: `Stop signals a running 'taskforge run' in the same project to stop
dispatching tasks. Tasks already running finish; the rest stay pending.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if err := control.RequestStop(cfg.Project.Root); err != nil {
			return err
		}
		printStatus("✓", "Stop requested", color.FgGreen)
		return nil
	},
}
