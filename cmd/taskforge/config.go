package main

import (
	"fmt"
	"sort"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ShayCichocki/taskforge/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config [key] [value]",
	Short: "Manage configuration",
	Long: `View or modify taskforge configuration.

Without arguments, displays current configuration.
With one argument (key), displays the value for that key.
With two arguments (key value), sets the configuration value.

Configuration is stored at ~/.config/taskforge/config.yaml
Project-specific overrides can be placed in .taskforge.yaml
Per-role commands use keys like executor.commands.bmad:dev`,
	Args: cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		switch len(args) {
		case 0:
			return displayAllConfig(cmd)
		case 1:
			return displayConfigKey(cmd, args[0])
		default:
			return setConfigKey(args[0], args[1])
		}
	},
}

// displayAllConfig prints all configuration values.
func displayAllConfig(cmd *cobra.Command) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "project.root: %s\n", cfg.Project.Root)
	for _, key := range config.Keys() {
		v, err := config.Get(key)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s: %v\n", key, v)
	}

	roles := make([]string, 0, len(cfg.Executor.Commands))
	for role := range cfg.Executor.Commands {
		roles = append(roles, role)
	}
	sort.Strings(roles)
	for _, role := range roles {
		fmt.Fprintf(out, "executor.commands.%s: %s\n", role, cfg.Executor.Commands[role])
	}
	return nil
}

// displayConfigKey prints a single configuration value.
func displayConfigKey(cmd *cobra.Command, key string) error {
	v, err := config.Get(key)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), v)
	return nil
}

// setConfigKey sets a configuration value in the user config file.
func setConfigKey(key, value string) error {
	if err := config.Set(key, value); err != nil {
		return err
	}
	printStatus("✓", fmt.Sprintf("Set %s = %s in %s", key, value, config.GetUserConfigPath()), color.FgGreen)
	return nil
}
