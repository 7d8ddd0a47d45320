package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var templatesCmd = &cobra.Command{
	Use:   "templates [category]",
	Short: "List task templates",
	Long: `Without arguments, lists every template category with its subtask count.
With a category, prints that template's subtasks.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runTemplates,
}

func runTemplates(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cat, err := loadCatalog(cfg)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(args) == 0 {
		for _, category := range cat.Categories() {
			tpl, _ := cat.Template(category)
			cycle := ""
			if tpl.HasCycle() {
				cycle = " (cyclic)"
			}
			fmt.Fprintf(out, "%-16s %-36s %d subtasks%s\n", category, tpl.Name, len(tpl.Subtasks), cycle)
		}
		return nil
	}

	tpl, ok := cat.Template(args[0])
	if !ok {
		return fmt.Errorf("unknown template category %q (have %s)", args[0], strings.Join(cat.Categories(), ", "))
	}
	fmt.Fprintf(out, "%s\n\n", tpl.Name)
	for _, st := range tpl.Subtasks {
		deps := ""
		if len(st.Dependencies) > 0 {
			deps = " after " + strings.Join(st.Dependencies, ", ")
		}
		fmt.Fprintf(out, "  %-12s p%d %-24s %s%s\n", st.ID, st.Priority, st.Role, st.EstimatedTime, deps)
		fmt.Fprintf(out, "               %s\n", st.Name)
	}
	return nil
}
