package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ShayCichocki/taskforge/internal/intent"
)

var classifyJSON bool

var classifyCmd = &cobra.Command{
	Use:   "classify <goal>",
	Short: "Show how a goal is classified",
	Long: `Classify prints the primary goal type, every matching candidate, the
roles and workflows mapped to them, and suggestions for vague input.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runClassify,
}

func init() {
	classifyCmd.Flags().BoolVar(&classifyJSON, "json", false, "Print the analysis as JSON")
}

func runClassify(cmd *cobra.Command, args []string) error {
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

	a := intent.New(cat).Analyze(joinArgs(args))

	out := cmd.OutOrStdout()
	if classifyJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(a)
	}

	fmt.Fprintf(out, "Primary: %s [%s] confidence %.2f\n", a.Primary.Name, a.Primary.Category, a.Primary.Confidence)
	if len(a.Primary.MatchedPatterns) > 0 {
		fmt.Fprintf(out, "Matched: %s\n", strings.Join(a.Primary.MatchedPatterns, ", "))
	}
	fmt.Fprintf(out, "Overall confidence: %.2f\n", a.Confidence)
	if len(a.PrimaryMapping.Roles) > 0 {
		fmt.Fprintf(out, "Roles: %s\n", strings.Join(a.PrimaryMapping.Roles, ", "))
	}
	if len(a.PrimaryMapping.Workflows) > 0 {
		fmt.Fprintf(out, "Workflows: %s\n", strings.Join(a.PrimaryMapping.Workflows, ", "))
	}
	if len(a.Candidates) > 1 {
		fmt.Fprintln(out, "\nCandidates:")
		for _, c := range a.Candidates {
			fmt.Fprintf(out, "  %-28s %.2f\n", c.Name, c.Confidence)
		}
	}
	if len(a.Suggestions) > 0 {
		fmt.Fprintln(out)
		for _, s := range a.Suggestions {
			printAdvice(out, s.Level, s.Message)
		}
	}
	return nil
}
