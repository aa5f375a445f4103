package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/auto-assign/internal/assignment"
	"github.com/ziadkadry99/auto-assign/internal/governance"
)

var reportHTML string

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print an SLA performance report for all assignments",
	Long: `Builds a performance report (response and resolution times, SLA
compliance and quality per priority) from the configured store. The report
is printed as Markdown, or written as a standalone HTML page with --html.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger, err := newLogger(cfg)
		if err != nil {
			return err
		}
		defer logger.Sync()

		ctx := context.Background()
		s, err := newStack(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer s.Close()

		list, err := s.assignments.ListAssignments(ctx, assignment.ListFilter{})
		if err != nil {
			return fmt.Errorf("listing assignments: %w", err)
		}
		report := s.governance.GeneratePerformanceReport(list)

		if reportHTML == "" {
			fmt.Print(governance.RenderMarkdown(report))
			return nil
		}
		page, err := governance.RenderHTML(report)
		if err != nil {
			return err
		}
		if err := os.WriteFile(reportHTML, page, 0o644); err != nil {
			return fmt.Errorf("writing report: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Report written to %s\n", reportHTML)
		return nil
	},
}

func init() {
	reportCmd.Flags().StringVar(&reportHTML, "html", "", "write the report as HTML to this file")
	rootCmd.AddCommand(reportCmd)
}
