package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Sweep open assignments once and escalate SLA breaches",
	Long: `Runs a single SLA monitor sweep over every open assignment in the
configured store and prints the escalations it created. Useful from cron
when the server is not running.`,
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

		events, sweepErr := s.monitor.Sweep(ctx)
		if len(events) == 0 {
			fmt.Println("No assignments need escalation.")
		} else {
			tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ESCALATION\tINCIDENT\tTRIGGER\tLEVEL\tASSIGNED TO")
			for _, e := range events {
				assigned := e.AssignedTo
				if assigned == "" {
					assigned = "-"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", e.ID, e.IncidentID, e.Trigger, e.Level, assigned)
			}
			tw.Flush()
		}
		return sweepErr
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
