package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ziadkadry99/auto-assign/internal/assignment"
	"github.com/ziadkadry99/auto-assign/internal/incident"
	"github.com/ziadkadry99/auto-assign/internal/progress"
)

var assignJSON bool

var assignCmd = &cobra.Command{
	Use:   "assign <file-or-glob>...",
	Short: "Assign owners to incidents read from YAML or JSON files",
	Long: `Reads incidents from the given files (globs such as incidents/**/*.yml
are expanded) and assigns each one to the best available owner. Each file
holds a single incident or a list of them.`,
	Args: cobra.MinimumNArgs(1),
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

		files, err := incident.ExpandPatterns(args)
		if err != nil {
			return err
		}
		var incidents []incident.Incident
		for _, f := range files {
			batch, err := incident.LoadFile(f)
			if err != nil {
				return err
			}
			incidents = append(incidents, batch...)
		}
		if len(incidents) == 0 {
			return fmt.Errorf("no incidents found in %d file(s)", len(files))
		}

		ctx := context.Background()
		s, err := newStack(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer s.Close()

		results := assignAll(ctx, s.assignments, incidents, progress.NewReporter(), logger)

		if assignJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(results)
		}
		printAssignResults(results)

		for _, r := range results {
			if r.Error != "" {
				return fmt.Errorf("some incidents could not be assigned")
			}
		}
		return nil
	},
}

type assignResult struct {
	IncidentID string                 `json:"incident_id"`
	Assignment *assignment.Assignment `json:"assignment,omitempty"`
	Error      string                 `json:"error,omitempty"`
}

func assignAll(ctx context.Context, engine *assignment.Engine, incidents []incident.Incident, reporter progress.Reporter, logger *zap.Logger) []assignResult {
	reporter.Start(len(incidents))
	defer reporter.Finish()

	now := time.Now()
	results := make([]assignResult, 0, len(incidents))
	for _, inc := range incidents {
		if inc.CreatedAt.IsZero() {
			inc.CreatedAt = now
		}
		res := assignResult{IncidentID: inc.ID}
		a, err := assignOne(ctx, engine, inc)
		if err != nil {
			logger.Warn("assignment failed", zap.String("incident", inc.ID), zap.Error(err))
			res.Error = err.Error()
			reporter.Failed(inc.ID, err)
		} else {
			res.Assignment = &a
			reporter.Assigned(inc.ID, a.PrimaryOwner.Name)
		}
		results = append(results, res)
	}
	return results
}

func assignOne(ctx context.Context, engine *assignment.Engine, inc incident.Incident) (assignment.Assignment, error) {
	if err := inc.Validate(); err != nil {
		return assignment.Assignment{}, err
	}
	return engine.AssignResponsibility(ctx, inc)
}

func printAssignResults(results []assignResult) {
	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "INCIDENT\tPRIORITY\tPRIMARY\tSECONDARY\tRESPOND BY")
	for _, r := range results {
		if r.Error != "" {
			fmt.Fprintf(tw, "%s\t-\t-\t-\terror: %s\n", r.IncidentID, r.Error)
			continue
		}
		a := r.Assignment
		secondary := "-"
		if a.SecondaryOwner != nil {
			secondary = a.SecondaryOwner.Name
		}
		respondBy := a.AssignedAt.Add(time.Duration(a.SLATarget.ResponseTime) * time.Minute)
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			r.IncidentID, a.Priority, a.PrimaryOwner.Name, secondary, respondBy.Format(time.DateTime))
	}
	tw.Flush()
}

func init() {
	assignCmd.Flags().BoolVar(&assignJSON, "json", false, "print results as JSON")
	rootCmd.AddCommand(assignCmd)
}
