// sweep runs one overdue escalation sweep against the configured database and prints the result.
// Usage: from project root, run: go run ./cmd/sweep [--at 2024-03-03T11:00:00Z] [--dry-run]
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"grievance/config"
	"grievance/metrics"
	"grievance/models"
	"grievance/repository"
	"grievance/schema"
	"grievance/service"
	"grievance/utils"
	"grievance/worker"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env not found")
	}
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var (
		at     string
		policy string
		dryRun bool
	)

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Escalate every overdue complaint once",
		Long: `Run the overdue sweep a single time, outside the server's hourly scanner.

A complaint is overdue when its deadline is before the sweep time, it is not
RESOLVED or REJECTED, and it has not been escalated yet. Each one is escalated
to an admin in its own transaction.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			now := time.Now().UTC()
			if at != "" {
				t, err := time.Parse(time.RFC3339, at)
				if err != nil {
					return fmt.Errorf("invalid --at value: %w", err)
				}
				now = t.UTC()
			}

			cfg := config.LoadConfig()
			if policy != "" {
				cfg.Escalation.AdminPolicy = policy
			}
			selector, err := service.AdminSelectorByName(cfg.Escalation.AdminPolicy)
			if err != nil {
				return err
			}

			db, _, err := schema.Open(cfg.Database)
			if err != nil {
				return err
			}
			defer db.Close()
			store := repository.NewSQLStore(db)
			ctx := context.Background()

			if dryRun {
				overdue, err := store.Complaints().FindOverdue(ctx, now)
				if err != nil {
					return fmt.Errorf("failed to find overdue complaints: %w", err)
				}
				printCandidates(cmd.OutOrStdout(), now, overdue)
				return nil
			}

			escalationService := service.NewEscalationService(store, selector, utils.SystemClock{}, metrics.NewRecorder())
			summary, err := escalationService.SweepOverdue(ctx, now)
			if err != nil {
				return err
			}
			printSummary(cmd.OutOrStdout(), summary)
			if len(summary.Failed) > 0 {
				return fmt.Errorf("%d complaint(s) failed to escalate", len(summary.Failed))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&at, "at", "", "sweep time (RFC3339); defaults to now")
	cmd.Flags().StringVar(&policy, "policy", "", "admin selection policy: first or least_loaded (default from ESCALATION_ADMIN_POLICY)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "list overdue complaints without escalating")

	cmd.AddCommand(nextCmd())
	return cmd
}

func nextCmd() *cobra.Command {
	var count int

	cmd := &cobra.Command{
		Use:   "next",
		Short: "Show upcoming scanner fire times",
		RunE: func(cmd *cobra.Command, args []string) error {
			spec := config.LoadConfig().Escalation.Schedule
			if spec == "" {
				spec = worker.DefaultSchedule
			}
			schedule, err := cron.ParseStandard(spec)
			if err != nil {
				return fmt.Errorf("invalid escalation schedule %q: %w", spec, err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Schedule: %s\n", color.New(color.FgCyan).Sprint(spec))
			t := time.Now().UTC()
			for i := 0; i < count; i++ {
				t = schedule.Next(t)
				fmt.Fprintf(out, "  %s\n", t.Format(time.RFC3339))
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&count, "count", "n", 5, "number of fire times to show")
	return cmd
}

func printCandidates(out io.Writer, now time.Time, overdue []models.Complaint) {
	fmt.Fprintf(out, "Overdue at %s: %d\n", now.Format(time.RFC3339), len(overdue))
	for _, c := range overdue {
		late := now.Sub(c.Deadline.Time).Round(time.Minute)
		fmt.Fprintf(out, "  %s %s [%s/%s] %s\n",
			color.New(color.FgYellow).Sprint("OVERDUE"),
			c.ComplaintNumber, c.Status, c.Priority,
			color.New(color.FgRed).Sprintf("late by %s", late))
	}
}

func printSummary(out io.Writer, summary models.SweepSummary) {
	fmt.Fprintf(out, "Sweep %s at %s\n", summary.RunID, summary.SweepTime.Format(time.RFC3339))
	fmt.Fprintf(out, "  candidates: %d\n", summary.Candidates)
	fmt.Fprintf(out, "  %s %d\n", color.New(color.FgGreen).Sprint("escalated:"), len(summary.Escalated))
	fmt.Fprintf(out, "  %s %d\n", color.New(color.FgYellow).Sprint("skipped:  "), len(summary.Skipped))
	fmt.Fprintf(out, "  %s %d\n", color.New(color.FgRed).Sprint("failed:   "), len(summary.Failed))
	for _, f := range summary.Failed {
		fmt.Fprintf(out, "    complaint %d: %s\n", f.ComplaintID, f.Error)
	}
	fmt.Fprintf(out, "  took %s\n", summary.FinishedAt.Sub(summary.StartedAt).Round(time.Millisecond))
}
