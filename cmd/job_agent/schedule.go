package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonathan/job-recommender/internal/scheduler"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run the full pipeline on a cron schedule",
	Long: `Keeps running and triggers a full run on schedule.cron (standard five-field cron,
or descriptors such as "@daily" and "@every 6h"). Stop with Ctrl+C.`,
	RunE: runSchedule,
}

var (
	scheduleCron  string
	scheduleNow   bool
	scheduleNoNow bool
)

func init() {
	scheduleCmd.Flags().StringVar(&scheduleCron, "cron", "", "Cron spec (defaults to schedule.cron from config)")
	scheduleCmd.Flags().BoolVar(&scheduleNow, "now", false, "Also run once immediately")
	scheduleCmd.Flags().BoolVar(&scheduleNoNow, "no-now", false, "Do not run on start even if schedule.run_on_start is set")
	rootCmd.AddCommand(scheduleCmd)
}

func runSchedule(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	spec := cfg.Schedule.Cron
	if scheduleCron != "" {
		spec = scheduleCron
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	r, _, cleanup, err := newRunner(ctx, cfg, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer cleanup()

	sched, err := scheduler.New(spec, func(ctx context.Context) error {
		result, err := r.Run(ctx, cfg.Preferences, nil)
		if err != nil {
			return err
		}
		if result.Recommendation == nil {
			log.Printf("[SCHEDULER] No postings found this run")
			return nil
		}
		log.Printf("[SCHEDULER] %d recommendations, notified: %v", len(result.Recommendation.Ranked), result.Notified)
		return nil
	})
	if err != nil {
		return err
	}

	runNow := (cfg.Schedule.RunOnStart || scheduleNow) && !scheduleNoNow
	sched.Start(ctx, runNow)
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "⏰ Scheduled %q, next run %s\n", spec, sched.Next().Format("Mon Jan 2 15:04 MST"))

	<-ctx.Done()
	sched.Stop()

	if runs := sched.Runs(); runs > 0 {
		at, lastErr := sched.LastResult()
		status := "ok"
		if lastErr != nil {
			status = lastErr.Error()
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "👋 Stopped after %d run(s); last finished %s (%s)\n", runs, at.Format(time.RFC3339), status)
	}
	return nil
}
