package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/pennantlabs/tradegate/internal/alerts"
	"github.com/pennantlabs/tradegate/internal/calendar"
	"github.com/pennantlabs/tradegate/internal/journal"
	"github.com/pennantlabs/tradegate/internal/perf"
	"github.com/pennantlabs/tradegate/internal/report"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Build the weekly performance report",
	Long: `Build the weekly report for the current ET week from the local journal.

With --post the report is also published to the configured Discord webhook.`,
	Args: cobra.NoArgs,
	RunE: runReport,
}

var reportPost bool

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.Flags().BoolVar(&reportPost, "post", false, "publish the report to Discord")
}

func runReport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store, err := journal.OpenSQLite(cfg.Journal.Path)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer store.Close()

	sched := report.NewScheduler(store, nil, report.Config{
		StartingEquity: cfg.Perf.StartingEquity,
		Perf:           perf.Config{ProfitFactorCap: cfg.Perf.ProfitFactorCap},
	}, calendar.Eastern())

	w, err := sched.BuildFromJournal(time.Now())
	if err != nil {
		return fmt.Errorf("build report: %w", err)
	}

	text := w.Render()
	fmt.Println(text)

	if reportPost {
		discord := alerts.NewDiscordClient(alerts.Config{
			WebhookURL:       cfg.Alerts.DiscordWebhookURL,
			Username:         cfg.Alerts.Username,
			DedupeWindowSecs: cfg.Alerts.DedupeWindowSecs,
			RateLimitPerMin:  cfg.Alerts.RateLimitPerMin,
		})
		if !discord.Enabled() {
			return fmt.Errorf("no Discord webhook configured")
		}
		discord.Publish(alerts.Post{
			Title: "Weekly Performance Report",
			Body:  text,
			Color: alerts.ColorBlue,
		})
		// Give the async worker a moment to flush before exit.
		time.Sleep(2 * time.Second)
		discord.Close()
		fmt.Println("posted to Discord")
	}
	return nil
}
