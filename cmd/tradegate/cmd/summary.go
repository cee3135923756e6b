package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pennantlabs/tradegate/internal/journal"
	"github.com/pennantlabs/tradegate/internal/perf"
	"github.com/pennantlabs/tradegate/internal/report"
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show this week's performance from the local journal",
	Args:  cobra.NoArgs,
	RunE:  runSummary,
}

var summaryJSON bool

func init() {
	rootCmd.AddCommand(summaryCmd)
	summaryCmd.Flags().BoolVar(&summaryJSON, "json", false, "emit the summary as JSON")
}

func runSummary(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store, err := journal.OpenSQLite(cfg.Journal.Path)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer store.Close()

	now := time.Now()
	start, end := report.WeekRange(now)
	trades, err := store.ListClosedBetween(start, end)
	if err != nil {
		return fmt.Errorf("query trades: %w", err)
	}

	closed := journal.ClosedTrades(trades)
	summary := perf.Summarize(cfg.Perf.StartingEquity, closed, perf.Config{ProfitFactorCap: cfg.Perf.ProfitFactorCap})
	if summaryJSON {
		return json.NewEncoder(os.Stdout).Encode(summary)
	}

	fmt.Printf("trades: %d  wins: %d  losses: %d  win rate: %.1f%%\n",
		summary.Trades, summary.Wins, summary.Losses, summary.WinRatePct)
	fmt.Printf("net P&L: %+.2f USD  profit factor: %.2f  max drawdown: %.2f%%\n",
		summary.NetPnL, summary.ProfitFactor, summary.MaxDrawdownPct)

	for _, slot := range perf.WeeklySlots(now, closed) {
		fmt.Printf("  %-9s %s  %s\n", slot.Weekday, slot.Date, slot.Status)
	}
	return nil
}
