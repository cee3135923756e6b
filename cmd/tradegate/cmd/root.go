package cmd

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/pennantlabs/tradegate/internal/config"
	"github.com/pennantlabs/tradegate/internal/gate"
	"github.com/pennantlabs/tradegate/internal/regime"
)

var rootCmd = &cobra.Command{
	Use:   "tradegate",
	Short: "Trade gate, market context, and performance reporting for NYSE day trading",
	Long: `Tradegate answers the questions a discretionary day trader asks before
and after the session:

  - Is the market open, and are we inside the tradeable window?
  - What risk regime are we in, and should the gate be forced closed?
  - How did the week go: daily P&L, win rate, profit factor, drawdown?

State lives in a local SQLite journal; market data comes from Alpaca with a
Yahoo Finance fallback.`,
	SilenceUsage: true,
}

var cfgPath string

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(func() { _ = godotenv.Load() })
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "config/config.yaml", "path to YAML config")
}

func loadConfig() (config.Root, error) {
	return config.Load(cfgPath)
}

func gateConfigFrom(g config.Gate) (gate.Config, error) {
	openH, openM, err := config.ParseHourMinute(g.OpenET)
	if err != nil {
		return gate.Config{}, err
	}
	closeH, closeM, err := config.ParseHourMinute(g.CloseET)
	if err != nil {
		return gate.Config{}, err
	}
	return gate.Config{OpenHour: openH, OpenMinute: openM, CloseHour: closeH, CloseMinute: closeM}, nil
}

func policyFrom(p config.Policy) regime.PolicyConfig {
	return regime.PolicyConfig{
		Version:        p.Version,
		VIXModerate:    p.VIXModerate,
		VIXHigh:        p.VIXHigh,
		GapModerate:    p.GapModerate,
		GapHigh:        p.GapHigh,
		BreadthRiskOff: p.BreadthRiskOff,
		Normal:         regime.Controls{RiskScale: p.Normal.RiskScale, MaxPositions: p.Normal.MaxPositions},
		Moderate:       regime.Controls{RiskScale: p.Moderate.RiskScale, MaxPositions: p.Moderate.MaxPositions},
		High:           regime.Controls{RiskScale: p.High.RiskScale, MaxPositions: p.High.MaxPositions},
	}
}
