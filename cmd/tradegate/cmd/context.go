package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pennantlabs/tradegate/internal/config"
	"github.com/pennantlabs/tradegate/internal/marketdata"
	"github.com/pennantlabs/tradegate/internal/regime"
)

var contextCmd = &cobra.Command{
	Use:   "context",
	Short: "Evaluate the market risk regime from live quotes",
	Long: `Pull VIX and futures quotes, build a market snapshot, and run the
risk-regime policy over it.

Inputs the providers cannot supply (breadth score, VIX percentile, realized
vol) can be passed as flags; they default to neutral.

Examples:
  tradegate context
  tradegate context --breadth -0.7 --vix-percentile 0.9
  tradegate context --json`,
	Args: cobra.NoArgs,
	RunE: runContext,
}

var (
	ctxBreadth   float64
	ctxVIXPctile float64
	ctxRealized  float64
	ctxJSON      bool
)

func init() {
	rootCmd.AddCommand(contextCmd)
	contextCmd.Flags().Float64Var(&ctxBreadth, "breadth", 0, "breadth risk-off score in [-1, 1]")
	contextCmd.Flags().Float64Var(&ctxVIXPctile, "vix-percentile", 0, "VIX percentile in [0, 1]")
	contextCmd.Flags().Float64Var(&ctxRealized, "realized-vol", 0, "annualized realized volatility")
	contextCmd.Flags().BoolVar(&ctxJSON, "json", false, "emit snapshot and decision as JSON")
}

func runContext(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	mgr := quotesFrom(cfg.MarketData)
	defer mgr.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	snap, err := mgr.BuildSnapshot(ctx, marketdata.SnapshotInputs{
		BreadthRiskOff: ctxBreadth,
		VIXPercentile:  ctxVIXPctile,
		RealizedVol:    ctxRealized,
	})
	if err != nil {
		return fmt.Errorf("build snapshot: %w", err)
	}

	decision := regime.Evaluate(snap, policyFrom(cfg.Policy))
	if ctxJSON {
		return json.NewEncoder(os.Stdout).Encode(map[string]any{
			"snapshot": snap, "decision": decision,
		})
	}

	fmt.Printf("regime: %s  gate: %s\n", decision.Regime, decision.TradeGate)
	fmt.Printf("vix: %.2f  futures gap: %+.2f%%  breadth: %+.2f\n",
		snap.VIX, snap.FuturesGapPct, snap.BreadthRiskOff)
	fmt.Printf("risk scale: %.2f", decision.RiskScale)
	if decision.MaxPositionsOverride > 0 {
		fmt.Printf("  max positions: %d", decision.MaxPositionsOverride)
	}
	fmt.Println()
	for _, n := range decision.Notes {
		fmt.Println("  -", n)
	}
	return nil
}

// quotesFrom builds the same provider chain the daemon uses.
func quotesFrom(md config.MarketData) *marketdata.Manager {
	cache := marketdata.NewQuoteCache(marketdata.CacheConfig{
		HighVolumeTTL: time.Duration(md.CacheHighVolumeSecs) * time.Second,
		NormalTTL:     time.Duration(md.CacheNormalSecs) * time.Second,
	})
	yahoo := marketdata.NewYahooProvider(marketdata.YahooConfig{
		BaseURL:            md.Yahoo.BaseURL,
		RateLimitPerMinute: md.Yahoo.RateLimitPerMinute,
	})
	alpaca, err := marketdata.NewAlpacaProvider(marketdata.AlpacaConfig{
		BaseURL:            md.Alpaca.BaseURL,
		KeyID:              md.Alpaca.KeyID,
		SecretKey:          md.Alpaca.SecretKey,
		RateLimitPerMinute: md.Alpaca.RateLimitPerMinute,
		DailyCap:           md.Alpaca.DailyCap,
	})
	if err != nil {
		return marketdata.NewManager(yahoo, nil, cache)
	}
	return marketdata.NewManager(alpaca, yahoo, cache)
}
