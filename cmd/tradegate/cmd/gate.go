package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pennantlabs/tradegate/internal/gate"
)

var gateCmd = &cobra.Command{
	Use:   "gate",
	Short: "Show whether trading is currently allowed",
	Long: `Evaluate the trade gate for now or for a given instant.

Examples:
  tradegate gate
  tradegate gate --at 2025-03-04T09:45:00-05:00
  tradegate gate --json`,
	Args: cobra.NoArgs,
	RunE: runGate,
}

var (
	gateAt   string
	gateJSON bool
)

func init() {
	rootCmd.AddCommand(gateCmd)
	gateCmd.Flags().StringVar(&gateAt, "at", "", "evaluate at this RFC3339 instant instead of now")
	gateCmd.Flags().BoolVar(&gateJSON, "json", false, "emit the raw status as JSON")
}

func runGate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	gc, err := gateConfigFrom(cfg.Gate)
	if err != nil {
		return err
	}

	at := time.Now()
	if gateAt != "" {
		at, err = time.Parse(time.RFC3339, gateAt)
		if err != nil {
			return fmt.Errorf("parse --at: %w", err)
		}
	}

	st := gate.At(at, gc)
	if gateJSON {
		return json.NewEncoder(os.Stdout).Encode(st)
	}

	if st.Allowed {
		fmt.Printf("OPEN  %s (window %s to %s ET)\n",
			st.NowET.Format("2006-01-02 15:04"),
			st.GateStartET.Format("15:04"), st.GateEndET.Format("15:04"))
		return nil
	}
	fmt.Printf("CLOSED  %s  reason=%s", st.NowET.Format("2006-01-02 15:04"), st.Reason)
	if !st.BlockedUntil.IsZero() {
		fmt.Printf("  next open %s", st.BlockedUntil.Format("2006-01-02 15:04 MST"))
	}
	fmt.Println()
	return nil
}
