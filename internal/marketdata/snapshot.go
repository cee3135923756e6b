package marketdata

import (
	"context"
	"fmt"
	"time"

	"github.com/pennantlabs/tradegate/internal/regime"
)

// Symbols backing the market context snapshot.
const (
	vixSymbol     = "^VIX"
	futuresSymbol = "ES=F"
)

// SnapshotInputs carries the indicator readings that do not come from the
// quote providers. Breadth and the VIX percentile are produced upstream
// (scanner and historical distribution respectively) and passed through.
type SnapshotInputs struct {
	VIXPercentile  float64
	BreadthRiskOff float64
	RealizedVol    float64
}

// BuildSnapshot assembles a market context snapshot from live quotes: the VIX
// level and the overnight futures gap versus previous close.
func (m *Manager) BuildSnapshot(ctx context.Context, in SnapshotInputs) (regime.Snapshot, error) {
	vix, err := m.GetQuote(ctx, vixSymbol)
	if err != nil {
		return regime.Snapshot{}, fmt.Errorf("snapshot vix: %w", err)
	}
	futures, err := m.GetQuote(ctx, futuresSymbol)
	if err != nil {
		return regime.Snapshot{}, fmt.Errorf("snapshot futures: %w", err)
	}

	gapPct := 0.0
	if futures.PreviousClose > 0 {
		gapPct = (futures.Last - futures.PreviousClose) / futures.PreviousClose * 100
	}

	return regime.Snapshot{
		AsOf:           time.Now().UTC(),
		VIX:            vix.Last,
		VIXPercentile:  in.VIXPercentile,
		FuturesGapPct:  gapPct,
		RealizedVol:    in.RealizedVol,
		BreadthRiskOff: in.BreadthRiskOff,
	}, nil
}
