package journal

import (
	"time"

	"github.com/pennantlabs/tradegate/internal/perf"
)

// The journal is the system of record for closed trades and equity
// snapshots. Open positions belong to the external execution system; only
// closed results flow in here, for reporting.

// Trade is one closed trade.
type Trade struct {
	ID          string    `json:"id"`
	Ticker      string    `json:"ticker"`
	Side        string    `json:"side"` // "long" | "short"
	EntryPrice  float64   `json:"entry_price"`
	ExitPrice   float64   `json:"exit_price"`
	EntryAt     time.Time `json:"entry_at"`
	ExitAt      time.Time `json:"exit_at"`
	RealizedPnL float64   `json:"realized_pnl"`
	ExitReason  string    `json:"exit_reason"`
}

// Closed projects the trade onto the view the perf package aggregates.
func (t Trade) Closed() perf.ClosedTrade {
	return perf.ClosedTrade{ClosedAt: t.ExitAt, RealizedPnL: t.RealizedPnL}
}

// ClosedTrades projects a slice of trades for aggregation.
func ClosedTrades(trades []Trade) []perf.ClosedTrade {
	out := make([]perf.ClosedTrade, len(trades))
	for i, t := range trades {
		out[i] = t.Closed()
	}
	return out
}

// EquitySnapshot is a periodic account-level equity reading.
type EquitySnapshot struct {
	At            time.Time `json:"at"`
	Equity        float64   `json:"equity"`
	UnrealizedPnL float64   `json:"unrealized_pnl"`
}

// Store persists closed trades and equity snapshots.
type Store interface {
	RecordTrade(t Trade) error
	GetTrade(id string) (Trade, error)
	ListClosedBetween(start, end time.Time) ([]Trade, error)
	RecordEquity(s EquitySnapshot) error
	LatestEquity() (EquitySnapshot, bool, error)
	Close() error
}
