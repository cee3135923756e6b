package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/pennantlabs/tradegate/internal/calendar"
	"github.com/pennantlabs/tradegate/internal/perf"
	"github.com/pennantlabs/tradegate/internal/regime"
)

// Weekly is the assembled weekly performance report. Rendering is fully
// deterministic: the same inputs always produce the same text, so a report
// can be regenerated and diffed.
type Weekly struct {
	GeneratedAt time.Time        `json:"generated_at"`
	WeekStart   string           `json:"week_start"`
	Summary     perf.Summary     `json:"summary"`
	Slots       []perf.WeekSlot  `json:"slots"`
	Context     *regime.Decision `json:"context,omitempty"`
}

// BuildWeekly aggregates the week's closed trades into a report. The context
// decision is optional; report generation must not depend on live quotes.
func BuildWeekly(now time.Time, startingEquity float64, trades []perf.ClosedTrade, decision *regime.Decision, cfg perf.Config) Weekly {
	slots := perf.WeeklySlots(now, trades)
	return Weekly{
		GeneratedAt: now.UTC(),
		WeekStart:   slots[0].Date,
		Summary:     perf.Summarize(startingEquity, trades, cfg),
		Slots:       slots,
		Context:     decision,
	}
}

// Render produces the plain-text report body.
func (w Weekly) Render() string {
	var b strings.Builder

	fmt.Fprintf(&b, "Weekly Performance, week of %s\n\n", w.WeekStart)

	for _, slot := range w.Slots {
		switch slot.Status {
		case perf.SlotTraded:
			fmt.Fprintf(&b, "%-9s %s  %+.2f USD (%d trades)\n", slot.Weekday, slot.Date, slot.RealizedPnL, slot.Trades)
		case perf.SlotMarketClosed:
			fmt.Fprintf(&b, "%-9s %s  market closed\n", slot.Weekday, slot.Date)
		case perf.SlotPending:
			fmt.Fprintf(&b, "%-9s %s  pending\n", slot.Weekday, slot.Date)
		default:
			fmt.Fprintf(&b, "%-9s %s  no trades\n", slot.Weekday, slot.Date)
		}
	}

	s := w.Summary
	fmt.Fprintf(&b, "\nTrades: %d  Win rate: %.1f%%\n", s.Trades, s.WinRatePct)
	fmt.Fprintf(&b, "Net P&L: %+.2f USD  Profit factor: %.2f\n", s.NetPnL, s.ProfitFactor)
	fmt.Fprintf(&b, "Max drawdown: %.2f%%\n", s.MaxDrawdownPct)

	if w.Context != nil {
		fmt.Fprintf(&b, "\nMarket context: %s (risk scale %.2f, gate %s)\n",
			w.Context.Regime, w.Context.RiskScale, w.Context.TradeGate)
		for _, note := range w.Context.Notes {
			fmt.Fprintf(&b, "  - %s\n", note)
		}
	}
	return b.String()
}

// WeekRange returns the UTC bounds [start, end) covering the ET week
// containing now, for pulling the week's trades from the journal.
func WeekRange(now time.Time) (time.Time, time.Time) {
	d := now.In(calendar.Eastern())
	weekday := int(d.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	monday := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, calendar.Eastern()).AddDate(0, 0, -(weekday - 1))
	return monday.UTC(), monday.AddDate(0, 0, 7).UTC()
}
