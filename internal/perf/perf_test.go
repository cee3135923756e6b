package perf

import (
	"math"
	"testing"
	"time"

	"github.com/pennantlabs/tradegate/internal/calendar"
)

func closedAt(day, hour int, pnl float64) ClosedTrade {
	return ClosedTrade{
		ClosedAt:    time.Date(2025, time.March, day, hour, 0, 0, 0, calendar.Eastern()),
		RealizedPnL: pnl,
	}
}

func TestSummarize_ProfitFactorCap(t *testing.T) {
	s := Summarize(100000, []ClosedTrade{closedAt(4, 11, 50)}, DefaultConfig())
	if s.ProfitFactor != 99 {
		t.Fatalf("one win and zero losses: want capped profit factor 99, got %v", s.ProfitFactor)
	}

	s = Summarize(100000, nil, DefaultConfig())
	if s.ProfitFactor != 0 {
		t.Fatalf("no trades: want profit factor 0, got %v", s.ProfitFactor)
	}

	s = Summarize(100000, []ClosedTrade{closedAt(4, 11, -50)}, DefaultConfig())
	if s.ProfitFactor != 0 {
		t.Fatalf("losses only: want profit factor 0, got %v", s.ProfitFactor)
	}

	cfg := Config{ProfitFactorCap: 10}
	s = Summarize(100000, []ClosedTrade{closedAt(4, 11, 50)}, cfg)
	if s.ProfitFactor != 10 {
		t.Fatalf("cap is configurable, got %v", s.ProfitFactor)
	}
}

func TestSummarize_ProfitFactorRatio(t *testing.T) {
	trades := []ClosedTrade{
		closedAt(4, 10, 300),
		closedAt(4, 12, -100),
		closedAt(5, 11, -50),
	}
	s := Summarize(100000, trades, DefaultConfig())
	if got := s.ProfitFactor; math.Abs(got-2.0) > 1e-9 {
		t.Fatalf("want profit factor 2.0, got %v", got)
	}
	if s.Wins != 1 || s.Losses != 2 {
		t.Fatalf("want 1 win 2 losses, got %d/%d", s.Wins, s.Losses)
	}
	if math.Abs(s.WinRatePct-100.0/3) > 1e-9 {
		t.Fatalf("win rate: got %v", s.WinRatePct)
	}
}

func TestSummarize_MaxDrawdown(t *testing.T) {
	// Equity path 100000 -> 100100 -> 99900: 200 off a 100100 peak.
	trades := []ClosedTrade{
		closedAt(4, 10, 100),
		closedAt(4, 14, -200),
	}
	s := Summarize(100000, trades, DefaultConfig())
	want := 200.0 / 100100 * 100
	if math.Abs(s.MaxDrawdownPct-want) > 1e-6 {
		t.Fatalf("want drawdown %.4f%%, got %.4f%%", want, s.MaxDrawdownPct)
	}
}

func TestSummarize_DrawdownUsesCloseOrder(t *testing.T) {
	// Same trades delivered out of order must walk the same path.
	trades := []ClosedTrade{
		closedAt(4, 14, -200),
		closedAt(4, 10, 100),
	}
	s := Summarize(100000, trades, DefaultConfig())
	want := 200.0 / 100100 * 100
	if math.Abs(s.MaxDrawdownPct-want) > 1e-6 {
		t.Fatalf("want drawdown %.4f%%, got %.4f%%", want, s.MaxDrawdownPct)
	}
}

func TestDailySeries(t *testing.T) {
	trades := []ClosedTrade{
		closedAt(4, 10, 100),
		closedAt(4, 14, -40),
		closedAt(6, 11, 25),
	}
	series := DailySeries(100000, 10, trades)
	if len(series) != 2 {
		t.Fatalf("want 2 day buckets, got %d", len(series))
	}
	first := series[0]
	if first.Date != "2025-03-04" || first.RealizedPnL != 60 || first.CumulativePnL != 60 {
		t.Fatalf("first bucket: %+v", first)
	}
	if first.Equity != 100070 { // starting + cumulative + unrealized
		t.Fatalf("first bucket equity: %v", first.Equity)
	}
	second := series[1]
	if second.Date != "2025-03-06" || second.CumulativePnL != 85 {
		t.Fatalf("second bucket: %+v", second)
	}
}

func TestWeeklySlots(t *testing.T) {
	// Thursday 2025-06-19 is Juneteenth; the week runs 06-16 through 06-20.
	now := time.Date(2025, time.June, 20, 12, 0, 0, 0, calendar.Eastern())
	trades := []ClosedTrade{
		{ClosedAt: time.Date(2025, time.June, 17, 11, 0, 0, 0, calendar.Eastern()), RealizedPnL: 80},
	}
	slots := WeeklySlots(now, trades)
	if len(slots) != 5 {
		t.Fatalf("want 5 slots, got %d", len(slots))
	}
	if slots[0].Date != "2025-06-16" || slots[0].Status != SlotFlat {
		t.Fatalf("Monday: %+v", slots[0])
	}
	if slots[1].Status != SlotTraded || slots[1].RealizedPnL != 80 || slots[1].Trades != 1 {
		t.Fatalf("Tuesday: %+v", slots[1])
	}
	if slots[3].Status != SlotMarketClosed {
		t.Fatalf("Juneteenth Thursday should be market_closed: %+v", slots[3])
	}
	if slots[4].Status != SlotFlat { // today, no trades yet
		t.Fatalf("Friday: %+v", slots[4])
	}
}

func TestWeeklySlots_FutureDaysPending(t *testing.T) {
	now := time.Date(2025, time.March, 4, 12, 0, 0, 0, calendar.Eastern()) // Tuesday
	slots := WeeklySlots(now, nil)
	if slots[2].Status != SlotPending || slots[3].Status != SlotPending || slots[4].Status != SlotPending {
		t.Fatalf("Wed-Fri should be pending: %+v", slots)
	}
	if slots[0].Status != SlotFlat {
		t.Fatalf("elapsed Monday with no trades is flat: %+v", slots[0])
	}
}

func TestWeeklySlots_SundayAnchorsToCurrentWeek(t *testing.T) {
	// Sunday belongs to the week that ends, not the one starting tomorrow.
	now := time.Date(2025, time.March, 9, 12, 0, 0, 0, calendar.Eastern())
	slots := WeeklySlots(now, nil)
	if slots[0].Date != "2025-03-03" {
		t.Fatalf("Sunday should anchor to Monday 03-03, got %s", slots[0].Date)
	}
}
