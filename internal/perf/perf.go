package perf

import (
	"sort"
	"time"

	"github.com/pennantlabs/tradegate/internal/calendar"
)

// Closed-trade aggregation for the daily equity series, the weekly report
// slots, and the headline summary numbers. Everything here is a pure walk
// over the input trades; persistence lives in the journal package.

// ClosedTrade is the minimal view of a trade this package needs.
type ClosedTrade struct {
	ClosedAt    time.Time
	RealizedPnL float64
}

// Config holds reporting knobs.
type Config struct {
	// ProfitFactorCap replaces an unbounded gross-profit/gross-loss ratio
	// when there are wins and literally zero losses.
	ProfitFactorCap float64
}

// DefaultConfig caps the profit factor at 99.
func DefaultConfig() Config {
	return Config{ProfitFactorCap: 99}
}

// DayBucket is one Eastern-time day of realized results.
type DayBucket struct {
	Date          string  `json:"date"` // YYYY-MM-DD, ET
	RealizedPnL   float64 `json:"realized_pnl"`
	CumulativePnL float64 `json:"cumulative_pnl"`
	Equity        float64 `json:"equity"`
}

// DailySeries buckets closed trades by ET day and accumulates equity as
// starting + cumulative realized + unrealized.
func DailySeries(startingEquity, unrealizedPnL float64, trades []ClosedTrade) []DayBucket {
	sorted := sortedByClose(trades)

	var out []DayBucket
	cumulative := 0.0
	for _, tr := range sorted {
		date := tr.ClosedAt.In(calendar.Eastern()).Format("2006-01-02")
		cumulative += tr.RealizedPnL
		if n := len(out); n > 0 && out[n-1].Date == date {
			out[n-1].RealizedPnL += tr.RealizedPnL
			out[n-1].CumulativePnL = cumulative
			out[n-1].Equity = startingEquity + cumulative + unrealizedPnL
			continue
		}
		out = append(out, DayBucket{
			Date:          date,
			RealizedPnL:   tr.RealizedPnL,
			CumulativePnL: cumulative,
			Equity:        startingEquity + cumulative + unrealizedPnL,
		})
	}
	return out
}

// SlotStatus describes a weekday slot in the current week's report.
type SlotStatus string

const (
	SlotTraded       SlotStatus = "traded"
	SlotFlat         SlotStatus = "flat"          // session ran, no trades closed
	SlotMarketClosed SlotStatus = "market_closed" // holiday inside the week
	SlotPending      SlotStatus = "pending"       // day not reached yet
)

// WeekSlot is one of the five weekday slots of the current ET week.
type WeekSlot struct {
	Date        string     `json:"date"`
	Weekday     string     `json:"weekday"`
	RealizedPnL float64    `json:"realized_pnl"`
	Trades      int        `json:"trades"`
	Status      SlotStatus `json:"status"`
}

// WeeklySlots anchors to the Monday of the ET week containing now and
// enumerates Monday through Friday, whether or not trades landed on each day.
func WeeklySlots(now time.Time, trades []ClosedTrade) []WeekSlot {
	monday := mondayOfWeek(now)
	today := now.In(calendar.Eastern()).Format("2006-01-02")

	byDay := map[string]*WeekSlot{}
	for _, tr := range trades {
		date := tr.ClosedAt.In(calendar.Eastern()).Format("2006-01-02")
		if s, ok := byDay[date]; ok {
			s.RealizedPnL += tr.RealizedPnL
			s.Trades++
		} else {
			byDay[date] = &WeekSlot{Date: date, RealizedPnL: tr.RealizedPnL, Trades: 1}
		}
	}

	slots := make([]WeekSlot, 0, 5)
	for i := 0; i < 5; i++ {
		day := monday.AddDate(0, 0, i)
		date := day.Format("2006-01-02")
		slot := WeekSlot{Date: date, Weekday: day.Weekday().String()}

		switch {
		case byDay[date] != nil:
			slot.RealizedPnL = byDay[date].RealizedPnL
			slot.Trades = byDay[date].Trades
			slot.Status = SlotTraded
		case date > today:
			slot.Status = SlotPending
		case !calendar.TradingDay(day):
			slot.Status = SlotMarketClosed
		default:
			slot.Status = SlotFlat
		}
		slots = append(slots, slot)
	}
	return slots
}

// Summary holds the headline performance numbers over a set of closed trades.
type Summary struct {
	Trades         int     `json:"trades"`
	Wins           int     `json:"wins"`
	Losses         int     `json:"losses"`
	WinRatePct     float64 `json:"win_rate_pct"`
	GrossProfit    float64 `json:"gross_profit"`
	GrossLoss      float64 `json:"gross_loss"`
	NetPnL         float64 `json:"net_pnl"`
	ProfitFactor   float64 `json:"profit_factor"`
	MaxDrawdownPct float64 `json:"max_drawdown_pct"`
}

// Summarize computes win rate, profit factor, and max drawdown from the
// cumulative equity path walked trade-by-trade in close order.
func Summarize(startingEquity float64, trades []ClosedTrade, cfg Config) Summary {
	s := Summary{Trades: len(trades)}

	equity := startingEquity
	peak := startingEquity
	for _, tr := range sortedByClose(trades) {
		switch {
		case tr.RealizedPnL > 0:
			s.Wins++
			s.GrossProfit += tr.RealizedPnL
		case tr.RealizedPnL < 0:
			s.Losses++
			s.GrossLoss += -tr.RealizedPnL
		}
		s.NetPnL += tr.RealizedPnL

		equity += tr.RealizedPnL
		if equity > peak {
			peak = equity
		}
		if peak > 0 {
			if dd := (peak - equity) / peak * 100; dd > s.MaxDrawdownPct {
				s.MaxDrawdownPct = dd
			}
		}
	}

	if s.Trades > 0 {
		s.WinRatePct = float64(s.Wins) / float64(s.Trades) * 100
	}

	switch {
	case s.GrossLoss > 0:
		s.ProfitFactor = s.GrossProfit / s.GrossLoss
	case s.GrossProfit > 0:
		s.ProfitFactor = cfg.ProfitFactorCap
	}
	return s
}

func sortedByClose(trades []ClosedTrade) []ClosedTrade {
	sorted := make([]ClosedTrade, len(trades))
	copy(sorted, trades)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].ClosedAt.Before(sorted[j].ClosedAt)
	})
	return sorted
}

// mondayOfWeek returns midnight ET on the Monday of the week containing t.
func mondayOfWeek(t time.Time) time.Time {
	d := t.In(calendar.Eastern())
	weekday := int(d.Weekday())
	if weekday == 0 {
		weekday = 7 // Sunday counts as the end of the week
	}
	monday := d.AddDate(0, 0, -(weekday - 1))
	return time.Date(monday.Year(), monday.Month(), monday.Day(), 0, 0, 0, 0, calendar.Eastern())
}
