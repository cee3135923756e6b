package gate

import (
	"time"

	"github.com/pennantlabs/tradegate/internal/calendar"
	"github.com/pennantlabs/tradegate/internal/observ"
)

// Reason identifies why the gate allowed or blocked trading. The four reasons
// are mutually exclusive: every instant maps to exactly one.
type Reason string

const (
	ReasonMarketClosedDay Reason = "MARKET_CLOSED_DAY"
	ReasonOpeningWindow   Reason = "OPENING_WINDOW_NO_TRADE"
	ReasonCloseWindow     Reason = "CLOSE_WINDOW_NO_TRADE"
	ReasonTradeAllowed    Reason = "TRADE_ALLOWED"
)

// Config holds the session window boundaries in Eastern time. Both boundaries
// are inclusive: a status computed exactly at the open or close minute is
// allowed.
type Config struct {
	OpenHour    int
	OpenMinute  int
	CloseHour   int
	CloseMinute int
}

// DefaultConfig blocks the opening volatility window (before 10:00) and the
// last five minutes before the close auction (after 15:55).
func DefaultConfig() Config {
	return Config{OpenHour: 10, OpenMinute: 0, CloseHour: 15, CloseMinute: 55}
}

// Status is the gate decision for a single instant. Recomputed fresh on every
// call; nothing is cached or persisted.
type Status struct {
	Allowed      bool      `json:"allowed"`
	Reason       Reason    `json:"reason"`
	NowET        time.Time `json:"now_et"`
	GateStartET  time.Time `json:"gate_start_et"`
	GateEndET    time.Time `json:"gate_end_et"`
	BlockedUntil time.Time `json:"blocked_until,omitempty"`
}

// At evaluates the trade gate for the given instant.
func At(t time.Time, cfg Config) Status {
	now := t.In(calendar.Eastern())
	start := time.Date(now.Year(), now.Month(), now.Day(), cfg.OpenHour, cfg.OpenMinute, 0, 0, calendar.Eastern())
	end := time.Date(now.Year(), now.Month(), now.Day(), cfg.CloseHour, cfg.CloseMinute, 0, 0, calendar.Eastern())

	st := Status{
		NowET:       now,
		GateStartET: start,
		GateEndET:   end,
	}

	switch {
	case !calendar.TradingDay(now):
		st.Reason = ReasonMarketClosedDay
		st.BlockedUntil = nextOpen(now, cfg)

	case minuteOfDay(now) < minuteOfDay(start):
		st.Reason = ReasonOpeningWindow
		st.BlockedUntil = start

	case minuteOfDay(now) > minuteOfDay(end):
		st.Reason = ReasonCloseWindow
		st.BlockedUntil = nextOpen(now, cfg)

	default:
		st.Allowed = true
		st.Reason = ReasonTradeAllowed
	}

	observ.IncCounter("trade_gate_decisions_total", map[string]string{"reason": string(st.Reason)})
	return st
}

// Now evaluates the trade gate against the wall clock.
func Now(cfg Config) Status {
	return At(time.Now(), cfg)
}

// minuteOfDay compares at whole-minute granularity so 15:55:59 is still
// inside an inclusive 15:55 boundary.
func minuteOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

// nextOpen returns the gate start of the first trading day after now's ET day.
func nextOpen(now time.Time, cfg Config) time.Time {
	day := calendar.NextTradingDay(now)
	return time.Date(day.Year(), day.Month(), day.Day(), cfg.OpenHour, cfg.OpenMinute, 0, 0, calendar.Eastern())
}
