package gate

import (
	"testing"
	"time"

	"github.com/pennantlabs/tradegate/internal/calendar"
)

func at(hour, min, sec int) time.Time {
	// Tuesday 2025-03-04, a regular trading day (EST).
	return time.Date(2025, time.March, 4, hour, min, sec, 0, calendar.Eastern())
}

func TestAt_WindowBoundaries(t *testing.T) {
	cfg := DefaultConfig()

	cases := []struct {
		when   time.Time
		allow  bool
		reason Reason
	}{
		{at(9, 59, 59), false, ReasonOpeningWindow},
		{at(10, 0, 0), true, ReasonTradeAllowed},
		{at(12, 30, 0), true, ReasonTradeAllowed},
		{at(15, 55, 0), true, ReasonTradeAllowed},
		{at(15, 55, 59), true, ReasonTradeAllowed}, // still inside the 15:55 minute
		{at(15, 56, 0), false, ReasonCloseWindow},
		{at(20, 0, 0), false, ReasonCloseWindow},
	}
	for _, c := range cases {
		st := At(c.when, cfg)
		if st.Allowed != c.allow || st.Reason != c.reason {
			t.Errorf("%s: want (%v,%s) got (%v,%s)",
				c.when.Format("15:04:05"), c.allow, c.reason, st.Allowed, st.Reason)
		}
	}
}

func TestAt_ClosedDay(t *testing.T) {
	st := At(time.Date(2025, time.July, 4, 12, 0, 0, 0, calendar.Eastern()), DefaultConfig())
	if st.Allowed || st.Reason != ReasonMarketClosedDay {
		t.Fatalf("holiday: want MARKET_CLOSED_DAY, got %v %s", st.Allowed, st.Reason)
	}
	if got := st.BlockedUntil.Format("2006-01-02 15:04"); got != "2025-07-07 10:00" {
		t.Fatalf("blocked until next session open, got %s", got)
	}

	st = At(time.Date(2025, time.March, 8, 12, 0, 0, 0, calendar.Eastern()), DefaultConfig())
	if st.Reason != ReasonMarketClosedDay {
		t.Fatalf("Saturday: want MARKET_CLOSED_DAY, got %s", st.Reason)
	}
}

func TestAt_BlockedUntil(t *testing.T) {
	cfg := DefaultConfig()

	st := At(at(8, 30, 0), cfg)
	if got := st.BlockedUntil.Format("15:04"); got != "10:00" || st.BlockedUntil.Day() != 4 {
		t.Fatalf("premarket blocks until today's open, got %s", st.BlockedUntil)
	}

	st = At(at(16, 30, 0), cfg)
	if got := st.BlockedUntil.Format("2006-01-02 15:04"); got != "2025-03-05 10:00" {
		t.Fatalf("after close blocks until next open, got %s", got)
	}
}

func TestAt_ReasonsAreTotal(t *testing.T) {
	// Every minute of a trading day maps to exactly one reason.
	cfg := DefaultConfig()
	seen := map[Reason]int{}
	for minute := 0; minute < 24*60; minute++ {
		st := At(at(minute/60, minute%60, 0), cfg)
		seen[st.Reason]++
	}
	if seen[ReasonMarketClosedDay] != 0 {
		t.Fatal("trading day should never report MARKET_CLOSED_DAY")
	}
	if got := seen[ReasonOpeningWindow] + seen[ReasonCloseWindow] + seen[ReasonTradeAllowed]; got != 24*60 {
		t.Fatalf("reasons not total: %v", seen)
	}
	if seen[ReasonTradeAllowed] != 356 { // 10:00 through 15:55 inclusive
		t.Fatalf("want 356 allowed minutes, got %d", seen[ReasonTradeAllowed])
	}
}

func TestAt_CustomWindow(t *testing.T) {
	cfg := Config{OpenHour: 9, OpenMinute: 30, CloseHour: 16, CloseMinute: 0}
	if st := At(at(9, 30, 0), cfg); !st.Allowed {
		t.Fatal("custom open boundary should be inclusive")
	}
	if st := At(at(9, 29, 0), cfg); st.Reason != ReasonOpeningWindow {
		t.Fatal("before custom open should be OPENING_WINDOW_NO_TRADE")
	}
}
