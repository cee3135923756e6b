package calendar

import (
	"time"
)

// NYSE observes ten holidays per year on top of weekends. Fixed-date holidays
// that land on a Saturday are observed the preceding Friday; on a Sunday, the
// following Monday. Good Friday floats with Easter.

var eastern *time.Location

func init() {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		// The zone database ships with the Go toolchain; failing to load it
		// means the binary cannot reason about sessions at all.
		panic("calendar: load America/New_York: " + err.Error())
	}
	eastern = loc
}

// Eastern returns the exchange timezone (America/New_York).
func Eastern() *time.Location {
	return eastern
}

// TradingDay reports whether U.S. equity markets are open on the Eastern-time
// day containing t.
func TradingDay(t time.Time) bool {
	d := t.In(eastern)
	switch d.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	_, holiday := Holiday(t)
	return !holiday
}

// Holiday returns the observed holiday name for the Eastern-time day
// containing t, if any.
func Holiday(t time.Time) (string, bool) {
	d := t.In(eastern)
	day := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)

	// New Year's observed on a Friday lands in the prior calendar year, so
	// the next year's schedule has to be consulted too.
	for _, year := range []int{d.Year(), d.Year() + 1} {
		for _, h := range holidaysFor(year) {
			if h.date.Equal(day) {
				return h.name, true
			}
		}
	}
	return "", false
}

// NextTradingDay returns midnight ET of the first trading day strictly after
// the ET day containing t.
func NextTradingDay(t time.Time) time.Time {
	d := t.In(eastern)
	day := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, eastern)
	for {
		day = day.AddDate(0, 0, 1)
		if TradingDay(day) {
			return day
		}
	}
}

type observance struct {
	name string
	date time.Time // midnight UTC, day granularity
}

func holidaysFor(year int) []observance {
	return []observance{
		observedFixed("New Year's Day", year, time.January, 1),
		nthWeekday("Martin Luther King Jr. Day", year, time.January, time.Monday, 3),
		nthWeekday("Presidents Day", year, time.February, time.Monday, 3),
		goodFriday(year),
		lastWeekday("Memorial Day", year, time.May, time.Monday),
		observedFixed("Juneteenth", year, time.June, 19),
		observedFixed("Independence Day", year, time.July, 4),
		nthWeekday("Labor Day", year, time.September, time.Monday, 1),
		nthWeekday("Thanksgiving", year, time.November, time.Thursday, 4),
		observedFixed("Christmas Day", year, time.December, 25),
	}
}

// observedFixed applies the Saturday->Friday / Sunday->Monday shift.
func observedFixed(name string, year int, month time.Month, day int) observance {
	d := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	switch d.Weekday() {
	case time.Saturday:
		d = d.AddDate(0, 0, -1)
	case time.Sunday:
		d = d.AddDate(0, 0, 1)
	}
	return observance{name: name, date: d}
}

// nthWeekday returns the nth occurrence of weekday within the month.
func nthWeekday(name string, year int, month time.Month, weekday time.Weekday, n int) observance {
	d := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	offset := (int(weekday) - int(d.Weekday()) + 7) % 7
	d = d.AddDate(0, 0, offset+(n-1)*7)
	return observance{name: name, date: d}
}

// lastWeekday returns the final occurrence of weekday within the month.
func lastWeekday(name string, year int, month time.Month, weekday time.Weekday) observance {
	d := time.Date(year, month+1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)
	offset := (int(d.Weekday()) - int(weekday) + 7) % 7
	d = d.AddDate(0, 0, -offset)
	return observance{name: name, date: d}
}

// goodFriday is two days before Easter Sunday, computed with the Gauss
// algorithm for the Gregorian calendar.
func goodFriday(year int) observance {
	a := year % 19
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	month := time.Month((h + l - 7*m + 114) / 31)
	day := (h+l-7*m+114)%31 + 1

	easter := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return observance{name: "Good Friday", date: easter.AddDate(0, 0, -2)}
}
