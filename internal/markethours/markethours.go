// Package markethours answers whether US equity markets are trading.
package markethours

import (
	"fmt"
	"time"
	_ "time/tzdata" // America/New_York without a system zoneinfo
)

// NewYork is the exchange time zone.
var NewYork = mustLoad("America/New_York")

// Regular session in exchange time.
const (
	OpenHour    = 9
	OpenMinute  = 30
	CloseHour   = 16
	CloseMinute = 0
)

func mustLoad(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}

// IsMarketOpen reports whether t falls within the regular session
// (9:30 AM to 4:00 PM ET, Mon to Fri, excluding holidays).
func IsMarketOpen(t time.Time) bool {
	et := t.In(NewYork)
	if !IsTradingDay(et) {
		return false
	}
	hm := et.Hour()*60 + et.Minute()
	return hm >= OpenHour*60+OpenMinute && hm < CloseHour*60+CloseMinute
}

// IsTradingDay returns true if t is a weekday and not a holiday.
func IsTradingDay(t time.Time) bool {
	et := t.In(NewYork)
	wd := et.Weekday()
	return wd != time.Saturday && wd != time.Sunday && !IsHoliday(et)
}

// NextOpen returns the next session open. Before today's open on a trading
// day that is today's open.
func NextOpen(t time.Time) time.Time {
	et := t.In(NewYork)
	todayOpen := time.Date(et.Year(), et.Month(), et.Day(), OpenHour, OpenMinute, 0, 0, NewYork)
	if et.Before(todayOpen) && IsTradingDay(et) {
		return todayOpen
	}

	d := et.AddDate(0, 0, 1)
	for i := 0; i < 10; i++ { // weekends plus the longest holiday run
		if IsTradingDay(d) {
			return time.Date(d.Year(), d.Month(), d.Day(), OpenHour, OpenMinute, 0, 0, NewYork)
		}
		d = d.AddDate(0, 0, 1)
	}
	return time.Date(et.Year(), et.Month(), et.Day()+1, OpenHour, OpenMinute, 0, 0, NewYork)
}

// TodayClose returns today's session close.
func TodayClose(t time.Time) time.Time {
	et := t.In(NewYork)
	return time.Date(et.Year(), et.Month(), et.Day(), CloseHour, CloseMinute, 0, 0, NewYork)
}

// Status is the JSON view used by the status endpoint.
type Status struct {
	Open     bool      `json:"open"`
	Message  string    `json:"message"`
	NextOpen time.Time `json:"nextOpen,omitempty"`
}

// StatusAt describes the market at t.
func StatusAt(t time.Time) Status {
	if IsMarketOpen(t) {
		return Status{
			Open:    true,
			Message: fmt.Sprintf("Market open, closes in %s", fmtDur(TodayClose(t).Sub(t))),
		}
	}
	next := NextOpen(t)
	et := next.In(NewYork)
	return Status{
		Message: fmt.Sprintf("Market closed, opens %s %s ET (%s)",
			et.Weekday().String()[:3], et.Format("15:04"), fmtDur(next.Sub(t))),
		NextOpen: next.UTC(),
	}
}

func fmtDur(d time.Duration) string {
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	if h > 0 {
		return fmt.Sprintf("%dh%dm", h, m)
	}
	return fmt.Sprintf("%dm", m)
}
