package markethours

import "time"

// NYSE full-day closures.
var nyseHolidays = map[int][]struct {
	month time.Month
	day   int
}{
	2025: {
		{time.January, 1},   // New Year's Day
		{time.January, 9},   // National Day of Mourning
		{time.January, 20},  // Martin Luther King Jr. Day
		{time.February, 17}, // Washington's Birthday
		{time.April, 18},    // Good Friday
		{time.May, 26},      // Memorial Day
		{time.June, 19},     // Juneteenth
		{time.July, 4},      // Independence Day
		{time.September, 1}, // Labor Day
		{time.November, 27}, // Thanksgiving Day
		{time.December, 25}, // Christmas Day
	},
	2026: {
		{time.January, 1},   // New Year's Day
		{time.January, 19},  // Martin Luther King Jr. Day
		{time.February, 16}, // Washington's Birthday
		{time.April, 3},     // Good Friday
		{time.May, 25},      // Memorial Day
		{time.June, 19},     // Juneteenth
		{time.July, 3},      // Independence Day (observed)
		{time.September, 7}, // Labor Day
		{time.November, 26}, // Thanksgiving Day
		{time.December, 25}, // Christmas Day
	},
}

var holidaySet = func() map[string]bool {
	set := make(map[string]bool)
	for year, days := range nyseHolidays {
		for _, h := range days {
			set[dateKey(year, h.month, h.day)] = true
		}
	}
	return set
}()

// IsHoliday returns true if the date (in exchange time) is an NYSE holiday.
func IsHoliday(t time.Time) bool {
	et := t.In(NewYork)
	return holidaySet[dateKey(et.Year(), et.Month(), et.Day())]
}

func dateKey(year int, month time.Month, day int) string {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC).Format("2006-01-02")
}
