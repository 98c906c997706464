package markethours

import (
	"strings"
	"testing"
	"time"
)

func et(y int, m time.Month, d, h, min int) time.Time {
	return time.Date(y, m, d, h, min, 0, 0, NewYork)
}

func TestIsMarketOpen(t *testing.T) {
	cases := []struct {
		name string
		at   time.Time
		want bool
	}{
		{"tuesday midday", et(2026, time.March, 10, 12, 0), true},
		{"exactly open", et(2026, time.March, 10, 9, 30), true},
		{"before open", et(2026, time.March, 10, 9, 29), false},
		{"at close", et(2026, time.March, 10, 16, 0), false},
		{"saturday", et(2026, time.March, 14, 12, 0), false},
		{"good friday", et(2026, time.April, 3, 12, 0), false},
		{"utc input", time.Date(2026, time.March, 10, 15, 0, 0, 0, time.UTC), true},
	}
	for _, tc := range cases {
		if got := IsMarketOpen(tc.at); got != tc.want {
			t.Errorf("%s: IsMarketOpen = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestNextOpen_SkipsWeekendAndHoliday(t *testing.T) {
	// Thursday before Good Friday 2026, after close
	got := NextOpen(et(2026, time.April, 2, 17, 0))
	want := et(2026, time.April, 6, 9, 30)
	if !got.Equal(want) {
		t.Errorf("NextOpen = %v, want %v", got, want)
	}

	// Early morning on a trading day opens the same day
	got = NextOpen(et(2026, time.March, 10, 7, 0))
	if !got.Equal(et(2026, time.March, 10, 9, 30)) {
		t.Errorf("NextOpen same day = %v", got)
	}
}

func TestStatusAt(t *testing.T) {
	open := StatusAt(et(2026, time.March, 10, 15, 0))
	if !open.Open || !strings.Contains(open.Message, "closes in 1h0m") {
		t.Errorf("unexpected open status %+v", open)
	}

	closed := StatusAt(et(2026, time.March, 14, 12, 0))
	if closed.Open || closed.NextOpen.IsZero() || !strings.Contains(closed.Message, "Mon 09:30") {
		t.Errorf("unexpected closed status %+v", closed)
	}
}
