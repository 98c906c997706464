package series

import (
	"math"
	"time"

	"stockpulse/internal/model"
)

// BasePrice is the deterministic starting price used for synthetic data:
// 100 plus the sum of the symbol's character codes modulo 400.
func BasePrice(symbol string) float64 {
	return 100 + float64(charSum(symbol)%400)
}

func charSum(symbol string) int {
	sum := 0
	for _, r := range symbol {
		sum += int(r)
	}
	return sum
}

// RangeBars maps a history range to a bar count.
func RangeBars(rng string) int {
	switch rng {
	case "1w":
		return 7
	case "1m":
		return 30
	case "3m":
		return 60
	case "6m":
		return 90
	default:
		return 120
	}
}

// SyntheticBars generates a deterministic daily history for symbol ending on
// now's calendar day, oldest first. The same symbol, range and day always
// produce the same bars.
func SyntheticBars(symbol, rng string, now time.Time) []model.Bar {
	days := RangeBars(rng)
	sum := charSum(symbol)
	base := BasePrice(symbol)
	today := now.UTC()

	bars := make([]model.Bar, days)
	for i := 0; i < days; i++ {
		wave := math.Sin(float64(i)/10)*15 + (float64(i%2)*5 - 2.5)
		price := base + wave
		base += float64((sum+i)%10)*0.01 - 0.05

		// i counts back from today; fill from the end so dates ascend.
		bars[days-1-i] = model.Bar{
			Date:   model.DateOf(today.AddDate(0, 0, -i)),
			Open:   round2(price - 0.5),
			High:   round2(price + 0.5),
			Low:    round2(price - 1),
			Close:  round2(price),
			Volume: 1_000_000 + float64(i)*10_000,
		}
	}
	return bars
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
