package indicator

import (
	"math"

	"stockpulse/internal/model"
)

// BollingerBands returns the mean of the last period values and the bands at
// ±multiplier population standard deviations around it.
func BollingerBands(series []float64, period int, multiplier float64) (model.Bands, bool) {
	if period <= 0 || len(series) < period {
		return model.Bands{}, false
	}
	window := series[len(series)-period:]

	var sum float64
	for _, x := range window {
		sum += x
	}
	mean := sum / float64(period)

	var sq float64
	for _, x := range window {
		d := x - mean
		sq += d * d
	}
	sd := math.Sqrt(sq / float64(period))

	return model.Bands{
		Upper:  mean + sd*multiplier,
		Middle: mean,
		Lower:  mean - sd*multiplier,
	}, true
}
