package indicator

import "stockpulse/internal/model"

// FibonacciLevels interpolates retracement levels from high (0%) down to low (100%).
func FibonacciLevels(high, low float64) model.FibLevels {
	diff := high - low
	return model.FibLevels{
		Level0:    high,
		Level23_6: high - diff*0.236,
		Level38_2: high - diff*0.382,
		Level50:   high - diff*0.5,
		Level61_8: high - diff*0.618,
		Level78_6: high - diff*0.786,
		Level100:  low,
	}
}
