package indicator

// VWAP returns Σ(price*volume)/Σ(volume). ok is false when the inputs differ
// in length, are empty, or carry no volume.
func VWAP(prices, volumes []float64) (float64, bool) {
	if len(prices) == 0 || len(prices) != len(volumes) {
		return 0, false
	}
	var pv, vol float64
	for i, p := range prices {
		pv += p * volumes[i]
		vol += volumes[i]
	}
	if vol <= 0 {
		return 0, false
	}
	return pv / vol, true
}
