package strategy

// SMA returns the simple moving average of the last period values in
// closes, and false if there aren't enough values yet.
func SMA(closes []float64, period int) (float64, bool) {
	if period <= 0 || len(closes) < period {
		return 0, false
	}
	window := closes[len(closes)-period:]
	var sum float64
	for _, v := range window {
		sum += v
	}
	return sum / float64(period), true
}

// EMA returns the exponential moving average of closes over period,
// seeded with the SMA of the first period values, and false if
// there aren't enough values yet.
func EMA(closes []float64, period int) (float64, bool) {
	if period <= 0 || len(closes) < period {
		return 0, false
	}
	seed, ok := SMA(closes[:period], period)
	if !ok {
		return 0, false
	}
	k := 2.0 / float64(period+1)
	ema := seed
	for _, v := range closes[period:] {
		ema = v*k + ema*(1-k)
	}
	return ema, true
}
