package calculator

// RollingMax returns the highest value of each trailing window, e.g. the 52-week high.
func RollingMax(values []float64, window int) []float64 {
	return rolling(values, window, func(w []float64) float64 {
		high := w[0]
		for _, v := range w[1:] {
			if v > high {
				high = v
			}
		}
		return high
	})
}

// RollingMin returns the lowest value of each trailing window.
func RollingMin(values []float64, window int) []float64 {
	return rolling(values, window, func(w []float64) float64 {
		low := w[0]
		for _, v := range w[1:] {
			if v < low {
				low = v
			}
		}
		return low
	})
}
