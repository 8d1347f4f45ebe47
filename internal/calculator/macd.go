package calculator

// MACDResult holds the three MACD columns aligned with the input.
type MACDResult struct {
	Line      []float64
	Signal    []float64
	Histogram []float64
}

// MACD computes EMA(fast) - EMA(slow), its EMA(signal) and the difference.
func MACD(values []float64, fast, slow, signal int) MACDResult {
	f := EMA(values, fast)
	s := EMA(values, slow)
	line := make([]float64, len(values))
	for i := range line {
		line[i] = f[i] - s[i]
	}
	sig := EMA(line, signal)
	hist := make([]float64, len(values))
	for i := range hist {
		hist[i] = line[i] - sig[i]
	}
	return MACDResult{Line: line, Signal: sig, Histogram: hist}
}
