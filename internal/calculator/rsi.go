package calculator

import "math"

// FillPolicy decides what an undefined indicator value becomes.
type FillPolicy int

const (
	// FillUndefined keeps undefined values as NaN.
	FillUndefined FillPolicy = iota
	// FillZero replaces undefined values with 0.
	FillZero
)

// Fill applies the policy to values in place and returns them.
func Fill(values []float64, policy FillPolicy) []float64 {
	if policy != FillZero {
		return values
	}
	for i, v := range values {
		if math.IsNaN(v) {
			values[i] = 0
		}
	}
	return values
}

// WilderRSI computes the Wilder-smoothed RSI over the given period.
// Gains and losses are smoothed recursively with alpha = 1/period, seeded at
// the first price change. The first period is undefined. When the average
// loss is zero the RSI is 100, including a flat series.
func WilderRSI(values []float64, period int, policy FillPolicy) []float64 {
	n := len(values)
	if period <= 0 {
		return Fill(undefinedSeries(n), policy)
	}

	gains := undefinedSeries(n)
	losses := undefinedSeries(n)
	for i := 1; i < n; i++ {
		change := values[i] - values[i-1]
		if math.IsNaN(change) {
			continue
		}
		gains[i] = math.Max(change, 0)
		losses[i] = math.Max(-change, 0)
	}

	alpha := 1.0 / float64(period)
	avgGain := smooth(gains, alpha)
	avgLoss := smooth(losses, alpha)

	out := make([]float64, n)
	for i := range out {
		g, l := avgGain[i], avgLoss[i]
		switch {
		case math.IsNaN(g) || math.IsNaN(l):
			out[i] = math.NaN()
		case l == 0:
			out[i] = 100
		default:
			out[i] = 100 - 100/(1+g/l)
		}
	}
	return Fill(out, policy)
}
