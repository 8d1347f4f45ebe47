package calculator

import "math"

// MAKind selects the moving-average family used as a crossover baseline.
type MAKind string

const (
	KindEMA  MAKind = "EMA"
	KindDEMA MAKind = "DEMA"
)

// MovingAverage dispatches to EMA or DEMA.
func MovingAverage(kind MAKind, values []float64, span int) []float64 {
	if kind == KindDEMA {
		return DEMA(values, span)
	}
	return EMA(values, span)
}

// EMA computes the exponential moving average with alpha = 2/(span+1).
// The recursion is seeded with the first defined input, so there is no warm-up gap.
func EMA(values []float64, span int) []float64 {
	if span <= 0 {
		return undefinedSeries(len(values))
	}
	return smooth(values, 2.0/float64(span+1))
}

// DEMA computes 2*EMA - EMA(EMA).
func DEMA(values []float64, span int) []float64 {
	e := EMA(values, span)
	ee := EMA(e, span)
	out := make([]float64, len(values))
	for i := range out {
		out[i] = 2*e[i] - ee[i]
	}
	return out
}

// smooth is the recursive exponential filter y = alpha*x + (1-alpha)*y[-1].
// Undefined inputs carry the previous value forward.
func smooth(values []float64, alpha float64) []float64 {
	out := make([]float64, len(values))
	prev := math.NaN()
	for i, v := range values {
		switch {
		case math.IsNaN(v):
		case math.IsNaN(prev):
			prev = v
		default:
			prev = alpha*v + (1-alpha)*prev
		}
		out[i] = prev
	}
	return out
}

// RollingMean computes the mean of each trailing window.
// A period is defined only when the full window holds defined values.
func RollingMean(values []float64, window int) []float64 {
	return rolling(values, window, func(w []float64) float64 {
		sum := 0.0
		for _, v := range w {
			sum += v
		}
		return sum / float64(len(w))
	})
}

func rolling(values []float64, window int, agg func([]float64) float64) []float64 {
	out := undefinedSeries(len(values))
	if window <= 0 {
		return out
	}
	for i := window - 1; i < len(values); i++ {
		w := values[i-window+1 : i+1]
		if hasUndefined(w) {
			continue
		}
		out[i] = agg(w)
	}
	return out
}

func hasUndefined(values []float64) bool {
	for _, v := range values {
		if math.IsNaN(v) {
			return true
		}
	}
	return false
}

func undefinedSeries(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}
