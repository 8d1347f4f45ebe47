package calculator

import (
	"math"
	"time"
)

// Slope returns the first difference. Period 0 is undefined.
func Slope(values []float64) []float64 {
	out := undefinedSeries(len(values))
	for i := 1; i < len(values); i++ {
		out[i] = values[i] - values[i-1]
	}
	return out
}

// Point is a timestamped value of a reference series such as a benchmark close.
type Point struct {
	Time  time.Time
	Value float64
}

// Align maps reference points onto times by exact timestamp.
// Times without a reference observation are undefined.
func Align(times []time.Time, reference []Point) []float64 {
	byTime := make(map[int64]float64, len(reference))
	for _, p := range reference {
		byTime[p.Time.UnixNano()] = p.Value
	}
	out := make([]float64, len(times))
	for i, t := range times {
		v, ok := byTime[t.UnixNano()]
		if !ok {
			v = math.NaN()
		}
		out[i] = v
	}
	return out
}

// Ratio divides values by an aligned benchmark elementwise.
// A missing or non-positive benchmark yields undefined, never 0 or 1.
func Ratio(values, benchmark []float64) []float64 {
	out := undefinedSeries(len(values))
	for i := range values {
		if i >= len(benchmark) {
			break
		}
		b := benchmark[i]
		if math.IsNaN(b) || b <= 0 {
			continue
		}
		out[i] = values[i] / b
	}
	return out
}

// RelativeStrength is Ratio over the benchmark aligned to times.
func RelativeStrength(times []time.Time, values []float64, benchmark []Point) []float64 {
	return Ratio(values, Align(times, benchmark))
}

// Product multiplies two aligned series, e.g. close x volume.
func Product(a, b []float64) []float64 {
	out := make([]float64, len(a))
	for i := range a {
		if i >= len(b) {
			out[i] = math.NaN()
			continue
		}
		out[i] = a[i] * b[i]
	}
	return out
}
