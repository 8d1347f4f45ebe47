package calculator

import (
	"math"
	"testing"

	"github.com/markcheno/go-talib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func increasing(n int, start, step float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	return out
}

func wave(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 100 + 10*math.Sin(float64(i)/5) + float64(i%7)
	}
	return out
}

func TestEMASeed(t *testing.T) {
	for _, span := range []int{1, 2, 12, 50, 200} {
		assert.Equal(t, []float64{42.5}, EMA([]float64{42.5}, span))
		series := wave(30)
		assert.Equal(t, series[0], EMA(series, span)[0])
	}
}

func TestEMARecursion(t *testing.T) {
	in := []float64{10, 11, 12}
	out := EMA(in, 3)
	alpha := 0.5
	assert.InDelta(t, 10.0, out[0], 1e-12)
	assert.InDelta(t, alpha*11+(1-alpha)*10, out[1], 1e-12)
	assert.InDelta(t, alpha*12+(1-alpha)*out[1], out[2], 1e-12)
}

func TestEMAInvalidSpan(t *testing.T) {
	out := EMA([]float64{1, 2}, 0)
	require.Len(t, out, 2)
	assert.True(t, math.IsNaN(out[0]))
	assert.True(t, math.IsNaN(out[1]))
}

func TestDEMATracksIncreasingSeries(t *testing.T) {
	series := increasing(300, 50, 0.75)
	e := EMA(series, 21)
	d := DEMA(series, 21)
	for i := 1; i < len(series); i++ {
		assert.GreaterOrEqual(t, d[i], e[i], "period %d", i)
		assert.LessOrEqual(t, series[i]-d[i], series[i]-e[i]+1e-9)
	}
}

func TestMovingAverageDispatch(t *testing.T) {
	series := wave(40)
	assert.Equal(t, DEMA(series, 10), MovingAverage(KindDEMA, series, 10))
	assert.Equal(t, EMA(series, 10), MovingAverage(KindEMA, series, 10))
}

func TestWilderRSIBounds(t *testing.T) {
	rsi := WilderRSI(wave(200), 14, FillUndefined)
	assert.True(t, math.IsNaN(rsi[0]))
	for i := 1; i < len(rsi); i++ {
		assert.GreaterOrEqual(t, rsi[i], 0.0)
		assert.LessOrEqual(t, rsi[i], 100.0)
	}
}

func TestWilderRSIExtremes(t *testing.T) {
	t.Run("all gains", func(t *testing.T) {
		rsi := WilderRSI(increasing(50, 10, 1), 14, FillUndefined)
		assert.Equal(t, 100.0, rsi[len(rsi)-1])
	})
	t.Run("all losses", func(t *testing.T) {
		rsi := WilderRSI(increasing(50, 100, -1), 14, FillUndefined)
		assert.Equal(t, 0.0, rsi[len(rsi)-1])
	})
	t.Run("flat", func(t *testing.T) {
		rsi := WilderRSI([]float64{5, 5, 5, 5}, 14, FillUndefined)
		assert.Equal(t, 100.0, rsi[3])
	})
}

func TestWilderRSIFillPolicy(t *testing.T) {
	undefined := WilderRSI([]float64{1}, 14, FillUndefined)
	assert.True(t, math.IsNaN(undefined[0]))
	zero := WilderRSI([]float64{1}, 14, FillZero)
	assert.Equal(t, []float64{0}, zero)
}

func TestWilderRSIKnownValue(t *testing.T) {
	// gain 2 then loss 1 with period 2: avg gain 2 -> 1, avg loss 0 -> 0.5
	rsi := WilderRSI([]float64{10, 12, 11}, 2, FillUndefined)
	assert.Equal(t, 100.0, rsi[1])
	assert.InDelta(t, 100-100/(1+1/0.5), rsi[2], 1e-12)
}

func TestMACDHistogramIdentity(t *testing.T) {
	series := wave(120)
	m := MACD(series, 12, 26, 9)
	require.Len(t, m.Histogram, len(series))
	for i := range series {
		assert.Equal(t, m.Line[i]-m.Signal[i], m.Histogram[i])
	}
	assert.Equal(t, 0.0, m.Line[0])
}

func TestRollingWindowsAgainstTalib(t *testing.T) {
	series := wave(150)
	for _, window := range []int{10, 20, 30, 52} {
		mean := RollingMean(series, window)
		high := RollingMax(series, window)
		low := RollingMin(series, window)
		sma := talib.Sma(series, window)
		upper := talib.Max(series, window)
		lower := talib.Min(series, window)
		for i := range series {
			if i < window-1 {
				assert.True(t, math.IsNaN(mean[i]), "mean warm-up %d", i)
				assert.True(t, math.IsNaN(high[i]), "max warm-up %d", i)
				assert.True(t, math.IsNaN(low[i]), "min warm-up %d", i)
				continue
			}
			assert.InDelta(t, sma[i], mean[i], 1e-9)
			assert.InDelta(t, upper[i], high[i], 1e-9)
			assert.InDelta(t, lower[i], low[i], 1e-9)
		}
	}
}

func TestRollingRequiresFullWindow(t *testing.T) {
	series := []float64{1, 2, math.NaN(), 4, 5, 6}
	mean := RollingMean(series, 3)
	assert.True(t, math.IsNaN(mean[2]))
	assert.True(t, math.IsNaN(mean[3]))
	assert.True(t, math.IsNaN(mean[4]))
	assert.InDelta(t, 5.0, mean[5], 1e-12)
}

func TestShortInputsNeverPanic(t *testing.T) {
	assert.Empty(t, EMA(nil, 5))
	assert.Empty(t, WilderRSI(nil, 14, FillZero))
	assert.Len(t, RollingMax([]float64{1, 2}, 52), 2)
	assert.Len(t, Slope([]float64{3}), 1)
	assert.Empty(t, MACD(nil, 12, 26, 9).Histogram)
}

func TestSlope(t *testing.T) {
	out := Slope([]float64{1, 4, math.NaN(), 10})
	assert.True(t, math.IsNaN(out[0]))
	assert.Equal(t, 3.0, out[1])
	assert.True(t, math.IsNaN(out[2]))
	assert.True(t, math.IsNaN(out[3]))
}
