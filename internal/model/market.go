package model

import (
	"math"
	"time"
)

// Resolution names the granularity of a bar series.
type Resolution string

const (
	ResolutionIntraday Resolution = "1h"
	ResolutionDaily    Resolution = "1d"
	ResolutionWeekly   Resolution = "1wk"
)

// Bar represents a single clean OHLCV observation.
type Bar struct {
	Time     time.Time
	Open     float64
	High     float64
	Low      float64
	Close    float64
	AdjClose float64
	Volume   int64
}

// RawBar is an upstream row before normalization. Missing prices are NaN.
type RawBar struct {
	Time     time.Time
	Open     float64
	High     float64
	Low      float64
	Close    float64
	AdjClose float64
	Volume   float64
}

// Series holds the bars of one symbol in strictly ascending time order.
type Series struct {
	Symbol     string
	Resolution Resolution
	Bars       []Bar
}

// Len returns the number of bars.
func (s Series) Len() int { return len(s.Bars) }

// Empty reports whether the series has no bars.
func (s Series) Empty() bool { return len(s.Bars) == 0 }

// Last returns the most recent bar.
func (s Series) Last() (Bar, bool) {
	if len(s.Bars) == 0 {
		return Bar{}, false
	}
	return s.Bars[len(s.Bars)-1], true
}

// Until returns the prefix of the series with bars at or before asOf.
// A zero asOf returns the series unchanged.
func (s Series) Until(asOf time.Time) Series {
	if asOf.IsZero() {
		return s
	}
	n := len(s.Bars)
	for n > 0 && s.Bars[n-1].Time.After(asOf) {
		n--
	}
	out := s
	out.Bars = s.Bars[:n:n]
	return out
}

// Tail returns the last n bars of the series.
func (s Series) Tail(n int) Series {
	if n >= len(s.Bars) || n < 0 {
		return s
	}
	out := s
	out.Bars = s.Bars[len(s.Bars)-n:]
	return out
}

func (s Series) Times() []time.Time {
	out := make([]time.Time, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = b.Time
	}
	return out
}

func (s Series) Closes() []float64 {
	return s.column(func(b Bar) float64 { return b.Close })
}

func (s Series) Highs() []float64 {
	return s.column(func(b Bar) float64 { return b.High })
}

func (s Series) Lows() []float64 {
	return s.column(func(b Bar) float64 { return b.Low })
}

func (s Series) Volumes() []float64 {
	return s.column(func(b Bar) float64 { return float64(b.Volume) })
}

func (s Series) column(f func(Bar) float64) []float64 {
	out := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = f(b)
	}
	return out
}

// Defined reports whether v carries a value. Undefined values are NaN.
func Defined(v float64) bool { return !math.IsNaN(v) }

// Undefined returns the value used for periods that cannot be computed.
func Undefined() float64 { return math.NaN() }
