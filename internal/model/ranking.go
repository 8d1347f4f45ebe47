package model

import "time"

// NeverCrossed is the periods-since value for a crossover that never happened.
const NeverCrossed = 1_000_000_000

// CrossInfo describes the most recent crossover against one baseline.
type CrossInfo struct {
	Label        string
	Span         int
	WithinWindow bool
	PeriodsSince int
}

// Ever reports whether the crossover happened at all.
func (c CrossInfo) Ever() bool { return c.PeriodsSince != NeverCrossed }

// EMAState is the latest relation of close to one moving average.
type EMAState struct {
	Span  int
	State string
}

// RankedSymbol is one row of a lexicographic crossover ranking.
type RankedSymbol struct {
	Rank            int
	Symbol          string
	Name            string
	Time            time.Time
	Close           float64
	RSI             float64
	Crosses         []CrossInfo
	MACDCross       CrossInfo
	PassesRSIFilter bool
	EMAStates       []EMAState
	MACDState       string
}

// SortKey returns the lexicographic key, ascending is better.
// Per baseline, then MACD: (within window ? 0 : 1, periods since). RSI last.
func (r RankedSymbol) SortKey() []float64 {
	key := make([]float64, 0, 2*len(r.Crosses)+3)
	for _, c := range append(append([]CrossInfo{}, r.Crosses...), r.MACDCross) {
		missed := 1.0
		if c.WithinWindow {
			missed = 0
		}
		key = append(key, missed, float64(c.PeriodsSince))
	}
	return append(key, r.RSI)
}
