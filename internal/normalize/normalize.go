// Package normalize turns raw upstream OHLCV rows into clean Series.
// It never fails: empty or fully invalid input yields an empty Series.
package normalize

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/AbhilekhGulpadia/yfinanceScreener/internal/model"
)

// Bars cleans typed upstream rows into a Series:
// rows with an undefined, zero or negative close are dropped (closed-market
// sentinels), duplicate timestamps keep the later-seen row, bars are sorted
// ascending, an adj_close column that is entirely undefined is taken from
// close, and missing or negative volume becomes 0. OHLC inconsistencies are
// kept as recorded.
func Bars(symbol string, res model.Resolution, rows []model.RawBar) model.Series {
	out := model.Series{Symbol: strings.ToUpper(strings.TrimSpace(symbol)), Resolution: res}
	if len(rows) == 0 {
		return out
	}

	adjMissing := true
	for _, r := range rows {
		if usable(r.AdjClose) {
			adjMissing = false
			break
		}
	}

	pos := make(map[int64]int, len(rows))
	bars := make([]model.Bar, 0, len(rows))
	for _, r := range rows {
		if r.Time.IsZero() || !usable(r.Close) || r.Close <= 0 {
			continue
		}
		b := model.Bar{
			Time:     r.Time,
			Open:     r.Open,
			High:     r.High,
			Low:      r.Low,
			Close:    r.Close,
			AdjClose: r.AdjClose,
			Volume:   volume(r.Volume),
		}
		if adjMissing {
			b.AdjClose = r.Close
		}
		key := r.Time.UnixNano()
		if i, dup := pos[key]; dup {
			bars[i] = b
			continue
		}
		pos[key] = len(bars)
		bars = append(bars, b)
	}

	sort.SliceStable(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	out.Bars = bars
	return out
}

func usable(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func volume(v float64) int64 {
	if !usable(v) || v < 0 {
		return 0
	}
	return int64(math.Round(v))
}

// Options controls how a Table is read.
type Options struct {
	// Location interprets timestamps that carry no zone. Defaults to UTC.
	Location   *time.Location
	Resolution model.Resolution
}

func (o Options) location() *time.Location {
	if o.Location == nil {
		return time.UTC
	}
	return o.Location
}

func (o Options) resolution() model.Resolution {
	if o.Resolution == "" {
		return model.ResolutionDaily
	}
	return o.Resolution
}
