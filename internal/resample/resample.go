// Package resample aggregates bar series into coarser periods.
package resample

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/AbhilekhGulpadia/yfinanceScreener/internal/model"
)

// ParseWeekday accepts full or three-letter English weekday names.
func ParseWeekday(s string) (time.Weekday, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if name == "" {
		return time.Friday, nil
	}
	for d := time.Sunday; d <= time.Saturday; d++ {
		full := strings.ToLower(d.String())
		if name == full || name == full[:3] {
			return d, nil
		}
	}
	return 0, fmt.Errorf("unknown weekday %q", s)
}

// WeekEnding returns the label of the week bucket containing t: the first
// anchor weekday on or after t's calendar date in loc, at midnight.
func WeekEnding(t time.Time, anchor time.Weekday, loc *time.Location) time.Time {
	d := DayOf(t, loc)
	offset := (int(anchor) - int(d.Weekday()) + 7) % 7
	return d.AddDate(0, 0, offset)
}

// DayOf returns midnight of t's calendar date in loc.
func DayOf(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	lt := t.In(loc)
	return time.Date(lt.Year(), lt.Month(), lt.Day(), 0, 0, 0, 0, loc)
}

// ToWeekly aggregates bars into week buckets ending on anchor:
// open is first, high is max, low is min, close is last and volume is summed.
// Buckets carry the week-ending label. Weeks without bars do not appear.
func ToWeekly(s model.Series, anchor time.Weekday, loc *time.Location) model.Series {
	return aggregate(s, model.ResolutionWeekly, func(t time.Time) time.Time {
		return WeekEnding(t, anchor, loc)
	})
}

// ToDaily aggregates finer bars into calendar days in loc.
func ToDaily(s model.Series, loc *time.Location) model.Series {
	return aggregate(s, model.ResolutionDaily, func(t time.Time) time.Time {
		return DayOf(t, loc)
	})
}

// CloseToWeekly resamples a close-only series such as a benchmark index.
// Each bucket keeps the last close; the other price fields are undefined.
func CloseToWeekly(s model.Series, anchor time.Weekday, loc *time.Location) model.Series {
	out := model.Series{Symbol: s.Symbol, Resolution: model.ResolutionWeekly}
	for _, b := range s.Bars {
		label := WeekEnding(b.Time, anchor, loc)
		bar := model.Bar{Time: label, Open: math.NaN(), High: math.NaN(), Low: math.NaN(), Close: b.Close, AdjClose: b.Close}
		if n := len(out.Bars); n > 0 && out.Bars[n-1].Time.Equal(label) {
			out.Bars[n-1] = bar
			continue
		}
		out.Bars = append(out.Bars, bar)
	}
	return out
}

func aggregate(s model.Series, res model.Resolution, key func(time.Time) time.Time) model.Series {
	out := model.Series{Symbol: s.Symbol, Resolution: res}
	var cur model.Bar
	started := false
	for _, b := range s.Bars {
		label := key(b.Time)
		if !started || !label.Equal(cur.Time) {
			if started {
				out.Bars = append(out.Bars, cur)
			}
			cur = b
			cur.Time = label
			started = true
			continue
		}
		if math.IsNaN(cur.Open) {
			cur.Open = b.Open
		}
		cur.High = maxDefined(cur.High, b.High)
		cur.Low = minDefined(cur.Low, b.Low)
		cur.Close = b.Close
		cur.AdjClose = b.AdjClose
		cur.Volume += b.Volume
	}
	if started {
		out.Bars = append(out.Bars, cur)
	}
	return out
}

func maxDefined(a, b float64) float64 {
	if math.IsNaN(a) || b > a {
		return b
	}
	return a
}

func minDefined(a, b float64) float64 {
	if math.IsNaN(a) || b < a {
		return b
	}
	return a
}
