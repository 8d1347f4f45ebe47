package resample

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AbhilekhGulpadia/yfinanceScreener/internal/model"
)

// weekdays builds valid daily bars on every weekday from start for n days.
func weekdays(start time.Time, n int) model.Series {
	s := model.Series{Symbol: "TEST.NS", Resolution: model.ResolutionDaily}
	for d, i := start, 0; i < n; d = d.AddDate(0, 0, 1) {
		if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			continue
		}
		base := 100 + 5*math.Sin(float64(i))
		open, close := base, base+math.Cos(float64(i)*1.7)*2
		s.Bars = append(s.Bars, model.Bar{
			Time:   d,
			Open:   open,
			High:   math.Max(open, close) + 1,
			Low:    math.Min(open, close) - 1,
			Close:  close,
			Volume: int64(1000 + i*10),
		})
		i++
	}
	return s
}

func TestToWeeklyAggregation(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) // Monday
	daily := weekdays(start, 50)
	weekly := ToWeekly(daily, time.Friday, time.UTC)
	require.Equal(t, 10, weekly.Len())
	assert.Equal(t, model.ResolutionWeekly, weekly.Resolution)

	for _, w := range weekly.Bars {
		assert.Equal(t, time.Friday, w.Time.Weekday())
		var sum int64
		var members []model.Bar
		for _, d := range daily.Bars {
			if WeekEnding(d.Time, time.Friday, time.UTC).Equal(w.Time) {
				sum += d.Volume
				members = append(members, d)
			}
		}
		require.NotEmpty(t, members)
		assert.Equal(t, sum, w.Volume)
		assert.Equal(t, members[0].Open, w.Open)
		assert.Equal(t, members[len(members)-1].Close, w.Close)
		assert.GreaterOrEqual(t, w.High, w.Open)
		assert.GreaterOrEqual(t, w.High, w.Close)
		assert.LessOrEqual(t, w.Low, w.Open)
		assert.LessOrEqual(t, w.Low, w.Close)
	}
}

func TestToWeeklyDropsEmptyWeeks(t *testing.T) {
	a := weekdays(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), 5)
	b := weekdays(time.Date(2024, 1, 22, 0, 0, 0, 0, time.UTC), 5)
	a.Bars = append(a.Bars, b.Bars...)
	weekly := ToWeekly(a, time.Friday, time.UTC)
	require.Equal(t, 2, weekly.Len())
	assert.Equal(t, time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), weekly.Bars[0].Time)
	assert.Equal(t, time.Date(2024, 1, 26, 0, 0, 0, 0, time.UTC), weekly.Bars[1].Time)
}

func TestWeekEndingAnchor(t *testing.T) {
	sat := time.Date(2024, 1, 6, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 1, 12, 0, 0, 0, 0, time.UTC), WeekEnding(sat, time.Friday, time.UTC))
	fri := time.Date(2024, 1, 5, 15, 30, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), WeekEnding(fri, time.Friday, time.UTC))
	assert.Equal(t, time.Date(2024, 1, 7, 0, 0, 0, 0, time.UTC), WeekEnding(fri, time.Sunday, time.UTC))
}

func TestWeekEndingUsesMarketTimezone(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)
	// Friday 20:00 UTC is already Saturday in India.
	ts := time.Date(2024, 1, 5, 20, 0, 0, 0, time.UTC)
	got := WeekEnding(ts, time.Friday, loc)
	assert.Equal(t, time.Date(2024, 1, 12, 0, 0, 0, 0, loc), got)
}

func TestToDailyFromIntraday(t *testing.T) {
	s := model.Series{Symbol: "X", Resolution: model.ResolutionIntraday}
	base := time.Date(2024, 2, 1, 9, 0, 0, 0, time.UTC)
	for h := 0; h < 12; h++ {
		ts := base.Add(time.Duration(h) * 2 * time.Hour)
		p := float64(100 + h)
		s.Bars = append(s.Bars, model.Bar{Time: ts, Open: p, High: p + 2, Low: p - 2, Close: p + 1, Volume: 10})
	}
	daily := ToDaily(s, time.UTC)
	require.Equal(t, 2, daily.Len())
	assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), daily.Bars[0].Time)
	assert.Equal(t, 100.0, daily.Bars[0].Open)
	assert.Equal(t, 108.0, daily.Bars[0].Close)
	assert.Equal(t, 109.0, daily.Bars[0].High)
	assert.Equal(t, int64(80), daily.Bars[0].Volume)
	assert.Equal(t, int64(40), daily.Bars[1].Volume)
}

func TestCloseToWeeklyKeepsLastClose(t *testing.T) {
	daily := weekdays(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), 10)
	weekly := CloseToWeekly(daily, time.Friday, time.UTC)
	require.Equal(t, 2, weekly.Len())
	assert.Equal(t, daily.Bars[4].Close, weekly.Bars[0].Close)
	assert.Equal(t, daily.Bars[9].Close, weekly.Bars[1].Close)
	assert.True(t, math.IsNaN(weekly.Bars[0].Open))
}

func TestParseWeekday(t *testing.T) {
	for in, want := range map[string]time.Weekday{"friday": time.Friday, "FRI": time.Friday, "Sun": time.Sunday, "": time.Friday} {
		got, err := ParseWeekday(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseWeekday("funday")
	assert.Error(t, err)
}

func TestEmptySeries(t *testing.T) {
	assert.True(t, ToWeekly(model.Series{}, time.Friday, time.UTC).Empty())
	assert.True(t, ToDaily(model.Series{}, nil).Empty())
}
