package strategy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AbhilekhGulpadia/yfinanceScreener/internal/calculator"
	"github.com/AbhilekhGulpadia/yfinanceScreener/internal/model"
)

// declineThenJump falls steadily then jumps to a flat high at index jump,
// giving exactly one bullish cross of any EMA at that index.
func declineThenJump(symbol string, n, jump int) model.Series {
	s := model.Series{Symbol: symbol, Resolution: model.ResolutionDaily}
	start := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		c := 200 - 0.1*float64(i)
		if i >= jump {
			c = 300
		}
		s.Bars = append(s.Bars, model.Bar{Time: start.AddDate(0, 0, i), Open: c, High: c, Low: c, Close: c, Volume: 1000})
	}
	return s
}

func scenarioParams() RankingParams {
	p := DefaultRankingParams()
	p.EMASpans = []int{50}
	p.LookbackSessions = 5
	return p
}

func TestEvaluateCrossoversRecentCross(t *testing.T) {
	row, ok := EvaluateCrossovers(declineThenJump("RECENT.NS", 400, 394), scenarioParams())
	require.True(t, ok)
	require.Len(t, row.Crosses, 1)
	assert.Equal(t, 5, row.Crosses[0].PeriodsSince)
	assert.True(t, row.Crosses[0].WithinWindow)
	assert.Equal(t, "50_ema", row.Crosses[0].Label)
	assert.Equal(t, "Above", row.EMAStates[0].State)
	assert.Equal(t, 300.0, row.Close)
}

func TestRankCrossoversRecentBeforeStale(t *testing.T) {
	p := scenarioParams()
	recent, ok := EvaluateCrossovers(declineThenJump("ZRECENT.NS", 400, 394), p)
	require.True(t, ok)
	stale, ok := EvaluateCrossovers(declineThenJump("ASTALE.NS", 400, 349), p)
	require.True(t, ok)
	assert.Equal(t, 50, stale.Crosses[0].PeriodsSince)
	assert.False(t, stale.Crosses[0].WithinWindow)

	ranked := RankCrossovers([]model.RankedSymbol{stale, recent}, p)
	require.Len(t, ranked, 2)
	assert.Equal(t, "ZRECENT.NS", ranked[0].Symbol)
	assert.Equal(t, 1, ranked[0].Rank)
	assert.Equal(t, "ASTALE.NS", ranked[1].Symbol)
	assert.Equal(t, 2, ranked[1].Rank)
}

func TestRankCrossoversNeverCrossedSortsLast(t *testing.T) {
	p := scenarioParams()
	never := declineThenJump("NEVER.NS", 400, 400)
	row, ok := EvaluateCrossovers(never, p)
	require.True(t, ok)
	assert.Equal(t, model.NeverCrossed, row.Crosses[0].PeriodsSince)
	assert.False(t, row.Crosses[0].Ever())
	assert.Equal(t, "No", row.EMAStates[0].State)

	old, ok := EvaluateCrossovers(declineThenJump("OLD.NS", 400, 100), p)
	require.True(t, ok)
	ranked := RankCrossovers([]model.RankedSymbol{row, old}, p)
	assert.Equal(t, "OLD.NS", ranked[0].Symbol)
}

func TestEvaluateCrossoversMinimumHistory(t *testing.T) {
	p := DefaultRankingParams()
	assert.Equal(t, 200, p.RequiredBars())
	_, ok := EvaluateCrossovers(declineThenJump("SHORT.NS", 199, 190), p)
	assert.False(t, ok, "shorter than the longest span is excluded")
	_, ok = EvaluateCrossovers(declineThenJump("LONG.NS", 200, 190), p)
	assert.True(t, ok)

	p.EMASpans = []int{21}
	assert.Equal(t, 50, p.RequiredBars())
}

func TestRankCrossoversRSITieBreak(t *testing.T) {
	cross := []model.CrossInfo{{Span: 50, WithinWindow: true, PeriodsSince: 2}}
	macd := model.CrossInfo{PeriodsSince: model.NeverCrossed}
	rows := []model.RankedSymbol{
		{Symbol: "HIGH.NS", RSI: 68, Crosses: cross, MACDCross: macd},
		{Symbol: "LOW.NS", RSI: 31, Crosses: cross, MACDCross: macd},
		{Symbol: "AAA.NS", RSI: 68, Crosses: cross, MACDCross: macd},
	}
	ranked := RankCrossovers(rows, scenarioParams())
	require.Len(t, ranked, 3)
	assert.Equal(t, []string{"LOW.NS", "AAA.NS", "HIGH.NS"}, []string{ranked[0].Symbol, ranked[1].Symbol, ranked[2].Symbol})
}

func TestRankCrossoversRSIFilter(t *testing.T) {
	p := scenarioParams()
	p.RSIFilter = &RSIRange{Lo: 30, Hi: 70}
	rows := []model.RankedSymbol{
		{Symbol: "IN.NS", RSI: 50, PassesRSIFilter: true},
		{Symbol: "OUT.NS", RSI: 80, PassesRSIFilter: false},
	}
	ranked := RankCrossovers(rows, p)
	require.Len(t, ranked, 1)
	assert.Equal(t, "IN.NS", ranked[0].Symbol)
	assert.Equal(t, 1, ranked[0].Rank)
}

func TestEvaluateCrossoversRSIFilterFlag(t *testing.T) {
	p := scenarioParams()
	p.RSIFilter = &RSIRange{Lo: 0, Hi: 70}
	row, ok := EvaluateCrossovers(declineThenJump("FLAT.NS", 400, 394), p)
	require.True(t, ok)
	// the jump dominates the smoothed gains
	assert.Greater(t, row.RSI, 70.0)
	assert.LessOrEqual(t, row.RSI, 100.0)
	assert.False(t, row.PassesRSIFilter)
}

func TestEvaluateCrossoversDEMABearish(t *testing.T) {
	p := scenarioParams()
	p.EMAKind = calculator.KindDEMA
	p.Direction = calculator.Bearish
	row, ok := EvaluateCrossovers(declineThenJump("DOWN.NS", 400, 394), p)
	require.True(t, ok)
	assert.Equal(t, "50_dema", row.Crosses[0].Label)
	assert.Equal(t, "Bullish", row.MACDState)
}

func TestSortScored(t *testing.T) {
	rows := []model.ScoredSymbol{{Symbol: "B", Score: 67}, {Symbol: "C", Score: 100}, {Symbol: "A", Score: 67}}
	SortScored(rows)
	assert.Equal(t, "C", rows[0].Symbol)
	assert.Equal(t, "A", rows[1].Symbol)
	assert.Equal(t, "B", rows[2].Symbol)
}

func TestRankingParamsValidate(t *testing.T) {
	p := DefaultRankingParams()
	require.NoError(t, p.Validate())

	bad := p
	bad.MACDFast = 30
	assert.Error(t, bad.Validate())

	bad = p
	bad.EMASpans = nil
	assert.Error(t, bad.Validate())

	bad = p
	bad.RSIFilter = &RSIRange{Lo: 70, Hi: 30}
	assert.Error(t, bad.Validate())

	bad = p
	bad.Direction = "up"
	assert.Error(t, bad.Validate())
}
