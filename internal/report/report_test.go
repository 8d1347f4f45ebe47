package report

import (
	"bytes"
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AbhilekhGulpadia/yfinanceScreener/internal/model"
	"github.com/AbhilekhGulpadia/yfinanceScreener/internal/screener"
)

var friday = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

func TestRound2(t *testing.T) {
	require.NotNil(t, Round2(1.005))
	assert.Equal(t, 12.35, *Round2(12.345))
	assert.Equal(t, -2.5, *Round2(-2.499))
	assert.Nil(t, Round2(math.NaN()))
	assert.Nil(t, Round2(math.Inf(1)))
}

func weinsteinResult() *screener.WeinsteinResult {
	return &screener.WeinsteinResult{
		RunID:         "run-1",
		AsOf:          friday,
		Preset:        "core",
		PresetVersion: 3,
		Benchmark:     "synthetic(3)",
		Degraded:      true,
		Status:        screener.StatusOK,
		Counts:        screener.Counts{Considered: 2, Scored: 2},
		Shortlist:     []string{"UP.NS"},
		Rows: []model.ScoredSymbol{{
			Symbol:     "UP.NS",
			Sector:     "IT",
			Time:       friday,
			Close:      123.456,
			ChangePct:  math.NaN(),
			Score:      100,
			Stage:      model.Stage2Advancing,
			AllPassed:  true,
			Conditions: map[model.Condition]bool{model.CondStage2: true},
			Components: []model.ScoreComponent{{Name: "stage2", Points: 33.333}},
			Values:     map[string]float64{"rs": math.NaN(), "ma30": 101.239},
		}},
	}
}

func TestWeinsteinViewMarshalsUndefinedAsNull(t *testing.T) {
	b, err := json.Marshal(NewWeinstein(weinsteinResult()))
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(b, &got))
	assert.Equal(t, "2024-03-01", got["as_of"])
	assert.Equal(t, true, got["degraded"])
	rows := got["rows"].([]any)
	require.Len(t, rows, 1)
	row := rows[0].(map[string]any)
	assert.Equal(t, 123.46, row["close"])
	assert.Nil(t, row["change_pct"])
	assert.Equal(t, "Stage 2", row["stage"])
	values := row["values"].(map[string]any)
	assert.Nil(t, values["rs"])
	assert.Equal(t, 101.24, values["ma30"])
	assert.Equal(t, 33.33, row["components"].([]any)[0].(map[string]any)["points"])
}

func rankingResult() *screener.RankingResult {
	return &screener.RankingResult{
		RunID:  "run-2",
		AsOf:   friday,
		Status: screener.StatusOK,
		Rows: []model.RankedSymbol{{
			Rank:   1,
			Symbol: "ZRECENT.NS",
			Time:   friday,
			Close:  300,
			RSI:    71.234,
			Crosses: []model.CrossInfo{
				{Label: "50_ema", Span: 50, WithinWindow: true, PeriodsSince: 5},
				{Label: "200_ema", Span: 200, PeriodsSince: model.NeverCrossed},
			},
			MACDCross: model.CrossInfo{Label: "macd_bull", PeriodsSince: 12},
			EMAStates: []model.EMAState{{Span: 50, State: "Above"}, {Span: 200, State: "No"}},
			MACDState: "Bullish",
		}},
	}
}

func TestRankingViewRecency(t *testing.T) {
	v := NewRanking(rankingResult())
	require.Len(t, v.Rows, 1)
	row := v.Rows[0]
	assert.Equal(t, 71.23, *row.RSI)
	assert.Equal(t, map[string]string{"50_ema": "Above", "200_ema": "No"}, row.EMAStates)
	assert.Equal(t, true, row.Recency["has_50_ema_cross"])
	assert.Equal(t, 5, *row.Recency["days_since_50_ema_cross"].(*int))
	assert.Equal(t, false, row.Recency["has_200_ema_cross"])
	assert.Nil(t, row.Recency["days_since_200_ema_cross"].(*int))
	assert.Equal(t, 12, *row.Recency["days_since_macd_bull_cross"].(*int))

	b, err := json.Marshal(v)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"days_since_200_ema_cross":null`)
}

func chartFrame(t *testing.T) *model.IndicatorFrame {
	t.Helper()
	s := model.Series{Symbol: "UP.NS"}
	for i := 0; i < 3; i++ {
		c := 100 + float64(i)
		s.Bars = append(s.Bars, model.Bar{Time: friday.AddDate(0, 0, i), Open: c, High: c, Low: c, Close: c, Volume: 10})
	}
	f := model.NewIndicatorFrame(s)
	require.NoError(t, f.Set(screener.EMAColumn(21), []float64{math.NaN(), 100.5, 101.25}))
	require.NoError(t, f.Set(screener.ColRSI, []float64{math.NaN(), 60, 70}))
	require.NoError(t, f.Set(screener.ColMACD, []float64{0, 0.1, 0.2}))
	require.NoError(t, f.Set(screener.ColMACDSignal, []float64{0, 0.05, 0.1}))
	require.NoError(t, f.Set(screener.ColMACDHistogram, []float64{0, 0.05, 0.1}))
	return f
}

func TestFrameView(t *testing.T) {
	v := NewFrame(chartFrame(t))
	assert.Equal(t, []string{"2024-03-01", "2024-03-02", "2024-03-03"}, v.Dates)
	assert.Nil(t, v.Columns["ema_21"][0])
	assert.Equal(t, 101.25, *v.Columns["ema_21"][2])
	_, err := json.Marshal(v)
	require.NoError(t, err)
}

func TestRenderTables(t *testing.T) {
	var buf bytes.Buffer
	RenderWeinstein(&buf, weinsteinResult(), 10)
	out := buf.String()
	assert.Contains(t, out, "UP.NS")
	assert.Contains(t, out, "123.46")
	assert.Contains(t, out, "synthetic(3)")
	assert.Contains(t, out, "status ok")

	buf.Reset()
	RenderRanking(&buf, rankingResult(), 0)
	out = buf.String()
	assert.Contains(t, out, "ZRECENT.NS")
	assert.Contains(t, out, "5*")
	assert.Contains(t, out, "Bullish")
}

func TestRenderDetail(t *testing.T) {
	var buf bytes.Buffer
	RenderDetail(&buf, &screener.Detail{
		Symbol:      "UP.NS",
		Benchmark:   "^NSEI",
		WeeksPassed: 1,
		Weeks: []screener.WeekDetail{{
			Time:       friday,
			Close:      100,
			Stage:      model.Stage2Advancing,
			Conditions: map[model.Condition]model.Outcome{model.CondStage2: model.OutcomePass},
			AllPassed:  true,
		}},
	})
	out := buf.String()
	assert.Contains(t, out, "STAGE2", "headers are upper-cased")
	assert.Contains(t, out, "pass")
	assert.Contains(t, out, "Stage 2")
}

func TestRenderChart(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderChart(&buf, chartFrame(t)))
	out := buf.String()
	assert.Contains(t, out, "<html")
	assert.Contains(t, out, "ema_21")
	assert.Contains(t, out, "MACD histogram")
}
