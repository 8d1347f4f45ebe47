package recorder

import (
	"context"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AbhilekhGulpadia/yfinanceScreener/internal/model"
	"github.com/AbhilekhGulpadia/yfinanceScreener/internal/screener"
)

func openRecorder(t *testing.T) *SQLiteRecorder {
	t.Helper()
	r, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "runs.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })
	return r
}

func TestRecordWeinstein(t *testing.T) {
	r := openRecorder(t)
	ctx := context.Background()
	asOf := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	res := &screener.WeinsteinResult{
		RunID:         "w-1",
		AsOf:          asOf,
		Preset:        "core",
		PresetVersion: 3,
		Benchmark:     "^NSEI",
		Status:        screener.StatusOK,
		Counts:        screener.Counts{Considered: 3, Scored: 2, Skipped: 1},
		Rows: []model.ScoredSymbol{
			{Symbol: "UP.NS", Time: asOf, Close: 110, ChangePct: math.NaN(), Score: 100, Stage: model.Stage2Advancing,
				Values: map[string]float64{"rs": 1.1}},
			{Symbol: "FLAT.NS", Time: asOf, Close: 50, Score: 33},
		},
		StartedAt: asOf.Add(time.Hour),
		Duration:  1500 * time.Millisecond,
	}
	require.NoError(t, r.RecordWeinstein(ctx, res))
	assert.Error(t, r.RecordWeinstein(ctx, res), "run ids are unique")

	n, err := r.ScoredCount(ctx, "w-1")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	runs, err := r.Runs(ctx, KindWeinstein, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	got := runs[0]
	assert.Equal(t, "w-1", got.ID)
	assert.Equal(t, asOf, got.AsOf)
	assert.Equal(t, screener.StatusOK, got.Status)
	assert.Equal(t, "core", got.Preset)
	assert.Equal(t, 2, got.Counts.Scored)
	assert.Equal(t, int64(1500), got.DurationMS)
}

func TestRecordRankingAndListing(t *testing.T) {
	r := openRecorder(t)
	ctx := context.Background()
	asOf := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, r.RecordRanking(ctx, &screener.RankingResult{
		RunID:  "r-1",
		AsOf:   asOf,
		Status: screener.StatusOK,
		Rows: []model.RankedSymbol{{
			Rank:      1,
			Symbol:    "ZRECENT.NS",
			Time:      asOf,
			Close:     300,
			RSI:       math.NaN(),
			Crosses:   []model.CrossInfo{{Label: "50_ema", WithinWindow: true, PeriodsSince: 5}},
			MACDCross: model.CrossInfo{Label: "macd_bull", PeriodsSince: model.NeverCrossed},
		}},
		StartedAt: asOf.Add(2 * time.Hour),
	}))
	require.NoError(t, r.RecordRanking(ctx, &screener.RankingResult{
		RunID:     "r-0",
		AsOf:      asOf,
		Status:    screener.StatusUnavailable,
		Reason:    "no data",
		StartedAt: asOf,
	}))

	runs, err := r.Runs(ctx, "", 0)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "r-1", runs[0].ID, "newest first")
	assert.Equal(t, screener.StatusUnavailable, runs[1].Status)
	assert.Equal(t, "no data", runs[1].Reason)

	runs, err = r.Runs(ctx, KindWeinstein, 5)
	require.NoError(t, err)
	assert.Empty(t, runs)

	var best string
	var since int
	require.NoError(t, r.db.QueryRow(`SELECT best_cross, best_since FROM ranked_symbols WHERE run_id = 'r-1'`).Scan(&best, &since))
	assert.Equal(t, "50_ema", best)
	assert.Equal(t, 5, since)
}

func TestNoopRecorder(t *testing.T) {
	var r Recorder = NewNoopRecorder()
	assert.NoError(t, r.RecordWeinstein(context.Background(), &screener.WeinsteinResult{}))
	runs, err := r.Runs(context.Background(), "", 1)
	assert.NoError(t, err)
	assert.Nil(t, runs)
	assert.NoError(t, r.Close())
}
