package collector

import (
	"context"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AbhilekhGulpadia/yfinanceScreener/internal/cache"
	"github.com/AbhilekhGulpadia/yfinanceScreener/internal/model"
)

const chartJSON = `{"chart":{"result":[{
	"timestamp":[1704166200,1704252600,1704339000],
	"indicators":{
		"quote":[{"open":[10,11,null],"high":[10.5,11.5,null],"low":[9.5,10.5,null],"close":[10.2,11.1,null],"volume":[1000,null,0]}],
		"adjclose":[{"adjclose":[10.1,11.0,null]}]
	}}],"error":null}}`

func TestYahooFetchBars(t *testing.T) {
	var gotPath, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		w.Write([]byte(chartJSON))
	}))
	defer srv.Close()

	y := NewYahooSource("", time.Second)
	y.BaseURL = srv.URL
	bars, err := y.FetchBars(context.Background(), Request{
		Symbol: "NIFTY50",
		From:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		To:     time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Equal(t, "/v8/finance/chart/^NSEI", gotPath)
	assert.Contains(t, gotQuery, "interval=1d")
	assert.Contains(t, gotQuery, "period1=1704067200")

	require.Len(t, bars, 3)
	assert.Equal(t, 10.2, bars[0].Close)
	assert.Equal(t, 10.1, bars[0].AdjClose)
	assert.True(t, math.IsNaN(bars[1].Volume))
	assert.True(t, math.IsNaN(bars[2].Close), "null close stays undefined")
}

func TestYahooNoData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "GONE") {
			http.Error(w, `{"chart":{"result":null,"error":{"code":"Not Found"}}}`, http.StatusNotFound)
			return
		}
		switch {
		case strings.Contains(r.URL.Path, "DELISTED"):
			w.Write([]byte(`{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`))
		case strings.Contains(r.URL.Path, "BROKEN"):
			w.Write([]byte(`{"chart":{"result":[{"timestamp":[1]}],"error":{"code":"Internal Server Error","description":"boom"}}}`))
		default:
			w.Write([]byte(`{"chart":{"result":[],"error":null}}`))
		}
	}))
	defer srv.Close()

	y := NewYahooSource("", time.Second)
	y.BaseURL = srv.URL
	_, err := y.FetchBars(context.Background(), Request{Symbol: "GONE.NS"})
	assert.ErrorIs(t, err, ErrNoData)
	_, err = y.FetchBars(context.Background(), Request{Symbol: "EMPTY.NS"})
	assert.ErrorIs(t, err, ErrNoData)
	_, err = y.FetchBars(context.Background(), Request{Symbol: "DELISTED.NS"})
	assert.ErrorIs(t, err, ErrNoData)
	assert.Contains(t, err.Error(), "delisted")
	_, err = y.FetchBars(context.Background(), Request{Symbol: "BROKEN.NS"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoData)
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "bars.db"), zerolog.Nop())
	require.NoError(t, err)
	defer s.Close()

	bars := GenerateDaily(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), 10, func(i int) float64 { return 100 + float64(i) })
	bars[3].AdjClose = math.NaN()
	n, err := s.Upsert(ctx, "TCS.NS", model.ResolutionDaily, bars)
	require.NoError(t, err)
	assert.Equal(t, 10, n)

	// same timestamps replace
	bars[0].Close = 42
	_, err = s.Upsert(ctx, "TCS.NS", model.ResolutionDaily, bars[:1])
	require.NoError(t, err)

	got, err := s.FetchBars(ctx, Request{Symbol: "TCS.NS", From: bars[2].Time, To: bars[5].Time})
	require.NoError(t, err)
	require.Len(t, got, 4)
	assert.True(t, math.IsNaN(got[1].AdjClose), "NULL reads back as NaN")
	assert.Equal(t, bars[2].Time, got[0].Time)

	all, err := s.FetchBars(ctx, Request{Symbol: "TCS.NS"})
	require.NoError(t, err)
	assert.Len(t, all, 10)
	assert.Equal(t, 42.0, all[0].Close)

	_, err = s.FetchBars(ctx, Request{Symbol: "INFY.NS"})
	assert.ErrorIs(t, err, ErrNoData)

	syms, err := s.Symbols(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"TCS.NS"}, syms)
}

func TestCachedSource(t *testing.T) {
	ctx := context.Background()
	mock := NewMockSource().Add("TCS.NS", GenerateDaily(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), 5, func(int) float64 { return 10 }))
	c := NewCachedSource(mock, cache.NewMemory(), time.Hour, zerolog.Nop())

	req := Request{Symbol: "TCS.NS"}
	first, err := c.FetchBars(ctx, req)
	require.NoError(t, err)
	second, err := c.FetchBars(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, mock.Calls("TCS.NS"))

	_, err = c.FetchBars(ctx, Request{Symbol: "NONE.NS"})
	assert.ErrorIs(t, err, ErrNoData)
}

func TestRequestCacheKey(t *testing.T) {
	r := Request{Symbol: "TCS.NS", From: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)}
	assert.Equal(t, "TCS.NS|20240102|-|1d", r.CacheKey())
	r.Resolution = model.ResolutionWeekly
	assert.Equal(t, "TCS.NS|20240102|-|1wk", r.CacheKey())
}

func TestGuardedSourceTrips(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("upstream 500")
	mock := NewMockSource().Fail("A.NS", boom)
	g := NewGuardedSource(mock, 0, 1)

	for i := 0; i < 3; i++ {
		_, err := g.FetchBars(ctx, Request{Symbol: "A.NS"})
		assert.ErrorIs(t, err, boom)
	}
	_, err := g.FetchBars(ctx, Request{Symbol: "A.NS"})
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, 3, mock.Calls("A.NS"))
	assert.Equal(t, "open", g.State())
}

func TestGuardedSourceNoDataIsNotFailure(t *testing.T) {
	ctx := context.Background()
	g := NewGuardedSource(NewMockSource(), 0, 1)
	for i := 0; i < 5; i++ {
		_, err := g.FetchBars(ctx, Request{Symbol: "MISSING.NS"})
		assert.ErrorIs(t, err, ErrNoData)
	}
	assert.Equal(t, "closed", g.State())
}

func TestMockSourceCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewMockSource().FetchBars(ctx, Request{Symbol: "X"})
	assert.ErrorIs(t, err, context.Canceled)
}
