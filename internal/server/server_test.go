package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AbhilekhGulpadia/yfinanceScreener/internal/collector"
	"github.com/AbhilekhGulpadia/yfinanceScreener/internal/metrics"
	"github.com/AbhilekhGulpadia/yfinanceScreener/internal/model"
	"github.com/AbhilekhGulpadia/yfinanceScreener/internal/screener"
	"github.com/AbhilekhGulpadia/yfinanceScreener/internal/universe"
)

type fixedLatest struct {
	weinstein *screener.WeinsteinResult
}

func (f fixedLatest) LatestWeinstein() *screener.WeinsteinResult { return f.weinstein }
func (f fixedLatest) LatestRanking() *screener.RankingResult     { return nil }

func newTestServer(t *testing.T, latest Latest) *Server {
	t.Helper()
	start := time.Date(2022, 1, 3, 0, 0, 0, 0, time.UTC)
	up := collector.GenerateDaily(start, 400, func(i int) float64 { return 100 + 0.5*float64(i) })
	src := collector.NewMockSource().
		Add("^NSEI", collector.GenerateDaily(start, 400, func(int) float64 { return 1000 })).
		Add("UP.NS", up)
	cfg := screener.DefaultConfig()
	cfg.Location = time.UTC
	asOf := up[len(up)-1].Time
	reg := metrics.NewRegistry()
	scr, err := screener.New(src, cfg, screener.WithClock(func() time.Time { return asOf }), screener.WithMetrics(reg))
	require.NoError(t, err)

	uni := universe.New([]model.Stock{{Symbol: "UP", Name: "Up Ltd", Sector: "IT", Indices: []string{"nifty50"}}}, ".NS")
	s, err := New(Config{Screener: scr, Universe: uni, Index: "nifty50", Latest: latest, Metrics: reg, Logger: zerolog.Nop()})
	require.NoError(t, err)
	return s
}

func get(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestNewValidation(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}

func TestHealth(t *testing.T) {
	w := get(t, newTestServer(t, nil), "/health")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, 1.0, body["universe"])
}

func TestWeinstein(t *testing.T) {
	s := newTestServer(t, nil)
	w := get(t, s, "/api/weinstein")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "^NSEI", body["benchmark"])
	assert.Equal(t, []any{"UP.NS"}, body["shortlist"])
	row := body["rows"].([]any)[0].(map[string]any)
	assert.Equal(t, "Stage 2", row["stage"])
	assert.Equal(t, 100.0, row["score"])

	assert.Equal(t, http.StatusBadRequest, get(t, s, "/api/weinstein?as_of=yesterday").Code)

	m := get(t, s, "/metrics")
	require.Equal(t, http.StatusOK, m.Code)
	assert.Contains(t, m.Body.String(), "screener_runs_total")
}

func TestWeinsteinServesLatestRun(t *testing.T) {
	s := newTestServer(t, fixedLatest{weinstein: &screener.WeinsteinResult{RunID: "scheduled", Status: screener.StatusOK}})
	assert.Equal(t, "scheduled", decode(t, get(t, s, "/api/weinstein"))["run_id"])
	assert.NotEqual(t, "scheduled", decode(t, get(t, s, "/api/weinstein?fresh=1"))["run_id"])
}

func TestWeinsteinDetail(t *testing.T) {
	s := newTestServer(t, nil)
	w := get(t, s, "/api/weinstein/up?weeks=4")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, "UP.NS", body["symbol"])
	assert.Len(t, body["weeks"], 4)

	assert.Equal(t, http.StatusNotFound, get(t, s, "/api/weinstein/NOPE").Code)
	assert.Equal(t, http.StatusBadRequest, get(t, s, "/api/weinstein/UP?weeks=-1").Code)
}

func TestRanking(t *testing.T) {
	w := get(t, newTestServer(t, nil), "/api/ranking")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	rows := body["rows"].([]any)
	require.Len(t, rows, 1)
	row := rows[0].(map[string]any)
	assert.Equal(t, 1.0, row["rank"])
	assert.Contains(t, row["recency"], "has_200_ema_cross")
}

func TestChart(t *testing.T) {
	s := newTestServer(t, nil)
	w := get(t, s, "/api/chart/UP.NS")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	columns := body["columns"].(map[string]any)
	assert.Contains(t, columns, "ema_200")
	assert.Contains(t, columns, "rsi")

	html := get(t, s, "/api/chart/UP.NS?format=html")
	require.Equal(t, http.StatusOK, html.Code)
	assert.Contains(t, html.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, html.Body.String(), "<html")

	assert.Equal(t, http.StatusNotFound, get(t, s, "/api/chart/NOPE.NS").Code)
}

func TestRunsAndUniverse(t *testing.T) {
	s := newTestServer(t, nil)
	w := get(t, s, "/api/runs")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []any{}, decode(t, w)["runs"])
	assert.Equal(t, http.StatusBadRequest, get(t, s, "/api/runs?limit=x").Code)

	body := decode(t, get(t, s, "/api/universe"))
	assert.Equal(t, 1.0, body["count"])
	assert.Equal(t, []any{"IT"}, body["sectors"])
}
