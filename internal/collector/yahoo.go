package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/AbhilekhGulpadia/yfinanceScreener/internal/model"
)

const yahooBaseURL = "https://query1.finance.yahoo.com"

// YahooSource fetches bars from the Yahoo Finance chart API.
type YahooSource struct {
	BaseURL   string
	Client    *http.Client
	SymbolMap map[string]string // maps universe symbol to Yahoo ticker
	now       func() time.Time
}

// NewYahooSource creates a Yahoo source with optional proxy support.
func NewYahooSource(proxyURL string, timeout time.Duration) *YahooSource {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &YahooSource{
		BaseURL: yahooBaseURL,
		Client: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
		SymbolMap: map[string]string{
			"NIFTY50":   "^NSEI",
			"NIFTY":     "^NSEI",
			"BANKNIFTY": "^NSEBANK",
		},
		now: time.Now,
	}
}

func (f *YahooSource) Name() string { return "yahoo" }

func (f *YahooSource) yahooSymbol(symbol string) string {
	if mapped, ok := f.SymbolMap[symbol]; ok {
		return mapped
	}
	return symbol
}

// yahooChart is the response structure from the chart API. Nulls mark
// sessions the exchange did not trade.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
				AdjClose []struct {
					AdjClose []*float64 `json:"adjclose"`
				} `json:"adjclose"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func at(v []*float64, i int) float64 {
	if i >= len(v) || v[i] == nil {
		return math.NaN()
	}
	return *v[i]
}

func interval(res model.Resolution) string {
	switch res {
	case model.ResolutionIntraday:
		return "1h"
	case model.ResolutionWeekly:
		return "1wk"
	default:
		return "1d"
	}
}

func (f *YahooSource) chartURL(req Request) string {
	q := url.Values{}
	q.Set("interval", interval(req.resolution()))
	q.Set("includeAdjustedClose", "true")
	if req.From.IsZero() {
		q.Set("range", "max")
	} else {
		to := req.To
		if to.IsZero() {
			to = f.now()
		}
		q.Set("period1", strconv.FormatInt(req.From.Unix(), 10))
		// period2 is exclusive
		q.Set("period2", strconv.FormatInt(to.Add(24*time.Hour).Unix(), 10))
	}
	return fmt.Sprintf("%s/v8/finance/chart/%s?%s", f.BaseURL, url.PathEscape(f.yahooSymbol(req.Symbol)), q.Encode())
}

// FetchBars returns the rows of the chart response unchanged apart from
// null prices becoming NaN; cleaning is left to the normalizer.
func (f *YahooSource) FetchBars(ctx context.Context, req Request) ([]model.RawBar, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, f.chartURL(req), nil)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := f.Client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("yahoo fetch %s: %w", req.Symbol, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("yahoo read body: %w", err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("yahoo %s: %w", req.Symbol, ErrNoData)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("yahoo %s: status %d, body: %s", req.Symbol, resp.StatusCode, string(body))
	}

	var chart yahooChart
	if err := json.Unmarshal(body, &chart); err != nil {
		return nil, fmt.Errorf("yahoo decode: %w", err)
	}
	if e := chart.Chart.Error; e != nil {
		if e.Code == "Not Found" || len(chart.Chart.Result) == 0 {
			return nil, fmt.Errorf("yahoo %s: %s: %w", req.Symbol, e.Description, ErrNoData)
		}
		return nil, fmt.Errorf("yahoo api error: %s", e.Description)
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Timestamp) == 0 || len(chart.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, fmt.Errorf("yahoo %s: %w", req.Symbol, ErrNoData)
	}

	result := chart.Chart.Result[0]
	quote := result.Indicators.Quote[0]
	var adj []*float64
	if len(result.Indicators.AdjClose) > 0 {
		adj = result.Indicators.AdjClose[0].AdjClose
	}

	bars := make([]model.RawBar, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		bars = append(bars, model.RawBar{
			Time:     time.Unix(ts, 0).UTC(),
			Open:     at(quote.Open, i),
			High:     at(quote.High, i),
			Low:      at(quote.Low, i),
			Close:    at(quote.Close, i),
			AdjClose: at(adj, i),
			Volume:   at(quote.Volume, i),
		})
	}
	return bars, nil
}
