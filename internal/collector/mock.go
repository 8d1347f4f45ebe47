package collector

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/AbhilekhGulpadia/yfinanceScreener/internal/model"
)

// MockSource serves fixed bars per symbol for development and testing.
type MockSource struct {
	mu    sync.Mutex
	bars  map[string][]model.RawBar
	errs  map[string]error
	calls map[string]int
}

func NewMockSource() *MockSource {
	return &MockSource{
		bars:  make(map[string][]model.RawBar),
		errs:  make(map[string]error),
		calls: make(map[string]int),
	}
}

func (m *MockSource) Name() string { return "mock" }

// Add registers bars for symbol.
func (m *MockSource) Add(symbol string, bars []model.RawBar) *MockSource {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bars[symbol] = bars
	return m
}

// Fail makes every fetch of symbol return err.
func (m *MockSource) Fail(symbol string, err error) *MockSource {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errs[symbol] = err
	return m
}

// Calls reports how many times symbol was fetched.
func (m *MockSource) Calls(symbol string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[symbol]
}

func (m *MockSource) FetchBars(ctx context.Context, req Request) ([]model.RawBar, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls[req.Symbol]++
	if err := m.errs[req.Symbol]; err != nil {
		return nil, err
	}
	var out []model.RawBar
	for _, b := range m.bars[req.Symbol] {
		if req.contains(b.Time) {
			out = append(out, b)
		}
	}
	if len(out) == 0 {
		return nil, ErrNoData
	}
	return out, nil
}

func (m *MockSource) Symbols(context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.bars))
	for s := range m.bars {
		out = append(out, s)
	}
	sort.Strings(out)
	return out, nil
}

// GenerateDaily builds n weekday bars from start with close = price(i).
func GenerateDaily(start time.Time, n int, price func(i int) float64) []model.RawBar {
	bars := make([]model.RawBar, 0, n)
	t := start
	for len(bars) < n {
		if wd := t.Weekday(); wd != time.Saturday && wd != time.Sunday {
			p := price(len(bars))
			bars = append(bars, model.RawBar{
				Time:     t,
				Open:     p * 0.999,
				High:     p * 1.005,
				Low:      p * 0.995,
				Close:    p,
				AdjClose: p,
				Volume:   1_000_000,
			})
		}
		t = t.AddDate(0, 0, 1)
	}
	return bars
}
