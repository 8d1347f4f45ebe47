// Package screener runs the per-symbol pipelines across a stock universe.
//
// A run fetches each symbol's daily bars, normalizes them, resamples as the
// strategy requires and keeps only the final row. Symbols are processed in
// fixed-size batches; within a batch up to Workers symbols run at once.
// Per-symbol failures are counted and reported, never fatal.
package screener

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/AbhilekhGulpadia/yfinanceScreener/internal/collector"
	"github.com/AbhilekhGulpadia/yfinanceScreener/internal/metrics"
	"github.com/AbhilekhGulpadia/yfinanceScreener/internal/model"
	"github.com/AbhilekhGulpadia/yfinanceScreener/internal/normalize"
	"github.com/AbhilekhGulpadia/yfinanceScreener/internal/resample"
	"github.com/AbhilekhGulpadia/yfinanceScreener/internal/strategy"
)

var (
	ErrNoBenchmark    = errors.New("no benchmark available")
	ErrEmptyUniverse  = errors.New("empty universe")
	ErrSymbolNotFound = errors.New("symbol not found")

	ErrInsufficientHistory = strategy.ErrInsufficientHistory
)

// Config carries the run parameters.
type Config struct {
	BatchSize             int
	Workers               int
	ReleaseBetweenBatches bool

	// HistoryDays is the calendar window fetched for Stage Analysis and charts.
	HistoryDays int
	// RankingHistoryDays is the calendar window fetched for crossover ranking.
	RankingHistoryDays int
	SourceResolution   model.Resolution

	Location   *time.Location
	WeekAnchor time.Weekday

	BenchmarkSymbols []string
	BenchmarkIndex   string
	ProxySample      int
	ProxyCandidates  int

	Preset        strategy.Preset
	Indicators    strategy.IndicatorParams
	Ranking       strategy.RankingParams
	MinWeeklyBars int
	MinDailyBars  int
	ChartEMASpans []int
}

// DefaultConfig returns the NSE defaults.
func DefaultConfig() Config {
	loc, err := time.LoadLocation("Asia/Kolkata")
	if err != nil {
		loc = time.FixedZone("IST", 5*3600+1800)
	}
	preset, _ := strategy.LookupPreset(strategy.DefaultPreset)
	return Config{
		BatchSize:             50,
		Workers:               4,
		ReleaseBetweenBatches: true,
		HistoryDays:           3 * 365,
		RankingHistoryDays:    500,
		SourceResolution:      model.ResolutionDaily,
		Location:              loc,
		WeekAnchor:            time.Friday,
		BenchmarkSymbols:      []string{"^NSEI", "NIFTY50", "NIFTY 50", "NSEI", "^NSEI.NS", "NIFTY50.NS"},
		BenchmarkIndex:        "nifty50",
		ProxySample:           10,
		ProxyCandidates:       20,
		Preset:                preset,
		Indicators:            strategy.DefaultIndicatorParams(),
		Ranking:               strategy.DefaultRankingParams(),
		MinWeeklyBars:         52,
		MinDailyBars:          30,
		ChartEMASpans:         []int{21, 44, 200},
	}
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	switch {
	case c.BatchSize <= 0:
		return fmt.Errorf("batch size must be positive, got %d", c.BatchSize)
	case c.Workers <= 0:
		return fmt.Errorf("workers must be positive, got %d", c.Workers)
	case c.HistoryDays <= 0 || c.RankingHistoryDays <= 0:
		return errors.New("history windows must be positive")
	case c.Location == nil:
		return errors.New("location is required")
	case c.MinWeeklyBars <= 0 || c.MinDailyBars <= 0:
		return errors.New("minimum bar counts must be positive")
	case c.ProxySample <= 0:
		return fmt.Errorf("proxy sample must be positive, got %d", c.ProxySample)
	}
	for _, span := range c.ChartEMASpans {
		if span <= 0 {
			return fmt.Errorf("chart ema span must be positive, got %d", span)
		}
	}
	if err := c.Preset.Validate(); err != nil {
		return err
	}
	if err := c.Indicators.Validate(); err != nil {
		return err
	}
	return c.Ranking.Validate()
}

// Screener runs screening passes against one source.
type Screener struct {
	src      collector.Source
	cfg      Config
	log      zerolog.Logger
	metrics  *metrics.Registry
	universe []model.Stock
	now      func() time.Time
}

type Option func(*Screener)

func WithLogger(l zerolog.Logger) Option { return func(s *Screener) { s.log = l } }

func WithMetrics(m *metrics.Registry) Option { return func(s *Screener) { s.metrics = m } }

// WithUniverse sets the pool the synthetic benchmark samples from. Without
// it, each run samples from the stocks it is given.
func WithUniverse(stocks []model.Stock) Option {
	return func(s *Screener) { s.universe = stocks }
}

// WithClock replaces the clock used when a run has no as-of time.
func WithClock(now func() time.Time) Option { return func(s *Screener) { s.now = now } }

func New(src collector.Source, cfg Config, opts ...Option) (*Screener, error) {
	if src == nil {
		return nil, errors.New("screener: nil source")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("screener config: %w", err)
	}
	s := &Screener{src: src, cfg: cfg, log: zerolog.Nop(), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Config returns the active configuration.
func (s *Screener) Config() Config { return s.cfg }

// asOfDay resolves the run's as-of day in market time.
func (s *Screener) asOfDay(asOf time.Time) time.Time {
	if asOf.IsZero() {
		asOf = s.now()
	}
	return resample.DayOf(asOf, s.cfg.Location)
}

// fetchDaily returns clean daily bars of symbol up to and including day.
func (s *Screener) fetchDaily(ctx context.Context, symbol string, day time.Time, days int) (model.Series, error) {
	req := collector.Request{
		Symbol:     symbol,
		From:       day.AddDate(0, 0, -days),
		To:         day.AddDate(0, 0, 1),
		Resolution: s.cfg.SourceResolution,
	}
	start := time.Now()
	raw, err := s.src.FetchBars(ctx, req)
	s.metrics.ObserveFetch(s.src.Name(), time.Since(start))
	if err != nil {
		return model.Series{}, fmt.Errorf("fetch %s: %w", symbol, err)
	}
	daily := resample.ToDaily(normalize.Bars(symbol, req.Resolution, raw), s.cfg.Location).Until(day)
	if daily.Empty() {
		return daily, fmt.Errorf("%s has no usable bars: %w", symbol, collector.ErrNoData)
	}
	return daily, nil
}
