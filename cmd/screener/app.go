package main

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"io"
	"math"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/AbhilekhGulpadia/yfinanceScreener/internal/cache"
	"github.com/AbhilekhGulpadia/yfinanceScreener/internal/collector"
	"github.com/AbhilekhGulpadia/yfinanceScreener/internal/config"
	"github.com/AbhilekhGulpadia/yfinanceScreener/internal/logging"
	"github.com/AbhilekhGulpadia/yfinanceScreener/internal/metrics"
	"github.com/AbhilekhGulpadia/yfinanceScreener/internal/model"
	"github.com/AbhilekhGulpadia/yfinanceScreener/internal/recorder"
	"github.com/AbhilekhGulpadia/yfinanceScreener/internal/screener"
	"github.com/AbhilekhGulpadia/yfinanceScreener/internal/universe"
)

// app holds the wired collaborators of one command invocation.
type app struct {
	cfg      *config.Config
	log      zerolog.Logger
	metrics  *metrics.Registry
	universe *universe.Universe
	screener *screener.Screener
	closers  []func() error
}

func loadConfig() (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("config validation: %w", err)
	}
	return cfg, logging.New(cfg.Logging.Level, cfg.Logging.Format, os.Stderr), nil
}

func newApp() (*app, error) {
	cfg, log, err := loadConfig()
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, log: log, metrics: metrics.NewRegistry()}

	a.universe, err = universe.Load(cfg.Market.UniverseFile)
	if err != nil {
		return nil, err
	}
	log.Info().Str("file", cfg.Market.UniverseFile).Int("stocks", a.universe.Len()).Msg("universe loaded")

	src, err := a.source()
	if err != nil {
		a.Close()
		return nil, err
	}
	sc, err := cfg.Screener()
	if err != nil {
		a.Close()
		return nil, err
	}
	a.screener, err = screener.New(src, sc,
		screener.WithLogger(log),
		screener.WithMetrics(a.metrics),
		screener.WithUniverse(a.universe.Stocks()),
	)
	if err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

// source builds provider -> rate limit and breaker -> cache.
func (a *app) source() (collector.Source, error) {
	cfg := a.cfg
	var src collector.Source
	switch cfg.DataSource.Provider {
	case "yahoo":
		y := collector.NewYahooSource(cfg.DataSource.ProxyURL, time.Duration(cfg.DataSource.TimeoutSeconds)*time.Second)
		src = collector.NewGuardedSource(y, cfg.DataSource.RateLimit, cfg.DataSource.Burst)
	case "sqlite":
		store, err := collector.NewSQLiteStore(cfg.Database.SQLitePath, a.log)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, store.Close)
		src = store
	case "mock":
		src = demoSource(a.universe.Stocks(), cfg.Market.BenchmarkSymbols)
	}
	a.log.Info().Str("provider", src.Name()).Msg("data source ready")

	switch cfg.Cache.Backend {
	case "memory":
		return collector.NewCachedSource(src, cache.NewMemory(), cfg.CacheTTL(), a.log), nil
	case "redis":
		rc := cache.NewRedis(cfg.Cache.RedisAddr, cfg.Cache.RedisDB, cfg.Cache.Prefix)
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := rc.Ping(ctx); err != nil {
			a.log.Warn().Err(err).Str("addr", cfg.Cache.RedisAddr).Msg("redis unreachable, caching disabled")
			rc.Close()
			return src, nil
		}
		a.closers = append(a.closers, rc.Close)
		return collector.NewCachedSource(src, rc, cfg.CacheTTL(), a.log), nil
	default:
		return src, nil
	}
}

// demoSource generates a deterministic random walk per symbol, ending today.
func demoSource(stocks []model.Stock, benchmarks []string) *collector.MockSource {
	m := collector.NewMockSource()
	const n = 900
	today := time.Now().UTC().Truncate(24 * time.Hour)
	start := today.AddDate(0, 0, -n*7/5)
	add := func(symbol string) {
		h := fnv.New64a()
		h.Write([]byte(symbol))
		seed := float64(h.Sum64()%1000) / 1000
		drift := (seed - 0.4) / 500
		m.Add(symbol, collector.GenerateDaily(start, n, func(i int) float64 {
			x := float64(i)
			return 100 * (1 + seed) * math.Exp(drift*x) * (1 + 0.05*math.Sin(x/(9+20*seed)))
		}))
	}
	for _, s := range stocks {
		add(s.Symbol)
	}
	if len(benchmarks) > 0 {
		add(benchmarks[0])
	}
	return m
}

// stocks selects the members for --index, the configured index by default.
func (a *app) stocks() []model.Stock {
	switch indexFlag {
	case "":
		return a.universe.Members(a.cfg.Screening.Index)
	case "all":
		return a.universe.Stocks()
	default:
		return a.universe.Members(indexFlag)
	}
}

// openRecorder returns the SQLite run recorder when run recording is on,
// falling back to a no-op recorder.
func (a *app) openRecorder() recorder.Recorder {
	if !a.cfg.Database.RecordRuns || a.cfg.Database.SQLitePath == "" {
		return recorder.NewNoopRecorder()
	}
	r, err := recorder.NewSQLiteRecorder(a.cfg.Database.SQLitePath, a.log)
	if err != nil {
		a.log.Warn().Err(err).Msg("init sqlite recorder failed, using noop")
		return recorder.NewNoopRecorder()
	}
	a.closers = append(a.closers, r.Close)
	return r
}

func (a *app) record(fn func(recorder.Recorder) error) {
	if err := fn(a.openRecorder()); err != nil {
		a.log.Error().Err(err).Msg("record run")
	}
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.log.Warn().Err(err).Msg("close")
		}
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
