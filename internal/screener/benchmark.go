package screener

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/AbhilekhGulpadia/yfinanceScreener/internal/model"
	"github.com/AbhilekhGulpadia/yfinanceScreener/internal/resample"
)

// Benchmark is the weekly index used for relative strength.
type Benchmark struct {
	Name     string
	Degraded bool
	Weekly   model.Series
}

// resolveBenchmark tries the configured index symbols in order, then a
// synthetic mean of benchmark-index constituents, then of any stocks in
// the pool.
func (s *Screener) resolveBenchmark(ctx context.Context, stocks []model.Stock, day time.Time) (Benchmark, error) {
	for _, sym := range s.cfg.BenchmarkSymbols {
		daily, err := s.fetchDaily(ctx, sym, day, s.cfg.HistoryDays)
		if err == nil {
			return Benchmark{Name: sym, Weekly: resample.CloseToWeekly(daily, s.cfg.WeekAnchor, s.cfg.Location)}, nil
		}
		if ctx.Err() != nil {
			return Benchmark{}, ctx.Err()
		}
		s.log.Debug().Str("symbol", sym).Err(err).Msg("benchmark symbol unavailable")
	}

	pool := s.universe
	if len(pool) == 0 {
		pool = stocks
	}
	var members []model.Stock
	for _, st := range pool {
		if st.InIndex(s.cfg.BenchmarkIndex) {
			members = append(members, st)
		}
	}
	series, err := s.sample(ctx, limit(members, s.cfg.ProxyCandidates), day)
	if err != nil {
		return Benchmark{}, err
	}
	if len(series) == 0 {
		s.log.Warn().Str("index", s.cfg.BenchmarkIndex).Msg("no index constituents available, sampling any symbols")
		if series, err = s.sample(ctx, limit(pool, s.cfg.ProxyCandidates), day); err != nil {
			return Benchmark{}, err
		}
	}
	if len(series) == 0 {
		return Benchmark{}, ErrNoBenchmark
	}
	name := fmt.Sprintf("synthetic(%d)", len(series))
	s.log.Warn().Str("benchmark", name).Msg("using synthetic benchmark")
	return Benchmark{
		Name:     name,
		Degraded: true,
		Weekly:   resample.CloseToWeekly(SyntheticIndex(series), s.cfg.WeekAnchor, s.cfg.Location),
	}, nil
}

func limit(stocks []model.Stock, n int) []model.Stock {
	if n > 0 && len(stocks) > n {
		return stocks[:n]
	}
	return stocks
}

// sample fetches candidates until ProxySample series are collected.
func (s *Screener) sample(ctx context.Context, candidates []model.Stock, day time.Time) ([]model.Series, error) {
	var out []model.Series
	for _, st := range candidates {
		if len(out) >= s.cfg.ProxySample {
			break
		}
		daily, err := protect(func() (model.Series, error) {
			return s.fetchDaily(ctx, st.Symbol, day, s.cfg.HistoryDays)
		})
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			continue
		}
		out = append(out, daily)
	}
	return out, nil
}

// SyntheticIndex averages the closes available at each timestamp. Only the
// close is meaningful in the result.
func SyntheticIndex(series []model.Series) model.Series {
	type acc struct {
		t   time.Time
		sum float64
		n   int
	}
	byTime := map[int64]*acc{}
	for _, s := range series {
		for _, b := range s.Bars {
			if !model.Defined(b.Close) {
				continue
			}
			k := b.Time.UnixNano()
			a, ok := byTime[k]
			if !ok {
				a = &acc{t: b.Time}
				byTime[k] = a
			}
			a.sum += b.Close
			a.n++
		}
	}
	keys := make([]int64, 0, len(byTime))
	for k := range byTime {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	out := model.Series{Symbol: "SYNTHETIC", Resolution: model.ResolutionDaily, Bars: make([]model.Bar, 0, len(keys))}
	nan := math.NaN()
	for _, k := range keys {
		a := byTime[k]
		out.Bars = append(out.Bars, model.Bar{Time: a.t, Open: nan, High: nan, Low: nan, Close: a.sum / float64(a.n), AdjClose: nan})
	}
	return out
}
