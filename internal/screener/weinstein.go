package screener

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/AbhilekhGulpadia/yfinanceScreener/internal/collector"
	"github.com/AbhilekhGulpadia/yfinanceScreener/internal/model"
	"github.com/AbhilekhGulpadia/yfinanceScreener/internal/resample"
	"github.com/AbhilekhGulpadia/yfinanceScreener/internal/strategy"
)

const kindWeinstein = "weinstein"

// WeinsteinResult is the latest-week snapshot of one Stage Analysis run.
type WeinsteinResult struct {
	RunID         string               `json:"run_id"`
	AsOf          time.Time            `json:"as_of"`
	Preset        string               `json:"preset"`
	PresetVersion int                  `json:"preset_version"`
	Benchmark     string               `json:"benchmark"`
	Degraded      bool                 `json:"degraded"`
	Status        Status               `json:"status"`
	Reason        string               `json:"reason,omitempty"`
	Counts                             `json:"counts"`
	Rows          []model.ScoredSymbol `json:"rows"`
	Shortlist     []string             `json:"shortlist"`
	Failures      []Failure            `json:"failures,omitempty"`
	Stale         []string             `json:"stale,omitempty"`
	StartedAt     time.Time            `json:"started_at"`
	Duration      time.Duration        `json:"duration"`
}

func (s *Screener) engine() strategy.Engine {
	e := strategy.NewEngine(s.cfg.Preset)
	e.Indicators = s.cfg.Indicators
	e.MinWeeklyBars = s.cfg.MinWeeklyBars
	return e
}

func (s *Screener) weekly(ctx context.Context, symbol string, day time.Time) (model.Series, error) {
	daily, err := s.fetchDaily(ctx, symbol, day, s.cfg.HistoryDays)
	if err != nil {
		return model.Series{}, err
	}
	return resample.ToWeekly(daily, s.cfg.WeekAnchor, s.cfg.Location), nil
}

// RunWeinstein scores every stock on the preset's weekly conditions as of
// asOf (now when zero). Rows are ordered by score, then symbol.
func (s *Screener) RunWeinstein(ctx context.Context, stocks []model.Stock, asOf time.Time) (*WeinsteinResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	day := s.asOfDay(asOf)
	res := &WeinsteinResult{
		RunID:         uuid.NewString(),
		AsOf:          day,
		Preset:        s.cfg.Preset.Name,
		PresetVersion: s.cfg.Preset.Version,
		StartedAt:     time.Now(),
	}
	log := s.log.With().Str("run_id", res.RunID).Str("kind", kindWeinstein).Logger()

	finish := func() (*WeinsteinResult, error) {
		res.Duration = time.Since(res.StartedAt)
		s.metrics.RunFinished(kindWeinstein, string(res.Status), res.Duration)
		log.Info().
			Str("status", string(res.Status)).
			Str("benchmark", res.Benchmark).
			Int("considered", res.Considered).
			Int("scored", res.Scored).
			Int("skipped", res.Skipped).
			Int("failed", res.Failed).
			Int("shortlist", len(res.Shortlist)).
			Msg("stage analysis finished")
		return res, nil
	}

	if len(stocks) == 0 {
		res.Status, res.Reason = StatusUnavailable, ErrEmptyUniverse.Error()
		return finish()
	}
	bench, err := s.resolveBenchmark(ctx, stocks, day)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		res.Status, res.Reason = StatusUnavailable, err.Error()
		res.Considered = len(stocks)
		return finish()
	}
	res.Benchmark, res.Degraded = bench.Name, bench.Degraded

	engine := s.engine()
	rows, counts, failures, err := runBatches(ctx, s, kindWeinstein, stocks, func(ctx context.Context, st model.Stock) (model.ScoredSymbol, error) {
		weekly, err := s.weekly(ctx, st.Symbol, day)
		if err != nil {
			return model.ScoredSymbol{}, err
		}
		row, _, err := engine.Evaluate(st, weekly, bench.Weekly)
		return row, err
	})
	if err != nil {
		return nil, err
	}
	rows, res.Stale = latestOnly(s, kindWeinstein, rows, &counts, func(r model.ScoredSymbol) (string, time.Time) { return r.Symbol, r.Time })
	strategy.SortScored(rows)
	res.Counts, res.Rows, res.Failures = counts, rows, failures
	for _, r := range rows {
		if r.AllPassed {
			res.Shortlist = append(res.Shortlist, r.Symbol)
		}
	}
	s.metrics.SetShortlist(len(res.Shortlist))

	res.Status = StatusOK
	if len(rows) == 0 {
		res.Status, res.Reason = StatusEmpty, "no symbol had enough usable history"
	}
	return finish()
}

// WeekDetail is one week of a symbol's condition history.
type WeekDetail struct {
	Time       time.Time                         `json:"time"`
	Close      float64                           `json:"close"`
	Stage      model.Stage                       `json:"stage"`
	Conditions map[model.Condition]model.Outcome `json:"conditions"`
	AllPassed  bool                              `json:"all_passed"`
}

// Detail is the recent weekly history of one symbol.
type Detail struct {
	Symbol      string             `json:"symbol"`
	Benchmark   string             `json:"benchmark"`
	Degraded    bool               `json:"degraded"`
	Latest      model.ScoredSymbol `json:"latest"`
	Weeks       []WeekDetail       `json:"weeks"`
	WeeksPassed int                `json:"weeks_passed"`
}

// WeinsteinDetail evaluates one stock and returns its last weeks rows.
func (s *Screener) WeinsteinDetail(ctx context.Context, stock model.Stock, weeks int, asOf time.Time) (*Detail, error) {
	if weeks <= 0 {
		weeks = 12
	}
	day := s.asOfDay(asOf)
	weekly, err := s.weekly(ctx, stock.Symbol, day)
	if errors.Is(err, collector.ErrNoData) {
		return nil, fmt.Errorf("%s: %w", stock.Symbol, ErrSymbolNotFound)
	}
	if err != nil {
		return nil, err
	}
	bench, err := s.resolveBenchmark(ctx, []model.Stock{stock}, day)
	if err != nil {
		return nil, err
	}
	engine := s.engine()
	latest, cf, err := engine.Evaluate(stock, weekly, bench.Weekly)
	if err != nil {
		return nil, err
	}

	d := &Detail{Symbol: stock.Symbol, Benchmark: bench.Name, Degraded: bench.Degraded, Latest: latest}
	from := max(0, len(cf.Rows)-weeks)
	for _, row := range cf.Rows[from:] {
		wd := WeekDetail{
			Time:       row.Time,
			Close:      cf.Frame.Bars[row.Index].Close,
			Stage:      strategy.ClassifyStage(cf, row.Index, s.cfg.Preset.Thresholds),
			Conditions: row.Outcomes,
			AllPassed:  row.AllPassed,
		}
		if wd.AllPassed {
			d.WeeksPassed++
		}
		d.Weeks = append(d.Weeks, wd)
	}
	return d, nil
}
