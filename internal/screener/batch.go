package screener

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/AbhilekhGulpadia/yfinanceScreener/internal/collector"
	"github.com/AbhilekhGulpadia/yfinanceScreener/internal/model"
)

// Status describes how a run ended.
type Status string

const (
	StatusOK          Status = "ok"
	StatusEmpty       Status = "empty"
	StatusUnavailable Status = "unavailable"
)

// Counts make partial degradation visible.
type Counts struct {
	Considered int `json:"considered"`
	Scored     int `json:"scored"`
	Skipped    int `json:"skipped"`
	Failed     int `json:"failed"`
}

// Failure records one symbol the run could not process.
type Failure struct {
	Symbol string `json:"symbol"`
	Reason string `json:"reason"`
}

type outcome string

const (
	outcomeScored  outcome = "scored"
	outcomeSkipped outcome = "skipped"
	outcomeFailed  outcome = "failed"
)

var errPanic = errors.New("panic in symbol pipeline")

func classify(err error) outcome {
	switch {
	case err == nil:
		return outcomeScored
	case errors.Is(err, collector.ErrNoData), errors.Is(err, ErrInsufficientHistory):
		return outcomeSkipped
	default:
		return outcomeFailed
	}
}

// protect turns a panic in fn into an error.
func protect[T any](fn func() (T, error)) (row T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", errPanic, r)
		}
	}()
	return fn()
}

type result[T any] struct {
	row T
	err error
}

// runBatches evaluates every stock and returns the successful rows in
// universe order. Only context cancellation stops it early.
func runBatches[T any](ctx context.Context, s *Screener, kind string, stocks []model.Stock, eval func(context.Context, model.Stock) (T, error)) ([]T, Counts, []Failure, error) {
	counts := Counts{Considered: len(stocks)}
	var rows []T
	var failures []Failure

	size := s.cfg.BatchSize
	for start := 0; start < len(stocks); start += size {
		if err := ctx.Err(); err != nil {
			return nil, counts, failures, err
		}
		batch := stocks[start:min(start+size, len(stocks))]
		results := make([]result[T], len(batch))

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(s.cfg.Workers)
		for i, st := range batch {
			g.Go(func() error {
				results[i].row, results[i].err = protect(func() (T, error) { return eval(gctx, st) })
				return nil
			})
		}
		_ = g.Wait()

		for i, r := range results {
			sym := batch[i].Symbol
			o := classify(r.err)
			s.metrics.SymbolOutcome(kind, string(o))
			switch o {
			case outcomeScored:
				counts.Scored++
				rows = append(rows, r.row)
			case outcomeSkipped:
				counts.Skipped++
				s.log.Debug().Str("symbol", sym).Err(r.err).Msg("skipped")
			default:
				counts.Failed++
				failures = append(failures, Failure{Symbol: sym, Reason: r.err.Error()})
				s.log.Warn().Str("symbol", sym).Err(r.err).Msg("symbol failed")
			}
		}
		s.log.Debug().Str("kind", kind).Int("batch_start", start).Int("batch_size", len(batch)).Msg("batch done")

		if s.cfg.ReleaseBetweenBatches {
			runtime.GC()
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, counts, failures, err
	}
	return rows, counts, failures, nil
}

// latestOnly keeps the rows labelled with the newest period among them.
// Rows from older periods come from symbols whose data stopped early; they
// move from scored to skipped and are returned by symbol.
func latestOnly[T any](s *Screener, kind string, rows []T, counts *Counts, label func(T) (string, time.Time)) ([]T, []string) {
	var latest time.Time
	for _, r := range rows {
		if _, t := label(r); t.After(latest) {
			latest = t
		}
	}
	kept := rows[:0:0]
	var stale []string
	for _, r := range rows {
		sym, t := label(r)
		if t.Equal(latest) {
			kept = append(kept, r)
			continue
		}
		stale = append(stale, sym)
		counts.Scored--
		counts.Skipped++
		s.log.Debug().Str("kind", kind).Str("symbol", sym).Time("last_period", t).Time("latest_period", latest).Msg("skipped stale symbol")
	}
	return kept, stale
}
