package screener

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/AbhilekhGulpadia/yfinanceScreener/internal/model"
	"github.com/AbhilekhGulpadia/yfinanceScreener/internal/strategy"
)

const kindRanking = "ranking"

// RankingResult is one daily crossover ranking.
type RankingResult struct {
	RunID     string                 `json:"run_id"`
	AsOf      time.Time              `json:"as_of"`
	Params    strategy.RankingParams `json:"params"`
	Status    Status                 `json:"status"`
	Reason    string                 `json:"reason,omitempty"`
	Counts                           `json:"counts"`
	Filtered  int                    `json:"filtered"`
	Rows      []model.RankedSymbol   `json:"rows"`
	Failures  []Failure              `json:"failures,omitempty"`
	Stale     []string               `json:"stale,omitempty"`
	StartedAt time.Time              `json:"started_at"`
	Duration  time.Duration          `json:"duration"`
}

// RunRanking ranks every stock by crossover recency as of asOf.
func (s *Screener) RunRanking(ctx context.Context, stocks []model.Stock, asOf time.Time) (*RankingResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	day := s.asOfDay(asOf)
	p := s.cfg.Ranking
	res := &RankingResult{RunID: uuid.NewString(), AsOf: day, Params: p, StartedAt: time.Now()}
	log := s.log.With().Str("run_id", res.RunID).Str("kind", kindRanking).Logger()

	if len(stocks) == 0 {
		res.Status, res.Reason = StatusUnavailable, ErrEmptyUniverse.Error()
	} else {
		rows, counts, failures, err := runBatches(ctx, s, kindRanking, stocks, func(ctx context.Context, st model.Stock) (model.RankedSymbol, error) {
			daily, err := s.fetchDaily(ctx, st.Symbol, day, s.cfg.RankingHistoryDays)
			if err != nil {
				return model.RankedSymbol{}, err
			}
			row, ok := strategy.EvaluateCrossovers(daily, p)
			if !ok {
				return model.RankedSymbol{}, fmt.Errorf("%s has %d daily bars, need %d: %w", st.Symbol, daily.Len(), p.RequiredBars(), ErrInsufficientHistory)
			}
			row.Name = st.Name
			return row, nil
		})
		if err != nil {
			return nil, err
		}
		rows, res.Stale = latestOnly(s, kindRanking, rows, &counts, func(r model.RankedSymbol) (string, time.Time) { return r.Symbol, r.Time })
		res.Counts, res.Failures = counts, failures
		res.Rows = strategy.RankCrossovers(rows, p)
		res.Filtered = len(rows) - len(res.Rows)
		res.Status = StatusOK
		if len(rows) == 0 {
			res.Status, res.Reason = StatusEmpty, "no symbol had enough usable history"
		}
	}

	res.Duration = time.Since(res.StartedAt)
	s.metrics.RunFinished(kindRanking, string(res.Status), res.Duration)
	log.Info().
		Str("status", string(res.Status)).
		Int("considered", res.Considered).
		Int("scored", res.Scored).
		Int("skipped", res.Skipped).
		Int("failed", res.Failed).
		Int("filtered", res.Filtered).
		Msg("crossover ranking finished")
	return res, nil
}
