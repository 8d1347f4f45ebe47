package screener

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/AbhilekhGulpadia/yfinanceScreener/internal/calculator"
	"github.com/AbhilekhGulpadia/yfinanceScreener/internal/collector"
	"github.com/AbhilekhGulpadia/yfinanceScreener/internal/model"
)

// Daily chart columns besides the ema_<span> lines.
const (
	ColRSI           = "rsi"
	ColMACD          = "macd"
	ColMACDSignal    = "macd_signal"
	ColMACDHistogram = "macd_histogram"
)

// EMAColumn names the chart column of an EMA span.
func EMAColumn(span int) string { return fmt.Sprintf("ema_%d", span) }

// Chart returns the full daily indicator history of one symbol.
func (s *Screener) Chart(ctx context.Context, symbol string, asOf time.Time) (*model.IndicatorFrame, error) {
	daily, err := s.fetchDaily(ctx, symbol, s.asOfDay(asOf), s.cfg.HistoryDays)
	if errors.Is(err, collector.ErrNoData) {
		return nil, fmt.Errorf("%s: %w", symbol, ErrSymbolNotFound)
	}
	if err != nil {
		return nil, err
	}
	if daily.Len() < s.cfg.MinDailyBars {
		return nil, fmt.Errorf("%s has %d daily bars, need %d: %w", symbol, daily.Len(), s.cfg.MinDailyBars, ErrInsufficientHistory)
	}

	p := s.cfg.Ranking
	closes := daily.Closes()
	f := model.NewIndicatorFrame(daily)
	cols := map[string][]float64{}
	names := make([]string, 0, len(s.cfg.ChartEMASpans)+4)
	for _, span := range s.cfg.ChartEMASpans {
		name := EMAColumn(span)
		cols[name] = calculator.EMA(closes, span)
		names = append(names, name)
	}
	m := calculator.MACD(closes, p.MACDFast, p.MACDSlow, p.MACDSignal)
	cols[ColRSI] = calculator.WilderRSI(closes, p.RSIPeriod, calculator.FillUndefined)
	cols[ColMACD], cols[ColMACDSignal], cols[ColMACDHistogram] = m.Line, m.Signal, m.Histogram
	names = append(names, ColRSI, ColMACD, ColMACDSignal, ColMACDHistogram)

	for _, name := range names {
		if err := f.Set(name, cols[name]); err != nil {
			return nil, err
		}
	}
	return f, nil
}
