package strategy

import (
	"fmt"
	"math"
	"sort"

	"github.com/AbhilekhGulpadia/yfinanceScreener/internal/calculator"
	"github.com/AbhilekhGulpadia/yfinanceScreener/internal/model"
)

// RSIRange keeps rows with Lo <= RSI <= Hi.
type RSIRange struct {
	Lo float64 `yaml:"lo" toml:"lo" json:"lo"`
	Hi float64 `yaml:"hi" toml:"hi" json:"hi"`
}

// RankingParams configure the daily crossover ranking.
type RankingParams struct {
	EMAKind          calculator.MAKind    `yaml:"ema_kind" toml:"ema_kind" json:"ema_kind"`
	EMASpans         []int                `yaml:"ema_spans" toml:"ema_spans" json:"ema_spans"`
	Direction        calculator.Direction `yaml:"crossover_direction" toml:"crossover_direction" json:"crossover_direction"`
	MACDFast         int                  `yaml:"macd_fast" toml:"macd_fast" json:"macd_fast"`
	MACDSlow         int                  `yaml:"macd_slow" toml:"macd_slow" json:"macd_slow"`
	MACDSignal       int                  `yaml:"macd_signal" toml:"macd_signal" json:"macd_signal"`
	RSIPeriod        int                  `yaml:"rsi_period" toml:"rsi_period" json:"rsi_period"`
	LookbackSessions int                  `yaml:"lookback_sessions" toml:"lookback_sessions" json:"lookback_sessions"`
	RSIFilter        *RSIRange            `yaml:"rsi_filter_range" toml:"rsi_filter_range" json:"rsi_filter_range"`
	MinBars          int                  `yaml:"min_bars" toml:"min_bars" json:"min_bars"`
}

// DefaultRankingParams returns EMA 200/44/21, bullish, MACD 12/26/9, RSI 14,
// a 5-session lookback and no RSI filter.
func DefaultRankingParams() RankingParams {
	return RankingParams{
		EMAKind:          calculator.KindEMA,
		EMASpans:         []int{200, 44, 21},
		Direction:        calculator.Bullish,
		MACDFast:         12,
		MACDSlow:         26,
		MACDSignal:       9,
		RSIPeriod:        14,
		LookbackSessions: 5,
		MinBars:          50,
	}
}

// Validate checks spans, MACD ordering and the RSI range.
func (p RankingParams) Validate() error {
	if len(p.EMASpans) == 0 {
		return fmt.Errorf("ema_spans must not be empty")
	}
	for _, s := range p.EMASpans {
		if s <= 0 {
			return fmt.Errorf("ema span must be positive, got %d", s)
		}
	}
	switch p.EMAKind {
	case calculator.KindEMA, calculator.KindDEMA:
	default:
		return fmt.Errorf("unknown ema_kind %q", p.EMAKind)
	}
	if _, err := calculator.ParseDirection(string(p.Direction)); err != nil {
		return err
	}
	if p.MACDFast <= 0 || p.MACDSlow <= 0 || p.MACDSignal <= 0 || p.RSIPeriod <= 0 {
		return fmt.Errorf("macd and rsi periods must be positive")
	}
	if p.MACDFast >= p.MACDSlow {
		return fmt.Errorf("macd_fast (%d) must be below macd_slow (%d)", p.MACDFast, p.MACDSlow)
	}
	if p.LookbackSessions < 0 {
		return fmt.Errorf("lookback_sessions must not be negative")
	}
	if p.RSIFilter != nil && p.RSIFilter.Lo > p.RSIFilter.Hi {
		return fmt.Errorf("rsi_filter_range lo %.1f above hi %.1f", p.RSIFilter.Lo, p.RSIFilter.Hi)
	}
	return nil
}

// RequiredBars is the shortest history that is ranked at all.
func (p RankingParams) RequiredBars() int {
	n := p.MinBars
	for _, v := range append(append([]int{}, p.EMASpans...), p.MACDSlow, p.RSIPeriod) {
		if v > n {
			n = v
		}
	}
	return n
}

// EvaluateCrossovers computes the crossover recency of one daily series.
// ok is false when the series is shorter than RequiredBars; such symbols are
// excluded from the ranking rather than scored.
func EvaluateCrossovers(s model.Series, p RankingParams) (model.RankedSymbol, bool) {
	if s.Len() < p.RequiredBars() {
		return model.RankedSymbol{}, false
	}
	closes := s.Closes()
	last := len(closes) - 1
	dir, err := calculator.ParseDirection(string(p.Direction))
	if err != nil {
		dir = calculator.Bullish
	}

	row := model.RankedSymbol{
		Symbol: s.Symbol,
		Time:   s.Bars[last].Time,
		Close:  closes[last],
	}
	for _, span := range p.EMASpans {
		base := calculator.MovingAverage(p.EMAKind, closes, span)
		flags := calculator.Crossovers(closes, base, dir)
		row.Crosses = append(row.Crosses, recency(fmt.Sprintf("%d_%s", span, lowerKind(p.EMAKind)), span, flags, p.LookbackSessions))
		row.EMAStates = append(row.EMAStates, model.EMAState{Span: span, State: emaState(closes, base)})
	}

	macd := calculator.MACD(closes, p.MACDFast, p.MACDSlow, p.MACDSignal)
	macdFlags := calculator.Crossovers(macd.Line, macd.Signal, calculator.Bullish)
	row.MACDCross = recency("macd_bull", 0, macdFlags, p.LookbackSessions)
	row.MACDState = macdState(macd.Line[last], macd.Signal[last])

	rsi := calculator.WilderRSI(closes, p.RSIPeriod, calculator.FillZero)
	row.RSI = rsi[last]
	row.PassesRSIFilter = p.RSIFilter == nil || (row.RSI >= p.RSIFilter.Lo && row.RSI <= p.RSIFilter.Hi)
	return row, true
}

func recency(label string, span int, flags []bool, lookback int) model.CrossInfo {
	since, ok := calculator.LastCross(flags)
	if !ok {
		return model.CrossInfo{Label: label, Span: span, PeriodsSince: model.NeverCrossed}
	}
	return model.CrossInfo{Label: label, Span: span, PeriodsSince: since, WithinWindow: since <= lookback}
}

func lowerKind(k calculator.MAKind) string {
	if k == calculator.KindDEMA {
		return "dema"
	}
	return "ema"
}

// emaState is Yes when close crossed above the average on the last bar,
// Above when close is over it, No otherwise.
func emaState(closes, base []float64) string {
	last := len(closes) - 1
	if last < 0 || math.IsNaN(base[last]) {
		return "No"
	}
	up := calculator.Crossovers(closes[max(0, last-1):], base[max(0, last-1):], calculator.Bullish)
	switch {
	case up[len(up)-1]:
		return "Yes"
	case closes[last] > base[last]:
		return "Above"
	default:
		return "No"
	}
}

func macdState(line, signal float64) string {
	switch {
	case math.IsNaN(line) || math.IsNaN(signal):
		return "Neutral"
	case line > signal:
		return "Bullish"
	case line < signal:
		return "Bearish"
	default:
		return "Neutral"
	}
}

// RankCrossovers drops rows outside the RSI filter, sorts the rest by
// SortKey ascending with symbol ascending as the final tie-break, and
// numbers them from 1.
func RankCrossovers(rows []model.RankedSymbol, p RankingParams) []model.RankedSymbol {
	out := make([]model.RankedSymbol, 0, len(rows))
	for _, r := range rows {
		if p.RSIFilter != nil && !r.PassesRSIFilter {
			continue
		}
		out = append(out, r)
	}
	keys := make([][]float64, len(out))
	for i := range out {
		keys[i] = out[i].SortKey()
	}
	idx := make([]int, len(out))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		ka, kb := keys[idx[a]], keys[idx[b]]
		for k := 0; k < len(ka) && k < len(kb); k++ {
			if ka[k] != kb[k] {
				return ka[k] < kb[k]
			}
		}
		if len(ka) != len(kb) {
			return len(ka) < len(kb)
		}
		return out[idx[a]].Symbol < out[idx[b]].Symbol
	})
	ranked := make([]model.RankedSymbol, len(out))
	for pos, i := range idx {
		ranked[pos] = out[i]
		ranked[pos].Rank = pos + 1
	}
	return ranked
}

// SortScored orders weighted rows by score descending, then symbol ascending.
func SortScored(rows []model.ScoredSymbol) {
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Score != rows[j].Score {
			return rows[i].Score > rows[j].Score
		}
		return rows[i].Symbol < rows[j].Symbol
	})
}
