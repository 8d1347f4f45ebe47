package strategy

import (
	"fmt"
	"math"

	"github.com/AbhilekhGulpadia/yfinanceScreener/internal/calculator"
	"github.com/AbhilekhGulpadia/yfinanceScreener/internal/model"
)

// ScoreWeighted scores the latest row of a condition frame: points for each
// passed condition, an RSI band, a MACD histogram bucket and a MACD cross
// recency bonus. The rounded total is clipped to [Min, Max]. It reads only
// the frame and the rules.
func ScoreWeighted(cf *model.ConditionFrame, rules ScoringRules) (int, []model.ScoreComponent) {
	row, ok := cf.Latest()
	if !ok {
		return clip(0, rules), nil
	}
	i := row.Index
	var parts []model.ScoreComponent

	for _, c := range model.AllConditions {
		pts, weighted := rules.ConditionPoints[c]
		if !weighted {
			continue
		}
		o := row.Outcomes[c]
		got := 0.0
		if o.Passed() {
			got = pts
		}
		parts = append(parts, model.ScoreComponent{Name: string(c), Points: got, Commentary: o.String()})
	}

	if len(rules.RSIBands) > 0 {
		parts = append(parts, scoreRSIBand(cf.Frame.Value(ColRSI, i), rules.RSIBands))
	}
	if len(rules.MACDBuckets) > 0 {
		parts = append(parts, scoreMACDHistogram(cf.Frame.Value(ColMACDHistogram, i), cf.Frame.Bars[i].Close, rules.MACDBuckets))
	}
	if len(rules.CrossBonus) > 0 {
		parts = append(parts, scoreCrossRecency(cf.Frame, i, rules.CrossBonus))
	}

	total := 0.0
	for _, p := range parts {
		total += p.Points
	}
	return clip(total, rules), parts
}

func clip(total float64, rules ScoringRules) int {
	total = math.Round(total)
	if total < rules.Min {
		total = rules.Min
	}
	if total > rules.Max {
		total = rules.Max
	}
	return int(total)
}

// scoreRSIBand pays more the closer RSI is to the oversold zone.
func scoreRSIBand(rsi float64, bands []Band) model.ScoreComponent {
	if math.IsNaN(rsi) {
		return model.ScoreComponent{Name: "rsi_band", Commentary: "RSI undefined"}
	}
	for _, b := range bands {
		if rsi <= b.Max {
			return model.ScoreComponent{Name: "rsi_band", Points: b.Points, Commentary: fmt.Sprintf("RSI=%.0f", rsi)}
		}
	}
	return model.ScoreComponent{Name: "rsi_band", Commentary: fmt.Sprintf("RSI=%.0f", rsi)}
}

// scoreMACDHistogram buckets a positive histogram by its size relative to close.
func scoreMACDHistogram(hist, close float64, buckets []Bucket) model.ScoreComponent {
	if math.IsNaN(hist) || math.IsNaN(close) || close <= 0 || hist <= 0 {
		return model.ScoreComponent{Name: "macd_histogram", Commentary: "histogram not positive"}
	}
	pct := hist / close * 100
	for _, b := range buckets {
		if pct >= b.MinPct {
			return model.ScoreComponent{Name: "macd_histogram", Points: b.Points, Commentary: fmt.Sprintf("hist %.2f%% of close", pct)}
		}
	}
	return model.ScoreComponent{Name: "macd_histogram", Commentary: fmt.Sprintf("hist %.2f%% of close", pct)}
}

// scoreCrossRecency pays bonus[k] for a MACD bullish cross k periods before i.
func scoreCrossRecency(f *model.IndicatorFrame, i int, bonus []float64) model.ScoreComponent {
	line, _ := f.Column(ColMACD)
	signal, _ := f.Column(ColMACDSignal)
	if i+1 > len(line) || i+1 > len(signal) {
		return model.ScoreComponent{Name: "macd_cross", Commentary: "no MACD"}
	}
	flags := calculator.Crossovers(line[:i+1], signal[:i+1], calculator.Bullish)
	since, ok := calculator.LastCross(flags)
	if !ok {
		return model.ScoreComponent{Name: "macd_cross", Commentary: "never crossed"}
	}
	if since < len(bonus) {
		return model.ScoreComponent{Name: "macd_cross", Points: bonus[since], Commentary: fmt.Sprintf("crossed %d periods ago", since)}
	}
	return model.ScoreComponent{Name: "macd_cross", Commentary: fmt.Sprintf("crossed %d periods ago", since)}
}

// ScoreSymbol builds the output row of one symbol from its latest period.
// surface names the frame columns copied into Values.
func ScoreSymbol(stock model.Stock, cf *model.ConditionFrame, p Preset, surface []string) (model.ScoredSymbol, bool) {
	row, ok := cf.Latest()
	if !ok {
		return model.ScoredSymbol{}, false
	}
	i := row.Index
	bar := cf.Frame.Bars[i]

	score, parts := ScoreWeighted(cf, p.Scoring)
	out := model.ScoredSymbol{
		Symbol:     stock.Symbol,
		Name:       stock.Name,
		Sector:     stock.Sector,
		Time:       bar.Time,
		Close:      bar.Close,
		Volume:     bar.Volume,
		ChangePct:  math.NaN(),
		Score:      score,
		Stage:      ClassifyStage(cf, i, p.Thresholds),
		AllPassed:  row.AllPassed,
		Conditions: make(map[model.Condition]bool, len(row.Outcomes)),
		Components: parts,
		Values:     make(map[string]float64, len(surface)),
	}
	if out.Symbol == "" {
		out.Symbol = cf.Frame.Symbol
	}
	if i >= 1 {
		if prev := cf.Frame.Bars[i-1].Close; prev > 0 {
			out.ChangePct = (bar.Close - prev) / prev * 100
		}
	}
	for c, o := range row.Outcomes {
		out.Conditions[c] = o.Passed()
	}
	for _, name := range surface {
		out.Values[name] = cf.Frame.Value(name, i)
	}
	return out, true
}
