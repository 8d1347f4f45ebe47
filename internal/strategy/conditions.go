package strategy

import (
	"math"

	"github.com/AbhilekhGulpadia/yfinanceScreener/internal/model"
)

type rule func(f *model.IndicatorFrame, i int, th Thresholds) model.Outcome

var rules = map[model.Condition]rule{
	model.CondStage2:          stage2,
	model.CondBreakout:        breakout,
	model.CondVolumeConfirm:   volumeConfirm,
	model.CondRSUptrend:       rsUptrend,
	model.CondStrongRS:        strongRS,
	model.CondLowResistance:   lowResistance,
	model.CondNotOverextended: notOverextended,
	model.CondLiquidity:       liquidity,
	model.CondRSIUptrend:      rsiUptrend,
	model.CondMACDBullish:     macdBullish,
}

// EvaluateConditions evaluates every condition at every period of a weekly
// frame and builds one new row per period. Period 0 has no previous period
// and is undefined throughout. A condition with an undefined input is
// undefined, which never passes; all_passed is the AND of the preset's
// required conditions.
func EvaluateConditions(f *model.IndicatorFrame, p Preset) *model.ConditionFrame {
	cf := &model.ConditionFrame{
		Frame:    f,
		Required: append([]model.Condition(nil), p.Required...),
		Rows:     make([]model.ConditionRow, f.Len()),
	}
	for i := range cf.Rows {
		row := model.ConditionRow{
			Index:    i,
			Time:     f.Bars[i].Time,
			Outcomes: make(map[model.Condition]model.Outcome, len(rules)),
		}
		for _, c := range model.AllConditions {
			outcome := model.OutcomeUndefined
			if i >= 1 {
				outcome = rules[c](f, i, p.Thresholds)
			}
			row.Outcomes[c] = outcome
		}
		row.AllPassed = len(p.Required) > 0
		for _, c := range p.Required {
			if !row.Outcomes[c].Passed() {
				row.AllPassed = false
				break
			}
		}
		cf.Rows[i] = row
	}
	return cf
}

func outcome(pass bool) model.Outcome {
	if pass {
		return model.OutcomePass
	}
	return model.OutcomeFail
}

func defined(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) {
			return false
		}
	}
	return true
}

func stage2(f *model.IndicatorFrame, i int, th Thresholds) model.Outcome {
	c, ma, slope := f.Bars[i].Close, f.Value(ColMA30, i), f.Value(ColMA30Slope, i)
	if !defined(c, ma, slope) {
		return model.OutcomeUndefined
	}
	return outcome(c > ma && slope > th.Stage2MinSlope)
}

func breakout(f *model.IndicatorFrame, i int, th Thresholds) model.Outcome {
	c, prevHigh := f.Bars[i].Close, f.Value(ColHigh52w, i-1)
	if !defined(c, prevHigh) {
		return model.OutcomeUndefined
	}
	return outcome(c > prevHigh*(1+th.BreakoutMargin))
}

func volumeConfirm(f *model.IndicatorFrame, i int, th Thresholds) model.Outcome {
	prevAvg := f.Value(ColAvgVol10, i-1)
	if !defined(prevAvg) {
		return model.OutcomeUndefined
	}
	return outcome(float64(f.Bars[i].Volume) >= th.VolumeMultiplier*prevAvg)
}

func rsUptrend(f *model.IndicatorFrame, i int, _ Thresholds) model.Outcome {
	slope, rs, prev := f.Value(ColRSSlope, i), f.Value(ColRS, i), f.Value(ColRS, i-1)
	if !defined(slope, rs, prev) {
		return model.OutcomeUndefined
	}
	return outcome(slope > 0 && rs > prev)
}

func strongRS(f *model.IndicatorFrame, i int, th Thresholds) model.Outcome {
	rs, high := f.Value(ColRS, i), f.Value(ColRS52wHigh, i)
	if !defined(rs, high) || high <= 0 {
		return model.OutcomeUndefined
	}
	if th.StrongRSMode == StrongRSEarly {
		return outcome(rs <= th.StrongRSBand*high)
	}
	return outcome(rs >= th.StrongRSBand*high)
}

func lowResistance(f *model.IndicatorFrame, i int, th Thresholds) model.Outcome {
	c, high := f.Bars[i].Close, f.Value(ColHigh52w, i)
	if !defined(c, high) || high <= 0 {
		return model.OutcomeUndefined
	}
	return outcome(c >= th.ProximityFactor*high)
}

func notOverextended(f *model.IndicatorFrame, i int, th Thresholds) model.Outcome {
	c, ma := f.Bars[i].Close, f.Value(ColMA30, i)
	if !defined(c, ma) || ma <= 0 {
		return model.OutcomeUndefined
	}
	return outcome((c-ma)/ma <= th.MaxExtension)
}

func liquidity(f *model.IndicatorFrame, i int, th Thresholds) model.Outcome {
	avg := f.Value(ColAvgTradingValue20, i)
	if !defined(avg) {
		return model.OutcomeUndefined
	}
	return outcome(avg > th.LiquidityThreshold)
}

func rsiUptrend(f *model.IndicatorFrame, i int, _ Thresholds) model.Outcome {
	slope := f.Value(ColRSISlope, i)
	if !defined(slope) {
		return model.OutcomeUndefined
	}
	return outcome(slope > 0)
}

func macdBullish(f *model.IndicatorFrame, i int, th Thresholds) model.Outcome {
	line, signal, hist := f.Value(ColMACD, i), f.Value(ColMACDSignal, i), f.Value(ColMACDHistogram, i)
	if !defined(line, signal) || (th.MACDRequireHistogram && !defined(hist)) {
		return model.OutcomeUndefined
	}
	pass := line > signal
	if th.MACDRequireHistogram {
		pass = pass && hist > 0
	}
	return outcome(pass)
}

// ClassifyStage maps the evaluation at row i onto a Weinstein stage:
// all_passed or stage2 is Stage 2; below a falling MA30 (slope under
// Stage4MaxSlope) is Stage 4; below MA30 otherwise is Stage 1; at or above
// MA30 without stage2 is Stage 3. An undefined MA30 is Unknown.
func ClassifyStage(cf *model.ConditionFrame, i int, th Thresholds) model.Stage {
	if i < 0 || i >= len(cf.Rows) {
		return model.StageUnknown
	}
	row := cf.Rows[i]
	if row.AllPassed || row.Outcomes[model.CondStage2].Passed() {
		return model.Stage2Advancing
	}
	c, ma, slope := cf.Frame.Bars[i].Close, cf.Frame.Value(ColMA30, i), cf.Frame.Value(ColMA30Slope, i)
	switch {
	case !defined(ma):
		return model.StageUnknown
	case c < ma && defined(slope) && slope < th.Stage4MaxSlope:
		return model.Stage4Declining
	case c < ma:
		return model.Stage1Basing
	default:
		return model.Stage3Topping
	}
}
