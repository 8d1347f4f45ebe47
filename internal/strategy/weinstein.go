package strategy

import (
	"fmt"

	"github.com/AbhilekhGulpadia/yfinanceScreener/internal/calculator"
	"github.com/AbhilekhGulpadia/yfinanceScreener/internal/model"
)

// Weekly frame columns.
const (
	ColMA30              = "ma30"
	ColMA30Slope         = "ma30_slope"
	ColHigh52w           = "high_52w"
	ColAvgVol10          = "avg_vol_10"
	ColTradingValue      = "trading_value"
	ColAvgTradingValue20 = "avg_trading_value_20"
	ColIndexClose        = "index_close"
	ColRS                = "rs"
	ColRSSlope           = "rs_slope"
	ColRS52wHigh         = "rs_52w_high"
	ColRSI               = "rsi"
	ColRSISlope          = "rsi_slope"
	ColMACD              = "macd"
	ColMACDSignal        = "macd_signal"
	ColMACDHistogram     = "macd_histogram"
)

// IndicatorParams are the spans of the weekly indicators.
type IndicatorParams struct {
	MAPeriod           int `yaml:"ma_period" toml:"ma_period" json:"ma_period"`
	HighPeriod         int `yaml:"high_period" toml:"high_period" json:"high_period"`
	AvgVolumePeriod    int `yaml:"avg_volume_period" toml:"avg_volume_period" json:"avg_volume_period"`
	TradingValuePeriod int `yaml:"trading_value_period" toml:"trading_value_period" json:"trading_value_period"`
	RSHighPeriod       int `yaml:"rs_high_period" toml:"rs_high_period" json:"rs_high_period"`
	RSIPeriod          int `yaml:"rsi_period" toml:"rsi_period" json:"rsi_period"`
	MACDFast           int `yaml:"macd_fast" toml:"macd_fast" json:"macd_fast"`
	MACDSlow           int `yaml:"macd_slow" toml:"macd_slow" json:"macd_slow"`
	MACDSignal         int `yaml:"macd_signal" toml:"macd_signal" json:"macd_signal"`
}

// DefaultIndicatorParams returns the 30/52/10/20/52/14 and 12/26/9 spans.
func DefaultIndicatorParams() IndicatorParams {
	return IndicatorParams{
		MAPeriod:           30,
		HighPeriod:         52,
		AvgVolumePeriod:    10,
		TradingValuePeriod: 20,
		RSHighPeriod:       52,
		RSIPeriod:          14,
		MACDFast:           12,
		MACDSlow:           26,
		MACDSignal:         9,
	}
}

// Validate rejects non-positive spans and fast >= slow.
func (p IndicatorParams) Validate() error {
	spans := []struct {
		name string
		v    int
	}{
		{"ma_period", p.MAPeriod},
		{"high_period", p.HighPeriod},
		{"avg_volume_period", p.AvgVolumePeriod},
		{"trading_value_period", p.TradingValuePeriod},
		{"rs_high_period", p.RSHighPeriod},
		{"rsi_period", p.RSIPeriod},
		{"macd_fast", p.MACDFast},
		{"macd_slow", p.MACDSlow},
		{"macd_signal", p.MACDSignal},
	}
	for _, s := range spans {
		if s.v <= 0 {
			return fmt.Errorf("%s must be positive, got %d", s.name, s.v)
		}
	}
	if p.MACDFast >= p.MACDSlow {
		return fmt.Errorf("macd_fast (%d) must be below macd_slow (%d)", p.MACDFast, p.MACDSlow)
	}
	return nil
}

// BuildWeeklyFrame computes the Stage Analysis columns over a weekly series.
// The benchmark is a weekly close series; weeks it does not cover have
// undefined RS. RSI keeps its warm-up undefined.
func BuildWeeklyFrame(weekly, benchmark model.Series, p IndicatorParams) (*model.IndicatorFrame, error) {
	closes := weekly.Closes()
	volumes := weekly.Volumes()

	ma := calculator.RollingMean(closes, p.MAPeriod)
	tradingValue := calculator.Product(closes, volumes)

	bench := make([]calculator.Point, 0, benchmark.Len())
	for _, b := range benchmark.Bars {
		bench = append(bench, calculator.Point{Time: b.Time, Value: b.Close})
	}
	indexClose := calculator.Align(weekly.Times(), bench)
	rs := calculator.Ratio(closes, indexClose)

	rsi := calculator.WilderRSI(closes, p.RSIPeriod, calculator.FillUndefined)
	macd := calculator.MACD(closes, p.MACDFast, p.MACDSlow, p.MACDSignal)

	frame := model.NewIndicatorFrame(weekly)
	columns := []struct {
		name   string
		values []float64
	}{
		{ColMA30, ma},
		{ColMA30Slope, calculator.Slope(ma)},
		{ColHigh52w, calculator.RollingMax(weekly.Highs(), p.HighPeriod)},
		{ColAvgVol10, calculator.RollingMean(volumes, p.AvgVolumePeriod)},
		{ColTradingValue, tradingValue},
		{ColAvgTradingValue20, calculator.RollingMean(tradingValue, p.TradingValuePeriod)},
		{ColIndexClose, indexClose},
		{ColRS, rs},
		{ColRSSlope, calculator.Slope(rs)},
		{ColRS52wHigh, calculator.RollingMax(rs, p.RSHighPeriod)},
		{ColRSI, rsi},
		{ColRSISlope, calculator.Slope(rsi)},
		{ColMACD, macd.Line},
		{ColMACDSignal, macd.Signal},
		{ColMACDHistogram, macd.Histogram},
	}
	for _, c := range columns {
		if err := frame.Set(c.name, c.values); err != nil {
			return nil, fmt.Errorf("build weekly frame for %s: %w", weekly.Symbol, err)
		}
	}
	return frame, nil
}
