package strategy

import (
	"errors"
	"fmt"

	"github.com/AbhilekhGulpadia/yfinanceScreener/internal/model"
)

// ErrInsufficientHistory marks a series shorter than the pipeline minimum.
var ErrInsufficientHistory = errors.New("insufficient history")

// DefaultSurface lists the frame columns copied into each scored row.
var DefaultSurface = []string{ColMA30, ColMA30Slope, ColHigh52w, ColRS, ColRSI, ColMACDHistogram}

// Engine runs the weekly Stage Analysis for one symbol.
type Engine struct {
	Preset        Preset
	Indicators    IndicatorParams
	Surface       []string
	MinWeeklyBars int
}

// NewEngine returns an engine for the preset with default spans.
func NewEngine(p Preset) Engine {
	return Engine{
		Preset:        p,
		Indicators:    DefaultIndicatorParams(),
		Surface:       DefaultSurface,
		MinWeeklyBars: 52,
	}
}

// Evaluate builds the weekly frame, evaluates the preset's conditions and
// scores the latest week. The condition frame is returned for callers that
// need the history; it is not retained.
func (e Engine) Evaluate(stock model.Stock, weekly, benchmark model.Series) (model.ScoredSymbol, *model.ConditionFrame, error) {
	if weekly.Len() < e.MinWeeklyBars {
		return model.ScoredSymbol{}, nil, fmt.Errorf("%s has %d weekly bars, need %d: %w", stock.Symbol, weekly.Len(), e.MinWeeklyBars, ErrInsufficientHistory)
	}
	frame, err := BuildWeeklyFrame(weekly, benchmark, e.Indicators)
	if err != nil {
		return model.ScoredSymbol{}, nil, err
	}
	cf := EvaluateConditions(frame, e.Preset)
	row, ok := ScoreSymbol(stock, cf, e.Preset, e.Surface)
	if !ok {
		return model.ScoredSymbol{}, nil, fmt.Errorf("%s: %w", stock.Symbol, ErrInsufficientHistory)
	}
	return row, cf, nil
}
