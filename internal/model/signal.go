package model

import "time"

// Condition names a boolean rule evaluated per period.
type Condition string

const (
	CondStage2          Condition = "stage2"
	CondBreakout        Condition = "breakout"
	CondVolumeConfirm   Condition = "volume_confirm"
	CondRSUptrend       Condition = "rs_uptrend"
	CondStrongRS        Condition = "strong_rs"
	CondLowResistance   Condition = "low_resistance"
	CondNotOverextended Condition = "not_overextended"
	CondLiquidity       Condition = "liquidity"
	CondRSIUptrend      Condition = "rsi_uptrend"
	CondMACDBullish     Condition = "macd_bullish"
)

// AllConditions lists every evaluated condition in display order.
var AllConditions = []Condition{
	CondLiquidity,
	CondStage2,
	CondBreakout,
	CondVolumeConfirm,
	CondRSUptrend,
	CondStrongRS,
	CondLowResistance,
	CondNotOverextended,
	CondRSIUptrend,
	CondMACDBullish,
}

// Outcome is the tri-state result of a condition at one period.
type Outcome uint8

const (
	OutcomeUndefined Outcome = iota
	OutcomeFail
	OutcomePass
)

// Passed reports whether the outcome is a pass. Undefined never passes.
func (o Outcome) Passed() bool { return o == OutcomePass }

func (o Outcome) String() string {
	switch o {
	case OutcomePass:
		return "pass"
	case OutcomeFail:
		return "fail"
	default:
		return "undefined"
	}
}

func (o Outcome) MarshalText() ([]byte, error) { return []byte(o.String()), nil }

// ConditionRow is the evaluation of every condition at one period.
type ConditionRow struct {
	Index     int
	Time      time.Time
	Outcomes  map[Condition]Outcome
	AllPassed bool
}

// ConditionFrame pairs an IndicatorFrame with its per-period condition rows.
type ConditionFrame struct {
	Frame    *IndicatorFrame
	Required []Condition
	Rows     []ConditionRow
}

// Latest returns the most recent row.
func (c *ConditionFrame) Latest() (ConditionRow, bool) {
	if c == nil || len(c.Rows) == 0 {
		return ConditionRow{}, false
	}
	return c.Rows[len(c.Rows)-1], true
}

// Stage is a Weinstein market stage.
type Stage int

const (
	StageUnknown Stage = iota
	Stage1Basing
	Stage2Advancing
	Stage3Topping
	Stage4Declining
)

func (s Stage) String() string {
	switch s {
	case Stage1Basing:
		return "Stage 1"
	case Stage2Advancing:
		return "Stage 2"
	case Stage3Topping:
		return "Stage 3"
	case Stage4Declining:
		return "Stage 4"
	default:
		return "Unknown"
	}
}

func (s Stage) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// ScoreComponent is one contribution to a weighted score.
type ScoreComponent struct {
	Name       string
	Points     float64
	Commentary string
}

// ScoredSymbol is the latest-period summary of one symbol.
type ScoredSymbol struct {
	Symbol     string
	Name       string
	Sector     string
	Time       time.Time
	Close      float64
	Volume     int64
	ChangePct  float64
	Score      int
	Stage      Stage
	AllPassed  bool
	Conditions map[Condition]bool
	Components []ScoreComponent
	Values     map[string]float64
}
