package strategy

import (
	"fmt"
	"sort"

	"github.com/AbhilekhGulpadia/yfinanceScreener/internal/model"
)

// StrongRSMode selects how strong_rs compares RS with its 52-period high.
type StrongRSMode string

const (
	// StrongRSNearHigh passes when rs >= band x rs52wHigh.
	StrongRSNearHigh StrongRSMode = "near_high"
	// StrongRSEarly passes when rs <= band x rs52wHigh, an RS uptrend still far from its high.
	StrongRSEarly StrongRSMode = "early"
)

// Thresholds parameterize the weekly conditions.
type Thresholds struct {
	Stage2MinSlope       float64      `yaml:"stage2_min_slope" toml:"stage2_min_slope" json:"stage2_min_slope"`
	BreakoutMargin       float64      `yaml:"breakout_margin" toml:"breakout_margin" json:"breakout_margin"`
	VolumeMultiplier     float64      `yaml:"volume_multiplier" toml:"volume_multiplier" json:"volume_multiplier"`
	StrongRSMode         StrongRSMode `yaml:"strong_rs_mode" toml:"strong_rs_mode" json:"strong_rs_mode"`
	StrongRSBand         float64      `yaml:"strong_rs_band" toml:"strong_rs_band" json:"strong_rs_band"`
	ProximityFactor      float64      `yaml:"proximity_factor" toml:"proximity_factor" json:"proximity_factor"`
	MaxExtension         float64      `yaml:"max_extension" toml:"max_extension" json:"max_extension"`
	LiquidityThreshold   float64      `yaml:"liquidity_threshold" toml:"liquidity_threshold" json:"liquidity_threshold"`
	MACDRequireHistogram bool         `yaml:"macd_require_histogram" toml:"macd_require_histogram" json:"macd_require_histogram"`
	Stage4MaxSlope       float64      `yaml:"stage4_max_slope" toml:"stage4_max_slope" json:"stage4_max_slope"`
}

// Band awards Points to an RSI at or below Max. Bands are checked in order.
type Band struct {
	Max    float64 `yaml:"max" toml:"max" json:"max"`
	Points float64 `yaml:"points" toml:"points" json:"points"`
}

// Bucket awards Points when the MACD histogram, as a percent of close, is at least MinPct.
type Bucket struct {
	MinPct float64 `yaml:"min_pct" toml:"min_pct" json:"min_pct"`
	Points float64 `yaml:"points" toml:"points" json:"points"`
}

// ScoringRules define the weighted point score.
type ScoringRules struct {
	ConditionPoints map[model.Condition]float64 `yaml:"condition_points" toml:"condition_points" json:"condition_points"`
	RSIBands        []Band                      `yaml:"rsi_bands" toml:"rsi_bands" json:"rsi_bands"`
	MACDBuckets     []Bucket                    `yaml:"macd_buckets" toml:"macd_buckets" json:"macd_buckets"`
	// CrossBonus[k] is awarded when the MACD bullish cross happened k periods ago.
	CrossBonus []float64 `yaml:"cross_bonus" toml:"cross_bonus" json:"cross_bonus"`
	Min        float64   `yaml:"min" toml:"min" json:"min"`
	Max        float64   `yaml:"max" toml:"max" json:"max"`
}

// Preset is a named, versioned condition set with thresholds and scoring.
type Preset struct {
	Name       string            `yaml:"name" toml:"name" json:"name"`
	Version    int               `yaml:"version" toml:"version" json:"version"`
	Required   []model.Condition `yaml:"required" toml:"required" json:"required"`
	Thresholds Thresholds        `yaml:"thresholds" toml:"thresholds" json:"thresholds"`
	Scoring    ScoringRules      `yaml:"scoring" toml:"scoring" json:"scoring"`
}

const (
	PresetCore     = "core"
	PresetStrict   = "strict"
	PresetMomentum = "momentum"
)

// DefaultPreset is used when no preset is configured.
const DefaultPreset = PresetCore

func baseThresholds() Thresholds {
	return Thresholds{
		Stage2MinSlope:     0,
		BreakoutMargin:     0.005,
		VolumeMultiplier:   1.2,
		StrongRSMode:       StrongRSNearHigh,
		StrongRSBand:       0.90,
		ProximityFactor:    0.98,
		MaxExtension:       0.20,
		LiquidityThreshold: 1_000_000,
		Stage4MaxSlope:     -1.0,
	}
}

func corePreset() Preset {
	return Preset{
		Name:       PresetCore,
		Version:    3,
		Required:   []model.Condition{model.CondStage2, model.CondLowResistance, model.CondNotOverextended},
		Thresholds: baseThresholds(),
		Scoring: ScoringRules{
			ConditionPoints: map[model.Condition]float64{
				model.CondStage2:          33.33,
				model.CondLowResistance:   33.33,
				model.CondNotOverextended: 33.34,
			},
			Min: 0,
			Max: 100,
		},
	}
}

func strictPreset() Preset {
	th := baseThresholds()
	th.BreakoutMargin = 0.01
	th.VolumeMultiplier = 1.3
	th.ProximityFactor = 0.95
	th.MaxExtension = 0.25
	return Preset{
		Name:    PresetStrict,
		Version: 2,
		Required: []model.Condition{
			model.CondLiquidity,
			model.CondStage2,
			model.CondBreakout,
			model.CondVolumeConfirm,
			model.CondRSUptrend,
			model.CondStrongRS,
			model.CondLowResistance,
			model.CondNotOverextended,
		},
		Thresholds: th,
		Scoring: ScoringRules{
			ConditionPoints: map[model.Condition]float64{
				model.CondStage2:          20,
				model.CondBreakout:        10,
				model.CondVolumeConfirm:   10,
				model.CondRSUptrend:       10,
				model.CondStrongRS:        10,
				model.CondLowResistance:   10,
				model.CondNotOverextended: 10,
				model.CondLiquidity:       5,
			},
			RSIBands:    defaultRSIBands(),
			MACDBuckets: defaultMACDBuckets(),
			CrossBonus:  []float64{5, 3, 1},
			Min:         0,
			Max:         100,
		},
	}
}

func momentumPreset() Preset {
	p := corePreset()
	p.Name = PresetMomentum
	p.Version = 1
	p.Required = append(p.Required, model.CondRSIUptrend, model.CondMACDBullish)
	p.Thresholds.MACDRequireHistogram = true
	p.Scoring = ScoringRules{
		ConditionPoints: map[model.Condition]float64{
			model.CondStage2:          20,
			model.CondLowResistance:   15,
			model.CondNotOverextended: 10,
			model.CondRSIUptrend:      15,
			model.CondMACDBullish:     15,
		},
		RSIBands:    defaultRSIBands(),
		MACDBuckets: defaultMACDBuckets(),
		CrossBonus:  []float64{5, 3, 1},
		Min:         0,
		Max:         100,
	}
	return p
}

func defaultRSIBands() []Band {
	return []Band{{Max: 40, Points: 10}, {Max: 55, Points: 8}, {Max: 65, Points: 5}, {Max: 75, Points: 2}}
}

func defaultMACDBuckets() []Bucket {
	return []Bucket{{MinPct: 1, Points: 10}, {MinPct: 0.5, Points: 6}, {MinPct: 0, Points: 3}}
}

var presets = map[string]func() Preset{
	PresetCore:     corePreset,
	PresetStrict:   strictPreset,
	PresetMomentum: momentumPreset,
}

// LookupPreset returns a fresh copy of the named preset.
func LookupPreset(name string) (Preset, error) {
	if name == "" {
		name = DefaultPreset
	}
	build, ok := presets[name]
	if !ok {
		return Preset{}, fmt.Errorf("unknown preset %q (known: %v)", name, PresetNames())
	}
	return build(), nil
}

// PresetNames lists the known presets in sorted order.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate checks a preset for values no evaluation can use.
func (p Preset) Validate() error {
	if len(p.Required) == 0 {
		return fmt.Errorf("preset %s: no required conditions", p.Name)
	}
	known := make(map[model.Condition]bool, len(model.AllConditions))
	for _, c := range model.AllConditions {
		known[c] = true
	}
	for _, c := range p.Required {
		if !known[c] {
			return fmt.Errorf("preset %s: unknown condition %q", p.Name, c)
		}
	}
	for c := range p.Scoring.ConditionPoints {
		if !known[c] {
			return fmt.Errorf("preset %s: scoring names unknown condition %q", p.Name, c)
		}
	}
	switch p.Thresholds.StrongRSMode {
	case StrongRSNearHigh, StrongRSEarly:
	default:
		return fmt.Errorf("preset %s: unknown strong_rs_mode %q", p.Name, p.Thresholds.StrongRSMode)
	}
	if p.Thresholds.ProximityFactor <= 0 || p.Thresholds.StrongRSBand <= 0 {
		return fmt.Errorf("preset %s: proximity_factor and strong_rs_band must be positive", p.Name)
	}
	if p.Scoring.Max < p.Scoring.Min {
		return fmt.Errorf("preset %s: score max %.0f below min %.0f", p.Name, p.Scoring.Max, p.Scoring.Min)
	}
	for i := 1; i < len(p.Scoring.RSIBands); i++ {
		if p.Scoring.RSIBands[i].Max <= p.Scoring.RSIBands[i-1].Max {
			return fmt.Errorf("preset %s: rsi_bands must be ascending", p.Name)
		}
	}
	for i := 1; i < len(p.Scoring.MACDBuckets); i++ {
		if p.Scoring.MACDBuckets[i].MinPct >= p.Scoring.MACDBuckets[i-1].MinPct {
			return fmt.Errorf("preset %s: macd_buckets must be descending", p.Name)
		}
	}
	return nil
}
