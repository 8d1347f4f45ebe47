// Package report renders screening results for people and for JSON clients.
// Undefined numbers become null in JSON and "-" in tables.
package report

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/AbhilekhGulpadia/yfinanceScreener/internal/model"
	"github.com/AbhilekhGulpadia/yfinanceScreener/internal/screener"
)

const dateLayout = "2006-01-02"

// Round2 rounds half away from zero to two places; undefined values give nil.
func Round2(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return &f
}

// Component is one contribution to a weighted score.
type Component struct {
	Name       string   `json:"name"`
	Points     *float64 `json:"points"`
	Commentary string   `json:"commentary,omitempty"`
}

// ScoredRow is the JSON view of a scored symbol.
type ScoredRow struct {
	Symbol     string                   `json:"symbol"`
	Name       string                   `json:"name"`
	Sector     string                   `json:"sector"`
	Date       string                   `json:"date"`
	Close      *float64                 `json:"close"`
	ChangePct  *float64                 `json:"change_pct"`
	Volume     int64                    `json:"volume"`
	Score      int                      `json:"score"`
	Stage      string                   `json:"stage"`
	AllPassed  bool                     `json:"all_passed"`
	Conditions map[model.Condition]bool `json:"conditions"`
	Components []Component              `json:"components"`
	Values     map[string]*float64      `json:"values"`
}

func NewScoredRow(s model.ScoredSymbol) ScoredRow {
	row := ScoredRow{
		Symbol:     s.Symbol,
		Name:       s.Name,
		Sector:     s.Sector,
		Date:       s.Time.Format(dateLayout),
		Close:      Round2(s.Close),
		ChangePct:  Round2(s.ChangePct),
		Volume:     s.Volume,
		Score:      s.Score,
		Stage:      s.Stage.String(),
		AllPassed:  s.AllPassed,
		Conditions: s.Conditions,
		Values:     make(map[string]*float64, len(s.Values)),
	}
	for _, c := range s.Components {
		row.Components = append(row.Components, Component{Name: c.Name, Points: Round2(c.Points), Commentary: c.Commentary})
	}
	for k, v := range s.Values {
		row.Values[k] = Round2(v)
	}
	return row
}

// Weinstein is the JSON view of a Stage Analysis run.
type Weinstein struct {
	RunID     string             `json:"run_id"`
	AsOf      string             `json:"as_of"`
	Preset    string             `json:"preset"`
	Version   int                `json:"preset_version"`
	Benchmark string             `json:"benchmark"`
	Degraded  bool               `json:"degraded"`
	Status    screener.Status    `json:"status"`
	Reason    string             `json:"reason,omitempty"`
	Counts    screener.Counts    `json:"counts"`
	Shortlist []string           `json:"shortlist"`
	Rows      []ScoredRow        `json:"rows"`
	Failures  []screener.Failure `json:"failures,omitempty"`
}

func NewWeinstein(res *screener.WeinsteinResult) Weinstein {
	v := Weinstein{
		RunID:     res.RunID,
		AsOf:      res.AsOf.Format(dateLayout),
		Preset:    res.Preset,
		Version:   res.PresetVersion,
		Benchmark: res.Benchmark,
		Degraded:  res.Degraded,
		Status:    res.Status,
		Reason:    res.Reason,
		Counts:    res.Counts,
		Shortlist: append([]string{}, res.Shortlist...),
		Rows:      make([]ScoredRow, 0, len(res.Rows)),
		Failures:  res.Failures,
	}
	for _, r := range res.Rows {
		v.Rows = append(v.Rows, NewScoredRow(r))
	}
	return v
}

// RankedRow is the JSON view of a ranked symbol. Recency holds
// has_<label>_cross and days_since_<label>_cross for every baseline and
// the MACD cross; days_since is null when no cross ever happened.
type RankedRow struct {
	Rank            int               `json:"rank"`
	Symbol          string            `json:"symbol"`
	Name            string            `json:"name"`
	Date            string            `json:"date"`
	Close           *float64          `json:"close"`
	RSI             *float64          `json:"rsi"`
	PassesRSIFilter bool              `json:"passes_rsi_filter"`
	EMAStates       map[string]string `json:"ema_states"`
	MACDState       string            `json:"macd_state"`
	Recency         map[string]any    `json:"recency"`
}

func NewRankedRow(r model.RankedSymbol) RankedRow {
	row := RankedRow{
		Rank:            r.Rank,
		Symbol:          r.Symbol,
		Name:            r.Name,
		Date:            r.Time.Format(dateLayout),
		Close:           Round2(r.Close),
		RSI:             Round2(r.RSI),
		PassesRSIFilter: r.PassesRSIFilter,
		EMAStates:       make(map[string]string, len(r.EMAStates)),
		MACDState:       r.MACDState,
		Recency:         map[string]any{},
	}
	for i, st := range r.EMAStates {
		key := fmt.Sprintf("%d", st.Span)
		if i < len(r.Crosses) {
			key = r.Crosses[i].Label
		}
		row.EMAStates[key] = st.State
	}
	for _, c := range append(append([]model.CrossInfo{}, r.Crosses...), r.MACDCross) {
		row.Recency["has_"+c.Label+"_cross"] = c.WithinWindow
		var since *int
		if c.Ever() {
			n := c.PeriodsSince
			since = &n
		}
		row.Recency["days_since_"+c.Label+"_cross"] = since
	}
	return row
}

// Ranking is the JSON view of a crossover ranking.
type Ranking struct {
	RunID    string             `json:"run_id"`
	AsOf     string             `json:"as_of"`
	Status   screener.Status    `json:"status"`
	Reason   string             `json:"reason,omitempty"`
	Counts   screener.Counts    `json:"counts"`
	Filtered int                `json:"filtered"`
	Rows     []RankedRow        `json:"rows"`
	Failures []screener.Failure `json:"failures,omitempty"`
}

func NewRanking(res *screener.RankingResult) Ranking {
	v := Ranking{
		RunID:    res.RunID,
		AsOf:     res.AsOf.Format(dateLayout),
		Status:   res.Status,
		Reason:   res.Reason,
		Counts:   res.Counts,
		Filtered: res.Filtered,
		Rows:     make([]RankedRow, 0, len(res.Rows)),
		Failures: res.Failures,
	}
	for _, r := range res.Rows {
		v.Rows = append(v.Rows, NewRankedRow(r))
	}
	return v
}

// Frame is the JSON view of a full indicator history.
type Frame struct {
	Symbol  string                `json:"symbol"`
	Dates   []string              `json:"dates"`
	Open    []*float64            `json:"open"`
	High    []*float64            `json:"high"`
	Low     []*float64            `json:"low"`
	Close   []*float64            `json:"close"`
	Volume  []int64               `json:"volume"`
	Columns map[string][]*float64 `json:"columns"`
}

func NewFrame(f *model.IndicatorFrame) Frame {
	n := f.Len()
	v := Frame{
		Symbol:  f.Symbol,
		Dates:   make([]string, n),
		Open:    make([]*float64, n),
		High:    make([]*float64, n),
		Low:     make([]*float64, n),
		Close:   make([]*float64, n),
		Volume:  make([]int64, n),
		Columns: map[string][]*float64{},
	}
	for i, b := range f.Bars {
		v.Dates[i] = b.Time.Format(dateLayout)
		v.Open[i], v.High[i], v.Low[i], v.Close[i] = Round2(b.Open), Round2(b.High), Round2(b.Low), Round2(b.Close)
		v.Volume[i] = b.Volume
	}
	for _, name := range f.Names() {
		col, _ := f.Column(name)
		v.Columns[name] = roundAll(col)
	}
	return v
}

func roundAll(values []float64) []*float64 {
	out := make([]*float64, len(values))
	for i, x := range values {
		out[i] = Round2(x)
	}
	return out
}

// Week is the JSON view of one weekly detail row.
type Week struct {
	Date       string                            `json:"date"`
	Close      *float64                          `json:"close"`
	Stage      string                            `json:"stage"`
	Conditions map[model.Condition]model.Outcome `json:"conditions"`
	AllPassed  bool                              `json:"all_passed"`
}

// Detail is the JSON view of a symbol's recent weekly history.
type Detail struct {
	Symbol      string    `json:"symbol"`
	Benchmark   string    `json:"benchmark"`
	Degraded    bool      `json:"degraded"`
	Latest      ScoredRow `json:"latest"`
	WeeksPassed int       `json:"weeks_passed"`
	Weeks       []Week    `json:"weeks"`
}

func NewDetail(d *screener.Detail) Detail {
	v := Detail{
		Symbol:      d.Symbol,
		Benchmark:   d.Benchmark,
		Degraded:    d.Degraded,
		Latest:      NewScoredRow(d.Latest),
		WeeksPassed: d.WeeksPassed,
	}
	for _, w := range d.Weeks {
		v.Weeks = append(v.Weeks, Week{
			Date:       w.Time.Format(dateLayout),
			Close:      Round2(w.Close),
			Stage:      w.Stage.String(),
			Conditions: w.Conditions,
			AllPassed:  w.AllPassed,
		})
	}
	return v
}
