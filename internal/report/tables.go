package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/AbhilekhGulpadia/yfinanceScreener/internal/model"
	"github.com/AbhilekhGulpadia/yfinanceScreener/internal/screener"
)

func newTable(w io.Writer, title string) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.SetTitle(title)
	return t
}

func num(v *float64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v, 'f', 2, 64)
}

func mark(ok bool) string {
	if ok {
		return "yes"
	}
	return "no"
}

// RenderWeinstein writes the top rows of a Stage Analysis run. top <= 0
// writes every row.
func RenderWeinstein(w io.Writer, res *screener.WeinsteinResult, top int) {
	bench := res.Benchmark
	if res.Degraded {
		bench += " (proxy)"
	}
	t := newTable(w, fmt.Sprintf("Weinstein %s v%d | %s | benchmark %s", res.Preset, res.PresetVersion, res.AsOf.Format(dateLayout), bench))
	t.AppendHeader(table.Row{"#", "Symbol", "Sector", "Close", "Chg %", "Score", "Stage", "All passed"})
	for i, r := range res.Rows {
		if top > 0 && i >= top {
			break
		}
		t.AppendRow(table.Row{i + 1, r.Symbol, r.Sector, num(Round2(r.Close)), num(Round2(r.ChangePct)), r.Score, r.Stage, mark(r.AllPassed)})
	}
	t.AppendFooter(table.Row{"", "", "", "", "", "", "Shortlisted", len(res.Shortlist)})
	t.Render()
	fmt.Fprintf(w, "status %s: %d considered, %d scored, %d skipped, %d failed\n",
		res.Status, res.Considered, res.Scored, res.Skipped, res.Failed)
}

// RenderRanking writes the top rows of a crossover ranking. Crossover
// cells show the periods since the cross, starred inside the lookback window.
func RenderRanking(w io.Writer, res *screener.RankingResult, top int) {
	t := newTable(w, fmt.Sprintf("Crossover ranking | %s | lookback %d", res.AsOf.Format(dateLayout), res.Params.LookbackSessions))
	header := table.Row{"Rank", "Symbol", "Close", "RSI"}
	if len(res.Rows) > 0 {
		for _, c := range res.Rows[0].Crosses {
			header = append(header, c.Label)
		}
		header = append(header, res.Rows[0].MACDCross.Label, "MACD")
	}
	t.AppendHeader(header)
	for i, r := range res.Rows {
		if top > 0 && i >= top {
			break
		}
		row := table.Row{r.Rank, r.Symbol, num(Round2(r.Close)), num(Round2(r.RSI))}
		for _, c := range r.Crosses {
			row = append(row, crossCell(c))
		}
		row = append(row, crossCell(r.MACDCross), r.MACDState)
		t.AppendRow(row)
	}
	t.Render()
	fmt.Fprintf(w, "status %s: %d ranked, %d filtered, %d skipped, %d failed\n",
		res.Status, len(res.Rows), res.Filtered, res.Skipped, res.Failed)
}

func crossCell(c model.CrossInfo) string {
	if !c.Ever() {
		return "-"
	}
	s := strconv.Itoa(c.PeriodsSince)
	if c.WithinWindow {
		s += "*"
	}
	return s
}

// RenderDetail writes a symbol's weekly condition history, oldest first.
func RenderDetail(w io.Writer, d *screener.Detail) {
	var conds []model.Condition
	if len(d.Weeks) > 0 {
		for _, c := range model.AllConditions {
			if _, ok := d.Weeks[0].Conditions[c]; ok {
				conds = append(conds, c)
			}
		}
	}
	t := newTable(w, fmt.Sprintf("%s vs %s | %d of %d weeks passed", d.Symbol, d.Benchmark, d.WeeksPassed, len(d.Weeks)))
	header := table.Row{"Week", "Close", "Stage"}
	for _, c := range conds {
		header = append(header, string(c))
	}
	t.AppendHeader(append(header, "All"))
	for _, wk := range d.Weeks {
		row := table.Row{wk.Time.Format(dateLayout), num(Round2(wk.Close)), wk.Stage}
		for _, c := range conds {
			row = append(row, wk.Conditions[c])
		}
		t.AppendRow(append(row, mark(wk.AllPassed)))
	}
	t.Render()
}
