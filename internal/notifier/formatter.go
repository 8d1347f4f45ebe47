package notifier

import (
	"fmt"
	"html"
	"strconv"
	"strings"

	"github.com/AbhilekhGulpadia/yfinanceScreener/internal/report"
	"github.com/AbhilekhGulpadia/yfinanceScreener/internal/screener"
)

func price(v float64) string {
	r := report.Round2(v)
	if r == nil {
		return "n/a"
	}
	return strconv.FormatFloat(*r, 'f', 2, 64)
}

// FormatWeinstein formats a Stage Analysis run: the shortlist first, then
// the top scored rows.
func FormatWeinstein(res *screener.WeinsteinResult, top int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📊 <b>Weinstein screen</b> | %s | %s v%d\n", res.AsOf.Format("2006-01-02"), html.EscapeString(res.Preset), res.PresetVersion)
	bench := html.EscapeString(res.Benchmark)
	if res.Degraded {
		bench += " ⚠️ proxy"
	}
	fmt.Fprintf(&b, "Benchmark: %s\n", bench)
	if res.Status != screener.StatusOK {
		fmt.Fprintf(&b, "\nStatus: <b>%s</b> %s\n", res.Status, html.EscapeString(res.Reason))
		return b.String()
	}
	fmt.Fprintf(&b, "Scored %d of %d (skipped %d, failed %d)\n\n", res.Scored, res.Considered, res.Skipped, res.Failed)

	if len(res.Shortlist) == 0 {
		b.WriteString("No symbol passed every condition.\n")
	} else {
		fmt.Fprintf(&b, "✅ <b>Shortlist (%d)</b>\n", len(res.Shortlist))
		for _, s := range res.Shortlist {
			fmt.Fprintf(&b, "  %s\n", html.EscapeString(s))
		}
	}

	if top > 0 && len(res.Rows) > 0 {
		b.WriteString("\n📈 <b>Top scores</b>\n")
		for i, r := range res.Rows {
			if i >= top {
				break
			}
			fmt.Fprintf(&b, "%d. %s %d (%s, %s)\n", i+1, html.EscapeString(r.Symbol), r.Score, r.Stage, price(r.Close))
		}
	}
	return b.String()
}

// FormatRanking formats the top rows of a crossover ranking.
func FormatRanking(res *screener.RankingResult, top int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📈 <b>Crossover ranking</b> | %s\n", res.AsOf.Format("2006-01-02"))
	if res.Status != screener.StatusOK {
		fmt.Fprintf(&b, "\nStatus: <b>%s</b> %s\n", res.Status, html.EscapeString(res.Reason))
		return b.String()
	}
	fmt.Fprintf(&b, "Ranked %d (filtered %d, skipped %d)\n\n", len(res.Rows), res.Filtered, res.Skipped)
	for i, r := range res.Rows {
		if top > 0 && i >= top {
			break
		}
		var fresh []string
		for _, c := range r.Crosses {
			if c.WithinWindow {
				fresh = append(fresh, fmt.Sprintf("%s %dd", c.Label, c.PeriodsSince))
			}
		}
		if r.MACDCross.WithinWindow {
			fresh = append(fresh, fmt.Sprintf("%s %dd", r.MACDCross.Label, r.MACDCross.PeriodsSince))
		}
		crosses := "no recent cross"
		if len(fresh) > 0 {
			crosses = strings.Join(fresh, ", ")
		}
		fmt.Fprintf(&b, "%d. %s %s RSI %s | %s\n", r.Rank, html.EscapeString(r.Symbol), price(r.Close), price(r.RSI), crosses)
	}
	return b.String()
}
