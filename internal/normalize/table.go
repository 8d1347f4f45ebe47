package normalize

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/AbhilekhGulpadia/yfinanceScreener/internal/model"
)

// Table is an upstream table with free-form column names, e.g. a CSV export
// or a merged multi-symbol download.
type Table struct {
	Symbol  string
	Columns []string
	Rows    [][]string
}

// ReadCSV reads a headed CSV into a Table.
func ReadCSV(r io.Reader, symbol string) (Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return Table{Symbol: symbol}, nil
	}
	if err != nil {
		return Table{}, fmt.Errorf("read csv header: %w", err)
	}
	rows, err := cr.ReadAll()
	if err != nil {
		return Table{}, fmt.Errorf("read csv rows: %w", err)
	}
	return Table{Symbol: symbol, Columns: header, Rows: rows}, nil
}

var symbolColumns = []string{"yfinance_symbol", "symbol", "ticker", "yf"}

// SplitBySymbol partitions a tidy table with a symbol column into one table
// per symbol, in first-seen order. A table without a symbol column is
// returned unchanged.
func SplitBySymbol(t Table) []Table {
	cols := canonical(t.Columns)
	idx := -1
	for _, want := range symbolColumns {
		for i, c := range cols {
			if c == want {
				idx = i
				break
			}
		}
		if idx >= 0 {
			break
		}
	}
	if idx < 0 {
		return []Table{t}
	}

	var order []string
	groups := make(map[string]*Table)
	for _, row := range t.Rows {
		if idx >= len(row) {
			continue
		}
		sym := strings.TrimSpace(row[idx])
		if sym == "" {
			continue
		}
		g, ok := groups[sym]
		if !ok {
			g = &Table{Symbol: sym, Columns: t.Columns}
			groups[sym] = g
			order = append(order, sym)
		}
		g.Rows = append(g.Rows, row)
	}
	out := make([]Table, 0, len(order))
	for _, sym := range order {
		out = append(out, *groups[sym])
	}
	return out
}

// FromTable maps the table's columns onto bars with PickColumn and cleans
// them with Bars. Unparseable cells become gaps.
func FromTable(t Table, opts Options) model.Series {
	if len(t.Columns) == 0 || len(t.Rows) == 0 {
		return model.Series{Symbol: strings.ToUpper(strings.TrimSpace(t.Symbol)), Resolution: opts.resolution()}
	}
	cols := canonical(t.Columns)
	dateIdx := dateColumn(cols)

	// the timestamp column never carries a price field
	priceCols := make([]string, len(cols))
	copy(priceCols, cols)
	priceCols[dateIdx] = ""

	pick := func(base string) int {
		i, ok := PickColumn(priceCols, base, t.Symbol)
		if !ok || priceCols[i] == "" {
			return -1
		}
		return i
	}
	open, high, low := pick("open"), pick("high"), pick("low")
	closeIdx, adj, vol := pick("close"), pick("adj_close"), pick("volume")

	loc := opts.location()
	raw := make([]model.RawBar, 0, len(t.Rows))
	for _, row := range t.Rows {
		ts, ok := parseTime(cell(row, dateIdx), loc)
		if !ok {
			continue
		}
		raw = append(raw, model.RawBar{
			Time:     ts,
			Open:     number(cell(row, open)),
			High:     number(cell(row, high)),
			Low:      number(cell(row, low)),
			Close:    number(cell(row, closeIdx)),
			AdjClose: number(cell(row, adj)),
			Volume:   number(cell(row, vol)),
		})
	}
	return Bars(t.Symbol, opts.resolution(), raw)
}

func canonical(columns []string) []string {
	out := make([]string, len(columns))
	for i, c := range columns {
		out[i] = CanonicalName(c)
	}
	return out
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func number(s string) float64 {
	if s == "" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

var timeLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006-01-02 15:04:05-07:00",
	"2006-01-02 15:04:05Z07:00",
	"02-01-2006",
	"2006/01/02",
}

func parseTime(s string, loc *time.Location) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		if ts, err := time.ParseInLocation(layout, s, loc); err == nil {
			return ts, true
		}
	}
	if secs, err := strconv.ParseInt(s, 10, 64); err == nil && secs > 0 {
		return time.Unix(secs, 0).In(loc), true
	}
	return time.Time{}, false
}
