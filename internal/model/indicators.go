package model

import (
	"fmt"
	"math"
)

// IndicatorFrame is a Series with derived per-period columns aligned to its bars.
// Columns are set while the frame is built and read-only afterwards.
type IndicatorFrame struct {
	Series
	names   []string
	columns map[string][]float64
}

// NewIndicatorFrame wraps s with no derived columns.
func NewIndicatorFrame(s Series) *IndicatorFrame {
	return &IndicatorFrame{Series: s, columns: make(map[string][]float64)}
}

// Set stores a column. The values must be aligned with the bars.
func (f *IndicatorFrame) Set(name string, values []float64) error {
	if len(values) != len(f.Bars) {
		return fmt.Errorf("column %s has %d values for %d bars", name, len(values), len(f.Bars))
	}
	if _, ok := f.columns[name]; !ok {
		f.names = append(f.names, name)
	}
	f.columns[name] = values
	return nil
}

// Column returns the named column.
func (f *IndicatorFrame) Column(name string) ([]float64, bool) {
	c, ok := f.columns[name]
	return c, ok
}

// Value returns column name at period i, or NaN if either is absent.
func (f *IndicatorFrame) Value(name string, i int) float64 {
	c, ok := f.columns[name]
	if !ok || i < 0 || i >= len(c) {
		return math.NaN()
	}
	return c[i]
}

// Names lists the columns in insertion order.
func (f *IndicatorFrame) Names() []string {
	out := make([]string, len(f.names))
	copy(out, f.names)
	return out
}

// Row returns every column value at period i keyed by column name.
func (f *IndicatorFrame) Row(i int) map[string]float64 {
	row := make(map[string]float64, len(f.names))
	for _, name := range f.names {
		row[name] = f.Value(name, i)
	}
	return row
}
