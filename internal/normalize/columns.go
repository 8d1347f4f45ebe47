package normalize

import "strings"

// CanonicalName lowercases a column name and replaces spaces with underscores.
func CanonicalName(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "_")
}

// SymbolKey folds a symbol into the form merged multi-symbol headers use,
// e.g. "M&M.NS" -> "m&m_ns" and "BAJAJ-AUTO" -> "bajaj_auto".
func SymbolKey(symbol string) string {
	return strings.NewReplacer(".", "_", "-", "_").Replace(strings.ToLower(strings.TrimSpace(symbol)))
}

// PickColumn resolves the column carrying field base for symbol.
// Columns are expected in canonical form. Resolution order:
//
//  1. exact match on base
//  2. suffixed match base_symkey, then prefixed symkey_base
//  3. any column ending in _base
//  4. the first column containing base as a substring
//
// The first column, in column order, wins within each step.
// ok is false when nothing matches; the field is then a gap.
func PickColumn(columns []string, base, symbol string) (index int, ok bool) {
	key := SymbolKey(symbol)
	for _, want := range []string{base, base + "_" + key, key + "_" + base} {
		for i, c := range columns {
			if c == want {
				return i, true
			}
		}
	}
	for i, c := range columns {
		if strings.HasSuffix(c, "_"+base) {
			return i, true
		}
	}
	for i, c := range columns {
		if strings.Contains(c, base) {
			return i, true
		}
	}
	return -1, false
}

var dateCandidates = []string{"date", "datetime", "index", "timestamp", "time"}

// dateColumn returns the timestamp column, falling back to the first column.
func dateColumn(columns []string) int {
	for _, want := range dateCandidates {
		for i, c := range columns {
			if c == want {
				return i
			}
		}
	}
	return 0
}
