// Package universe loads the list of stocks to screen.
package universe

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/AbhilekhGulpadia/yfinanceScreener/internal/model"
)

// DefaultSuffix is appended to bare exchange symbols.
const DefaultSuffix = ".NS"

type file struct {
	DefaultSuffix *string       `yaml:"default_suffix" json:"default_suffix"`
	Stocks        []model.Stock `yaml:"stocks" json:"stocks"`
}

// Universe is an ordered, de-duplicated stock list.
type Universe struct {
	stocks   []model.Stock
	bySymbol map[string]int
}

// Load reads a YAML or JSON (by extension) universe file.
func Load(path string) (*Universe, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read universe: %w", err)
	}
	return Parse(data, strings.ToLower(filepath.Ext(path)) == ".json")
}

// Parse decodes a universe document.
func Parse(data []byte, isJSON bool) (*Universe, error) {
	var f file
	var err error
	if isJSON {
		err = json.Unmarshal(data, &f)
	} else {
		err = yaml.Unmarshal(data, &f)
	}
	if err != nil {
		return nil, fmt.Errorf("parse universe: %w", err)
	}
	suffix := DefaultSuffix
	if f.DefaultSuffix != nil {
		suffix = *f.DefaultSuffix
	}
	return New(f.Stocks, suffix), nil
}

// New builds a universe; the first entry for a symbol wins.
func New(stocks []model.Stock, suffix string) *Universe {
	u := &Universe{bySymbol: make(map[string]int, len(stocks))}
	for _, s := range stocks {
		s.Symbol = NormalizeSymbol(s.Symbol, suffix)
		if s.Symbol == "" {
			continue
		}
		if _, dup := u.bySymbol[s.Symbol]; dup {
			continue
		}
		indices := make([]string, 0, len(s.Indices))
		for _, idx := range s.Indices {
			indices = append(indices, strings.ToLower(strings.TrimSpace(idx)))
		}
		s.Indices = indices
		u.bySymbol[s.Symbol] = len(u.stocks)
		u.stocks = append(u.stocks, s)
	}
	return u
}

// NormalizeSymbol upper-cases the symbol and appends suffix unless it
// already names a market (contains a dot) or an index (starts with ^).
func NormalizeSymbol(symbol, suffix string) string {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	if s == "" || strings.Contains(s, ".") || strings.HasPrefix(s, "^") {
		return s
	}
	return s + strings.ToUpper(suffix)
}

// Stocks returns every member in file order.
func (u *Universe) Stocks() []model.Stock {
	return append([]model.Stock(nil), u.stocks...)
}

func (u *Universe) Len() int { return len(u.stocks) }

// Members returns the stocks of index; an empty index selects all.
func (u *Universe) Members(index string) []model.Stock {
	if index == "" {
		return u.Stocks()
	}
	index = strings.ToLower(index)
	var out []model.Stock
	for _, s := range u.stocks {
		if s.InIndex(index) {
			out = append(out, s)
		}
	}
	return out
}

// Lookup finds a stock by symbol, with or without the market suffix.
func (u *Universe) Lookup(symbol string) (model.Stock, bool) {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	if i, ok := u.bySymbol[s]; ok {
		return u.stocks[i], true
	}
	if i, ok := u.bySymbol[s+DefaultSuffix]; ok {
		return u.stocks[i], true
	}
	return model.Stock{}, false
}

// Sectors lists distinct sectors in ascending order.
func (u *Universe) Sectors() []string {
	seen := map[string]bool{}
	var out []string
	for _, s := range u.stocks {
		if s.Sector != "" && !seen[s.Sector] {
			seen[s.Sector] = true
			out = append(out, s.Sector)
		}
	}
	sort.Strings(out)
	return out
}
