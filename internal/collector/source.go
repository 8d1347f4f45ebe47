// Package collector provides the upstream OHLCV sources used by the screener.
package collector

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/AbhilekhGulpadia/yfinanceScreener/internal/model"
)

// ErrNoData is returned when the upstream has no bars for a request.
var ErrNoData = errors.New("no data")

// Request selects bars of one symbol. Zero From or To leaves that side open.
type Request struct {
	Symbol     string
	From       time.Time
	To         time.Time
	Resolution model.Resolution
}

// CacheKey identifies the request's result set.
func (r Request) CacheKey() string {
	return fmt.Sprintf("%s|%s|%s|%s", r.Symbol, keyDate(r.From), keyDate(r.To), r.resolution())
}

func (r Request) resolution() model.Resolution {
	if r.Resolution == "" {
		return model.ResolutionDaily
	}
	return r.Resolution
}

func (r Request) contains(t time.Time) bool {
	if !r.From.IsZero() && t.Before(r.From) {
		return false
	}
	if !r.To.IsZero() && t.After(r.To) {
		return false
	}
	return true
}

func keyDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format("20060102")
}

// Source fetches raw bars. Implementations must be safe for concurrent use.
type Source interface {
	FetchBars(ctx context.Context, req Request) ([]model.RawBar, error)
	Name() string
}

// SymbolLister is implemented by sources that can enumerate what they hold.
type SymbolLister interface {
	Symbols(ctx context.Context) ([]string, error)
}
