package collector

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/AbhilekhGulpadia/yfinanceScreener/internal/model"
)

// GuardedSource throttles calls to an upstream and stops calling it while
// it keeps failing.
type GuardedSource struct {
	src     Source
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
}

// NewGuardedSource allows rps requests per second with the given burst.
// A non-positive rps disables throttling.
func NewGuardedSource(src Source, rps float64, burst int) *GuardedSource {
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}
	if burst < 1 {
		burst = 1
	}
	st := gobreaker.Settings{Name: src.Name()}
	st.Interval = 60 * time.Second
	st.Timeout = 60 * time.Second
	st.ReadyToTrip = func(counts gobreaker.Counts) bool {
		if counts.ConsecutiveFailures >= 3 {
			return true
		}
		if counts.Requests < 20 {
			return false
		}
		return float64(counts.TotalFailures)/float64(counts.Requests) > 0.05
	}
	// an unknown symbol is not an upstream failure
	st.IsSuccessful = func(err error) bool {
		return err == nil || errors.Is(err, ErrNoData) || errors.Is(err, context.Canceled)
	}
	return &GuardedSource{
		src:     src,
		limiter: rate.NewLimiter(limit, burst),
		breaker: gobreaker.NewCircuitBreaker(st),
	}
}

func (g *GuardedSource) Name() string { return g.src.Name() }

// State reports the breaker state.
func (g *GuardedSource) State() string { return g.breaker.State().String() }

func (g *GuardedSource) FetchBars(ctx context.Context, req Request) ([]model.RawBar, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	out, err := g.breaker.Execute(func() (interface{}, error) {
		return g.src.FetchBars(ctx, req)
	})
	if err != nil {
		return nil, err
	}
	return out.([]model.RawBar), nil
}
