// Package metrics exposes screening counters to Prometheus. A nil *Registry
// is valid and records nothing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds the screener's metrics on a private Prometheus registry.
type Registry struct {
	reg *prometheus.Registry

	Runs          *prometheus.CounterVec
	RunDuration   *prometheus.HistogramVec
	Symbols       *prometheus.CounterVec
	FetchDuration *prometheus.HistogramVec
	Shortlisted   prometheus.Gauge
}

func NewRegistry() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),
		Runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "screener_runs_total",
				Help: "Screening runs by kind and final status",
			},
			[]string{"kind", "status"},
		),
		RunDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "screener_run_duration_seconds",
				Help:    "Wall time of a screening run",
				Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120, 300, 600},
			},
			[]string{"kind"},
		),
		Symbols: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "screener_symbols_total",
				Help: "Per-symbol outcomes (scored, skipped, failed)",
			},
			[]string{"kind", "outcome"},
		),
		FetchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "screener_fetch_duration_seconds",
				Help:    "Upstream fetch latency per source",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"source"},
		),
		Shortlisted: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "screener_shortlist_size",
				Help: "Symbols passing every required condition in the last Stage Analysis run",
			},
		),
	}
	r.reg.MustRegister(r.Runs, r.RunDuration, r.Symbols, r.FetchDuration, r.Shortlisted)
	return r
}

// Gatherer exposes the underlying registry.
func (r *Registry) Gatherer() prometheus.Gatherer { return r.reg }

// Handler serves the registry in the Prometheus text format.
func (r *Registry) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}

func (r *Registry) RunFinished(kind, status string, d time.Duration) {
	if r == nil {
		return
	}
	r.Runs.WithLabelValues(kind, status).Inc()
	r.RunDuration.WithLabelValues(kind).Observe(d.Seconds())
}

func (r *Registry) SymbolOutcome(kind, outcome string) {
	if r == nil {
		return
	}
	r.Symbols.WithLabelValues(kind, outcome).Inc()
}

func (r *Registry) ObserveFetch(source string, d time.Duration) {
	if r == nil {
		return
	}
	r.FetchDuration.WithLabelValues(source).Observe(d.Seconds())
}

func (r *Registry) SetShortlist(n int) {
	if r == nil {
		return
	}
	r.Shortlisted.Set(float64(n))
}
