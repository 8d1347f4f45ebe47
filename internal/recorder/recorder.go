package recorder

import (
	"context"
	"time"

	"github.com/AbhilekhGulpadia/yfinanceScreener/internal/screener"
)

// Run kinds.
const (
	KindWeinstein = "weinstein"
	KindRanking   = "ranking"
)

// Run is the header of one recorded screening run.
type Run struct {
	ID         string          `json:"run_id"`
	Kind       string          `json:"kind"`
	AsOf       time.Time       `json:"as_of"`
	Status     screener.Status `json:"status"`
	Reason     string          `json:"reason,omitempty"`
	Preset     string          `json:"preset,omitempty"`
	Benchmark  string          `json:"benchmark,omitempty"`
	Degraded   bool            `json:"degraded"`
	Counts     screener.Counts `json:"counts"`
	StartedAt  time.Time       `json:"started_at"`
	DurationMS int64           `json:"duration_ms"`
}

// Recorder persists screening runs for later analysis.
type Recorder interface {
	RecordWeinstein(ctx context.Context, res *screener.WeinsteinResult) error
	RecordRanking(ctx context.Context, res *screener.RankingResult) error
	Runs(ctx context.Context, kind string, limit int) ([]Run, error)
	Close() error
}

// NoopRecorder is used when run recording is disabled.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (NoopRecorder) RecordWeinstein(context.Context, *screener.WeinsteinResult) error { return nil }
func (NoopRecorder) RecordRanking(context.Context, *screener.RankingResult) error     { return nil }
func (NoopRecorder) Runs(context.Context, string, int) ([]Run, error)                 { return nil, nil }
func (NoopRecorder) Close() error                                                     { return nil }
