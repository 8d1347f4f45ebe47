package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/AbhilekhGulpadia/yfinanceScreener/internal/model"
	"github.com/AbhilekhGulpadia/yfinanceScreener/internal/notifier"
	"github.com/AbhilekhGulpadia/yfinanceScreener/internal/recorder"
	"github.com/AbhilekhGulpadia/yfinanceScreener/internal/screener"
)

// Messenger delivers a formatted report, splitting it if needed.
type Messenger interface {
	SendAll(ctx context.Context, text string, maxRetries int) error
}

// Scheduler runs screening passes on cron schedules, records them and
// sends the summary. It also keeps the latest result of each kind.
type Scheduler struct {
	cron     *cron.Cron
	screener *screener.Screener
	stocks   func() []model.Stock
	recorder recorder.Recorder
	notify   Messenger
	topN     int
	log      zerolog.Logger
	ctx      context.Context

	mu        sync.RWMutex
	weinstein *screener.WeinsteinResult
	ranking   *screener.RankingResult
}

type Option func(*Scheduler)

func WithRecorder(r recorder.Recorder) Option { return func(s *Scheduler) { s.recorder = r } }

func WithMessenger(m Messenger) Option { return func(s *Scheduler) { s.notify = m } }

func WithLogger(l zerolog.Logger) Option { return func(s *Scheduler) { s.log = l } }

// WithTopN sets how many rows a notification lists.
func WithTopN(n int) Option { return func(s *Scheduler) { s.topN = n } }

// New creates a scheduler. stocks is called on every run.
func New(ctx context.Context, scr *screener.Screener, stocks func() []model.Stock, opts ...Option) *Scheduler {
	s := &Scheduler{
		screener: scr,
		stocks:   stocks,
		recorder: recorder.NewNoopRecorder(),
		topN:     20,
		log:      zerolog.Nop(),
		ctx:      ctx,
	}
	for _, opt := range opts {
		opt(s)
	}
	loc := scr.Config().Location
	if loc == nil {
		loc = time.Local
	}
	logger := cronLogger{s.log}
	s.cron = cron.New(
		cron.WithSeconds(),
		cron.WithLocation(loc),
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)
	return s
}

// RegisterAll registers the Stage Analysis and ranking jobs. An empty
// expression leaves that job unscheduled.
func (s *Scheduler) RegisterAll(weinsteinCron, rankingCron string) error {
	if weinsteinCron != "" {
		if _, err := s.cron.AddFunc(weinsteinCron, func() { s.RunWeinsteinNow() }); err != nil {
			return fmt.Errorf("register weinstein task: %w", err)
		}
	}
	if rankingCron != "" {
		if _, err := s.cron.AddFunc(rankingCron, func() { s.RunRankingNow() }); err != nil {
			return fmt.Errorf("register ranking task: %w", err)
		}
	}
	return nil
}

// Entries reports how many jobs are registered.
func (s *Scheduler) Entries() int { return len(s.cron.Entries()) }

func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info().Int("jobs", s.Entries()).Msg("scheduler started")
}

// Stop stops the cron scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.log.Info().Msg("scheduler stopped")
}

// RunWeinsteinNow executes the Stage Analysis job immediately.
func (s *Scheduler) RunWeinsteinNow() (*screener.WeinsteinResult, error) {
	s.log.Info().Msg("running weinstein task")
	res, err := s.screener.RunWeinstein(s.ctx, s.stocks(), time.Time{})
	if err != nil {
		s.log.Error().Err(err).Msg("weinstein run")
		return nil, err
	}
	s.mu.Lock()
	s.weinstein = res
	s.mu.Unlock()

	if err := s.recorder.RecordWeinstein(s.ctx, res); err != nil {
		s.log.Error().Err(err).Str("run_id", res.RunID).Msg("record weinstein run")
	}
	s.trySend(notifier.FormatWeinstein(res, s.topN))
	return res, nil
}

// RunRankingNow executes the crossover ranking job immediately.
func (s *Scheduler) RunRankingNow() (*screener.RankingResult, error) {
	s.log.Info().Msg("running ranking task")
	res, err := s.screener.RunRanking(s.ctx, s.stocks(), time.Time{})
	if err != nil {
		s.log.Error().Err(err).Msg("ranking run")
		return nil, err
	}
	s.mu.Lock()
	s.ranking = res
	s.mu.Unlock()

	if err := s.recorder.RecordRanking(s.ctx, res); err != nil {
		s.log.Error().Err(err).Str("run_id", res.RunID).Msg("record ranking run")
	}
	s.trySend(notifier.FormatRanking(res, s.topN))
	return res, nil
}

// LatestWeinstein returns the last completed Stage Analysis run, or nil.
func (s *Scheduler) LatestWeinstein() *screener.WeinsteinResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.weinstein
}

// LatestRanking returns the last completed ranking, or nil.
func (s *Scheduler) LatestRanking() *screener.RankingResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ranking
}

func (s *Scheduler) trySend(text string) {
	if s.notify == nil {
		return
	}
	if err := s.notify.SendAll(s.ctx, text, 3); err != nil {
		s.log.Error().Err(err).Msg("send notification")
	}
}

// cronLogger adapts zerolog to cron.Logger.
type cronLogger struct{ log zerolog.Logger }

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Fields(keysAndValues).Msg("cron: " + msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error().Err(err).Fields(keysAndValues).Msg("cron: " + msg)
}
