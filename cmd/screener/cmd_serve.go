package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/AbhilekhGulpadia/yfinanceScreener/internal/model"
	"github.com/AbhilekhGulpadia/yfinanceScreener/internal/notifier"
	"github.com/AbhilekhGulpadia/yfinanceScreener/internal/scheduler"
	"github.com/AbhilekhGulpadia/yfinanceScreener/internal/server"
)

var runOnStart bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the scheduled screens and the JSON API",
	Long: `Start the cron scheduler (schedule.weinstein_cron, schedule.ranking_cron)
and the read-only HTTP API on server.addr. Completed runs are recorded to
SQLite when database.record_runs is set and sent to Telegram when a bot
token and chat id are configured.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().BoolVar(&runOnStart, "run-on-start", os.Getenv("RUN_ON_START") == "true", "Run both screens once at startup")
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rec := a.openRecorder()
	opts := []scheduler.Option{
		scheduler.WithLogger(a.log),
		scheduler.WithRecorder(rec),
		scheduler.WithTopN(a.cfg.Telegram.TopN),
	}
	if a.cfg.TelegramEnabled() {
		tn := notifier.NewTelegramNotifier(a.cfg.Telegram.BotToken, a.cfg.Telegram.ChatID, a.cfg.DataSource.ProxyURL, a.log)
		opts = append(opts, scheduler.WithMessenger(tn))
	} else {
		a.log.Info().Msg("telegram not configured, notifications disabled")
	}
	index := a.cfg.Screening.Index
	sched := scheduler.New(ctx, a.screener, func() []model.Stock { return a.universe.Members(index) }, opts...)
	if err := sched.RegisterAll(a.cfg.Schedule.WeinsteinCron, a.cfg.Schedule.RankingCron); err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	srv, err := server.New(server.Config{
		Addr:     a.cfg.Server.Addr,
		Screener: a.screener,
		Universe: a.universe,
		Index:    index,
		Latest:   sched,
		Recorder: rec,
		Metrics:  a.metrics,
		Logger:   a.log,
	})
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Run(gctx) })
	if runOnStart {
		a.log.Info().Msg("run-on-start enabled, executing both screens now")
		g.Go(func() error {
			sched.RunWeinsteinNow()
			sched.RunRankingNow()
			return nil
		})
	}
	a.log.Info().Str("addr", a.cfg.Server.Addr).Msg("screener is running, press Ctrl+C to stop")
	err = g.Wait()
	a.log.Info().Msg("screener stopped")
	return err
}
