package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/AbhilekhGulpadia/yfinanceScreener/internal/recorder"
	"github.com/AbhilekhGulpadia/yfinanceScreener/internal/report"
)

var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Rank stocks by EMA and MACD crossover recency",
	RunE:  runRank,
}

func init() {
	rootCmd.AddCommand(rankCmd)
	addRunFlags(rankCmd)
}

func runRank(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()
	asOf, err := parseAsOf(a.screener.Config().Location)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	res, err := a.screener.RunRanking(ctx, a.stocks(), asOf)
	if err != nil {
		return err
	}
	a.record(func(r recorder.Recorder) error { return r.RecordRanking(ctx, res) })
	if jsonFlag {
		return writeJSON(os.Stdout, report.NewRanking(res))
	}
	report.RenderRanking(os.Stdout, res, topFlag)
	return nil
}
