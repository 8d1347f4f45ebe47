package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/AbhilekhGulpadia/yfinanceScreener/internal/model"
	"github.com/AbhilekhGulpadia/yfinanceScreener/internal/recorder"
	"github.com/AbhilekhGulpadia/yfinanceScreener/internal/report"
	"github.com/AbhilekhGulpadia/yfinanceScreener/internal/universe"
)

var detailWeeks int

var weinsteinCmd = &cobra.Command{
	Use:   "weinstein [SYMBOL]",
	Short: "Run the weekly Stage Analysis screen",
	Long: `Score every stock of the selected index on the preset's weekly
conditions and print the ranked rows and the shortlist. With a SYMBOL,
print that stock's recent weekly condition history instead.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWeinstein,
}

func init() {
	rootCmd.AddCommand(weinsteinCmd)
	addRunFlags(weinsteinCmd)
	weinsteinCmd.Flags().IntVar(&detailWeeks, "weeks", 12, "Weeks of history for a single symbol")
}

func runWeinstein(cmd *cobra.Command, args []string) error {
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

	if len(args) == 1 {
		stock, ok := a.universe.Lookup(args[0])
		if !ok {
			stock = model.Stock{Symbol: universe.NormalizeSymbol(args[0], universe.DefaultSuffix)}
		}
		d, err := a.screener.WeinsteinDetail(ctx, stock, detailWeeks, asOf)
		if err != nil {
			return err
		}
		if jsonFlag {
			return writeJSON(os.Stdout, report.NewDetail(d))
		}
		report.RenderDetail(os.Stdout, d)
		return nil
	}

	res, err := a.screener.RunWeinstein(ctx, a.stocks(), asOf)
	if err != nil {
		return err
	}
	a.record(func(r recorder.Recorder) error { return r.RecordWeinstein(ctx, res) })
	if jsonFlag {
		return writeJSON(os.Stdout, report.NewWeinstein(res))
	}
	report.RenderWeinstein(os.Stdout, res, topFlag)
	return nil
}
