package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/AbhilekhGulpadia/yfinanceScreener/internal/collector"
	"github.com/AbhilekhGulpadia/yfinanceScreener/internal/model"
	"github.com/AbhilekhGulpadia/yfinanceScreener/internal/normalize"
	"github.com/AbhilekhGulpadia/yfinanceScreener/internal/universe"
)

var importSymbol string

var importCmd = &cobra.Command{
	Use:   "import FILE...",
	Short: "Load OHLCV CSV files into the SQLite bar store",
	Long: `Read tidy OHLCV CSV files (symbol,date,open,high,low,close,adj_close,volume)
or single-symbol exports with --symbol, clean them and upsert the bars
into database.sqlite_path. Set data_source.provider to sqlite to screen
from the store.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)
	importCmd.Flags().StringVar(&importSymbol, "symbol", "", "Symbol for files without a symbol column")
}

func runImport(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	store, err := collector.NewSQLiteStore(cfg.Database.SQLitePath, log)
	if err != nil {
		return err
	}
	defer store.Close()
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	res := model.Resolution(cfg.DataSource.Resolution)
	opts := normalize.Options{Location: loc, Resolution: res}
	total := 0
	for _, path := range args {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("open %s: %w", path, err)
		}
		table, err := normalize.ReadCSV(f, importSymbol)
		f.Close()
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		for _, t := range normalize.SplitBySymbol(table) {
			if t.Symbol == "" {
				return fmt.Errorf("%s has no symbol column, pass --symbol", path)
			}
			series := normalize.FromTable(t, opts)
			symbol := universe.NormalizeSymbol(series.Symbol, universe.DefaultSuffix)
			n, err := store.Upsert(ctx, symbol, res, rawBars(series))
			if err != nil {
				return err
			}
			total += n
			log.Info().Str("file", path).Str("symbol", symbol).Int("bars", n).Msg("imported")
		}
	}
	log.Info().Int("bars", total).Str("db", cfg.Database.SQLitePath).Msg("import finished")
	return nil
}

func rawBars(s model.Series) []model.RawBar {
	out := make([]model.RawBar, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = model.RawBar{
			Time:     b.Time,
			Open:     b.Open,
			High:     b.High,
			Low:      b.Low,
			Close:    b.Close,
			AdjClose: b.AdjClose,
			Volume:   float64(b.Volume),
		}
	}
	return out
}
