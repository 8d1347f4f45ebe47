package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	configPath string
	asOfFlag   string
	indexFlag  string
	topFlag    int
	jsonFlag   bool
)

var rootCmd = &cobra.Command{
	Use:   "screener",
	Short: "Weinstein Stage screen and EMA/MACD crossover ranking over OHLCV data",
	Long: `screener fetches daily OHLCV bars for a stock universe, derives the
indicator frames and runs either the weekly Stage Analysis screen or the
daily crossover ranking.

Examples:
  screener weinstein --index nifty50 --top 25
  screener rank --as-of 2024-03-01 --json
  screener chart RELIANCE --out reliance.html
  screener import data/ohlcv.csv
  screener serve`,
	SilenceUsage: true,
}

func init() {
	defaultConfig := "configs/screener.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		defaultConfig = v
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", defaultConfig, "Path to the YAML or TOML config file")
}

// addRunFlags registers the flags shared by the screening commands.
func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&asOfFlag, "as-of", "", "Evaluate as of this date (YYYY-MM-DD), default today")
	cmd.Flags().StringVar(&indexFlag, "index", "", "Universe index to screen (default from config, \"all\" for every stock)")
	cmd.Flags().IntVar(&topFlag, "top", 30, "Rows to print, 0 for all")
	cmd.Flags().BoolVar(&jsonFlag, "json", false, "Print JSON instead of a table")
}

func parseAsOf(loc *time.Location) (time.Time, error) {
	if asOfFlag == "" {
		return time.Time{}, nil
	}
	t, err := time.ParseInLocation("2006-01-02", asOfFlag, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("--as-of must be YYYY-MM-DD: %w", err)
	}
	return t, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
