package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/AbhilekhGulpadia/yfinanceScreener/internal/report"
	"github.com/AbhilekhGulpadia/yfinanceScreener/internal/universe"
)

var chartOut string

var chartCmd = &cobra.Command{
	Use:   "chart SYMBOL",
	Short: "Write the daily indicator chart of one symbol",
	Long: `Build the daily frame (EMA lines, RSI, MACD) of SYMBOL and write it as
an HTML chart page, or as JSON with --json.`,
	Args: cobra.ExactArgs(1),
	RunE: runChart,
}

func init() {
	rootCmd.AddCommand(chartCmd)
	chartCmd.Flags().StringVar(&asOfFlag, "as-of", "", "Cut the history at this date (YYYY-MM-DD)")
	chartCmd.Flags().StringVar(&chartOut, "out", "", "Output file, default <symbol>.html")
	chartCmd.Flags().BoolVar(&jsonFlag, "json", false, "Print the frame as JSON")
}

func runChart(cmd *cobra.Command, args []string) error {
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

	symbol := universe.NormalizeSymbol(args[0], universe.DefaultSuffix)
	if st, ok := a.universe.Lookup(args[0]); ok {
		symbol = st.Symbol
	}
	frame, err := a.screener.Chart(ctx, symbol, asOf)
	if err != nil {
		return err
	}
	if jsonFlag {
		return writeJSON(os.Stdout, report.NewFrame(frame))
	}

	out := chartOut
	if out == "" {
		out = symbol + ".html"
	}
	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("create %s: %w", out, err)
	}
	defer f.Close()
	if err := report.RenderChart(f, frame); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	a.log.Info().Str("symbol", symbol).Int("bars", frame.Len()).Str("file", out).Msg("chart written")
	return nil
}
