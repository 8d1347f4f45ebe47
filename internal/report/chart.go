package report

import (
	"io"
	"strings"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/AbhilekhGulpadia/yfinanceScreener/internal/model"
	"github.com/AbhilekhGulpadia/yfinanceScreener/internal/screener"
)

func lineData(values []float64) []opts.LineData {
	out := make([]opts.LineData, len(values))
	for i, v := range values {
		if r := Round2(v); r != nil {
			out[i] = opts.LineData{Value: *r}
		} else {
			out[i] = opts.LineData{Value: "-"}
		}
	}
	return out
}

func barData(values []float64) []opts.BarData {
	out := make([]opts.BarData, len(values))
	for i, v := range values {
		if r := Round2(v); r != nil {
			out[i] = opts.BarData{Value: *r}
		} else {
			out[i] = opts.BarData{Value: "-"}
		}
	}
	return out
}

func globals(title string) []charts.GlobalOpts {
	return []charts.GlobalOpts{
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Width: "1200px", Height: "420px"}),
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Right: "5%"}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider", Start: 0, End: 100}),
	}
}

// RenderChart writes an HTML page with price and moving averages, RSI and
// MACD panels for a daily indicator frame. Missing columns are left out.
func RenderChart(w io.Writer, f *model.IndicatorFrame) error {
	dates := make([]string, f.Len())
	for i, b := range f.Bars {
		dates[i] = b.Time.Format(dateLayout)
	}

	price := charts.NewLine()
	price.SetGlobalOptions(globals(f.Symbol + " daily")...)
	price.SetXAxis(dates).AddSeries("close", lineData(f.Closes()))
	for _, name := range f.Names() {
		if strings.HasPrefix(name, "ema_") {
			col, _ := f.Column(name)
			price.AddSeries(name, lineData(col))
		}
	}

	page := components.NewPage()
	page.AddCharts(price)

	if rsi, ok := f.Column(screener.ColRSI); ok {
		panel := charts.NewLine()
		panel.SetGlobalOptions(globals("RSI")...)
		panel.SetXAxis(dates).AddSeries("rsi", lineData(rsi))
		page.AddCharts(panel)
	}
	if macd, ok := f.Column(screener.ColMACD); ok {
		signal, _ := f.Column(screener.ColMACDSignal)
		panel := charts.NewLine()
		panel.SetGlobalOptions(globals("MACD")...)
		panel.SetXAxis(dates).AddSeries("macd", lineData(macd))
		if signal != nil {
			panel.AddSeries("signal", lineData(signal))
		}
		page.AddCharts(panel)
	}
	if hist, ok := f.Column(screener.ColMACDHistogram); ok {
		panel := charts.NewBar()
		panel.SetGlobalOptions(globals("MACD histogram")...)
		panel.SetXAxis(dates).AddSeries("histogram", barData(hist))
		page.AddCharts(panel)
	}
	return page.Render(w)
}
