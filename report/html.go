package report

import (
	"fmt"
	"io"
	"math"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/swdee/go-moteval/metrics"
)

// missing is the value echarts treats as a gap in a series
const missing = "-"

// WriteHTML renders an HTML page with a stacked bar chart of the per frame
// TP, FP and FN counts and a line chart of the per frame mean IoU of
// matched boxes
func WriteHTML(w io.Writer, title string, res *metrics.Result) error {

	x := make([]string, len(res.Frames))
	tp := make([]opts.BarData, len(res.Frames))
	fp := make([]opts.BarData, len(res.Frames))
	fn := make([]opts.BarData, len(res.Frames))
	iou := make([]opts.LineData, len(res.Frames))

	for i, fr := range res.Frames {
		x[i] = fr.Image
		tp[i] = opts.BarData{Value: fr.TP}
		fp[i] = opts.BarData{Value: fr.FP}
		fn[i] = opts.BarData{Value: fr.FN}

		if v := frameMeanIoU(fr); math.IsNaN(v) {
			iou[i] = opts.LineData{Value: missing}
		} else {
			iou[i] = opts.LineData{Value: v}
		}
	}

	subtitle := fmt.Sprintf("MOTA=%s IDF1=%s frames=%d",
		formatJS(res.MOTA), formatJS(res.IDF1), len(res.Frames))

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Width: "100%", Height: "480px"}),
		charts.WithTitleOpts(opts.Title{Title: "Detections per frame", Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Right: "10%"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Frame", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Count"}),
	)

	stack := charts.WithBarChartOpts(opts.BarChart{Stack: "detections"})

	bar.SetXAxis(x).
		AddSeries("TP", tp, stack).
		AddSeries("FP", fp, stack).
		AddSeries("FN", fn, stack)

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Width: "100%", Height: "360px"}),
		charts.WithTitleOpts(opts.Title{Title: "Mean IoU of matches"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Frame", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: "IoU", Min: 0, Max: 1}),
	)

	line.SetXAxis(x).AddSeries("IoU", iou)

	page := components.NewPage()
	page.PageTitle = title
	page.AddCharts(bar, line)

	if err := page.Render(w); err != nil {
		return fmt.Errorf("error rendering report page: %w", err)
	}

	return nil
}

// formatJS formats a metric for display, NaN is not valid in the generated
// chart options so undefined values become n/a
func formatJS(v float64) string {
	if math.IsNaN(v) {
		return "n/a"
	}
	return fmt.Sprintf("%.4f", v)
}
