package report

import (
	"errors"
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/swdee/go-moteval/metrics"
)

var (
	// ErrNoFrames is returned when plotting a result without scored frames
	ErrNoFrames = errors.New("no frames to plot")

	colorTP = color.RGBA{R: 46, G: 160, B: 67, A: 255}
	colorFP = color.RGBA{R: 214, G: 39, B: 40, A: 255}
	colorFN = color.RGBA{R: 255, G: 152, B: 0, A: 255}
)

// SavePlot writes a PNG (or any format gonum/plot infers from the file
// extension) of the per frame TP, FP and FN counts as stacked bars
func SavePlot(path string, res *metrics.Result) error {

	if len(res.Frames) == 0 {
		return ErrNoFrames
	}

	tp := make(plotter.Values, len(res.Frames))
	fp := make(plotter.Values, len(res.Frames))
	fn := make(plotter.Values, len(res.Frames))

	for i, fr := range res.Frames {
		tp[i] = float64(fr.TP)
		fp[i] = float64(fr.FP)
		fn[i] = float64(fr.FN)
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Detections per frame - MOTA %s IDF1 %s",
		formatJS(res.MOTA), formatJS(res.IDF1))
	p.X.Label.Text = "Frame"
	p.Y.Label.Text = "Count"

	width := vg.Points(8)

	tpBars, err := plotter.NewBarChart(tp, width)

	if err != nil {
		return fmt.Errorf("error creating TP bars: %w", err)
	}

	fpBars, err := plotter.NewBarChart(fp, width)

	if err != nil {
		return fmt.Errorf("error creating FP bars: %w", err)
	}

	fnBars, err := plotter.NewBarChart(fn, width)

	if err != nil {
		return fmt.Errorf("error creating FN bars: %w", err)
	}

	tpBars.Color = colorTP
	tpBars.LineStyle.Width = 0
	fpBars.Color = colorFP
	fpBars.LineStyle.Width = 0
	fpBars.StackOn(tpBars)
	fnBars.Color = colorFN
	fnBars.LineStyle.Width = 0
	fnBars.StackOn(fpBars)

	p.Add(tpBars, fpBars, fnBars)
	p.Legend.Add("TP", tpBars)
	p.Legend.Add("FP", fpBars)
	p.Legend.Add("FN", fnBars)
	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10

	if err := p.Save(14*vg.Inch, 6*vg.Inch, path); err != nil {
		return fmt.Errorf("error saving plot: %w", err)
	}

	return nil
}
