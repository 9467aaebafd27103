/*
Example program evaluating multi object tracker output against ground truth.

	go run evaluate.go -gt ../../testdata/gt.json -pred ../../testdata/result.json
*/
package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/k0kubun/go-ansi"
	"github.com/mitchellh/colorstring"
	"github.com/schollz/progressbar/v3"

	"github.com/swdee/go-moteval"
	"github.com/swdee/go-moteval/assign"
	"github.com/swdee/go-moteval/dataset"
	"github.com/swdee/go-moteval/metrics"
	"github.com/swdee/go-moteval/render"
	"github.com/swdee/go-moteval/report"
	"github.com/swdee/go-moteval/store"
)

func main() {
	// disable logging timestamps
	log.SetFlags(0)

	// read in cli flags
	gtFile := flag.String("gt", "../../testdata/gt.json", "Ground truth file in the exchange format")
	predFile := flag.String("pred", "../../testdata/result.json", "Tracker prediction file in the exchange format")
	threshold := flag.Float64("threshold", moteval.DefaultOptions().Threshold, "Minimum IoU to accept an identity correspondence or a match")
	solver := flag.String("solver", string(assign.MethodLAPJV), "Assignment solver used for identity reconciliation, lapjv or hungarian")
	strategy := flag.String("strategy", string(metrics.Greedy), "Per frame matching strategy used for scoring, greedy or optimal")
	workers := flag.Int("workers", 1, "Number of frames reconciled concurrently")
	frameList := flag.String("frames", "", "Text file listing the image identifiers to evaluate, one per line")
	outFile := flag.String("out", "", "Write the reconciled predictions to this file")
	htmlFile := flag.String("html", "", "Write an HTML report with per frame charts to this file")
	pngFile := flag.String("png", "", "Write a plot of per frame counts to this PNG file")
	dbFile := flag.String("db", "", "SQLite database to record the run in")
	label := flag.String("label", "", "Label to record the run under")
	history := flag.Bool("history", false, "List the runs recorded in the database under the label")
	summary := flag.Bool("summary", false, "Print per frame summary statistics")
	imageDir := flag.String("images", "", "Directory holding the frame images, used with -overlay")
	overlayDir := flag.String("overlay", "", "Write frame images with ground truth and prediction boxes drawn to this directory")

	flag.Parse()

	opts := moteval.Options{
		Threshold: *threshold,
		Solver:    assign.Method(*solver),
		Strategy:  metrics.Strategy(*strategy),
		Workers:   *workers,
	}

	evaluator, err := moteval.NewEvaluator(opts)

	if err != nil {
		log.Fatalf("Invalid options: %v", err)
	}

	gt, err := dataset.Load(*gtFile)

	if err != nil {
		log.Fatalf("Error loading ground truth: %v", err)
	}

	pred, err := dataset.Load(*predFile)

	if err != nil {
		log.Fatalf("Error loading predictions: %v", err)
	}

	if *frameList != "" {
		images, err := dataset.LoadFrameList(*frameList)

		if err != nil {
			log.Fatalf("Error loading frame list: %v", err)
		}

		gt = gt.Subset(images)
		pred = pred.Subset(images)

		log.Printf("Restricted evaluation to %d ground truth frames", gt.Len())
	}

	start := time.Now()

	rep, err := evaluator.Run(gt, pred)

	if err != nil {
		log.Fatalf("Error evaluating: %v", err)
	}

	log.Printf("Evaluated %d frames, relabelled %d predictions in %s",
		gt.Len(), rep.Reconciled.Relabelled(), time.Since(start))

	printMetrics(rep)

	if *summary {
		printSummary(rep.Metrics)
	}

	if *outFile != "" {
		if err := dataset.Save(*outFile, rep.Reconciled.Dataset); err != nil {
			log.Fatalf("Error saving reconciled predictions: %v", err)
		}

		log.Printf("Saved reconciled predictions to %s", *outFile)
	}

	if *htmlFile != "" {
		if err := writeHTML(*htmlFile, *label, rep.Metrics); err != nil {
			log.Fatalf("Error writing HTML report: %v", err)
		}

		log.Printf("Saved HTML report to %s", *htmlFile)
	}

	if *pngFile != "" {
		if err := report.SavePlot(*pngFile, rep.Metrics); err != nil {
			log.Fatalf("Error saving plot: %v", err)
		}

		log.Printf("Saved plot to %s", *pngFile)
	}

	if *dbFile != "" {
		if err := recordRun(*dbFile, *label, *gtFile, *predFile, rep, evaluator.Options(), *history); err != nil {
			log.Fatalf("Error recording run: %v", err)
		}
	}

	if *overlayDir != "" {
		if *imageDir == "" {
			log.Fatal("The -images directory is required to render overlays")
		}

		renderOverlays(*imageDir, *overlayDir, gt, rep)
	}
}

// printMetrics outputs the two headline metrics, coloured by how good they
// are
func printMetrics(rep *moteval.Report) {

	color.Output = ansi.NewAnsiStdout()

	printMetric("MOTA", rep.MOTA())
	printMetric("IDF1", rep.IDF1())
}

func printMetric(name string, v float64) {

	clr := color.New(color.FgRed, color.Bold)

	switch {
	case math.IsNaN(v):
		clr = color.New(color.FgYellow, color.Bold)
	case v >= 0.75:
		clr = color.New(color.FgGreen, color.Bold)
	case v >= 0.5:
		clr = color.New(color.FgCyan, color.Bold)
	}

	fmt.Fprintf(color.Output, "%s: %s\n", name, clr.Sprint(moteval.FormatMetric(v)))
}

func printSummary(res *metrics.Result) {

	s := report.Summarize(res)
	c := res.Counts

	colorstring.Fprintf(ansi.NewAnsiStdout(),
		"\nTP: [green]%d[reset]  FP: [red]%d[reset]  FN: [red]%d[reset]  ID matches: [green]%d[reset]\n",
		c.TP, c.FP, c.FN, c.IDMatches)
	colorstring.Fprintf(ansi.NewAnsiStdout(),
		"IDP: [cyan]%s[reset]  IDR: [cyan]%s[reset]\n\n",
		moteval.FormatMetric(res.IDPrecision), moteval.FormatMetric(res.IDRecall))

	fmt.Print(s.String())
}

func writeHTML(file, label string, res *metrics.Result) error {

	f, err := os.Create(file)

	if err != nil {
		return err
	}

	defer f.Close()

	title := "Tracking evaluation"

	if label != "" {
		title = fmt.Sprintf("%s - %s", title, label)
	}

	return report.WriteHTML(f, title, res)
}

func recordRun(dbFile, label, gtFile, predFile string, rep *moteval.Report,
	opts moteval.Options, history bool) error {

	db, err := store.Open(dbFile)

	if err != nil {
		return err
	}

	defer db.Close()

	run, err := store.NewRun(label, gtFile, predFile, rep.Metrics, opts)

	if err != nil {
		return err
	}

	if err := db.Insert(run); err != nil {
		return err
	}

	log.Printf("Recorded run %s", run.RunID)

	if !history {
		return nil
	}

	runs, err := db.List(label)

	if err != nil {
		return err
	}

	fmt.Printf("\n%-36s  %-19s  %-7s  %-7s\n", "Run", "Created", "MOTA", "IDF1")

	for _, r := range runs {
		fmt.Printf("%-36s  %-19s  %-7s  %-7s\n", r.RunID,
			time.Unix(0, r.CreatedAt).Format("2006-01-02 15:04:05"),
			moteval.FormatMetric(r.MOTA), moteval.FormatMetric(r.IDF1))
	}

	return nil
}

func renderOverlays(imageDir, outDir string, gt *dataset.Dataset, rep *moteval.Report) {

	bar := progressbar.NewOptions(len(rep.Metrics.Frames),
		progressbar.OptionSetWriter(ansi.NewAnsiStdout()),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(30),
		progressbar.OptionSetDescription("[cyan]Rendering overlays[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}))

	stats, err := render.RenderFrames(imageDir, outDir, rep.Metrics, gt,
		rep.Reconciled.Dataset, render.DefaultStyle(),
		func(string) { bar.Add(1) })

	bar.Finish()
	fmt.Println()

	if err != nil {
		log.Fatalf("Error rendering overlays: %v", err)
	}

	for image, err := range stats.Failed {
		log.Printf("Skipped frame %s: %v", image, err)
	}

	log.Printf("Rendered %d frames to %s, skipped %d", stats.Rendered, outDir, stats.Skipped)
}
