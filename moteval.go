package moteval

import (
	"fmt"
	"strings"

	"github.com/swdee/go-moteval/assign"
	"github.com/swdee/go-moteval/dataset"
	"github.com/swdee/go-moteval/metrics"
	"github.com/swdee/go-moteval/reconcile"
)

// Options defines the parameters of an evaluation run
type Options struct {
	// Threshold is the minimum IoU used both to accept a reconciled identity
	// and to count a match when scoring
	Threshold float64 `json:"threshold"`
	// Solver is the optimal assignment method used for reconciliation
	Solver assign.Method `json:"solver"`
	// Strategy is the matching strategy used when scoring
	Strategy metrics.Strategy `json:"strategy"`
	// Workers is the number of frames reconciled concurrently
	Workers int `json:"workers"`
}

// DefaultOptions returns the options reproducing the reference metric values
func DefaultOptions() Options {
	return Options{
		Threshold: reconcile.DefaultThreshold,
		Solver:    assign.MethodLAPJV,
		Strategy:  metrics.Greedy,
		Workers:   1,
	}
}

// Report holds the outcome of an evaluation run
type Report struct {
	// Reconciled is the prediction dataset after identity relabelling
	Reconciled *reconcile.Result
	// Metrics holds the scoring outcome
	Metrics *metrics.Result
}

// MOTA returns the Multiple Object Tracking Accuracy
func (r *Report) MOTA() float64 {
	return r.Metrics.MOTA
}

// IDF1 returns the ID F1 score
func (r *Report) IDF1() float64 {
	return r.Metrics.IDF1
}

// String formats the two metrics with four decimal places
func (r *Report) String() string {

	var sb strings.Builder

	fmt.Fprintf(&sb, "MOTA: %s\n", FormatMetric(r.MOTA()))
	fmt.Fprintf(&sb, "IDF1: %s\n", FormatMetric(r.IDF1()))

	return sb.String()
}

// FormatMetric formats a metric value with four decimal places.  Undefined
// metrics are formatted as NaN
func FormatMetric(v float64) string {
	return fmt.Sprintf("%.4f", v)
}

// Evaluator reconciles predicted identities against ground truth and then
// scores the reconciled predictions
type Evaluator struct {
	opts       Options
	reconciler *reconcile.Reconciler
	scorer     *metrics.Scorer
}

// NewEvaluator returns an Evaluator for the given options
func NewEvaluator(opts Options) (*Evaluator, error) {

	solver, err := assign.NewSolver(opts.Solver)

	if err != nil {
		return nil, err
	}

	strategy, err := metrics.ParseStrategy(string(opts.Strategy))

	if err != nil {
		return nil, err
	}

	if opts.Threshold < 0 || opts.Threshold > 1 {
		return nil, fmt.Errorf("threshold %v outside of [0, 1]", opts.Threshold)
	}

	return &Evaluator{
		opts: opts,
		reconciler: reconcile.NewReconciler(reconcile.Options{
			Threshold: opts.Threshold,
			Solver:    solver,
			Workers:   opts.Workers,
		}),
		scorer: metrics.NewScorer(metrics.Options{
			Threshold: opts.Threshold,
			Strategy:  strategy,
			Solver:    solver,
		}),
	}, nil
}

// Options returns the options the Evaluator was created with
func (e *Evaluator) Options() Options {
	return e.opts
}

// Run evaluates the predictions against the ground truth
func (e *Evaluator) Run(gt, pred *dataset.Dataset) (*Report, error) {

	rec, err := e.reconciler.Reconcile(gt, pred)

	if err != nil {
		return nil, fmt.Errorf("error reconciling identities: %w", err)
	}

	res, err := e.scorer.Score(gt, rec.Dataset)

	if err != nil {
		return nil, fmt.Errorf("error scoring predictions: %w", err)
	}

	return &Report{
		Reconciled: rec,
		Metrics:    res,
	}, nil
}

// Evaluate computes MOTA and IDF1 of the predictions against the ground
// truth using the default options
func Evaluate(gt, pred *dataset.Dataset) (mota, idf1 float64, err error) {

	e, err := NewEvaluator(DefaultOptions())

	if err != nil {
		return 0, 0, err
	}

	report, err := e.Run(gt, pred)

	if err != nil {
		return 0, 0, err
	}

	return report.MOTA(), report.IDF1(), nil
}

// EvaluateFiles loads the ground truth and prediction files and evaluates
// them with the given options
func EvaluateFiles(gtFile, predFile string, opts Options) (*Report, error) {

	e, err := NewEvaluator(opts)

	if err != nil {
		return nil, err
	}

	gt, err := dataset.Load(gtFile)

	if err != nil {
		return nil, fmt.Errorf("error loading ground truth: %w", err)
	}

	pred, err := dataset.Load(predFile)

	if err != nil {
		return nil, fmt.Errorf("error loading predictions: %w", err)
	}

	return e.Run(gt, pred)
}
