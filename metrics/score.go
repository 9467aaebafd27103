package metrics

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/swdee/go-moteval/assign"
	"github.com/swdee/go-moteval/dataset"
	"github.com/swdee/go-moteval/geometry"
)

// DefaultThreshold is the minimum IoU for a predicted box to count as a
// match of a ground truth box
const DefaultThreshold = 0.3

// Strategy defines how ground truth and predicted boxes are matched within
// a frame when scoring
type Strategy string

const (
	// Greedy scans predicted identities in first seen order and takes the
	// first one overlapping the ground truth box enough.  A predicted box
	// may be matched by more than one ground truth box
	Greedy Strategy = "greedy"
	// Optimal uses a one-to-one optimal assignment over negated IoU, the same
	// matching used for identity reconciliation
	Optimal Strategy = "optimal"
)

// ParseStrategy converts a strategy name into a Strategy
func ParseStrategy(name string) (Strategy, error) {

	switch Strategy(name) {
	case Greedy, "":
		return Greedy, nil
	case Optimal:
		return Optimal, nil
	}

	return "", fmt.Errorf("unknown matching strategy %q", name)
}

// Options holds the scoring parameters
type Options struct {
	// Threshold is the minimum IoU for a match
	Threshold float64
	// Strategy is the per frame matching strategy
	Strategy Strategy
	// Solver is used by the Optimal strategy
	Solver assign.Solver
}

// DefaultOptions returns the default scoring options
func DefaultOptions() Options {
	return Options{
		Threshold: DefaultThreshold,
		Strategy:  Greedy,
		Solver:    assign.LAPJV{},
	}
}

// IDPair is a ground truth identity matched with a predicted identity
type IDPair struct {
	GTID   dataset.TargetID
	PredID dataset.TargetID
}

// Match is a single matched box pair within a frame
type Match struct {
	GTID   dataset.TargetID
	PredID dataset.TargetID
	IoU    float64
}

// FrameResult holds the match outcome of a single ground truth frame
type FrameResult struct {
	Image          string
	TP             int
	FP             int
	FN             int
	Matches        []Match
	Misses         []dataset.TargetID
	FalsePositives []dataset.TargetID
}

// Counts holds the totals accumulated over all frames
type Counts struct {
	TP int
	FP int
	FN int
	// IDMatches is the total of all identity pair match counts
	IDMatches int
	// GTDetections is the number of distinct ground truth identities summed
	// over every ground truth frame
	GTDetections int
	// PredDetections is the number of distinct predicted identities summed
	// over every prediction frame, including frames without ground truth
	PredDetections int
	// Pairs counts how often each identity pair was matched
	Pairs map[IDPair]int
}

// Result holds the scoring outcome.  A metric whose denominator is zero is
// undefined and set to NaN
type Result struct {
	MOTA        float64
	IDF1        float64
	IDPrecision float64
	IDRecall    float64
	Counts      Counts
	// Frames holds the per frame outcome in ground truth order
	Frames []FrameResult
}

// Scorer computes MOTA and IDF1 of reconciled predictions
type Scorer struct {
	opts Options
}

// NewScorer returns a Scorer.  A nil Solver selects LAPJV and an empty
// Strategy selects Greedy
func NewScorer(opts Options) *Scorer {

	if opts.Solver == nil {
		opts.Solver = assign.LAPJV{}
	}

	if opts.Strategy == "" {
		opts.Strategy = Greedy
	}

	return &Scorer{opts: opts}
}

// Score matches the predictions against the ground truth frame by frame and
// derives the metrics.  Only frames with a ground truth entry are matched,
// prediction only frames still count towards the identity precision
// denominator
func (s *Scorer) Score(gt, pred *dataset.Dataset) (*Result, error) {

	counts := Counts{
		Pairs: make(map[IDPair]int),
	}

	predLookup := make(map[string]*dataset.IdentityMap, pred.Len())

	for _, f := range pred.Frames() {
		im := f.Identities()
		predLookup[f.Image] = im
		counts.PredDetections += im.Len()
	}

	frames := make([]FrameResult, 0, gt.Len())

	for _, f := range gt.Frames() {

		gtIm := f.Identities()
		counts.GTDetections += gtIm.Len()

		predIm, ok := predLookup[f.Image]

		if !ok {
			predIm = dataset.NewIdentityMap()
		}

		fr, err := s.matchFrame(f.Image, gtIm, predIm)

		if err != nil {
			return nil, fmt.Errorf("error matching frame %q: %w", f.Image, err)
		}

		counts.TP += fr.TP
		counts.FP += fr.FP
		counts.FN += fr.FN

		for _, m := range fr.Matches {
			counts.Pairs[IDPair{GTID: m.GTID, PredID: m.PredID}]++
			counts.IDMatches++
		}

		frames = append(frames, fr)
	}

	res := &Result{
		Counts: counts,
		Frames: frames,
	}

	res.MOTA = MOTA(counts.TP, counts.FP, counts.FN)
	res.IDPrecision = ratio(counts.IDMatches, counts.PredDetections)
	res.IDRecall = ratio(counts.IDMatches, counts.GTDetections)
	res.IDF1 = F1(res.IDPrecision, res.IDRecall)

	return res, nil
}

// matchFrame matches the identities of a single frame
func (s *Scorer) matchFrame(image string, gtIm, predIm *dataset.IdentityMap) (FrameResult, error) {

	fr := FrameResult{Image: image}

	matchedGT := make(map[dataset.TargetID]bool)
	matchedPred := make(map[dataset.TargetID]bool)

	addMatch := func(gtID, predID dataset.TargetID, iou float64) {
		fr.TP++
		fr.Matches = append(fr.Matches, Match{GTID: gtID, PredID: predID, IoU: iou})
		matchedGT[gtID] = true
		matchedPred[predID] = true
	}

	switch s.opts.Strategy {
	case Greedy:
		for _, gtID := range gtIm.IDs() {
			gtBox, _ := gtIm.Get(gtID)

			for _, predID := range predIm.IDs() {
				predBox, _ := predIm.Get(predID)

				if iou := geometry.IoU(gtBox, predBox); iou >= s.opts.Threshold {
					addMatch(gtID, predID, iou)
					break
				}
			}
		}

	case Optimal:
		if gtIm.Len() > 0 && predIm.Len() > 0 {
			cost := mat.NewDense(gtIm.Len(), predIm.Len(), nil)

			for i, gtID := range gtIm.IDs() {
				gtBox, _ := gtIm.Get(gtID)

				for j, predID := range predIm.IDs() {
					predBox, _ := predIm.Get(predID)
					cost.Set(i, j, -geometry.IoU(gtBox, predBox))
				}
			}

			pairs, err := s.opts.Solver.Solve(cost)

			if err != nil {
				return fr, err
			}

			for _, p := range pairs {
				if iou := -cost.At(p.Row, p.Col); iou >= s.opts.Threshold {
					addMatch(gtIm.IDs()[p.Row], predIm.IDs()[p.Col], iou)
				}
			}
		}

	default:
		return fr, fmt.Errorf("unknown matching strategy %q", s.opts.Strategy)
	}

	for _, gtID := range gtIm.IDs() {
		if !matchedGT[gtID] {
			fr.FN++
			fr.Misses = append(fr.Misses, gtID)
		}
	}

	for _, predID := range predIm.IDs() {
		if !matchedPred[predID] {
			fr.FP++
			fr.FalsePositives = append(fr.FalsePositives, predID)
		}
	}

	return fr, nil
}

// MOTA returns 1 - (FN + FP) / (TP + FN), or NaN when there is no ground
// truth
func MOTA(tp, fp, fn int) float64 {

	if tp+fn == 0 {
		return math.NaN()
	}

	return 1 - float64(fn+fp)/float64(tp+fn)
}

// F1 returns the harmonic mean of precision and recall.  NaN propagates and
// a zero sum yields zero
func F1(precision, recall float64) float64 {

	if math.IsNaN(precision) || math.IsNaN(recall) {
		return math.NaN()
	}

	if precision+recall == 0 {
		return 0
	}

	return 2 * precision * recall / (precision + recall)
}

// ratio divides num by den returning NaN for a zero denominator
func ratio(num, den int) float64 {

	if den == 0 {
		return math.NaN()
	}

	return float64(num) / float64(den)
}
