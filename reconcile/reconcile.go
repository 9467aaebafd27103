package reconcile

import (
	"fmt"
	"sync"

	"gonum.org/v1/gonum/mat"

	"github.com/swdee/go-moteval/assign"
	"github.com/swdee/go-moteval/dataset"
	"github.com/swdee/go-moteval/geometry"
)

// DefaultThreshold is the minimum IoU for an assigned pair to be accepted as
// the same identity
const DefaultThreshold = 0.3

// Options holds the reconciliation parameters
type Options struct {
	// Threshold is the minimum IoU for an assigned pair to be accepted
	Threshold float64
	// Solver performs the per frame optimal assignment
	Solver assign.Solver
	// Workers is the number of frames reconciled concurrently
	Workers int
}

// DefaultOptions returns the default reconciliation options
func DefaultOptions() Options {
	return Options{
		Threshold: DefaultThreshold,
		Solver:    assign.LAPJV{},
		Workers:   1,
	}
}

// Correspondence is an accepted pairing of a predicted identity with a ground
// truth identity
type Correspondence struct {
	PredID dataset.TargetID
	GTID   dataset.TargetID
	IoU    float64
}

// FrameMapping holds the accepted correspondences of a single frame
type FrameMapping struct {
	Image string
	Pairs []Correspondence
}

// Result is the outcome of reconciling a prediction dataset
type Result struct {
	// Dataset is the prediction dataset with identities relabelled.  It has
	// the same frames, detections and boxes as the input predictions
	Dataset *dataset.Dataset
	// Mappings holds the accepted correspondences per prediction frame in
	// prediction dataset order.  Frames with no ground truth have no pairs
	Mappings []FrameMapping
}

// Relabelled returns the total number of accepted correspondences
func (r *Result) Relabelled() int {

	total := 0

	for _, m := range r.Mappings {
		total += len(m.Pairs)
	}

	return total
}

// Reconciler relabels predicted identities to ground truth identities by
// optimal per frame spatial assignment
type Reconciler struct {
	opts Options
}

// NewReconciler returns a Reconciler.  A nil Solver selects LAPJV and a
// Workers value below one is treated as one
func NewReconciler(opts Options) *Reconciler {

	if opts.Solver == nil {
		opts.Solver = assign.LAPJV{}
	}

	if opts.Workers < 1 {
		opts.Workers = 1
	}

	return &Reconciler{opts: opts}
}

// Reconcile rewrites the identities of the predictions.  For every frame
// present in both datasets the ground truth and predicted boxes are paired
// by an optimal assignment over negated IoU, pairs with IoU at or above the
// threshold map the predicted identity to the ground truth identity.
// Predicted identities without an accepted pair are kept.  Frames present
// only in the predictions pass through unchanged
func (r *Reconciler) Reconcile(gt, pred *dataset.Dataset) (*Result, error) {

	predFrames := pred.Frames()
	frames := make([]dataset.Frame, len(predFrames))
	mappings := make([]FrameMapping, len(predFrames))

	work := func(idx int) error {
		predFrame := predFrames[idx]
		gtFrame, _ := gt.Frame(predFrame.Image)

		frame, mapping, err := r.reconcileFrame(gtFrame, predFrame)

		if err != nil {
			return fmt.Errorf("error reconciling frame %q: %w", predFrame.Image, err)
		}

		frames[idx] = frame
		mappings[idx] = mapping
		return nil
	}

	if err := runWorkers(len(predFrames), r.opts.Workers, work); err != nil {
		return nil, err
	}

	return &Result{
		Dataset:  dataset.New(frames...),
		Mappings: mappings,
	}, nil
}

// reconcileFrame relabels the predicted detections of a single frame
func (r *Reconciler) reconcileFrame(gtFrame, predFrame dataset.Frame) (dataset.Frame,
	FrameMapping, error) {

	mapping := FrameMapping{Image: predFrame.Image}

	out := dataset.Frame{
		Image:      predFrame.Image,
		Detections: make([]dataset.Detection, len(predFrame.Detections)),
	}

	copy(out.Detections, predFrame.Detections)

	// nothing to pair, copy predictions through
	if len(gtFrame.Detections) == 0 || len(predFrame.Detections) == 0 {
		return out, mapping, nil
	}

	cost := CostMatrix(gtFrame.Boxes(), predFrame.Boxes())

	pairs, err := r.opts.Solver.Solve(cost)

	if err != nil {
		return dataset.Frame{}, mapping, err
	}

	assigned := make(map[dataset.TargetID]dataset.TargetID)

	for _, p := range pairs {

		iou := -cost.At(p.Row, p.Col)

		if iou < r.opts.Threshold {
			continue
		}

		predID := predFrame.Detections[p.Col].ID
		gtID := gtFrame.Detections[p.Row].ID

		assigned[predID] = gtID

		mapping.Pairs = append(mapping.Pairs, Correspondence{
			PredID: predID,
			GTID:   gtID,
			IoU:    iou,
		})
	}

	for i, det := range out.Detections {
		if gtID, ok := assigned[det.ID]; ok {
			out.Detections[i].ID = gtID
		}
	}

	return out, mapping, nil
}

// CostMatrix builds the assignment cost matrix where cost(i, j) is the
// negated IoU of ground truth box i and predicted box j
func CostMatrix(gtBoxes, predBoxes []geometry.Box) *mat.Dense {

	cost := mat.NewDense(len(gtBoxes), len(predBoxes), nil)

	for i, gtBox := range gtBoxes {
		for j, predBox := range predBoxes {
			cost.Set(i, j, -geometry.IoU(gtBox, predBox))
		}
	}

	return cost
}

// runWorkers calls work for every index in [0, n) using up to size
// goroutines and returns the first error encountered
func runWorkers(n, size int, work func(idx int) error) error {

	if size <= 1 || n <= 1 {
		for i := 0; i < n; i++ {
			if err := work(i); err != nil {
				return err
			}
		}
		return nil
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	var once sync.Once
	var firstErr error

	for w := 0; w < min(size, n); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				if err := work(idx); err != nil {
					once.Do(func() { firstErr = err })
				}
			}
		}()
	}

	for i := 0; i < n; i++ {
		jobs <- i
	}

	close(jobs)
	wg.Wait()

	return firstErr
}
