package report

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/swdee/go-moteval/metrics"
)

// Summary holds descriptive statistics over the per frame scoring outcome.
// Statistics without any sample are NaN
type Summary struct {
	// Frames is the number of scored ground truth frames
	Frames int
	// PerfectFrames is the number of frames without a miss or false positive
	PerfectFrames int
	// FramesWithMisses is the number of frames with at least one miss
	FramesWithMisses int
	// FramesWithFalsePositives is the number of frames with at least one
	// false positive
	FramesWithFalsePositives int
	// Matches is the number of matched box pairs
	Matches int
	// MeanIoU and StdIoU describe the overlap of matched box pairs
	MeanIoU float64
	StdIoU  float64
	// MeanPrecision and MeanRecall are averaged over the frames where they
	// are defined
	MeanPrecision float64
	MeanRecall    float64
}

// Summarize computes the Summary of a scoring result
func Summarize(res *metrics.Result) Summary {

	s := Summary{
		Frames: len(res.Frames),
	}

	var ious, precisions, recalls []float64

	for _, fr := range res.Frames {

		if fr.FN == 0 && fr.FP == 0 {
			s.PerfectFrames++
		}

		if fr.FN > 0 {
			s.FramesWithMisses++
		}

		if fr.FP > 0 {
			s.FramesWithFalsePositives++
		}

		for _, m := range fr.Matches {
			ious = append(ious, m.IoU)
		}

		if p := framePrecision(fr); !math.IsNaN(p) {
			precisions = append(precisions, p)
		}

		if r := frameRecall(fr); !math.IsNaN(r) {
			recalls = append(recalls, r)
		}
	}

	s.Matches = len(ious)
	s.MeanIoU, s.StdIoU = meanStd(ious)
	s.MeanPrecision = mean(precisions)
	s.MeanRecall = mean(recalls)

	return s
}

// String renders the summary as aligned text lines
func (s Summary) String() string {

	var sb strings.Builder

	fmt.Fprintf(&sb, "Frames:                %d\n", s.Frames)
	fmt.Fprintf(&sb, "Perfect frames:        %d\n", s.PerfectFrames)
	fmt.Fprintf(&sb, "Frames with misses:    %d\n", s.FramesWithMisses)
	fmt.Fprintf(&sb, "Frames with false pos: %d\n", s.FramesWithFalsePositives)
	fmt.Fprintf(&sb, "Matches:               %d\n", s.Matches)
	fmt.Fprintf(&sb, "IoU mean/std:          %.4f / %.4f\n", s.MeanIoU, s.StdIoU)
	fmt.Fprintf(&sb, "Frame precision mean:  %.4f\n", s.MeanPrecision)
	fmt.Fprintf(&sb, "Frame recall mean:     %.4f\n", s.MeanRecall)

	return sb.String()
}

// framePrecision returns TP / (TP + FP) of a frame
func framePrecision(fr metrics.FrameResult) float64 {
	if fr.TP+fr.FP == 0 {
		return math.NaN()
	}
	return float64(fr.TP) / float64(fr.TP+fr.FP)
}

// frameRecall returns TP / (TP + FN) of a frame
func frameRecall(fr metrics.FrameResult) float64 {
	if fr.TP+fr.FN == 0 {
		return math.NaN()
	}
	return float64(fr.TP) / float64(fr.TP+fr.FN)
}

// frameMeanIoU returns the mean overlap of the matches in a frame
func frameMeanIoU(fr metrics.FrameResult) float64 {

	ious := make([]float64, len(fr.Matches))

	for i, m := range fr.Matches {
		ious[i] = m.IoU
	}

	return mean(ious)
}

func mean(x []float64) float64 {
	if len(x) == 0 {
		return math.NaN()
	}
	return stat.Mean(x, nil)
}

// meanStd returns the mean and the unbiased standard deviation, the latter
// needs at least two samples
func meanStd(x []float64) (float64, float64) {

	switch len(x) {
	case 0:
		return math.NaN(), math.NaN()
	case 1:
		return x[0], math.NaN()
	}

	return stat.MeanStdDev(x, nil)
}
