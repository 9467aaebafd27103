package render

import (
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"github.com/swdee/go-moteval/dataset"
	"github.com/swdee/go-moteval/geometry"
	"github.com/swdee/go-moteval/metrics"
)

// boxLabel is a precalculated text label drawn after all box outlines
type boxLabel struct {
	rect    image.Rectangle
	clr     color.RGBA
	text    string
	textPos image.Point
}

// Overlay draws the ground truth and predicted boxes of a frame onto img.
// Ground truth boxes are outlined by whether they were matched or missed and
// predicted boxes by whether they were matched or counted as false
// positives.  Labels carry the identity on a background of its palette
// colour
func Overlay(img *gocv.Mat, fr metrics.FrameResult, gt, pred dataset.Frame, style Style) {

	missed := make(map[dataset.TargetID]bool, len(fr.Misses))

	for _, id := range fr.Misses {
		missed[id] = true
	}

	predIoU := make(map[dataset.TargetID]float64, len(fr.Matches))

	for _, m := range fr.Matches {
		// greedy matching may reuse a prediction, keep its best overlap
		if m.IoU > predIoU[m.PredID] {
			predIoU[m.PredID] = m.IoU
		}
	}

	labels := make([]boxLabel, 0)

	gtIm := gt.Identities()

	for _, id := range gtIm.IDs() {
		box, _ := gtIm.Get(id)

		clr := style.GroundTruth

		if missed[id] {
			clr = style.Miss
		}

		rect := toRect(box)
		gocv.Rectangle(img, rect, clr, style.LineThickness)

		labels = append(labels, layoutLabel(rect, "gt "+id.String(), IDColor(id),
			style.Font, style.GTLabel, style.LineThickness))
	}

	predIm := pred.Identities()

	for _, id := range predIm.IDs() {
		box, _ := predIm.Get(id)

		clr := style.FalsePositive
		text := id.String()

		if iou, ok := predIoU[id]; ok {
			clr = style.Match

			if style.ShowIoU {
				text = fmt.Sprintf("%s %.2f", text, iou)
			}
		}

		rect := toRect(box)
		gocv.Rectangle(img, rect, clr, style.LineThickness)

		labels = append(labels, layoutLabel(rect, text, IDColor(id),
			style.Font, style.PredLabel, style.LineThickness))
	}

	// draw all labels last so they are the top most layer and are not
	// crossed by box outlines
	for _, l := range labels {
		gocv.Rectangle(img, l.rect, l.clr, -1)

		gocv.PutTextWithParams(img, l.text, l.textPos,
			style.Font.Face, style.Font.Scale, style.Font.Color,
			style.Font.Thickness, style.Font.LineType, false)
	}
}

// toRect converts an inclusive pixel box to an image rectangle
func toRect(b geometry.Box) image.Rectangle {
	return image.Rect(int(b.Left), int(b.Top), int(b.Right), int(b.Bottom))
}

// layoutLabel positions a text label above the top edge of rect
func layoutLabel(rect image.Rectangle, text string, clr color.RGBA,
	font Font, align Alignment, lineThickness int) boxLabel {

	size := gocv.GetTextSize(text, font.Face, font.Scale, font.Thickness)

	return placeLabel(rect, text, clr, size, font.Pad, align, lineThickness)
}

// placeLabel computes the label background and text origin for a text of the
// given rendered size
func placeLabel(rect image.Rectangle, text string, clr color.RGBA,
	size image.Point, pad int, align Alignment, lineThickness int) boxLabel {

	var left int

	switch align {
	case Right:
		left = rect.Max.X - size.X - 2*pad + lineThickness/2
	case Left:
		fallthrough
	default:
		left = rect.Min.X - lineThickness/2
	}

	top := rect.Min.Y - size.Y - 2*pad

	// keep labels of boxes touching the image top inside the image
	if top < 0 {
		top = rect.Min.Y
	}

	return boxLabel{
		rect:    image.Rect(left, top, left+size.X+2*pad, top+size.Y+2*pad),
		clr:     clr,
		text:    text,
		textPos: image.Pt(left+pad, top+size.Y+pad),
	}
}
