package render

import (
	"image/color"

	"gocv.io/x/gocv"
)

type Alignment int

const (
	Left  Alignment = 1
	Right Alignment = 2
)

// Font defines the parameters for rendering text on an image using GoCV
type Font struct {
	Face      gocv.HersheyFont
	Scale     float64
	Color     color.RGBA
	Thickness int
	LineType  gocv.LineType
	// Padding to place around text
	Pad int
}

// DefaultFont returns default font settings
func DefaultFont() Font {
	return Font{
		Face:      gocv.FontHersheySimplex,
		Scale:     0.45,
		Color:     White,
		Thickness: 1,
		LineType:  gocv.LineAA,
		Pad:       3,
	}
}

// Style defines how the boxes of an evaluated frame are drawn
type Style struct {
	Font Font
	// LineThickness of the box outlines
	LineThickness int
	// GroundTruth is the outline colour of matched ground truth boxes
	GroundTruth color.RGBA
	// Miss is the outline colour of ground truth boxes without a match
	Miss color.RGBA
	// Match is the outline colour of matched predicted boxes
	Match color.RGBA
	// FalsePositive is the outline colour of unmatched predicted boxes
	FalsePositive color.RGBA
	// GTLabel and PredLabel place the identity labels on opposite sides of
	// the box so overlapping pairs stay readable
	GTLabel   Alignment
	PredLabel Alignment
	// ShowIoU appends the overlap to the labels of matched predictions
	ShowIoU bool
}

// DefaultStyle returns the default overlay style
func DefaultStyle() Style {
	return Style{
		Font:          DefaultFont(),
		LineThickness: 2,
		GroundTruth:   Green,
		Miss:          Orange,
		Match:         Blue,
		FalsePositive: Red,
		GTLabel:       Left,
		PredLabel:     Right,
		ShowIoU:       true,
	}
}
