package geometry

import (
	"fmt"
	"math"
)

// Ltrb (left, top, right, bottom) represents a 1x4 matrix as found in the
// exchange format
type Ltrb [4]float64

// Box represents an axis aligned bounding box in pixel units of a frame.
// Coordinates are inclusive pixel indices, so a box with Left == Right is
// one pixel wide
type Box struct {
	Left   float64
	Top    float64
	Right  float64
	Bottom float64
}

// NewBox creates a new Box with given coordinates
func NewBox(left, top, right, bottom float64) Box {
	return Box{
		Left:   left,
		Top:    top,
		Right:  right,
		Bottom: bottom,
	}
}

// BoxFromLtrb creates a Box from Ltrb (left, top, right, bottom) format
func BoxFromLtrb(ltrb Ltrb) Box {
	return NewBox(ltrb[0], ltrb[1], ltrb[2], ltrb[3])
}

// Ltrb converts the box to Ltrb (left, top, right, bottom) format
func (b Box) Ltrb() Ltrb {
	return Ltrb{b.Left, b.Top, b.Right, b.Bottom}
}

// Width returns the inclusive pixel width of the box
func (b Box) Width() float64 {
	return b.Right - b.Left + 1
}

// Height returns the inclusive pixel height of the box
func (b Box) Height() float64 {
	return b.Bottom - b.Top + 1
}

// Area returns the inclusive pixel area of the box.  Inverted boxes yield
// a zero or negative area which is returned unchanged
func (b Box) Area() float64 {
	return b.Width() * b.Height()
}

// Valid reports whether the right and bottom edges are not before the left
// and top edges
func (b Box) Valid() bool {
	return b.Right >= b.Left && b.Bottom >= b.Top
}

// Intersect returns the overlapping rectangle of two boxes.  The result is
// inverted when the boxes do not overlap
func (b Box) Intersect(other Box) Box {
	return Box{
		Left:   math.Max(b.Left, other.Left),
		Top:    math.Max(b.Top, other.Top),
		Right:  math.Min(b.Right, other.Right),
		Bottom: math.Min(b.Bottom, other.Bottom),
	}
}

// String implements fmt.Stringer
func (b Box) String() string {
	return fmt.Sprintf("[%g, %g, %g, %g]", b.Left, b.Top, b.Right, b.Bottom)
}

// IoU calculates the Intersection over Union between two boxes using the
// inclusive pixel grid convention.  Each side of the intersection is clamped
// at zero.  If the union is not positive, which only happens for inverted
// boxes, zero is returned
func IoU(a, b Box) float64 {

	inter := a.Intersect(b)

	iw := math.Max(0, inter.Right-inter.Left+1)
	ih := math.Max(0, inter.Bottom-inter.Top+1)
	interArea := iw * ih

	union := a.Area() + b.Area() - interArea

	if union <= 0 {
		return 0
	}

	return interArea / union
}

// IoU calculates the Intersection over Union with another box
func (b Box) IoU(other Box) float64 {
	return IoU(b, other)
}
