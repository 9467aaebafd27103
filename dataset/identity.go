package dataset

import "github.com/swdee/go-moteval/geometry"

// IdentityMap associates identities with their bounding box within a single
// frame.  Identities are not expected to repeat within a frame, when they do
// the last box set wins while the identity keeps its first seen position
type IdentityMap struct {
	order []TargetID
	boxes map[TargetID]geometry.Box
}

// NewIdentityMap returns an empty IdentityMap
func NewIdentityMap() *IdentityMap {
	return &IdentityMap{
		boxes: make(map[TargetID]geometry.Box),
	}
}

// Set associates the box with the identity
func (im *IdentityMap) Set(id TargetID, box geometry.Box) {

	if _, exists := im.boxes[id]; !exists {
		im.order = append(im.order, id)
	}

	im.boxes[id] = box
}

// Get returns the box for the identity
func (im *IdentityMap) Get(id TargetID) (geometry.Box, bool) {
	box, ok := im.boxes[id]
	return box, ok
}

// Len returns the number of distinct identities
func (im *IdentityMap) Len() int {
	return len(im.order)
}

// IDs returns the identities in first seen order.  The returned slice must
// not be modified
func (im *IdentityMap) IDs() []TargetID {
	return im.order
}
