package dataset

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/swdee/go-moteval/geometry"
)

// TargetID is a dataset local identity label.  The exchange format allows
// either a string or a number, the two kinds never compare equal so the
// string "1" and the number 1 are different identities
type TargetID struct {
	// Value is the canonical text form of the identity
	Value string
	// Numeric is true if the identity was given as a JSON number
	Numeric bool
}

// StringID returns a TargetID for a string identity
func StringID(s string) TargetID {
	return TargetID{Value: s}
}

// IntID returns a TargetID for an integer identity
func IntID(n int64) TargetID {
	return TargetID{
		Value:   strconv.FormatInt(n, 10),
		Numeric: true,
	}
}

// NumericID returns a TargetID for a numeric identity.  Numbers are
// canonicalised so 3 and 3.0 are the same identity.  Integers beyond the
// exact range of float64 should use IntID
func NumericID(f float64) TargetID {
	return TargetID{
		Value:   strconv.FormatFloat(f, 'f', -1, 64),
		Numeric: true,
	}
}

// String implements fmt.Stringer
func (id TargetID) String() string {
	return id.Value
}

// MarshalJSON writes the identity back out in its original kind
func (id TargetID) MarshalJSON() ([]byte, error) {
	if id.Numeric {
		return []byte(id.Value), nil
	}
	return json.Marshal(id.Value)
}

// UnmarshalJSON accepts a JSON string or number
func (id *TargetID) UnmarshalJSON(data []byte) error {

	parsed, err := parseTargetID(data)

	if err != nil {
		return err
	}

	*id = parsed
	return nil
}

// parseTargetID converts raw JSON into a TargetID
func parseTargetID(raw json.RawMessage) (TargetID, error) {

	if len(raw) == 0 {
		return TargetID{}, fmt.Errorf("%w: empty target_id", ErrMalformed)
	}

	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return TargetID{}, fmt.Errorf("%w: target_id: %v", ErrMalformed, err)
		}
		return StringID(s), nil

	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		// integers keep every digit, only fractional or exponent forms are
		// read as float
		if n, err := strconv.ParseInt(string(raw), 10, 64); err == nil {
			return IntID(n), nil
		}

		if u, err := strconv.ParseUint(string(raw), 10, 64); err == nil {
			return TargetID{Value: strconv.FormatUint(u, 10), Numeric: true}, nil
		}

		f, err := strconv.ParseFloat(string(raw), 64)
		if err != nil {
			return TargetID{}, fmt.Errorf("%w: target_id %s: %v", ErrMalformed, raw, err)
		}
		return NumericID(f), nil
	}

	return TargetID{}, fmt.Errorf("%w: target_id must be a string or number, got %s",
		ErrMalformed, raw)
}

// Detection is a bounding box paired with an identity label
type Detection struct {
	// ID is the identity label of the object
	ID TargetID
	// Box is the bounding box of the object
	Box geometry.Box
}

// NewDetection is a constructor function for the Detection struct
func NewDetection(id TargetID, box geometry.Box) Detection {
	return Detection{
		ID:  id,
		Box: box,
	}
}

// Frame is a named image holding an ordered list of detections
type Frame struct {
	// Image is the image identifier, usually the file name
	Image string
	// Detections in the order they were given
	Detections []Detection
}

// Boxes returns the bounding boxes of the frame in detection order
func (f Frame) Boxes() []geometry.Box {

	boxes := make([]geometry.Box, len(f.Detections))

	for i, det := range f.Detections {
		boxes[i] = det.Box
	}

	return boxes
}

// Identities builds the identity to box lookup of the frame
func (f Frame) Identities() *IdentityMap {

	im := NewIdentityMap()

	for _, det := range f.Detections {
		im.Set(det.ID, det.Box)
	}

	return im
}

// clone returns a deep copy of the frame
func (f Frame) clone() Frame {

	dets := make([]Detection, len(f.Detections))
	copy(dets, f.Detections)

	return Frame{
		Image:      f.Image,
		Detections: dets,
	}
}

// Dataset is an ordered mapping of image identifier to Frame.  A Dataset is
// read only once built
type Dataset struct {
	frames []Frame
	index  map[string]int
}

// New creates a Dataset from the given frames.  If an image identifier is
// repeated the last frame wins but keeps the position of the first
func New(frames ...Frame) *Dataset {

	ds := &Dataset{
		frames: make([]Frame, 0, len(frames)),
		index:  make(map[string]int, len(frames)),
	}

	for _, f := range frames {
		ds.put(f)
	}

	return ds
}

// put adds or replaces a frame
func (ds *Dataset) put(f Frame) {

	if idx, exists := ds.index[f.Image]; exists {
		ds.frames[idx] = f
		return
	}

	ds.index[f.Image] = len(ds.frames)
	ds.frames = append(ds.frames, f)
}

// Frames returns the frames in dataset order.  The returned slice must not
// be modified
func (ds *Dataset) Frames() []Frame {
	return ds.frames
}

// Frame returns the frame for the given image identifier
func (ds *Dataset) Frame(image string) (Frame, bool) {

	idx, exists := ds.index[image]

	if !exists {
		return Frame{}, false
	}

	return ds.frames[idx], true
}

// Has reports whether the image identifier is present
func (ds *Dataset) Has(image string) bool {
	_, exists := ds.index[image]
	return exists
}

// Len returns the number of frames
func (ds *Dataset) Len() int {
	return len(ds.frames)
}

// NumDetections returns the total number of detections over all frames
func (ds *Dataset) NumDetections() int {

	total := 0

	for _, f := range ds.frames {
		total += len(f.Detections)
	}

	return total
}

// Subset returns a new Dataset holding only the named frames in the order
// given.  Names not present in the dataset are skipped
func (ds *Dataset) Subset(images []string) *Dataset {

	sub := New()

	for _, image := range images {
		if f, ok := ds.Frame(image); ok {
			sub.put(f.clone())
		}
	}

	return sub
}

// Clone returns a deep copy of the dataset
func (ds *Dataset) Clone() *Dataset {

	frames := make([]Frame, len(ds.frames))

	for i, f := range ds.frames {
		frames[i] = f.clone()
	}

	return New(frames...)
}
